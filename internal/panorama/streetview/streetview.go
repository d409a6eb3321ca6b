// Package streetview implements panorama.Provider on top of the Google
// Street View Image Metadata API.
package streetview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/panorama"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/streetview/metadata"

// Client issues metadata requests. Metadata lookups are not billed, which is
// what makes random sampling affordable.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
}

func New(baseURL, key string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		key:        key,
	}
}

type metadataResponse struct {
	Status       string `json:"status"`
	PanoID       string `json:"pano_id"`
	Date         string `json:"date"`
	Copyright    string `json:"copyright"`
	ErrorMessage string `json:"error_message"`
	Location     struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// Lookup returns the panorama nearest to req.Center. The metadata endpoint
// always answers with the nearest panorama, so req.Preference is not sent.
func (c *Client) Lookup(ctx context.Context, req panorama.Request) (geoduel.Location, error) {
	if c.key == "" {
		return geoduel.Location{}, fmt.Errorf("%w: no API key configured", panorama.ErrUnavailable)
	}

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(req.Center.Lat, 'f', 6, 64)+","+strconv.FormatFloat(req.Center.Lng, 'f', 6, 64))
	q.Set("radius", strconv.Itoa(req.RadiusMeters))
	if req.Source == panorama.SourceOutdoor {
		q.Set("source", "outdoor")
	}
	q.Set("key", c.key)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return geoduel.Location{}, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The request URL carries the key; keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return geoduel.Location{}, fmt.Errorf("street view metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return geoduel.Location{}, fmt.Errorf("%w: status %d", panorama.ErrAuth, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return geoduel.Location{}, fmt.Errorf("street view metadata returned status %d", resp.StatusCode)
	}

	var body metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geoduel.Location{}, fmt.Errorf("decoding street view metadata: %w", err)
	}

	switch body.Status {
	case "OK":
		return geoduel.Location{
			Coordinate:  geoduel.Coordinate{Lat: body.Location.Lat, Lng: body.Location.Lng},
			PanoID:      body.PanoID,
			Description: body.Copyright,
		}, nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return geoduel.Location{}, panorama.ErrNotFound
	case "REQUEST_DENIED":
		return geoduel.Location{}, fmt.Errorf("%w: %s", panorama.ErrAuth, body.ErrorMessage)
	default:
		return geoduel.Location{}, fmt.Errorf("street view metadata status %s: %s", body.Status, body.ErrorMessage)
	}
}

// Check verifies the credential with a lookup near a well covered point.
// A miss still proves the key works.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.Lookup(ctx, panorama.Request{
		Center:       geoduel.Coordinate{Lat: 48.8584, Lng: 2.2945},
		RadiusMeters: 50,
		Source:       panorama.SourceOutdoor,
		Preference:   panorama.PreferenceNearest,
	})
	if err == nil || errors.Is(err, panorama.ErrNotFound) {
		return nil
	}
	return err
}
