package streetview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/panorama"
)

func metadataServer(t *testing.T, status int, body string) (*httptest.Server, <-chan url.Values) {
	t.Helper()
	seen := make(chan url.Values, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func request() panorama.Request {
	return panorama.Request{
		Center:       geoduel.Coordinate{Lat: 48.85, Lng: 2.35},
		RadiusMeters: 100000,
		Source:       panorama.SourceOutdoor,
		Preference:   panorama.PreferenceNearest,
	}
}

func TestLookupOK(t *testing.T) {
	srv, seen := metadataServer(t, http.StatusOK,
		`{"status":"OK","pano_id":"abc123","copyright":"© Google","location":{"lat":48.8566,"lng":2.3522}}`)

	loc, err := New(srv.URL, "secret").Lookup(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "abc123", loc.PanoID)
	assert.Equal(t, 48.8566, loc.Lat)
	assert.Equal(t, 2.3522, loc.Lng)

	q := <-seen
	assert.Equal(t, "48.850000,2.350000", q.Get("location"))
	assert.Equal(t, "100000", q.Get("radius"))
	assert.Equal(t, "outdoor", q.Get("source"))
	assert.Equal(t, "secret", q.Get("key"))
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"zero results", http.StatusOK, `{"status":"ZERO_RESULTS"}`, panorama.ErrNotFound},
		{"not found", http.StatusOK, `{"status":"NOT_FOUND"}`, panorama.ErrNotFound},
		{"denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`, panorama.ErrAuth},
		{"forbidden", http.StatusForbidden, ``, panorama.ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := metadataServer(t, tt.status, tt.body)
			_, err := New(srv.URL, "secret").Lookup(context.Background(), request())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLookupTransientError(t *testing.T) {
	srv, _ := metadataServer(t, http.StatusOK, `{"status":"UNKNOWN_ERROR"}`)
	_, err := New(srv.URL, "secret").Lookup(context.Background(), request())
	require.Error(t, err)
	assert.False(t, errors.Is(err, panorama.ErrNotFound))
	assert.False(t, errors.Is(err, panorama.ErrAuth))
	assert.False(t, errors.Is(err, panorama.ErrUnavailable))
}

func TestLookupWithoutKey(t *testing.T) {
	_, err := New("", "").Lookup(context.Background(), request())
	assert.ErrorIs(t, err, panorama.ErrUnavailable)
}

func TestCheck(t *testing.T) {
	srv, _ := metadataServer(t, http.StatusOK, `{"status":"ZERO_RESULTS"}`)
	assert.NoError(t, New(srv.URL, "secret").Check(context.Background()))

	srv, _ = metadataServer(t, http.StatusOK, `{"status":"REQUEST_DENIED"}`)
	assert.ErrorIs(t, New(srv.URL, "secret").Check(context.Background()), panorama.ErrAuth)
}

func TestLookupTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/meta"
	srv.Close()

	c := New(base, "SECRET-KEY")
	_, err := c.Lookup(context.Background(), request())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY")
	assert.NotContains(t, err.Error(), "key=")
	assert.Contains(t, err.Error(), "street view metadata")
}
