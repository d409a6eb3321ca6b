package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/match"
)

// wsCommand is a client message on the match socket.
type wsCommand struct {
	Type string   `json:"type"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// wsMessage is pushed to the client: every state change, plus errors for
// rejected commands.
type wsMessage struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

func handleWS(logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := matchFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()

		ch := broker.Subscribe(c.ID)
		defer c.Touch()
		defer broker.Unsubscribe(c.ID, ch)

		snap, err := c.Snapshot(ctx)
		if err != nil {
			conn.Close(websocket.StatusGoingAway, "match stopped")
			return
		}
		initial, _ := json.Marshal(snap)
		if err := wsjson.Write(ctx, conn, wsMessage{Type: "state", State: initial}); err != nil {
			return
		}

		go func() {
			defer cancel()
			for {
				var cmd wsCommand
				if err := wsjson.Read(ctx, conn, &cmd); err != nil {
					logger.Debug("websocket read ended", "match_id", c.ID, "error", err)
					return
				}
				if err := dispatchWS(ctx, c, cmd); err != nil {
					if werr := wsjson.Write(ctx, conn, wsMessage{Type: "error", Error: err.Error()}); werr != nil {
						return
					}
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.Done():
				conn.Close(websocket.StatusNormalClosure, "match closed")
				return
			case data := <-ch:
				if err := wsjson.Write(ctx, conn, wsMessage{Type: "state", State: data}); err != nil {
					logger.Debug("websocket write failed", "match_id", c.ID, "error", err)
					return
				}
			}
		}
	}
}

// dispatchWS applies one command. Accepted commands publish their new state
// through the broker, so only rejections are reported back here.
func dispatchWS(ctx context.Context, c *match.Controller, cmd wsCommand) error {
	var err error
	switch cmd.Type {
	case "guess":
		if cmd.Lat == nil || cmd.Lng == nil {
			return errors.New("lat and lng are required")
		}
		_, err = c.PlaceGuess(ctx, geoduel.Coordinate{Lat: *cmd.Lat, Lng: *cmd.Lng})
	case "submit":
		_, err = c.Submit(ctx)
	case "next":
		_, err = c.NextRound(ctx)
	case "rematch":
		_, err = c.Rematch(ctx)
	case "tiles_loaded":
		_, err = c.TilesLoaded(ctx)
	case "auth_failure":
		_, err = c.ReportAuthFailure(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
	if errors.Is(err, match.ErrNoGuess) {
		return nil
	}
	return err
}
