package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/match"
)

func TestHandleEvents(t *testing.T) {
	h, _ := newTestHandler(t, 10)
	srv := httptest.NewServer(h)
	defer srv.Close()

	id := createMatch(t, h, geoduel.ModeHumanVsAI)
	waitForPhase(t, h, id, match.PhaseAwaitingGuess)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/matches/"+id+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q", got)
	}

	events := make(chan match.Snapshot, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var s match.Snapshot
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &s) == nil {
				events <- s
			}
		}
	}()

	first := <-events
	if first.Phase != match.PhaseAwaitingGuess {
		t.Fatalf("initial event phase = %q", first.Phase)
	}

	doJSON(t, h, http.MethodPost, "/api/matches/"+id+"/guess", map[string]float64{"lat": 1, "lng": 2})

	select {
	case s := <-events:
		if s.Guess == nil || s.Guess.Lat != 1 || s.Guess.Lng != 2 {
			t.Fatalf("expected guess in pushed state, got %+v", s.Guess)
		}
	case <-ctx.Done():
		t.Fatal("no state event after guess")
	}
}

func TestHandleWS(t *testing.T) {
	h, _ := newTestHandler(t, 10)
	srv := httptest.NewServer(h)
	defer srv.Close()

	id := createMatch(t, h, geoduel.ModeHumanVsAI)
	waitForPhase(t, h, id, match.PhaseAwaitingGuess)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/api/matches/" + id + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	read := func() wsMessage {
		t.Helper()
		var msg wsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}
	state := func(msg wsMessage) match.Snapshot {
		t.Helper()
		var s match.Snapshot
		if err := json.Unmarshal(msg.State, &s); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return s
	}

	if msg := read(); msg.Type != "state" || state(msg).Phase != match.PhaseAwaitingGuess {
		t.Fatalf("unexpected initial message %+v", msg)
	}

	if err := wsjson.Write(ctx, conn, map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := read(); msg.Type != "error" || !strings.Contains(msg.Error, "dance") {
		t.Fatalf("expected error for unknown command, got %+v", msg)
	}

	if err := wsjson.Write(ctx, conn, map[string]any{"type": "guess", "lat": lima.Lat, "lng": lima.Lng}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := read()
	if msg.Type != "state" {
		t.Fatalf("expected state after guess, got %+v", msg)
	}
	if s := state(msg); s.Guess == nil || *s.Guess != lima.Coordinate {
		t.Fatalf("guess not pushed: %+v", s.Guess)
	}

	if err := wsjson.Write(ctx, conn, map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		s := state(read())
		if s.Phase == match.PhaseRoundResolved {
			if s.Result == nil || s.Result.Player1.Score != 5000 {
				t.Fatalf("unexpected result %+v", s.Result)
			}
			break
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestBroker(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("m1")
	other := b.Subscribe("m2")

	b.Publish("m1", match.Snapshot{MatchID: "m1", Round: 3})

	select {
	case data := <-ch:
		var s match.Snapshot
		json.Unmarshal(data, &s)
		if s.Round != 3 {
			t.Errorf("round = %d, want 3", s.Round)
		}
	default:
		t.Fatal("expected a message for m1")
	}
	select {
	case <-other:
		t.Fatal("m2 must not receive m1 snapshots")
	default:
	}

	b.Unsubscribe("m1", ch)
	b.Publish("m1", match.Snapshot{MatchID: "m1"})
	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a message")
	default:
	}
}

func TestBrokerSlowSubscriberGetsLatest(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("m1")
	defer b.Unsubscribe("m1", ch)

	for round := 1; round <= 40; round++ {
		b.Publish("m1", match.Snapshot{MatchID: "m1", Round: round})
	}
	b.Publish("m1", match.Snapshot{MatchID: "m1", Round: 41, Phase: match.PhaseMatchOver})

	var last match.Snapshot
	n := 0
	for len(ch) > 0 {
		json.Unmarshal(<-ch, &last)
		n++
	}
	if n != cap(ch) {
		t.Errorf("buffered %d snapshots, want %d", n, cap(ch))
	}
	if last.Phase != match.PhaseMatchOver || last.Round != 41 {
		t.Fatalf("last snapshot = round %d phase %q, want the match_over snapshot", last.Round, last.Phase)
	}
	if got := b.Subscribers("m1"); got != 1 {
		t.Errorf("subscribers = %d, want 1", got)
	}
}
