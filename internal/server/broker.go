package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/geoduel/internal/match"
)

// Broker is an in-process pub/sub for match snapshots, keyed by match ID.
// It implements match.Publisher.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded snapshots for the given match.
func (b *Broker) Subscribe(matchID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[matchID] == nil {
		b.subs[matchID] = make(map[chan []byte]struct{})
	}
	b.subs[matchID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the match's subscribers.
func (b *Broker) Unsubscribe(matchID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[matchID], ch)
	if len(b.subs[matchID]) == 0 {
		delete(b.subs, matchID)
	}
	b.mu.Unlock()
}

// Publish sends a snapshot to all subscribers of the given match.
func (b *Broker) Publish(matchID string, snap match.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs[matchID]) == 0 {
		return
	}

	data, _ := json.Marshal(snap)
	for ch := range b.subs[matchID] {
		offer(ch, data)
	}
}

// Subscribers reports how many streams are open for the match.
func (b *Broker) Subscribers(matchID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[matchID])
}

// offer sends data without blocking. A slow subscriber loses its oldest
// pending snapshot so the latest state always gets through.
func offer(ch chan []byte, data []byte) {
	for {
		select {
		case ch <- data:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
