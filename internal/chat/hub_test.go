package chat_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/akash27nik/Chat-App/internal/chat"
	"github.com/akash27nik/Chat-App/internal/presence"
)

type stubChannel struct {
	events []chat.EventType
	err    error
	closed bool
}

func (s *stubChannel) Deliver(p []byte) error {
	if s.err != nil {
		return s.err
	}
	var ev struct {
		Type chat.EventType `json:"type"`
	}
	if err := json.Unmarshal(p, &ev); err != nil {
		return err
	}
	s.events = append(s.events, ev.Type)
	return nil
}

func (s *stubChannel) Close() { s.closed = true }

func (s *stubChannel) count(t chat.EventType) int {
	n := 0
	for _, ev := range s.events {
		if ev == t {
			n++
		}
	}
	return n
}

func TestNotifySkipsOffline(t *testing.T) {
	reg := presence.NewRegistry()
	hub := chat.NewHub(reg)
	online := &stubChannel{}
	reg.Register(1, online)

	hub.Notify([]int64{1, 2}, chat.Event{Type: chat.EventMessageCreated})

	if online.count(chat.EventMessageCreated) != 1 {
		t.Fatalf("online user did not receive the event: %v", online.events)
	}
}

func TestNotifyIsolatesChannelFailures(t *testing.T) {
	reg := presence.NewRegistry()
	hub := chat.NewHub(reg)
	slow := &stubChannel{err: errors.New("buffer full")}
	ok := &stubChannel{}
	reg.Register(1, slow)
	reg.Register(2, ok)

	hub.Notify([]int64{1, 2}, chat.Event{Type: chat.EventMessageCreated})

	if ok.count(chat.EventMessageCreated) != 1 {
		t.Fatalf("healthy channel missed the event after a peer failed")
	}
	if !slow.closed {
		t.Fatalf("expected the failing channel to be closed")
	}
	if reg.Online(1) {
		t.Fatalf("expected the failing channel to be dropped from the registry")
	}
}

func TestBroadcastReachesEveryoneOnline(t *testing.T) {
	reg := presence.NewRegistry()
	hub := chat.NewHub(reg)
	a := &stubChannel{}
	b := &stubChannel{}
	reg.Register(1, a)
	reg.Register(2, b)

	hub.Broadcast(chat.Event{Type: chat.EventStatusCreated})

	for name, ch := range map[string]*stubChannel{"a": a, "b": b} {
		if ch.count(chat.EventStatusCreated) != 1 {
			t.Fatalf("channel %s missed the broadcast: %v", name, ch.events)
		}
	}
}

func TestPresenceSnapshotBroadcastOnConnectAndDisconnect(t *testing.T) {
	reg := presence.NewRegistry()
	chat.NewHub(reg)

	a := &stubChannel{}
	b := &stubChannel{}
	reg.Register(1, a)
	reg.Register(2, b)

	// a hears its own connect plus b's connect.
	if got := a.count(chat.EventPresenceSnapshot); got != 2 {
		t.Fatalf("expected 2 snapshots for a, got %d", got)
	}
	reg.Unregister(2, b)
	if got := a.count(chat.EventPresenceSnapshot); got != 3 {
		t.Fatalf("expected a disconnect snapshot, got %d", got)
	}
}
