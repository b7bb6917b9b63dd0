package presence_test

import (
	"testing"

	"github.com/akash27nik/Chat-App/internal/presence"
)

type stubChannel struct {
	delivered [][]byte
	closed    bool
}

func (s *stubChannel) Deliver(p []byte) error {
	s.delivered = append(s.delivered, p)
	return nil
}

func (s *stubChannel) Close() { s.closed = true }

func TestRegisterAndLookup(t *testing.T) {
	r := presence.NewRegistry()
	ch := &stubChannel{}

	r.Register(7, ch)

	got, ok := r.Lookup(7)
	if !ok {
		t.Fatalf("expected user 7 to be registered")
	}
	if got != ch {
		t.Fatalf("lookup returned a different channel")
	}
	if !r.Online(7) {
		t.Fatalf("expected user 7 online")
	}
	if r.Online(8) {
		t.Fatalf("user 8 was never registered")
	}
}

func TestLastConnectWins(t *testing.T) {
	r := presence.NewRegistry()
	first := &stubChannel{}
	second := &stubChannel{}

	r.Register(1, first)
	r.Register(1, second)

	if !first.closed {
		t.Fatalf("expected the first channel to be closed on re-register")
	}
	got, _ := r.Lookup(1)
	if got != second {
		t.Fatalf("expected the second channel to be active")
	}
	if ids := r.Snapshot(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected snapshot: %v", ids)
	}
}

func TestUnregisterStaleChannelIsNoop(t *testing.T) {
	r := presence.NewRegistry()
	old := &stubChannel{}
	current := &stubChannel{}

	r.Register(1, old)
	r.Register(1, current)

	// The replaced connection tears down late; it must not evict its
	// successor.
	r.Unregister(1, old)
	if !r.Online(1) {
		t.Fatalf("stale unregister evicted the active channel")
	}

	r.Unregister(1, current)
	if r.Online(1) {
		t.Fatalf("expected user 1 offline after unregister")
	}
	// Unregistering an absent user is a no-op, not a panic.
	r.Unregister(99, current)
}

func TestSnapshotSorted(t *testing.T) {
	r := presence.NewRegistry()
	r.Register(5, &stubChannel{})
	r.Register(2, &stubChannel{})
	r.Register(9, &stubChannel{})

	ids := r.Snapshot()
	want := []int64{2, 5, 9}
	if len(ids) != len(want) {
		t.Fatalf("snapshot length %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("snapshot %v, want %v", ids, want)
		}
	}
}

func TestOnChangeFiresWithSnapshot(t *testing.T) {
	r := presence.NewRegistry()
	var calls [][]int64
	r.OnChange = func(online []int64) {
		calls = append(calls, online)
	}

	a := &stubChannel{}
	b := &stubChannel{}
	r.Register(1, a)
	r.Register(2, b)
	r.Unregister(1, a)

	if len(calls) != 3 {
		t.Fatalf("expected 3 change notifications, got %d", len(calls))
	}
	last := calls[2]
	if len(last) != 1 || last[0] != 2 {
		t.Fatalf("final snapshot %v, want [2]", last)
	}
}
