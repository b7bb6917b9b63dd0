package presence

import (
	"log/slog"
	"sort"
	"sync"
)

// Channel is a live outbound pipe to one connected user. Deliver must not
// block; implementations drop the payload and report an error instead.
type Channel interface {
	Deliver(payload []byte) error
	Close()
}

// LastSeenStore records connect/disconnect times. Failures are logged, never
// surfaced to the connection.
type LastSeenStore interface {
	TouchLastSeen(userID int64) error
}

// Registry maps a user id to its single live channel. One active session per
// user: a second register for the same id closes and replaces the first
// (last-connect-wins, no multi-device fan-out).
type Registry struct {
	mu       sync.Mutex
	channels map[int64]Channel

	// OnChange receives the full online-id snapshot after every register
	// or unregister, outside the registry lock.
	OnChange func(online []int64)

	LastSeen LastSeenStore
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[int64]Channel),
	}
}

func (r *Registry) Register(userID int64, ch Channel) {
	r.mu.Lock()
	if old, ok := r.channels[userID]; ok {
		old.Close()
	}
	r.channels[userID] = ch
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.touch(userID)
	r.changed(snapshot)
}

// Unregister removes the mapping only if ch is still the active channel, so a
// stale connection tearing down after a reconnect cannot evict its successor.
func (r *Registry) Unregister(userID int64, ch Channel) {
	r.mu.Lock()
	cur, ok := r.channels[userID]
	if !ok || cur != ch {
		r.mu.Unlock()
		return
	}
	delete(r.channels, userID)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.touch(userID)
	r.changed(snapshot)
}

func (r *Registry) Lookup(userID int64) (Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[userID]
	return ch, ok
}

func (r *Registry) Online(userID int64) bool {
	_, ok := r.Lookup(userID)
	return ok
}

func (r *Registry) Snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []int64 {
	ids := make([]int64, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) changed(online []int64) {
	if r.OnChange != nil {
		r.OnChange(online)
	}
}

// touch is fire-and-forget: a dead store must not take a connection with it.
func (r *Registry) touch(userID int64) {
	if r.LastSeen == nil {
		return
	}
	go func() {
		if err := r.LastSeen.TouchLastSeen(userID); err != nil {
			slog.Warn("presence: last seen update failed", "user_id", userID, "err", err)
		}
	}()
}
