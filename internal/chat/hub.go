package chat

import (
	"encoding/json"
	"log/slog"

	"github.com/akash27nik/Chat-App/internal/presence"
)

// Hub is the single place every mutation goes through to reach connected
// users. Offline targets are skipped silently; a client that misses an event
// reconciles with a pull query after reconnect.
type Hub struct {
	Presence *presence.Registry

	// Inbound hooks, wired at startup. Invoked from the connection's read
	// goroutine when the client sends the matching frame.
	MarkSeen      func(senderID, receiverID int64)
	MarkDelivered func(senderID, receiverID int64)
}

func NewHub(p *presence.Registry) *Hub {
	h := &Hub{Presence: p}
	p.OnChange = func(online []int64) {
		h.Notify(online, Event{
			Type: EventPresenceSnapshot,
			Data: PresenceSnapshotData{Online: online},
		})
	}
	return h
}

// Notify delivers ev to every listed user that has a live channel. A failed
// write to one channel never aborts delivery to the rest; the slow channel is
// dropped from the registry.
func (h *Hub) Notify(ids []int64, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("hub: marshal event", "type", ev.Type, "err", err)
		return
	}
	for _, id := range ids {
		ch, ok := h.Presence.Lookup(id)
		if !ok {
			continue
		}
		if err := ch.Deliver(payload); err != nil {
			slog.Warn("hub: dropping slow client", "user_id", id, "type", ev.Type)
			h.Presence.Unregister(id, ch)
			ch.Close()
		}
	}
}

func (h *Hub) NotifyOne(id int64, ev Event) {
	h.Notify([]int64{id}, ev)
}

// Broadcast sends ev to everyone currently online.
func (h *Hub) Broadcast(ev Event) {
	h.Notify(h.Presence.Snapshot(), ev)
}
