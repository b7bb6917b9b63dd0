package messages

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/akash27nik/Chat-App/internal/chat"
	"github.com/akash27nik/Chat-App/internal/domain"
	"github.com/akash27nik/Chat-App/internal/presence"
)

// Delivery advances messages through sent -> delivered -> seen. Transitions
// are monotonic: the WHERE clauses only ever match messages behind the target
// state, so replays and races degrade to no-ops. Each batch commits fully or
// not at all, and the sender is notified only after the commit.
type Delivery struct {
	DB       *sql.DB
	Presence *presence.Registry
	Hub      *chat.Hub
}

func NewDelivery(db *sql.DB, p *presence.Registry, hub *chat.Hub) *Delivery {
	return &Delivery{DB: db, Presence: p, Hub: hub}
}

// InitialStatus resolves the state a new message starts in: delivered when
// the receiver is reachable right now, sent otherwise.
func (d *Delivery) InitialStatus(receiverID int64) (string, *time.Time) {
	if d.Presence.Online(receiverID) {
		now := time.Now().UTC()
		return StatusDelivered, &now
	}
	return StatusSent, nil
}

// MarkDelivered moves every sent message from senderID to receiverID to
// delivered and tells the sender which receiver caught up. Empty batches
// return nil ids and emit nothing.
func (d *Delivery) MarkDelivered(ctx context.Context, senderID, receiverID int64) ([]int64, error) {
	ids, err := d.advance(ctx, senderID, receiverID,
		`SELECT id FROM messages WHERE sender_id=? AND receiver_id=? AND status=? ORDER BY id`,
		StatusSent,
		`UPDATE messages SET status=?, delivered_at=? WHERE id IN (%s) AND status=?`,
		StatusDelivered)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	d.Hub.NotifyOne(senderID, chat.Event{
		Type: chat.EventMessageBatchDelivered,
		Data: chat.BatchDeliveredData{ReceiverID: receiverID},
	})
	return ids, nil
}

// MarkSeen moves everything from senderID to receiverID that is not yet seen
// to seen. Idempotent: with nothing qualifying it returns an empty batch, not
// an error, and no event fires.
func (d *Delivery) MarkSeen(ctx context.Context, senderID, receiverID int64) ([]int64, error) {
	ids, err := d.advance(ctx, senderID, receiverID,
		`SELECT id FROM messages WHERE sender_id=? AND receiver_id=? AND status != ? ORDER BY id`,
		StatusSeen,
		`UPDATE messages SET status=?, seen_at=?, delivered_at=COALESCE(delivered_at, ?) WHERE id IN (%s) AND status != ?`,
		StatusSeen)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	d.Hub.NotifyOne(senderID, chat.Event{
		Type: chat.EventMessageBatchSeen,
		Data: chat.BatchSeenData{ViewerID: receiverID, MessageIDs: ids},
	})
	return ids, nil
}

// advance runs one batch transition in a single transaction. selectQ picks
// the qualifying ids, updateQ (with an id IN placeholder) flips them; both
// carry the status guard so a concurrent transition cannot be overwritten
// backwards.
func (d *Delivery) advance(ctx context.Context, senderID, receiverID int64,
	selectQ string, selectStatus string, updateQ string, targetStatus string) ([]int64, error) {

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, selectQ, senderID, receiverID, selectStatus)
	if err != nil {
		return nil, domain.Transient(err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, domain.Transient(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.Transient(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	args := []any{targetStatus, now}
	if targetStatus == StatusSeen {
		args = append(args, now) // delivered_at fallback
	}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, selectStatus)

	query := strings.Replace(updateQ, "%s", strings.Join(placeholders, ","), 1)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, domain.Transient(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, domain.Transient(err)
	}
	return ids, nil
}
