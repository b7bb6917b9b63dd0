package messages

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akash27nik/Chat-App/internal/domain"
)

// Delivery states, strictly ordered. A message only ever moves forward.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
)

type Reaction struct {
	UserID int64  `json:"userId"`
	Emoji  string `json:"emoji"`
}

type Message struct {
	ID                 int64      `json:"id"`
	ConversationID     int64      `json:"conversationId"`
	SenderID           int64      `json:"senderId"`
	ReceiverID         int64      `json:"receiverId"`
	Body               string     `json:"message"`
	MediaURL           string     `json:"mediaUrl"`
	Status             string     `json:"status"`
	IsForwarded        bool       `json:"isForwarded"`
	ReplyToID          *int64     `json:"replyTo,omitempty"`
	DeletedForEveryone bool       `json:"isDeleted"`
	Reactions          []Reaction `json:"reactions"`
	CreatedAt          time.Time  `json:"createdAt"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty"`
	SeenAt             *time.Time `json:"seenAt,omitempty"`

	// Display fields attached for real-time payloads only.
	SenderName    string `json:"senderName,omitempty"`
	SenderImage   string `json:"senderImage,omitempty"`
	ReceiverName  string `json:"receiverName,omitempty"`
	ReceiverImage string `json:"receiverImage,omitempty"`
}

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, m *Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO messages
			(conversation_id, sender_id, receiver_id, body, media_url,
			 status, is_forwarded, reply_to_id, created_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ConversationID, m.SenderID, m.ReceiverID, m.Body, m.MediaURL,
		m.Status, m.IsForwarded, m.ReplyToID, m.CreatedAt, m.DeliveredAt)
	if err != nil {
		return domain.Transient(err)
	}
	m.ID, err = res.LastInsertId()
	return domain.Transient(err)
}

func (s *Store) Get(ctx context.Context, id int64) (*Message, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, body, media_url,
		       status, is_forwarded, reply_to_id, deleted_for_everyone,
		       created_at, delivered_at, seen_at
		FROM messages WHERE id=?`, id)

	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Transient(err)
	}
	m.Reactions, err = s.Reactions(ctx, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var m Message
	var replyTo sql.NullInt64
	var deliveredAt, seenAt sql.NullTime
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID,
		&m.Body, &m.MediaURL, &m.Status, &m.IsForwarded, &replyTo,
		&m.DeletedForEveryone, &m.CreatedAt, &deliveredAt, &seenAt)
	if err != nil {
		return nil, err
	}
	if replyTo.Valid {
		m.ReplyToID = &replyTo.Int64
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		m.DeliveredAt = &t
	}
	if seenAt.Valid {
		t := seenAt.Time
		m.SeenAt = &t
	}
	return &m, nil
}

// ListConversation returns the conversation's messages in append order,
// skipping the ones the viewer deleted for themselves.
func (s *Store) ListConversation(ctx context.Context, convID, viewerID int64) ([]Message, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, m.receiver_id, m.body,
		       m.media_url, m.status, m.is_forwarded, m.reply_to_id,
		       m.deleted_for_everyone, m.created_at, m.delivered_at, m.seen_at
		FROM messages m
		WHERE m.conversation_id=?
		  AND NOT EXISTS (SELECT 1 FROM message_deletions d
		                  WHERE d.message_id=m.id AND d.user_id=?)
		ORDER BY m.id`, convID, viewerID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, domain.Transient(err)
		}
		list = append(list, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Transient(err)
	}

	reactions, err := s.conversationReactions(ctx, convID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Reactions = reactions[list[i].ID]
	}
	return list, nil
}

func (s *Store) conversationReactions(ctx context.Context, convID int64) (map[int64][]Reaction, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT r.message_id, r.user_id, r.emoji
		FROM message_reactions r
		JOIN messages m ON m.id = r.message_id
		WHERE m.conversation_id=?
		ORDER BY r.message_id`, convID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	out := make(map[int64][]Reaction)
	for rows.Next() {
		var mid int64
		var r Reaction
		if err := rows.Scan(&mid, &r.UserID, &r.Emoji); err != nil {
			return nil, domain.Transient(err)
		}
		out[mid] = append(out[mid], r)
	}
	return out, domain.Transient(rows.Err())
}

func (s *Store) Reactions(ctx context.Context, messageID int64) ([]Reaction, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT user_id, emoji FROM message_reactions WHERE message_id=? ORDER BY user_id`,
		messageID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Reaction
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(&r.UserID, &r.Emoji); err != nil {
			return nil, domain.Transient(err)
		}
		list = append(list, r)
	}
	return list, domain.Transient(rows.Err())
}

// React replaces the user's previous reaction; an empty emoji just clears it.
// At most one reaction per user survives on any message.
func (s *Store) React(ctx context.Context, messageID, userID int64, emoji string) ([]Reaction, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM message_reactions WHERE message_id=? AND user_id=?`,
		messageID, userID); err != nil {
		return nil, domain.Transient(err)
	}
	if emoji != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?)`,
			messageID, userID, emoji); err != nil {
			return nil, domain.Transient(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, domain.Transient(err)
	}
	return s.Reactions(ctx, messageID)
}

// TombstoneForEveryone clears body and media but keeps the row: id, createdAt
// and reactions stay untouched.
func (s *Store) TombstoneForEveryone(ctx context.Context, messageID int64) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE messages SET body='', media_url='', deleted_for_everyone=1 WHERE id=?`,
		messageID)
	return domain.Transient(err)
}

// HideForUser soft-hides the message for one user only. There is no undo.
func (s *Store) HideForUser(ctx context.Context, messageID, userID int64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO message_deletions (message_id, user_id) VALUES (?, ?)`,
		messageID, userID)
	return domain.Transient(err)
}

// AttachDisplay fills the sender/receiver display fields used in real-time
// payloads. Missing users leave the fields empty rather than failing the send.
func (s *Store) AttachDisplay(ctx context.Context, m *Message) {
	_ = s.DB.QueryRowContext(ctx, `SELECT username, image FROM users WHERE id=?`,
		m.SenderID).Scan(&m.SenderName, &m.SenderImage)
	_ = s.DB.QueryRowContext(ctx, `SELECT username, image FROM users WHERE id=?`,
		m.ReceiverID).Scan(&m.ReceiverName, &m.ReceiverImage)
}
