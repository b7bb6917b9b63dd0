package conversations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akash27nik/Chat-App/internal/domain"
)

// Store owns the conversation records. A conversation is keyed by the
// unordered user pair; exactly one row exists per pair and it is created
// lazily on the first message.
type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// pairKey canonicalizes the two participant ids so lookups from either side
// resolve to the same conversation.
func pairKey(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Lookup resolves the pair's conversation without creating one.
func (s *Store) Lookup(ctx context.Context, a, b int64) (int64, bool, error) {
	lo, hi := pairKey(a, b)
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE user_lo=? AND user_hi=?`, lo, hi).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, domain.Transient(err)
	}
	return id, true, nil
}

func (s *Store) GetOrCreate(ctx context.Context, a, b int64) (int64, error) {
	lo, hi := pairKey(a, b)

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE user_lo=? AND user_hi=?`, lo, hi).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, domain.Transient(err)
	}

	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO conversations (user_lo, user_hi, created_at) VALUES (?, ?, ?)`,
		lo, hi, time.Now().UTC())
	if err != nil {
		// Concurrent creation loses the unique-pair race; take the winner.
		var existing int64
		if err2 := s.DB.QueryRowContext(ctx,
			`SELECT id FROM conversations WHERE user_lo=? AND user_hi=?`, lo, hi).Scan(&existing); err2 == nil {
			return existing, nil
		}
		return 0, domain.Transient(err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, domain.Transient(err)
	}
	return id, nil
}

// MessageIDs returns the conversation's message ids in append order.
func (s *Store) MessageIDs(ctx context.Context, convID int64) ([]int64, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id FROM messages WHERE conversation_id=? ORDER BY id`, convID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Transient(err)
		}
		ids = append(ids, id)
	}
	return ids, domain.Transient(rows.Err())
}

// Contact is one entry of the sidebar projection: a peer plus the most recent
// message exchanged with them and how many of their messages are still unread.
type Contact struct {
	UserID       int64      `json:"userId"`
	Username     string     `json:"userName"`
	Image        string     `json:"image"`
	LastBody     string     `json:"lastMessage"`
	LastMediaURL string     `json:"lastMediaUrl"`
	LastAt       *time.Time `json:"lastMessageAt,omitempty"`
	Unread       int        `json:"unreadCount"`
}

// Contacts lists every other user ordered by most recent contact, descending.
// Recomputed from the messages table on every call so it cannot drift.
func (s *Store) Contacts(ctx context.Context, userID int64) ([]Contact, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT u.id, u.username, u.image,
		       COALESCE(m.body, ''), COALESCE(m.media_url, ''), m.created_at,
		       (SELECT COUNT(1) FROM messages x
		        WHERE x.sender_id=u.id AND x.receiver_id=? AND x.status != 'seen')
		FROM users u
		LEFT JOIN messages m ON m.id = (
		    SELECT m2.id FROM messages m2
		    WHERE (m2.sender_id=u.id AND m2.receiver_id=?)
		       OR (m2.sender_id=? AND m2.receiver_id=u.id)
		    ORDER BY m2.id DESC LIMIT 1
		)
		WHERE u.id != ?
		ORDER BY m.created_at IS NULL, m.created_at DESC, u.username`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Contact
	for rows.Next() {
		var ct Contact
		var lastAt sql.NullTime
		if err := rows.Scan(&ct.UserID, &ct.Username, &ct.Image,
			&ct.LastBody, &ct.LastMediaURL, &lastAt, &ct.Unread); err != nil {
			return nil, domain.Transient(err)
		}
		if lastAt.Valid {
			t := lastAt.Time
			ct.LastAt = &t
		}
		list = append(list, ct)
	}
	return list, domain.Transient(rows.Err())
}
