package status

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akash27nik/Chat-App/internal/domain"
)

type Status struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"ownerId"`
	OwnerName  string    `json:"ownerName,omitempty"`
	OwnerImage string    `json:"ownerImage,omitempty"`
	Caption    string    `json:"caption"`
	MediaURL   string    `json:"mediaUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	Viewers    []Viewer  `json:"viewers"`
	Likes      []Like    `json:"likes"`
	Replies    []Reply   `json:"replies"`
}

type Viewer struct {
	UserID   int64     `json:"userId"`
	Username string    `json:"userName"`
	Image    string    `json:"image"`
	ViewedAt time.Time `json:"viewedAt"`
}

type Like struct {
	UserID   int64     `json:"userId"`
	Username string    `json:"userName"`
	Image    string    `json:"image"`
	LikedAt  time.Time `json:"likedAt"`
}

type Reply struct {
	UserID    int64     `json:"userId"`
	Username  string    `json:"userName"`
	Image     string    `json:"image"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, st *Status) error {
	st.CreatedAt = time.Now().UTC()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO statuses (owner_id, caption, media_url, created_at) VALUES (?, ?, ?, ?)`,
		st.OwnerID, st.Caption, st.MediaURL, st.CreatedAt)
	if err != nil {
		return domain.Transient(err)
	}
	st.ID, err = res.LastInsertId()
	return domain.Transient(err)
}

func (s *Store) Get(ctx context.Context, id int64) (*Status, error) {
	var st Status
	err := s.DB.QueryRowContext(ctx, `
		SELECT s.id, s.owner_id, u.username, u.image, s.caption, s.media_url, s.created_at
		FROM statuses s JOIN users u ON u.id = s.owner_id
		WHERE s.id=?`, id).
		Scan(&st.ID, &st.OwnerID, &st.OwnerName, &st.OwnerImage,
			&st.Caption, &st.MediaURL, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Transient(err)
	}
	return &st, nil
}

// List returns every status with its engagement lists, newest first.
func (s *Store) List(ctx context.Context) ([]Status, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT s.id, s.owner_id, u.username, u.image, s.caption, s.media_url, s.created_at
		FROM statuses s JOIN users u ON u.id = s.owner_id
		ORDER BY s.id DESC`)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Status
	for rows.Next() {
		var st Status
		if err := rows.Scan(&st.ID, &st.OwnerID, &st.OwnerName, &st.OwnerImage,
			&st.Caption, &st.MediaURL, &st.CreatedAt); err != nil {
			return nil, domain.Transient(err)
		}
		list = append(list, st)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Transient(err)
	}

	for i := range list {
		if err := s.loadEngagement(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Store) loadEngagement(ctx context.Context, st *Status) error {
	var err error
	if st.Viewers, err = s.Viewers(ctx, st.ID); err != nil {
		return err
	}
	if st.Likes, err = s.Likes(ctx, st.ID); err != nil {
		return err
	}
	st.Replies, err = s.Replies(ctx, st.ID)
	return err
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transient(err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM status_viewers WHERE status_id=?`,
		`DELETE FROM status_likes WHERE status_id=?`,
		`DELETE FROM status_replies WHERE status_id=?`,
		`DELETE FROM statuses WHERE id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return domain.Transient(err)
		}
	}
	return domain.Transient(tx.Commit())
}

// AddViewer records one view per viewer. Reports whether a new entry was
// written; a repeat view changes nothing, including viewedAt.
func (s *Store) AddViewer(ctx context.Context, statusID, userID int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO status_viewers (status_id, user_id, viewed_at) VALUES (?, ?, ?)`,
		statusID, userID, time.Now().UTC())
	if err != nil {
		return false, domain.Transient(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Transient(err)
	}
	return n > 0, nil
}

func (s *Store) Viewers(ctx context.Context, statusID int64) ([]Viewer, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT v.user_id, u.username, u.image, v.viewed_at
		FROM status_viewers v JOIN users u ON u.id = v.user_id
		WHERE v.status_id=? ORDER BY v.viewed_at`, statusID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Viewer
	for rows.Next() {
		var v Viewer
		if err := rows.Scan(&v.UserID, &v.Username, &v.Image, &v.ViewedAt); err != nil {
			return nil, domain.Transient(err)
		}
		list = append(list, v)
	}
	return list, domain.Transient(rows.Err())
}

// AddLike inserts the user's like; a second like from the same user is
// rejected with ErrAlreadyLiked.
func (s *Store) AddLike(ctx context.Context, statusID, userID int64) error {
	res, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO status_likes (status_id, user_id, liked_at) VALUES (?, ?, ?)`,
		statusID, userID, time.Now().UTC())
	if err != nil {
		return domain.Transient(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Transient(err)
	}
	if n == 0 {
		return domain.ErrAlreadyLiked
	}
	return nil
}

// RemoveLike is idempotent: removing an absent like is a no-op.
func (s *Store) RemoveLike(ctx context.Context, statusID, userID int64) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM status_likes WHERE status_id=? AND user_id=?`, statusID, userID)
	return domain.Transient(err)
}

func (s *Store) Likes(ctx context.Context, statusID int64) ([]Like, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT l.user_id, u.username, u.image, l.liked_at
		FROM status_likes l JOIN users u ON u.id = l.user_id
		WHERE l.status_id=? ORDER BY l.liked_at`, statusID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Like
	for rows.Next() {
		var l Like
		if err := rows.Scan(&l.UserID, &l.Username, &l.Image, &l.LikedAt); err != nil {
			return nil, domain.Transient(err)
		}
		list = append(list, l)
	}
	return list, domain.Transient(rows.Err())
}

func (s *Store) AddReply(ctx context.Context, statusID, userID int64, body string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO status_replies (status_id, user_id, body, created_at) VALUES (?, ?, ?, ?)`,
		statusID, userID, body, time.Now().UTC())
	return domain.Transient(err)
}

func (s *Store) Replies(ctx context.Context, statusID int64) ([]Reply, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT r.user_id, u.username, u.image, r.body, r.created_at
		FROM status_replies r JOIN users u ON u.id = r.user_id
		WHERE r.status_id=? ORDER BY r.id`, statusID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var list []Reply
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.UserID, &r.Username, &r.Image, &r.Body, &r.CreatedAt); err != nil {
			return nil, domain.Transient(err)
		}
		list = append(list, r)
	}
	return list, domain.Transient(rows.Err())
}
