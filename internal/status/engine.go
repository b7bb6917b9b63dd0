package status

import (
	"context"

	"github.com/akash27nik/Chat-App/internal/chat"
	"github.com/akash27nik/Chat-App/internal/domain"
)

// Engine owns the status lifecycle and decides who hears about each change:
// create and delete go to everyone online, engagement goes to the owner only.
type Engine struct {
	Store *Store
	Hub   *chat.Hub
}

func NewEngine(store *Store, hub *chat.Hub) *Engine {
	return &Engine{Store: store, Hub: hub}
}

func (e *Engine) Create(ctx context.Context, ownerID int64, caption, mediaURL string) (*Status, error) {
	if mediaURL == "" {
		return nil, domain.ValidationError{Msg: "status media is required"}
	}
	st := &Status{OwnerID: ownerID, Caption: caption, MediaURL: mediaURL}
	if err := e.Store.Create(ctx, st); err != nil {
		return nil, err
	}
	full, err := e.Store.Get(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	// Anyone online sees a new status immediately.
	e.Hub.Broadcast(chat.Event{Type: chat.EventStatusCreated, Data: full})
	return full, nil
}

// RecordView is idempotent per viewer: the first view appends an entry and
// notifies the owner, every later view changes nothing and stays silent.
func (e *Engine) RecordView(ctx context.Context, statusID, viewerID int64) ([]Viewer, error) {
	st, err := e.Store.Get(ctx, statusID)
	if err != nil {
		return nil, err
	}
	added, err := e.Store.AddViewer(ctx, statusID, viewerID)
	if err != nil {
		return nil, err
	}
	viewers, err := e.Store.Viewers(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if added {
		e.Hub.NotifyOne(st.OwnerID, chat.Event{
			Type: chat.EventStatusViewed,
			Data: chat.StatusViewedData{StatusID: statusID, Viewers: viewers},
		})
	}
	return viewers, nil
}

func (e *Engine) Like(ctx context.Context, statusID, userID int64) ([]Like, error) {
	st, err := e.Store.Get(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if err := e.Store.AddLike(ctx, statusID, userID); err != nil {
		return nil, err
	}
	likes, err := e.Store.Likes(ctx, statusID)
	if err != nil {
		return nil, err
	}
	e.Hub.NotifyOne(st.OwnerID, chat.Event{
		Type: chat.EventStatusLiked,
		Data: chat.StatusLikedData{StatusID: statusID, Likes: likes},
	})
	return likes, nil
}

func (e *Engine) Unlike(ctx context.Context, statusID, userID int64) ([]Like, error) {
	st, err := e.Store.Get(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if err := e.Store.RemoveLike(ctx, statusID, userID); err != nil {
		return nil, err
	}
	likes, err := e.Store.Likes(ctx, statusID)
	if err != nil {
		return nil, err
	}
	e.Hub.NotifyOne(st.OwnerID, chat.Event{
		Type: chat.EventStatusUnliked,
		Data: chat.StatusLikedData{StatusID: statusID, Likes: likes},
	})
	return likes, nil
}

func (e *Engine) Reply(ctx context.Context, statusID, userID int64, text string) ([]Reply, error) {
	if text == "" {
		return nil, domain.ValidationError{Msg: "reply message is required"}
	}
	st, err := e.Store.Get(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if err := e.Store.AddReply(ctx, statusID, userID, text); err != nil {
		return nil, err
	}
	replies, err := e.Store.Replies(ctx, statusID)
	if err != nil {
		return nil, err
	}
	e.Hub.NotifyOne(st.OwnerID, chat.Event{
		Type: chat.EventStatusReplied,
		Data: chat.StatusRepliedData{StatusID: statusID, Replies: replies},
	})
	return replies, nil
}

// Delete removes the status, owner only. The removal broadcast is
// server-originated, after the delete committed.
func (e *Engine) Delete(ctx context.Context, statusID, requesterID int64) error {
	st, err := e.Store.Get(ctx, statusID)
	if err != nil {
		return err
	}
	if st.OwnerID != requesterID {
		return domain.ErrUnauthorized
	}
	if err := e.Store.Delete(ctx, statusID); err != nil {
		return err
	}

	e.Hub.Broadcast(chat.Event{
		Type: chat.EventStatusDeleted,
		Data: chat.StatusDeletedData{StatusID: statusID},
	})
	return nil
}

// ViewerList is the owner-only read of who saw the status.
func (e *Engine) ViewerList(ctx context.Context, statusID, requesterID int64) ([]Viewer, error) {
	st, err := e.Store.Get(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != requesterID {
		return nil, domain.ErrUnauthorized
	}
	return e.Store.Viewers(ctx, statusID)
}
