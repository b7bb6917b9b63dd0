package messages

import (
	"net/http"
	"strconv"

	"github.com/akash27nik/Chat-App/internal/auth"
	"github.com/akash27nik/Chat-App/internal/chat"
	"github.com/akash27nik/Chat-App/internal/conversations"
	"github.com/akash27nik/Chat-App/internal/domain"
	"github.com/akash27nik/Chat-App/internal/httpx"
	"github.com/akash27nik/Chat-App/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Service struct {
	Store    *Store
	Conv     *conversations.Store
	Delivery *Delivery
	Hub      *chat.Hub
}

type sendReq struct {
	Body     string `json:"message"`
	MediaURL string `json:"mediaUrl"`
	ReplyTo  *int64 `json:"replyTo"`
}

type forwardReq struct {
	MessageID int64 `json:"messageId" binding:"required"`
}

type reactReq struct {
	Emoji string `json:"emoji"`
}

type deleteReq struct {
	ForEveryone bool `json:"forEveryone"`
}

func Register(rg *gin.RouterGroup, store *Store, conv *conversations.Store, delivery *Delivery, hub *chat.Hub) {
	s := Service{
		Store:    store,
		Conv:     conv,
		Delivery: delivery,
		Hub:      hub,
	}
	rg.POST("/message/send/:receiver", s.send)
	rg.POST("/message/forward/:receiver", s.forward)
	rg.GET("/message/get/:receiver", s.list)
	rg.PUT("/message/seen/:sender", s.markSeen)
	rg.PUT("/message/delivered/:sender", s.markDelivered)
	rg.PUT("/message/react/:id", s.react)
	rg.PUT("/message/delete/:id", s.remove)
	rg.GET("/message/details/:id", s.details)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Err(c, http.StatusBadRequest, "invalid "+name+" id")
		return 0, false
	}
	return id, true
}

func (s Service) send(c *gin.Context) {
	uid := auth.MustUserID(c)
	receiver, ok := pathID(c, "receiver")
	if !ok {
		return
	}
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Body == "" && req.MediaURL == "" {
		httpx.Domain(c, domain.ValidationError{Msg: "message needs text or media"})
		return
	}

	m := &Message{
		SenderID:    uid,
		ReceiverID:  receiver,
		Body:        req.Body,
		MediaURL:    req.MediaURL,
		ReplyToID:   req.ReplyTo,
		IsForwarded: false,
	}
	if err := s.persistAndFanOut(c, m); err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, m)
}

func (s Service) forward(c *gin.Context) {
	uid := auth.MustUserID(c)
	receiver, ok := pathID(c, "receiver")
	if !ok {
		return
	}
	var req forwardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	original, err := s.Store.Get(c.Request.Context(), req.MessageID)
	if err != nil {
		httpx.Domain(c, err)
		return
	}

	m := &Message{
		SenderID:    uid,
		ReceiverID:  receiver,
		Body:        original.Body,
		MediaURL:    original.MediaURL,
		IsForwarded: true,
	}
	if err := s.persistAndFanOut(c, m); err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, m)
}

// persistAndFanOut is the shared send path: conversation append, initial
// delivery state, then notification. Nothing is announced unless the message
// durably committed.
func (s Service) persistAndFanOut(c *gin.Context, m *Message) error {
	ctx := c.Request.Context()

	convID, err := s.Conv.GetOrCreate(ctx, m.SenderID, m.ReceiverID)
	if err != nil {
		return err
	}
	m.ConversationID = convID
	m.Status, m.DeliveredAt = s.Delivery.InitialStatus(m.ReceiverID)

	if err := s.Store.Insert(ctx, m); err != nil {
		return err
	}
	s.Store.AttachDisplay(ctx, m)

	created := chat.Event{Type: chat.EventMessageCreated, Data: m}
	s.Hub.NotifyOne(m.ReceiverID, created)
	// Echo to the sender so every open session renders the sent tick.
	s.Hub.NotifyOne(m.SenderID, created)
	if m.Status == StatusDelivered {
		s.Hub.NotifyOne(m.SenderID, chat.Event{
			Type: chat.EventMessageDelivered,
			Data: chat.DeliveredData{MessageID: m.ID},
		})
	}
	return nil
}

func (s Service) list(c *gin.Context) {
	uid := auth.MustUserID(c)
	receiver, ok := pathID(c, "receiver")
	if !ok {
		return
	}

	convID, found, err := s.Conv.Lookup(c.Request.Context(), uid, receiver)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	if !found {
		httpx.OK(c, gin.H{"messages": []Message{}})
		return
	}
	list, err := s.Store.ListConversation(c.Request.Context(), convID, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"messages": list})
}

func (s Service) markSeen(c *gin.Context) {
	uid := auth.MustUserID(c)
	sender, ok := pathID(c, "sender")
	if !ok {
		return
	}
	ids, err := s.Delivery.MarkSeen(c.Request.Context(), sender, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	httpx.OK(c, gin.H{"messageIds": ids})
}

func (s Service) markDelivered(c *gin.Context) {
	uid := auth.MustUserID(c)
	sender, ok := pathID(c, "sender")
	if !ok {
		return
	}
	ids, err := s.Delivery.MarkDelivered(c.Request.Context(), sender, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	httpx.OK(c, gin.H{"messageIds": ids})
}

func (s Service) react(c *gin.Context) {
	uid := auth.MustUserID(c)
	mid, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.Store.Get(c.Request.Context(), mid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	if uid != m.SenderID && uid != m.ReceiverID {
		httpx.Domain(c, domain.ErrUnauthorized)
		return
	}

	reactions, err := s.Store.React(c.Request.Context(), mid, uid, req.Emoji)
	if err != nil {
		httpx.Domain(c, err)
		return
	}

	s.Hub.Notify([]int64{m.SenderID, m.ReceiverID}, chat.Event{
		Type: chat.EventMessageReacted,
		Data: chat.ReactedData{MessageID: mid, Reactions: reactions},
	})
	httpx.OK(c, gin.H{"messageId": mid, "reactions": reactions})
}

func (s Service) remove(c *gin.Context) {
	uid := auth.MustUserID(c)
	mid, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.Store.Get(c.Request.Context(), mid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}

	if req.ForEveryone {
		if m.SenderID != uid {
			httpx.Domain(c, domain.ErrUnauthorized)
			return
		}
		if err := s.Store.TombstoneForEveryone(c.Request.Context(), mid); err != nil {
			httpx.Domain(c, err)
			return
		}
	} else {
		if err := s.Store.HideForUser(c.Request.Context(), mid, uid); err != nil {
			httpx.Domain(c, err)
			return
		}
	}

	s.Hub.Notify([]int64{m.SenderID, m.ReceiverID}, chat.Event{
		Type: chat.EventMessageDeleted,
		Data: chat.DeletedData{MessageID: mid, ForEveryone: req.ForEveryone, ActorID: uid},
	})
	httpx.OK(c, gin.H{"success": true})
}

func (s Service) details(c *gin.Context) {
	mid, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := s.Store.Get(c.Request.Context(), mid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	s.Store.AttachDisplay(c.Request.Context(), m)
	httpx.OK(c, m)
}
