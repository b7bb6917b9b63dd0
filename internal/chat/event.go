package chat

// EventType enumerates every real-time event the server emits. Fan-out only
// accepts values from this set, so adding an event means adding it here.
type EventType string

const (
	EventPresenceSnapshot EventType = "presence.snapshot"

	EventMessageCreated        EventType = "message.created"
	EventMessageDelivered      EventType = "message.delivered"
	EventMessageBatchDelivered EventType = "message.batchDelivered"
	EventMessageBatchSeen      EventType = "message.batchSeen"
	EventMessageReacted        EventType = "message.reacted"
	EventMessageDeleted        EventType = "message.deleted"

	EventTypingStart EventType = "typing.start"
	EventTypingStop  EventType = "typing.stop"

	EventStatusCreated EventType = "status.created"
	EventStatusViewed  EventType = "status.viewed"
	EventStatusLiked   EventType = "status.liked"
	EventStatusUnliked EventType = "status.unliked"
	EventStatusReplied EventType = "status.replied"
	EventStatusDeleted EventType = "status.deleted"
)

// Client-originated frame types accepted on the websocket.
const (
	ClientTypingStart   EventType = "typing.start"
	ClientTypingStop    EventType = "typing.stop"
	ClientMarkSeen      EventType = "message.markSeen"
	ClientMarkDelivered EventType = "message.markDelivered"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

type PresenceSnapshotData struct {
	Online []int64 `json:"online"`
}

type DeliveredData struct {
	MessageID int64 `json:"messageId"`
}

type BatchDeliveredData struct {
	ReceiverID int64 `json:"receiverId"`
}

type BatchSeenData struct {
	ViewerID   int64   `json:"viewerId"`
	MessageIDs []int64 `json:"messageIds"`
}

type ReactedData struct {
	MessageID int64 `json:"messageId"`
	Reactions any   `json:"reactions"`
}

type DeletedData struct {
	MessageID   int64 `json:"messageId"`
	ForEveryone bool  `json:"forEveryone"`
	ActorID     int64 `json:"actorId"`
}

type TypingData struct {
	SenderID int64 `json:"senderId"`
}

type StatusViewedData struct {
	StatusID int64 `json:"statusId"`
	Viewers  any   `json:"viewers"`
}

type StatusLikedData struct {
	StatusID int64 `json:"statusId"`
	Likes    any   `json:"likes"`
}

type StatusRepliedData struct {
	StatusID int64 `json:"statusId"`
	Replies  any   `json:"replies"`
}

type StatusDeletedData struct {
	StatusID int64 `json:"statusId"`
}
