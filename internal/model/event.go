package model

import (
	"encoding/json"
)

// EventType names an event on the realtime channel.
type EventType string

// Outbound events.
const (
	EventOnlineIdentities EventType = "onlineIdentities"
	EventNewMessage       EventType = "newMessage"
	EventMessageSent      EventType = "messageSent"
	EventMessagesRead     EventType = "messagesRead"
	EventMessageDeleted   EventType = "messageDeleted"
	EventUserTyping       EventType = "userTyping"
	EventError            EventType = "error"
)

// Inbound control events.
const (
	EventJoinConversation  EventType = "joinConversation"
	EventLeaveConversation EventType = "leaveConversation"
	EventTyping            EventType = "typing"
	EventSendMessage       EventType = "sendMessage"
	EventMarkAsRead        EventType = "markAsRead"
	EventDeleteMessage     EventType = "deleteMessage"
)

// Envelope is an outbound event as written to a connection.
type Envelope struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// InboundEvent is a control event read from a connection. Data is decoded
// lazily once the type is known.
type InboundEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OnlineIdentitiesEvent carries the set of online identities.
type OnlineIdentitiesEvent struct {
	Users []string `json:"users"`
}

// NewMessageEvent is pushed to the recipient of a message.
type NewMessageEvent struct {
	Message        Message `json:"message"`
	ConversationID string  `json:"conversationId"`
}

// MessagesReadEvent tells a sender that the other participant read messages.
type MessagesReadEvent struct {
	ConversationID string   `json:"conversationId"`
	ReadBy         string   `json:"readBy"`
	MessageIDs     []string `json:"messageIds"`
}

// MessageDeletedEvent tells the other participant a message is gone.
type MessageDeletedEvent struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// UserTypingEvent relays a typing signal.
type UserTypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// ErrorEvent represents an error answered to the originating connection.
type ErrorEvent struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Request EventType `json:"request,omitempty"`
}

// ConversationRef is the payload of join/leave/markAsRead.
type ConversationRef struct {
	ConversationID string `json:"conversationId"`
}

// TypingRequest is the payload of an inbound typing event.
type TypingRequest struct {
	ConversationID string `json:"conversationId"`
	RecipientID    string `json:"recipientId"`
	IsTyping       bool   `json:"isTyping"`
}

// DeleteMessageRequest is the payload of an inbound deleteMessage event.
// RecipientID is accepted for compatibility; the stored message decides the audience.
type DeleteMessageRequest struct {
	MessageID   string `json:"messageId"`
	RecipientID string `json:"recipientId,omitempty"`
}
