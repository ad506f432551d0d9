package model

import (
	"time"
)

// Message is a direct message between two marketplace accounts.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	RecipientID    string     `json:"recipient_id"`
	Text           string     `json:"text,omitempty"`
	Attachments    []string   `json:"attachments,omitempty"`
	ProductID      *string    `json:"product_id,omitempty"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Account is the subset of account state the messaging core depends on.
type Account struct {
	ID        string    `json:"id"`
	Suspended bool      `json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	RecipientID string   `json:"recipient_id" validate:"required,max=128"`
	Text        string   `json:"text,omitempty" validate:"max=5000"`
	Attachments []string `json:"attachments,omitempty" validate:"max=10,dive,required,max=2048"`
	ProductID   *string  `json:"product_id,omitempty" validate:"omitempty,max=128"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message *Message `json:"message"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"has_more"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// MarkReadResponse lists the messages flipped to read.
type MarkReadResponse struct {
	ConversationID string   `json:"conversation_id"`
	MessageIDs     []string `json:"message_ids"`
}

// OnlineResponse lists currently online identities.
type OnlineResponse struct {
	Users []string `json:"users"`
}
