package model

import (
	"time"
	"unicode/utf8"
)

// NotificationType names an offline notification.
type NotificationType string

// NotificationNewMessage is sent when a message reaches an offline recipient.
const NotificationNewMessage NotificationType = "message.new"

const previewLength = 140

// MessageNotification is the payload handed to the notification pipeline.
type MessageNotification struct {
	ID             string           `json:"id"`
	Type           NotificationType `json:"type"`
	RecipientID    string           `json:"recipient_id"`
	SenderID       string           `json:"sender_id"`
	MessageID      string           `json:"message_id"`
	ConversationID string           `json:"conversation_id"`
	Preview        string           `json:"preview"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Preview returns a short text for msg suitable for a notification body.
func Preview(msg *Message) string {
	if msg.Text == "" {
		if len(msg.Attachments) > 0 {
			return "[attachment]"
		}
		return ""
	}
	if utf8.RuneCountInString(msg.Text) <= previewLength {
		return msg.Text
	}
	return string([]rune(msg.Text)[:previewLength]) + "…"
}
