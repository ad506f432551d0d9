package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

const (
	// StreamName is the name of the notifications stream.
	StreamName = "NOTIFICATIONS"

	// SubjectPrefix is the prefix for all notification subjects.
	SubjectPrefix = "notify"
)

// publisher is the subset of jetstream.JetStream used to dispatch notifications.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EnsureStream ensures the notifications stream exists. Consumers (email,
// push) live outside this service and read from it.
func EnsureStream(ctx context.Context, client *Client) error {
	js := client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  10 * time.Minute,
		Description: "Offline notifications for marketplace messages",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject notifying recipientID of a new message.
func MessageSubject(recipientID string) string {
	return fmt.Sprintf("%s.message.%s", SubjectPrefix, subjectToken(recipientID))
}

// subjectToken replaces characters NATS reserves in subject tokens.
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// Notifier publishes "you have a new message" notifications to JetStream.
type Notifier struct {
	js publisher
}

// NewNotifier creates a notifier publishing through the client's JetStream context.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{js: client.JetStream()}
}

// NotifyNewMessage tells the recipient of msg that its sender wrote to them.
// The message id doubles as the JetStream dedupe id.
func (n *Notifier) NotifyNewMessage(ctx context.Context, msg *model.Message) error {
	notification := model.MessageNotification{
		ID:             uuid.NewString(),
		Type:           model.NotificationNewMessage,
		RecipientID:    msg.RecipientID,
		SenderID:       msg.SenderID,
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		Preview:        model.Preview(msg),
		CreatedAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if _, err := n.js.Publish(ctx, MessageSubject(msg.RecipientID), data, jetstream.WithMsgID(msg.ID)); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
