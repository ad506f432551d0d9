//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../mocks/mock_ports.go -package=mocks

// Package service implements message delivery and read-receipt synchronization
// on top of the durable stores and the live hub.
package service

import (
	"context"
	"time"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

// MessageStore is the durable message repository.
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	Get(ctx context.Context, id string) (*model.Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) ([]string, error)
	Delete(ctx context.Context, id string) error
	ListConversation(ctx context.Context, conversationID, cursor string, limit int) ([]model.Message, string, bool, error)
}

// AccountStore resolves identities to accounts.
type AccountStore interface {
	Get(ctx context.Context, id string) (*model.Account, error)
}

// Notifier dispatches offline notifications.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, msg *model.Message) error
}
