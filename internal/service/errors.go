package service

import (
	"errors"
	"fmt"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

// Error codes carried by error events on the realtime channel.
const (
	CodeBadRequest       = "bad_request"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeAccountSuspended = "account_suspended"
	CodeUnknownEvent     = "unknown_event"
	CodeInternal         = "internal"
)

// ErrorCode classifies err for clients.
func ErrorCode(err error) string {
	var unknown unknownEvent
	switch {
	case errors.As(err, &unknown):
		return CodeUnknownEvent
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, model.ErrInvalidConversation):
		return CodeBadRequest
	case errors.Is(err, apperrors.ErrAccountSuspended):
		return CodeAccountSuspended
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, model.ErrNotParticipant):
		return CodeForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}

type unknownEvent struct {
	eventType model.EventType
}

func (e unknownEvent) Error() string {
	return "unknown event type " + string(e.eventType)
}
