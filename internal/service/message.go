package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
	"github.com/capitalize-ai/marketplace-messaging/pkg/tracing"
)

// Origin labels where a send came from.
type Origin string

const (
	OriginREST   Origin = "rest"
	OriginSocket Origin = "socket"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// MessageService persists messages and keeps live clients in step with the
// durable record. Persistence always happens before any live delivery; live
// delivery and notifications never fail an operation.
type MessageService struct {
	messages      MessageStore
	accounts      AccountStore
	notifier      Notifier
	hub           *realtime.Hub
	validate      *validator.Validate
	tracer        trace.Tracer
	notifyTimeout time.Duration
	notifications *notificationQueue
	logger        *logger.Logger
	now           func() time.Time
}

// NewMessageService creates a new message service.
func NewMessageService(
	messages MessageStore,
	accounts AccountStore,
	notifier Notifier,
	hub *realtime.Hub,
	notifyTimeout time.Duration,
	log *logger.Logger,
) *MessageService {
	s := &MessageService{
		messages:      messages,
		accounts:      accounts,
		notifier:      notifier,
		hub:           hub,
		validate:      validator.New(),
		tracer:        tracing.Tracer("service.messages"),
		notifyTimeout: notifyTimeout,
		logger:        log,
		now:           func() time.Time { return time.Now().UTC() },
	}
	s.notifications = newNotificationQueue(notifyWorkers, notifyQueueSize, s.notify)
	return s
}

// Close stops accepting offline notifications and waits for queued ones to
// finish. Sends after Close still succeed but notify nobody.
func (s *MessageService) Close() {
	s.notifications.close()
}

// Send runs the delivery pipeline for a REST-originated message.
func (s *MessageService) Send(ctx context.Context, senderID string, req *model.SendMessageRequest) (*model.Message, error) {
	return s.send(ctx, OriginREST, senderID, req)
}

func (s *MessageService) send(ctx context.Context, origin Origin, senderID string, req *model.SendMessageRequest) (*model.Message, error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.Send", trace.WithAttributes(
		attribute.String("origin", string(origin)),
		attribute.String("sender_id", senderID),
	))
	defer span.End()

	msg, err := s.persistNew(ctx, senderID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("message_id", msg.ID), attribute.Bool("auto_read", msg.IsRead))
	metrics.MessagesTotal.WithLabelValues(string(origin)).Inc()

	s.hub.DeliverTo(msg.RecipientID, model.EventNewMessage, model.NewMessageEvent{
		Message:        *msg,
		ConversationID: msg.ConversationID,
	})
	s.hub.DeliverTo(msg.SenderID, model.EventMessageSent, model.NewMessageEvent{
		Message:        *msg,
		ConversationID: msg.ConversationID,
	})
	if msg.IsRead {
		s.hub.DeliverTo(msg.SenderID, model.EventMessagesRead, model.MessagesReadEvent{
			ConversationID: msg.ConversationID,
			ReadBy:         msg.RecipientID,
			MessageIDs:     []string{msg.ID},
		})
	}

	if !s.hub.IsOnline(msg.RecipientID) {
		queued := *msg
		if !s.notifications.enqueue(context.WithoutCancel(ctx), &queued) {
			metrics.NotificationFailuresTotal.WithLabelValues("not_queued").Inc()
			s.logger.Warn("notification not queued, dropping it",
				zap.String("message_id", msg.ID),
				zap.String("recipient_id", msg.RecipientID),
			)
		}
	}

	return msg, nil
}

// persistNew validates the request, resolves both accounts and writes the
// message, flipping it to read when the recipient has the conversation open.
func (s *MessageService) persistNew(ctx context.Context, senderID string, req *model.SendMessageRequest) (*model.Message, error) {
	if err := s.validateSend(senderID, req); err != nil {
		return nil, err
	}
	if err := s.requireActive(ctx, senderID); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := s.requireActive(ctx, req.RecipientID); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: model.ConversationID(senderID, req.RecipientID),
		SenderID:       senderID,
		RecipientID:    req.RecipientID,
		Text:           strings.TrimSpace(req.Text),
		Attachments:    req.Attachments,
		ProductID:      req.ProductID,
		CreatedAt:      s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	if s.hub.IsFocused(msg.RecipientID, msg.ConversationID) {
		s.readOnArrival(ctx, msg)
	}

	return msg, nil
}

// readOnArrival flips a stored message to read for a recipient who has the
// conversation open. The message is already durable, so a failed update
// leaves it unread rather than failing the send.
func (s *MessageService) readOnArrival(ctx context.Context, msg *model.Message) {
	readAt := s.now()
	if err := s.messages.MarkRead(ctx, msg.ID, readAt); err != nil {
		metrics.AutoReadFailuresTotal.Inc()
		s.logger.Warn("failed to mark message read on arrival",
			zap.String("message_id", msg.ID),
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return
	}
	msg.IsRead = true
	msg.ReadAt = &readAt
	metrics.MessagesAutoReadTotal.Inc()
}

func (s *MessageService) validateSend(senderID string, req *model.SendMessageRequest) error {
	if req == nil {
		return invalid("empty request")
	}
	if err := s.validate.Struct(req); err != nil {
		return invalid("%s", err.Error())
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Attachments) == 0 {
		return invalid("message must contain text or an attachment")
	}
	if req.RecipientID == senderID {
		return invalid("cannot send a message to yourself")
	}
	if strings.Contains(senderID+req.RecipientID, model.ConversationSeparator) {
		return invalid("identities must not contain %q", model.ConversationSeparator)
	}
	return nil
}

// notify dispatches the offline notification under a bounded timeout. It runs
// on a notification worker after the send has returned, so failures are only
// logged and counted.
func (s *MessageService) notify(ctx context.Context, msg *model.Message) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyNewMessage(ctx, msg); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("publish").Inc()
		s.logger.Warn("failed to dispatch notification",
			zap.String("message_id", msg.ID),
			zap.String("recipient_id", msg.RecipientID),
			zap.Error(err),
		)
	}
}

// requireActive resolves id to an account that is allowed to act.
func (s *MessageService) requireActive(ctx context.Context, id string) error {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return err
	}
	if account.Suspended {
		return fmt.Errorf("account %s: %w", id, apperrors.ErrAccountSuspended)
	}
	return nil
}

// DeleteMessage hard-deletes a message on behalf of its sender and tells the
// recipient if they are online.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, requesterID string) error {
	ctx, span := s.tracer.Start(ctx, "MessageService.DeleteMessage", trace.WithAttributes(
		attribute.String("message_id", messageID),
	))
	defer span.End()

	if messageID == "" {
		return invalid("message id is required")
	}
	if err := s.requireActive(ctx, requesterID); err != nil {
		return err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return fmt.Errorf("only the sender may delete message %s: %w", messageID, apperrors.ErrForbidden)
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.hub.DeliverTo(msg.RecipientID, model.EventMessageDeleted, model.MessageDeletedEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	})

	s.logger.Info("message deleted",
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", msg.ConversationID),
	)
	return nil
}

// ListConversation returns a page of a conversation's history to one of its
// participants.
func (s *MessageService) ListConversation(ctx context.Context, conversationID, requesterID, cursor string, limit int) (*model.ListMessagesResponse, error) {
	if _, err := model.OtherParticipant(conversationID, requesterID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	messages, next, hasMore, err := s.messages.ListConversation(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}

	return &model.ListMessagesResponse{
		Messages:   messages,
		HasMore:    hasMore,
		NextCursor: next,
	}, nil
}
