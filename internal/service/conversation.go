package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/pkg/metrics"
)

// MarkConversationRead flips every unread message of conversationID addressed
// to readerID and tells the other participant which ids were read. Calling it
// again on a read conversation writes nothing and emits nothing.
func (s *MessageService) MarkConversationRead(ctx context.Context, conversationID, readerID string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.MarkConversationRead", trace.WithAttributes(
		attribute.String("conversation_id", conversationID),
		attribute.String("reader_id", readerID),
	))
	defer span.End()

	other, err := model.OtherParticipant(conversationID, readerID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActive(ctx, readerID); err != nil {
		return nil, err
	}

	ids, err := s.messages.MarkConversationRead(ctx, conversationID, readerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	span.SetAttributes(attribute.Int("flipped", len(ids)))
	if len(ids) == 0 {
		return []string{}, nil
	}
	metrics.ReadReceiptsTotal.Add(float64(len(ids)))

	s.hub.DeliverTo(other, model.EventMessagesRead, model.MessagesReadEvent{
		ConversationID: conversationID,
		ReadBy:         readerID,
		MessageIDs:     ids,
	})

	return ids, nil
}

// Typing relays a typing signal from fromID to toID. Nothing is stored.
func (s *MessageService) Typing(conversationID, fromID, toID string, isTyping bool) error {
	if toID == "" || fromID == toID || model.ConversationID(fromID, toID) != conversationID {
		return invalid("typing signal does not match conversation %q", conversationID)
	}
	s.hub.DeliverTo(toID, model.EventUserTyping, model.UserTypingEvent{
		ConversationID: conversationID,
		UserID:         fromID,
		IsTyping:       isTyping,
	})
	return nil
}

// JoinConversation records that identity opened conversationID. Later sends
// into that conversation arrive already read.
func (s *MessageService) JoinConversation(identity, conversationID string) error {
	if _, err := model.OtherParticipant(conversationID, identity); err != nil {
		return err
	}
	s.hub.Join(identity, conversationID)
	s.logger.Debug("conversation focused",
		zap.String("user_id", identity),
		zap.String("conversation_id", conversationID),
	)
	return nil
}

// LeaveConversation clears the focus of identity if it still points at
// conversationID.
func (s *MessageService) LeaveConversation(identity, conversationID string) error {
	if _, err := model.OtherParticipant(conversationID, identity); err != nil {
		return err
	}
	if s.hub.Leave(identity, conversationID) {
		s.logger.Debug("conversation unfocused",
			zap.String("user_id", identity),
			zap.String("conversation_id", conversationID),
		)
	}
	return nil
}
