package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
)

// Gateway turns inbound socket events into message service calls. Failures
// are answered with an error event on the originating connection only.
type Gateway struct {
	messages *MessageService
	logger   *logger.Logger
}

// NewGateway creates a gateway over the message service.
func NewGateway(messages *MessageService, log *logger.Logger) *Gateway {
	return &Gateway{messages: messages, logger: log}
}

// Dispatch implements realtime.Dispatcher.
func (g *Gateway) Dispatch(ctx context.Context, c *realtime.Conn, evt model.InboundEvent) {
	if err := g.dispatch(ctx, c.Identity(), evt); err != nil {
		code := ErrorCode(err)
		if code == CodeInternal {
			g.logger.Error("socket event failed",
				zap.String("type", string(evt.Type)),
				zap.String("user_id", c.Identity()),
				zap.String("connection_id", c.ID()),
				zap.Error(err),
			)
		}
		c.Send(model.Envelope{
			Type: model.EventError,
			Data: model.ErrorEvent{Code: code, Message: err.Error(), Request: evt.Type},
		})
	}
}

func (g *Gateway) dispatch(ctx context.Context, identity string, evt model.InboundEvent) error {
	switch evt.Type {
	case model.EventJoinConversation:
		var ref model.ConversationRef
		if err := decode(evt.Data, &ref); err != nil {
			return err
		}
		return g.messages.JoinConversation(identity, ref.ConversationID)

	case model.EventLeaveConversation:
		var ref model.ConversationRef
		if err := decode(evt.Data, &ref); err != nil {
			return err
		}
		return g.messages.LeaveConversation(identity, ref.ConversationID)

	case model.EventTyping:
		var req model.TypingRequest
		if err := decode(evt.Data, &req); err != nil {
			return err
		}
		return g.messages.Typing(req.ConversationID, identity, req.RecipientID, req.IsTyping)

	case model.EventSendMessage:
		var req model.SendMessageRequest
		if err := decode(evt.Data, &req); err != nil {
			return err
		}
		_, err := g.messages.send(ctx, OriginSocket, identity, &req)
		return err

	case model.EventMarkAsRead:
		var ref model.ConversationRef
		if err := decode(evt.Data, &ref); err != nil {
			return err
		}
		_, err := g.messages.MarkConversationRead(ctx, ref.ConversationID, identity)
		return err

	case model.EventDeleteMessage:
		var req model.DeleteMessageRequest
		if err := decode(evt.Data, &req); err != nil {
			return err
		}
		return g.messages.DeleteMessage(ctx, req.MessageID, identity)

	default:
		return unknownEvent{evt.Type}
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return invalid("missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalid("malformed event data: %s", err.Error())
	}
	return nil
}
