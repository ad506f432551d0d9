package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/marketplace-messaging/internal/middleware"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/service"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
)

const defaultHistoryLimit = 50

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		logger:   log,
	}
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messages.Send(ctx, userID, &req)
	if err != nil {
		h.fail(w, r, "failed to send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, &model.SendMessageResponse{Message: msg})
}

// Delete handles DELETE /api/v1/messages/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	messageID := chi.URLParam(r, "id")

	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messages.DeleteMessage(ctx, messageID, middleware.GetUserID(ctx)); err != nil {
		h.fail(w, r, "failed to delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := middleware.ParseLimit(r.URL.Query().Get("limit"), defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.messages.ListConversation(ctx, conversationID, middleware.GetUserID(ctx), r.URL.Query().Get("after"), limit)
	if err != nil {
		h.fail(w, r, "failed to get messages", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// MarkRead handles POST /api/v1/conversations/{id}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := h.messages.MarkConversationRead(ctx, conversationID, middleware.GetUserID(ctx))
	if err != nil {
		h.fail(w, r, "failed to mark conversation read", err)
		return
	}

	writeJSON(w, http.StatusOK, &model.MarkReadResponse{
		ConversationID: conversationID,
		MessageIDs:     ids,
	})
}

// fail answers err with its mapped status. Server faults are logged and
// their detail withheld from the client.
func (h *MessageHandler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(message,
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, status, message)
		return
	}
	writeError(w, status, err.Error())
}
