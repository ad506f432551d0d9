package handler

import (
	"net/http"

	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
)

// PresenceHandler exposes the online set over REST.
type PresenceHandler struct {
	hub *realtime.Hub
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(hub *realtime.Hub) *PresenceHandler {
	return &PresenceHandler{hub: hub}
}

// Online handles GET /api/v1/presence/online
func (h *PresenceHandler) Online(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.OnlineResponse{Users: h.hub.OnlineIdentities()})
}
