package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"hostkeep/internal/sync/service"
	httputil "hostkeep/pkg/http"
	"hostkeep/pkg/logger"
	"hostkeep/pkg/middleware"
)

type SyncHandler struct {
	service service.SyncService
	log     *logger.Logger
}

func NewSyncHandler(service service.SyncService, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		log:     log,
	}
}

// Sync triggers one reconciliation pass over the property's calendar feed.
// The request carries no body; the response reports how many bookings and
// tasks this pass created.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		if err := httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error: "Unauthorized",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "Sync", "operation", "WriteJSON", "error", err)
		}
		return
	}

	propertyID := ps.ByName("id")
	if propertyID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Property ID parameter is required",
		}); err != nil {
			h.log.Error("failed to write bad request response", "handler", "Sync", "operation", "WriteJSON", "error", err)
		}
		return
	}

	result, err := h.service.Sync(r.Context(), userID, propertyID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Sync", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, result); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Sync", "operation", "WriteJSON", "error", err)
	}
}

func (h *SyncHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/properties/:id/sync", h.Sync)
}
