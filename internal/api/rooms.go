package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"postbox/internal/identity"
	"postbox/internal/middleware"
	"postbox/internal/models"
	"postbox/internal/session"
	"postbox/internal/utils"
)

// CreateRoom expects a validated *models.CreateRoomRequest in the context.
func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[models.CreateRoomRequest](r)
	id := h.hub.Create(req.Name, req.Public)
	utils.JSON(w, http.StatusCreated, models.CreateRoomResponse{ID: id})
}

func (h *Handlers) ListRooms(w http.ResponseWriter, _ *http.Request) {
	utils.JSON(w, http.StatusOK, h.hub.PublicRooms())
}

func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.hub.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "room not found")
		return
	}
	utils.JSON(w, http.StatusOK, room.Info())
}

// PostBoxWS resolves the caller and the room before upgrading; either failure
// is reported over plain HTTP and leaves the room untouched.
func (h *Handlers) PostBoxWS(w http.ResponseWriter, r *http.Request) {
	profile, err := h.resolver.ResolveRequest(r)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			utils.JSONError(w, http.StatusUnauthorized, "missing or invalid session")
			return
		}
		h.log.Error("resolve identity", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "failed to resolve identity")
		return
	}

	room, err := h.hub.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "room not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	session.Serve(room, *profile, session.NewClient(conn, h.opts.WriteTimeout), h.log)
}
