package api

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"postbox/internal/identity"
	"postbox/internal/middleware"
	"postbox/internal/models"
	"postbox/internal/repositories"
	"postbox/internal/utils"
)

type profileKey struct{}

// RequireSession rejects requests without a resolvable session and stores the
// caller's profile in the context.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.resolver.ResolveRequest(r)
		if err != nil {
			if errors.Is(err, identity.ErrIdentityNotFound) {
				utils.JSONError(w, http.StatusUnauthorized, "missing or invalid session")
				return
			}
			h.log.Error("resolve identity", zap.Error(err))
			utils.JSONError(w, http.StatusInternalServerError, "failed to resolve identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey{}, p)))
	})
}

// CurrentProfile returns the profile stored by RequireSession.
func CurrentProfile(r *http.Request) (*models.Profile, bool) {
	p, ok := r.Context().Value(profileKey{}).(*models.Profile)
	return p, ok
}

// CreateProfile expects a validated *models.CreateProfileRequest in the context.
func (h *Handlers) CreateProfile(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[models.CreateProfileRequest](r)
	p := &models.Profile{
		ID:           rand.Int63(),
		UUID:         uuid.NewString(),
		Name:         req.Name,
		UserName:     req.UserName,
		UserImageURL: req.UserImageURL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.profiles.Save(r.Context(), p); err != nil {
		h.log.Error("save profile", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}
	h.log.Info("profile created", zap.String("uuid", p.UUID), zap.String("user_name", p.UserName))
	utils.JSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, repositories.ErrProfileNotFound) {
		utils.JSONError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Error("load profile", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

// Me returns the caller's own profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := CurrentProfile(r)
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "missing or invalid session")
		return
	}
	utils.JSON(w, http.StatusOK, p)
}
