package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"postbox/internal/models"
	"postbox/internal/repositories"
	"postbox/internal/utils"
)

// Login issues a session cookie for an existing profile.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "uuid"))
	if errors.Is(err, repositories.ErrProfileNotFound) {
		utils.JSONError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Error("load profile", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	token, exp, err := utils.GenerateSessionToken(p.UUID, p.UserName, h.opts.JWTSecret, h.opts.SessionTTL)
	if err != nil {
		h.log.Error("sign session token", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	http.SetCookie(w, h.sessionCookie(token, exp))
	utils.JSON(w, http.StatusOK, models.SessionResponse{Token: token, ExpiresAt: exp, Profile: p})
}

func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	c := h.sessionCookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) sessionCookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.opts.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
