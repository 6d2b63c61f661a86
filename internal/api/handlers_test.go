package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postbox/internal/models"
	"postbox/internal/repositories"
	"postbox/internal/session"
	"postbox/internal/testhelpers"
	"postbox/internal/utils"
)

var testSecret = []byte("api-test-secret")

func newTestHandlers(t *testing.T) (*Handlers, *session.Hub, *repositories.RedisProfileStore) {
	t.Helper()
	_, rdb := testhelpers.SetupTestRedis(t)
	store := repositories.NewRedisProfileStore(rdb, 0)
	hub := session.NewHub(nil)
	h := NewHandlers(nil, hub, store, Options{
		JWTSecret:      testSecret,
		SessionCookie:  "session",
		SessionTTL:     time.Hour,
		AllowedOrigins: []string{"https://chat.example"},
	})
	return h, hub, store
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedProfile(t *testing.T, store *repositories.RedisProfileStore, userName string) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: 1, UUID: userName + "-uuid", Name: userName, UserName: userName}
	require.NoError(t, store.Save(context.Background(), p))
	return p
}

func sessionToken(t *testing.T, p *models.Profile) string {
	t.Helper()
	tok, _, err := utils.GenerateSessionToken(p.UUID, p.UserName, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestGetRoom(t *testing.T) {
	h, hub, _ := newTestHandlers(t)
	id := hub.Create("lobby", true)

	rec := httptest.NewRecorder()
	h.GetRoom(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id))
	require.Equal(t, http.StatusOK, rec.Code)
	var info models.RoomInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, models.RoomInfo{ID: id, Name: "lobby", Public: true}, info)

	rec = httptest.NewRecorder()
	h.GetRoom(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostBoxWSRejectsBeforeUpgrade(t *testing.T) {
	h, hub, store := newTestHandlers(t)
	id := hub.Create("lobby", true)
	p := seedProfile(t, store, "alice")

	t.Run("no credential", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.PostBoxWS(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		ghost := &models.Profile{UUID: "ghost"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: sessionToken(t, ghost)})
		rec := httptest.NewRecorder()
		h.PostBoxWS(rec, withURLParam(req, "id", id))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown room", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, p))
		rec := httptest.NewRecorder()
		h.PostBoxWS(rec, withURLParam(req, "id", "missing"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	room, _ := hub.Get(id)
	assert.Equal(t, 0, room.Len())
}

func TestLogin(t *testing.T) {
	h, _, store := newTestHandlers(t)
	p := seedProfile(t, store, "bob")

	rec := httptest.NewRecorder()
	h.Login(rec, withURLParam(httptest.NewRequest(http.MethodPut, "/", nil), "uuid", p.UUID))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims, err := utils.ValidateSessionToken(cookies[0].Value, testSecret)
	require.NoError(t, err)
	assert.Equal(t, p.UUID, claims.Subject)

	rec = httptest.NewRecorder()
	h.Login(rec, withURLParam(httptest.NewRequest(http.MethodPut, "/", nil), "uuid", "nobody"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodDelete, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestRequireSession(t *testing.T) {
	h, _, store := newTestHandlers(t)
	p := seedProfile(t, store, "carol")
	next := h.RequireSession(http.HandlerFunc(h.Me))

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: sessionToken(t, p)})
	rec = httptest.NewRecorder()
	next.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "carol", got.UserName)
}

func TestCheckOrigin(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://postbox.local/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, h.checkOrigin(req("")))
	assert.True(t, h.checkOrigin(req("http://postbox.local")))
	assert.True(t, h.checkOrigin(req("https://chat.example")))
	assert.False(t, h.checkOrigin(req("https://evil.example")))
}

func TestReady(t *testing.T) {
	mr, rdb := testhelpers.SetupTestRedis(t)
	h := NewHandlers(nil, session.NewHub(nil), repositories.NewRedisProfileStore(rdb, 0), Options{JWTSecret: testSecret})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
