package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"

	"quotation_system/internal/domain"
	"quotation_system/internal/middleware"
	"quotation_system/internal/store"
	"quotation_system/internal/utils"
)

const secret = "test-secret"

type fakeSessions map[string]uint

func (f fakeSessions) Lookup(_ context.Context, sid string) (uint, error) {
	id, ok := f[sid]
	if !ok {
		return 0, errors.New("unknown session")
	}
	return id, nil
}

type fakeUsers map[uint]domain.User

func (f fakeUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := f[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func newRouter(sessions fakeSessions, users fakeUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private",
		middleware.SessionAuthMiddleware(secret, sessions),
		middleware.RequireUserMiddleware(users),
		func(c *gin.Context) {
			u, _ := middleware.CurrentUser(c)
			c.String(http.StatusOK, "%d %s %s %s", middleware.UserID(c), middleware.Username(c), middleware.SessionID(c), u.Email)
		})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(c *qt.C, userID uint, sid, key string, ttl time.Duration) string {
	tok, err := utils.GenerateJWT(userID, "ravi", sid, key, ttl)
	c.Assert(err, qt.IsNil)
	return tok
}

func TestSessionMiddlewareAccepts(t *testing.T) {
	c := qt.New(t)
	r := newRouter(fakeSessions{"s1": 5}, fakeUsers{5: {ID: 5, Email: "r@example.com"}})

	w := get(r, token(c, 5, "s1", secret, time.Hour))

	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Equals, "5 ravi s1 r@example.com")
}

func TestSessionMiddlewareRedirects(t *testing.T) {
	c := qt.New(t)
	sessions := fakeSessions{"s1": 5, "s2": 6}
	users := fakeUsers{5: {ID: 5}}

	tests := []struct {
		name  string
		token string
	}{
		{name: "no cookie", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong key", token: token(c, 5, "s1", "other", time.Hour)},
		{name: "expired", token: token(c, 5, "s1", secret, -time.Minute)},
		{name: "revoked session", token: token(c, 5, "gone", secret, time.Hour)},
		{name: "session of another user", token: token(c, 5, "s2", secret, time.Hour)},
		{name: "deleted account", token: token(c, 6, "s2", secret, time.Hour)},
	}

	r := newRouter(sessions, users)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			w := get(r, tt.token)
			c.Assert(w.Code, qt.Equals, http.StatusSeeOther)
			c.Assert(w.Header().Get("Location"), qt.Equals, "/login")
		})
	}
}
