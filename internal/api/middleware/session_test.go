package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FernanDeHoyos/api-rick/internal/model"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type fakeUserLoader struct {
	users map[uint]*model.User
}

func (f *fakeUserLoader) LoadByID(ctx context.Context, id uint) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, errors.New("no such user")
	}
	return user, nil
}

func newAuthedRouter(t *testing.T) (*session.Store, *fakeUserLoader, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := session.NewStore(rdb, time.Minute)
	users := &fakeUserLoader{users: map[uint]*model.User{
		1: {ID: 1, Email: "a@x.com"},
	}}

	r := gin.New()
	r.Use(SessionAuth(sessions, users))
	r.GET("/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt("userID")})
	})
	return sessions, users, r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth_MissingHeader(t *testing.T) {
	_, _, r := newAuthedRouter(t)

	if w := get(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSessionAuth_MalformedHeader(t *testing.T) {
	_, _, r := newAuthedRouter(t)

	if w := get(r, "Basic abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", w.Code)
	}
}

func TestSessionAuth_UnknownToken(t *testing.T) {
	_, _, r := newAuthedRouter(t)

	if w := get(r, "Bearer bogus"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", w.Code)
	}
}

func TestSessionAuth_ValidSession(t *testing.T) {
	sessions, _, r := newAuthedRouter(t)

	token, err := sessions.Establish(context.Background(), 1)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	w := get(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionAuth_DeletedUser(t *testing.T) {
	sessions, users, r := newAuthedRouter(t)

	token, err := sessions.Establish(context.Background(), 1)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	delete(users.users, 1)

	if w := get(r, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 once the account is gone, got %d", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		if got := BearerToken(c); got != tc.want {
			t.Fatalf("header %q: expected %q, got %q", tc.header, tc.want, got)
		}
	}
}
