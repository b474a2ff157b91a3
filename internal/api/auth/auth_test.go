package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FernanDeHoyos/api-rick/internal/model"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// fakeStore is an in-memory credential store with the same contract as
// the GORM-backed one.
type fakeStore struct {
	nextID  uint
	byEmail map[string]*model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: map[string]*model.User{}}
}

func (f *fakeStore) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if _, ok := f.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}
	hash, err := HashPassword(password, 4) // min cost keeps tests fast
	if err != nil {
		return nil, err
	}
	f.nextID++
	user := &model.User{ID: f.nextID, Email: email, Password: hash}
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeStore) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, ok := f.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeStore) LoadByID(ctx context.Context, id uint) (*model.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// fakeSessions maps tokens to user ids in memory.
type fakeSessions struct {
	nextToken int
	byToken   map[string]uint
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]uint{}}
}

func (f *fakeSessions) Establish(ctx context.Context, userID uint) (string, error) {
	f.nextToken++
	token := fmt.Sprintf("token-%d", f.nextToken)
	f.byToken[token] = userID
	return token, nil
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (uint, error) {
	userID, ok := f.byToken[token]
	if !ok {
		return 0, errors.New("session not found")
	}
	return userID, nil
}

func (f *fakeSessions) Clear(ctx context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

func newTestHandler() (*fakeStore, *fakeSessions, *Handler) {
	metrics.InitMetrics()
	store := newFakeStore()
	sessions := newFakeSessions()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store, sessions, NewHandler(store, sessions, logger)
}

func newAuthRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store, _, h := newTestHandler()
	r := newAuthRouter(h)

	w := doRequest(t, r, http.MethodPost, "/register", "", credentials{Email: "a@x.com", Password: "secret1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first register, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodPost, "/register", "", credentials{Email: "a@x.com", Password: "secret2"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", w.Code)
	}

	if len(store.byEmail) != 1 {
		t.Fatalf("expected exactly one user after duplicate register, got %d", len(store.byEmail))
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	store, _, h := newTestHandler()
	r := newAuthRouter(h)

	w := doRequest(t, r, http.MethodPost, "/register", "", credentials{Email: "  A@X.com ", Password: "secret1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := store.byEmail["a@x.com"]; !ok {
		t.Fatalf("expected email stored lowercased, store: %v", store.byEmail)
	}
}

func TestRegister_InvalidPayload(t *testing.T) {
	store, _, h := newTestHandler()
	r := newAuthRouter(h)

	// password below the minimum length
	w := doRequest(t, r, http.MethodPost, "/register", "", credentials{Email: "a@x.com", Password: "pw"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(store.byEmail) != 0 {
		t.Fatalf("expected no user created")
	}
}

func TestLogin_FailuresIndistinguishable(t *testing.T) {
	_, _, h := newTestHandler()
	r := newAuthRouter(h)

	w := doRequest(t, r, http.MethodPost, "/register", "", credentials{Email: "a@x.com", Password: "secret1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d", w.Code)
	}

	wrongPw := doRequest(t, r, http.MethodPost, "/login", "", credentials{Email: "a@x.com", Password: "wrong-pw"})
	unknown := doRequest(t, r, http.MethodPost, "/login", "", credentials{Email: "nobody@x.com", Password: "secret1"})

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Fatalf("wrong password and unknown email must be indistinguishable: %q vs %q",
			wrongPw.Body.String(), unknown.Body.String())
	}
}

func TestLogin_EstablishesSession(t *testing.T) {
	_, sessions, h := newTestHandler()
	r := newAuthRouter(h)

	doRequest(t, r, http.MethodPost, "/register", "", credentials{Email: "a@x.com", Password: "secret1"})
	w := doRequest(t, r, http.MethodPost, "/login", "", credentials{Email: "a@x.com", Password: "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a session token")
	}
	userID, err := sessions.Resolve(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("token must map to a session: %v", err)
	}
	if userID != 1 {
		t.Fatalf("expected session for user 1, got %d", userID)
	}
}

func TestLoginRegister_RedirectWhenAuthenticated(t *testing.T) {
	_, sessions, h := newTestHandler()
	r := newAuthRouter(h)

	token, err := sessions.Establish(context.Background(), 1)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	for _, path := range []string{"/register", "/login"} {
		w := doRequest(t, r, http.MethodPost, path, token, credentials{Email: "a@x.com", Password: "secret1"})
		if w.Code != http.StatusSeeOther {
			t.Fatalf("%s: expected 303 for authenticated caller, got %d", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/tasks" {
			t.Fatalf("%s: expected redirect to /tasks, got %q", path, loc)
		}
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	_, sessions, h := newTestHandler()
	r := newAuthRouter(h)

	token, err := sessions.Establish(context.Background(), 1)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	w := doRequest(t, r, http.MethodGet, "/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, err := sessions.Resolve(context.Background(), token); err == nil {
		t.Fatalf("expected session to be cleared")
	}
}
