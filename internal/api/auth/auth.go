// Package auth implements account registration, login and logout on
// top of the credential store and the Redis session store.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/FernanDeHoyos/api-rick/internal/api/middleware"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Sessions is the auth gate's session contract: establish on login,
// resolve on each request, clear on logout.
type Sessions interface {
	Establish(ctx context.Context, userID uint) (string, error)
	Resolve(ctx context.Context, token string) (uint, error)
	Clear(ctx context.Context, token string) error
}

// Handler serves the register/login/logout endpoints.
type Handler struct {
	store    Store
	sessions Sessions
	logger   *slog.Logger
}

// NewHandler creates the auth Handler.
func NewHandler(store Store, sessions Sessions, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates a new account.
//
// POST /register
func (h *Handler) Register(c *gin.Context) {
	if h.redirectAuthenticated(c) {
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		if h.logger != nil {
			h.logger.Error("create user failed", slog.String("email", NormalizeEmail(req.Email)), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	if h.logger != nil {
		h.logger.Info("user registered", slog.String("email", user.Email))
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

// Login verifies credentials and establishes a session.
//
// POST /login
func (h *Handler) Login(c *gin.Context) {
	if h.redirectAuthenticated(c) {
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Same response for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.sessions.Establish(c.Request.Context(), user.ID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("establish session failed", slog.String("email", user.Email), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "establish session failed"})
		return
	}

	metrics.SessionsEstablishedTotal.Inc()
	if h.logger != nil {
		h.logger.Info("user logged in", slog.String("email", user.Email))
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Logout clears the session behind the presented token.
//
// GET /logout
func (h *Handler) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if err := h.sessions.Clear(c.Request.Context(), token); err != nil {
		if h.logger != nil {
			h.logger.Error("clear session failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear session failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// redirectAuthenticated sends callers that already hold a live session
// to the task list instead of re-processing login/registration.
func (h *Handler) redirectAuthenticated(c *gin.Context) bool {
	token := middleware.BearerToken(c)
	if token == "" {
		return false
	}
	if _, err := h.sessions.Resolve(c.Request.Context(), token); err != nil {
		return false
	}
	c.Redirect(http.StatusSeeOther, "/tasks")
	return true
}
