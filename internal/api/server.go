// Package api wires the HTTP surface of the task tracker: router,
// task handlers, catalog browse and the backing stores.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/FernanDeHoyos/api-rick/internal/api/auth"
	"github.com/FernanDeHoyos/api-rick/internal/api/middleware"
	"github.com/FernanDeHoyos/api-rick/internal/config"
	"github.com/FernanDeHoyos/api-rick/internal/model"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/catalog"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/metrics"
	"github.com/FernanDeHoyos/api-rick/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// CatalogClient is the read-only character catalog contract. Lookup
// failures surface as catalog.ErrUnavailable and must never abort the
// surrounding operation.
type CatalogClient interface {
	Character(ctx context.Context, id int) (*catalog.Character, error)
	Characters(ctx context.Context, page int) ([]catalog.Character, *catalog.PageInfo, error)
}

// Server holds the API dependencies and route handlers.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *gorm.DB
	rdb       *redis.Client
	router    *gin.Engine
	auth      *auth.Handler
	authStore auth.Store
	sessions  *session.Store
	taskStore TaskStore
	catalog   CatalogClient
}

// NewServer connects MySQL and Redis, runs migrations and builds the
// gin router.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	metrics.InitMetrics()

	sessions := session.NewStore(rdb, cfg.Security.SessionTTL)
	authStore := auth.NewStore(db, cfg.Security.BcryptCost)
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		router:    r,
		auth:      auth.NewHandler(authStore, sessions, logger),
		authStore: authStore,
		sessions:  sessions,
		taskStore: dbTaskStore{db: db},
		catalog:   catalogClient,
	}
	s.registerRoutes()
	return s, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database and cache connections.
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/healthz", s.handleHealthz)

	s.router.POST("/register", s.auth.Register)
	s.router.POST("/login", s.auth.Login)

	authed := s.router.Group("/")
	authed.Use(middleware.SessionAuth(s.sessions, s.authStore))
	authed.GET("/", s.handleListTasks)
	authed.GET("/tasks", s.handleListTasks)
	authed.GET("/logout", s.auth.Logout)
	authed.POST("/task/create", s.handleCreateTask)
	authed.POST("/task/edit/:id", s.handleEditTask)
	authed.POST("/task/delete/:id", s.handleDeleteTask)
	authed.POST("/task/associate_character/:id/:characterID", s.handleAssociateCharacter)
	authed.GET("/characters", s.handleListCharacters)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getUserID(c *gin.Context) uint {
	return uint(c.GetInt("userID"))
}
