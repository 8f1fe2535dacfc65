package server

import (
	"context"
	"net/http"

	"wordrush/internal/config"
	"wordrush/internal/game"
	"wordrush/internal/words"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	svc       *game.Service
	db        *gorm.DB
	ws        *wsHub
	cfg       config.Config
	oracle    *words.Oracle
	dispatch  *dispatcher
	persist   *persister
	limiter   *rateLimiter
	scheduler *scheduler
}

// New wires the room service to its word store, websocket hub and
// persistence sink. conn may be nil, in which case nothing is persisted.
func New(conn *gorm.DB, cfg config.Config, store words.Store) *Server {
	registerValidators()
	if store == nil {
		store = words.NewMemoryStore(nil)
	}
	s := &Server{
		db:      conn,
		ws:      newWSHub(),
		cfg:     cfg,
		oracle:  words.NewOracle(store, cfg.OracleTTL()),
		persist: newPersister(conn, cfg.PersistQueueSize),
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
	s.dispatch = newDispatcher(s.broadcastEvent, s.persist.Enqueue)
	settings := game.Settings{
		MaxPlayers:          cfg.MaxPlayers,
		MinWordsPerCategory: cfg.MinWordsPerCategory,
		IdleTimeout:         cfg.RoomIdleTimeout(),
	}
	validator := words.NewValidator(store, cfg.OracleTTL())
	s.svc = game.NewService(game.NewRegistry(), s.oracle, validator, s.dispatch, settings)
	return s
}

// Warm loads the word oracle so the first game does not start against an
// empty snapshot.
func (s *Server) Warm(ctx context.Context) error {
	return s.oracle.Refresh(ctx)
}

func (s *Server) Service() *game.Service {
	return s.svc
}

// Close stops background work and flushes queued events.
func (s *Server) Close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.dispatch.Close()
	s.persist.Close()
}

func (s *Server) Handler() http.Handler {
	if s.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/categories", s.handleCategories)

	rooms := api.Group("/rooms")
	{
		rooms.POST("", s.rateLimit("create"), s.handleCreateRoom)
		rooms.POST("/join", s.rateLimit("join"), s.handleJoinRoom)
		rooms.POST("/rejoin", s.rateLimit("join"), s.handleRejoinRoom)
		rooms.GET("/:id", s.handleGetRoom)
		rooms.POST("/:id/leave", s.handleLeave)
		rooms.POST("/:id/chat", s.rateLimit("chat"), s.handleChat)
		rooms.POST("/:id/config", s.handleConfig)
		rooms.POST("/:id/start", s.handleStart)
		rooms.POST("/:id/answers", s.handleAnswers)
		rooms.POST("/:id/next", s.handleNextRound)
		rooms.POST("/:id/end", s.handleEndGame)
		rooms.GET("/:id/results", s.handleRoundResults)
		rooms.GET("/:id/summary", s.handleSummary)
	}

	r.GET("/ws/rooms/:id", s.handleWebsocket)
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.cfg.AllowedOrigins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) evictIdleRooms() {
	evicted := s.svc.EvictIdle()
	for _, id := range evicted {
		log.Info().Str("room_id", id).Msg("room evicted for inactivity")
	}
}
