package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partyjam/partyjam/config"
	"github.com/partyjam/partyjam/internal/broadcast"
	"github.com/partyjam/partyjam/internal/playback"
	"github.com/partyjam/partyjam/internal/session"
)

// ProviderFactory builds a playback provider from a caller-supplied access
// token. Tests swap this for a fake.
type ProviderFactory func(ctx context.Context, accessToken string) playback.Provider

// Server handles HTTP and websocket requests for party sessions
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	registry *session.Registry
	hub      *broadcast.WebsocketHub

	providerFor ProviderFactory
}

// New creates a new HTTP server instance
func New(cfg *config.Config) *Server {
	hub := broadcast.NewWebsocketHub()

	server := &Server{
		cfg:      cfg,
		registry: session.NewRegistry(hub),
		hub:      hub,
		providerFor: func(ctx context.Context, accessToken string) playback.Provider {
			return playback.NewSpotifyProvider(ctx, accessToken)
		},
	}

	router := gin.Default()
	server.setupRoutes(router)
	server.router = router
	return server
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.cfg.Server.AllowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", s.health)

	// Real-time channel; clients join a session room after connecting
	router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWS(c.Writer, c.Request)
	})

	api := router.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.GET("/sessions", s.listSessions)
		api.POST("/sessions/:id/join", s.joinSession)
		api.GET("/sessions/:id", s.getSession)
		api.POST("/sessions/:id/vote", s.vote)
		api.POST("/sessions/:id/songs", s.addSong)
		api.POST("/sessions/:id/requests", s.requestSong)
		api.GET("/sessions/:id/requests", s.listPendingRequests)
		api.POST("/sessions/:id/requests/:songId/approve", s.approveRequest)
		api.POST("/sessions/:id/requests/:songId/deny", s.denyRequest)
		api.POST("/sessions/:id/play-next", s.playNext)
		api.GET("/search", s.searchTracks)
	}
}

// Start starts the HTTP server and the registry's eviction worker
func (s *Server) Start(port string) error {
	s.registry.StartEvictionWorker(context.Background(), s.cfg.Sessions.IdleTTL())
	return s.router.Run(":" + port)
}

// statusFor maps core failures to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrValidation), errors.Is(err, session.ErrEmptyQueue):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotDJ):
		return http.StatusForbidden
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSongNotFound),
		errors.Is(err, session.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
