package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signal-bridge/internal/bridge"
	"signal-bridge/internal/events"
	"signal-bridge/internal/status"
)

// Server wires the HTTP surface around the signal bridge.
type Server struct {
	Router *gin.Engine
	Bridge *bridge.Handler
	Status *status.Store
	Bus    *events.Bus

	// WebhookSecret enables bearer-token auth on the alert route when set.
	WebhookSecret string

	Meta SystemMeta
}

// SystemMeta describes the runtime exposed on the status endpoint.
type SystemMeta struct {
	Exchange string
	DryRun   bool
	Version  string
}

// NewServer builds the router with the full middleware stack.
func NewServer(handler *bridge.Handler, store *status.Store, bus *events.Bus, webhookSecret string, meta SystemMeta) *Server {
	r := gin.New()

	// Middleware stack (order matters)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:        r,
		Bridge:        handler,
		Status:        store,
		Bus:           bus,
		WebhookSecret: webhookSecret,
		Meta:          meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/status", s.getStatus)
	s.Router.GET("/ws", s.websocket)

	// Route name kept for compatibility with existing alert configurations.
	alert := s.Router.Group("")
	if s.WebhookSecret != "" {
		alert.Use(AuthMiddleware(s.WebhookSecret))
	}
	alert.POST("/pionexbot", s.postSignal)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
