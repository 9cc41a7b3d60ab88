// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the HTTP front door: it starts runs, streams progress
// over SSE with reconnect replay, serves completed reports, and exposes
// Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meshintel/fit-engine/internal/pipeline"
	"github.com/meshintel/fit-engine/internal/session"
	"github.com/meshintel/fit-engine/pkg/types"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

// Server wires the session manager into HTTP handlers.
type Server struct {
	sessions *session.Manager
	cfg      types.ServerConfig
	logger   *zap.Logger
}

// New builds a server.
func New(sessions *session.Manager, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sessions: sessions, cfg: cfg, logger: logger}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.POST("/research", s.startResearch)
		api.GET("/research/:id/events", s.streamEvents)
		api.GET("/research/:id/report", s.getReport)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

// ListenAndServe runs the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
	return s.Router().Run(s.cfg.Addr)
}

type startRequest struct {
	Query           string `json:"query" binding:"required"`
	MaxIterations   int    `json:"max_iterations"`
	IncludeThoughts bool   `json:"include_thoughts"`
}

func (s *Server) startResearch(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	id := s.sessions.Start(req.Query, pipeline.Options{
		MaxIterations:   req.MaxIterations,
		IncludeThoughts: req.IncludeThoughts,
	})
	s.logger.Info("research started", zap.String("session", id))
	c.JSON(http.StatusAccepted, gin.H{"session_id": id})
}

// streamEvents serves a session's progress stream as SSE. Reconnecting
// replays the buffered history before live events; a completed session
// replays history and ends the stream.
func (s *Server) streamEvents(c *gin.Context) {
	id := c.Param("id")
	events, cancel, err := s.sessions.Subscribe(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	defer cancel()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "event: connected\ndata: {\"session_id\":%q}\n\n", id)
	w.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Fprint(w, "event: done\ndata: {}\n\n")
				w.Flush()
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("serializing event failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			w.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			w.Flush()

		case <-c.Request.Context().Done():
			// Caller disconnected; the run keeps going without us.
			return
		}
	}
}

func (s *Server) getReport(c *gin.Context) {
	id := c.Param("id")
	rep, err := s.sessions.Report(id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
	case errors.Is(err, session.ErrRunning):
		c.JSON(http.StatusAccepted, gin.H{"status": "running"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, rep)
	}
}
