// Package api exposes the Pulseboard HTTP interface: a JSON API with
// cookie-session authentication on top of the tracker service layer.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/scheduler"
	"github.com/pulseboard/pulseboard/tracker"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	tracker   *tracker.Tracker
	sched     *scheduler.Scheduler

	// ctx bounds the server lifetime; Run shuts down when it is cancelled.
	ctx context.Context
}

func New(ctx context.Context, cfg *config.Config, t *tracker.Tracker, sched *scheduler.Scheduler) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if t == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}

	return &Server{
		cfg:       cfg,
		ginEngine: gin.Default(),
		tracker:   t,
		sched:     sched,
		ctx:       ctx,
	}, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("pulseboard_session", store))
}

func (s *Server) setupRoutes() {
	s.setupSession()
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))

	s.ginEngine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := s.ginEngine.Group("/api/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/logout", s.logout)

	api := s.ginEngine.Group("/api")
	api.Use(requireAuth())

	api.GET("/auth/me", s.me)

	api.GET("/activities", s.listActivities)
	api.POST("/activities", s.createActivity)
	api.PUT("/activities/:id", s.updateActivity)
	api.DELETE("/activities/:id", s.deleteActivity)
	api.GET("/activities/types", s.activityTypes)

	api.GET("/weight", s.listWeightEntries)
	api.POST("/weight", s.createWeightEntry)
	api.PUT("/weight/:id", s.updateWeightEntry)
	api.DELETE("/weight/:id", s.deleteWeightEntry)
	api.GET("/weight/progress", s.weightProgress)

	api.GET("/summary", s.summary)

	api.GET("/friends", s.listFriends)
	api.POST("/friends", s.addFriend)
	api.GET("/friends/activities", s.friendActivities)

	api.GET("/profile", s.profile)
	api.PUT("/profile", s.updateProfile)

	api.GET("/stats/cache", s.cacheStats)
	api.GET("/stats/jobs", s.jobStats)
}

// Run sets up the routes and serves until the listener fails or the server
// context is cancelled.
func (s *Server) Run() error {
	s.setupRoutes()

	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}

	srv := &http.Server{
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down API server", "error", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
