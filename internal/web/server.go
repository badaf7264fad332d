// Package web serves the Friendify JSON API and the server-rendered
// client screens.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/mumraindrop/friendify/internal/friends"
	"github.com/mumraindrop/friendify/internal/toptracks"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr string
	// FrontendURL is the base the login callback redirects to.
	FrontendURL string
	// CORSOrigins are the origins allowed to call the API from a browser.
	CORSOrigins   []string
	SecureCookies bool
	TemplatesFS   fs.FS
	StaticFS      fs.FS

	Auth      Authorizer
	Logins    LoginCompleter
	Friends   *friends.Service
	TopTracks *toptracks.Service
	Logger    *zap.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		handlers: NewHandlers(cfg, templates),
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      cors(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler, including CORS.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	h := s.handlers

	// Static files
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Pages
	s.router.Get("/", h.LoginPage)
	s.router.Get("/callback", h.CallbackPage)
	s.router.Get("/home", h.HomePage)
	s.router.Get("/top-tracks", h.TopTracksPage)
	s.router.Get("/friends", h.FriendsPage)
	s.router.Get("/help", h.HelpPage)

	s.router.Route(apiBase, func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/spotify", func(r chi.Router) {
			r.Get("/login", h.Login)
			r.Get("/callback", h.Callback)
			r.Get("/me/top-tracks", h.TopTracks)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", h.ListFriends)
			r.Post("/request", h.SendFriendRequest)
			r.Get("/requests", h.IncomingRequests)
			r.Post("/accept", h.AcceptFriendRequest)
			r.Post("/reject", h.RejectFriendRequest)
			r.Get("/search", h.SearchUsers)
			r.Get("/user", h.GetUser)
			r.Delete("/remove", h.RemoveFriend)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("url", "http://"+s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
