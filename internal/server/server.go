// Package server is the live-editing HTTP server behind `dotlive serve`.
//
// Every WebSocket connection on /ws gets its own editor session; the JSON
// endpoints under /api render, export and share without one. All sessions
// share a single layout runtime and render cache.
package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/dotlive/pkg/buildinfo"
	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/httputil"
	"github.com/matzehuels/dotlive/pkg/render"
)

// Options configures a Server. Renderer is required.
type Options struct {
	Renderer engine.ConfigRenderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Exporter *export.Exporter
	// Origin is the page URL share links point at. Empty means the
	// request's own host.
	Origin     string
	Debounce   time.Duration
	Background string
	Logger     *log.Logger
}

// SetDefaults fills unset optional fields.
func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Exporter == nil {
		o.Exporter = export.New(export.Options{Cache: o.Cache, Keyer: o.Keyer, Logger: o.Logger})
	}
	if o.Debounce <= 0 {
		o.Debounce = render.DefaultDelay
	}
	if o.Background == "" {
		o.Background = export.DefaultBackground
	}
}

// Validate checks required fields.
func (o *Options) Validate() error {
	if o.Renderer == nil {
		return errors.New(errors.ErrCodeInvalidInput, "server needs a renderer")
	}
	if _, err := export.ParseColor(o.Background); err != nil {
		return err
	}
	return nil
}

// Server serves the editor API and live sessions.
type Server struct {
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
	sessions atomic.Int64
	router   chi.Router
}

// New builds a server and its routes.
func New(opts Options) (*Server, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		opts:   opts,
		logger: opts.Logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/export", s.handleExport)
		r.Post("/share", s.handleShareEncode)
		r.Get("/share", s.handleShareDecode)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the number of open live sessions.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status   string         `json:"status"`
	Build    buildinfo.Info `json:"build"`
	Sessions int64          `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Build:    buildinfo.Get(),
		Sessions: s.Sessions(),
	})
}

// newEngine returns a per-session engine over the shared renderer.
func (s *Server) newEngine() engine.Engine {
	return engine.NewCached(engine.NewScoped(s.opts.Renderer), s.opts.Cache, s.opts.Keyer, s.logger)
}

// origin returns the share-link origin for r.
func (s *Server) origin(r *http.Request) string {
	if s.opts.Origin != "" {
		return s.opts.Origin
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}
