package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/reactive/pkg/metrics"
	"github.com/vango-dev/reactive/pkg/snapshot"
)

// DefaultAddr is the listen address used unless WithAddr is given.
const DefaultAddr = "localhost:7070"

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// Gatherer is served on /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Options)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Options) {
		o.Addr = addr
	}
}

// WithAllowedOrigins restricts WebSocket origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *Options) {
		o.AllowedOrigins = origins
	}
}

// WithGatherer sets the metrics gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *Options) {
		o.Gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Server serves a Publisher's snapshots.
type Server struct {
	opts   Options
	pub    *Publisher
	hub    *Hub
	router chi.Router
}

// NewServer creates a server for pub.
func NewServer(pub *Publisher, opts ...Option) *Server {
	o := Options{
		Addr:     DefaultAddr,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		opts: o,
		pub:  pub,
		hub:  NewHub(o.AllowedOrigins...),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/api/graph", s.handleGraph)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/nodes/{id}", s.handleNode)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(s.opts.Gatherer))
	r.Get("/ws", s.hub.HandleWebSocket)
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, forwarding published snapshots
// to WebSocket clients. It shuts the HTTP server down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.opts.Logger.Info("devtools: listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case graph := <-s.pub.Updates():
				s.hub.PublishGraph(graph)
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.opts.Logger.Info("devtools: stopped")
	return err
}

func (s *Server) latest(w http.ResponseWriter) *snapshot.Graph {
	g := s.pub.Latest()
	if g == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot published yet"})
	}
	return g
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g := s.latest(w)
	if g == nil {
		return
	}
	compress := r.URL.Query().Get("format") == "zstd"
	if compress {
		w.Header().Set("Content-Type", "application/zstd")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := snapshot.Encode(w, g, compress); err != nil {
		s.opts.Logger.Warn("devtools: encode graph", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if g := s.latest(w); g != nil {
		writeJSON(w, http.StatusOK, g.Stats)
	}
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	g := s.latest(w)
	if g == nil {
		return
	}
	id := chi.URLParam(r, "id")
	n, ok := g.Node(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown node " + id})
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
