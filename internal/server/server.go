// Package server exposes a running flock over HTTP: a JSON control API, a
// websocket feed of snapshots and the Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	golog "github.com/tochemey/goakt/v3/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/internal/metrics"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/internal/tracing"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/quadtree"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
)

// ErrNoSnapshot is returned while the world has not published anything yet.
var ErrNoSnapshot = errors.New("no snapshot yet")

// Controller is the part of simulation.Engine the server drives.
type Controller interface {
	Snapshots() <-chan *simulation.Snapshot
	Tick(ctx context.Context, dt time.Duration) error
	SetPaused(ctx context.Context, paused bool) error
	Resize(ctx context.Context, n int) error
	SetAlgorithm(ctx context.Context, name string) error
}

// Options tune the loops of the server.
type Options struct {
	// TickRate is the number of steps per second, 0 disables the ticker.
	TickRate int
	// BroadcastRate caps the snapshots per second pushed to viewers.
	BroadcastRate float64
}

type Server struct {
	engine  Controller
	opts    Options
	logger  golog.Logger
	hub     *Hub
	limiter *rate.Limiter

	mu     sync.RWMutex
	latest *simulation.Snapshot
}

func New(engine Controller, opts Options, logger golog.Logger) *Server {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	if opts.BroadcastRate <= 0 {
		opts.BroadcastRate = 20
	}
	return &Server{
		engine:  engine,
		opts:    opts,
		logger:  logger,
		hub:     NewHub(logger),
		limiter: rate.NewLimiter(rate.Limit(opts.BroadcastRate), 1),
	}
}

// Run drives the world and fans its snapshots out until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})
	g.Go(func() error { return s.consume(ctx) })
	if s.opts.TickRate > 0 {
		g.Go(func() error { return s.tick(ctx) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) tick(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.opts.TickRate))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.engine.Tick(ctx, now.Sub(last)); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			last = now
		}
	}
}

func (s *Server) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-s.engine.Snapshots():
			s.mu.Lock()
			s.latest = snap
			s.mu.Unlock()
			metrics.Observe(snap)

			if s.hub.Clients() == 0 || !s.limiter.Allow() {
				continue
			}
			data, err := encodeSnapshot(snap)
			if err != nil {
				s.logger.Errorf("failed to encode snapshot %d: %v", snap.Frame, err)
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

// Latest returns the last snapshot received from the world.
func (s *Server) Latest() (*simulation.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoSnapshot
	}
	return s.latest, nil
}

func encodeSnapshot(snap *simulation.Snapshot) ([]byte, error) {
	return json.Marshal(Message{Type: "snapshot", Payload: snap})
}

// Handler returns the router of the server.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws", s.websocket).Methods("GET")

	// Registered on the root router: a method mismatch inside a middleware
	// subrouter comes back as 404 instead of 405.
	api := func(method, path string, h http.HandlerFunc) {
		r.Handle("/api"+path, instrument(compress(h))).Methods(method)
	}
	api("GET", "/snapshot", s.snapshot)
	api("GET", "/tree", s.tree)
	api("POST", "/pause", s.pause(true))
	api("POST", "/resume", s.pause(false))
	api("POST", "/flock", s.resize)
	api("POST", "/algorithm", s.algorithm)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "viewers": s.hub.Clients()})
}

// GET /api/snapshot
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Latest()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// TreeResponse is the quadtree part of a snapshot.
type TreeResponse struct {
	Frame  uint64              `json:"frame"`
	Depth  int                 `json:"depth"`
	Leaves int                 `json:"leaves"`
	Nodes  []quadtree.NodeInfo `json:"nodes"`
}

// GET /api/tree
func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Latest()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if snap.Algorithm != simulation.AlgorithmQuadtree {
		writeError(w, http.StatusConflict, fmt.Errorf("the world runs the %s search, no tree to show", snap.Algorithm))
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{
		Frame:  snap.Frame,
		Depth:  snap.TreeDepth,
		Leaves: snap.Leaves(),
		Nodes:  snap.Nodes,
	})
}

// POST /api/pause, POST /api/resume
func (s *Server) pause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.SetPaused(r.Context(), paused); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]bool{"paused": paused})
	}
}

type resizeRequest struct {
	Size int `json:"size"`
}

// POST /api/flock {"size": 2048}
func (s *Server) resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := s.engine.Resize(r.Context(), req.Size); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

type algorithmRequest struct {
	Name string `json:"name"`
}

// POST /api/algorithm {"name": "grid"}
func (s *Server) algorithm(w http.ResponseWriter, r *http.Request) {
	var req algorithmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := s.engine.SetAlgorithm(r.Context(), req.Name); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

// GET /ws
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	var first []byte
	if snap, err := s.Latest(); err == nil {
		if first, err = encodeSnapshot(snap); err != nil {
			s.logger.Errorf("failed to encode snapshot %d: %v", snap.Frame, err)
		}
	}
	s.hub.serve(conn, first)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, simulation.ErrInvalidFlockSize), errors.Is(err, simulation.ErrUnknownAlgorithm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument traces every api call and counts it by route template and status.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+route)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", rec.status),
		)
		metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
