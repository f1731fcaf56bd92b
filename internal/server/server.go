// Package server exposes one segment tree engine over HTTP. All engine access
// goes through a single mutex.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/danihelis/algorithms/internal/observability"
	"github.com/danihelis/algorithms/pkg/alg/segtree"
	"github.com/danihelis/algorithms/pkg/config"
	"github.com/danihelis/algorithms/pkg/engine"
)

// Operation names used in metrics and logs.
const (
	opAssign  = "assign"
	opQuery   = "query"
	opRebuild = "rebuild"
)

const defaultMaxBody = 1 << 20

// Request validation errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrTooLong    = errors.New("sequence too long")
)

// Options configure a Server.
type Options struct {
	Logger         *slog.Logger
	Tracer         trace.Tracer
	Metrics        *observability.OpMetrics
	MetricsHandler http.Handler
	MaxBody        int64
	MaxLength      int
}

// Server serves assign/query/rebuild requests against one engine.
type Server struct {
	eng     engine.Engine
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.OpMetrics
	promh   http.Handler
	opts    Options
	mu      sync.Mutex
}

// New creates a Server over eng.
func New(eng engine.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("segtree")
	}

	if opts.MaxBody <= 0 {
		opts.MaxBody = defaultMaxBody
	}

	s := &Server{
		eng:     eng,
		logger:  opts.Logger,
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		promh:   opts.MetricsHandler,
		opts:    opts,
	}

	if s.metrics != nil {
		s.metrics.AdjustLength(context.Background(), eng.Len())
	}

	return s
}

// TreeState is the body of GET /v1/tree.
type TreeState struct {
	Algebra string  `json:"algebra"`
	Symbols []int64 `json:"symbols"`
	Length  int     `json:"length"`
}

// RebuildRequest is the body of PUT /v1/tree.
type RebuildRequest struct {
	Algebra  string  `json:"algebra"`
	Sequence []int64 `json:"sequence"`
	Target   int64   `json:"target"`
}

// AssignRequest is the body of POST /v1/assign.
type AssignRequest struct {
	Symbol *int64 `json:"symbol"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// QueryResponse is the body returned by GET /v1/query.
type QueryResponse struct {
	Value any `json:"value"`
	From  int `json:"from"`
	To    int `json:"to"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the routed, traced HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.HandleFunc("GET /v1/tree", s.handleTree)
	mux.HandleFunc("PUT /v1/tree", s.handleRebuild)
	mux.HandleFunc("POST /v1/assign", s.handleAssign)
	mux.HandleFunc("GET /v1/query", s.handleQuery)

	if s.promh != nil {
		mux.Handle("GET /metrics", s.promh)
	}

	return observability.HTTPMiddleware(s.tracer, s.logger, mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	s.logger.InfoContext(ctx, "listening", slog.String("addr", srv.Addr), slog.String("algebra", s.algebra()))

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "server stopped")

	return nil
}

func (s *Server) handleTree(rw http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	state := TreeState{
		Algebra: s.eng.Algebra(),
		Symbols: s.eng.Symbols(),
		Length:  s.eng.Len(),
	}
	s.mu.Unlock()

	writeJSON(rw, http.StatusOK, state)
}

func (s *Server) handleRebuild(rw http.ResponseWriter, hr *http.Request) {
	start := time.Now()

	eng, err := s.rebuild(rw, hr)
	if err != nil {
		s.reject(observability.ContextWithOp(hr.Context(), opRebuild, s.algebra()), rw, err, start)

		return
	}

	s.mu.Lock()
	previous := s.eng.Len()
	s.eng = eng
	s.mu.Unlock()

	ctx := observability.ContextWithOp(hr.Context(), opRebuild, eng.Algebra())
	s.record(ctx, nil, start)

	if s.metrics != nil {
		s.metrics.AdjustLength(ctx, eng.Len()-previous)
	}

	s.logger.InfoContext(ctx, "tree rebuilt", slog.Int("length", eng.Len()))

	writeJSON(rw, http.StatusOK, TreeState{Algebra: eng.Algebra(), Symbols: eng.Symbols(), Length: eng.Len()})
}

// rebuild decodes a rebuild request and builds the new engine without
// touching the served one.
func (s *Server) rebuild(rw http.ResponseWriter, hr *http.Request) (engine.Engine, error) {
	var req RebuildRequest

	err := s.decode(rw, hr, &req)
	if err != nil {
		return nil, err
	}

	if len(req.Sequence) > s.opts.MaxLength && s.opts.MaxLength > 0 {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLong, len(req.Sequence), s.opts.MaxLength)
	}

	return engine.New(req.Algebra, req.Target, req.Sequence)
}

func (s *Server) handleAssign(rw http.ResponseWriter, hr *http.Request) {
	start := time.Now()
	ctx := observability.ContextWithOp(hr.Context(), opAssign, s.algebra())

	var req AssignRequest

	err := s.decode(rw, hr, &req)
	if err == nil && req.Symbol == nil {
		err = fmt.Errorf("%w: symbol is required", ErrBadRequest)
	}

	if err == nil {
		s.mu.Lock()
		err = s.eng.Assign(req.From, req.To, *req.Symbol)
		s.mu.Unlock()
	}

	if err != nil {
		s.reject(ctx, rw, err, start)

		return
	}

	s.record(ctx, nil, start)

	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuery(rw http.ResponseWriter, hr *http.Request) {
	start := time.Now()
	ctx := observability.ContextWithOp(hr.Context(), opQuery, s.algebra())

	from, fromErr := intParam(hr, "from")
	to, toErr := intParam(hr, "to")

	var value any

	err := errors.Join(fromErr, toErr)
	if err == nil {
		s.mu.Lock()
		value, err = s.eng.Query(from, to)
		s.mu.Unlock()
	}

	if err != nil {
		s.reject(ctx, rw, err, start)

		return
	}

	s.record(ctx, nil, start)

	writeJSON(rw, http.StatusOK, QueryResponse{Value: value, From: from, To: to})
}

// algebra returns the name of the served algebra. Metric and log labels use
// the algebra served when the request arrived.
func (s *Server) algebra() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.eng.Algebra()
}

func (s *Server) decode(rw http.ResponseWriter, hr *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, s.opts.MaxBody))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	return nil
}

// record counts one operation outcome under the labels stored in ctx. Every
// request to an operation route is recorded once, rejections included.
func (s *Server) record(ctx context.Context, err error, start time.Time) {
	if s.metrics == nil {
		return
	}

	op, algebra, _ := observability.OpFromContext(ctx)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}

	s.metrics.RecordOp(ctx, op, algebra, status, time.Since(start))
}

// reject records a failed operation and answers with its mapped status.
func (s *Server) reject(ctx context.Context, rw http.ResponseWriter, err error, start time.Time) {
	s.record(ctx, err, start)

	code := statusFor(err)

	s.logger.WarnContext(ctx, "operation rejected",
		slog.Int("status", code),
		slog.String("error", err.Error()),
	)

	writeJSON(rw, code, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, ErrTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, segtree.ErrEmptyTree):
		return http.StatusConflict
	case errors.Is(err, segtree.ErrInvalidRange),
		errors.Is(err, engine.ErrUnknownAlgebra),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func intParam(hr *http.Request, name string) (int, error) {
	raw := hr.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadRequest, name, err)
	}

	return v, nil
}

func writeJSON(rw http.ResponseWriter, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(body)
}
