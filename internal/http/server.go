package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"wastelog/internal/amqp"
	"wastelog/internal/core"
	"wastelog/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is everything the API surface needs from the repository.
type Store interface {
	ListItems(ctx context.Context, activeOnly bool) ([]core.Item, error)
	CreateItem(ctx context.Context, vendorID int64, name string) (core.Item, error)
	UpdateItem(ctx context.Context, id int64, p core.ItemPatch) error
	ListVendors(ctx context.Context) ([]core.Vendor, error)
	CreateVendor(ctx context.Context, name string) (core.Vendor, error)
	CreateLog(ctx context.Context, itemID, quantity int64, reason string, notes *string) (int64, error)
	DeleteLog(ctx context.Context, id int64) error
	UpdateLog(ctx context.Context, id int64, p core.LogPatch) error
	TodaysLogs(ctx context.Context) ([]core.WasteLog, error)
	DailyTotals(ctx context.Context, date core.Date) ([]core.DailyTotal, error)
	WeeklyReport(ctx context.Context, weekStart core.Date) ([]core.WeeklyRow, error)
	SummaryReport(ctx context.Context, start, end core.Date) (core.Summary, error)
	ExportRange(ctx context.Context, start, end core.Date) ([]core.ExportRow, error)
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	store        Store
	events       *amqp.Client
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. events may be nil, in which case no AMQP messages are published.
func NewServer(addr string, store Store, events *amqp.Client) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:  store,
		events: events,
	}

	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleCreateItem)
	mux.HandleFunc("PATCH /api/items/{id}", s.handleUpdateItem)

	mux.HandleFunc("GET /api/vendors", s.handleListVendors)
	mux.HandleFunc("POST /api/vendors", s.handleCreateVendor)

	mux.HandleFunc("POST /api/logs", s.handleCreateLog)
	mux.HandleFunc("DELETE /api/logs/{id}", s.handleDeleteLog)
	mux.HandleFunc("PATCH /api/logs/{id}", s.handleUpdateLog)
	mux.HandleFunc("GET /api/logs/today", s.handleTodaysLogs)
	mux.HandleFunc("GET /api/logs/daily-totals", s.handleDailyTotals)

	mux.HandleFunc("GET /api/reports/weekly", s.handleWeeklyReport)
	mux.HandleFunc("GET /api/reports/summary", s.handleSummaryReport)
	mux.HandleFunc("GET /api/reports/csv", s.handleExportCSV)

	// Preflight for the browser frontend.
	mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.withRequestContext(mux),
	}

	return s
}

// withRequestContext adds CORS headers, a request id, request logging and
// metrics to every route.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		metrics.ObserveRequest(r.Method, route, fmt.Sprintf("%d", rw.statusCode), duration)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully stops the server and the event publisher.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		if err := s.events.Close(); err != nil {
			slog.Warn("Event publisher close error", "error", err)
		}
	})
	return shutdownErr
}

// publishEvent sends a waste event without ever failing the request.
func (s *Server) publishEvent(ctx context.Context, logID, itemID int64, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishWasteEvent(ctx, amqp.NewWasteEvent(logID, itemID, action)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish waste event",
			"error", err,
			"log_id", logID,
			"action", action)
	}
}
