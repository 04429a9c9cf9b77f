package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YOU34cz/ticket-bot/internal/logbuf"
	"github.com/YOU34cz/ticket-bot/internal/ticket"
)

// LogQuerier abstracts log entry querying to avoid coupling to logbuf directly.
type LogQuerier interface {
	Query(since time.Time, minLevel slog.Level, limit int) []logbuf.Entry
}

// TicketService is the read-only view of the ticket store the API needs.
// *ticket.SQLiteStore satisfies it.
type TicketService interface {
	List(filter ticket.Filter) ([]*ticket.Ticket, error)
	Get(id int64) (*ticket.Ticket, error)
	CountOpen() (int, error)
}

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // API key for Bearer auth
}

// Server is the ticketd admin API server.
type Server struct {
	svc    TicketService
	cfg    Config
	logger *slog.Logger
	logs   LogQuerier
	srv    *http.Server
}

// NewServer creates a new API server. logs may be nil.
func NewServer(svc TicketService, cfg Config, logger *slog.Logger, logs LogQuerier) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		logs:   logs,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tickets", s.requireAuth(s.handleListTickets))
	mux.HandleFunc("GET /api/tickets/{id}", s.requireAuth(s.handleGetTicket))
	mux.HandleFunc("GET /api/stats", s.requireAuth(s.handleStats))
	mux.HandleFunc("GET /api/logs", s.requireAuth(s.handleGetLogs))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	filter := ticket.Filter{}
	if status := r.URL.Query().Get("status"); status != "" {
		ts := ticket.Status(status)
		if ts != ticket.StatusOpen && ts != ticket.StatusClosed {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		filter.Status = &ts
	}
	if guild := r.URL.Query().Get("guild"); guild != "" {
		filter.GuildID = guild
	}
	if user := r.URL.Query().Get("user"); user != "" {
		filter.UserID = user
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = n
		}
	}

	tickets, err := s.svc.List(filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if tickets == nil {
		tickets = []*ticket.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ticket id"})
		return
	}
	t, err := s.svc.Get(id)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	open, err := s.svc.CountOpen()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"open_tickets": open})
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeJSON(w, http.StatusOK, []logbuf.Entry{})
		return
	}

	limit := 200
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	minLevel := slog.LevelDebug
	if lvl := r.URL.Query().Get("level"); lvl != "" {
		switch strings.ToLower(lvl) {
		case "info":
			minLevel = slog.LevelInfo
		case "warn":
			minLevel = slog.LevelWarn
		case "error":
			minLevel = slog.LevelError
		}
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			since = time.UnixMilli(ms)
		}
	}

	entries := s.logs.Query(since, minLevel, limit)
	if entries == nil {
		entries = []logbuf.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
