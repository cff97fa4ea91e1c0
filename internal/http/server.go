package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catatan/internal/core"
	"catatan/internal/log"

	"github.com/gorilla/mux"
)

type (
	// ExpenseAPI is what the expense routes need. *services.ExpenseService implements it.
	ExpenseAPI interface {
		Add(ctx context.Context, e *core.Expense) bool
		Delete(ctx context.Context, id int64) bool
		List(ctx context.Context) []core.Expense
		Table(ctx context.Context, on core.Date) core.Table
		Summary(ctx context.Context, on core.Date) core.ExpenseSummary
	}

	// StudyAPI is what the study routes need. *services.StudyService implements it.
	StudyAPI interface {
		Add(ctx context.Context, s *core.StudySession) bool
		Delete(ctx context.Context, id int64) bool
		List(ctx context.Context) []core.StudySession
		Table(ctx context.Context, on core.Date) core.Table
		Summary(ctx context.Context, on core.Date) core.StudySummary
	}
)

// Server serves the JSON API.
type Server struct {
	http.Server
	expenses ExpenseAPI
	study    StudyAPI
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, logger *log.Logger, expenses ExpenseAPI, study StudyAPI) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		expenses: expenses,
		study:    study,
	}

	r := mux.NewRouter()
	r.Use(log.Middleware(logger.WithComponent(log.ComponentHTTP)), log.RequestIDMiddleware, log.AccessMiddleware, securityHeaders)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "tidak ditemukan")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "metode tidak diizinkan")
	})

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	exp := api.PathPrefix("/pengeluaran").Subrouter()
	exp.HandleFunc("", s.handleListExpenses).Methods(http.MethodGet)
	exp.HandleFunc("", s.handleCreateExpense).Methods(http.MethodPost)
	exp.HandleFunc("/table", s.handleExpenseTable).Methods(http.MethodGet)
	exp.HandleFunc("/summary", s.handleExpenseSummary).Methods(http.MethodGet)
	exp.HandleFunc("/{id:-?[0-9]+}", s.handleDeleteExpense).Methods(http.MethodDelete)

	st := api.PathPrefix("/belajar").Subrouter()
	st.HandleFunc("", s.handleListStudy).Methods(http.MethodGet)
	st.HandleFunc("", s.handleCreateStudy).Methods(http.MethodPost)
	st.HandleFunc("/table", s.handleStudyTable).Methods(http.MethodGet)
	st.HandleFunc("/summary", s.handleStudySummary).Methods(http.MethodGet)
	st.HandleFunc("/{id:-?[0-9]+}", s.handleDeleteStudy).Methods(http.MethodDelete)

	s.Handler = r
	return s
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
