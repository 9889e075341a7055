package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"checkout-service/internal/metrics"
	"checkout-service/internal/payment"
	"checkout-service/internal/session"
	vm "github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

const sessionCookie = "checkout_session"

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type Server struct {
	initiator *payment.Initiator
	store     *session.Store
	logger    *slog.Logger
}

func NewServer(initiator *payment.Initiator, store *session.Store, logger *slog.Logger) *Server {
	return &Server{initiator: initiator, store: store, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/checkout", s.handleCreate)
	mux.HandleFunc("GET /api/checkout/status", s.handleStatus)
	mux.HandleFunc("POST /api/checkout/cancel", s.handleCancel)

	return s.accessLog(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, sess.Snapshot()); err != nil {
		s.logger.ErrorContext(r.Context(), "Error rendering checkout page", "error", err)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	ctx := r.Context()

	var form payment.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.logger.WarnContext(ctx, "Error decoding checkout form", "sessionId", sess.ID(), "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := s.initiator.Submit(ctx, sess, form)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, sess.Snapshot())
	case errors.Is(err, payment.ErrBusy):
		writeJSON(w, http.StatusConflict, sess.Snapshot())
	case payment.IsInvalidInput(err):
		writeJSON(w, http.StatusBadRequest, sess.Snapshot())
	case errors.Is(err, payment.ErrRejected):
		writeJSON(w, http.StatusUnprocessableEntity, sess.Snapshot())
	default:
		writeJSON(w, http.StatusBadGateway, sess.Snapshot())
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, session.View{State: session.StateIdle})
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, session.View{State: session.StateIdle})
		return
	}
	sess.Cancel()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// lookup resolves the caller's session from its cookie without creating one.
func (s *Server) lookup(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.store.Get(cookie.Value)
}

// session resolves the caller's session from its cookie, issuing a new one
// when the cookie is missing or unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		id = cookie.Value
	}

	sess, created := s.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(startTime)
		vm.GetOrCreateHistogram(`http_request_duration_milliseconds`).Update(float64(duration.Milliseconds()))
		s.logger.DebugContext(r.Context(), "HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", duration)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
