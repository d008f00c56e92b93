package server

import (
	"bunker-backend/internal/components/assert"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/service"
	"bunker-backend/internal/sessionstore"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("bunker.server")

const (
	report_server_request = "server.request"
	report_server_login   = "server.login"
	report_server_store   = "server.store"
)

const DefaultCookieName = "bunker_session"

// LoginAPI is the part of service.Service the server needs.
//
// note: fault injection point
type LoginAPI interface {
	Login(ctx context.Context, username, password string) (service.LoginResult, error)
}

type Options struct {
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// SecureCookie marks the session cookie https only.
	SecureCookie bool
	// Lifetime is the cookie max age, it defaults to sessionstore.DefaultLifetime.
	Lifetime time.Duration
	// Tel defaults to telemetry.SlogAPI.
	Tel telemetry.API
}

// Server exposes the login use case and the session store as a JSON api.
type Server struct {
	login LoginAPI
	store sessionstore.Store
	opts  Options
	tel   telemetry.API
}

func NewServer(login LoginAPI, store sessionstore.Store, opts Options) Server {
	assert.NotNil(login)

	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = sessionstore.DefaultLifetime
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}

	return Server{
		login: login,
		store: store,
		opts:  opts,
		tel:   telemetry.NewScopedAPI("server", opts.Tel),
	}
}

// Handler returns the routes of the api.
func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/manual-attendance", s.handleManualAttendance)
	mux.HandleFunc("POST /api/clear-manual", s.handleClearManual)
	mux.HandleFunc("GET /api/get-session-data", s.handleGetSessionData)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return s.instrument(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
		}
		s.tel.ReportDebug(
			report_server_request,
			r.Method,
			r.URL.Path,
			recorder.status,
			time.Since(start).String(),
		)
	})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, errorResponse{Error: message})
}

func (s Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s Server) sessionId(r *http.Request) string {
	cookie, err := r.Cookie(s.opts.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// currentSession loads the request's session, ok is false if there is none or the
// store failed, in which case the response has already been written.
func (s Server) currentSession(w http.ResponseWriter, r *http.Request) (data sessionstore.Data, ok bool) {
	id := s.sessionId(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "No session data")
		return sessionstore.Data{}, false
	}
	data, err := s.store.Get(r.Context(), id)
	if errors.Is(err, sessionstore.ErrNotFound) {
		s.clearSessionCookie(w)
		writeError(w, http.StatusUnauthorized, "No session data")
		return sessionstore.Data{}, false
	}
	if err != nil {
		s.tel.ReportBroken(report_server_store, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return sessionstore.Data{}, false
	}
	return data, true
}
