package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"esferas/internal/config"
	"esferas/internal/domain"
	"esferas/internal/export"
	"esferas/internal/models"
	"esferas/internal/service"

	"github.com/rs/zerolog"
)

const (
	msgInvalidBody    = "Solicitud inválida."
	msgLoginFailed    = "No se pudo iniciar sesión."
	msgBookingFailed  = "No se pudo registrar la reserva."
	msgTooManyRequest = "Demasiadas solicitudes, intentá más tarde."
	msgNotFound       = "Not found"
)

// HTTPServer serves the booking API and the browser client.
type HTTPServer struct {
	cfg      config.ServerConfig
	sessions *service.SessionService
	bookings *service.BookingService
	assets   fs.FS
	auth     *HTTPAuth
	limiter  *rateLimiter
	checks   map[string]domain.Pinger
	server   *http.Server
	logger   *zerolog.Logger
}

func NewHTTPServer(
	cfg *config.Config,
	sessions *service.SessionService,
	bookings *service.BookingService,
	assets fs.FS,
	logger *zerolog.Logger,
) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:      cfg.Server,
		sessions: sessions,
		bookings: bookings,
		assets:   assets,
		auth:     NewHTTPAuth(cfg.Admin),
		limiter:  newRateLimiter(cfg.Server.RateLimit),
		checks:   make(map[string]domain.Pinger),
		logger:   logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return srv
}

// AddReadinessCheck makes /readyz depend on p.
func (s *HTTPServer) AddReadinessCheck(name string, p domain.Pinger) {
	s.checks[name] = p
}

// Handler returns the full middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	return s.accessLog(s.recoverer(http.HandlerFunc(s.dispatch)))
}

// Listen binds the configured address. Serve must be called with the
// returned listener.
func (s *HTTPServer) Listen() (net.Listener, error) {
	if s.server == nil {
		return nil, fmt.Errorf("http server is not initialized")
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	return ln, nil
}

func (s *HTTPServer) Serve(ln net.Listener) error {
	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// route resolves a request to its metrics label and handler. Anything not
// matched here is a 404.
func (s *HTTPServer) route(r *http.Request) (string, http.HandlerFunc) {
	path := r.URL.Path
	get := r.Method == http.MethodGet
	post := r.Method == http.MethodPost

	switch {
	case get && path == "/api/session":
		return "session", s.handleSession
	case post && path == "/api/login":
		return "login", s.handleLogin
	case post && path == "/api/logout":
		return "logout", s.handleLogout
	case post && path == "/api/bookings":
		return "bookings", s.handleBookings
	case get && path == "/api/admin/bookings":
		return "admin_bookings", s.auth.Wrap(s.handleAdminBookings)
	case get && path == "/api/admin/bookings/export":
		return "admin_export", s.auth.Wrap(s.handleAdminExport)
	case get && path == "/healthz":
		return "healthz", s.handleHealthz
	case get && path == "/readyz":
		return "readyz", s.handleReadyz
	case get || r.Method == http.MethodHead:
		return "static", s.handleStatic
	}
	return "not_found", handleNotFound
}

func (s *HTTPServer) dispatch(w http.ResponseWriter, r *http.Request) {
	_, handler := s.route(r)
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/") && !s.limiter.Allow(r) {
		writeError(w, http.StatusTooManyRequests, msgTooManyRequest)
		return
	}
	handler(w, r)
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	session := s.currentSession(r)
	var user *models.User
	if session != nil {
		user = &session.User
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body models.User
	if err := s.readJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	session, err := s.sessions.Create(r.Context(), body)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		s.logger.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	cookie := &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl := s.sessions.TTL(); ttl > 0 {
		cookie.MaxAge = cookieMaxAge(ttl)
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]any{"user": session.User})
}

// cookieMaxAge rounds ttl up to whole seconds so the cookie never outlives
// the session and a sub-second ttl still gets a Max-Age.
func cookieMaxAge(ttl time.Duration) int {
	return int((ttl + time.Second - 1) / time.Second)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(models.SessionCookieName); err == nil {
		if err := s.sessions.Destroy(r.Context(), c.Value); err != nil {
			s.logger.Error().Err(err).Msg("logout failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if err := s.readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := s.bookings.Submit(r.Context(), req, s.currentSession(r))
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		s.logger.Error().Err(err).Msg("booking failed")
		writeError(w, http.StatusInternalServerError, msgBookingFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"customer":    res.Customer,
		"bookingDate": res.Booking.Date,
	})
}

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookings.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings failed")
		writeError(w, http.StatusInternalServerError, "could not list bookings")
		return
	}
	if list == nil {
		list = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list, "count": len(list)})
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookings.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings failed")
		writeError(w, http.StatusInternalServerError, "could not list bookings")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookingsXLSX(&buf, list); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "could not export bookings")
		return
	}

	fileName := fmt.Sprintf("reservas_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentSession resolves the session cookie. Store failures are logged and
// treated as an anonymous visitor.
func (s *HTTPServer) currentSession(r *http.Request) *models.Session {
	c, err := r.Cookie(models.SessionCookieName)
	if err != nil {
		return nil
	}
	session, err := s.sessions.Get(r.Context(), c.Value)
	if err != nil {
		s.logger.Error().Err(err).Msg("session lookup failed")
		return nil
	}
	return session
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
// A body over the configured cap aborts the request and drops the connection.
func (s *HTTPServer) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Warn().Int64("limit", tooLarge.Limit).Str("path", r.URL.Path).Msg("request body too large")
			panic(http.ErrAbortHandler)
		}
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, msgNotFound)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
