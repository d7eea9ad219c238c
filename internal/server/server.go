// Package server exposes the public submission API and the admin panel API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"barbari/internal/app"
	"barbari/internal/ratelimit"
	"barbari/internal/util"
	"barbari/internal/validate"
	"barbari/pkg/domain"
	"barbari/pkg/sms"
	"barbari/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                     *app.App
	RedisAddr               string
	RedisPassword           string
	LoginRateLimitPerWindow int
	LoginRateWindow         time.Duration
	TrustedProxies          *util.TrustedProxies
	MaxUploadBytes          int64
	AllowedImageExtensions  []string
}

// Server exposes HTTP endpoints for the back office.
type Server struct {
	app               *app.App
	mux               *http.ServeMux
	loginLimiter      *ratelimit.FixedWindowLimiter
	trustedProxies    *util.TrustedProxies
	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	loginLimit := cfg.LoginRateLimitPerWindow
	if loginLimit <= 0 {
		loginLimit = 5
	}
	window := cfg.LoginRateWindow
	if window <= 0 {
		window = time.Minute
	}
	loginLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "barbari:ratelimit:login", loginLimit, window)
	if err != nil {
		return nil, fmt.Errorf("init login limiter: %w", err)
	}
	s := &Server{
		app:               cfg.App,
		mux:               http.NewServeMux(),
		loginLimiter:      loginLimiter,
		trustedProxies:    cfg.TrustedProxies,
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedImageExtensions),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public
	s.mux.HandleFunc("/api/bookings", s.handleSubmitBooking)
	s.mux.HandleFunc("/api/contact", s.handleSubmitContact)
	s.mux.HandleFunc("/api/notify", s.handleNotify)
	s.mux.HandleFunc("/api/services", s.handlePublicServices)
	s.mux.HandleFunc("/api/gallery", s.handlePublicGallery)

	// admin auth
	s.mux.HandleFunc("/api/admin/setup", s.handleAdminSetup)
	s.mux.HandleFunc("/api/admin/login", s.handleAdminLogin)
	s.mux.Handle("/api/admin/logout", s.authenticated(s.handleAdminLogout))
	s.mux.Handle("/api/admin/me", s.authenticated(s.handleAdminMe))

	// admin CRUD
	s.mux.Handle("/api/admin/bookings", s.authenticated(s.handleAdminBookings))
	s.mux.Handle("/api/admin/bookings/export", s.authenticated(s.handleAdminBookingsExport))
	s.mux.Handle("/api/admin/bookings/", s.adminOnly(s.handleAdminBookingByID))
	s.mux.Handle("/api/admin/messages", s.authenticated(s.handleAdminMessages))
	s.mux.Handle("/api/admin/messages/", s.adminOnly(s.handleAdminMessageByID))
	s.mux.Handle("/api/admin/gallery", s.authenticated(s.handleAdminGallery))
	s.mux.Handle("/api/admin/gallery/upload", s.adminOnly(s.handleAdminGalleryUpload))
	s.mux.Handle("/api/admin/gallery/", s.adminOnly(s.handleAdminGalleryByID))
	s.mux.Handle("/api/admin/services", s.adminOnly(s.handleAdminServices))
	s.mux.Handle("/api/admin/services/", s.adminOnly(s.handleAdminServiceByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.audit(r, "admin.authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			s.audit(r, "admin.authorize", "fail", "reason", "invalid_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			s.audit(r, "admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

// public submissions

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const notificationWarning = "درخواست شما ثبت شد اما اطلاع‌رسانی پیامکی انجام نشد"

func (s *Server) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in validate.BookingInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	booking, res, err := s.app.SubmitBooking(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "درخواست شما ذخیره نشد، لطفاً دوباره تلاش کنید")
		return
	}
	if res.Invalid != nil {
		writeFieldErrors(w, res.Invalid)
		return
	}
	resp := submitResponse{Success: true, Message: "درخواست شما با موفقیت ثبت شد", Data: booking}
	if !res.NotificationSent {
		resp.Warning = notificationWarning
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in validate.ContactInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg, res, err := s.app.SubmitContactMessage(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "پیام شما ذخیره نشد، لطفاً دوباره تلاش کنید")
		return
	}
	if res.Invalid != nil {
		writeFieldErrors(w, res.Invalid)
		return
	}
	resp := submitResponse{Success: true, Message: "پیام شما با موفقیت ارسال شد", Data: msg}
	if !res.NotificationSent {
		resp.Warning = notificationWarning
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req domain.NotificationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	errs, result := s.app.Notify(r.Context(), req)
	if errs != nil {
		writeFieldErrors(w, errs)
		return
	}
	switch result.Kind {
	case sms.ResultSent:
		writeJSON(w, http.StatusOK, submitResponse{
			Success: true,
			Message: "پیامک با موفقیت ارسال شد",
			Data:    map[string]int{"status": result.Status},
		})
	case sms.ResultNotConfigured:
		writeError(w, http.StatusInternalServerError, "سرویس پیامک پیکربندی نشده است")
	case sms.ResultAuthError:
		writeError(w, http.StatusUnauthorized, "کلید سرویس پیامک معتبر نیست")
	case sms.ResultRateLimited:
		writeError(w, http.StatusTooManyRequests, "محدودیت ارسال پیامک، بعداً تلاش کنید")
	case sms.ResultGatewayError:
		status := result.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeError(w, status, "ارسال پیامک ناموفق بود")
	default:
		writeError(w, http.StatusInternalServerError, "ارسال پیامک ناموفق بود")
	}
}

// public reads

func (s *Server) handlePublicServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	services, err := s.app.ListServices(true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": services, "count": len(services)})
}

func (s *Server) handlePublicGallery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.ListGalleryItems(true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gallery")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// admin auth handlers

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleAdminSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.SetupAdmin(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrSetupComplete) {
			s.audit(r, "admin.setup", "fail", "reason", "already_done")
			writeError(w, http.StatusConflict, "admin setup already completed")
			return
		}
		s.audit(r, "admin.setup", "fail", "reason", err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.audit(r, "admin.setup", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "admin.login", "rate_limited")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			s.audit(r, "admin.login", "fail", "reason", "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.audit(r, "admin.login", "fail", "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.audit(r, "admin.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, _ := bearerToken(r)
	if err := s.app.Logout(token); err != nil {
		s.audit(r, "admin.logout", "fail", "user_id", user.ID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	s.audit(r, "admin.logout", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// admin bookings

func (s *Server) handleAdminBookings(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	opts, ok := bookingListOptions(w, r)
	if !ok {
		return
	}
	bookings, err := s.app.ListBookings(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": bookings, "count": len(bookings)})
}

func (s *Server) handleAdminBookingsExport(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	opts, ok := bookingListOptions(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
	if err := s.app.ExportBookingsCSV(w, opts); err != nil {
		slog.Error("bookings_export_failed", "error", err.Error())
	}
}

type bookingUpdateRequest struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

func (s *Server) handleAdminBookingByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/bookings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		booking, ok, err := s.app.GetBooking(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch booking")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case http.MethodPatch:
		var req bookingUpdateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var status *domain.BookingStatus
		if req.Status != nil {
			parsed := domain.BookingStatus(strings.TrimSpace(*req.Status))
			status = &parsed
		}
		booking, err := s.app.UpdateBooking(id, status, req.Description)
		if err != nil {
			writeUpdateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case http.MethodDelete:
		if err := s.app.DeleteBooking(id); err != nil {
			writeUpdateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// admin contact messages

func (s *Server) handleAdminMessages(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	messages, err := s.app.ListContactMessages()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": messages, "count": len(messages)})
}

func (s *Server) handleAdminMessageByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/messages/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		// The only mutable field; marking read is one-way.
		msg, err := s.app.MarkMessageRead(id)
		if err != nil {
			writeUpdateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	case http.MethodDelete:
		if err := s.app.DeleteContactMessage(id); err != nil {
			writeUpdateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// admin gallery

func (s *Server) handleAdminGallery(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.ListGalleryItems(false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gallery")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleAdminGalleryUpload(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := s.allowedExtensions[ext]; !ok {
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}
	contentType := header.Header.Get("Content-Type")
	item, err := s.app.AddGalleryItem(r.Context(), r.FormValue("title"), r.FormValue("category"), header.Filename, file, header.Size, contentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type galleryUpdateRequest struct {
	Title    *string `json:"title"`
	Category *string `json:"category"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleAdminGalleryByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/gallery/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req galleryUpdateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		item, err := s.app.UpdateGalleryItem(id, req.Title, req.Category, req.IsActive)
		if err != nil {
			writeUpdateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.app.DeleteGalleryItem(r.Context(), id); err != nil {
			writeUpdateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// admin services

func (s *Server) handleAdminServices(w http.ResponseWriter, r *http.Request, _ domain.User) {
	switch r.Method {
	case http.MethodGet:
		services, err := s.app.ListServices(false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list services")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": services, "count": len(services)})
	case http.MethodPost:
		var in app.ServiceInput
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		svc, err := s.app.CreateService(in)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, svc)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminServiceByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/services/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var in app.ServiceInput
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		svc, err := s.app.UpdateService(id, in)
		if err != nil {
			writeUpdateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	case http.MethodDelete:
		if err := s.app.DeleteService(id); err != nil {
			writeUpdateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// helpers

func bookingListOptions(w http.ResponseWriter, r *http.Request) (store.BookingListOptions, bool) {
	opts := store.BookingListOptions{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := domain.BookingStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return opts, false
		}
		opts.Status = status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		fmt.Sscanf(raw, "%d", &opts.Limit)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		fmt.Sscanf(raw, "%d", &opts.Offset)
	}
	return opts, true
}

func writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "unknown booking status")
	default:
		writeError(w, http.StatusInternalServerError, "update failed")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation_failed",
		"details": fields,
	})
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 10 * 1024 * 1024
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
