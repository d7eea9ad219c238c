// Package app wires validation, persistence and notification into the
// back-office operations exposed by the HTTP server.
package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"barbari/internal/util"
	"barbari/internal/validate"
	"barbari/pkg/auth"
	"barbari/pkg/domain"
	"barbari/pkg/sms"
	"barbari/pkg/storage"
	"barbari/pkg/store"
)

// Notifier sends one operator notification per call.
type Notifier interface {
	Dispatch(ctx context.Context, n domain.NotificationRequest) sms.Result
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Sessions    store.SessionStore
	Notifier    Notifier
	Images      storage.ImageStore
}

// App is the core application service wiring together storage and domain logic.
type App struct {
	store    store.Store
	sessions store.SessionStore
	notifier Notifier
	images   storage.ImageStore
}

// New constructs the application. A nil Store falls back to Postgres via
// DatabaseURL; Sessions and Notifier are required.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required (no in-memory store allowed)")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	images := cfg.Images
	if images == nil {
		images = storage.NewMemoryImageStore()
	}
	return &App{
		store:    dataStore,
		sessions: cfg.Sessions,
		notifier: cfg.Notifier,
		images:   images,
	}, nil
}

// SubmitResult reports the outcome of a public form submission.
type SubmitResult struct {
	// Invalid maps field names to user-facing messages; non-nil means the
	// input was rejected and nothing was persisted.
	Invalid map[string]string
	// NotificationSent reports whether the operator SMS went out. A failed
	// notification never fails the submission.
	NotificationSent bool
}

// SubmitBooking runs the booking pipeline: validate, persist, then one
// best-effort notification attempt. A non-nil error means persistence failed
// and no notification was attempted.
func (a *App) SubmitBooking(ctx context.Context, in validate.BookingInput) (domain.Booking, SubmitResult, error) {
	if errs := validate.Booking(in); errs != nil {
		return domain.Booking{}, SubmitResult{Invalid: errs}, nil
	}
	now := time.Now().UTC()
	booking := domain.Booking{
		ID:          util.NewID(),
		FullName:    strings.TrimSpace(in.FullName),
		Phone:       validate.NormalizePhone(in.Phone),
		Origin:      strings.TrimSpace(in.Origin),
		Destination: strings.TrimSpace(in.Destination),
		ServiceType: domain.ServiceType(strings.TrimSpace(in.ServiceType)),
		BookingDate: strings.TrimSpace(in.BookingDate),
		Description: strings.TrimSpace(in.Description),
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveBooking(booking); err != nil {
		return domain.Booking{}, SubmitResult{}, fmt.Errorf("save booking: %w", err)
	}

	details := booking.Origin + " به " + booking.Destination
	if booking.BookingDate != "" {
		details += " در " + booking.BookingDate
	}
	sent := a.notify(ctx, domain.NotificationRequest{
		Name:        booking.FullName,
		Phone:       booking.Phone,
		RequestType: booking.ServiceType.Label(),
		Details:     details,
		FormType:    domain.FormBooking,
	})
	return booking, SubmitResult{NotificationSent: sent}, nil
}

// SubmitContactMessage runs the contact pipeline with the same shape as
// SubmitBooking.
func (a *App) SubmitContactMessage(ctx context.Context, in validate.ContactInput) (domain.ContactMessage, SubmitResult, error) {
	if errs := validate.Contact(in); errs != nil {
		return domain.ContactMessage{}, SubmitResult{Invalid: errs}, nil
	}
	msg := domain.ContactMessage{
		ID:        util.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Phone:     validate.NormalizePhone(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveContactMessage(msg); err != nil {
		return domain.ContactMessage{}, SubmitResult{}, fmt.Errorf("save contact message: %w", err)
	}

	sent := a.notify(ctx, domain.NotificationRequest{
		Name:        msg.Name,
		Phone:       msg.Phone,
		RequestType: "پیام تماس",
		Details:     msg.Message,
		FormType:    domain.FormContact,
	})
	return msg, SubmitResult{NotificationSent: sent}, nil
}

// notify makes the single dispatch attempt and logs any non-sent outcome.
func (a *App) notify(ctx context.Context, n domain.NotificationRequest) bool {
	result := a.notifier.Dispatch(ctx, n)
	logger := util.LoggerFromContext(ctx)
	if result.Sent() {
		logger.Info("sms_dispatch", "kind", string(result.Kind), "status", result.Status, "form", string(n.FormType))
		return true
	}
	logger.Warn("sms_dispatch",
		"kind", string(result.Kind),
		"status", result.Status,
		"form", string(n.FormType),
		"error", fmt.Sprint(result.Err),
	)
	return false
}

// Notify sends a standalone operator notification, used by the public
// notification endpoint. Field errors are returned without dispatching.
func (a *App) Notify(ctx context.Context, n domain.NotificationRequest) (map[string]string, sms.Result) {
	errs := make(map[string]string)
	if strings.TrimSpace(n.Name) == "" {
		errs["name"] = "نام الزامی است"
	}
	switch {
	case strings.TrimSpace(n.Phone) == "":
		errs["phone"] = "شماره تماس الزامی است"
	case !validate.ValidPhone(n.Phone):
		errs["phone"] = "شماره موبایل معتبر نیست"
	}
	if strings.TrimSpace(n.RequestType) == "" {
		errs["request_type"] = "نوع درخواست الزامی است"
	}
	if len(errs) > 0 {
		return errs, sms.Result{}
	}
	n.Phone = validate.NormalizePhone(n.Phone)
	if n.FormType == "" {
		n.FormType = domain.FormBooking
	}
	return nil, a.notifier.Dispatch(ctx, n)
}

// SetupAdmin creates the first admin account. It refuses once any user exists.
func (a *App) SetupAdmin(email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.User{}, fmt.Errorf("email required")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	count, err := a.store.UserCount()
	if err != nil {
		return domain.User{}, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return domain.User{}, ErrSetupComplete
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout revokes a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// ListBookings returns bookings for the admin panel.
func (a *App) ListBookings(opts store.BookingListOptions) ([]domain.Booking, error) {
	return a.store.ListBookings(opts)
}

// GetBooking returns one booking.
func (a *App) GetBooking(id string) (domain.Booking, bool, error) {
	return a.store.GetBooking(id)
}

// UpdateBooking applies operator edits. Only status and description are
// mutable; all other fields stay as submitted.
func (a *App) UpdateBooking(id string, status *domain.BookingStatus, description *string) (domain.Booking, error) {
	if status != nil && !status.Valid() {
		return domain.Booking{}, ErrInvalidStatus
	}
	return a.store.UpdateBooking(id, status, description)
}

// DeleteBooking removes a booking.
func (a *App) DeleteBooking(id string) error {
	return a.store.DeleteBooking(id)
}

// ExportBookingsCSV streams the filtered bookings as CSV with Persian labels.
func (a *App) ExportBookingsCSV(w io.Writer, opts store.BookingListOptions) error {
	bookings, err := a.store.ListBookings(opts)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	// UTF-8 BOM so Excel renders Persian text correctly.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"شناسه", "نام", "تلفن", "مبدأ", "مقصد", "نوع سرویس", "تاریخ", "وضعیت", "توضیحات", "ثبت"}); err != nil {
		return err
	}
	for _, b := range bookings {
		row := []string{
			b.ID,
			b.FullName,
			b.Phone,
			b.Origin,
			b.Destination,
			b.ServiceType.Label(),
			b.BookingDate,
			b.Status.Label(),
			b.Description,
			b.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ListContactMessages returns messages for the admin panel.
func (a *App) ListContactMessages() ([]domain.ContactMessage, error) {
	return a.store.ListContactMessages()
}

// MarkMessageRead flips a message to read. The transition is one-way.
func (a *App) MarkMessageRead(id string) (domain.ContactMessage, error) {
	return a.store.MarkMessageRead(id)
}

// DeleteContactMessage removes a message.
func (a *App) DeleteContactMessage(id string) error {
	return a.store.DeleteContactMessage(id)
}

// AddGalleryItem uploads the image and records the gallery entry.
func (a *App) AddGalleryItem(ctx context.Context, title, category, filename string, r io.Reader, size int64, contentType string) (domain.GalleryItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.GalleryItem{}, fmt.Errorf("title required")
	}
	id := util.NewID()
	key := "gallery/" + id + strings.ToLower(filepath.Ext(filename))
	url, err := a.images.Put(ctx, key, r, size, contentType)
	if err != nil {
		return domain.GalleryItem{}, fmt.Errorf("upload image: %w", err)
	}
	item := domain.GalleryItem{
		ID:        id,
		Title:     title,
		ImageURL:  url,
		Category:  strings.TrimSpace(category),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveGalleryItem(item); err != nil {
		return domain.GalleryItem{}, fmt.Errorf("save gallery item: %w", err)
	}
	return item, nil
}

// UpdateGalleryItem edits title, category and visibility.
func (a *App) UpdateGalleryItem(id string, title, category *string, isActive *bool) (domain.GalleryItem, error) {
	item, ok, err := a.store.GetGalleryItem(id)
	if err != nil {
		return domain.GalleryItem{}, err
	}
	if !ok {
		return domain.GalleryItem{}, store.ErrNotFound
	}
	if title != nil {
		item.Title = strings.TrimSpace(*title)
	}
	if category != nil {
		item.Category = strings.TrimSpace(*category)
	}
	if isActive != nil {
		item.IsActive = *isActive
	}
	if err := a.store.SaveGalleryItem(item); err != nil {
		return domain.GalleryItem{}, fmt.Errorf("save gallery item: %w", err)
	}
	return item, nil
}

// DeleteGalleryItem removes the record and best-effort deletes the object.
func (a *App) DeleteGalleryItem(ctx context.Context, id string) error {
	item, ok, err := a.store.GetGalleryItem(id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	if err := a.store.DeleteGalleryItem(id); err != nil {
		return err
	}
	if idx := strings.Index(item.ImageURL, "gallery/"); idx >= 0 {
		if err := a.images.Delete(ctx, item.ImageURL[idx:]); err != nil {
			util.LoggerFromContext(ctx).Warn("gallery_object_delete_failed", "id", id, "error", err.Error())
		}
	}
	return nil
}

// ListGalleryItems returns gallery entries; onlyActive hides unpublished ones.
func (a *App) ListGalleryItems(onlyActive bool) ([]domain.GalleryItem, error) {
	return a.store.ListGalleryItems(onlyActive)
}

// ServiceInput carries admin edits to an offered service.
type ServiceInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	PriceFrom   *int64   `json:"price_from,omitempty"`
	Features    []string `json:"features,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// CreateService records a new offered service.
func (a *App) CreateService(in ServiceInput) (domain.Service, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Service{}, fmt.Errorf("title required")
	}
	now := time.Now().UTC()
	svc := domain.Service{
		ID:          util.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Icon:        strings.TrimSpace(in.Icon),
		PriceFrom:   in.PriceFrom,
		Features:    in.Features,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	if err := a.store.SaveService(svc); err != nil {
		return domain.Service{}, fmt.Errorf("save service: %w", err)
	}
	return svc, nil
}

// UpdateService replaces the editable fields of an existing service.
func (a *App) UpdateService(id string, in ServiceInput) (domain.Service, error) {
	svc, ok, err := a.store.GetService(id)
	if err != nil {
		return domain.Service{}, err
	}
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	if strings.TrimSpace(in.Title) != "" {
		svc.Title = strings.TrimSpace(in.Title)
	}
	svc.Description = strings.TrimSpace(in.Description)
	svc.Icon = strings.TrimSpace(in.Icon)
	if in.PriceFrom != nil {
		svc.PriceFrom = in.PriceFrom
	}
	if in.Features != nil {
		svc.Features = in.Features
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	svc.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveService(svc); err != nil {
		return domain.Service{}, fmt.Errorf("save service: %w", err)
	}
	return svc, nil
}

// DeleteService removes a service.
func (a *App) DeleteService(id string) error {
	return a.store.DeleteService(id)
}

// ListServices returns offered services; onlyActive hides disabled ones.
func (a *App) ListServices(onlyActive bool) ([]domain.Service, error) {
	return a.store.ListServices(onlyActive)
}
