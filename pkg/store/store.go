package store

import (
	"errors"

	"barbari/pkg/domain"
)

// ErrNotFound is returned by update/delete operations targeting a missing row.
var ErrNotFound = errors.New("record not found")

// BookingListOptions carries filter parameters for listing bookings.
type BookingListOptions struct {
	// Status filters by booking status; empty returns all.
	Status domain.BookingStatus
	// Search matches against full name, phone, origin, and destination.
	Search string
	Limit  int
	Offset int
}

// Store defines persistence over the back-office collections.
type Store interface {
	// bookings
	SaveBooking(domain.Booking) error
	ListBookings(opts BookingListOptions) ([]domain.Booking, error)
	GetBooking(id string) (domain.Booking, bool, error)
	UpdateBooking(id string, status *domain.BookingStatus, description *string) (domain.Booking, error)
	DeleteBooking(id string) error

	// contact messages
	SaveContactMessage(domain.ContactMessage) error
	ListContactMessages() ([]domain.ContactMessage, error)
	MarkMessageRead(id string) (domain.ContactMessage, error)
	DeleteContactMessage(id string) error

	// gallery
	SaveGalleryItem(domain.GalleryItem) error
	ListGalleryItems(onlyActive bool) ([]domain.GalleryItem, error)
	GetGalleryItem(id string) (domain.GalleryItem, bool, error)
	DeleteGalleryItem(id string) error

	// services
	SaveService(domain.Service) error
	ListServices(onlyActive bool) ([]domain.Service, error)
	GetService(id string) (domain.Service, bool, error)
	DeleteService(id string) error

	// users
	SaveUser(domain.User) error
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UserCount() (int, error)
}

// SessionStore persists admin session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
