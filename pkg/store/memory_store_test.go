package store

import (
	"errors"
	"testing"
	"time"

	"barbari/pkg/domain"
)

func TestMemoryStoreBookingLifecycle(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	for i, b := range []domain.Booking{
		{ID: "b1", FullName: "علی رضایی", Phone: "09123456789", Origin: "تهران", Destination: "کرج", ServiceType: domain.ServiceIntercity, Status: domain.StatusPending, CreatedAt: now},
		{ID: "b2", FullName: "سارا محمدی", Phone: "09351112233", Origin: "اصفهان", Destination: "شیراز", ServiceType: domain.ServiceVan, Status: domain.StatusConfirmed, CreatedAt: now.Add(time.Minute)},
	} {
		if err := s.SaveBooking(b); err != nil {
			t.Fatalf("save booking %d: %v", i, err)
		}
	}

	all, err := s.ListBookings(BookingListOptions{})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(all) != 2 || all[0].ID != "b2" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	pending, err := s.ListBookings(BookingListOptions{Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "b1" {
		t.Fatalf("expected only b1 pending, got %+v", pending)
	}

	found, err := s.ListBookings(BookingListOptions{Search: "0935"})
	if err != nil {
		t.Fatalf("search bookings: %v", err)
	}
	if len(found) != 1 || found[0].ID != "b2" {
		t.Fatalf("expected phone search to match b2, got %+v", found)
	}

	status := domain.StatusCompleted
	updated, err := s.UpdateBooking("b1", &status, nil)
	if err != nil {
		t.Fatalf("update booking: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("expected status completed, got %s", updated.Status)
	}

	if _, err := s.UpdateBooking("missing", &status, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteBooking("b1"); err != nil {
		t.Fatalf("delete booking: %v", err)
	}
	if _, ok, _ := s.GetBooking("b1"); ok {
		t.Fatalf("expected b1 gone")
	}
}

func TestMemoryStoreContactMessages(t *testing.T) {
	s := NewMemoryStore()
	msg := domain.ContactMessage{ID: "m1", Name: "رضا", Phone: "09121112233", Message: "سلام", CreatedAt: time.Now().UTC()}
	if err := s.SaveContactMessage(msg); err != nil {
		t.Fatalf("save message: %v", err)
	}

	read, err := s.MarkMessageRead("m1")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !read.IsRead {
		t.Fatalf("expected is_read true")
	}
	// Marking again stays read.
	again, err := s.MarkMessageRead("m1")
	if err != nil || !again.IsRead {
		t.Fatalf("expected idempotent mark read, got %+v err=%v", again, err)
	}

	if _, err := s.MarkMessageRead("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreActiveFilters(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	_ = s.SaveGalleryItem(domain.GalleryItem{ID: "g1", Title: "اسباب‌کشی", ImageURL: "u1", IsActive: true, CreatedAt: now})
	_ = s.SaveGalleryItem(domain.GalleryItem{ID: "g2", Title: "بسته‌بندی", ImageURL: "u2", IsActive: false, CreatedAt: now.Add(time.Second)})
	_ = s.SaveService(domain.Service{ID: "s1", Title: "وانت‌بار", IsActive: true, CreatedAt: now})
	_ = s.SaveService(domain.Service{ID: "s2", Title: "کامیونت‌بار", IsActive: false, CreatedAt: now.Add(time.Second)})

	active, err := s.ListGalleryItems(true)
	if err != nil {
		t.Fatalf("list gallery: %v", err)
	}
	if len(active) != 1 || active[0].ID != "g1" {
		t.Fatalf("expected only active gallery items, got %+v", active)
	}
	all, _ := s.ListGalleryItems(false)
	if len(all) != 2 {
		t.Fatalf("expected 2 gallery items, got %d", len(all))
	}

	services, err := s.ListServices(true)
	if err != nil {
		t.Fatalf("list services: %v", err)
	}
	if len(services) != 1 || services[0].ID != "s1" {
		t.Fatalf("expected only active services, got %+v", services)
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	if n, _ := s.UserCount(); n != 0 {
		t.Fatalf("expected empty user table, got %d", n)
	}
	u := domain.User{ID: "u1", Email: "admin@example.com", PasswordHash: "x", Role: domain.RoleAdmin, CreatedAt: time.Now().UTC()}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	got, ok, err := s.GetUserByEmail("admin@example.com")
	if err != nil || !ok || got.ID != "u1" {
		t.Fatalf("expected user by email, got %+v ok=%v err=%v", got, ok, err)
	}
	if n, _ := s.UserCount(); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
}
