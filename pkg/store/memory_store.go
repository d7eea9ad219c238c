package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"barbari/pkg/domain"
)

// MemoryStore keeps all collections in-process. It backs tests and local
// development without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
	messages map[string]domain.ContactMessage
	gallery  map[string]domain.GalleryItem
	services map[string]domain.Service
	users    map[string]domain.User
	email    map[string]string // email -> user ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]domain.Booking),
		messages: make(map[string]domain.ContactMessage),
		gallery:  make(map[string]domain.GalleryItem),
		services: make(map[string]domain.Service),
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
	}
}

// SaveBooking stores or replaces a booking.
func (m *MemoryStore) SaveBooking(b domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

// ListBookings returns bookings newest first, honoring filter options.
func (m *MemoryStore) ListBookings(opts BookingListOptions) ([]domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Booking, 0, len(m.bookings))
	q := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, b := range m.bookings {
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		if q != "" && !bookingMatches(b, q) {
			continue
		}
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if opts.Offset > 0 {
		if opts.Offset >= len(res) {
			return []domain.Booking{}, nil
		}
		res = res[opts.Offset:]
	}
	if opts.Limit > 0 && len(res) > opts.Limit {
		res = res[:opts.Limit]
	}
	return res, nil
}

func bookingMatches(b domain.Booking, q string) bool {
	for _, field := range []string{b.FullName, b.Phone, b.Origin, b.Destination} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// GetBooking retrieves a booking by ID.
func (m *MemoryStore) GetBooking(id string) (domain.Booking, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	return b, ok, nil
}

// UpdateBooking applies operator edits to status and description.
func (m *MemoryStore) UpdateBooking(id string, status *domain.BookingStatus, description *string) (domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, ErrNotFound
	}
	if status != nil {
		b.Status = *status
	}
	if description != nil {
		b.Description = *description
	}
	b.UpdatedAt = time.Now().UTC()
	m.bookings[id] = b
	return b, nil
}

// DeleteBooking removes a booking.
func (m *MemoryStore) DeleteBooking(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

// SaveContactMessage stores a contact message.
func (m *MemoryStore) SaveContactMessage(msg domain.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ID] = msg
	return nil
}

// ListContactMessages returns messages newest first.
func (m *MemoryStore) ListContactMessages() ([]domain.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ContactMessage, 0, len(m.messages))
	for _, msg := range m.messages {
		res = append(res, msg)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// MarkMessageRead flips is_read to true (one-way).
func (m *MemoryStore) MarkMessageRead(id string) (domain.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return domain.ContactMessage{}, ErrNotFound
	}
	msg.IsRead = true
	m.messages[id] = msg
	return msg, nil
}

// DeleteContactMessage removes a message.
func (m *MemoryStore) DeleteContactMessage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

// SaveGalleryItem stores or replaces a gallery item.
func (m *MemoryStore) SaveGalleryItem(g domain.GalleryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gallery[g.ID] = g
	return nil
}

// ListGalleryItems returns gallery items newest first.
func (m *MemoryStore) ListGalleryItems(onlyActive bool) ([]domain.GalleryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.GalleryItem, 0, len(m.gallery))
	for _, g := range m.gallery {
		if onlyActive && !g.IsActive {
			continue
		}
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// GetGalleryItem retrieves a gallery item by ID.
func (m *MemoryStore) GetGalleryItem(id string) (domain.GalleryItem, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gallery[id]
	return g, ok, nil
}

// DeleteGalleryItem removes a gallery item.
func (m *MemoryStore) DeleteGalleryItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gallery[id]; !ok {
		return ErrNotFound
	}
	delete(m.gallery, id)
	return nil
}

// SaveService stores or replaces a service.
func (m *MemoryStore) SaveService(s domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = s
	return nil
}

// ListServices returns services oldest first.
func (m *MemoryStore) ListServices(onlyActive bool) ([]domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Service, 0, len(m.services))
	for _, s := range m.services {
		if onlyActive && !s.IsActive {
			continue
		}
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// GetService retrieves a service by ID.
func (m *MemoryStore) GetService(id string) (domain.Service, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	return s, ok, nil
}

// DeleteService removes a service.
func (m *MemoryStore) DeleteService(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[id]; !ok {
		return ErrNotFound
	}
	delete(m.services, id)
	return nil
}

// SaveUser registers or updates a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// UserCount returns number of users.
func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}
