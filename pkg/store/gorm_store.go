package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"barbari/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&BookingModel{},
		&ContactMessageModel{},
		&GalleryItemModel{},
		&ServiceModel{},
		&UserModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveBooking inserts or updates a booking.
func (s *GormStore) SaveBooking(b domain.Booking) error {
	model := bookingToModel(b)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "description", "updated_at"}),
	}).Create(&model).Error
}

// ListBookings returns bookings newest first, honoring status filter and search.
func (s *GormStore) ListBookings(opts BookingListOptions) ([]domain.Booking, error) {
	tx := s.db.Model(&BookingModel{}).Order("created_at DESC")
	if opts.Status != "" {
		tx = tx.Where("status = ?", string(opts.Status))
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		pattern := "%" + q + "%"
		tx = tx.Where(
			"full_name ILIKE ? OR phone LIKE ? OR origin ILIKE ? OR destination ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(opts.Offset)
	}
	var models []BookingModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		res = append(res, bookingFromModel(m))
	}
	return res, nil
}

// GetBooking retrieves a booking by ID.
func (s *GormStore) GetBooking(id string) (domain.Booking, bool, error) {
	var model BookingModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Booking{}, false, nil
		}
		return domain.Booking{}, false, err
	}
	return bookingFromModel(model), true, nil
}

// UpdateBooking applies the operator-editable fields: status and description.
func (s *GormStore) UpdateBooking(id string, status *domain.BookingStatus, description *string) (domain.Booking, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if status != nil {
		updates["status"] = string(*status)
	}
	if description != nil {
		updates["description"] = *description
	}
	res := s.db.Model(&BookingModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return domain.Booking{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Booking{}, ErrNotFound
	}
	booking, _, err := s.GetBooking(id)
	return booking, err
}

// DeleteBooking removes a booking.
func (s *GormStore) DeleteBooking(id string) error {
	res := s.db.Delete(&BookingModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveContactMessage inserts a contact message.
func (s *GormStore) SaveContactMessage(m domain.ContactMessage) error {
	model := contactToModel(m)
	return s.db.Create(&model).Error
}

// ListContactMessages returns messages newest first.
func (s *GormStore) ListContactMessages() ([]domain.ContactMessage, error) {
	var models []ContactMessageModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ContactMessage, 0, len(models))
	for _, m := range models {
		res = append(res, contactFromModel(m))
	}
	return res, nil
}

// MarkMessageRead flips is_read to true. The transition is one-way; there is
// no operation to mark a message unread again.
func (s *GormStore) MarkMessageRead(id string) (domain.ContactMessage, error) {
	res := s.db.Model(&ContactMessageModel{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return domain.ContactMessage{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ContactMessage{}, ErrNotFound
	}
	var model ContactMessageModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.ContactMessage{}, err
	}
	return contactFromModel(model), nil
}

// DeleteContactMessage removes a message.
func (s *GormStore) DeleteContactMessage(id string) error {
	res := s.db.Delete(&ContactMessageModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveGalleryItem inserts or updates a gallery item.
func (s *GormStore) SaveGalleryItem(g domain.GalleryItem) error {
	model := galleryToModel(g)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "image_url", "category", "is_active"}),
	}).Create(&model).Error
}

// ListGalleryItems returns gallery items newest first.
func (s *GormStore) ListGalleryItems(onlyActive bool) ([]domain.GalleryItem, error) {
	tx := s.db.Order("created_at DESC")
	if onlyActive {
		tx = tx.Where("is_active = ?", true)
	}
	var models []GalleryItemModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.GalleryItem, 0, len(models))
	for _, m := range models {
		res = append(res, galleryFromModel(m))
	}
	return res, nil
}

// GetGalleryItem retrieves a gallery item by ID.
func (s *GormStore) GetGalleryItem(id string) (domain.GalleryItem, bool, error) {
	var model GalleryItemModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.GalleryItem{}, false, nil
		}
		return domain.GalleryItem{}, false, err
	}
	return galleryFromModel(model), true, nil
}

// DeleteGalleryItem removes a gallery item.
func (s *GormStore) DeleteGalleryItem(id string) error {
	res := s.db.Delete(&GalleryItemModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveService inserts or updates a service.
func (s *GormStore) SaveService(svc domain.Service) error {
	model := serviceToModel(svc)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "icon", "price_from", "features", "is_active", "updated_at"}),
	}).Create(&model).Error
}

// ListServices returns services ordered by creation time.
func (s *GormStore) ListServices(onlyActive bool) ([]domain.Service, error) {
	tx := s.db.Order("created_at ASC")
	if onlyActive {
		tx = tx.Where("is_active = ?", true)
	}
	var models []ServiceModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Service, 0, len(models))
	for _, m := range models {
		res = append(res, serviceFromModel(m))
	}
	return res, nil
}

// GetService retrieves a service by ID.
func (s *GormStore) GetService(id string) (domain.Service, bool, error) {
	var model ServiceModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Service{}, false, nil
		}
		return domain.Service{}, false, err
	}
	return serviceFromModel(model), true, nil
}

// DeleteService removes a service.
func (s *GormStore) DeleteService(id string) error {
	res := s.db.Delete(&ServiceModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "role", "updated_at"}),
	}).Create(&model).Error
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UserCount returns number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func bookingToModel(b domain.Booking) BookingModel {
	return BookingModel{
		ID:          b.ID,
		FullName:    b.FullName,
		Phone:       b.Phone,
		Origin:      b.Origin,
		Destination: b.Destination,
		ServiceType: string(b.ServiceType),
		BookingDate: b.BookingDate,
		Description: b.Description,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func bookingFromModel(m BookingModel) domain.Booking {
	status := domain.BookingStatus(m.Status)
	if status == "" {
		status = domain.StatusPending
	}
	return domain.Booking{
		ID:          m.ID,
		FullName:    m.FullName,
		Phone:       m.Phone,
		Origin:      m.Origin,
		Destination: m.Destination,
		ServiceType: domain.ServiceType(m.ServiceType),
		BookingDate: m.BookingDate,
		Description: m.Description,
		Status:      status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func contactToModel(c domain.ContactMessage) ContactMessageModel {
	return ContactMessageModel{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Message:   c.Message,
		IsRead:    c.IsRead,
		CreatedAt: c.CreatedAt,
	}
}

func contactFromModel(m ContactMessageModel) domain.ContactMessage {
	return domain.ContactMessage{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Message:   m.Message,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func galleryToModel(g domain.GalleryItem) GalleryItemModel {
	return GalleryItemModel{
		ID:        g.ID,
		Title:     g.Title,
		ImageURL:  g.ImageURL,
		Category:  g.Category,
		IsActive:  g.IsActive,
		CreatedAt: g.CreatedAt,
	}
}

func galleryFromModel(m GalleryItemModel) domain.GalleryItem {
	return domain.GalleryItem{
		ID:        m.ID,
		Title:     m.Title,
		ImageURL:  m.ImageURL,
		Category:  m.Category,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

func serviceToModel(s domain.Service) ServiceModel {
	features, _ := json.Marshal(s.Features)
	return ServiceModel{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Icon:        s.Icon,
		PriceFrom:   s.PriceFrom,
		Features:    datatypes.JSON(features),
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func serviceFromModel(m ServiceModel) domain.Service {
	var features []string
	if len(m.Features) > 0 {
		_ = json.Unmarshal(m.Features, &features)
	}
	return domain.Service{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Icon:        m.Icon,
		PriceFrom:   m.PriceFrom,
		Features:    features,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	role := domain.UserRole(m.Role)
	if role == "" {
		role = domain.RoleViewer
	}
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         role,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
