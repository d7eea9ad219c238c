package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type BookingModel struct {
	ID          string `gorm:"primaryKey"`
	FullName    string `gorm:"not null"`
	Phone       string `gorm:"not null;index"`
	Origin      string `gorm:"not null"`
	Destination string `gorm:"not null"`
	ServiceType string `gorm:"not null"`
	BookingDate string
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (BookingModel) TableName() string { return "bookings" }

type ContactMessageModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Phone     string `gorm:"not null"`
	Email     string
	Message   string    `gorm:"type:text;not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (ContactMessageModel) TableName() string { return "contact_messages" }

type GalleryItemModel struct {
	ID        string `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	ImageURL  string `gorm:"not null"`
	Category  string
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (GalleryItemModel) TableName() string { return "gallery" }

type ServiceModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Icon        string
	PriceFrom   *int64
	Features    datatypes.JSON `gorm:"type:jsonb"`
	IsActive    bool           `gorm:"not null;default:true"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (ServiceModel) TableName() string { return "services" }

type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }
