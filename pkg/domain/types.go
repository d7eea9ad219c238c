package domain

import "time"

type ServiceType string

const (
	ServiceIntercity ServiceType = "intercity"
	ServiceLocal     ServiceType = "local"
	ServiceFurniture ServiceType = "furniture"
	ServiceVan       ServiceType = "van"
	ServiceTruck     ServiceType = "truck"
	ServicePacking   ServiceType = "packing"
)

// serviceTypeLabels maps service types to the Persian labels shown to
// operators and interpolated into notification messages.
var serviceTypeLabels = map[ServiceType]string{
	ServiceIntercity: "باربری بین‌شهری",
	ServiceLocal:     "باربری داخل شهری",
	ServiceFurniture: "حمل اثاثیه منزل",
	ServiceVan:       "وانت‌بار",
	ServiceTruck:     "کامیونت‌بار",
	ServicePacking:   "بسته‌بندی حرفه‌ای",
}

// Label returns the Persian display label for the service type.
// Unknown values fall back to the raw value.
func (t ServiceType) Label() string {
	if label, ok := serviceTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Valid reports whether t is one of the known service types.
func (t ServiceType) Valid() bool {
	_, ok := serviceTypeLabels[t]
	return ok
}

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

var bookingStatusLabels = map[BookingStatus]string{
	StatusPending:    "در انتظار",
	StatusConfirmed:  "تأیید شده",
	StatusInProgress: "در حال انجام",
	StatusCompleted:  "تکمیل شده",
	StatusCancelled:  "لغو شده",
}

// Label returns the Persian display label for the booking status.
func (s BookingStatus) Label() string {
	if label, ok := bookingStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is one of the known booking statuses.
// Transitions between statuses are unconstrained; operators may set any value.
func (s BookingStatus) Valid() bool {
	_, ok := bookingStatusLabels[s]
	return ok
}

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
)

// Booking is a public moving request. Once inserted it is immutable except
// for status and description, which operators may edit.
type Booking struct {
	ID          string        `json:"id"`
	FullName    string        `json:"fullName"`
	Phone       string        `json:"phone"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	ServiceType ServiceType   `json:"serviceType"`
	BookingDate string        `json:"bookingDate,omitempty"` // YYYY-MM-DD, empty means unspecified
	Description string        `json:"description,omitempty"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ContactMessage is a public contact-form submission.
// IsRead only ever transitions false -> true.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// GalleryItem is a published photo of completed work.
type GalleryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	Category  string    `json:"category,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service is an offered service shown on the marketing site.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	PriceFrom   *int64    `json:"priceFrom,omitempty"`
	Features    []string  `json:"features,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NotificationFormType discriminates which public form produced a notification.
type NotificationFormType string

const (
	FormBooking NotificationFormType = "booking"
	FormContact NotificationFormType = "contact"
)

// NotificationRequest carries the fields interpolated into the operator SMS.
// It is built after a successful insert, consumed once, and never stored.
// Phone is the submitter's phone carried as message content; the SMS itself
// goes to the configured admin number.
type NotificationRequest struct {
	Name        string               `json:"name"`
	Phone       string               `json:"phone"`
	RequestType string               `json:"requestType"`
	Details     string               `json:"details,omitempty"`
	FormType    NotificationFormType `json:"formType"`
}
