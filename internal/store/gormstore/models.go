package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property represents the properties table.
type Property struct {
	PropertyID       string         `gorm:"type:uuid;primaryKey"`
	HostID           string         `gorm:"type:uuid;not null;index:idx_properties_host"`
	Title            string         `gorm:"not null"`
	Capacity         int            `gorm:"not null"`
	PerNightCents    int64          `gorm:"not null"`
	CleaningFeeCents int64          `gorm:"not null"`
	ServiceFeeCents  int64          `gorm:"not null"`
	Currency         string         `gorm:"not null"`
	Amenities        datatypes.JSON `gorm:"type:jsonb;not null"`
	Active           bool           `gorm:"not null"`
	Published        bool           `gorm:"not null"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

func (Property) TableName() string { return "properties" }

func (property *Property) BeforeCreate(tx *gorm.DB) error {
	if property.PropertyID == "" {
		property.PropertyID = uuid.NewString()
	}
	return nil
}

// User mirrors the users table.
type User struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;uniqueIndex"`
	Role      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

func (user *User) BeforeCreate(tx *gorm.DB) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	return nil
}

// Booking mirrors the bookings table. Pricing columns are the creation-time
// snapshot, never recomputed from the property.
type Booking struct {
	BookingID        string     `gorm:"type:uuid;primaryKey"`
	PropertyID       string     `gorm:"type:uuid;not null;index:idx_bookings_property_check_in,priority:1"`
	GuestID          string     `gorm:"type:uuid;not null;index:idx_bookings_guest"`
	HostID           string     `gorm:"type:uuid;not null;index:idx_bookings_host"`
	CheckIn          time.Time  `gorm:"not null;index:idx_bookings_property_check_in,priority:2"`
	CheckOut         time.Time  `gorm:"not null"`
	Guests           int        `gorm:"not null"`
	PerNightCents    int64      `gorm:"not null"`
	CleaningFeeCents int64      `gorm:"not null"`
	ServiceFeeCents  int64      `gorm:"not null"`
	SubtotalCents    int64      `gorm:"not null"`
	TotalCents       int64      `gorm:"not null"`
	Currency         string     `gorm:"not null"`
	Status           string     `gorm:"not null;index:idx_bookings_status"`
	Note             string     `gorm:""`
	IsExtended       bool       `gorm:"not null"`
	ParentBookingID  *string    `gorm:"type:uuid;index:idx_bookings_parent"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

func (record *Booking) BeforeCreate(tx *gorm.DB) error {
	if record.BookingID == "" {
		record.BookingID = uuid.NewString()
	}
	return nil
}
