package booking

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Status is the lifecycle state of a booking request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
)

// MassageType distinguishes mobile visits from in-studio appointments.
const (
	TypeMobile   = "mobile"
	TypeInStudio = "in-studio"
)

var (
	ErrNotFound   = errors.New("booking not found")
	ErrNoProvider = errors.New("no provider available for location and type")
)

// Booking is one client booking request dispatched to a provider by SMS.
type Booking struct {
	ID            string
	ClientPhone   string
	Location      string
	MassageType   string
	ProviderName  string
	ProviderPhone string
	Status        Status
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ResolvedAt    *time.Time
}

// NewID generates a random booking id (8 bytes, hex-encoded).
func NewID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
