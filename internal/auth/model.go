package auth

import (
	"time"

	"github.com/google/uuid"
)

// Well-known roles. The role set is open; these are the ones the service
// itself assigns or checks.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is a durable account record.
type Identity struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Claims is the payload carried by an access token. It is never persisted.
type Claims struct {
	Subject   string
	UserID    string
	Role      string
	ExpiresAt time.Time
}
