package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Coarse grained on purpose: route policy only distinguishes
// ordinary users from privileged ones.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	FirstName      string
	LastName       string
	Email          string
	Username       string
	HashedPassword string
	Enabled        bool
	Role           string

	// Lyceum the user administers, if any
	LyceumID *uuid.UUID
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Administers reports whether the user is the administrator of the given lyceum
func (u User) Administers(lyceumID uuid.UUID) bool {
	return u.LyceumID != nil && *u.LyceumID == lyceumID
}
