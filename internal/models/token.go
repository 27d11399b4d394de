package models

import (
	"time"

	"github.com/google/uuid"
)

// Token kinds stored in the ledger
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"

	// Used by the one-shot lyceum verification flow only, never by sessions
	TokenKindVerification = "verification"
)

// Token is a ledger row for an issued token.
// A token is usable if and only if both Revoked and Expired are false,
// no matter whether its signature still verifies.
type Token struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Value     string
	Kind      string
	Revoked   bool
	Expired   bool
	CreatedAt time.Time

	// Lyceum the verification token was issued for, nil for session tokens
	LyceumID *uuid.UUID
}

func (t Token) Usable() bool {
	return !t.Revoked && !t.Expired
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair returned to the user on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
