package models

import (
	"time"

	"github.com/google/uuid"
)

type Lyceum struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Name        string
	City        string
	Address     string
	Description string
}
