package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Course struct {
	ID          uuid.UUID
	LyceumID    uuid.UUID
	CreatedAt   time.Time
	Title       string
	Subject     string
	Description string
	Price       decimal.Decimal
	Weeks       int
}
