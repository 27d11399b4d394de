package models

import (
	"time"

	"github.com/google/uuid"
)

// Image owner kinds
const (
	ImageOwnerCourse = "course"
	ImageOwnerLyceum = "lyceum"
)

// Image holds metadata about an uploaded picture. The blob itself lives
// outside this system, only the URL is recorded.
type Image struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	OwnerKind   string
	OwnerID     uuid.UUID
	Filename    string
	ContentType string
	SizeBytes   int64
	URL         string
}
