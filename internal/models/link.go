package models

import (
	"time"

	"github.com/google/uuid"
)

// Link is a shortened URL. The code is immutable once assigned.
type Link struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	TargetURL string    `json:"target_url"`
	Hits      int64     `json:"hits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
