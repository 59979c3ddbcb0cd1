package models

import "time"

// Timestamps defines the common bookkeeping fields for persisted records.
// Records in this module are hard-deleted, so there is no DeletedAt.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
