package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pagination defaults shared by list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// TemplateFilter contains filtering/pagination parameters for template searches.
type TemplateFilter struct {
	Category  *Category
	Active    *bool
	Language  *Language
	Mandatory *bool
	Search    *string
	Tag       *string
	Limit     int
	Offset    int
}

// RecordFilter contains filtering/pagination parameters for record searches.
type RecordFilter struct {
	PatientID      *string
	TemplateID     *uuid.UUID
	Status         *RecordStatus
	DeliveryMethod *DeliveryMethod
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// NormalizePage clamps limit and offset to sane bounds.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
