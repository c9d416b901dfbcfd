package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"vehicle-registration-bot/internal/domain"
)

// Category of the vehicle a request is filed for.
type Category string

const (
	CategoryLight Category = "light"
	CategoryCargo Category = "cargo"
)

// RequestStatus is the lifecycle of a registration request:
// draft -> submitted -> approved | rejected.
type RequestStatus string

const (
	StatusDraft     RequestStatus = "draft"
	StatusSubmitted RequestStatus = "submitted"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
)

// Request is the durable record of one vehicle-registration attempt.
// SubmittedAt is set iff status is submitted or later.
type Request struct {
	ID                 string
	UserID             string
	Category           Category
	Status             RequestStatus
	HasBrand           *bool
	Year               *int
	HasLicense         *bool
	LicenseOption      string
	NoLicenseOption    string
	SelectedTemplateID string
	CreatedAt          time.Time
	SubmittedAt        *time.Time
	ReviewedAt         *time.Time
	ReviewedBy         string
}

func NewRequest(id, userID string, category Category) (*Request, error) {
	if id == "" {
		id = ulid.Make().String()
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if category != CategoryLight && category != CategoryCargo {
		return nil, domain.ErrInvalidArgument
	}
	return &Request{
		ID:        id,
		UserID:    userID,
		Category:  category,
		Status:    StatusDraft,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Submit stamps the submission. Returns false when the request was already
// submitted or reviewed, which callers treat as the idempotent no-op path.
func (r *Request) Submit(now time.Time) bool {
	if r.Status != StatusDraft {
		return false
	}
	r.Status = StatusSubmitted
	t := now.UTC()
	r.SubmittedAt = &t
	return true
}

// Review moves a submitted request to approved or rejected. Once reviewed the
// status is immutable.
func (r *Request) Review(status RequestStatus, reviewerID string, now time.Time) error {
	if status != StatusApproved && status != StatusRejected {
		return domain.ErrInvalidArgument
	}
	if r.Status == StatusApproved || r.Status == StatusRejected {
		return domain.ErrRequestImmutable
	}
	if r.Status != StatusSubmitted {
		return domain.ErrInvalidArgument
	}
	r.Status = status
	t := now.UTC()
	r.ReviewedAt = &t
	r.ReviewedBy = reviewerID
	return nil
}

func (r *Request) IsZero() bool { return r == nil || r.ID == "" }
