package domain

import "time"

// TestimonialStatus tracks the moderation state of a testimonial.
type TestimonialStatus string

const (
	TestimonialPending  TestimonialStatus = "pending"
	TestimonialApproved TestimonialStatus = "approved"
	TestimonialRejected TestimonialStatus = "rejected"
)

// Valid reports whether the status is a known moderation state.
func (s TestimonialStatus) Valid() bool {
	switch s {
	case TestimonialPending, TestimonialApproved, TestimonialRejected:
		return true
	}
	return false
}

// Testimonial is a tenant-scoped customer quote moving through moderation.
type Testimonial struct {
	ID         int64
	TenantID   int64
	AuthorID   int64
	AuthorName string
	Body       string
	Rating     int
	Status     TestimonialStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
