package models

import "time"

// EnrollmentStatus represents the lifecycle of a membership request.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending  EnrollmentStatus = "PENDING"
	EnrollmentStatusApproved EnrollmentStatus = "APPROVED"
	EnrollmentStatusRejected EnrollmentStatus = "REJECTED"
)

// Enrollment captures a student's membership record for a subject, keyed by
// (subject, account). SchoolID is nullable: records created before the field
// existed lack it and are simply skipped by the resolver.
type Enrollment struct {
	AccountID   string           `json:"account_id"`
	SubjectID   string           `json:"subject_id"`
	Status      EnrollmentStatus `json:"status"`
	SchoolID    *string          `json:"school_id,omitempty"`
	DisplayName string           `json:"display_name"`
	Contact     string           `json:"contact,omitempty"`
	JoinedAt    time.Time        `json:"joined_at"`
	DecidedAt   *time.Time       `json:"decided_at,omitempty"`
}
