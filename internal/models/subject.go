package models

import "time"

// Subject groups assessments and enrollments under one taught course.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SectionID string    `json:"section_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Section is the top of the teaching hierarchy: a class section owning
// subjects.
type Section struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteCode lets students join a subject directly; minting one is advisory
// during subject creation and may be regenerated at any time.
type InviteCode struct {
	Code      string    `json:"code"`
	SubjectID string    `json:"subject_id"`
	CreatedAt time.Time `json:"created_at"`
}
