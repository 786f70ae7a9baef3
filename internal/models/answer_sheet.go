package models

import (
	"time"

	"github.com/law4percent/checkme-api/pkg/store"
)

// QuestionResult is the grading outcome for one breakdown entry.
type QuestionResult string

const (
	ResultCorrect   QuestionResult = "correct"
	ResultIncorrect QuestionResult = "incorrect"
	ResultPending   QuestionResult = "pending"
)

// BreakdownEntry pairs the scanned student answer with the key answer it was
// compared against and the outcome of that comparison. CorrectAnswer is a
// snapshot: editing the answer key does not rewrite it, the sheet is flagged
// pending instead.
type BreakdownEntry struct {
	StudentAnswer string         `json:"student_answer"`
	CorrectAnswer string         `json:"correct_answer"`
	Result        QuestionResult `json:"result"`
}

// AnswerSheet is one student's scanned submission and derived score. It is
// keyed by (assessment, school ID); the school ID is whatever the student
// wrote on paper and may not match any enrolled account.
type AnswerSheet struct {
	SchoolID       string                    `json:"school_id"`
	TotalScore     int                       `json:"total_score"`
	TotalQuestions int                       `json:"total_questions"`
	IsFinal        bool                      `json:"is_final"`
	CheckedAt      time.Time                 `json:"checked_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	Breakdown      map[string]BreakdownEntry `json:"breakdown"`
	ImageRefs      store.FlexStrings         `json:"image_refs,omitempty"`
}

// CorrectCount counts breakdown entries graded correct.
func (s *AnswerSheet) CorrectCount() int {
	n := 0
	for _, entry := range s.Breakdown {
		if entry.Result == ResultCorrect {
			n++
		}
	}
	return n
}

// HasPending reports whether any breakdown entry still awaits a verdict.
func (s *AnswerSheet) HasPending() bool {
	for _, entry := range s.Breakdown {
		if entry.Result == ResultPending {
			return true
		}
	}
	return false
}

// SheetView decorates a sheet with the resolved student identity for
// display. Resolved is false when no approved enrollment carries the
// sheet's school ID; that is a displayable state, not an error.
type SheetView struct {
	AnswerSheet
	DisplayName string `json:"display_name"`
	Resolved    bool   `json:"resolved"`
}
