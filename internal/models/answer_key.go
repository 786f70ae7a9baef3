package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// AnswerEssay marks a question the device cannot grade; sheets carry it as
// pending until a teacher records a verdict.
const AnswerEssay = "ESSAY"

// AnswerKey is the correct-answer reference for an assessment, written by
// the scanning device or edited question-by-question by a teacher. At most
// one exists per assessment.
type AnswerKey struct {
	QuestionCount int               `json:"question_count"`
	ScannedAt     time.Time         `json:"scanned_at"`
	Answers       map[string]string `json:"answers"`
}

// QuestionIDs returns the key's question identifiers in display order.
// Identifiers of the form Q<number> sort numerically, anything else sorts
// lexically after them.
func QuestionIDs(answers map[string]string) []string {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, iok := questionNumber(ids[i])
		nj, jok := questionNumber(ids[j])
		if iok && jok {
			return ni < nj
		}
		if iok != jok {
			return iok
		}
		return ids[i] < ids[j]
	})
	return ids
}

func questionNumber(id string) (int, bool) {
	trimmed := strings.TrimPrefix(strings.ToUpper(id), "Q")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}
