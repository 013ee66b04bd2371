package model

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedExam is the concrete selection of questions served for one attempt.
// It is immutable once persisted.
type GeneratedExam struct {
	ID           uuid.UUID              `json:"id"`
	ExamID       uuid.UUID              `json:"exam_id"`
	QuestionSets []GeneratedQuestionSet `json:"question_sets"`
	CreatedAt    time.Time              `json:"created_at"`
}

// GeneratedQuestionSet lists the questions selected from one catalog question set.
type GeneratedQuestionSet struct {
	ID        string              `json:"id"`
	Questions []GeneratedQuestion `json:"questions"`
}

// GeneratedQuestion lists the answer ids served for one question, in served order.
type GeneratedQuestion struct {
	ID      string   `json:"id"`
	Answers []string `json:"answers"`
}
