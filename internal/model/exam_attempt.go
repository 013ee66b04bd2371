package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamAttempt ties a user, a catalog exam and a generated exam together.
//
// Epoch counts the attempts a user has started for the exam. Storage keeps
// (user_id, exam_id, epoch) unique so two concurrent starts cannot both win.
type ExamAttempt struct {
	ID                 uuid.UUID            `json:"id"`
	UserID             uuid.UUID            `json:"user_id"`
	ExamID             uuid.UUID            `json:"exam_id"`
	GeneratedExamID    uuid.UUID            `json:"generated_exam_id"`
	Epoch              int                  `json:"epoch"`
	StartTimeInMS      int64                `json:"start_time_in_ms"`
	SubmissionTimeInMS *int64               `json:"submission_time_in_ms"`
	QuestionSets       []AttemptQuestionSet `json:"question_sets"`
	NeedsRetake        bool                 `json:"needs_retake"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// AttemptQuestionSet holds the recorded answers for one question set.
type AttemptQuestionSet struct {
	ID        string            `json:"id" binding:"required"`
	Questions []AttemptQuestion `json:"questions" binding:"dive"`
}

// AttemptQuestion holds the answer ids selected for one question.
type AttemptQuestion struct {
	ID                 string   `json:"id" binding:"required"`
	Answers            []string `json:"answers"`
	SubmissionTimeInMS int64    `json:"submission_time_in_ms"`
}

// GenerateExamRequest is the payload for starting or resuming an exam.
type GenerateExamRequest struct {
	ExamID string `json:"exam_id" binding:"required,uuid"`
}

// SubmitAttemptRequest is the payload for recording answers on the latest attempt.
type SubmitAttemptRequest struct {
	Attempt UserAttempt `json:"attempt" binding:"required"`
}

// UserAttempt is the client's view of its answers so far.
type UserAttempt struct {
	ExamID       string               `json:"exam_id" binding:"required,uuid"`
	QuestionSets []AttemptQuestionSet `json:"question_sets" binding:"dive"`
}
