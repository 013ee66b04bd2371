package model

import "github.com/google/uuid"

// UserExam is the exam as sent to the exam environment app.
// It carries no answer key.
type UserExam struct {
	ID           uuid.UUID         `json:"id"`
	Config       UserExamConfig    `json:"config"`
	QuestionSets []UserQuestionSet `json:"question_sets"`
}

// UserExamConfig is the subset of ExamConfig the app needs to render the exam.
type UserExamConfig struct {
	Name          string `json:"name"`
	Note          string `json:"note"`
	TotalTimeInMS int64  `json:"total_time_in_ms"`
}

type UserQuestionSet struct {
	ID        string          `json:"id"`
	Type      QuestionSetType `json:"type"`
	Context   string          `json:"context,omitempty"`
	Questions []UserQuestion  `json:"questions"`
}

type UserQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Answers []UserAnswer `json:"answers"`
}

type UserAnswer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
