package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionSetType enumerates how a question set is presented.
type QuestionSetType string

const (
	QuestionSetTypeMultipleChoice QuestionSetType = "MultipleChoice"
	QuestionSetTypeDialogue       QuestionSetType = "Dialogue"
)

// CatalogExam is the static definition an exam is generated from.
type CatalogExam struct {
	ID            uuid.UUID     `json:"id" yaml:"-"`
	Config        ExamConfig    `json:"config" yaml:"config"`
	QuestionSets  []QuestionSet `json:"question_sets" yaml:"question_sets"`
	Prerequisites []string      `json:"prerequisites" yaml:"prerequisites"`
	Deprecated    bool          `json:"deprecated" yaml:"deprecated"`
	CreatedAt     time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time     `json:"updated_at" yaml:"-"`
}

// ExamConfig holds the presentation and timing settings of a catalog exam.
type ExamConfig struct {
	Name          string `json:"name" yaml:"name"`
	Note          string `json:"note" yaml:"note"`
	TotalTimeInMS int64  `json:"total_time_in_ms" yaml:"total_time_in_ms"`
}

// TotalTime returns the allotted exam time as a duration.
func (c ExamConfig) TotalTime() time.Duration {
	return time.Duration(c.TotalTimeInMS) * time.Millisecond
}

// QuestionSet is a pool of candidate questions sharing one context.
// NumberOfQuestions questions are drawn from the pool for every generated exam.
// NumberOfCorrectAnswers and NumberOfIncorrectAnswers bound the answers served
// per question; when both are zero every answer is served.
type QuestionSet struct {
	ID                       string          `json:"id" yaml:"id"`
	Type                     QuestionSetType `json:"type" yaml:"type"`
	Context                  string          `json:"context,omitempty" yaml:"context"`
	Questions                []Question      `json:"questions" yaml:"questions"`
	NumberOfQuestions        int             `json:"number_of_questions" yaml:"number_of_questions"`
	NumberOfCorrectAnswers   int             `json:"number_of_correct_answers" yaml:"number_of_correct_answers"`
	NumberOfIncorrectAnswers int             `json:"number_of_incorrect_answers" yaml:"number_of_incorrect_answers"`
}

// Question is a single catalog question with its answer key.
type Question struct {
	ID         string   `json:"id" yaml:"id"`
	Text       string   `json:"text" yaml:"text"`
	Tags       []string `json:"tags,omitempty" yaml:"tags"`
	Deprecated bool     `json:"deprecated" yaml:"deprecated"`
	Answers    []Answer `json:"answers" yaml:"answers"`
}

// Answer is a candidate answer. IsCorrect never leaves the server.
type Answer struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}
