package examenv

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T) *model.GeneratedExam {
	t.Helper()
	generated, err := NewGenerator(rand.NewPCG(3, 5)).Generate(twoOfFiveExam())
	require.NoError(t, err)
	return generated
}

func TestValidateCatalogExam(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.CatalogExam)
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.CatalogExam) {}},
		{name: "missing id", mutate: func(e *model.CatalogExam) { e.ID = uuid.Nil }, wantErr: true},
		{name: "no time", mutate: func(e *model.CatalogExam) { e.Config.TotalTimeInMS = 0 }, wantErr: true},
		{name: "no sets", mutate: func(e *model.CatalogExam) { e.QuestionSets = nil }, wantErr: true},
		{name: "selection exceeds pool", mutate: func(e *model.CatalogExam) { e.QuestionSets[0].NumberOfQuestions = 9 }, wantErr: true},
		{name: "duplicate set", mutate: func(e *model.CatalogExam) {
			e.QuestionSets = append(e.QuestionSets, e.QuestionSets[0])
		}, wantErr: true},
		{name: "duplicate question", mutate: func(e *model.CatalogExam) {
			e.QuestionSets[0].Questions[1].ID = "q1"
		}, wantErr: true},
		{name: "no correct answer", mutate: func(e *model.CatalogExam) {
			e.QuestionSets[0].Questions[0].Answers[0].IsCorrect = false
		}, wantErr: true},
		{name: "incorrect answers without a correct one", mutate: func(e *model.CatalogExam) {
			e.QuestionSets[0].NumberOfIncorrectAnswers = 1
		}, wantErr: true},
		{name: "negative answer count", mutate: func(e *model.CatalogExam) {
			e.QuestionSets[0].NumberOfCorrectAnswers = -1
		}, wantErr: true},
		{name: "one correct and one incorrect", mutate: func(e *model.CatalogExam) {
			e.QuestionSets[0].NumberOfCorrectAnswers = 1
			e.QuestionSets[0].NumberOfIncorrectAnswers = 1
		}},
		{name: "deprecated question without answers is ignored", mutate: func(e *model.CatalogExam) {
			e.QuestionSets[0].Questions[0].Deprecated = true
			e.QuestionSets[0].Questions[0].Answers = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam := twoOfFiveExam()
			tt.mutate(exam)
			err := ValidateCatalogExam(exam)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCatalog)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAttempt(t *testing.T) {
	generated := generate(t)
	served := generated.QuestionSets[0].Questions

	unservedQuestion := "q1"
	for _, candidate := range []string{"q1", "q2", "q3", "q4", "q5"} {
		if candidate != served[0].ID && candidate != served[1].ID {
			unservedQuestion = candidate
			break
		}
	}

	tests := []struct {
		name    string
		sets    func() []model.AttemptQuestionSet
		wantErr bool
	}{
		{name: "empty attempt", sets: func() []model.AttemptQuestionSet { return nil }},
		{name: "fully answered", sets: func() []model.AttemptQuestionSet { return answerAll(generated) }},
		{name: "partially answered", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions = sets[0].Questions[:1]
			return sets
		}},
		{name: "multiple served answers", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions[0].Answers = served[0].Answers[:2]
			return sets
		}},
		{name: "unknown question set", sets: func() []model.AttemptQuestionSet {
			return []model.AttemptQuestionSet{{ID: "set-x", Questions: []model.AttemptQuestion{{ID: served[0].ID, Answers: served[0].Answers[:1]}}}}
		}, wantErr: true},
		{name: "question not served", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions = append(sets[0].Questions, model.AttemptQuestion{ID: unservedQuestion, Answers: []string{unservedQuestion + "-a"}})
			return sets
		}, wantErr: true},
		{name: "answer not served", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions[0].Answers = []string{"made-up"}
			return sets
		}, wantErr: true},
		{name: "answer from another question", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions[0].Answers = []string{served[1].Answers[0]}
			return sets
		}, wantErr: true},
		{name: "duplicate answer", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			a := served[0].Answers[0]
			sets[0].Questions[0].Answers = []string{a, a}
			return sets
		}, wantErr: true},
		{name: "duplicate question", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions = append(sets[0].Questions, sets[0].Questions[0])
			return sets
		}, wantErr: true},
		{name: "missing question id", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions[0].ID = ""
			return sets
		}, wantErr: true},
		{name: "question without answers", sets: func() []model.AttemptQuestionSet {
			sets := answerAll(generated)
			sets[0].Questions[0].Answers = nil
			return sets
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttempt(generated, tt.sets())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAttempt)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.NotEmpty(t, verr.Problems)
		})
	}
}

func TestCheckAttemptAgainstGeneratedExam(t *testing.T) {
	generated := generate(t)
	served := generated.QuestionSets[0].Questions

	complete := answerAll(generated)
	assert.True(t, CheckAttemptAgainstGeneratedExam(complete, generated))

	t.Run("extra unrelated answers do not matter", func(t *testing.T) {
		sets := answerAll(generated)
		sets[0].Questions = append(sets[0].Questions, model.AttemptQuestion{ID: "not-served", Answers: []string{"x"}})
		sets = append(sets, model.AttemptQuestionSet{ID: "other", Questions: []model.AttemptQuestion{{ID: "y", Answers: []string{"z"}}}})
		assert.True(t, CheckAttemptAgainstGeneratedExam(sets, generated))
	})

	t.Run("removing one answer makes it incomplete", func(t *testing.T) {
		for i := range served {
			sets := answerAll(generated)
			sets[0].Questions = append(sets[0].Questions[:i:i], sets[0].Questions[i+1:]...)
			assert.False(t, CheckAttemptAgainstGeneratedExam(sets, generated))
		}
	})

	t.Run("empty answers count as unanswered", func(t *testing.T) {
		sets := answerAll(generated)
		sets[0].Questions[1].Answers = []string{}
		assert.False(t, CheckAttemptAgainstGeneratedExam(sets, generated))
	})

	t.Run("completeness ignores correctness", func(t *testing.T) {
		sets := answerAll(generated)
		sets[0].Questions[0].Answers = []string{"made-up"}
		assert.True(t, CheckAttemptAgainstGeneratedExam(sets, generated))
		assert.Error(t, ValidateAttempt(generated, sets))
	})

	assert.False(t, CheckAttemptAgainstGeneratedExam(nil, generated))
}
