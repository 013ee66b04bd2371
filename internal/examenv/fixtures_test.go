package examenv

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/model"
)

// twoOfFiveExam has one question set requiring 2 of 5 questions and one hour on the clock.
func twoOfFiveExam() *model.CatalogExam {
	questions := make([]model.Question, 0, 5)
	for i := 1; i <= 5; i++ {
		questions = append(questions, model.Question{
			ID:   fmt.Sprintf("q%d", i),
			Text: fmt.Sprintf("Question %d", i),
			Answers: []model.Answer{
				{ID: fmt.Sprintf("q%d-a", i), Text: "right", IsCorrect: true},
				{ID: fmt.Sprintf("q%d-b", i), Text: "wrong"},
				{ID: fmt.Sprintf("q%d-c", i), Text: "also wrong"},
			},
		})
	}
	return &model.CatalogExam{
		ID:     uuid.MustParse("6f1c2b7e-4a53-4c0a-9a51-2d0f5a1e8b11"),
		Config: model.ExamConfig{Name: "Certified Foundations", TotalTimeInMS: 3_600_000},
		QuestionSets: []model.QuestionSet{{
			ID:                "set-1",
			Type:              model.QuestionSetTypeMultipleChoice,
			Questions:         questions,
			NumberOfQuestions: 2,
		}},
	}
}

// answerAll records the first served answer of every question in generated.
func answerAll(generated *model.GeneratedExam) []model.AttemptQuestionSet {
	sets := make([]model.AttemptQuestionSet, 0, len(generated.QuestionSets))
	for _, gset := range generated.QuestionSets {
		set := model.AttemptQuestionSet{ID: gset.ID}
		for _, gq := range gset.Questions {
			set.Questions = append(set.Questions, model.AttemptQuestion{
				ID:      gq.ID,
				Answers: []string{gq.Answers[0]},
			})
		}
		sets = append(sets, set)
	}
	return sets
}
