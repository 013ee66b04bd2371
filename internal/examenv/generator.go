// Package examenv holds the storage-free rules of the exam environment:
// generating exams from the catalog, checking submitted attempts against
// what was served, and deriving the lifecycle state of a user's attempts.
package examenv

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/stemsi/examenv-backend/internal/model"
)

// Generator draws randomized exams from catalog exams.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator drawing from src.
// A nil src uses the runtime's random source.
func NewGenerator(src rand.Source) *Generator {
	g := &Generator{}
	if src != nil {
		g.rnd = rand.New(src)
	}
	return g
}

func (g *Generator) perm(n int) []int {
	if g.rnd == nil {
		return rand.Perm(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Perm(n)
}

// Generate selects NumberOfQuestions questions without replacement from every
// question set of exam, along with the answers to serve for each of them.
// The returned exam has no ID; it is assigned when persisted.
func (g *Generator) Generate(exam *model.CatalogExam) (*model.GeneratedExam, error) {
	generated := &model.GeneratedExam{
		ExamID:       exam.ID,
		QuestionSets: make([]model.GeneratedQuestionSet, 0, len(exam.QuestionSets)),
	}

	for _, set := range exam.QuestionSets {
		if err := checkAnswerCounts(set); err != nil {
			return nil, err
		}

		pool := eligibleQuestions(set)
		if set.NumberOfQuestions < 1 || set.NumberOfQuestions > len(pool) {
			return nil, fmt.Errorf("%w: question set %q requires %d questions from a pool of %d",
				ErrInvalidCatalog, set.ID, set.NumberOfQuestions, len(pool))
		}

		order := g.perm(len(pool))
		questions := make([]model.GeneratedQuestion, 0, set.NumberOfQuestions)
		for _, idx := range order[:set.NumberOfQuestions] {
			q := pool[idx]
			answers, err := g.pickAnswers(set, q)
			if err != nil {
				return nil, err
			}
			questions = append(questions, model.GeneratedQuestion{ID: q.ID, Answers: answers})
		}

		generated.QuestionSets = append(generated.QuestionSets, model.GeneratedQuestionSet{
			ID:        set.ID,
			Questions: questions,
		})
	}

	return generated, nil
}

func (g *Generator) pickAnswers(set model.QuestionSet, q model.Question) ([]string, error) {
	if len(q.Answers) == 0 {
		return nil, fmt.Errorf("%w: question %q has no answers", ErrInvalidCatalog, q.ID)
	}

	var picked []string
	if set.NumberOfCorrectAnswers == 0 && set.NumberOfIncorrectAnswers == 0 {
		picked = make([]string, 0, len(q.Answers))
		for _, a := range q.Answers {
			picked = append(picked, a.ID)
		}
	} else {
		var correct, incorrect []string
		for _, a := range q.Answers {
			if a.IsCorrect {
				correct = append(correct, a.ID)
			} else {
				incorrect = append(incorrect, a.ID)
			}
		}
		if len(correct) < set.NumberOfCorrectAnswers || len(incorrect) < set.NumberOfIncorrectAnswers {
			return nil, fmt.Errorf("%w: question %q has %d correct and %d incorrect answers, needs %d and %d",
				ErrInvalidCatalog, q.ID, len(correct), len(incorrect),
				set.NumberOfCorrectAnswers, set.NumberOfIncorrectAnswers)
		}
		picked = append(g.sample(correct, set.NumberOfCorrectAnswers), g.sample(incorrect, set.NumberOfIncorrectAnswers)...)
	}

	// Served order must not reveal which answers are correct.
	shuffled := make([]string, len(picked))
	for i, idx := range g.perm(len(picked)) {
		shuffled[i] = picked[idx]
	}
	return shuffled, nil
}

func (g *Generator) sample(ids []string, n int) []string {
	out := make([]string, 0, n)
	for _, idx := range g.perm(len(ids))[:n] {
		out = append(out, ids[idx])
	}
	return out
}

func eligibleQuestions(set model.QuestionSet) []model.Question {
	pool := make([]model.Question, 0, len(set.Questions))
	for _, q := range set.Questions {
		if !q.Deprecated {
			pool = append(pool, q)
		}
	}
	return pool
}
