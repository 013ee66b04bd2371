// Package memory provides in-memory repositories with the same contracts as
// the Postgres ones. They back the "memory" storage driver and the tests.
package memory

import (
	"slices"

	"github.com/stemsi/examenv-backend/internal/model"
)

// The store hands out copies so callers never share slices with it.

func cloneExam(e *model.CatalogExam) *model.CatalogExam {
	c := *e
	c.Prerequisites = slices.Clone(e.Prerequisites)
	c.QuestionSets = make([]model.QuestionSet, len(e.QuestionSets))
	for i, set := range e.QuestionSets {
		set.Questions = slices.Clone(set.Questions)
		for j, q := range set.Questions {
			q.Tags = slices.Clone(q.Tags)
			q.Answers = slices.Clone(q.Answers)
			set.Questions[j] = q
		}
		c.QuestionSets[i] = set
	}
	return &c
}

func cloneGeneratedExam(g *model.GeneratedExam) *model.GeneratedExam {
	c := *g
	c.QuestionSets = make([]model.GeneratedQuestionSet, len(g.QuestionSets))
	for i, set := range g.QuestionSets {
		set.Questions = slices.Clone(set.Questions)
		for j := range set.Questions {
			set.Questions[j].Answers = slices.Clone(set.Questions[j].Answers)
		}
		c.QuestionSets[i] = set
	}
	return &c
}

func cloneAttemptSets(sets []model.AttemptQuestionSet) []model.AttemptQuestionSet {
	if sets == nil {
		return nil
	}
	c := make([]model.AttemptQuestionSet, len(sets))
	for i, set := range sets {
		set.Questions = slices.Clone(set.Questions)
		for j := range set.Questions {
			set.Questions[j].Answers = slices.Clone(set.Questions[j].Answers)
		}
		c[i] = set
	}
	return c
}

func cloneAttempt(a *model.ExamAttempt) *model.ExamAttempt {
	c := *a
	if a.SubmissionTimeInMS != nil {
		v := *a.SubmissionTimeInMS
		c.SubmissionTimeInMS = &v
	}
	c.QuestionSets = cloneAttemptSets(a.QuestionSets)
	return &c
}
