package examenv

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/model"
)

// ValidateCatalogExam checks that exam can always be generated.
func ValidateCatalogExam(exam *model.CatalogExam) error {
	if exam.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidCatalog)
	}
	if exam.Config.TotalTimeInMS <= 0 {
		return fmt.Errorf("%w: total time must be positive", ErrInvalidCatalog)
	}
	if len(exam.QuestionSets) == 0 {
		return fmt.Errorf("%w: no question sets", ErrInvalidCatalog)
	}

	setIDs := make(map[string]struct{}, len(exam.QuestionSets))
	for _, set := range exam.QuestionSets {
		if set.ID == "" {
			return fmt.Errorf("%w: question set without id", ErrInvalidCatalog)
		}
		if _, dup := setIDs[set.ID]; dup {
			return fmt.Errorf("%w: duplicate question set %q", ErrInvalidCatalog, set.ID)
		}
		setIDs[set.ID] = struct{}{}

		if err := checkAnswerCounts(set); err != nil {
			return err
		}

		pool := eligibleQuestions(set)
		if set.NumberOfQuestions < 1 || set.NumberOfQuestions > len(pool) {
			return fmt.Errorf("%w: question set %q requires %d questions from a pool of %d",
				ErrInvalidCatalog, set.ID, set.NumberOfQuestions, len(pool))
		}

		questionIDs := make(map[string]struct{}, len(set.Questions))
		for _, q := range set.Questions {
			if q.ID == "" {
				return fmt.Errorf("%w: question without id in set %q", ErrInvalidCatalog, set.ID)
			}
			if _, dup := questionIDs[q.ID]; dup {
				return fmt.Errorf("%w: duplicate question %q in set %q", ErrInvalidCatalog, q.ID, set.ID)
			}
			questionIDs[q.ID] = struct{}{}
			if q.Deprecated {
				continue
			}
			if err := validateCatalogAnswers(set, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkAnswerCounts rejects answer counts that could serve a question with no
// correct answer. Both counts zero means every answer is served.
func checkAnswerCounts(set model.QuestionSet) error {
	if set.NumberOfCorrectAnswers < 0 || set.NumberOfIncorrectAnswers < 0 {
		return fmt.Errorf("%w: question set %q has negative answer counts", ErrInvalidCatalog, set.ID)
	}
	if set.NumberOfCorrectAnswers == 0 && set.NumberOfIncorrectAnswers > 0 {
		return fmt.Errorf("%w: question set %q serves %d incorrect answers and no correct one",
			ErrInvalidCatalog, set.ID, set.NumberOfIncorrectAnswers)
	}
	return nil
}

func validateCatalogAnswers(set model.QuestionSet, q model.Question) error {
	if len(q.Answers) == 0 {
		return fmt.Errorf("%w: question %q has no answers", ErrInvalidCatalog, q.ID)
	}
	answerIDs := make(map[string]struct{}, len(q.Answers))
	correct := 0
	for _, a := range q.Answers {
		if a.ID == "" {
			return fmt.Errorf("%w: answer without id in question %q", ErrInvalidCatalog, q.ID)
		}
		if _, dup := answerIDs[a.ID]; dup {
			return fmt.Errorf("%w: duplicate answer %q in question %q", ErrInvalidCatalog, a.ID, q.ID)
		}
		answerIDs[a.ID] = struct{}{}
		if a.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return fmt.Errorf("%w: question %q has no correct answer", ErrInvalidCatalog, q.ID)
	}
	if correct < set.NumberOfCorrectAnswers || len(q.Answers)-correct < set.NumberOfIncorrectAnswers {
		return fmt.Errorf("%w: question %q cannot serve %d correct and %d incorrect answers",
			ErrInvalidCatalog, q.ID, set.NumberOfCorrectAnswers, set.NumberOfIncorrectAnswers)
	}
	return nil
}

// generatedIndex maps question set id -> question id -> served answer ids.
type generatedIndex map[string]map[string]map[string]struct{}

func indexGeneratedExam(generated *model.GeneratedExam) generatedIndex {
	idx := make(generatedIndex, len(generated.QuestionSets))
	for _, set := range generated.QuestionSets {
		questions := make(map[string]map[string]struct{}, len(set.Questions))
		for _, q := range set.Questions {
			answers := make(map[string]struct{}, len(q.Answers))
			for _, a := range q.Answers {
				answers[a] = struct{}{}
			}
			questions[q.ID] = answers
		}
		idx[set.ID] = questions
	}
	return idx
}

// ValidateAttempt checks that every recorded answer refers to a question set,
// question and answer that were served in generated. It reports every problem
// found as a *ValidationError, or nil when the attempt is valid.
//
// Validity says nothing about completeness: an attempt missing answers can be
// valid, see CheckAttemptAgainstGeneratedExam.
func ValidateAttempt(generated *model.GeneratedExam, questionSets []model.AttemptQuestionSet) error {
	idx := indexGeneratedExam(generated)
	verr := &ValidationError{}

	seenSets := make(map[string]struct{}, len(questionSets))
	for _, set := range questionSets {
		if set.ID == "" {
			verr.addf("question set without id")
			continue
		}
		if _, dup := seenSets[set.ID]; dup {
			verr.addf("question set %q recorded twice", set.ID)
			continue
		}
		seenSets[set.ID] = struct{}{}

		served, ok := idx[set.ID]
		if !ok {
			verr.addf("question set %q is not part of the generated exam", set.ID)
			continue
		}

		seenQuestions := make(map[string]struct{}, len(set.Questions))
		for _, q := range set.Questions {
			if q.ID == "" {
				verr.addf("question without id in set %q", set.ID)
				continue
			}
			if _, dup := seenQuestions[q.ID]; dup {
				verr.addf("question %q recorded twice in set %q", q.ID, set.ID)
				continue
			}
			seenQuestions[q.ID] = struct{}{}

			answers, ok := served[q.ID]
			if !ok {
				verr.addf("question %q is not part of generated set %q", q.ID, set.ID)
				continue
			}
			if len(q.Answers) == 0 {
				verr.addf("question %q has no answers", q.ID)
				continue
			}

			seenAnswers := make(map[string]struct{}, len(q.Answers))
			for _, a := range q.Answers {
				if _, ok := answers[a]; !ok {
					verr.addf("answer %q was not served for question %q", a, q.ID)
					continue
				}
				if _, dup := seenAnswers[a]; dup {
					verr.addf("answer %q selected twice for question %q", a, q.ID)
					continue
				}
				seenAnswers[a] = struct{}{}
			}
		}
	}

	return verr.orNil()
}

// CheckAttemptAgainstGeneratedExam reports whether every question of every
// question set in generated has at least one recorded answer. Entries that are
// not part of generated are ignored.
func CheckAttemptAgainstGeneratedExam(questionSets []model.AttemptQuestionSet, generated *model.GeneratedExam) bool {
	answered := make(map[string]map[string]bool, len(questionSets))
	for _, set := range questionSets {
		questions, ok := answered[set.ID]
		if !ok {
			questions = make(map[string]bool, len(set.Questions))
			answered[set.ID] = questions
		}
		for _, q := range set.Questions {
			if len(q.Answers) > 0 {
				questions[q.ID] = true
			}
		}
	}

	for _, set := range generated.QuestionSets {
		for _, q := range set.Questions {
			if !answered[set.ID][q.ID] {
				return false
			}
		}
	}
	return true
}
