package examenv

import (
	"slices"

	"github.com/stemsi/examenv-backend/internal/model"
)

// MergeQuestionSets folds a submission into the answers already recorded on
// an attempt and returns the question sets to persist.
//
// A question whose answers are unchanged keeps its original submission time;
// any other answered question is stamped with nowMS. Questions submitted with
// no answers count as unanswered. A question submitted more than once is
// kept once per copy.
//
// With allowRetraction, the submission replaces what was recorded, so a
// question left out of it is dropped. Without it, recorded questions missing
// from the submission are carried over unchanged.
func MergeQuestionSets(submitted, previous []model.AttemptQuestionSet, nowMS int64, allowRetraction bool) []model.AttemptQuestionSet {
	prev := make(map[string]map[string]model.AttemptQuestion, len(previous))
	for _, set := range previous {
		questions := make(map[string]model.AttemptQuestion, len(set.Questions))
		for _, q := range set.Questions {
			questions[q.ID] = q
		}
		prev[set.ID] = questions
	}

	merged := make([]model.AttemptQuestionSet, 0, len(submitted))
	// covered tracks what the submission already answered.
	covered := make(map[string]map[string]struct{}, len(submitted))
	setIndex := make(map[string]int, len(submitted))

	for _, set := range submitted {
		i, ok := setIndex[set.ID]
		if !ok {
			merged = append(merged, model.AttemptQuestionSet{ID: set.ID, Questions: []model.AttemptQuestion{}})
			i = len(merged) - 1
			setIndex[set.ID] = i
			covered[set.ID] = make(map[string]struct{}, len(set.Questions))
		}

		for _, q := range set.Questions {
			if len(q.Answers) == 0 {
				continue
			}
			// Repeats are kept so ValidateAttempt can reject them.
			covered[set.ID][q.ID] = struct{}{}

			stamp := nowMS
			if old, ok := prev[set.ID][q.ID]; ok && sameAnswers(old.Answers, q.Answers) {
				stamp = old.SubmissionTimeInMS
			}
			merged[i].Questions = append(merged[i].Questions, model.AttemptQuestion{
				ID:                 q.ID,
				Answers:            slices.Clone(q.Answers),
				SubmissionTimeInMS: stamp,
			})
		}
	}

	if !allowRetraction {
		for _, set := range previous {
			for _, q := range set.Questions {
				if _, ok := covered[set.ID][q.ID]; ok {
					continue
				}
				i, ok := setIndex[set.ID]
				if !ok {
					merged = append(merged, model.AttemptQuestionSet{ID: set.ID, Questions: []model.AttemptQuestion{}})
					i = len(merged) - 1
					setIndex[set.ID] = i
					covered[set.ID] = map[string]struct{}{}
				}
				covered[set.ID][q.ID] = struct{}{}
				merged[i].Questions = append(merged[i].Questions, q)
			}
		}
	}

	return slices.DeleteFunc(merged, func(set model.AttemptQuestionSet) bool {
		return len(set.Questions) == 0
	})
}

func sameAnswers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
