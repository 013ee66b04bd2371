package examenv

import (
	"testing"

	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findQuestion(sets []model.AttemptQuestionSet, setID, questionID string) (model.AttemptQuestion, bool) {
	for _, set := range sets {
		if set.ID != setID {
			continue
		}
		for _, q := range set.Questions {
			if q.ID == questionID {
				return q, true
			}
		}
	}
	return model.AttemptQuestion{}, false
}

func TestMergeQuestionSets(t *testing.T) {
	previous := []model.AttemptQuestionSet{{
		ID: "set-1",
		Questions: []model.AttemptQuestion{
			{ID: "q1", Answers: []string{"q1-a"}, SubmissionTimeInMS: 1_000},
			{ID: "q2", Answers: []string{"q2-b"}, SubmissionTimeInMS: 2_000},
		},
	}}

	t.Run("unchanged answers keep their submission time", func(t *testing.T) {
		submitted := []model.AttemptQuestionSet{{
			ID: "set-1",
			Questions: []model.AttemptQuestion{
				{ID: "q1", Answers: []string{"q1-a"}},
				{ID: "q2", Answers: []string{"q2-c"}},
			},
		}}
		merged := MergeQuestionSets(submitted, previous, 9_000, true)

		q1, ok := findQuestion(merged, "set-1", "q1")
		require.True(t, ok)
		assert.Equal(t, int64(1_000), q1.SubmissionTimeInMS)

		q2, ok := findQuestion(merged, "set-1", "q2")
		require.True(t, ok)
		assert.Equal(t, int64(9_000), q2.SubmissionTimeInMS)
		assert.Equal(t, []string{"q2-c"}, q2.Answers)
	})

	t.Run("answer order does not count as a change", func(t *testing.T) {
		prev := []model.AttemptQuestionSet{{ID: "set-1", Questions: []model.AttemptQuestion{
			{ID: "q1", Answers: []string{"q1-a", "q1-b"}, SubmissionTimeInMS: 1_000},
		}}}
		submitted := []model.AttemptQuestionSet{{ID: "set-1", Questions: []model.AttemptQuestion{
			{ID: "q1", Answers: []string{"q1-b", "q1-a"}},
		}}}
		merged := MergeQuestionSets(submitted, prev, 9_000, true)
		q1, ok := findQuestion(merged, "set-1", "q1")
		require.True(t, ok)
		assert.Equal(t, int64(1_000), q1.SubmissionTimeInMS)
	})

	t.Run("retraction drops questions left out", func(t *testing.T) {
		submitted := []model.AttemptQuestionSet{{
			ID:        "set-1",
			Questions: []model.AttemptQuestion{{ID: "q1", Answers: []string{"q1-a"}}},
		}}
		merged := MergeQuestionSets(submitted, previous, 9_000, true)
		_, ok := findQuestion(merged, "set-1", "q2")
		assert.False(t, ok)
	})

	t.Run("empty answers retract", func(t *testing.T) {
		submitted := []model.AttemptQuestionSet{{
			ID: "set-1",
			Questions: []model.AttemptQuestion{
				{ID: "q1", Answers: []string{}},
				{ID: "q2", Answers: []string{"q2-b"}},
			},
		}}
		merged := MergeQuestionSets(submitted, previous, 9_000, true)
		_, ok := findQuestion(merged, "set-1", "q1")
		assert.False(t, ok)
	})

	t.Run("without retraction recorded answers are carried over", func(t *testing.T) {
		submitted := []model.AttemptQuestionSet{{
			ID:        "set-2",
			Questions: []model.AttemptQuestion{{ID: "q9", Answers: []string{"q9-a"}}},
		}}
		merged := MergeQuestionSets(submitted, previous, 9_000, false)

		q1, ok := findQuestion(merged, "set-1", "q1")
		require.True(t, ok)
		assert.Equal(t, int64(1_000), q1.SubmissionTimeInMS)
		q2, ok := findQuestion(merged, "set-1", "q2")
		require.True(t, ok)
		assert.Equal(t, []string{"q2-b"}, q2.Answers)
		q9, ok := findQuestion(merged, "set-2", "q9")
		require.True(t, ok)
		assert.Equal(t, int64(9_000), q9.SubmissionTimeInMS)
	})

	t.Run("empty submission clears everything with retraction", func(t *testing.T) {
		assert.Empty(t, MergeQuestionSets(nil, previous, 9_000, true))
	})

	t.Run("does not alias the submission", func(t *testing.T) {
		answers := []string{"q1-a"}
		submitted := []model.AttemptQuestionSet{{ID: "set-1", Questions: []model.AttemptQuestion{{ID: "q1", Answers: answers}}}}
		merged := MergeQuestionSets(submitted, nil, 9_000, true)
		answers[0] = "changed"
		q1, ok := findQuestion(merged, "set-1", "q1")
		require.True(t, ok)
		assert.Equal(t, []string{"q1-a"}, q1.Answers)
	})

	t.Run("repeated questions are kept for validation", func(t *testing.T) {
		submitted := []model.AttemptQuestionSet{{ID: "set-1", Questions: []model.AttemptQuestion{
			{ID: "q3", Answers: []string{"q3-a"}},
			{ID: "q3", Answers: []string{"q3-b"}},
		}}}
		generated := &model.GeneratedExam{QuestionSets: []model.GeneratedQuestionSet{{
			ID:        "set-1",
			Questions: []model.GeneratedQuestion{{ID: "q3", Answers: []string{"q3-a", "q3-b"}}},
		}}}

		merged := MergeQuestionSets(submitted, nil, 9_000, true)
		require.Len(t, merged, 1)
		require.Len(t, merged[0].Questions, 2)

		var verr *ValidationError
		require.ErrorAs(t, ValidateAttempt(generated, merged), &verr)
		assert.Contains(t, verr.Problems, `question "q3" recorded twice in set "set-1"`)
	})
}
