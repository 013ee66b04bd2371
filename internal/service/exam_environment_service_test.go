package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/examenv"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var examID = uuid.MustParse("6f1c2b7e-4a53-4c0a-9a51-2d0f5a1e8b11")

func twoOfFiveExam() *model.CatalogExam {
	questions := make([]model.Question, 0, 5)
	for i := 1; i <= 5; i++ {
		questions = append(questions, model.Question{
			ID:   fmt.Sprintf("q%d", i),
			Text: fmt.Sprintf("Question %d", i),
			Answers: []model.Answer{
				{ID: fmt.Sprintf("q%d-a", i), Text: "right", IsCorrect: true},
				{ID: fmt.Sprintf("q%d-b", i), Text: "wrong"},
			},
		})
	}
	return &model.CatalogExam{
		ID:     examID,
		Config: model.ExamConfig{Name: "Certified Foundations", TotalTimeInMS: 3_600_000},
		QuestionSets: []model.QuestionSet{{
			ID:                "set-1",
			Type:              model.QuestionSetTypeMultipleChoice,
			Questions:         questions,
			NumberOfQuestions: 2,
		}},
	}
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *clock) Set(t time.Time) { c.t = t }

// failingAttempts fails Create or Update with the configured error.
type failingAttempts struct {
	*memory.ExamAttemptRepository
	createErr error
	updateErr error
}

func (f *failingAttempts) Create(ctx context.Context, a *model.ExamAttempt) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.ExamAttemptRepository.Create(ctx, a)
}

func (f *failingAttempts) Update(ctx context.Context, a *model.ExamAttempt) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.ExamAttemptRepository.Update(ctx, a)
}

type fixture struct {
	svc       *ExamEnvironmentService
	exams     *memory.ExamRepository
	generated *memory.GeneratedExamRepository
	attempts  *failingAttempts
	users     *memory.UserRepository
	clock     *clock
	user      *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		exams:     memory.NewExamRepository(twoOfFiveExam()),
		generated: memory.NewGeneratedExamRepository(),
		attempts:  &failingAttempts{ExamAttemptRepository: memory.NewExamAttemptRepository()},
		users:     memory.NewUserRepository(),
		clock:     &clock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		user:      &model.User{Email: "camper@example.com", Name: "Camper"},
	}
	f.users.Put(f.user)
	f.svc = NewExamEnvironmentService(f.exams, f.generated, f.attempts, f.users, true, zerolog.Nop())
	f.svc.now = f.clock.Now
	return f
}

func (f *fixture) generate(t *testing.T) *ExamSession {
	t.Helper()
	session, err := f.svc.GenerateExam(context.Background(), f.user.ID, examID)
	require.NoError(t, err)
	return session
}

func answerAll(exam *model.UserExam) []model.AttemptQuestionSet {
	sets := make([]model.AttemptQuestionSet, 0, len(exam.QuestionSets))
	for _, uset := range exam.QuestionSets {
		set := model.AttemptQuestionSet{ID: uset.ID}
		for _, q := range uset.Questions {
			set.Questions = append(set.Questions, model.AttemptQuestion{ID: q.ID, Answers: []string{q.ID + "-a"}})
		}
		sets = append(sets, set)
	}
	return sets
}

func submitRequest(sets []model.AttemptQuestionSet) *model.SubmitAttemptRequest {
	return &model.SubmitAttemptRequest{Attempt: model.UserAttempt{ExamID: examID.String(), QuestionSets: sets}}
}

func TestGenerateExamFirstAttempt(t *testing.T) {
	f := newFixture(t)
	session := f.generate(t)

	require.Len(t, session.Exam.QuestionSets, 1)
	questions := session.Exam.QuestionSets[0].Questions
	require.Len(t, questions, 2)
	assert.NotEqual(t, questions[0].ID, questions[1].ID)

	attempt := session.Attempt
	assert.Equal(t, 1, attempt.Epoch)
	assert.Equal(t, f.clock.Now().UnixMilli(), attempt.StartTimeInMS)
	assert.Nil(t, attempt.SubmissionTimeInMS)
	assert.Empty(t, attempt.QuestionSets)
	assert.False(t, attempt.NeedsRetake)

	_, err := f.generated.GetByID(context.Background(), attempt.GeneratedExamID)
	assert.NoError(t, err)
}

func TestGenerateExamResumesAttemptInProgress(t *testing.T) {
	f := newFixture(t)
	first := f.generate(t)

	f.clock.Advance(10 * time.Minute)
	second := f.generate(t)

	assert.Equal(t, first.Attempt.ID, second.Attempt.ID)
	assert.Equal(t, first.Attempt.GeneratedExamID, second.Attempt.GeneratedExamID)
	assert.Equal(t, first.Exam, second.Exam)
	assert.Equal(t, 1, f.generated.Len())
}

func TestGenerateExamCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.generate(t)

	f.clock.Advance(time.Second)
	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam))))
	submittedAt := f.clock.Now()

	f.clock.Set(submittedAt.Add(23*time.Hour + 59*time.Minute))
	_, err := f.svc.GenerateExam(ctx, f.user.ID, examID)
	assert.ErrorIs(t, err, ErrCooldownActive)

	f.clock.Set(submittedAt.Add(24*time.Hour + time.Minute))
	retake, err := f.svc.GenerateExam(ctx, f.user.ID, examID)
	require.NoError(t, err)
	assert.NotEqual(t, session.Attempt.ID, retake.Attempt.ID)
	assert.Equal(t, 2, retake.Attempt.Epoch)
}

func TestGenerateExamCooldownAfterExpiry(t *testing.T) {
	f := newFixture(t)
	session := f.generate(t)
	deadline := time.UnixMilli(session.Attempt.StartTimeInMS).Add(time.Hour)

	f.clock.Set(deadline.Add(time.Minute))
	_, err := f.svc.GenerateExam(context.Background(), f.user.ID, examID)
	assert.ErrorIs(t, err, ErrCooldownActive)

	f.clock.Set(deadline.Add(24*time.Hour + time.Millisecond))
	retake := f.generate(t)
	assert.NotEqual(t, session.Attempt.GeneratedExamID, retake.Attempt.GeneratedExamID)
}

func TestGenerateExamUnwindsGeneratedExam(t *testing.T) {
	f := newFixture(t)
	f.attempts.createErr = errors.New("connection reset")

	_, err := f.svc.GenerateExam(context.Background(), f.user.ID, examID)
	require.Error(t, err)
	assert.Zero(t, f.generated.Len())

	attempts, err := f.attempts.ListByUserAndExam(context.Background(), f.user.ID, examID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

// racingAttempts lets another request win the epoch just before Create runs.
type racingAttempts struct {
	*memory.ExamAttemptRepository
	winner *model.ExamAttempt
}

func (r *racingAttempts) Create(ctx context.Context, a *model.ExamAttempt) error {
	if r.winner != nil {
		w := r.winner
		r.winner = nil
		if err := r.ExamAttemptRepository.Create(ctx, w); err != nil {
			return err
		}
	}
	return r.ExamAttemptRepository.Create(ctx, a)
}

func TestGenerateExamConcurrentStartResumesWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	winnerExam := &model.GeneratedExam{ExamID: examID, QuestionSets: []model.GeneratedQuestionSet{{
		ID:        "set-1",
		Questions: []model.GeneratedQuestion{{ID: "q1", Answers: []string{"q1-a", "q1-b"}}, {ID: "q2", Answers: []string{"q2-b", "q2-a"}}},
	}}}
	require.NoError(t, f.generated.Create(ctx, winnerExam))

	racing := &racingAttempts{
		ExamAttemptRepository: memory.NewExamAttemptRepository(),
		winner: &model.ExamAttempt{
			UserID:          f.user.ID,
			ExamID:          examID,
			GeneratedExamID: winnerExam.ID,
			Epoch:           1,
			StartTimeInMS:   f.clock.Now().UnixMilli(),
		},
	}
	f.svc.attempts = racing

	session, err := f.svc.GenerateExam(ctx, f.user.ID, examID)
	require.NoError(t, err)
	assert.Equal(t, winnerExam.ID, session.Attempt.GeneratedExamID)
	assert.Equal(t, 1, f.generated.Len(), "the losing generated exam is deleted")
}

func TestGenerateExamErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown exam", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GenerateExam(ctx, f.user.ID, uuid.New())
		assert.ErrorIs(t, err, ErrExamNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GenerateExam(ctx, uuid.New(), examID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("prerequisites unmet", func(t *testing.T) {
		f := newFixture(t)
		exam := twoOfFiveExam()
		exam.Prerequisites = []string{"challenge-1"}
		require.NoError(t, f.exams.Upsert(ctx, exam))

		_, err := f.svc.GenerateExam(ctx, f.user.ID, examID)
		assert.ErrorIs(t, err, ErrPrerequisitesUnmet)
		assert.Zero(t, f.generated.Len())

		f.users.CompleteChallenge(f.user.ID, "challenge-1")
		_, err = f.svc.GenerateExam(ctx, f.user.ID, examID)
		assert.NoError(t, err)
	})

	t.Run("deprecated exam takes no new attempts", func(t *testing.T) {
		f := newFixture(t)
		exam := twoOfFiveExam()
		exam.Deprecated = true
		require.NoError(t, f.exams.Upsert(ctx, exam))

		_, err := f.svc.GenerateExam(ctx, f.user.ID, examID)
		assert.ErrorIs(t, err, ErrExamNotFound)
	})

	t.Run("resume with missing generated exam", func(t *testing.T) {
		f := newFixture(t)
		session := f.generate(t)
		require.NoError(t, f.generated.Delete(ctx, session.Attempt.GeneratedExamID))

		_, err := f.svc.GenerateExam(ctx, f.user.ID, examID)
		assert.ErrorIs(t, err, ErrGeneratedExamMissing)
	})
}

func TestSubmitAttemptCompletesAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.generate(t)

	f.clock.Advance(time.Second)
	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam))))

	attempts, err := f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	got := attempts[0]
	assert.False(t, got.NeedsRetake)
	require.NotNil(t, got.SubmissionTimeInMS)
	assert.Equal(t, session.Attempt.StartTimeInMS+1000, *got.SubmissionTimeInMS)
	for _, q := range got.QuestionSets[0].Questions {
		assert.Equal(t, session.Attempt.StartTimeInMS+1000, q.SubmissionTimeInMS)
	}
}

func TestSubmitAttemptPartialThenRetract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.generate(t)

	sets := answerAll(session.Exam)
	sets[0].Questions = sets[0].Questions[:1]
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(sets)))

	attempts, err := f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
	require.NoError(t, err)
	assert.Nil(t, attempts[0].SubmissionTimeInMS)
	require.Len(t, attempts[0].QuestionSets, 1)
	assert.Len(t, attempts[0].QuestionSets[0].Questions, 1)

	// Completing and then retracting an answer clears the submission time.
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam))))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(sets)))

	attempts, err = f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
	require.NoError(t, err)
	assert.Nil(t, attempts[0].SubmissionTimeInMS)
}

func TestSubmitAttemptWithoutRetraction(t *testing.T) {
	f := newFixture(t)
	f.svc.allowRetraction = false
	ctx := context.Background()
	session := f.generate(t)

	all := answerAll(session.Exam)
	first := []model.AttemptQuestionSet{{ID: all[0].ID, Questions: all[0].Questions[:1]}}
	second := []model.AttemptQuestionSet{{ID: all[0].ID, Questions: all[0].Questions[1:]}}

	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(first)))
	require.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(second)))

	attempts, err := f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
	require.NoError(t, err)
	assert.NotNil(t, attempts[0].SubmissionTimeInMS, "answers accumulate into a complete attempt")
}

func TestSubmitAttemptExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("one millisecond before the deadline", func(t *testing.T) {
		f := newFixture(t)
		session := f.generate(t)
		f.clock.Set(time.UnixMilli(session.Attempt.StartTimeInMS + 3_600_000 - 1))
		assert.NoError(t, f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam))))
	})

	t.Run("one millisecond after the deadline", func(t *testing.T) {
		f := newFixture(t)
		session := f.generate(t)
		f.clock.Set(time.UnixMilli(session.Attempt.StartTimeInMS + 3_600_000 + 1))
		err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam)))
		assert.ErrorIs(t, err, ErrAttemptExpired)

		attempts, lerr := f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
		require.NoError(t, lerr)
		assert.Empty(t, attempts[0].QuestionSets)
	})
}

func TestSubmitAttemptInvalidIsStoredAndFlagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.generate(t)

	sets := answerAll(session.Exam)
	sets[0].Questions[0].Answers = []string{"not-served"}

	err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(sets))
	require.Error(t, err)
	assert.ErrorIs(t, err, examenv.ErrInvalidAttempt)

	attempts, lerr := f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
	require.NoError(t, lerr)
	assert.True(t, attempts[0].NeedsRetake)
	assert.NotNil(t, attempts[0].SubmissionTimeInMS, "completeness ignores validity")
}

func TestSubmitAttemptRepeatedQuestionIsFlagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.generate(t)

	sets := answerAll(session.Exam)
	q := sets[0].Questions[0]
	sets[0].Questions = append(sets[0].Questions, model.AttemptQuestion{ID: q.ID, Answers: []string{q.ID + "-b"}})

	err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(sets))
	var verr *examenv.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, fmt.Sprintf("question %q recorded twice in set %q", q.ID, sets[0].ID))

	attempts, lerr := f.attempts.ListByUserAndExam(ctx, f.user.ID, examID)
	require.NoError(t, lerr)
	assert.True(t, attempts[0].NeedsRetake)
}

func TestSubmitAttemptErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no attempt", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(nil))
		assert.ErrorIs(t, err, ErrNoAttempt)
	})

	t.Run("exam never started", func(t *testing.T) {
		f := newFixture(t)
		req := &model.SubmitAttemptRequest{Attempt: model.UserAttempt{ExamID: uuid.NewString()}}
		err := f.svc.SubmitAttempt(ctx, f.user.ID, req)
		assert.ErrorIs(t, err, ErrNoAttempt)
	})

	t.Run("missing generated exam", func(t *testing.T) {
		f := newFixture(t)
		session := f.generate(t)
		require.NoError(t, f.generated.Delete(ctx, session.Attempt.GeneratedExamID))
		err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam)))
		assert.ErrorIs(t, err, ErrGeneratedExamMissing)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t)
		session := f.generate(t)
		f.attempts.updateErr = io.ErrUnexpectedEOF
		err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(answerAll(session.Exam)))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("validation is reported over a store failure", func(t *testing.T) {
		f := newFixture(t)
		session := f.generate(t)
		f.attempts.updateErr = io.ErrUnexpectedEOF
		sets := answerAll(session.Exam)
		sets[0].Questions[0].Answers = []string{"not-served"}
		err := f.svc.SubmitAttempt(ctx, f.user.ID, submitRequest(sets))
		assert.ErrorIs(t, err, examenv.ErrInvalidAttempt)
	})
}

func TestNextEpoch(t *testing.T) {
	assert.Equal(t, 1, nextEpoch(nil))
	assert.Equal(t, 4, nextEpoch([]model.ExamAttempt{{Epoch: 3}, {Epoch: 1}}))
}
