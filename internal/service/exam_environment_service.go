package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/examenv"
	"github.com/stemsi/examenv-backend/internal/metrics"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/repository"
	"github.com/stemsi/examenv-backend/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ExamCatalog looks up catalog exams.
type ExamCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.CatalogExam, error)
}

// GeneratedExamStore persists generated exams.
type GeneratedExamStore interface {
	Create(ctx context.Context, g *model.GeneratedExam) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.GeneratedExam, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttemptStore persists exam attempts. Create must return
// repository.ErrConflict when (user, exam, epoch) is already taken.
type AttemptStore interface {
	ListByUserAndExam(ctx context.Context, userID, examID uuid.UUID) ([]model.ExamAttempt, error)
	Create(ctx context.Context, a *model.ExamAttempt) error
	Update(ctx context.Context, a *model.ExamAttempt) error
}

// UserStore resolves users and the challenges they completed.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	CompletedChallengeIDs(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ExamSession is what the app receives when it starts or resumes an exam.
type ExamSession struct {
	Exam    *model.UserExam    `json:"exam"`
	Attempt *model.ExamAttempt `json:"exam_attempt"`
}

// ExamEnvironmentService sequences exam generation and attempt tracking.
type ExamEnvironmentService struct {
	catalog         ExamCatalog
	generated       GeneratedExamStore
	attempts        AttemptStore
	users           UserStore
	generator       *examenv.Generator
	allowRetraction bool
	now             func() time.Time
	log             zerolog.Logger
}

// NewExamEnvironmentService creates a new ExamEnvironmentService.
// allowRetraction controls whether a submission may drop answers recorded earlier.
func NewExamEnvironmentService(
	catalog ExamCatalog,
	generated GeneratedExamStore,
	attempts AttemptStore,
	users UserStore,
	allowRetraction bool,
	log zerolog.Logger,
) *ExamEnvironmentService {
	return &ExamEnvironmentService{
		catalog:         catalog,
		generated:       generated,
		attempts:        attempts,
		users:           users,
		generator:       examenv.NewGenerator(nil),
		allowRetraction: allowRetraction,
		now:             time.Now,
		log:             log.With().Str("component", "exam_environment_service").Logger(),
	}
}

// GenerateExam starts a new attempt at examID for userID, or resumes the
// attempt in progress.
func (s *ExamEnvironmentService) GenerateExam(ctx context.Context, userID, examID uuid.UUID) (_ *ExamSession, err error) {
	ctx, span := tracing.Start(ctx, "ExamEnvironmentService.GenerateExam",
		attribute.String("user.id", userID.String()),
		attribute.String("exam.id", examID.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	completed, err := s.users.CompletedChallengeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed challenges: %w", err)
	}
	if !examenv.CheckPrerequisites(exam, completed) {
		metrics.ExamRequests.WithLabelValues("rejected").Inc()
		return nil, ErrPrerequisitesUnmet
	}

	attempts, err := s.attempts.ListByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	latest := examenv.LatestAttempt(attempts)
	now := s.now()

	switch examenv.Classify(latest, exam, now) {
	case examenv.StateInProgress:
		return s.resume(ctx, latest, exam)
	case examenv.StateCooldownLocked:
		metrics.ExamRequests.WithLabelValues("cooldown").Inc()
		until := examenv.CooldownEndsAt(latest, exam)
		s.log.Info().
			Str("user_id", userID.String()).
			Str("exam_id", examID.String()).
			Time("retake_at", until).
			Msg("Exam requested during cooldown")
		return nil, fmt.Errorf("%w: retake available at %s", ErrCooldownActive, until.UTC().Format(time.RFC3339))
	}

	// Deprecated exams stay resumable but accept no new attempts.
	if exam.Deprecated {
		return nil, ErrExamNotFound
	}

	return s.start(ctx, userID, exam, nextEpoch(attempts), now)
}

func (s *ExamEnvironmentService) start(ctx context.Context, userID uuid.UUID, exam *model.CatalogExam, epoch int, now time.Time) (*ExamSession, error) {
	generated, err := s.generator.Generate(exam)
	if err != nil {
		return nil, fmt.Errorf("generate exam: %w", err)
	}
	userExam, err := examenv.ConstructUserExam(generated, exam)
	if err != nil {
		return nil, fmt.Errorf("construct user exam: %w", err)
	}

	if err := s.generated.Create(ctx, generated); err != nil {
		return nil, fmt.Errorf("store generated exam: %w", err)
	}

	attempt := &model.ExamAttempt{
		UserID:          userID,
		ExamID:          exam.ID,
		GeneratedExamID: generated.ID,
		Epoch:           epoch,
		StartTimeInMS:   now.UnixMilli(),
		QuestionSets:    []model.AttemptQuestionSet{},
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.unwind(ctx, generated.ID, err)
		if errors.Is(err, repository.ErrConflict) {
			return s.resumeWinner(ctx, userID, exam)
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	metrics.ExamRequests.WithLabelValues("generated").Inc()
	s.log.Info().
		Str("user_id", userID.String()).
		Str("exam_id", exam.ID.String()).
		Str("attempt_id", attempt.ID.String()).
		Str("generated_exam_id", generated.ID.String()).
		Int("epoch", epoch).
		Msg("Exam generated")

	return &ExamSession{Exam: userExam, Attempt: attempt}, nil
}

// unwind deletes a generated exam whose attempt could not be created.
func (s *ExamEnvironmentService) unwind(ctx context.Context, generatedExamID uuid.UUID, cause error) {
	metrics.GeneratedExamUnwinds.Inc()
	if err := s.generated.Delete(context.WithoutCancel(ctx), generatedExamID); err != nil {
		s.log.Error().
			Err(err).
			AnErr("cause", cause).
			Str("generated_exam_id", generatedExamID.String()).
			Msg("Failed to delete orphaned generated exam")
		return
	}
	s.log.Warn().
		AnErr("cause", cause).
		Str("generated_exam_id", generatedExamID.String()).
		Msg("Generated exam unwound")
}

// resumeWinner returns the attempt of a concurrent request that started the
// same epoch first.
func (s *ExamEnvironmentService) resumeWinner(ctx context.Context, userID uuid.UUID, exam *model.CatalogExam) (*ExamSession, error) {
	attempts, err := s.attempts.ListByUserAndExam(ctx, userID, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", err)
	}
	latest := examenv.LatestAttempt(attempts)
	if latest == nil || examenv.Classify(latest, exam, s.now()) != examenv.StateInProgress {
		return nil, fmt.Errorf("concurrent start detected: %w", repository.ErrConflict)
	}
	return s.resume(ctx, latest, exam)
}

func (s *ExamEnvironmentService) resume(ctx context.Context, attempt *model.ExamAttempt, exam *model.CatalogExam) (*ExamSession, error) {
	generated, err := s.getGeneratedExam(ctx, attempt.GeneratedExamID)
	if err != nil {
		return nil, err
	}
	userExam, err := examenv.ConstructUserExam(generated, exam)
	if err != nil {
		return nil, fmt.Errorf("construct user exam: %w", err)
	}

	metrics.ExamRequests.WithLabelValues("resumed").Inc()
	s.log.Info().
		Str("user_id", attempt.UserID.String()).
		Str("exam_id", exam.ID.String()).
		Str("attempt_id", attempt.ID.String()).
		Msg("Attempt resumed")

	return &ExamSession{Exam: userExam, Attempt: attempt}, nil
}

// SubmitAttempt merges the submitted answers into the user's latest attempt
// and stores the result.
//
// The attempt is stored even when the submission fails validation; it is then
// flagged as needing a retake and the *examenv.ValidationError is returned.
func (s *ExamEnvironmentService) SubmitAttempt(ctx context.Context, userID uuid.UUID, req *model.SubmitAttemptRequest) (err error) {
	ctx, span := tracing.Start(ctx, "ExamEnvironmentService.SubmitAttempt",
		attribute.String("user.id", userID.String()),
		attribute.String("exam.id", req.Attempt.ExamID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	examID, err := uuid.Parse(req.Attempt.ExamID)
	if err != nil {
		return ErrExamNotFound
	}

	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}

	attempts, err := s.attempts.ListByUserAndExam(ctx, userID, examID)
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}
	latest := examenv.LatestAttempt(attempts)
	if latest == nil {
		return ErrNoAttempt
	}

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return err
	}

	now := s.now()
	if examenv.IsExpired(latest, exam, now) {
		metrics.AttemptSubmissions.WithLabelValues("expired").Inc()
		return ErrAttemptExpired
	}

	generated, err := s.getGeneratedExam(ctx, latest.GeneratedExamID)
	if err != nil {
		return err
	}

	merged := examenv.MergeQuestionSets(req.Attempt.QuestionSets, latest.QuestionSets, now.UnixMilli(), s.allowRetraction)
	complete := examenv.CheckAttemptAgainstGeneratedExam(merged, generated)
	invalid := examenv.ValidateAttempt(generated, merged)

	latest.QuestionSets = merged
	latest.SubmissionTimeInMS = nil
	if complete {
		submitted := now.UnixMilli()
		latest.SubmissionTimeInMS = &submitted
	}
	latest.NeedsRetake = invalid != nil

	updateErr := s.attempts.Update(ctx, latest)

	switch {
	case invalid != nil:
		metrics.AttemptSubmissions.WithLabelValues("invalid").Inc()
	case complete:
		metrics.AttemptSubmissions.WithLabelValues("complete").Inc()
	default:
		metrics.AttemptSubmissions.WithLabelValues("partial").Inc()
	}

	if updateErr != nil && invalid != nil {
		s.log.Error().
			Err(updateErr).
			Str("attempt_id", latest.ID.String()).
			Msg("Failed to store invalid attempt")
	}
	if invalid != nil {
		s.log.Warn().
			Err(invalid).
			Str("user_id", userID.String()).
			Str("attempt_id", latest.ID.String()).
			Msg("Attempt flagged for retake")
		return invalid
	}
	if updateErr != nil {
		return fmt.Errorf("update attempt: %w", updateErr)
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("attempt_id", latest.ID.String()).
		Bool("complete", complete).
		Bool("needs_retake", latest.NeedsRetake).
		Msg("Attempt updated")
	return nil
}

func (s *ExamEnvironmentService) getExam(ctx context.Context, id uuid.UUID) (*model.CatalogExam, error) {
	exam, err := s.catalog.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

func (s *ExamEnvironmentService) getUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *ExamEnvironmentService) getGeneratedExam(ctx context.Context, id uuid.UUID) (*model.GeneratedExam, error) {
	generated, err := s.generated.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Error().Str("generated_exam_id", id.String()).Msg("Attempt references a missing generated exam")
		return nil, ErrGeneratedExamMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get generated exam: %w", err)
	}
	return generated, nil
}

func nextEpoch(attempts []model.ExamAttempt) int {
	epoch := 0
	for _, a := range attempts {
		epoch = max(epoch, a.Epoch)
	}
	return epoch + 1
}
