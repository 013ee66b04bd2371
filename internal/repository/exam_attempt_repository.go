package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examenv-backend/internal/model"
)

// ExamAttemptRepository handles exam attempt data access.
type ExamAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewExamAttemptRepository creates a new ExamAttemptRepository.
func NewExamAttemptRepository(pool *pgxpool.Pool) *ExamAttemptRepository {
	return &ExamAttemptRepository{pool: pool}
}

const attemptColumns = `id, user_id, exam_id, generated_exam_id, epoch, start_time_in_ms,
	submission_time_in_ms, question_sets, needs_retake, created_at, updated_at`

func scanAttempt(row pgx.Row) (*model.ExamAttempt, error) {
	var (
		a    model.ExamAttempt
		sets []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.ExamID, &a.GeneratedExamID, &a.Epoch, &a.StartTimeInMS,
		&a.SubmissionTimeInMS, &sets, &a.NeedsRetake, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sets, &a.QuestionSets); err != nil {
		return nil, fmt.Errorf("decode attempt %s: %w", a.ID, err)
	}
	return &a, nil
}

// ListByUserAndExam returns every attempt of a user at an exam, newest first.
func (r *ExamAttemptRepository) ListByUserAndExam(ctx context.Context, userID, examID uuid.UUID) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE user_id = $1 AND exam_id = $2
		 ORDER BY start_time_in_ms DESC, epoch DESC`, userID, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.ExamAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// Create inserts a new attempt. It returns ErrConflict when the user already
// has an attempt at the exam with the same epoch.
func (r *ExamAttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	sets, err := json.Marshal(nonNilSets(a.QuestionSets))
	if err != nil {
		return fmt.Errorf("encode question sets: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (user_id, exam_id, generated_exam_id, epoch, start_time_in_ms,
		                            submission_time_in_ms, question_sets, needs_retake)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, exam_id, epoch) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.ExamID, a.GeneratedExamID, a.Epoch, a.StartTimeInMS,
		a.SubmissionTimeInMS, sets, a.NeedsRetake,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// DO NOTHING returned no row: another request won the epoch.
		return ErrConflict
	}
	return translate(err)
}

// Update replaces the recorded answers and outcome of an attempt.
func (r *ExamAttemptRepository) Update(ctx context.Context, a *model.ExamAttempt) error {
	sets, err := json.Marshal(nonNilSets(a.QuestionSets))
	if err != nil {
		return fmt.Errorf("encode question sets: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`UPDATE exam_attempts
		 SET submission_time_in_ms = $1, question_sets = $2, needs_retake = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING updated_at`,
		a.SubmissionTimeInMS, sets, a.NeedsRetake, a.ID,
	).Scan(&a.UpdatedAt)
	return translate(err)
}

func nonNilSets(sets []model.AttemptQuestionSet) []model.AttemptQuestionSet {
	if sets == nil {
		return []model.AttemptQuestionSet{}
	}
	return sets
}
