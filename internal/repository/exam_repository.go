package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examenv-backend/internal/model"
)

// ExamRepository handles catalog exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, config, question_sets, prerequisites, deprecated, created_at, updated_at`

func scanExam(row pgx.Row) (*model.CatalogExam, error) {
	var (
		e            model.CatalogExam
		config, sets []byte
	)
	if err := row.Scan(&e.ID, &config, &sets, &e.Prerequisites, &e.Deprecated, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(config, &e.Config); err != nil {
		return nil, fmt.Errorf("decode exam %s config: %w", e.ID, err)
	}
	if err := json.Unmarshal(sets, &e.QuestionSets); err != nil {
		return nil, fmt.Errorf("decode exam %s question sets: %w", e.ID, err)
	}
	return &e, nil
}

// GetByID retrieves a catalog exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CatalogExam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// ListActive returns every exam that is not deprecated.
// Used for cache prewarming on application startup.
func (r *ExamRepository) ListActive(ctx context.Context) ([]model.CatalogExam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE deprecated = FALSE ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.CatalogExam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Upsert inserts a catalog exam or replaces the one with the same id.
func (r *ExamRepository) Upsert(ctx context.Context, e *model.CatalogExam) error {
	config, err := json.Marshal(e.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	sets, err := json.Marshal(e.QuestionSets)
	if err != nil {
		return fmt.Errorf("encode question sets: %w", err)
	}
	prerequisites := e.Prerequisites
	if prerequisites == nil {
		prerequisites = []string{}
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, config, question_sets, prerequisites, deprecated)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET config = EXCLUDED.config,
		     question_sets = EXCLUDED.question_sets,
		     prerequisites = EXCLUDED.prerequisites,
		     deprecated = EXCLUDED.deprecated,
		     updated_at = NOW()
		 RETURNING created_at, updated_at`,
		e.ID, config, sets, prerequisites, e.Deprecated,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}
