package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examenv-backend/internal/model"
)

// GeneratedExamRepository handles generated exam data access.
type GeneratedExamRepository struct {
	pool *pgxpool.Pool
}

// NewGeneratedExamRepository creates a new GeneratedExamRepository.
func NewGeneratedExamRepository(pool *pgxpool.Pool) *GeneratedExamRepository {
	return &GeneratedExamRepository{pool: pool}
}

// Create persists g and fills in its id and creation time.
func (r *GeneratedExamRepository) Create(ctx context.Context, g *model.GeneratedExam) error {
	sets, err := json.Marshal(g.QuestionSets)
	if err != nil {
		return fmt.Errorf("encode question sets: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO generated_exams (exam_id, question_sets)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		g.ExamID, sets,
	).Scan(&g.ID, &g.CreatedAt)
	return translate(err)
}

// GetByID retrieves a generated exam by its UUID.
func (r *GeneratedExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GeneratedExam, error) {
	g := &model.GeneratedExam{}
	var sets []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, question_sets, created_at FROM generated_exams WHERE id = $1`, id,
	).Scan(&g.ID, &g.ExamID, &sets, &g.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(sets, &g.QuestionSets); err != nil {
		return nil, fmt.Errorf("decode generated exam %s: %w", id, err)
	}
	return g, nil
}

// Delete removes a generated exam. Deleting a missing row is not an error.
func (r *GeneratedExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM generated_exams WHERE id = $1`, id)
	return err
}
