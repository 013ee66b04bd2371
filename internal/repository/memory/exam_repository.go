package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/repository"
)

// ExamRepository stores catalog exams.
type ExamRepository struct {
	mu    sync.RWMutex
	exams map[uuid.UUID]*model.CatalogExam
}

// NewExamRepository creates an ExamRepository holding exams.
func NewExamRepository(exams ...*model.CatalogExam) *ExamRepository {
	r := &ExamRepository{exams: make(map[uuid.UUID]*model.CatalogExam)}
	for _, e := range exams {
		_ = r.Upsert(context.Background(), e)
	}
	return r
}

func (r *ExamRepository) GetByID(_ context.Context, id uuid.UUID) (*model.CatalogExam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneExam(e), nil
}

func (r *ExamRepository) ListActive(_ context.Context) ([]model.CatalogExam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exams := make([]model.CatalogExam, 0, len(r.exams))
	for _, e := range r.exams {
		if e.Deprecated {
			continue
		}
		exams = append(exams, *cloneExam(e))
	}
	slices.SortFunc(exams, func(a, b model.CatalogExam) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return exams, nil
}

func (r *ExamRepository) Upsert(_ context.Context, e *model.CatalogExam) error {
	c := cloneExam(e)
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	c.CreatedAt = now
	if old, ok := r.exams[e.ID]; ok {
		c.CreatedAt = old.CreatedAt
	}
	c.UpdatedAt = now
	r.exams[e.ID] = c
	e.CreatedAt, e.UpdatedAt = c.CreatedAt, c.UpdatedAt
	return nil
}

// GeneratedExamRepository stores generated exams.
type GeneratedExamRepository struct {
	mu    sync.RWMutex
	exams map[uuid.UUID]*model.GeneratedExam
}

// NewGeneratedExamRepository creates an empty GeneratedExamRepository.
func NewGeneratedExamRepository() *GeneratedExamRepository {
	return &GeneratedExamRepository{exams: make(map[uuid.UUID]*model.GeneratedExam)}
}

func (r *GeneratedExamRepository) Create(_ context.Context, g *model.GeneratedExam) error {
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	c := cloneGeneratedExam(g)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[c.ID] = c
	return nil
}

func (r *GeneratedExamRepository) GetByID(_ context.Context, id uuid.UUID) (*model.GeneratedExam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneGeneratedExam(g), nil
}

func (r *GeneratedExamRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exams, id)
	return nil
}

// Len returns the number of stored generated exams.
func (r *GeneratedExamRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exams)
}

type attemptKey struct {
	userID, examID uuid.UUID
}

// ExamAttemptRepository stores exam attempts, keeping (user, exam, epoch) unique.
type ExamAttemptRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*model.ExamAttempt
	byUser map[attemptKey][]uuid.UUID
}

// NewExamAttemptRepository creates an empty ExamAttemptRepository.
func NewExamAttemptRepository() *ExamAttemptRepository {
	return &ExamAttemptRepository{
		byID:   make(map[uuid.UUID]*model.ExamAttempt),
		byUser: make(map[attemptKey][]uuid.UUID),
	}
}

func (r *ExamAttemptRepository) ListByUserAndExam(_ context.Context, userID, examID uuid.UUID) ([]model.ExamAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byUser[attemptKey{userID, examID}]
	attempts := make([]model.ExamAttempt, 0, len(ids))
	for _, id := range ids {
		attempts = append(attempts, *cloneAttempt(r.byID[id]))
	}
	slices.SortFunc(attempts, func(a, b model.ExamAttempt) int {
		if c := cmp.Compare(b.StartTimeInMS, a.StartTimeInMS); c != 0 {
			return c
		}
		return cmp.Compare(b.Epoch, a.Epoch)
	})
	return attempts, nil
}

func (r *ExamAttemptRepository) Create(_ context.Context, a *model.ExamAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attemptKey{a.UserID, a.ExamID}
	for _, id := range r.byUser[key] {
		if r.byID[id].Epoch == a.Epoch {
			return repository.ErrConflict
		}
	}
	now := time.Now()
	a.ID = uuid.New()
	a.CreatedAt, a.UpdatedAt = now, now
	c := cloneAttempt(a)
	r.byID[c.ID] = c
	r.byUser[key] = append(r.byUser[key], c.ID)
	return nil
}

func (r *ExamAttemptRepository) Update(_ context.Context, a *model.ExamAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	c := cloneAttempt(a)
	stored.SubmissionTimeInMS = c.SubmissionTimeInMS
	stored.QuestionSets = c.QuestionSets
	stored.NeedsRetake = c.NeedsRetake
	stored.UpdatedAt = c.UpdatedAt
	return nil
}
