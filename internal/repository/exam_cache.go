package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/model"
)

// ExamSource is the authoritative store a CachedExamCatalog reads through to.
type ExamSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.CatalogExam, error)
	ListActive(ctx context.Context) ([]model.CatalogExam, error)
}

// CachedExamCatalog serves catalog exams from Redis, falling back to the
// source on a miss and writing the result back.
// Redis errors are logged and never fail a read.
type CachedExamCatalog struct {
	source ExamSource
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedExamCatalog creates a new CachedExamCatalog.
func NewCachedExamCatalog(source ExamSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedExamCatalog {
	return &CachedExamCatalog{
		source: source,
		rdb:    rdb,
		ttl:    ttl,
		log:    log.With().Str("component", "exam_cache").Logger(),
	}
}

// GetByID returns the catalog exam with id.
func (c *CachedExamCatalog) GetByID(ctx context.Context, id uuid.UUID) (*model.CatalogExam, error) {
	key := config.CacheKey.CatalogExamKey(id.String())

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var exam model.CatalogExam
		if err := json.Unmarshal(data, &exam); err == nil {
			return &exam, nil
		}
		c.log.Warn().Str("exam_id", id.String()).Msg("Discarding undecodable cached exam")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Cache read failed, using database")
	}

	exam, err := c.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, exam); err != nil {
		c.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Cache write failed")
	}
	return exam, nil
}

// Invalidate drops the cached copy of an exam so the next read hits the source.
func (c *CachedExamCatalog) Invalidate(ctx context.Context, id uuid.UUID) error {
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.CatalogExamKey(id.String()))
	pipe.SRem(ctx, config.CacheKey.CatalogIndexKey(), id.String())
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CachedExamCatalog) store(ctx context.Context, exam *model.CatalogExam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.CatalogExamKey(exam.ID.String()), data, c.ttl)
	pipe.SAdd(ctx, config.CacheKey.CatalogIndexKey(), exam.ID.String())
	_, err = pipe.Exec(ctx)
	return err
}

// Prewarm loads every active exam into Redis on application startup.
func (c *CachedExamCatalog) Prewarm(ctx context.Context) error {
	exams, err := c.source.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active exams: %w", err)
	}

	if len(exams) == 0 {
		c.log.Info().Msg("No active exams to prewarm")
		return nil
	}

	c.log.Info().Int("count", len(exams)).Msg("Prewarming catalog exams...")

	warmed := 0
	for i := range exams {
		if err := c.store(ctx, &exams[i]); err != nil {
			c.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	c.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}
