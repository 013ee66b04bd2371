package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/catalog"
	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/database"
	"github.com/stemsi/examenv-backend/internal/handler"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/repository"
	"github.com/stemsi/examenv-backend/internal/repository/memory"
	"github.com/stemsi/examenv-backend/internal/service"
)

// stores bundles the persistence backends chosen by STORAGE_DRIVER.
type stores struct {
	catalog   service.ExamCatalog
	generated service.GeneratedExamStore
	attempts  service.AttemptStore
	users     service.UserStore
	tokens    service.TokenStore

	// cache is nil when no catalog cache is in front of the catalog.
	cache *repository.CachedExamCatalog
	// devUser is set by the memory driver only.
	devUser *model.User

	health  map[string]handler.Pinger
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func newPostgresStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool)
	cache := repository.NewCachedExamCatalog(examRepo, rdb, cfg.CatalogCacheTTL, log)

	return &stores{
		catalog:   cache,
		generated: repository.NewGeneratedExamRepository(pool),
		attempts:  repository.NewExamAttemptRepository(pool),
		users:     repository.NewUserRepository(pool),
		tokens:    repository.NewAuthorizationTokenRepository(pool),
		cache:     cache,
		health: map[string]handler.Pinger{
			"postgres": handler.PingFunc(pool.Ping),
			"redis":    handler.PingFunc(redisPing(rdb)),
		},
		closers: []func(){
			pool.Close,
			func() { _ = rdb.Close() },
		},
	}, nil
}

func redisPing(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

func newMemoryStores(cfg *config.Config, log zerolog.Logger) (*stores, error) {
	var exams []model.CatalogExam
	if cfg.CatalogFile != "" {
		loaded, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		exams = loaded
	}

	examRepo := memory.NewExamRepository()
	users := memory.NewUserRepository()
	devUser := &model.User{Email: "dev@localhost", Name: "Development User"}
	users.Put(devUser)

	for i := range exams {
		if err := examRepo.Upsert(context.Background(), &exams[i]); err != nil {
			return nil, err
		}
		// The development user can sit every loaded exam.
		for _, challengeID := range exams[i].Prerequisites {
			users.CompleteChallenge(devUser.ID, challengeID)
		}
	}

	log.Warn().
		Int("exams", len(exams)).
		Msg("Using in-memory storage, nothing is persisted")

	return &stores{
		catalog:   examRepo,
		generated: memory.NewGeneratedExamRepository(),
		attempts:  memory.NewExamAttemptRepository(),
		users:     users,
		tokens:    memory.NewAuthorizationTokenRepository(),
		devUser:   devUser,
		health:    map[string]handler.Pinger{},
	}, nil
}
