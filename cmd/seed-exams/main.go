package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/examenv-backend/internal/catalog"
	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/database"
	"github.com/stemsi/examenv-backend/internal/logger"
	"github.com/stemsi/examenv-backend/internal/repository"
)

func main() {
	var file string
	var skipCache bool
	flag.StringVar(&file, "file", "", "YAML file with the catalog exams to load")
	flag.BoolVar(&skipCache, "skip-cache", false, "Do not invalidate the Redis catalog cache")
	flag.Parse()

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	exams, err := catalog.Load(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Invalid catalog file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)

	// Cached copies of the exams being replaced must not outlive the seed.
	var cache *repository.CachedExamCatalog
	if !skipCache {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		cache = repository.NewCachedExamCatalog(examRepo, rdb, cfg.CatalogCacheTTL, log)
	}

	log.Info().Int("count", len(exams)).Str("file", file).Msg("Seeding catalog exams...")

	seeded := 0
	for i := range exams {
		exam := &exams[i]
		if err := examRepo.Upsert(ctx, exam); err != nil {
			log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to upsert exam, skipping")
			continue
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, exam.ID); err != nil {
				log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to invalidate cached exam")
			}
		}
		seeded++
		log.Info().
			Str("exam_id", exam.ID.String()).
			Str("name", exam.Config.Name).
			Bool("deprecated", exam.Deprecated).
			Msg("Exam seeded")
	}

	log.Info().Int("seeded", seeded).Int("total", len(exams)).Msg("Seed complete")
	if seeded != len(exams) {
		os.Exit(1)
	}
}
