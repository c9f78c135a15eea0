package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/repository"
	"go.uber.org/zap"
)

// setupJobStore opens the job store selected by JOB_STORE. The returned
// closer releases its file or connection pool.
func setupJobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.JobStore, func(), error) {
	store := cfg.JobStoreCfg
	logger.Info("Opening job store", zap.String("backend", store.Backend))

	switch store.Backend {
	case config.JobStoreMemory:
		return repository.NewJobMemory(store.TTL), func() {}, nil

	case config.JobStoreBolt:
		if err := os.MkdirAll(filepath.Dir(store.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create job store dir: %w", err)
		}
		jobs, err := repository.NewJobBolt(store.Path)
		if err != nil {
			return nil, nil, err
		}
		return jobs, func() {
			if err := jobs.Close(); err != nil {
				logger.Warn("close job store", zap.Error(err))
			}
		}, nil

	case config.JobStorePostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		return repository.NewJobPostgres(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown job store %q", store.Backend)
	}
}
