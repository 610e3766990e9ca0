package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/repositories"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// openDatabase opens the configured sqlite cache.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// CacheSync refreshes the local project cache from a platform listing.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	offset := cmd.Int("offset")
	limit := cmd.Int("limit")

	r.logger.Info("refreshing project cache", "offset", offset, "limit", limit)

	projects, err := r.session.Projects(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := repositories.NewProjectRepository(db)
	written, err := repo.Sync(projects)
	if err != nil {
		return fmt.Errorf("failed to sync cache: %w", err)
	}

	r.writePlain("✓ Cache refreshed: %d of %d projects written\n", written, projects.Len())
	r.writePlain("  Database: %s\n", r.config.Database.Path)

	return nil
}
