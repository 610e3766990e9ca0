package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/formatter"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/repositories"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/tasks"
)

// List lists the account's projects, from the platform or the local cache.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("cached") {
		return r.listCached(cmd)
	}

	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	offset := cmd.Int("offset")
	limit := cmd.Int("limit")
	r.logger.Info("listing projects", "offset", offset, "limit", limit)

	projects, err := r.session.Projects(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	all := projects.All()

	if cmd.Bool("save") {
		saved, err := formatter.WriteCSVExport(all, "projects.csv")
		if err != nil {
			r.logger.Warn("failed to save listing", "error", err)
		} else {
			r.logger.Info("listing saved", "file", saved)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(all, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d projects:\n\n", len(all))
	for i, p := range all {
		r.writePlain("%d. %s\n", i+1, p.Title)
		r.writePlain("   ID: %d\n", p.ID)
		r.writePlain("   Group: %d  Episode: %d\n", p.GroupID, p.EpisodeID)
		r.writePlain("\n")
	}

	return nil
}

// listCached prints the listing from the local sqlite cache without touching
// the network.
func (r *Runner) listCached(cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewProjectRepository(db)
	cached, err := repo.List(nil)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	r.writePlain("Cached projects: %d\n\n", len(cached))
	for i, p := range cached {
		r.writePlain("%d. %s\n", i+1, p.Title())
		r.writePlain("   ID: %d\n", p.RemoteID())
		r.writePlain("   Media: %d books, %d images, %d videos\n", p.BookCount(), p.ImageCount(), p.VideoCount())
		r.writePlain("   Synced: %s\n", p.SyncedAt().Format("2006-01-02 15:04:05"))
		r.writePlain("\n")
	}

	return nil
}

// Download downloads one project, one by title, or the whole account.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	opts := tasks.DownloadOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		SkipMedia:  cmd.Bool("skip-media"),
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Download.OutputDir
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Download.Workers
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Download.RateLimit
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchProject, tasks.WriteContent:
				r.writePlain("→ %s\n", update.Message)
			case tasks.FetchAssets:
				if update.Step > 0 {
					r.writePlain("   %s\n", update.Message)
				}
			}
		}
	}()
	// finish stops the consumer and waits for buffered updates to drain, so
	// progress lines never land after the summary.
	finish := func() {
		close(progressCh)
		<-done
	}

	if cmd.Bool("all") {
		result, err := r.downloadAll(ctx, progressCh, opts)
		finish()
		if err != nil {
			return err
		}
		r.writeBatchSummary(result)
		return nil
	}

	project, err := r.resolveProject(ctx, cmd)
	if err != nil {
		finish()
		return err
	}

	r.writePlain("Downloading '%s' (%d)...\n\n", project.Title, project.ID)

	result, err := r.engine.DownloadContent(ctx, progressCh, project, opts)
	finish()
	if err != nil {
		return err
	}

	if cmd.Bool("meta") {
		if err := r.writeProjectMeta(project, result.OutputDirectory); err != nil {
			r.logger.Warn("failed to write metadata", "error", err)
		}
	}

	r.writePlainHeader("Download Complete!")
	r.writePlain("Content: %s\n", result.ContentPath)
	r.writePlain("Media: %d saved, %d failed\n", result.SuccessfulAssets, result.FailedAssets)
	for _, asset := range result.Assets {
		if asset.Err != nil {
			r.writePlain("  ✗ %s (%s): %v\n", asset.URL, asset.Kind, asset.Err)
		}
	}

	return nil
}

func (r *Runner) downloadAll(ctx context.Context, progressCh chan tasks.ProgressUpdate, opts tasks.DownloadOpts) (*tasks.BatchDownloadResult, error) {
	projects, err := r.session.Projects(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("Downloading %d projects...\n\n", projects.Len())

	result, err := r.engine.DownloadAll(ctx, progressCh, projects, opts)
	if err != nil {
		return nil, err
	}

	// A plain-text listing beside the manifest makes the export browsable
	// without a JSON reader.
	listing := filepath.Join(result.OutputDirectory, "projects.txt")
	if _, err := formatter.WriteTextExport(projects.All(), listing); err != nil {
		r.logger.Warn("failed to write project listing", "error", err)
	}

	return result, nil
}

func (r *Runner) writeBatchSummary(result *tasks.BatchDownloadResult) {
	r.writePlainHeader("Download Complete!")
	r.writePlain("Projects: %d/%d succeeded\n", result.SuccessfulProjects, result.TotalProjects)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedProjects > 0 {
		r.writePlain("\nFailed projects:\n")
		for _, pr := range result.Results {
			if !pr.Success {
				r.writePlain("  ✗ (%d) %s: %v\n", pr.ProjectID, pr.Title, pr.Error)
			}
		}
	}
}

// resolveProject fetches the full project named by --id or --title.
func (r *Runner) resolveProject(ctx context.Context, cmd *cli.Command) (*platform.Project, error) {
	id := int64(cmd.Int("id"))
	title := cmd.String("title")

	if id == 0 && title == "" {
		return nil, fmt.Errorf("%w: provide --id, --title or --all", shared.ErrMissingArgument)
	}

	if id == 0 {
		projects, err := r.session.Projects(ctx, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		match := projects.FindByTitle(title)
		if match == nil {
			return nil, fmt.Errorf("%w: no project titled '%s'", shared.ErrProjectNotFound, title)
		}
		id = match.ID
	}

	// Listing entries are incomplete; always fetch the full record.
	return r.session.Project(ctx, id)
}

// writeProjectMeta writes the project record next to the downloaded content,
// as JSON for tooling and as Markdown for humans.
func (r *Runner) writeProjectMeta(project *platform.Project, dir string) error {
	data, err := formatter.ToProjectJSON(project)
	if err != nil {
		return err
	}
	metaPath := filepath.Join(dir, fmt.Sprintf("%d-meta.json", project.ID))
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return err
	}

	md, err := formatter.ExportToMarkdown(project)
	if err != nil {
		return err
	}
	mdPath := filepath.Join(dir, fmt.Sprintf("%d-meta.md", project.ID))
	if err := os.WriteFile(mdPath, md, 0644); err != nil {
		return err
	}

	r.logger.Info("metadata written", "json", metaPath, "markdown", mdPath)
	return nil
}
