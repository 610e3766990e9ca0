package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// ProjectDownloadResult records the outcome of downloading a single project
// within a batch.
type ProjectDownloadResult struct {
	ProjectID int64
	Title     string
	Success   bool
	Error     error
	Download  *DownloadResult // nil on failure
}

// BatchDownloadResult contains all data from a full account download.
type BatchDownloadResult struct {
	TotalProjects      int
	SuccessfulProjects int
	FailedProjects     int
	OutputDirectory    string
	ManifestPath       string
	Results            []ProjectDownloadResult
}

// DownloadAll downloads every project in the collection into per-project
// subdirectories of opts.OutputDir and writes a manifest summarizing the run.
//
// Listing entries carry a reduced field set, so each project is re-fetched in
// full before download. Individual project failures are recorded and skipped;
// the operation fails outright only when every project fails.
func (e *SyncEngine) DownloadAll(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	projects *platform.ProjectCollection,
	opts DownloadOpts,
) (*BatchDownloadResult, error) {
	if projects == nil || projects.Len() == 0 {
		return nil, fmt.Errorf("%w: no projects to download", shared.ErrInvalidArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("milcubes_export_%d", time.Now().Unix())
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	all := projects.All()
	result := &BatchDownloadResult{
		TotalProjects:   len(all),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ProjectDownloadResult, 0, len(all)),
	}

	for i, summary := range all {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		e.sendProgress(prog, fetchProjectUpdate(i+1, len(all), summary.ID))

		full, err := e.session.Project(ctx, summary.ID)
		if err != nil {
			result.FailedProjects++
			result.Results = append(result.Results, ProjectDownloadResult{
				ProjectID: summary.ID,
				Title:     summary.Title,
				Success:   false,
				Error:     fmt.Errorf("failed to fetch project: %w", err),
			})
			e.logger.Warn("project fetch failed", "id", summary.ID, "error", err)
			e.sendProgress(prog, projectFailedUpdate(i+1, len(all), summary.Title, err))
			continue
		}

		projectOpts := opts
		projectOpts.OutputDir = filepath.Join(
			opts.OutputDir,
			fmt.Sprintf("%d-%s", full.ID, shared.SanitizeFilename(full.Title)),
		)

		dl, err := e.DownloadContent(ctx, prog, full, projectOpts)
		if err != nil {
			result.FailedProjects++
			result.Results = append(result.Results, ProjectDownloadResult{
				ProjectID: full.ID,
				Title:     full.Title,
				Success:   false,
				Error:     err,
			})
			e.logger.Warn("project download failed", "id", full.ID, "error", err)
			e.sendProgress(prog, projectFailedUpdate(i+1, len(all), full.Title, err))
			continue
		}

		result.SuccessfulProjects++
		result.Results = append(result.Results, ProjectDownloadResult{
			ProjectID: full.ID,
			Title:     full.Title,
			Success:   true,
			Download:  dl,
		})
		e.sendProgress(prog, projectDoneUpdate(i+1, len(all), full, 1+len(dl.Assets)))
	}

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	if err := writeDownloadManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("download completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, writeManifestUpdate(manifestPath))

	if result.SuccessfulProjects == 0 {
		return result, fmt.Errorf("all %d project downloads failed", result.TotalProjects)
	}
	return result, nil
}

// downloadManifest is the JSON document written alongside a batch download.
type downloadManifest struct {
	GeneratedAt        time.Time         `json:"generated_at"`
	OutputDirectory    string            `json:"output_directory"`
	TotalProjects      int               `json:"total_projects"`
	SuccessfulProjects int               `json:"successful_projects"`
	FailedProjects     int               `json:"failed_projects"`
	Projects           []manifestProject `json:"projects"`
}

type manifestProject struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	ContentPath string          `json:"content_path,omitempty"`
	Assets      []manifestAsset `json:"assets,omitempty"`
}

type manifestAsset struct {
	Kind  string `json:"kind"`
	URL   string `json:"url"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeDownloadManifest(result *BatchDownloadResult, manifestPath string) error {
	manifest := downloadManifest{
		GeneratedAt:        time.Now().UTC(),
		OutputDirectory:    result.OutputDirectory,
		TotalProjects:      result.TotalProjects,
		SuccessfulProjects: result.SuccessfulProjects,
		FailedProjects:     result.FailedProjects,
		Projects:           make([]manifestProject, 0, len(result.Results)),
	}

	for _, pr := range result.Results {
		mp := manifestProject{
			ID:      pr.ProjectID,
			Title:   pr.Title,
			Success: pr.Success,
		}
		if pr.Error != nil {
			mp.Error = pr.Error.Error()
		}
		if pr.Download != nil {
			mp.ContentPath = pr.Download.ContentPath
			for _, a := range pr.Download.Assets {
				ma := manifestAsset{Kind: a.Kind, URL: a.URL, Path: a.Path}
				if a.Err != nil {
					ma.Error = a.Err.Error()
				}
				mp.Assets = append(mp.Assets, ma)
			}
		}
		manifest.Projects = append(manifest.Projects, mp)
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, data, 0644)
}
