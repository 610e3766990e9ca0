package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// ReplaceAssetResult contains the outcome of an asset swap.
type ReplaceAssetResult struct {
	Upload       *platform.UploadResult // The newly uploaded file
	Replacements int                    // References rewritten across content and media lists
}

// ReplaceAsset uploads a local file and rewrites every reference to oldURL in
// the project's content and media lists to point at the new URL.
//
// The project is only modified in memory; call [platform.Project.Push] to
// persist the change. A replacement count of zero means oldURL appeared
// nowhere in the project; the upload still happened and its URL is returned
// so the caller can use it directly.
func (e *SyncEngine) ReplaceAsset(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	project *platform.Project,
	oldURL, filePath string,
) (*ReplaceAssetResult, error) {
	if project == nil {
		return nil, fmt.Errorf("%w: project is nil", shared.ErrInvalidArgument)
	}
	if oldURL == "" {
		return nil, fmt.Errorf("%w: old URL required", shared.ErrInvalidArgument)
	}
	if filePath == "" {
		return nil, fmt.Errorf("%w: file path required", shared.ErrInvalidArgument)
	}

	e.sendProgress(prog, uploadAssetUpdate(1, 2, filePath))

	upload, err := e.session.UploadFileByPath(ctx, filePath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upload replacement: %w", err)
	}

	e.sendProgress(prog, ProgressUpdate{
		Phase:   ReplaceReferences,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Rewriting references to %s...", oldURL),
	})

	count := 0
	if n := strings.Count(project.Content, oldURL); n > 0 {
		project.Content = strings.ReplaceAll(project.Content, oldURL, upload.URL)
		count += n
	}
	if project.Cover == oldURL {
		project.Cover = upload.URL
		count++
	}
	for _, urls := range [][]string{project.Books, project.Images, project.Videos} {
		for i, u := range urls {
			if u == oldURL {
				urls[i] = upload.URL
				count++
			}
		}
	}

	e.logger.Info("asset replaced", "project", project.ID, "replacements", count, "url", upload.URL)
	e.sendProgress(prog, replaceReferencesUpdate(2, 2, count))

	return &ReplaceAssetResult{Upload: upload, Replacements: count}, nil
}
