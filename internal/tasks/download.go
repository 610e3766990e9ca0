package tasks

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// DownloadOpts contains configuration for content downloads.
type DownloadOpts struct {
	OutputDir  string  // Output directory (default: milcubes_export_{epoch})
	NumWorkers int     // Concurrent asset workers (default: 4, capped at 8)
	RateLimit  float64 // Requests per second (default: 5)
	SkipMedia  bool    // Write content only, skip media downloads
}

// AssetResult records the outcome of a single media download.
type AssetResult struct {
	Kind string `json:"kind"` // cover, book, image, video
	URL  string `json:"url"`
	Path string `json:"path,omitempty"` // Local destination (empty on failure)
	Err  error  `json:"-"`
}

// DownloadResult contains all data from a single project download.
type DownloadResult struct {
	ProjectID        int64         `json:"project_id"`
	Title            string        `json:"title"`
	ContentPath      string        `json:"content_path"`
	OutputDirectory  string        `json:"output_directory"`
	Assets           []AssetResult `json:"assets,omitempty"`
	SuccessfulAssets int           `json:"successful_assets"`
	FailedAssets     int           `json:"failed_assets"`
}

// assetJob describes one media URL with its precomputed destination name.
type assetJob struct {
	kind   string
	url    string
	base   string // Destination file name, possibly without extension
	hasExt bool
}

// DownloadContent writes a project's HTML content to disk and downloads its
// media concurrently with rate limiting and progress tracking.
//
// A failed content write aborts the download; failed media downloads are
// recorded per asset and never abort the rest of the batch. The project must
// carry its full field set (see [platform.Session.Project]).
func (e *SyncEngine) DownloadContent(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	project *platform.Project,
	opts DownloadOpts,
) (*DownloadResult, error) {
	if project == nil {
		return nil, fmt.Errorf("%w: project is nil", shared.ErrInvalidArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("milcubes_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &DownloadResult{
		ProjectID:       project.ID,
		Title:           project.Title,
		OutputDirectory: opts.OutputDir,
	}

	contentName := fmt.Sprintf("%d-%s.html", project.ID, shared.SanitizeFilename(project.Title))
	contentPath := filepath.Join(opts.OutputDir, contentName)
	if err := os.WriteFile(contentPath, []byte(project.Content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}
	result.ContentPath = contentPath
	e.sendProgress(prog, writeContentUpdate(1, 1, contentPath))

	if opts.SkipMedia {
		return result, nil
	}

	jobs := planAssetJobs(project)
	if len(jobs) == 0 {
		return result, nil
	}

	// Media lands in its own subdirectory so an asset whose basename matches
	// the content file can never collide with it.
	mediaDir := filepath.Join(opts.OutputDir, "media")
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobCh := make(chan assetJob, len(jobs))
	results := make(chan AssetResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.assetWorker(ctx, &wg, limiter, mediaDir, jobCh, results)
	}

	e.sendProgress(prog, fetchAssetsUpdate(0, len(jobs)))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Assets = append(result.Assets, res)

		if res.Err == nil {
			result.SuccessfulAssets++
			e.sendProgress(prog, assetSavedUpdate(completed, len(jobs), res.Path))
		} else {
			result.FailedAssets++
			e.logger.Warn("asset download failed", "kind", res.Kind, "url", res.URL, "error", res.Err)
			e.sendProgress(prog, assetFailedUpdate(completed, len(jobs), res.URL, res.Err))
		}
	}

	// Workers complete out of order; sort for stable listings and manifests.
	sort.Slice(result.Assets, func(i, j int) bool {
		if result.Assets[i].Kind != result.Assets[j].Kind {
			return result.Assets[i].Kind < result.Assets[j].Kind
		}
		return result.Assets[i].URL < result.Assets[j].URL
	})

	return result, nil
}

// assetWorker is a worker goroutine that downloads assets from the jobs channel.
func (e *SyncEngine) assetWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	dir string,
	jobs <-chan assetJob,
	results chan<- AssetResult,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- AssetResult{Kind: job.kind, URL: job.url, Err: ctx.Err()}
			continue
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			results <- AssetResult{Kind: job.kind, URL: job.url, Err: err}
			continue
		}

		results <- e.downloadAsset(ctx, dir, job)
	}
}

// downloadAsset fetches a single media URL and writes it under dir.
func (e *SyncEngine) downloadAsset(ctx context.Context, dir string, job assetJob) AssetResult {
	res := AssetResult{Kind: job.kind, URL: job.url}

	body, contentType, err := e.session.FetchAsset(ctx, job.url)
	if err != nil {
		res.Err = err
		return res
	}
	defer body.Close()

	name := job.base
	if !job.hasExt {
		name += extensionForContentType(contentType)
	}
	dest := filepath.Join(dir, name)

	f, err := os.Create(dest)
	if err != nil {
		res.Err = fmt.Errorf("failed to create %s: %w", dest, err)
		return res
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		res.Err = fmt.Errorf("failed to write %s: %w", dest, err)
		return res
	}
	if err := f.Close(); err != nil {
		res.Err = fmt.Errorf("failed to close %s: %w", dest, err)
		return res
	}

	res.Path = dest
	return res
}

// planAssetJobs assigns each media URL a unique destination file name up
// front, before any download starts. Names come from the URL path when it has
// a usable basename and are synthesized from kind and position otherwise.
func planAssetJobs(project *platform.Project) []assetJob {
	media := project.MediaURLs()

	jobs := make([]assetJob, 0)
	used := make(map[string]int)

	for _, kind := range []string{"cover", "book", "image", "video"} {
		for i, rawURL := range media[kind] {
			base := baseNameFromURL(rawURL)
			if base == "" {
				base = fmt.Sprintf("%s-%d", kind, i+1)
			}

			ext := path.Ext(base)
			stem := strings.TrimSuffix(base, ext)

			used[base]++
			if n := used[base]; n > 1 {
				base = fmt.Sprintf("%s-%d%s", stem, n, ext)
			}

			jobs = append(jobs, assetJob{
				kind:   kind,
				url:    rawURL,
				base:   base,
				hasExt: ext != "",
			})
		}
	}
	return jobs
}

// baseNameFromURL extracts a sanitized file name from the URL path, returning
// "" when the path carries no usable basename.
func baseNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return ""
	}
	return shared.SanitizeFilename(base)
}

// extensionForContentType maps a Content-Type header value to a file
// extension, returning "" when no mapping exists.
func extensionForContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}

	// mime.ExtensionsByType orders alternatives alphabetically; prefer the
	// conventional spelling for the common image types.
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
