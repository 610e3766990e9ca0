package tasks

import (
	"fmt"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProject Phase = iota
	WriteContent
	FetchAssets
	UploadAsset
	ReplaceReferences
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchProject:
		return "fetch_project"
	case WriteContent:
		return "write_content"
	case FetchAssets:
		return "fetch_assets"
	case UploadAsset:
		return "upload_asset"
	case ReplaceReferences:
		return "replace_references"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchProjectUpdate(step, total int, id int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProject,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching project %d...", id),
	}
}

func writeContentUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteContent,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Wrote content to %s", path),
	}
}

func fetchAssetsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAssets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading media...", step, total),
	}
}

func assetSavedUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAssets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, path),
	}
}

func assetFailedUpdate(step, total int, url string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAssets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, url, err),
	}
}

func projectDoneUpdate(step, total int, p *platform.Project, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteContent,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, p.Title, filesCount),
		Data:    p,
	}
}

func projectFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteContent,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func uploadAssetUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadAsset,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Uploading %s...", path),
	}
}

func replaceReferencesUpdate(step, total int, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReplaceReferences,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Replaced %d reference(s)", count),
	}
}

func writeManifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest to %s", path),
	}
}
