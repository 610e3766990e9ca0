package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	itesting "github.com/eWloYW8/ZJUMilCubesHelper/internal/testing"
)

func TestDownloadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads every project into subdirectories", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/admin/project/1", func(w http.ResponseWriter, r *http.Request) {
			writeData(w, map[string]any{"id": 1, "title": "Alpha", "content": "<p>one</p>"})
		})
		mux.HandleFunc("/api/admin/project/2", func(w http.ResponseWriter, r *http.Request) {
			writeData(w, map[string]any{"id": 2, "title": "Beta", "content": "<p>two</p>"})
		})
		engine := newTestEngine(t, mux)

		projects := platform.NewProjectCollection([]*platform.Project{
			{ID: 1, Title: "Alpha"},
			{ID: 2, Title: "Beta"},
		})

		dir := t.TempDir()
		result, err := engine.DownloadAll(ctx, nil, projects, DownloadOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("DownloadAll failed: %v", err)
		}

		if result.SuccessfulProjects != 2 || result.FailedProjects != 0 {
			t.Fatalf("expected 2 successes, got %d ok / %d failed", result.SuccessfulProjects, result.FailedProjects)
		}

		for _, want := range []string{
			filepath.Join(dir, "1-Alpha", "1-Alpha.html"),
			filepath.Join(dir, "2-Beta", "2-Beta.html"),
		} {
			itesting.AssertFileExists(t, want)
		}
	})

	t.Run("records failures and writes the manifest", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/admin/project/1", func(w http.ResponseWriter, r *http.Request) {
			writeData(w, map[string]any{"id": 1, "title": "Alpha", "content": "<p>one</p>"})
		})
		// Project 2 was deleted remotely between listing and download.
		mux.HandleFunc("/api/admin/project/2", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		engine := newTestEngine(t, mux)

		projects := platform.NewProjectCollection([]*platform.Project{
			{ID: 1, Title: "Alpha"},
			{ID: 2, Title: "Beta"},
		})

		dir := t.TempDir()
		result, err := engine.DownloadAll(ctx, nil, projects, DownloadOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("expected partial success, got %v", err)
		}
		if result.SuccessfulProjects != 1 || result.FailedProjects != 1 {
			t.Fatalf("expected 1 ok / 1 failed, got %d / %d", result.SuccessfulProjects, result.FailedProjects)
		}

		data := itesting.MustReadFile(t, result.ManifestPath)

		var manifest struct {
			TotalProjects int `json:"total_projects"`
			Projects      []struct {
				ID      int64  `json:"id"`
				Success bool   `json:"success"`
				Error   string `json:"error"`
			} `json:"projects"`
		}
		if err := json.Unmarshal([]byte(data), &manifest); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if manifest.TotalProjects != 2 || len(manifest.Projects) != 2 {
			t.Errorf("manifest should cover both projects: %+v", manifest)
		}
		for _, mp := range manifest.Projects {
			if mp.ID == 2 && (mp.Success || mp.Error == "") {
				t.Errorf("manifest entry for the failed project should carry its error: %+v", mp)
			}
		}
	})

	t.Run("fails only when every project fails", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/admin/project/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		engine := newTestEngine(t, mux)

		projects := platform.NewProjectCollection([]*platform.Project{
			{ID: 1, Title: "Alpha"},
			{ID: 2, Title: "Beta"},
		})

		result, err := engine.DownloadAll(ctx, nil, projects, DownloadOpts{OutputDir: t.TempDir()})
		if err == nil {
			t.Fatal("expected an error when every project fails")
		}
		if !strings.Contains(err.Error(), "all 2 project downloads failed") {
			t.Errorf("unexpected error: %v", err)
		}
		if result == nil || result.FailedProjects != 2 {
			t.Errorf("expected the result to account for both failures: %+v", result)
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		engine := newTestEngine(t, http.NewServeMux())
		_, err := engine.DownloadAll(ctx, nil, platform.NewProjectCollection(nil), DownloadOpts{})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
