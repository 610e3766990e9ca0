package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	itesting "github.com/eWloYW8/ZJUMilCubesHelper/internal/testing"
)

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": v})
}

// newSessionRunner builds a runner authenticated against a fake platform.
// API handlers are registered on the returned mux per test.
func newSessionRunner(t *testing.T, output io.Writer) (*Runner, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/login/admin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/?token=tok-cmd")
		w.WriteHeader(http.StatusFound)
	})

	sess, err := platform.Login(context.Background(), srv.URL, platform.CookieImport{
		Cookies: map[string]string{"milcubes_session": "imported"},
	}, platform.SessionOpts{
		Logger:    shared.NewLogger(io.Discard),
		RetryWait: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	r := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Session: sess,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
	})
	return r, mux
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("summary prints after the last progress line", func(t *testing.T) {
		var buf bytes.Buffer
		r, mux := newSessionRunner(t, &buf)
		mux.HandleFunc("/api/admin/project/1", func(w http.ResponseWriter, req *http.Request) {
			writeData(w, map[string]any{"id": 1, "title": "Alpha", "content": "<p>one</p>"})
		})

		dir := t.TempDir()
		cmd := downloadCommand(r)
		if err := cmd.Run(ctx, []string{"download", "--id", "1", "--output", dir, "--skip-media"}); err != nil {
			t.Fatalf("download failed: %v", err)
		}

		itesting.AssertFileExists(t, filepath.Join(dir, "1-Alpha.html"))

		out := buf.String()
		header := strings.Index(out, "Download Complete!")
		if header < 0 {
			t.Fatalf("summary missing from output:\n%s", out)
		}
		progress := strings.LastIndex(out, "→ ")
		if progress < 0 {
			t.Fatalf("expected progress lines in output:\n%s", out)
		}
		if progress > header {
			t.Errorf("progress printed after the summary:\n%s", out)
		}
	})

	t.Run("meta flag writes json and markdown", func(t *testing.T) {
		var buf bytes.Buffer
		r, mux := newSessionRunner(t, &buf)
		mux.HandleFunc("/api/admin/project/2", func(w http.ResponseWriter, req *http.Request) {
			writeData(w, map[string]any{"id": 2, "title": "Beta", "content": "<p>two</p>"})
		})

		dir := t.TempDir()
		cmd := downloadCommand(r)
		if err := cmd.Run(ctx, []string{"download", "--id", "2", "--output", dir, "--skip-media", "--meta"}); err != nil {
			t.Fatalf("download failed: %v", err)
		}

		itesting.AssertFileExists(t, filepath.Join(dir, "2-meta.json"))
		md := itesting.MustReadFile(t, filepath.Join(dir, "2-meta.md"))
		if !strings.Contains(md, "# Beta") {
			t.Errorf("markdown metadata missing the title heading:\n%s", md)
		}
	})

	t.Run("all writes the listing beside the manifest", func(t *testing.T) {
		var buf bytes.Buffer
		r, mux := newSessionRunner(t, &buf)
		mux.HandleFunc("/api/admin/project", func(w http.ResponseWriter, req *http.Request) {
			writeData(w, []map[string]any{{"id": 3, "title": "Gamma"}})
		})
		mux.HandleFunc("/api/admin/project/3", func(w http.ResponseWriter, req *http.Request) {
			writeData(w, map[string]any{"id": 3, "title": "Gamma", "content": "<p>three</p>"})
		})

		dir := t.TempDir()
		cmd := downloadCommand(r)
		if err := cmd.Run(ctx, []string{"download", "--all", "--output", dir, "--skip-media"}); err != nil {
			t.Fatalf("download --all failed: %v", err)
		}

		itesting.AssertFileExists(t, filepath.Join(dir, "manifest.json"))
		listing := itesting.MustReadFile(t, filepath.Join(dir, "projects.txt"))
		if !strings.Contains(listing, "Gamma") {
			t.Errorf("listing missing the project title:\n%s", listing)
		}

		out := buf.String()
		header := strings.Index(out, "Download Complete!")
		progress := strings.LastIndex(out, "→ ")
		if header < 0 || progress < 0 || progress > header {
			t.Errorf("expected every progress line before the summary:\n%s", out)
		}
	})
}

func TestWriteProjectMeta(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf, nil)

	dir := t.TempDir()
	project := &platform.Project{ID: 4, Title: "Meta", Content: "<p>x</p>"}
	if err := r.writeProjectMeta(project, dir); err != nil {
		t.Fatalf("writeProjectMeta failed: %v", err)
	}

	data := itesting.MustReadFile(t, filepath.Join(dir, "4-meta.json"))
	var decoded platform.Project
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if decoded.Title != "Meta" {
		t.Errorf("decoded title = %q, want Meta", decoded.Title)
	}

	md := itesting.MustReadFile(t, filepath.Join(dir, "4-meta.md"))
	if !strings.Contains(md, "# Meta") {
		t.Errorf("markdown metadata missing the title heading:\n%s", md)
	}
}
