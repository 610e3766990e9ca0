package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	itesting "github.com/eWloYW8/ZJUMilCubesHelper/internal/testing"
)

const testToken = "tok-tasks"

// newTestEngine spins up a fake platform around mux and returns an engine
// authenticated against it.
func newTestEngine(t *testing.T, mux *http.ServeMux) *SyncEngine {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/login/admin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/?token="+testToken)
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

	return NewSyncEngine(sess, shared.NewLogger(io.Discard))
}

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func serveBytes(mux *http.ServeMux, path, contentType string, body []byte) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	})
}

func TestDownloadContent(t *testing.T) {
	ctx := context.Background()

	t.Run("writes content byte for byte", func(t *testing.T) {
		mux := http.NewServeMux()
		engine := newTestEngine(t, mux)

		content := "<h1>太阳系</h1>\n<p>line two</p>"
		project := &platform.Project{ID: 3, Title: "Solar System", Content: content}

		dir := t.TempDir()
		result, err := engine.DownloadContent(ctx, nil, project, DownloadOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("DownloadContent failed: %v", err)
		}

		want := filepath.Join(dir, "3-Solar System.html")
		if result.ContentPath != want {
			t.Errorf("content path = %q, want %q", result.ContentPath, want)
		}
		if got := itesting.MustReadFile(t, result.ContentPath); got != content {
			t.Errorf("content mismatch: %q", got)
		}
	})

	t.Run("partial asset failure does not abort", func(t *testing.T) {
		mux := http.NewServeMux()
		serveBytes(mux, "/media/a.png", "image/png", []byte("aaa"))
		serveBytes(mux, "/media/b.png", "image/png", []byte("bbb"))
		// /media/missing.png intentionally unregistered: 404.
		engine := newTestEngine(t, mux)

		project := &platform.Project{
			ID:      5,
			Title:   "Partial",
			Content: "<p>x</p>",
			Images:  []string{"/media/a.png", "/media/missing.png", "/media/b.png"},
		}

		dir := t.TempDir()
		result, err := engine.DownloadContent(ctx, nil, project, DownloadOpts{OutputDir: dir, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected partial success, got %v", err)
		}

		if result.SuccessfulAssets != 2 || result.FailedAssets != 1 {
			t.Fatalf("expected 2 ok / 1 failed, got %d / %d", result.SuccessfulAssets, result.FailedAssets)
		}
		for _, a := range result.Assets {
			if a.URL == "/media/missing.png" {
				if a.Err == nil || a.Path != "" {
					t.Errorf("failed asset should carry an error and no path: %+v", a)
				}
				continue
			}
			if a.Err != nil {
				t.Errorf("asset %s unexpectedly failed: %v", a.URL, a.Err)
			}
			itesting.AssertFileExists(t, a.Path)
			if got := filepath.Dir(a.Path); got != filepath.Join(dir, "media") {
				t.Errorf("asset %s written to %q, want the media subdirectory", a.URL, got)
			}
		}
	})

	t.Run("media cannot shadow the content file", func(t *testing.T) {
		mux := http.NewServeMux()
		serveBytes(mux, "/files/8-Clash.html", "text/html", []byte("<img>"))
		engine := newTestEngine(t, mux)

		// An asset whose basename matches the content file name must land
		// under media/ instead of overwriting the content.
		project := &platform.Project{
			ID:      8,
			Title:   "Clash",
			Content: "<p>original</p>",
			Images:  []string{"/files/8-Clash.html"},
		}

		dir := t.TempDir()
		result, err := engine.DownloadContent(ctx, nil, project, DownloadOpts{OutputDir: dir, RateLimit: 1000})
		if err != nil {
			t.Fatalf("DownloadContent failed: %v", err)
		}
		if result.FailedAssets != 0 {
			t.Fatalf("expected no failed assets, got %d", result.FailedAssets)
		}

		if got := itesting.MustReadFile(t, filepath.Join(dir, "8-Clash.html")); got != "<p>original</p>" {
			t.Errorf("content file was overwritten: %q", got)
		}
		if got := itesting.MustReadFile(t, filepath.Join(dir, "media", "8-Clash.html")); got != "<img>" {
			t.Errorf("media file mismatch: %q", got)
		}
	})

	t.Run("defaults the output directory", func(t *testing.T) {
		engine := newTestEngine(t, http.NewServeMux())

		wd := itesting.MustGetwd(t)
		itesting.MustChdir(t, t.TempDir())
		defer itesting.MustChdir(t, wd)

		project := &platform.Project{ID: 9, Title: "Default", Content: "x"}
		result, err := engine.DownloadContent(ctx, nil, project, DownloadOpts{SkipMedia: true})
		if err != nil {
			t.Fatalf("DownloadContent failed: %v", err)
		}
		itesting.AssertDirExists(t, result.OutputDirectory)
		itesting.AssertFileExists(t, result.ContentPath)
	})

	t.Run("skip media writes content only", func(t *testing.T) {
		mux := http.NewServeMux()
		engine := newTestEngine(t, mux)

		project := &platform.Project{
			ID:      6,
			Title:   "NoMedia",
			Content: "<p>x</p>",
			Images:  []string{"/media/never-fetched.png"},
		}

		dir := t.TempDir()
		result, err := engine.DownloadContent(ctx, nil, project, DownloadOpts{OutputDir: dir, SkipMedia: true})
		if err != nil {
			t.Fatalf("DownloadContent failed: %v", err)
		}
		if len(result.Assets) != 0 {
			t.Errorf("expected no asset downloads, got %d", len(result.Assets))
		}
	})

	t.Run("reports progress", func(t *testing.T) {
		mux := http.NewServeMux()
		serveBytes(mux, "/media/a.png", "image/png", []byte("aaa"))
		engine := newTestEngine(t, mux)

		project := &platform.Project{ID: 7, Title: "Progress", Content: "x", Images: []string{"/media/a.png"}}

		prog := make(chan ProgressUpdate, 32)
		_, err := engine.DownloadContent(ctx, prog, project, DownloadOpts{OutputDir: t.TempDir(), RateLimit: 1000})
		if err != nil {
			t.Fatalf("DownloadContent failed: %v", err)
		}
		close(prog)

		phases := make(map[Phase]bool)
		for u := range prog {
			phases[u.Phase] = true
		}
		if !phases[WriteContent] || !phases[FetchAssets] {
			t.Errorf("expected write_content and fetch_assets phases, got %v", phases)
		}
	})

	t.Run("nil project", func(t *testing.T) {
		engine := newTestEngine(t, http.NewServeMux())
		if _, err := engine.DownloadContent(ctx, nil, nil, DownloadOpts{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlanAssetJobs(t *testing.T) {
	t.Run("names come from URL basenames", func(t *testing.T) {
		p := &platform.Project{
			Cover:  "https://cdn.example.com/covers/front.png",
			Images: []string{"https://cdn.example.com/img/a.png"},
		}
		jobs := planAssetJobs(p)
		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(jobs))
		}
		if jobs[0].base != "front.png" || !jobs[0].hasExt {
			t.Errorf("unexpected cover job: %+v", jobs[0])
		}
	})

	t.Run("duplicate basenames get suffixes", func(t *testing.T) {
		p := &platform.Project{
			Images: []string{
				"https://cdn.example.com/one/a.png",
				"https://cdn.example.com/two/a.png",
			},
		}
		jobs := planAssetJobs(p)
		if jobs[0].base != "a.png" {
			t.Errorf("first job base = %q, want a.png", jobs[0].base)
		}
		if jobs[1].base != "a-2.png" {
			t.Errorf("second job base = %q, want a-2.png", jobs[1].base)
		}
	})

	t.Run("bare URLs get synthesized names", func(t *testing.T) {
		p := &platform.Project{Images: []string{"https://cdn.example.com/"}}
		jobs := planAssetJobs(p)
		if len(jobs) != 1 {
			t.Fatalf("expected 1 job, got %d", len(jobs))
		}
		if jobs[0].base != "image-1" || jobs[0].hasExt {
			t.Errorf("unexpected job: %+v", jobs[0])
		}
	})
}

func TestExtensionForContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/png; charset=binary", ".png"},
		{"", ""},
		{"application/x-not-a-type", ""},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.contentType), func(t *testing.T) {
			if got := extensionForContentType(tc.contentType); got != tc.want {
				t.Errorf("extensionForContentType(%q) = %q, want %q", tc.contentType, got, tc.want)
			}
		})
	}
}
