package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

func TestProjects(t *testing.T) {
	ctx := context.Background()

	t.Run("paginates without duplicate ids", func(t *testing.T) {
		mux, srv := newFakeBackend(t)
		mux.HandleFunc("/api/admin/project", func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("offset") {
			case "0":
				writeData(w, []map[string]any{
					{"id": 1, "title": "Solar System"},
					{"id": 2, "title": "Water Cycle"},
				})
			case "2":
				writeData(w, []map[string]any{
					{"id": 3, "title": "Volcanoes"},
				})
			default:
				writeData(w, []map[string]any{})
			}
		})

		sess := newCookieSession(t, srv)

		first, err := sess.Projects(ctx, 0, 2)
		if err != nil {
			t.Fatalf("first page failed: %v", err)
		}
		second, err := sess.Projects(ctx, 2, 2)
		if err != nil {
			t.Fatalf("second page failed: %v", err)
		}

		seen := make(map[int64]bool)
		for _, id := range append(first.IDs(), second.IDs()...) {
			if seen[id] {
				t.Errorf("project %d appears on both pages", id)
			}
			seen[id] = true
		}
		if len(seen) != 3 {
			t.Errorf("expected 3 distinct projects, got %d", len(seen))
		}
	})

	t.Run("zero limit requests the server maximum", func(t *testing.T) {
		mux, srv := newFakeBackend(t)
		var gotLimit string
		mux.HandleFunc("/api/admin/project", func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			writeData(w, []map[string]any{})
		})

		sess := newCookieSession(t, srv)
		if _, err := sess.Projects(ctx, 0, 0); err != nil {
			t.Fatalf("Projects failed: %v", err)
		}
		if gotLimit != "1000" {
			t.Errorf("expected limit=1000, got %q", gotLimit)
		}
	})

	t.Run("rejects negative arguments", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		sess := newCookieSession(t, srv)

		if _, err := sess.Projects(ctx, -1, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("non-array payload is a protocol change", func(t *testing.T) {
		mux, srv := newFakeBackend(t)
		mux.HandleFunc("/api/admin/project", func(w http.ResponseWriter, r *http.Request) {
			writeData(w, map[string]any{"id": 1})
		})

		sess := newCookieSession(t, srv)
		if _, err := sess.Projects(ctx, 0, 0); !errors.Is(err, shared.ErrProtocolChanged) {
			t.Errorf("expected ErrProtocolChanged, got %v", err)
		}
	})
}

func TestProject(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches the full record", func(t *testing.T) {
		mux, srv := newFakeBackend(t)
		mux.HandleFunc("/api/admin/project/42", func(w http.ResponseWriter, r *http.Request) {
			writeData(w, map[string]any{
				"id":      42,
				"title":   "Solar System",
				"cover":   "https://cdn.example.com/cover.png",
				"content": "<p>hello</p>",
				"images":  []string{"https://cdn.example.com/a.png"},
			})
		})

		sess := newCookieSession(t, srv)
		p, err := sess.Project(ctx, 42)
		if err != nil {
			t.Fatalf("Project failed: %v", err)
		}
		if p.ID != 42 || p.Title != "Solar System" {
			t.Errorf("unexpected project: %+v", p)
		}
		if len(p.Images) != 1 {
			t.Errorf("expected 1 image, got %d", len(p.Images))
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		mux, srv := newFakeBackend(t)
		mux.HandleFunc("/api/admin/project/99", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		sess := newCookieSession(t, srv)
		if _, err := sess.Project(ctx, 99); !errors.Is(err, shared.ErrProjectNotFound) {
			t.Errorf("expected ErrProjectNotFound, got %v", err)
		}
	})
}

func TestProjectPushUpdate(t *testing.T) {
	ctx := context.Background()

	// One in-memory record behind both the GET and PUT endpoints.
	stored := &Project{ID: 7, Title: "Before", Content: "<p>old</p>"}

	mux, srv := newFakeBackend(t)
	mux.HandleFunc("/api/admin/project/7", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeData(w, stored)
		case http.MethodPut:
			var incoming Project
			if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			stored = &incoming
			writeData(w, stored)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	sess := newCookieSession(t, srv)

	p, err := sess.Project(ctx, 7)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	p.Title = "After"
	p.Content = "<p>new 中文</p>"
	if err := p.Push(ctx, sess); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	fresh := &Project{ID: 7}
	if err := fresh.Update(ctx, sess); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if fresh.Title != "After" {
		t.Errorf("expected pushed title, got %q", fresh.Title)
	}
	if fresh.Content != p.Content {
		t.Errorf("content did not round-trip: %q vs %q", fresh.Content, p.Content)
	}
}

func TestProjectJSON(t *testing.T) {
	p := &Project{
		ID:      5,
		Title:   "Magnetism",
		Content: "<p>body</p>",
		Images:  []string{"https://cdn.example.com/a.png"},
	}

	data, err := p.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	decoded, err := ProjectFromJSON(data)
	if err != nil {
		t.Fatalf("ProjectFromJSON failed: %v", err)
	}
	if decoded.ID != p.ID || decoded.Title != p.Title || decoded.Content != p.Content {
		t.Errorf("round trip mismatch: %+v vs %+v", decoded, p)
	}

	if _, err := ProjectFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestMediaURLs(t *testing.T) {
	p := &Project{
		Cover:  "https://cdn.example.com/cover.png",
		Books:  []string{"https://cdn.example.com/b.pdf", ""},
		Images: []string{"https://cdn.example.com/a.png"},
	}

	media := p.MediaURLs()
	if len(media["cover"]) != 1 {
		t.Errorf("expected 1 cover, got %d", len(media["cover"]))
	}
	if len(media["book"]) != 1 {
		t.Errorf("expected empty book URL to be skipped, got %v", media["book"])
	}
	if len(media["image"]) != 1 {
		t.Errorf("expected 1 image, got %d", len(media["image"]))
	}
	if _, ok := media["video"]; ok {
		t.Error("expected no video entry for a project without videos")
	}
}

func TestLoadContentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.html")
	body := "<h1>Replacement</h1>"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	p := &Project{ID: 1, Content: "<p>old</p>"}
	if err := p.LoadContentFile(path); err != nil {
		t.Fatalf("LoadContentFile failed: %v", err)
	}
	if p.Content != body {
		t.Errorf("expected content %q, got %q", body, p.Content)
	}

	if err := p.LoadContentFile(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProjectCollection(t *testing.T) {
	a := &Project{ID: 1, Title: "Alpha"}
	b := &Project{ID: 2, Title: "Beta"}
	dup := &Project{ID: 3, Title: "Alpha"}
	c := NewProjectCollection([]*Project{a, b, dup})

	t.Run("preserves order and length", func(t *testing.T) {
		if c.Len() != 3 {
			t.Fatalf("expected 3 projects, got %d", c.Len())
		}
		ids := c.IDs()
		want := []int64{1, 2, 3}
		for i, id := range want {
			if ids[i] != id {
				t.Errorf("ids[%d] = %d, want %d", i, ids[i], id)
			}
		}
	})

	t.Run("find by id", func(t *testing.T) {
		if got := c.FindByID(2); got != b {
			t.Errorf("expected project 2, got %v", got)
		}
		if got := c.FindByID(99); got != nil {
			t.Errorf("expected nil for unknown id, got %v", got)
		}
	})

	t.Run("find by title prefers first occurrence", func(t *testing.T) {
		if got := c.FindByTitle("Alpha"); got != a {
			t.Errorf("expected first Alpha (id 1), got %v", got)
		}
		if got := c.FindByTitle("Gamma"); got != nil {
			t.Errorf("expected nil for unknown title, got %v", got)
		}
	})
}

func TestProjectString(t *testing.T) {
	p := &Project{ID: 12, Title: "Optics"}
	if got, want := p.String(), fmt.Sprintf("(%d)\t%s", 12, "Optics"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
