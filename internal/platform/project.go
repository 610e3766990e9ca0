package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/go-resty/resty/v2"
)

// Project models one remote authoring project. ID is assigned by the server
// and never reassigned after construction; Title and Content are mutable
// locally but only reach the server through [Project.Push].
//
// A project obtained from a listing may carry a reduced field set; fetch the
// full record with [Session.Project] or [Project.Update] before relying on
// the media lists.
type Project struct {
	ID        int64  `json:"id"`
	GroupID   int64  `json:"group_id"`
	EpisodeID int64  `json:"episode_id"`
	Title     string `json:"title"`
	Cover     string `json:"cover"`
	Content   string `json:"content"`

	Books        []string `json:"books"`
	BookFileIDs  []int64  `json:"books_file_ids"`
	Images       []string `json:"images"`
	ImageFileIDs []int64  `json:"images_file_ids"`
	Videos       []string `json:"videos"`
	VideoFileIDs []int64  `json:"videos_file_ids"`
}

// ProjectFromJSON decodes a project from its JSON representation.
func ProjectFromJSON(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &p, nil
}

// ToJSON encodes the project as JSON.
func (p *Project) ToJSON() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return data, nil
}

// String implements [fmt.Stringer] for listing output.
func (p *Project) String() string {
	return fmt.Sprintf("(%d)\t%s", p.ID, p.Title)
}

// MediaURLs returns the project's media references grouped by kind. Empty
// URLs are skipped.
func (p *Project) MediaURLs() map[string][]string {
	media := make(map[string][]string, 4)
	if p.Cover != "" {
		media["cover"] = []string{p.Cover}
	}
	for kind, urls := range map[string][]string{
		"book":  p.Books,
		"image": p.Images,
		"video": p.Videos,
	} {
		for _, u := range urls {
			if u != "" {
				media[kind] = append(media[kind], u)
			}
		}
	}
	return media
}

// Projects fetches one page of project summaries.
//
// The server caps limit at 1000 and silently truncates larger requests;
// enumerate the full set by advancing offset across calls.
func (s *Session) Projects(ctx context.Context, offset, limit int) (*ProjectCollection, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must be non-negative", shared.ErrInvalidArgument)
	}
	if limit == 0 {
		limit = 1000
	}

	data, err := s.getJSON(ctx, "project", map[string]string{
		"offset": strconv.Itoa(offset),
		"limit":  strconv.Itoa(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var projects []*Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("%w: project listing is not an array", shared.ErrProtocolChanged)
	}

	return NewProjectCollection(projects), nil
}

// Project fetches one project's full detail, media lists included.
func (s *Session) Project(ctx context.Context, id int64) (*Project, error) {
	data, err := s.getJSON(ctx, fmt.Sprintf("project/%d", id), nil)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("project %d: %w", id, shared.ErrProjectNotFound)
		}
		return nil, fmt.Errorf("failed to fetch project %d: %w", id, err)
	}

	p, err := ProjectFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrProtocolChanged, err)
	}
	return p, nil
}

// Update re-fetches the project by ID and overwrites every local field with
// server truth, discarding unsynced local edits (last-fetch-wins). Returns
// [shared.ErrProjectNotFound] if the remote project no longer exists.
func (p *Project) Update(ctx context.Context, s *Session) error {
	fresh, err := s.Project(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Push uploads the project's current local state to the server, replacing the
// remote record wholesale. This is a full overwrite, not a merge: concurrent
// edits by another actor are silently lost (last-write-wins). That risk is
// inherent to the platform API and deliberately not guarded against here.
func (p *Project) Push(ctx context.Context, s *Session) error {
	_, err := s.sendJSON(ctx, http.MethodPut, fmt.Sprintf("project/%d", p.ID), func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").SetBody(p)
	})
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
			return fmt.Errorf("project %d: %w", p.ID, shared.ErrProjectNotFound)
		}
		return fmt.Errorf("failed to push project %d: %w", p.ID, err)
	}
	return nil
}

// LoadContentFile replaces the project's local Content with the contents of
// the named file. The server is untouched until [Project.Push].
func (p *Project) LoadContentFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}
	p.Content = string(data)
	return nil
}
