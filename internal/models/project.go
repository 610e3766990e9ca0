package models

import (
	"fmt"
	"time"
)

// PersistedProject is a cached snapshot of a remote project's summary: enough
// to list and look up projects offline, not the content or media themselves.
type PersistedProject struct {
	id        string
	sequence  int
	remoteID  int64
	groupID   int64
	episodeID int64
	title     string
	cover     string

	bookCount  int
	imageCount int
	videoCount int

	syncedAt  time.Time
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedProject creates a cache row for the given remote project
// summary. The row ID is assigned by the repository on insert.
func NewPersistedProject(sequence int, remoteID, groupID, episodeID int64, title, cover string, bookCount, imageCount, videoCount int) *PersistedProject {
	now := time.Now()
	return &PersistedProject{
		sequence:   sequence,
		remoteID:   remoteID,
		groupID:    groupID,
		episodeID:  episodeID,
		title:      title,
		cover:      cover,
		bookCount:  bookCount,
		imageCount: imageCount,
		videoCount: videoCount,
		syncedAt:   now,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (p *PersistedProject) ID() string { return p.id }

func (p *PersistedProject) Sequence() int { return p.sequence }

func (p *PersistedProject) RemoteID() int64 { return p.remoteID }

func (p *PersistedProject) GroupID() int64 { return p.groupID }

func (p *PersistedProject) EpisodeID() int64 { return p.episodeID }

func (p *PersistedProject) Title() string { return p.title }

func (p *PersistedProject) Cover() string { return p.cover }

func (p *PersistedProject) BookCount() int { return p.bookCount }

func (p *PersistedProject) ImageCount() int { return p.imageCount }

func (p *PersistedProject) VideoCount() int { return p.videoCount }

func (p *PersistedProject) SyncedAt() time.Time { return p.syncedAt }

func (p *PersistedProject) CreatedAt() time.Time { return p.createdAt }

func (p *PersistedProject) UpdatedAt() time.Time { return p.updatedAt }

func (p *PersistedProject) DeletedAt() *time.Time { return p.deletedAt }

func (p *PersistedProject) SetID(id string) { p.id = id }

func (p *PersistedProject) SetTitle(title string) { p.title = title }

func (p *PersistedProject) SetCover(cover string) { p.cover = cover }

// SetCounts updates the cached media counts in one call.
func (p *PersistedProject) SetCounts(books, images, videos int) {
	p.bookCount = books
	p.imageCount = images
	p.videoCount = videos
}

func (p *PersistedProject) SetSyncedAt(t time.Time) { p.syncedAt = t }

func (p *PersistedProject) SetCreatedAt(t time.Time) { p.createdAt = t }

func (p *PersistedProject) SetUpdatedAt(t time.Time) { p.updatedAt = t }

func (p *PersistedProject) SetDeletedAt(t *time.Time) { p.deletedAt = t }

// Validate implements [Model].
func (p *PersistedProject) Validate() error {
	if p.remoteID <= 0 {
		return fmt.Errorf("remote project id must be positive")
	}
	if p.title == "" {
		return fmt.Errorf("project title must not be empty")
	}
	return nil
}
