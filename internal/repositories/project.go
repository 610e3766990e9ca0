package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/models"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// ProjectRepository implements models.Repository[*models.PersistedProject]
// for the local project cache.
//
// Handles project summary CRUD with soft delete support and remote-ID
// lookups. The cache is a convenience snapshot; the platform stays the
// source of truth.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository with the given database connection
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project summary into the cache with generated ID and sequence
func (r *ProjectRepository) Create(project *models.PersistedProject) error {
	sequence, err := NextSequence(r.db, "projects")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	project.SetID(id)

	if err := project.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO projects (id, sequence, remote_id, group_id, episode_id, title, cover, book_count, image_count, video_count, synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		project.RemoteID(),
		project.GroupID(),
		project.EpisodeID(),
		project.Title(),
		project.Cover(),
		project.BookCount(),
		project.ImageCount(),
		project.VideoCount(),
		project.SyncedAt(),
		project.CreatedAt(),
		project.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

// Get retrieves a cached project by row ID, excluding soft-deleted rows
func (r *ProjectRepository) Get(id string) (*models.PersistedProject, error) {
	query := `
		SELECT id, sequence, remote_id, group_id, episode_id, title, cover, book_count, image_count, video_count, synced_at, created_at, updated_at, deleted_at
		FROM projects
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByRemoteID retrieves a cached project by its remote platform ID
func (r *ProjectRepository) GetByRemoteID(remoteID int64) (*models.PersistedProject, error) {
	query := `
		SELECT id, sequence, remote_id, group_id, episode_id, title, cover, book_count, image_count, video_count, synced_at, created_at, updated_at, deleted_at
		FROM projects
		WHERE remote_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, remoteID))
}

// Update modifies an existing cached project
func (r *ProjectRepository) Update(project *models.PersistedProject) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	project.SetUpdatedAt(now)

	query := `
		UPDATE projects
		SET title = ?, cover = ?, book_count = ?, image_count = ?, video_count = ?, synced_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		project.Title(),
		project.Cover(),
		project.BookCount(),
		project.ImageCount(),
		project.VideoCount(),
		project.SyncedAt(),
		now,
		project.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project not found or already deleted: %s", project.ID())
	}

	return nil
}

// Delete soft-deletes a cached project by row ID
func (r *ProjectRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE projects
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all cached projects matching the given criteria, excluding soft-deleted rows
func (r *ProjectRepository) List(criteria map[string]any) ([]*models.PersistedProject, error) {
	query := `
		SELECT id, sequence, remote_id, group_id, episode_id, title, cover, book_count, image_count, video_count, synced_at, created_at, updated_at, deleted_at
		FROM projects
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND title = ?"
		args = append(args, title)
	}

	if groupID, ok := criteria["group_id"].(int64); ok && groupID != 0 {
		query += " AND group_id = ?"
		args = append(args, groupID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.PersistedProject
	for rows.Next() {
		project, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return projects, nil
}

// Sync upserts the cache from a listing snapshot: new remote projects are
// inserted, known ones refreshed. Returns how many rows were written.
func (r *ProjectRepository) Sync(collection *platform.ProjectCollection) (int, error) {
	written := 0
	for _, p := range collection.All() {
		existing, err := r.GetByRemoteID(p.ID)
		if err != nil {
			fresh := models.NewPersistedProject(0, p.ID, p.GroupID, p.EpisodeID, p.Title, p.Cover, len(p.Books), len(p.Images), len(p.Videos))
			if err := r.Create(fresh); err != nil {
				return written, fmt.Errorf("failed to cache project %d: %w", p.ID, err)
			}
			written++
			continue
		}

		existing.SetTitle(p.Title)
		existing.SetCover(p.Cover)
		existing.SetCounts(len(p.Books), len(p.Images), len(p.Videos))
		existing.SetSyncedAt(time.Now())
		if err := r.Update(existing); err != nil {
			return written, fmt.Errorf("failed to refresh cached project %d: %w", p.ID, err)
		}
		written++
	}

	return written, nil
}

// scanOne scans a single row into a [models.PersistedProject]
func (r *ProjectRepository) scanOne(row *sql.Row) (*models.PersistedProject, error) {
	var (
		id         string
		sequence   int
		remoteID   int64
		groupID    int64
		episodeID  int64
		title      string
		cover      string
		bookCount  int
		imageCount int
		videoCount int
		syncedAt   time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &groupID, &episodeID, &title, &cover, &bookCount, &imageCount, &videoCount, &syncedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	project := models.NewPersistedProject(sequence, remoteID, groupID, episodeID, title, cover, bookCount, imageCount, videoCount)
	project.SetID(id)
	project.SetSyncedAt(syncedAt)
	project.SetCreatedAt(createdAt)
	project.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		project.SetDeletedAt(&deletedAt.Time)
	}

	return project, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedProject]
func (r *ProjectRepository) scanRow(rows *sql.Rows) (*models.PersistedProject, error) {
	var (
		id         string
		sequence   int
		remoteID   int64
		groupID    int64
		episodeID  int64
		title      string
		cover      string
		bookCount  int
		imageCount int
		videoCount int
		syncedAt   time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &remoteID, &groupID, &episodeID, &title, &cover, &bookCount, &imageCount, &videoCount, &syncedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	project := models.NewPersistedProject(sequence, remoteID, groupID, episodeID, title, cover, bookCount, imageCount, videoCount)
	project.SetID(id)
	project.SetSyncedAt(syncedAt)
	project.SetCreatedAt(createdAt)
	project.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		project.SetDeletedAt(&deletedAt.Time)
	}

	return project, nil
}
