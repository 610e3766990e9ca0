package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/tasks"
)

// Upload pushes a local content file to a project.
//
// This is a full overwrite of the remote content; concurrent edits by another
// author are lost (last-write-wins).
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	project, err := r.resolveProject(ctx, cmd)
	if err != nil {
		return err
	}

	contentPath := cmd.String("file")
	if err := project.LoadContentFile(contentPath); err != nil {
		return err
	}

	r.logger.Info("pushing content", "project", project.ID, "file", contentPath)

	if err := project.Push(ctx, r.session); err != nil {
		return err
	}

	r.writePlain("✓ Content pushed to '%s' (%d)\n", project.Title, project.ID)
	r.writePlain("  Source: %s (%d bytes)\n", contentPath, len(project.Content))

	return nil
}

// File uploads a raw file to the platform's object store.
//
// With --id and --replace it also rewrites the project's references to the
// old URL and pushes the result.
func (r *Runner) File(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	filePath := cmd.String("file")
	mimeType := cmd.String("mime")
	projectID := int64(cmd.Int("id"))
	oldURL := cmd.String("replace")

	if (projectID == 0) != (oldURL == "") {
		return fmt.Errorf("%w: --id and --replace must be given together", shared.ErrInvalidArgument)
	}

	if projectID == 0 {
		r.logger.Info("uploading file", "file", filePath, "mime", mimeType)

		result, err := r.session.UploadFileByPath(ctx, filePath, mimeType)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			return r.writeJSON(result, true)
		}

		r.writePlain("✓ File uploaded\n")
		r.writePlain("  URL: %s\n", result.URL)
		r.writePlain("  ID:  %d\n", result.FileID)
		return nil
	}

	project, err := r.session.Project(ctx, projectID)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := r.engine.ReplaceAsset(ctx, progressCh, project, oldURL, filePath)
	close(progressCh)
	if err != nil {
		return err
	}

	if result.Replacements == 0 {
		r.writePlain("⚠ %s appears nowhere in project %d; nothing to push\n", oldURL, projectID)
		r.writePlain("  Uploaded URL: %s\n", result.Upload.URL)
		return nil
	}

	if err := project.Push(ctx, r.session); err != nil {
		return err
	}

	r.writePlain("✓ Replaced %d reference(s) in '%s' (%d)\n", result.Replacements, project.Title, project.ID)
	r.writePlain("  New URL: %s\n", result.Upload.URL)
	r.writePlain("  File ID: %d\n", result.Upload.FileID)

	return nil
}
