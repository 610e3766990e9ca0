package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// Open opens a project's authoring page in the default browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	id := int64(cmd.Int("id"))

	// Verify the project exists before handing the URL to the browser.
	project, err := r.session.Project(ctx, id)
	if err != nil {
		return err
	}

	pageURL := fmt.Sprintf("%s/admin/project/%d", r.session.BaseURL(), project.ID)

	r.logger.Info("opening project page", "id", project.ID, "url", pageURL)

	if err := shared.OpenBrowser(pageURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n", pageURL)
		return nil
	}

	r.writePlain("✓ Opened '%s' (%d)\n", project.Title, project.ID)
	return nil
}
