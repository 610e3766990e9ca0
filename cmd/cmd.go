// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// sessionFlags are shared by every command that talks to the platform.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Platform account email",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Platform account password (prompted when omitted)",
		},
		&cli.StringFlag{
			Name:  "cookies",
			Usage: "Path to a JSON cookie export (wins over username/password)",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Platform base URL override",
		},
	}
}

// listCommand lists the account's projects
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List projects",
		Flags: append(sessionFlags(),
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Listing offset",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of projects to return (server caps at 1000)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Read from the local cache instead of the platform",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the listing to projects.csv",
			},
		),
		Action: r.List,
	}
}

// downloadCommand downloads project content and media
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download project content and media",
		Flags: append(sessionFlags(),
			&cli.IntFlag{
				Name:  "id",
				Usage: "Project ID to download",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Project title to download (first match)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Download every project",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent media downloads (capped at 8)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Request rate limit per second",
			},
			&cli.BoolFlag{
				Name:  "skip-media",
				Usage: "Write content only, skip media",
			},
			&cli.BoolFlag{
				Name:  "meta",
				Usage: "Also write the project's JSON metadata",
			},
		),
		Action: r.Download,
	}
}

// uploadCommand pushes local content to a project
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Push a local content file to a project (full overwrite)",
		Flags: append(sessionFlags(),
			&cli.IntFlag{
				Name:  "id",
				Usage: "Project ID to update",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Project title to update (first match)",
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Local HTML/text file to push as the project content",
				Required: true,
			},
		),
		Action: r.Upload,
	}
}

// fileCommand uploads a raw file to the platform's object store
func fileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "file",
		Usage: "Upload a file, printing its remote URL and ID",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Local file to upload",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mime",
				Usage: "MIME type override (inferred from extension when omitted)",
			},
			&cli.IntFlag{
				Name:  "id",
				Usage: "Project whose references to rewrite (requires --replace)",
			},
			&cli.StringFlag{
				Name:  "replace",
				Usage: "Old asset URL to replace with the uploaded file's URL",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		),
		Action: r.File,
	}
}

// cacheCommand refreshes the local project cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Refresh the local project cache from a listing",
		Flags: append(sessionFlags(),
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Listing offset",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of projects to cache",
			},
		),
		Action: r.CacheSync,
	}
}

// setupCommand initializes the local database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// openCommand opens a project's page in the browser
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open a project's page in the browser",
		Flags: append(sessionFlags(),
			&cli.IntFlag{
				Name:     "id",
				Usage:    "Project ID to open",
				Required: true,
			},
		),
		Action: r.Open,
	}
}

// tuiCommand returns the top-level TUI command for interactive project management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing and downloading projects",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for downloads",
			},
		),
		Action: r.TUI,
	}
}
