package main

import (
	"context"
	"errors"
	"os"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "milcubes",
		Usage:    "Download, upload and manage MilCubes authoring projects",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidCredentials):
			logger.Error("login rejected, check username and password")
		case errors.Is(err, shared.ErrSessionExpired):
			logger.Error("session expired, log in again or re-export cookies")
		case errors.Is(err, shared.ErrProtocolChanged):
			logger.Error("the platform answered with an unexpected shape, the client may be out of date")
		}
		logger.Fatalf("application error: %v", err)
	}
}
