package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	session    *platform.Session
	engine     *tasks.SyncEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Session    *platform.Session
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		session:    opts.Session,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
	if r.session != nil {
		r.engine = tasks.NewSyncEngine(r.session, r.logger)
	}
	return r
}

// SetLogger swaps the runner's logger, propagating it to the sync engine.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if r.session != nil {
		r.engine = tasks.NewSyncEngine(r.session, logger)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		listCommand, downloadCommand, uploadCommand, fileCommand, cacheCommand, setupCommand, openCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureSession lazily authenticates against the platform using the command's
// flags, falling back to the config file. Cookie imports win over passwords
// since they avoid the login handshake.
func (r *Runner) ensureSession(ctx context.Context, cmd *cli.Command) error {
	if r.session != nil {
		return nil
	}

	config := r.config
	if configPath := cmd.String("config"); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if loaded, err := shared.LoadConfig(configPath); err == nil {
				config = loaded
				r.config = loaded
			} else {
				r.logger.Warn("failed to load config, using defaults", "error", err)
			}
		}
	}

	cookiesPath := cmd.String("cookies")
	if cookiesPath == "" {
		cookiesPath = config.Credentials.CookiesFile
	}
	username := cmd.String("username")
	if username == "" {
		username = config.Credentials.Username
	}
	password := cmd.String("password")
	if password == "" {
		password = config.Credentials.Password
	}

	var creds platform.Credentials
	switch {
	case cookiesPath != "":
		cookies, err := shared.ParseCookieFile(cookiesPath)
		if err != nil {
			return fmt.Errorf("failed to import cookies: %w", err)
		}
		creds = platform.CookieImport{Cookies: cookies}
		r.logger.Info("using imported cookies", "file", cookiesPath)
	case username != "":
		if password == "" {
			var err error
			if password, err = r.promptPassword(username); err != nil {
				return err
			}
		}
		creds = platform.PasswordLogin{Username: username, Password: password}
	default:
		return fmt.Errorf("%w: provide --username/--password or --cookies", shared.ErrMissingCredentials)
	}

	baseURL := cmd.String("base-url")
	if baseURL == "" {
		baseURL = config.Platform.BaseURL
	}

	session, err := platform.Login(ctx, baseURL, creds, platform.SessionOpts{
		Timeout:    time.Duration(config.Platform.TimeoutSeconds) * time.Second,
		MaxRetries: config.Platform.MaxRetries,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		return err
	}

	r.session = session
	r.engine = tasks.NewSyncEngine(session, r.logger)
	return nil
}

// promptPassword asks for the account password on the terminal.
func (r *Runner) promptPassword(username string) (string, error) {
	r.writePlain("Password for %s: ", username)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", shared.ErrMissingCredentials
	}
	return password, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
