package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/desertthunder/cwlog/internal/source"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	DB         *sql.DB
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

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, formatCommand, tailCommand, tuiCommand, serveCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, e.g. for file-backed TUI logging.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// reloadConfig honors a per-command --config flag when set.
func (r *Runner) reloadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == "config.toml" {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}
	r.config = config
	return nil
}

// openDatabase opens (once) the run-history database and applies migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	return db, nil
}

// formatterOptions builds session options from config plus a per-command
// debug override.
func (r *Runner) formatterOptions(debug bool) formatter.Options {
	return formatter.Options{
		Debug:     debug || r.config.Formatter.Debug,
		BufferCap: r.config.Formatter.BufferCap,
	}
}

// backendSource builds an HTTP poller from config, loading imported browser
// headers when configured.
func (r *Runner) backendSource() source.Source {
	headers := map[string]string{}
	if path := r.config.Backend.HeadersPath; path != "" {
		if loaded, err := shared.LoadHeadersFile(path); err == nil {
			headers = loaded
		} else {
			r.logger.Warn("could not load headers file", "path", path, "err", err)
		}
	}

	return source.NewHTTPSource(source.HTTPOptions{
		BaseURL:      r.config.Backend.URL,
		Token:        r.config.Backend.Token,
		Headers:      headers,
		PollInterval: r.config.Backend.PollInterval(),
		Client:       r.httpClient,
	})
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
