package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded default configuration to disk.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("wrote config file", "path", path)
	return r.writePlain("Config written to %s. Set backend.url before tailing.\n", path)
}

// SetupDatabase initializes the run-history database and applies migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		db.Close()
		r.db = nil
	}()

	r.logger.Info("database ready", "path", r.config.Database.Path)
	return r.writePlain("Database initialized at %s\n", r.config.Database.Path)
}

// SetupHeaders imports backend session headers from a browser cURL command.
func (r *Runner) SetupHeaders(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	var headers *shared.CurlHeaders
	var err error

	switch {
	case cmd.String("curl") != "":
		headers, err = shared.ParseCurlCommand([]byte(cmd.String("curl")))
	case cmd.String("curl-file") != "":
		headers, err = shared.ParseCurlFile(cmd.String("curl-file"))
	default:
		return fmt.Errorf("%w: provide --curl or --curl-file", shared.ErrMissingArgument)
	}
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = r.config.Backend.HeadersPath
	}
	if output == "" {
		output = "headers.json"
	}

	if err := headers.WriteHeadersFile(output); err != nil {
		return err
	}

	r.logger.Info("imported backend headers", "path", output, "count", len(headers.Headers))
	return r.writePlain("Wrote %d headers to %s\n", len(headers.ToHeaderMap()), output)
}
