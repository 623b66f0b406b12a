// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for configuration, database and backend auth.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path for the config file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run-history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "headers",
				Usage: "Import backend session headers from browser DevTools (Copy as cURL)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for headers.json (default: config headers_path)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// formatCommand renders a captured log one-shot.
func formatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "format",
		Usage: "Render a captured sync log from a file or stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Capture file to read (default: stdin)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Output mode: term, html or raw",
				Value: "term",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Replay chunk size in bytes",
				Value: 512,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Raw passthrough, bypasses formatting and filtering",
			},
		},
		Action: r.Format,
	}
}

// tailCommand follows the backend log endpoint in the terminal.
func tailCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Follow the backend sync log in the terminal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Raw passthrough, bypasses formatting and filtering",
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Record observed sync runs to the database",
				Value: true,
			},
		},
		Action: r.Tail,
	}
}

// tuiCommand returns the interactive log viewer.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive log viewer",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Record observed sync runs to the database",
				Value: true,
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the local HTTP log panel.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the live log panel over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the panel in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// runsCommand handles stored run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync runs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show one run by backend run id",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "run-id",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.RunsShow,
			},
		},
	}
}
