package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/mcp"
	"github.com/hpungsan/verso/internal/ops"
	"github.com/hpungsan/verso/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "verso",
		Usage:   "Extract code fragments from sources and weave them into prose",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Enable debug logging on stderr"},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory holding config.json and the run database (default: ~/.verso)"},
		},
		Before: func(c *cli.Context) error {
			return e.setup(c.String("config-dir"), c.Bool("verbose"))
		},
		Commands: []*cli.Command{
			extractCmd(e),
			weaveCmd(e),
			buildCmd(e),
			runsCmd(e),
			fragmentsCmd(e),
			fragmentCmd(e),
			serveCmd(e),
			mcpCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// extractCmd creates the extract command.
func extractCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract fragments from source files and write the payload to stdout",
		ArgsUsage: "SOURCE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Also store the run in the database"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the payload to this file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return usageError(c, "at least one source file is required")
			}

			var database *sql.DB
			if c.Bool("save") {
				var err error
				if database, err = e.database(); err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			var payload bytes.Buffer
			output, err := ops.Extract(c.Context, database, e.cfg, e.logger, ops.ExtractInput{
				Paths: paths,
				Out:   &payload,
				Save:  c.Bool("save"),
			})
			if err != nil {
				return outputError(err)
			}

			if out := c.String("out"); out != "" {
				if err := os.WriteFile(out, payload.Bytes(), 0644); err != nil {
					return outputError(errors.NewIO(out, err))
				}
				return outputJSON(c.App.Writer, output)
			}

			if _, err := c.App.Writer.Write(payload.Bytes()); err != nil {
				return outputError(errors.NewIO("stdout", err))
			}
			if output.RunID != "" {
				fmt.Fprintf(c.App.ErrWriter, "saved run %s\n", output.RunID)
			}
			return nil
		},
	}
}

// weaveCmd creates the weave command.
func weaveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "weave",
		Usage:     "Resolve fragment references in prose files (reads the payload from stdin)",
		ArgsUsage: "PROSE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out-dir", Aliases: []string{"d"}, Usage: "Root of the mirrored output tree"},
			&cli.StringFlag{Name: "run", Aliases: []string{"r"}, Usage: "Weave against a saved run (\"latest\" for the newest) instead of stdin"},
			&cli.BoolFlag{Name: "html", Usage: "Also write an HTML rendering of every output"},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return usageError(c, "at least one prose file is required")
			}
			if c.String("out-dir") == "" {
				return usageError(c, "--out-dir is required")
			}

			input := ops.WeaveInput{
				OutDir: c.String("out-dir"),
				Paths:  paths,
				RunID:  c.String("run"),
				HTML:   c.Bool("html"),
			}

			var database *sql.DB
			if input.RunID != "" {
				var err error
				if database, err = e.database(); err != nil {
					return outputError(errors.NewInternal(err))
				}
			} else {
				if c.App.Reader == os.Stdin && isTerminal() {
					return usageError(c, "no payload on stdin; pipe extract output in or pass --run")
				}
				input.Payload = c.App.Reader
			}

			output, err := ops.Weave(c.Context, database, e.cfg, e.logger, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// buildCmd creates the build command.
func buildCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Extract and weave in one process",
		ArgsUsage: "PROSE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out-dir", Aliases: []string{"d"}, Usage: "Root of the mirrored output tree"},
			&cli.StringSliceFlag{Name: "source", Aliases: []string{"S"}, Usage: "Source file to extract from (repeatable)"},
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Also store the extraction run"},
			&cli.BoolFlag{Name: "html", Usage: "Also write an HTML rendering of every output"},
		},
		Action: func(c *cli.Context) error {
			if len(c.StringSlice("source")) == 0 || c.NArg() == 0 || c.String("out-dir") == "" {
				return usageError(c, "build needs --out-dir, at least one --source and at least one prose file")
			}

			var database *sql.DB
			if c.Bool("save") {
				var err error
				if database, err = e.database(); err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			output, err := ops.Build(c.Context, database, e.cfg, e.logger, ops.BuildInput{
				Sources: c.StringSlice("source"),
				Prose:   c.Args().Slice(),
				OutDir:  c.String("out-dir"),
				Save:    c.Bool("save"),
				HTML:    c.Bool("html"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// runsCmd creates the runs command and its subcommands.
func runsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List saved extraction runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum runs to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Runs to skip"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.database()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.ListRuns(database, ops.ListRunsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
		Subcommands: []*cli.Command{
			{
				Name:  "latest",
				Usage: "Show the most recently saved run",
				Action: func(c *cli.Context) error {
					database, err := e.database()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}

					output, err := ops.LatestRun(database)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "show",
				Usage:     "Show one saved run",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					database, err := e.database()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}

					output, err := ops.GetRun(database, ops.GetRunInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved run and its fragments",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					database, err := e.database()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}

					output, err := ops.DeleteRun(database, ops.DeleteRunInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c.App.Writer, output)
				},
			},
		},
	}
}

// fragmentsCmd creates the fragments command.
func fragmentsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "fragments",
		Usage: "List the fragments of a saved run",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Aliases: []string{"r"}, Usage: "Run id (default: latest)"},
			&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Usage: "Regular expression over fragment ids"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.database()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.ListFragments(database, ops.ListFragmentsInput{
				RunID:   c.String("run"),
				Pattern: c.String("pattern"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// fragmentCmd creates the fragment command.
func fragmentCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "fragment",
		Usage:     "Show fragments of a saved run with their content",
		ArgsUsage: "ID...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Aliases: []string{"r"}, Usage: "Run id (default: latest)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one fragment id is required"))
			}

			database, err := e.database()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			if c.NArg() == 1 {
				output, err := ops.FetchFragment(database, ops.FetchFragmentInput{
					RunID: c.String("run"),
					ID:    c.Args().First(),
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, output)
			}

			output, err := ops.FetchMany(database, ops.FetchManyInput{
				RunID: c.String("run"),
				IDs:   c.Args().Slice(),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the browse UI for saved runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8484, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.database()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			srv, err := web.NewServer(database, e.cfg, e.logger, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, e.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			database, err := e.database()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			if unknown := mcp.ValidateDisabledTools(e.cfg.DisabledTools); len(unknown) > 0 {
				e.logger.Warn("Unknown tools in disabled_tools", zap.Strings("tools", unknown))
			}

			return mcp.Run(database, e.cfg, e.logger, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var vErr *errors.VersoError
	if stderrors.As(err, &vErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// usageError prints the pipe usage hint and returns an INVALID_REQUEST error.
func usageError(c *cli.Context, msg string) error {
	fmt.Fprintln(c.App.ErrWriter, pipeUsage)
	return outputError(errors.NewInvalidRequest(msg))
}
