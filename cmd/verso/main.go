package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/logging"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// pipeUsage shows the two stages joined by a pipe.
const pipeUsage = `usage: verso extract SOURCE... | verso weave --out-dir DIR PROSE...
       verso build --out-dir DIR --source SOURCE... PROSE...`

// env holds the state shared by every command. The database is opened on first
// use so that extract and weave run without touching ~/.verso.
type env struct {
	baseDir string
	cfg     *config.Config
	logger  *zap.Logger
	db      *sql.DB
}

// setup loads configuration from baseDir and the nearest repo config, applies
// environment overrides, and builds the logger.
func (e *env) setup(baseDir string, verbose bool) error {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".verso")
	}
	e.baseDir = baseDir

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not determine working directory: %w", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Symbols.Validate(); err != nil {
		return fmt.Errorf("invalid symbols: %w", err)
	}
	e.cfg = cfg

	logger, err := logging.New(verbose)
	if err != nil {
		return err
	}
	e.logger = logger
	return nil
}

// database opens the run database on first use.
func (e *env) database() (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	database, err := db.Init(e.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, e.cfg)
	e.db = database
	e.logger.Debug("Opened database", zap.String("dir", e.baseDir))
	return database, nil
}

// close releases the database and flushes the logger.
func (e *env) close() {
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __   _____ _ __ ___  ___
  \ \ / / _ \ '__/ __|/ _ \
   \ V /  __/ |  \__ \ (_) |
    \_/ \___|_|  |___/\___/

  Literate programming: extract fragments, weave prose`)
	fmt.Println()
	fmt.Println(pipeUsage)
	fmt.Println("\n  Run 'verso --help' for all commands.")
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	e := &env{}
	app := newCLIApp(e)
	err := app.Run(os.Args)
	e.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
