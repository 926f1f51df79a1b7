// Package ops implements the operations shared by the CLI, the MCP server and
// the web UI: extraction, weaving, and browsing saved runs.
package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/extract"
	"github.com/hpungsan/verso/internal/fragment"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// LatestRunID addresses the most recently saved run wherever a run id is accepted.
const LatestRunID = "latest"

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// checkContext returns CANCELLED once ctx is done.
func checkContext(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return errors.NewCancelled(op)
	default:
		return nil
	}
}

// scanOptions builds extraction options from configuration.
func scanOptions(cfg *config.Config) extract.Options {
	return extract.Options{
		Symbols:       cfg.Symbols,
		SkipWholeFile: !cfg.WholeFile(),
	}
}

// resolveRun returns the saved run addressed by id. An empty id or "latest"
// selects the most recent run.
func resolveRun(database *sql.DB, id string) (*db.Run, error) {
	if database == nil {
		return nil, errors.NewInvalidRequest("saved runs require a database")
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, LatestRunID) {
		return db.LatestRun(database)
	}
	return db.GetRun(database, id)
}

// loadRun returns a saved run and its fragments.
func loadRun(database *sql.DB, id string) (*db.Run, fragment.Collection, error) {
	run, err := resolveRun(database, id)
	if err != nil {
		return nil, nil, err
	}
	coll, err := db.GetRunFragments(database, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, coll, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
