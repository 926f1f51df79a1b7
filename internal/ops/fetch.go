package ops

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/marker"
)

// FetchFragmentInput contains parameters for the FetchFragment operation.
type FetchFragmentInput struct {
	RunID string // optional, default: latest run
	ID    string // required
}

// FetchFragmentOutput contains the result of the FetchFragment operation.
type FetchFragmentOutput struct {
	fragment.Fragment        // embedded (copy, not pointer)
	RunID             string `json:"run_id"`
	Lines             int    `json:"lines"`
}

// FetchFragment retrieves one fragment of a saved run.
func FetchFragment(database *sql.DB, input FetchFragmentInput) (*FetchFragmentOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("fragment id is required")
	}
	if !marker.ValidID(id) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid fragment id %q", id))
	}

	run, err := resolveRun(database, input.RunID)
	if err != nil {
		return nil, err
	}

	f, err := db.GetFragment(database, run.ID, id)
	if err != nil {
		return nil, err
	}

	return &FetchFragmentOutput{
		Fragment: *f,
		RunID:    run.ID,
		Lines:    fragment.CountLines(f.Content),
	}, nil
}
