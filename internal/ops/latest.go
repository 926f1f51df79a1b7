package ops

import (
	"database/sql"

	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/errors"
)

// LatestRunOutput contains the result of the LatestRun operation.
// Item is nil when no run has been saved yet.
type LatestRunOutput struct {
	Item *db.Run `json:"item"`
}

// LatestRun retrieves the most recently saved run.
func LatestRun(database *sql.DB) (*LatestRunOutput, error) {
	run, err := db.LatestRun(database)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return &LatestRunOutput{}, nil
		}
		return nil, err
	}
	return &LatestRunOutput{Item: run}, nil
}
