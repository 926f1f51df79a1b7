package ops

import (
	"database/sql"

	"github.com/hpungsan/verso/internal/db"
)

// GetRunInput contains parameters for the GetRun operation.
type GetRunInput struct {
	ID string // optional, default: latest run
}

// GetRun retrieves one saved run. An empty id or "latest" selects the newest.
func GetRun(database *sql.DB, input GetRunInput) (*db.Run, error) {
	return resolveRun(database, input.ID)
}
