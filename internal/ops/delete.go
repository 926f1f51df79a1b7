package ops

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/errors"
)

// DeleteRunInput contains parameters for the DeleteRun operation.
type DeleteRunInput struct {
	ID string // required
}

// DeleteRunOutput contains the result of the DeleteRun operation.
type DeleteRunOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteRun removes a saved run and its fragments.
func DeleteRun(database *sql.DB, input DeleteRunInput) (*DeleteRunOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("run id is required")
	}

	if err := db.DeleteRun(database, id); err != nil {
		return nil, err
	}

	return &DeleteRunOutput{
		Deleted: true,
		ID:      id,
	}, nil
}
