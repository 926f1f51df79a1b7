package ops

import (
	"database/sql"
	"fmt"

	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/marker"
)

// MaxFetchManyItems bounds the ids accepted by one FetchMany call.
const MaxFetchManyItems = 50

// FetchManyInput contains parameters for the FetchMany operation.
type FetchManyInput struct {
	RunID string   // optional, default: latest run
	IDs   []string // required, at most MaxFetchManyItems
}

// FetchManyOutput contains the result of the FetchMany operation.
type FetchManyOutput struct {
	RunID  string              `json:"run_id"`
	Items  []fragment.Fragment `json:"items"`
	Errors []FetchManyError    `json:"errors"`
}

// FetchManyError represents an error for a specific id.
type FetchManyError struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchMany retrieves several fragments of one saved run.
// Returns partial success with items and errors arrays.
func FetchMany(database *sql.DB, input FetchManyInput) (*FetchManyOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids must not be empty")
	}
	if len(input.IDs) > MaxFetchManyItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many ids (max %d)", MaxFetchManyItems))
	}

	run, err := resolveRun(database, input.RunID)
	if err != nil {
		return nil, err
	}

	var items []fragment.Fragment
	var errs []FetchManyError

	for _, id := range input.IDs {
		if !marker.ValidID(id) {
			errs = append(errs, idToError(id, errors.NewInvalidRequest(fmt.Sprintf("invalid fragment id %q", id))))
			continue
		}
		f, err := db.GetFragment(database, run.ID, id)
		if err != nil {
			errs = append(errs, idToError(id, err))
			continue
		}
		items = append(items, *f)
	}

	// Ensure we return empty arrays rather than nil
	if items == nil {
		items = []fragment.Fragment{}
	}
	if errs == nil {
		errs = []FetchManyError{}
	}

	return &FetchManyOutput{
		RunID:  run.ID,
		Items:  items,
		Errors: errs,
	}, nil
}

// idToError converts a fetch error to a FetchManyError.
func idToError(id string, err error) FetchManyError {
	var code, message string

	// Extract code and message from VersoError
	if vErr, ok := err.(*errors.VersoError); ok {
		code = string(vErr.Code)
		message = vErr.Message
	} else {
		code = string(errors.ErrInternal)
		message = err.Error()
	}

	return FetchManyError{
		ID:      id,
		Code:    code,
		Message: message,
	}
}
