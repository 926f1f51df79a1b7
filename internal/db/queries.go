package db

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.VersoError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// Run is a saved extraction run.
type Run struct {
	ID            string   `json:"id"`
	Workdir       string   `json:"workdir"`
	Sources       []string `json:"sources"`
	FragmentCount int      `json:"fragment_count"`
	CreatedAt     int64    `json:"created_at"`
}

// InsertRun stores a run and its fragments in one transaction.
// FragmentCount is taken from coll, whose ids must be unique.
func InsertRun(db *sql.DB, r *Run, coll fragment.Collection) error {
	if err := coll.CheckUnique(); err != nil {
		return err
	}

	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return errors.NewInternal(err)
	}
	r.FragmentCount = len(coll)

	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO runs (id, workdir, sources_json, fragment_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Workdir, string(sources), r.FragmentCount, r.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO fragments (run_id, seq, id, file, line, col, content)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	for i, f := range coll {
		if _, err := stmt.Exec(r.ID, i, f.ID, f.File, f.Line, f.Col, f.Content); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const runColumns = `id, workdir, sources_json, fragment_count, created_at`

// GetRun retrieves a run by its ULID.
func GetRun(db *sql.DB, id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// LatestRun retrieves the most recently created run.
// Runs created in the same second are ordered by id, which is time-sortable.
func LatestRun(db *sql.DB) (*Run, error) {
	row := db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("latest")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListRuns returns runs newest first, and the total number of runs.
func ListRuns(db *sql.DB, limit, offset int) ([]Run, int, error) {
	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := db.Query(`
		SELECT `+runColumns+` FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return runs, total, nil
}

// GetRunFragments returns the fragments of a run in extraction order.
func GetRunFragments(db *sql.DB, runID string) (fragment.Collection, error) {
	if _, err := GetRun(db, runID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, file, line, col, content FROM fragments
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	coll := fragment.Collection{}
	for rows.Next() {
		var f fragment.Fragment
		if err := rows.Scan(&f.ID, &f.File, &f.Line, &f.Col, &f.Content); err != nil {
			return nil, errors.NewInternal(err)
		}
		coll = append(coll, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return coll, nil
}

// GetFragment retrieves one fragment of a run.
func GetFragment(db *sql.DB, runID, id string) (*fragment.Fragment, error) {
	f := fragment.Fragment{ID: id}
	err := db.QueryRow(`
		SELECT file, line, col, content FROM fragments
		WHERE run_id = ? AND id = ?
	`, runID, id).Scan(&f.File, &f.Line, &f.Col, &f.Content)
	if err == sql.ErrNoRows {
		if _, runErr := GetRun(db, runID); runErr != nil {
			return nil, runErr
		}
		return nil, errors.NewFragmentNotInRun(runID, id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &f, nil
}

// DeleteRun removes a run and its fragments.
func DeleteRun(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	if _, err := tx.Exec(`DELETE FROM fragments WHERE run_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a Run struct.
func scanRun(row rowScanner) (*Run, error) {
	var (
		r           Run
		sourcesJSON string
	)

	if err := row.Scan(&r.ID, &r.Workdir, &sourcesJSON, &r.FragmentCount, &r.CreatedAt); err != nil {
		return nil, err
	}

	if sourcesJSON != "" {
		if err := json.Unmarshal([]byte(sourcesJSON), &r.Sources); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
