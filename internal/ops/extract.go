package ops

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/db"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/extract"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/interchange"
	"github.com/hpungsan/verso/internal/logging"
)

// ExtractInput contains parameters for the Extract operation.
type ExtractInput struct {
	Paths []string  // required, scanned in order
	Out   io.Writer // optional, receives the interchange payload
	Save  bool      // store the run in the database
}

// ExtractOutput contains the result of the Extract operation.
type ExtractOutput struct {
	RunID     string             `json:"run_id,omitempty"`
	Files     int                `json:"files"`
	Halted    []string           `json:"halted,omitempty"`
	Fragments []fragment.Summary `json:"fragments"`

	// Collection is the extracted collection, for in-process callers.
	Collection fragment.Collection `json:"-"`
}

// Extract scans the source files and emits their fragments. Nothing is written
// to Out or the database unless every file scans cleanly and all ids are unique.
func Extract(ctx context.Context, database *sql.DB, cfg *config.Config, logger *zap.Logger, input ExtractInput) (*ExtractOutput, error) {
	logger = logging.OrNop(logger)

	if len(input.Paths) == 0 {
		return nil, errors.NewInvalidRequest("at least one source file is required")
	}
	if input.Save && database == nil {
		return nil, errors.NewInvalidRequest("saving a run requires a database")
	}

	sources := make([]extract.Source, 0, len(input.Paths))
	for _, path := range input.Paths {
		if err := checkContext(ctx, "extract"); err != nil {
			return nil, err
		}
		if strings.TrimSpace(path) == "" {
			return nil, errors.NewInvalidRequest("source path must not be empty")
		}

		logger.Debug("Scanning source", zap.String("file", path))
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, extract.Source{Path: path, Reader: bytes.NewReader(data)})
	}

	res, err := extract.Extract(sources, scanOptions(cfg))
	if err != nil {
		return nil, err
	}
	coll := res.Fragments
	for _, path := range res.Halted {
		logger.Debug("Scan stopped at halt marker", zap.String("file", path))
	}

	output := &ExtractOutput{
		Files:      len(input.Paths),
		Halted:     res.Halted,
		Fragments:  make([]fragment.Summary, 0, len(coll)),
		Collection: coll,
	}
	for _, f := range coll {
		output.Fragments = append(output.Fragments, fragment.Summarize(f))
	}

	// The payload goes out first; a failed write leaves no saved run behind.
	if input.Out != nil {
		if err := interchange.Encode(input.Out, coll); err != nil {
			return nil, err
		}
	}

	if input.Save {
		runID, err := saveRun(database, input.Paths, coll)
		if err != nil {
			return nil, err
		}
		output.RunID = runID
		logger.Info("Saved run", zap.String("run_id", runID), zap.Int("fragments", len(coll)))
	}

	logger.Info("Extracted fragments", zap.Int("files", output.Files), zap.Int("fragments", len(coll)))
	return output, nil
}

// saveRun stores coll as a new run and returns its id.
func saveRun(database *sql.DB, paths []string, coll fragment.Collection) (string, error) {
	id, err := generateULID()
	if err != nil {
		return "", errors.NewInternal(err)
	}

	workdir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternal(err)
	}

	run := &db.Run{
		ID:        id,
		Workdir:   workdir,
		Sources:   paths,
		CreatedAt: time.Now().Unix(),
	}
	if err := db.InsertRun(database, run, coll); err != nil {
		return "", err
	}
	return id, nil
}
