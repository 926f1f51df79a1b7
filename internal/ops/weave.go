package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/interchange"
	"github.com/hpungsan/verso/internal/logging"
	"github.com/hpungsan/verso/internal/render"
	"github.com/hpungsan/verso/internal/store"
	"github.com/hpungsan/verso/internal/weave"
)

// WeaveInput contains parameters for the Weave operation.
type WeaveInput struct {
	OutDir string   // required, root of the mirrored output tree
	Paths  []string // required, prose files woven in order

	// Payload is read to EOF when RunID is empty.
	Payload io.Reader

	// RunID selects a saved run instead of a payload ("latest" for the newest).
	RunID string

	// HTML also writes an HTML rendering of every output.
	HTML bool
}

// WeaveOutput contains the result of the Weave operation.
type WeaveOutput struct {
	RunID     string   `json:"run_id,omitempty"`
	Fragments int      `json:"fragments"`
	Written   []string `json:"written"`
}

// Weave resolves references in the prose files and writes the results under
// OutDir. The fragment source is read and decoded completely, and every document
// is resolved, before the first output file is written; any error leaves the
// output tree untouched.
func Weave(ctx context.Context, database *sql.DB, cfg *config.Config, logger *zap.Logger, input WeaveInput) (*WeaveOutput, error) {
	logger = logging.OrNop(logger)

	if strings.TrimSpace(input.OutDir) == "" {
		return nil, errors.NewInvalidRequest("output directory is required")
	}
	if len(input.Paths) == 0 {
		return nil, errors.NewInvalidRequest("at least one prose file is required")
	}

	output := &WeaveOutput{}
	coll, runID, err := loadFragments(database, input.Payload, input.RunID)
	if err != nil {
		return nil, err
	}
	output.RunID = runID
	output.Fragments = len(coll)
	logger.Debug("Read fragments", zap.Int("fragments", len(coll)), zap.String("run_id", runID))

	st, err := store.New(coll)
	if err != nil {
		return nil, err
	}

	renderHTML := input.HTML || cfg.RenderHTML

	// Map every output path up front so a bad or colliding path fails before any write.
	docs := make([]weave.Document, 0, len(input.Paths))
	dests := make([]string, 0, len(input.Paths))
	claimed := make(map[string]string, len(input.Paths))
	claim := func(dest, path string) error {
		if prev, ok := claimed[dest]; ok {
			return errors.NewInvalidRequest(fmt.Sprintf("%s and %s both write %s", prev, path, dest))
		}
		claimed[dest] = path
		return nil
	}
	for _, path := range input.Paths {
		if err := checkContext(ctx, "weave"); err != nil {
			return nil, err
		}

		logger.Debug("Weaving document", zap.String("file", path))
		rel, err := weave.MirrorPath(path)
		if err != nil {
			return nil, err
		}
		dest := filepath.Join(input.OutDir, rel)
		if err := claim(dest, path); err != nil {
			return nil, err
		}
		if renderHTML {
			htmlDest := render.HTMLPath(dest)
			if strings.EqualFold(htmlDest, dest) {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("%s: HTML rendering would overwrite the woven output", path))
			}
			if err := claim(htmlDest, path); err != nil {
				return nil, err
			}
		}

		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, weave.Document{Path: path, Text: string(data)})
		dests = append(dests, dest)
	}

	outputs, err := weave.Weave(docs, st, cfg.Symbols)
	if err != nil {
		return nil, err
	}

	var pages [][]byte
	if renderHTML {
		pages = make([][]byte, len(outputs))
		for i, out := range outputs {
			page, err := render.Page(filepath.Base(out.Path), out.Text)
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			pages[i] = page
		}
	}

	output.Written = make([]string, 0, len(outputs))
	for i, out := range outputs {
		if err := checkContext(ctx, "weave"); err != nil {
			return nil, err
		}

		dest := dests[i]
		logger.Debug("Writing output", zap.String("file", dest))
		if err := writeFileAtomic(dest, []byte(out.Text)); err != nil {
			return nil, err
		}
		output.Written = append(output.Written, dest)

		if renderHTML {
			htmlDest := render.HTMLPath(dest)
			if err := writeFileAtomic(htmlDest, pages[i]); err != nil {
				return nil, err
			}
			output.Written = append(output.Written, htmlDest)
		}
	}

	logger.Info("Woven documents", zap.Int("documents", len(outputs)), zap.String("out_dir", input.OutDir))
	return output, nil
}

// loadFragments returns the collection to weave against: a saved run when runID
// is set, otherwise the decoded payload.
func loadFragments(database *sql.DB, payload io.Reader, runID string) (fragment.Collection, string, error) {
	if strings.TrimSpace(runID) != "" {
		run, coll, err := loadRun(database, runID)
		if err != nil {
			return nil, "", err
		}
		return coll, run.ID, nil
	}

	if payload == nil {
		return nil, "", errors.NewMalformedPayload(0, "no data")
	}
	coll, err := interchange.Decode(payload)
	if err != nil {
		return nil, "", err
	}
	return coll, "", nil
}

// WeaveTextInput contains parameters for the WeaveText operation.
type WeaveTextInput struct {
	Text  string // required, prose to resolve
	Path  string // optional, prose path for relpath fields and errors (default "input.md")
	RunID string // optional, default: latest run
}

// WeaveTextOutput contains the result of the WeaveText operation.
type WeaveTextOutput struct {
	RunID string `json:"run_id"`
	Text  string `json:"text"`
}

// WeaveText resolves references in a prose string against a saved run.
func WeaveText(database *sql.DB, cfg *config.Config, input WeaveTextInput) (*WeaveTextOutput, error) {
	path := input.Path
	if strings.TrimSpace(path) == "" {
		path = "input.md"
	}

	run, coll, err := loadRun(database, input.RunID)
	if err != nil {
		return nil, err
	}
	st, err := store.New(coll)
	if err != nil {
		return nil, err
	}

	outputs, err := weave.Weave([]weave.Document{{Path: path, Text: input.Text}}, st, cfg.Symbols)
	if err != nil {
		return nil, err
	}

	return &WeaveTextOutput{RunID: run.ID, Text: outputs[0].Text}, nil
}
