package ops

import (
	"bytes"
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/errors"
)

// BuildInput contains parameters for the Build operation.
type BuildInput struct {
	Sources []string // required, source files to extract from
	Prose   []string // required, prose files to weave
	OutDir  string   // required
	Save    bool     // also store the extraction run
	HTML    bool
}

// BuildOutput contains the result of the Build operation.
type BuildOutput struct {
	Extract *ExtractOutput `json:"extract"`
	Weave   *WeaveOutput   `json:"weave"`
}

// Build runs extraction and weaving in one process. The stages are joined by an
// in-memory payload encoded and decoded exactly as it would be over a pipe.
func Build(ctx context.Context, database *sql.DB, cfg *config.Config, logger *zap.Logger, input BuildInput) (*BuildOutput, error) {
	if strings.TrimSpace(input.OutDir) == "" {
		return nil, errors.NewInvalidRequest("output directory is required")
	}
	if len(input.Prose) == 0 {
		return nil, errors.NewInvalidRequest("at least one prose file is required")
	}

	var payload bytes.Buffer

	extracted, err := Extract(ctx, database, cfg, logger, ExtractInput{
		Paths: input.Sources,
		Out:   &payload,
		Save:  input.Save,
	})
	if err != nil {
		return nil, err
	}

	woven, err := Weave(ctx, database, cfg, logger, WeaveInput{
		OutDir:  input.OutDir,
		Paths:   input.Prose,
		Payload: &payload,
		HTML:    input.HTML,
	})
	if err != nil {
		return nil, err
	}

	return &BuildOutput{Extract: extracted, Weave: woven}, nil
}
