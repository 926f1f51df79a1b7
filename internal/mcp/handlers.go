package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/logging"
	"github.com/hpungsan/verso/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{db: db, cfg: cfg, logger: logging.OrNop(logger)}
}

// Request types for each tool

// ExtractRequest represents the arguments for fragment_extract.
type ExtractRequest struct {
	Paths []string `json:"paths"`
	Save  bool     `json:"save,omitempty"`
}

// ListFragmentsRequest represents the arguments for fragment_list.
type ListFragmentsRequest struct {
	RunID   string `json:"run_id,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// FetchRequest represents the arguments for fragment_fetch.
type FetchRequest struct {
	RunID string `json:"run_id,omitempty"`
	ID    string `json:"id"`
}

// FetchManyRequest represents the arguments for fragment_fetch_many.
type FetchManyRequest struct {
	RunID string   `json:"run_id,omitempty"`
	IDs   []string `json:"ids"`
}

// WeaveRequest represents the arguments for fragment_weave.
type WeaveRequest struct {
	Text  string `json:"text"`
	Path  string `json:"path,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

// ListRunsRequest represents the arguments for run_list.
type ListRunsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DeleteRunRequest represents the arguments for run_delete.
type DeleteRunRequest struct {
	ID string `json:"id"`
}

// Handler implementations

// HandleExtract handles the fragment_extract tool call.
func (h *Handlers) HandleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExtractRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Extract(ctx, h.db, h.cfg, h.logger, ops.ExtractInput{
		Paths: input.Paths,
		Save:  input.Save,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleListFragments handles the fragment_list tool call.
func (h *Handlers) HandleListFragments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListFragmentsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListFragments(h.db, ops.ListFragmentsInput{
		RunID:   input.RunID,
		Pattern: input.Pattern,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the fragment_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchFragment(h.db, ops.FetchFragmentInput{
		RunID: input.RunID,
		ID:    input.ID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetchMany handles the fragment_fetch_many tool call.
func (h *Handlers) HandleFetchMany(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchManyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := ctx.Err(); err != nil {
		return errorResult(errors.NewCancelled("fetch_many")), nil
	}

	result, err := ops.FetchMany(h.db, ops.FetchManyInput{
		RunID: input.RunID,
		IDs:   input.IDs,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleWeave handles the fragment_weave tool call.
func (h *Handlers) HandleWeave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WeaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.WeaveText(h.db, h.cfg, ops.WeaveTextInput{
		Text:  input.Text,
		Path:  input.Path,
		RunID: input.RunID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleListRuns handles the run_list tool call.
func (h *Handlers) HandleListRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRunsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListRuns(h.db, ops.ListRunsInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLatestRun handles the run_latest tool call.
func (h *Handlers) HandleLatestRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.LatestRun(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDeleteRun handles the run_delete tool call.
func (h *Handlers) HandleDeleteRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRunRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteRun(h.db, ops.DeleteRunInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	h.logger.Info("Deleted run", zap.String("run_id", result.ID))
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var vErr *errors.VersoError
	if stderrors.As(err, &vErr) {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": err.Error(),
			"status":  vErr.Status,
		}
		if err == error(vErr) {
			errorObj["message"] = vErr.Message
		}
		switch {
		case errors.IsScanError(vErr):
			errorObj["stage"] = "extract"
		case errors.IsWeaveError(vErr):
			errorObj["stage"] = "weave"
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like SQL errors
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
