package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/verso/internal/config"
	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	logger   *zap.Logger
	renderer *Renderer
}

// HandleRuns handles GET /runs: list saved runs, newest first.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListRuns(h.db, ops.ListRunsInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "runs", RunsPageData{
		PageData: PageData{
			Title:   "Runs",
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleRun handles GET /runs/{id}: a run and its fragment summaries.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID is required"))
		return
	}

	run, err := ops.GetRun(h.db, ops.GetRunInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	fragments, err := ops.ListFragments(h.db, ops.ListFragmentsInput{
		RunID:   run.ID,
		Pattern: pattern,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "run", RunPageData{
		PageData: PageData{
			Title:   "Run " + shortID(run.ID),
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Run:       run,
		Fragments: fragments.Items,
		Pattern:   pattern,
	})
}

// HandleFragment handles GET /runs/{id}/fragments/{fid...}: one fragment with content.
func (h *Handlers) HandleFragment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fid := r.PathValue("fid")
	if id == "" || fid == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID and fragment ID are required"))
		return
	}

	result, err := ops.FetchFragment(h.db, ops.FetchFragmentInput{RunID: id, ID: fid})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "fragment", FragmentPageData{
		PageData: PageData{
			Title:   result.ID,
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Fragment: result,
	})
}

// HandleWeave handles GET and POST /runs/{id}/weave: resolve prose against a run
// and preview the rendered result.
func (h *Handlers) HandleWeave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID is required"))
		return
	}

	run, err := ops.GetRun(h.db, ops.GetRunInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := WeavePageData{
		PageData: PageData{
			Title:   "Weave " + shortID(run.ID),
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Run: run,
	}

	if r.Method != http.MethodPost {
		h.renderer.renderPage(w, r, "weave", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	data.Text = r.FormValue("text")

	result, err := ops.WeaveText(h.db, h.cfg, ops.WeaveTextInput{
		Text:  data.Text,
		Path:  r.FormValue("path"),
		RunID: run.ID,
	})
	if err != nil {
		if !errors.IsWeaveError(err) {
			h.renderer.renderError(w, r, err)
			return
		}
		vErr := err.(*errors.VersoError)
		data.Error = vErr.Message
		h.renderer.renderPageStatus(w, r, vErr.Status, "weave", data)
		return
	}

	data.Woven = result.Text
	data.RenderedHTML = renderMarkdown(result.Text)
	h.renderer.renderPage(w, r, "weave", data)
}

// HandleDelete handles DELETE /runs/{id}: remove a saved run.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID is required"))
		return
	}

	result, err := ops.DeleteRun(h.db, ops.DeleteRunInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.logger.Info("Deleted run", zap.String("run_id", result.ID))

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/runs")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/runs", http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
