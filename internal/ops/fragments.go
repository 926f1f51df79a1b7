package ops

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/store"
)

// ListFragmentsInput contains parameters for the ListFragments operation.
type ListFragmentsInput struct {
	RunID   string // optional, default: latest run
	Pattern string // optional, regular expression over ids (same selection as a pattern reference)
}

// ListFragmentsOutput contains the result of the ListFragments operation.
type ListFragmentsOutput struct {
	RunID string             `json:"run_id"`
	Items []fragment.Summary `json:"items"`
	Sort  string             `json:"sort"`
}

// ListFragments returns summaries of a saved run's fragments in lexicographic id
// order, optionally restricted to ids matching Pattern.
func ListFragments(database *sql.DB, input ListFragmentsInput) (*ListFragmentsOutput, error) {
	var re *regexp.Regexp
	if pattern := strings.TrimSpace(input.Pattern); pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
	}

	run, coll, err := loadRun(database, input.RunID)
	if err != nil {
		return nil, err
	}
	st, err := store.New(coll)
	if err != nil {
		return nil, err
	}

	ids := st.IDs()
	if re != nil {
		ids = st.Match(re)
	}

	items := make([]fragment.Summary, 0, len(ids))
	for _, id := range ids {
		f, _ := st.Get(id)
		items = append(items, fragment.Summarize(f))
	}

	return &ListFragmentsOutput{
		RunID: run.ID,
		Items: items,
		Sort:  "id_asc",
	}, nil
}
