package fragment

import "github.com/hpungsan/verso/internal/errors"

// Fragment is a named span of text captured from a source file.
type Fragment struct {
	// ID is unique across one extraction run
	ID string `json:"id"`

	// File is the source path exactly as it was given to extraction
	File string `json:"file"`

	// Line is the 1-based line the captured content starts on
	Line int `json:"line"`

	// Col is the start column (always 0, columns are not tracked yet)
	Col int `json:"col"`

	// Content holds the captured lines joined by "\n", marker lines removed
	Content string `json:"content"`
}

// Location returns the fragment's start position.
func (f Fragment) Location() errors.Location {
	return errors.Location{File: f.File, Line: f.Line, Col: f.Col}
}

// Collection is the ordered set of fragments produced by one extraction run.
type Collection []Fragment

// IDs returns the fragment ids in collection order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i, f := range c {
		ids[i] = f.ID
	}
	return ids
}

// CheckUnique verifies that no id occurs twice, reporting the first collision
// with both locations.
func (c Collection) CheckUnique() error {
	seen := make(map[string]int, len(c))
	for i, f := range c {
		if j, ok := seen[f.ID]; ok {
			return errors.NewDuplicateID(f.ID, c[j].Location(), f.Location())
		}
		seen[f.ID] = i
	}
	return nil
}
