// Package extract turns source files into a fragment collection.
package extract

import (
	"io"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
)

// Source is one input file: the path as given by the caller and a reader over its text.
type Source struct {
	Path   string
	Reader io.Reader
}

// Result is the outcome of one extraction run.
type Result struct {
	// Fragments holds every file's fragments, files in input order.
	Fragments fragment.Collection

	// Halted lists the sources whose scan stopped at a halt marker.
	Halted []string
}

// Extract scans every source in order and returns the combined collection.
// The first error aborts the whole run and no partial result is returned.
// After all files succeed, ids are checked for uniqueness across the run.
func Extract(sources []Source, opts Options) (*Result, error) {
	if err := opts.Symbols.Validate(); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	result := &Result{}
	for _, src := range sources {
		if src.Path == "" {
			return nil, errors.NewInvalidRequest("source path is required")
		}
		res, err := ScanFile(src.Path, src.Reader, opts)
		if err != nil {
			return nil, err
		}
		result.Fragments = append(result.Fragments, res.All()...)
		if res.Halted {
			result.Halted = append(result.Halted, src.Path)
		}
	}

	if err := result.Fragments.CheckUnique(); err != nil {
		return nil, err
	}
	return result, nil
}
