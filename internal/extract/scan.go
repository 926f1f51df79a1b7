package extract

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/marker"
)

// Options controls how source files are scanned.
type Options struct {
	Symbols marker.Symbols

	// SkipWholeFile disables the implicit fragment covering each whole file.
	SkipWholeFile bool
}

// FileResult is the outcome of scanning one source file.
type FileResult struct {
	Path string

	// Fragments holds the explicit fragments in the order they were closed.
	Fragments fragment.Collection

	// Whole is the implicit whole-file fragment (nil when disabled).
	Whole *fragment.Fragment

	// Halted is true when a halt marker stopped the scan.
	Halted bool
}

// All returns the explicit fragments followed by the whole-file fragment.
func (r *FileResult) All() fragment.Collection {
	if r.Whole == nil {
		return r.Fragments
	}
	all := make(fragment.Collection, 0, len(r.Fragments)+1)
	all = append(all, r.Fragments...)
	return append(all, *r.Whole)
}

// openEntry is an in-progress fragment on the scan stack.
type openEntry struct {
	id     string
	marker int // line number of the open marker
	start  int // index into kept where the fragment's content begins
}

// WholeFileID returns the id of the implicit fragment for path: the slash-separated
// path with every character outside the id charset replaced by '_'.
func WholeFileID(path string) string {
	return marker.SanitizeID(filepath.ToSlash(path))
}

// ScanFile reads r to completion and matches its markers into fragments.
func ScanFile(path string, r io.Reader, opts Options) (*FileResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO(path, err)
	}
	return ScanText(path, string(data), opts)
}

// ScanText matches the markers of one file's text into fragments.
//
// Every line that parses as a marker is dropped; all other lines are appended to
// kept. A fragment's content is the slice of kept between its open and close
// markers, so enclosing fragments see nested bodies but never marker lines.
func ScanText(path, text string, opts Options) (*FileResult, error) {
	lines := strings.Split(text, "\n")
	lastLine := len(lines)
	if strings.HasSuffix(text, "\n") {
		lastLine--
	}

	res := &FileResult{Path: path}
	kept := make([]string, 0, len(lines))
	var stack []openEntry
	endLine := lastLine

scan:
	for i, line := range lines {
		n := i + 1
		loc := errors.Location{File: path, Line: n}

		m, err := marker.ParseLine(line, loc, opts.Symbols)
		if err != nil {
			return nil, err
		}

		switch m.Kind {
		case marker.None:
			kept = append(kept, line)

		case marker.Open:
			stack = append(stack, openEntry{id: m.ID, marker: n, start: len(kept)})

		case marker.Close:
			loc.Col = m.Col
			if len(stack) == 0 {
				return nil, errors.NewUnmatchedClose(loc, m.ID, "")
			}
			top := stack[len(stack)-1]
			if m.ID != "" && m.ID != top.id {
				return nil, errors.NewUnmatchedClose(loc, m.ID, top.id)
			}
			stack = stack[:len(stack)-1]
			res.Fragments = append(res.Fragments, fragment.Fragment{
				ID:      top.id,
				File:    path,
				Line:    top.marker + 1,
				Col:     0,
				Content: strings.Join(kept[top.start:], "\n"),
			})

		case marker.Halt:
			res.Halted = true
			endLine = n
			break scan
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		open := make([]string, len(stack))
		for i, e := range stack {
			open[i] = e.id
		}
		return nil, errors.NewUnterminatedFragment(errors.Location{File: path, Line: endLine}, top.id, top.marker, open)
	}

	if !opts.SkipWholeFile {
		res.Whole = &fragment.Fragment{
			ID:      WholeFileID(path),
			File:    path,
			Line:    1,
			Col:     0,
			Content: strings.Join(kept, "\n"),
		}
	}

	return res, nil
}
