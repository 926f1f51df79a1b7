package weave

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
	"github.com/hpungsan/verso/internal/marker"
	"github.com/hpungsan/verso/internal/store"
)

// Metadata field names, matched case-insensitively.
const (
	FieldFile    = "file"
	FieldLine    = "line"
	FieldCol     = "col"
	FieldLoc     = "loc"
	FieldRelPath = "relpath"
	FieldAbsPath = "abspath"
)

// PatternSeparator is placed between the contents of consecutive fragments
// selected by one pattern reference.
const PatternSeparator = "\n"

// Resolver substitutes reference tokens in the lines of one prose document.
type Resolver struct {
	Store   *store.Store
	Symbols marker.Symbols

	// ProsePath is the prose file being woven; relpath fields are computed
	// from its directory.
	ProsePath string
}

// ResolveText resolves every line of text. Lines are split and rejoined on "\n",
// so a trailing newline (or its absence) is preserved.
func (r *Resolver) ResolveText(text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		out, err := r.ResolveLine(line, i+1)
		if err != nil {
			return "", err
		}
		lines[i] = out
	}
	return strings.Join(lines, "\n"), nil
}

// ResolveLine substitutes every reference token in line, which is line number
// lineNum of the prose file. Text around each token is kept as is. Inserted
// content is not scanned again.
func (r *Resolver) ResolveLine(line string, lineNum int) (string, error) {
	loc := errors.Location{File: r.ProsePath, Line: lineNum}

	refs, err := marker.FindReferences(line, loc, r.Symbols)
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return line, nil
	}

	var b strings.Builder
	last := 0
	for _, ref := range refs {
		at := loc
		at.Col = ref.Start

		sub, err := r.expand(ref, at)
		if err != nil {
			return "", err
		}
		b.WriteString(line[last:ref.Start])
		b.WriteString(sub)
		last = ref.End
	}
	b.WriteString(line[last:])
	return b.String(), nil
}

func (r *Resolver) expand(ref marker.Reference, at errors.Location) (string, error) {
	switch ref.Kind {
	case marker.Direct:
		f, ok := r.Store.Get(ref.ID)
		if !ok {
			return "", errors.NewFragmentNotFound(at, ref.ID)
		}
		return f.Content, nil

	case marker.Pattern:
		ids := r.Store.Match(ref.Regex)
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			f, _ := r.Store.Get(id)
			parts = append(parts, f.Content)
		}
		return strings.Join(parts, PatternSeparator), nil

	case marker.Metadata:
		f, ok := r.Store.Get(ref.ID)
		if !ok {
			return "", errors.NewFragmentNotFound(at, ref.ID)
		}
		return r.metadata(f, ref.Field, at)
	}

	return "", errors.NewInternal(fmt.Errorf("unknown reference kind %d", ref.Kind))
}

func (r *Resolver) metadata(f fragment.Fragment, field string, at errors.Location) (string, error) {
	switch strings.ToLower(field) {
	case FieldFile:
		return f.File, nil
	case FieldLine:
		return strconv.Itoa(f.Line), nil
	case FieldCol:
		return strconv.Itoa(f.Col), nil
	case FieldLoc:
		return fmt.Sprintf("%s (%d:%d)", f.File, f.Line, f.Col), nil
	case FieldRelPath:
		return RelPath(r.ProsePath, f.File), nil
	case FieldAbsPath:
		return AbsPath(f.File), nil
	}
	return "", errors.NewInvalidMetadataField(at, f.ID, field)
}

// RelPath returns the slash-separated path from the directory containing
// prosePath to file. When only one of the two is absolute, both are resolved
// against the working directory first. file is returned unchanged only if no
// relative path exists.
func RelPath(prosePath, file string) string {
	dir := filepath.Dir(prosePath)
	if filepath.IsAbs(dir) != filepath.IsAbs(file) {
		absDir, dirErr := filepath.Abs(dir)
		absFile, fileErr := filepath.Abs(file)
		if dirErr != nil || fileErr != nil {
			return filepath.ToSlash(file)
		}
		dir, file = absDir, absFile
	}
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// AbsPath renders file as an absolute path rooted at the directory extraction
// ran in: "/" followed by the cleaned, slash-separated path. Paths that are
// already absolute are only cleaned.
func AbsPath(file string) string {
	p := filepath.ToSlash(file)
	if filepath.IsAbs(file) || strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return "/" + path.Clean(p)
}
