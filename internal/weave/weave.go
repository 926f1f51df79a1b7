// Package weave resolves fragment references in prose documents.
//
// Three reference grammars are recognized, each introduced by a configurable
// symbol: direct insertion of one fragment's content, insertion of every
// fragment whose id matches a regular expression (in lexicographic id order),
// and insertion of one metadata field of a fragment.
package weave

import (
	"path/filepath"
	"strings"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/marker"
	"github.com/hpungsan/verso/internal/store"
)

// Document is a prose file to weave.
type Document struct {
	Path string
	Text string
}

// Output is a woven document. Path is the document path it was produced from.
type Output struct {
	Path string
	Text string
}

// Weave resolves every document against st. Documents are processed in order
// and the first error aborts the run: either every document is returned woven or
// none is.
func Weave(docs []Document, st *store.Store, syms marker.Symbols) ([]Output, error) {
	if err := syms.Validate(); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	outputs := make([]Output, 0, len(docs))
	for _, doc := range docs {
		r := Resolver{Store: st, Symbols: syms, ProsePath: doc.Path}
		text, err := r.ResolveText(doc.Text)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: doc.Path, Text: text})
	}
	return outputs, nil
}

// MirrorPath maps a prose path to its location relative to the output root.
// The volume name and leading separators are dropped, so "/docs/a.md" mirrors
// to "docs/a.md". Paths that are empty or climb out of the root are rejected.
func MirrorPath(prosePath string) (string, error) {
	rel := filepath.Clean(prosePath)
	rel = strings.TrimPrefix(rel, filepath.VolumeName(rel))
	rel = strings.TrimLeft(rel, `/\`)

	if rel == "" || rel == "." {
		return "", errors.NewInvalidRequest("cannot mirror path " + prosePath + ": no file name")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.NewInvalidRequest("cannot mirror path " + prosePath + ": it escapes the output directory")
	}
	return rel, nil
}
