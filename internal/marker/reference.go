package marker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hpungsan/verso/internal/errors"
)

// RefKind is the grammar a reference token was written in.
type RefKind int

const (
	Direct   RefKind = iota // insert one fragment's content
	Pattern                 // insert every fragment whose id matches a regex
	Metadata                // insert a field of one fragment
)

// Reference is one reference token found in a prose line.
// Start and End are byte offsets of the whole token, symbol included.
type Reference struct {
	Kind  RefKind
	Start int
	End   int
	ID    string         // Direct, Metadata
	Field string         // Metadata, as written
	Regex *regexp.Regexp // Pattern
}

// FindReferences returns every reference token in line, left to right. At each
// position the longest matching symbol wins. A pattern reference runs to the end of
// the line (trailing whitespace excluded), so nothing after it is scanned.
func FindReferences(line string, loc errors.Location, syms Symbols) ([]Reference, error) {
	var refs []Reference

	for i := 0; i < len(line); {
		kind, n := matchSymbol(line[i:], syms)
		if n == 0 {
			i++
			continue
		}

		start, p := i, i+n
		at := loc
		at.Col = start

		switch kind {
		case Direct:
			id := idRun(line[p:])
			if id == "" {
				return nil, errors.NewMalformedReference(at, "no fragment identifier after insertion symbol")
			}
			refs = append(refs, Reference{Kind: Direct, Start: start, End: p + len(id), ID: id})
			i = p + len(id)

		case Metadata:
			id := idRun(line[p:])
			if id == "" {
				return nil, errors.NewMalformedReference(at, "no fragment identifier after metadata symbol")
			}
			q := p + len(id)
			if q >= len(line) || line[q] != MetadataSeparator {
				return nil, errors.NewMalformedReference(at, "expected '"+string(MetadataSeparator)+"' after fragment identifier "+id)
			}
			field := fieldRun(line[q+1:])
			if field == "" {
				return nil, errors.NewMalformedReference(at, "missing metadata field after "+id+string(MetadataSeparator))
			}
			end := q + 1 + len(field)
			refs = append(refs, Reference{Kind: Metadata, Start: start, End: end, ID: id, Field: field})
			i = end

		case Pattern:
			end := p + len(strings.TrimRightFunc(line[p:], unicode.IsSpace))
			pat := strings.TrimSpace(line[p:end])
			if pat == "" {
				return nil, errors.NewInvalidPattern(at, pat, nil)
			}
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, errors.NewInvalidPattern(at, pat, err)
			}
			refs = append(refs, Reference{Kind: Pattern, Start: start, End: end, Regex: re})
			i = len(line)
		}
	}

	return refs, nil
}

// matchSymbol returns the reference kind whose symbol is the longest prefix of s.
func matchSymbol(s string, syms Symbols) (RefKind, int) {
	best, bestLen := Direct, 0
	candidates := []struct {
		kind RefKind
		sym  string
	}{
		{Direct, syms.Insert},
		{Pattern, syms.Pattern},
		{Metadata, syms.Metadata},
	}
	for _, c := range candidates {
		if c.sym != "" && len(c.sym) > bestLen && strings.HasPrefix(s, c.sym) {
			best, bestLen = c.kind, len(c.sym)
		}
	}
	return best, bestLen
}
