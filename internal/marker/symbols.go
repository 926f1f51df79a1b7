// Package marker implements the comment-marker grammar shared by extraction and
// weaving: fragment open/close/halt markers in source files and reference tokens
// in prose files.
package marker

import (
	"fmt"
	"strings"
	"unicode"
)

// Default symbols. Each literal is assembled from two halves so that running the
// tool over its own sources does not open or reference fragments.
const (
	DefaultOpen     = "@" + "<"
	DefaultClose    = ">" + "@"
	DefaultHalt     = "@" + "!halt"
	DefaultInsert   = "@" + "@"
	DefaultPattern  = "@" + "*"
	DefaultMetadata = "@" + "?"
)

// MetadataSeparator splits a fragment id from the field name in a metadata reference.
// It is reserved and never valid inside an id.
const MetadataSeparator = '.'

// Symbols is the configured marker and reference symbol set. Extraction uses
// Open, Close and Halt; weaving uses Insert, Pattern and Metadata.
type Symbols struct {
	Open     string `json:"open,omitempty"`
	Close    string `json:"close,omitempty"`
	Halt     string `json:"halt,omitempty"`
	Insert   string `json:"insert,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

// DefaultSymbols returns the built-in symbol set.
func DefaultSymbols() Symbols {
	return Symbols{
		Open:     DefaultOpen,
		Close:    DefaultClose,
		Halt:     DefaultHalt,
		Insert:   DefaultInsert,
		Pattern:  DefaultPattern,
		Metadata: DefaultMetadata,
	}
}

// Validate checks that every symbol is set and contains no whitespace.
func (s Symbols) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"open", s.Open},
		{"close", s.Close},
		{"halt", s.Halt},
		{"insert", s.Insert},
		{"pattern", s.Pattern},
		{"metadata", s.Metadata},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s symbol must not be empty", f.name)
		}
		if strings.ContainsFunc(f.value, unicode.IsSpace) {
			return fmt.Errorf("%s symbol %q must not contain whitespace", f.name, f.value)
		}
	}
	return nil
}
