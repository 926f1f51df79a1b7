package fragment

import (
	"strings"
	"unicode/utf8"
)

// Summary represents a fragment's metadata without its content.
// Used by browse operations (list, MCP, web) to keep responses small.
type Summary struct {
	// ID is the fragment identifier
	ID string `json:"id"`

	// File is the source path as given to extraction
	File string `json:"file"`

	// Line is the 1-based start line
	Line int `json:"line"`

	// Col is the start column
	Col int `json:"col"`

	// Lines is the number of captured lines
	Lines int `json:"lines"`

	// Chars is the content length in runes
	Chars int `json:"chars"`
}

// Summarize builds the summary view of f.
func Summarize(f Fragment) Summary {
	return Summary{
		ID:    f.ID,
		File:  f.File,
		Line:  f.Line,
		Col:   f.Col,
		Lines: CountLines(f.Content),
		Chars: utf8.RuneCountInString(f.Content),
	}
}

// CountLines returns the number of lines in content. Empty content has zero lines.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}
