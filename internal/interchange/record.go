package interchange

import "github.com/hpungsan/verso/internal/fragment"

// SchemaVersion is written into every payload header.
const SchemaVersion = "1.0"

// Header is the first line of a JSONL payload.
type Header struct {
	VersoPayload  bool   `json:"_verso_payload"`
	SchemaVersion string `json:"schema_version"`
	Count         int    `json:"count"`
}

// Record is one fragment in the payload.
type Record struct {
	// Header detection field - true only for the header line
	VersoPayload bool `json:"_verso_payload,omitempty"`

	ID      string `json:"id"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Content string `json:"content"`
}

// legacyRecord is an element of the JSON array payload written by earlier releases,
// which named the content field "body".
type legacyRecord struct {
	ID      string  `json:"id"`
	File    string  `json:"file"`
	Line    int     `json:"line"`
	Col     int     `json:"col"`
	Content *string `json:"content"`
	Body    *string `json:"body"`
}

func (r legacyRecord) toRecord() Record {
	rec := Record{ID: r.ID, File: r.File, Line: r.Line, Col: r.Col}
	switch {
	case r.Content != nil:
		rec.Content = *r.Content
	case r.Body != nil:
		rec.Content = *r.Body
	}
	return rec
}

// FragmentToRecord converts a fragment to its payload record.
func FragmentToRecord(f fragment.Fragment) Record {
	return Record{
		ID:      f.ID,
		File:    f.File,
		Line:    f.Line,
		Col:     f.Col,
		Content: f.Content,
	}
}

// ToFragment converts a payload record back to a fragment.
func (r Record) ToFragment() fragment.Fragment {
	return fragment.Fragment{
		ID:      r.ID,
		File:    r.File,
		Line:    r.Line,
		Col:     r.Col,
		Content: r.Content,
	}
}
