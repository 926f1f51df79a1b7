// Package interchange encodes fragment collections into the payload passed from
// extraction to weaving, and decodes it back.
//
// The payload is JSON Lines: a header carrying the record count, then one record
// per line. Decoding reads the input to completion before parsing anything and
// refuses any payload that is truncated or malformed.
package interchange

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
)

// maxLineSize bounds a single payload line (one fragment record). A whole-file
// fragment puts an entire source file on one line.
const maxLineSize = 64 * 1024 * 1024

// Marshal encodes coll into a complete payload.
func Marshal(coll fragment.Collection) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	header := Header{
		VersoPayload:  true,
		SchemaVersion: SchemaVersion,
		Count:         len(coll),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, f := range coll {
		if err := enc.Encode(FragmentToRecord(f)); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	return buf.Bytes(), nil
}

// Encode writes the payload for coll to w in a single write, so a consumer never
// observes a partially encoded collection from a failed encode.
func Encode(w io.Writer, coll fragment.Collection) error {
	data, err := Marshal(coll)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.NewIO("payload", err)
	}
	return nil
}

// Decode reads r to EOF and parses the payload.
func Decode(r io.Reader) (fragment.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("payload", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses a complete payload. A payload whose first non-space byte is '['
// is read as the legacy JSON array format.
func Unmarshal(data []byte) (fragment.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.NewMalformedPayload(0, "no data")
	}
	if trimmed[0] == '[' {
		return unmarshalArray(trimmed)
	}
	return unmarshalLines(data)
}

func unmarshalLines(data []byte) (fragment.Collection, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	var header *Header
	var coll fragment.Collection

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())

		if header == nil {
			var h Header
			if err := json.Unmarshal(line, &h); err != nil {
				return nil, errors.NewMalformedPayload(lineNum, fmt.Sprintf("invalid header: %v", err))
			}
			if !h.VersoPayload {
				return nil, errors.NewMalformedPayload(lineNum, "missing payload header")
			}
			if h.SchemaVersion != SchemaVersion {
				return nil, errors.NewMalformedPayload(lineNum, fmt.Sprintf("unsupported schema version %q", h.SchemaVersion))
			}
			if h.Count < 0 {
				return nil, errors.NewMalformedPayload(lineNum, "negative record count")
			}
			header = &h
			coll = make(fragment.Collection, 0, h.Count)
			continue
		}

		if len(line) == 0 {
			return nil, errors.NewMalformedPayload(lineNum, "empty line")
		}
		if len(coll) == header.Count {
			return nil, errors.NewMalformedPayload(lineNum, fmt.Sprintf("more records than the %d announced", header.Count))
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.NewMalformedPayload(lineNum, fmt.Sprintf("invalid JSON: %v", err))
		}
		if rec.VersoPayload {
			return nil, errors.NewMalformedPayload(lineNum, "unexpected second header")
		}
		if err := validateRecord(rec); err != nil {
			return nil, errors.NewMalformedPayload(lineNum, err.Error())
		}
		coll = append(coll, rec.ToFragment())
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.NewMalformedPayload(lineNum, fmt.Sprintf("failed to read payload: %v", err))
	}
	if header == nil {
		return nil, errors.NewMalformedPayload(0, "missing payload header")
	}
	if len(coll) != header.Count {
		return nil, errors.NewMalformedPayload(lineNum, fmt.Sprintf("truncated: %d of %d records", len(coll), header.Count))
	}

	return coll, nil
}

func unmarshalArray(data []byte) (fragment.Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var raw []legacyRecord
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.NewMalformedPayload(0, fmt.Sprintf("invalid JSON array: %v", err))
	}
	if dec.InputOffset() != int64(len(data)) {
		return nil, errors.NewMalformedPayload(0, "unexpected data after JSON array")
	}

	coll := make(fragment.Collection, 0, len(raw))
	for i, r := range raw {
		rec := r.toRecord()
		if err := validateRecord(rec); err != nil {
			return nil, errors.NewMalformedPayload(0, fmt.Sprintf("record %d: %v", i, err))
		}
		coll = append(coll, rec.ToFragment())
	}
	return coll, nil
}

func validateRecord(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("missing id field")
	}
	if rec.Line < 1 {
		return fmt.Errorf("record %q: line must be positive, got %d", rec.ID, rec.Line)
	}
	if rec.Col < 0 {
		return fmt.Errorf("record %q: col must be non-negative, got %d", rec.ID, rec.Col)
	}
	return nil
}
