package marker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hpungsan/verso/internal/errors"
)

// Kind is the span-matching role of a source line.
type Kind int

const (
	None  Kind = iota // ordinary content line
	Open              // starts a fragment
	Close             // ends the innermost fragment
	Halt              // stops scanning the file
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case Close:
		return "close"
	case Halt:
		return "halt"
	default:
		return "none"
	}
}

// Marker is the parse result for one source line.
type Marker struct {
	Kind Kind
	ID   string // fragment id; empty for halt and for a close without id
	Col  int    // byte offset of the symbol in the line
}

// ParseLine identifies the marker role of line. The open symbol is checked first,
// then close, then halt; text before the symbol is ignored. loc gives the file and
// line used in errors; its column is filled in by the parser.
func ParseLine(line string, loc errors.Location, syms Symbols) (Marker, error) {
	if col := strings.Index(line, syms.Open); syms.Open != "" && col >= 0 {
		start := col + len(syms.Open)
		id := token(line[start:])
		if id == "" {
			loc.Col = col
			return Marker{}, errors.NewMissingID(loc)
		}
		if err := checkID(id, start, loc); err != nil {
			return Marker{}, err
		}
		return Marker{Kind: Open, ID: id, Col: col}, nil
	}

	if col := strings.Index(line, syms.Close); syms.Close != "" && col >= 0 {
		start := col + len(syms.Close)
		var id string
		if r, _ := utf8.DecodeRuneInString(line[start:]); start < len(line) && !unicode.IsSpace(r) {
			id = token(line[start:])
			if err := checkID(id, start, loc); err != nil {
				return Marker{}, err
			}
		}
		return Marker{Kind: Close, ID: id, Col: col}, nil
	}

	if col := strings.Index(line, syms.Halt); syms.Halt != "" && col >= 0 {
		return Marker{Kind: Halt, Col: col}, nil
	}

	return Marker{Kind: None}, nil
}

func checkID(id string, offset int, loc errors.Location) error {
	if i, r := firstInvalid(id); i >= 0 {
		loc.Col = offset + i
		return errors.NewInvalidIDCharacter(loc, id, r)
	}
	return nil
}
