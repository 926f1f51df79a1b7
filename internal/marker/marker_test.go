package marker

import (
	"testing"

	"github.com/hpungsan/verso/internal/errors"
)

var testLoc = errors.Location{File: "test.py", Line: 3}

func TestParseLine(t *testing.T) {
	syms := DefaultSymbols()

	tests := []struct {
		name string
		line string
		kind Kind
		id   string
		col  int
	}{
		{"plain line", "print('hi')", None, "", 0},
		{"empty line", "", None, "", 0},
		{"open", "# @<greet", Open, "greet", 2},
		{"open with trailing comment", "# @<foobarbaz The fragment starts here.", Open, "foobarbaz", 2},
		{"open with path-like id", "// @<pkg/sub_part-2", Open, "pkg/sub_part-2", 3},
		{"open with unicode id", "# @<größe", Open, "größe", 2},
		{"bare close", "# >@", Close, "", 2},
		{"bare close with comment", "    # >@ This line ends the fragment.", Close, "", 6},
		{"close with id", "// >@errors", Close, "errors", 3},
		{"halt", "// @!halt", Halt, "", 3},
		{"halt with trailing text", "-- @!halt rest ignored", Halt, "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseLine(tt.line, testLoc, syms)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if m.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", m.Kind, tt.kind)
			}
			if m.ID != tt.id {
				t.Errorf("ID = %q, want %q", m.ID, tt.id)
			}
			if m.Col != tt.col {
				t.Errorf("Col = %d, want %d", m.Col, tt.col)
			}
		})
	}
}

func TestParseLine_Errors(t *testing.T) {
	syms := DefaultSymbols()

	tests := []struct {
		name string
		line string
		code errors.ErrorCode
		col  int
	}{
		{"open without id", "# @< no id here", errors.ErrMissingID, 2},
		{"open at end of line", "# @<", errors.ErrMissingID, 2},
		{"reserved dot in open id", "# @<foo.bar", errors.ErrInvalidIDCharacter, 7},
		{"punctuation in open id", "# @<foo!", errors.ErrInvalidIDCharacter, 7},
		{"reserved dot in close id", "# >@foo.bar", errors.ErrInvalidIDCharacter, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line, testLoc, syms)
			if !errors.Is(err, tt.code) {
				t.Fatalf("ParseLine(%q) = %v, want %s", tt.line, err, tt.code)
			}
			vErr := err.(*errors.VersoError)
			if vErr.Details["col"] != tt.col {
				t.Errorf("Details[col] = %v, want %d", vErr.Details["col"], tt.col)
			}
			if vErr.Details["line"] != 3 {
				t.Errorf("Details[line] = %v, want 3", vErr.Details["line"])
			}
		})
	}
}

func TestParseLine_OpenTakesPrecedence(t *testing.T) {
	m, err := ParseLine("# @<a >@", testLoc, DefaultSymbols())
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	if m.Kind != Open || m.ID != "a" {
		t.Errorf("Marker = %+v, want open a", m)
	}
}

func TestParseLine_CustomSymbols(t *testing.T) {
	syms := DefaultSymbols()
	syms.Open = "BEGIN:"
	syms.Close = "END:"

	m, err := ParseLine("-- BEGIN:query", testLoc, syms)
	if err != nil || m.Kind != Open || m.ID != "query" {
		t.Errorf("ParseLine open = %+v, %v", m, err)
	}

	m, err = ParseLine("# @<greet", testLoc, syms)
	if err != nil || m.Kind != None {
		t.Errorf("default open symbol with custom config = %+v, %v; want none", m, err)
	}
}

func TestSymbols_Validate(t *testing.T) {
	if err := DefaultSymbols().Validate(); err != nil {
		t.Errorf("DefaultSymbols().Validate() = %v", err)
	}

	empty := DefaultSymbols()
	empty.Halt = ""
	if err := empty.Validate(); err == nil {
		t.Error("Validate() with empty halt symbol = nil, want error")
	}

	spaced := DefaultSymbols()
	spaced.Insert = "@ @"
	if err := spaced.Validate(); err == nil {
		t.Error("Validate() with whitespace symbol = nil, want error")
	}
}

func TestDefaultSymbols(t *testing.T) {
	want := Symbols{Open: "@<", Close: ">@", Halt: "@!halt", Insert: "@@", Pattern: "@*", Metadata: "@?"}
	if got := DefaultSymbols(); got != want {
		t.Errorf("DefaultSymbols() = %+v, want %+v", got, want)
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"foobarbaz", true},
		{"foo-bar_baz/quuz", true},
		{"42", true},
		{"", false},
		{"foo.bar", false},
		{"foo bar", false},
		{"foo@bar", false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"main.go", "main_go"},
		{"src/lib.rs", "src/lib_rs"},
		{"my file.py", "my_file_py"},
		{"already-fine", "already-fine"},
	}

	for _, tt := range tests {
		if got := SanitizeID(tt.in); got != tt.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !ValidID(SanitizeID(tt.in)) {
			t.Errorf("SanitizeID(%q) is not a valid id", tt.in)
		}
	}
}
