package errors

import (
	"fmt"
	"testing"
)

func TestVersoError_Error(t *testing.T) {
	err := &VersoError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "run not found",
	}

	expected := "NOT_FOUND: run not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestLocation_String(t *testing.T) {
	loc := Location{File: "src/main.go", Line: 12, Col: 3}
	if got := loc.String(); got != "src/main.go:12:3" {
		t.Errorf("String() = %q, want %q", got, "src/main.go:12:3")
	}
}

func TestNewInvalidIDCharacter(t *testing.T) {
	err := NewInvalidIDCharacter(Location{File: "a.py", Line: 4, Col: 2}, "foo.bar", '.')

	if err.Code != ErrInvalidIDCharacter {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidIDCharacter)
	}
	if err.Details["char"] != "." {
		t.Errorf("Details[char] = %v, want %q", err.Details["char"], ".")
	}
	if err.Details["line"] != 4 {
		t.Errorf("Details[line] = %v, want 4", err.Details["line"])
	}
}

func TestNewUnterminatedFragment(t *testing.T) {
	err := NewUnterminatedFragment(Location{File: "a.py", Line: 9}, "inner", 3, []string{"outer", "inner"})

	if err.Code != ErrUnterminatedFragment {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnterminatedFragment)
	}
	if err.Details["id"] != "inner" {
		t.Errorf("Details[id] = %v, want %q", err.Details["id"], "inner")
	}
	if err.Details["opened_at"] != 3 {
		t.Errorf("Details[opened_at] = %v, want 3", err.Details["opened_at"])
	}
}

func TestNewUnmatchedClose_Messages(t *testing.T) {
	loc := Location{File: "a.py", Line: 2}
	tests := []struct {
		name     string
		id       string
		expected string
		want     string
	}{
		{"empty stack", "", "", "a.py:2:0: close symbol found with no open fragment"},
		{"bare close", "", "outer", `a.py:2:0: close symbol does not match open fragment "outer"`},
		{"named close", "outer", "inner", `a.py:2:0: close of "outer" does not match innermost open fragment "inner"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUnmatchedClose(loc, tt.id, tt.expected)
			if err.Message != tt.want {
				t.Errorf("Message = %q, want %q", err.Message, tt.want)
			}
		})
	}
}

func TestNewDuplicateID(t *testing.T) {
	err := NewDuplicateID("greet", Location{File: "a.py", Line: 2}, Location{File: "b.py", Line: 7})

	if err.Code != ErrDuplicateID {
		t.Errorf("Code = %q, want %q", err.Code, ErrDuplicateID)
	}
	if err.Details["first"] != "a.py:2:0" {
		t.Errorf("Details[first] = %v, want %q", err.Details["first"], "a.py:2:0")
	}
	if err.Details["second"] != "b.py:7:0" {
		t.Errorf("Details[second] = %v, want %q", err.Details["second"], "b.py:7:0")
	}
}

func TestNewMalformedPayload(t *testing.T) {
	err := NewMalformedPayload(0, "empty input")
	if err.Details != nil {
		t.Errorf("Details = %v, want nil", err.Details)
	}
	if err.Message != "malformed interchange payload: empty input" {
		t.Errorf("Message = %q", err.Message)
	}

	err = NewMalformedPayload(3, "invalid JSON")
	if err.Details["line"] != 3 {
		t.Errorf("Details[line] = %v, want 3", err.Details["line"])
	}
}

func TestNewInvalidPattern(t *testing.T) {
	loc := Location{File: "doc.md", Line: 1, Col: 0}

	empty := NewInvalidPattern(loc, "", nil)
	if empty.Message != "doc.md:1:0: no fragment pattern found" {
		t.Errorf("Message = %q", empty.Message)
	}

	bad := NewInvalidPattern(loc, "[", fmt.Errorf("missing closing ]"))
	if bad.Details["pattern"] != "[" {
		t.Errorf("Details[pattern] = %v, want %q", bad.Details["pattern"], "[")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("database connection failed"))
	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "database connection failed" {
		t.Errorf("Message = %q, want %q", err.Message, "database connection failed")
	}

	nilErr := NewInternal(nil)
	if nilErr.Message != "internal error" {
		t.Errorf("Message = %q, want %q", nilErr.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewFragmentNotFound(Location{File: "doc.md", Line: 1}, "greet")

	if !Is(err, ErrFragmentNotFound) {
		t.Error("Is(err, ErrFragmentNotFound) = false, want true")
	}
	if Is(err, ErrDuplicateID) {
		t.Error("Is(err, ErrDuplicateID) = true, want false")
	}
	if Is(fmt.Errorf("plain error"), ErrFragmentNotFound) {
		t.Error("Is(plain error, ErrFragmentNotFound) = true, want false")
	}
}

func TestStageClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		scan  bool
		weave bool
	}{
		{"unmatched close", NewUnmatchedClose(Location{}, "", ""), true, false},
		{"duplicate id", NewDuplicateID("x", Location{}, Location{}), true, false},
		{"missing id", NewMissingID(Location{}), true, false},
		{"fragment not found", NewFragmentNotFound(Location{}, "x"), false, true},
		{"malformed payload", NewMalformedPayload(0, "x"), false, true},
		{"io", NewIO("out/doc.md", fmt.Errorf("disk full")), false, true},
		{"invalid request", NewInvalidRequest("x"), false, false},
		{"plain error", fmt.Errorf("x"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScanError(tt.err); got != tt.scan {
				t.Errorf("IsScanError = %v, want %v", got, tt.scan)
			}
			if got := IsWeaveError(tt.err); got != tt.weave {
				t.Errorf("IsWeaveError = %v, want %v", got, tt.weave)
			}
		})
	}
}
