package errors

import "fmt"

// ErrorCode represents a Verso error code.
type ErrorCode string

const (
	// Scan errors (extraction stage)
	ErrInvalidIDCharacter   ErrorCode = "INVALID_ID_CHARACTER"  // 422
	ErrMissingID            ErrorCode = "MISSING_ID"            // 422
	ErrUnterminatedFragment ErrorCode = "UNTERMINATED_FRAGMENT" // 422
	ErrUnmatchedClose       ErrorCode = "UNMATCHED_CLOSE"       // 422
	ErrDuplicateID          ErrorCode = "DUPLICATE_ID"          // 409

	// Weave errors (weaving stage)
	ErrFragmentNotFound     ErrorCode = "FRAGMENT_NOT_FOUND"     // 404
	ErrInvalidMetadataField ErrorCode = "INVALID_METADATA_FIELD" // 422
	ErrMalformedReference   ErrorCode = "MALFORMED_REFERENCE"    // 422
	ErrInvalidPattern       ErrorCode = "INVALID_PATTERN"        // 422
	ErrMalformedPayload     ErrorCode = "MALFORMED_PAYLOAD"      // 400
	ErrIO                   ErrorCode = "IO"                     // 500

	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

var scanCodes = map[ErrorCode]bool{
	ErrInvalidIDCharacter:   true,
	ErrMissingID:            true,
	ErrUnterminatedFragment: true,
	ErrUnmatchedClose:       true,
	ErrDuplicateID:          true,
}

var weaveCodes = map[ErrorCode]bool{
	ErrFragmentNotFound:     true,
	ErrInvalidMetadataField: true,
	ErrMalformedReference:   true,
	ErrInvalidPattern:       true,
	ErrMalformedPayload:     true,
	ErrIO:                   true,
}

// VersoError represents a structured error with code, status, and details.
type VersoError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VersoError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Location is a position inside a source or prose file.
type Location struct {
	File string
	Line int
	Col  int
}

// String renders the location as file:line:col.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

func (l Location) details() map[string]any {
	return map[string]any{"file": l.File, "line": l.Line, "col": l.Col}
}

// NewInvalidIDCharacter creates an error for an identifier containing a character
// outside the ID charset.
func NewInvalidIDCharacter(loc Location, id string, r rune) *VersoError {
	d := loc.details()
	d["id"] = id
	d["char"] = string(r)
	return &VersoError{
		Code:    ErrInvalidIDCharacter,
		Status:  422,
		Message: fmt.Sprintf("%s: identifier %q contains invalid character %q", loc, id, r),
		Details: d,
	}
}

// NewMissingID creates an error for an open marker with no identifier.
func NewMissingID(loc Location) *VersoError {
	return &VersoError{
		Code:    ErrMissingID,
		Status:  422,
		Message: fmt.Sprintf("%s: no fragment identifier after open symbol", loc),
		Details: loc.details(),
	}
}

// NewUnterminatedFragment creates an error for a fragment still open at halt or EOF.
// open lists every id left on the stack, innermost last.
func NewUnterminatedFragment(loc Location, id string, openedAt int, open []string) *VersoError {
	d := loc.details()
	d["id"] = id
	d["opened_at"] = openedAt
	d["open"] = open
	return &VersoError{
		Code:    ErrUnterminatedFragment,
		Status:  422,
		Message: fmt.Sprintf("%s: fragment %q opened on line %d was never closed", loc, id, openedAt),
		Details: d,
	}
}

// NewUnmatchedClose creates an error for a close marker that does not match the
// innermost open fragment. expected is empty when nothing is open.
func NewUnmatchedClose(loc Location, id, expected string) *VersoError {
	d := loc.details()
	d["id"] = id
	d["expected"] = expected
	var msg string
	switch {
	case expected == "":
		msg = fmt.Sprintf("%s: close symbol found with no open fragment", loc)
	case id == "":
		msg = fmt.Sprintf("%s: close symbol does not match open fragment %q", loc, expected)
	default:
		msg = fmt.Sprintf("%s: close of %q does not match innermost open fragment %q", loc, id, expected)
	}
	return &VersoError{
		Code:    ErrUnmatchedClose,
		Status:  422,
		Message: msg,
		Details: d,
	}
}

// NewDuplicateID creates an error for an id defined twice in one extraction run.
func NewDuplicateID(id string, first, second Location) *VersoError {
	return &VersoError{
		Code:    ErrDuplicateID,
		Status:  409,
		Message: fmt.Sprintf("fragment %q defined twice: %s and %s", id, first, second),
		Details: map[string]any{
			"id":     id,
			"first":  first.String(),
			"second": second.String(),
			"file":   second.File,
			"line":   second.Line,
		},
	}
}

// NewFragmentNotFound creates an error for a reference to an unknown fragment.
func NewFragmentNotFound(loc Location, id string) *VersoError {
	d := loc.details()
	d["id"] = id
	return &VersoError{
		Code:    ErrFragmentNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s: no fragment found with identifier %q", loc, id),
		Details: d,
	}
}

// NewInvalidMetadataField creates an error for an unknown metadata field.
func NewInvalidMetadataField(loc Location, id, field string) *VersoError {
	d := loc.details()
	d["id"] = id
	d["field"] = field
	return &VersoError{
		Code:    ErrInvalidMetadataField,
		Status:  422,
		Message: fmt.Sprintf("%s: unknown metadata field %q for fragment %q", loc, field, id),
		Details: d,
	}
}

// NewMalformedReference creates an error for a reference token that cannot be parsed.
func NewMalformedReference(loc Location, msg string) *VersoError {
	return &VersoError{
		Code:    ErrMalformedReference,
		Status:  422,
		Message: fmt.Sprintf("%s: %s", loc, msg),
		Details: loc.details(),
	}
}

// NewInvalidPattern creates an error for an empty or uncompilable pattern reference.
func NewInvalidPattern(loc Location, pattern string, err error) *VersoError {
	d := loc.details()
	d["pattern"] = pattern
	msg := fmt.Sprintf("%s: no fragment pattern found", loc)
	if err != nil {
		msg = fmt.Sprintf("%s: invalid fragment pattern %q: %v", loc, pattern, err)
	}
	return &VersoError{
		Code:    ErrInvalidPattern,
		Status:  422,
		Message: msg,
		Details: d,
	}
}

// NewMalformedPayload creates an error for a truncated or undecodable interchange payload.
// line is the payload line the problem was found on (0 if not applicable).
func NewMalformedPayload(line int, msg string) *VersoError {
	e := &VersoError{
		Code:    ErrMalformedPayload,
		Status:  400,
		Message: "malformed interchange payload: " + msg,
	}
	if line > 0 {
		e.Message = fmt.Sprintf("malformed interchange payload (line %d): %s", line, msg)
		e.Details = map[string]any{"line": line}
	}
	return e
}

// NewIO creates an error for a read or write failure on path.
func NewIO(path string, err error) *VersoError {
	return &VersoError{
		Code:    ErrIO,
		Status:  500,
		Message: fmt.Sprintf("%s: %v", path, err),
		Details: map[string]any{"file": path},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VersoError {
	return &VersoError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a saved run cannot be found.
func NewNotFound(identifier string) *VersoError {
	return &VersoError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("run not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFragmentNotInRun creates a 404 error for a fragment lookup in a saved run.
func NewFragmentNotInRun(runID, id string) *VersoError {
	return &VersoError{
		Code:    ErrFragmentNotFound,
		Status:  404,
		Message: fmt.Sprintf("no fragment found with identifier %q in run %s", id, runID),
		Details: map[string]any{"run_id": runID, "id": id},
	}
}

// NewCancelled creates an error for an operation stopped by context cancellation.
func NewCancelled(op string) *VersoError {
	return &VersoError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VersoError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VersoError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a VersoError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VersoError); ok {
		return vErr.Code == code
	}
	return false
}

// IsScanError reports whether err was raised while extracting fragments.
func IsScanError(err error) bool {
	if vErr, ok := err.(*VersoError); ok {
		return scanCodes[vErr.Code]
	}
	return false
}

// IsWeaveError reports whether err was raised while weaving prose files.
func IsWeaveError(err error) bool {
	if vErr, ok := err.(*VersoError); ok {
		return weaveCodes[vErr.Code]
	}
	return false
}
