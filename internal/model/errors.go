package model

import "errors"

// Error taxonomy of the ingestion pipeline. Callers wrap these with
// fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	ErrIO          = errors.New("io error")
	ErrSchema      = errors.New("schema error")
	ErrParse       = errors.New("parse error")
	ErrDuplicate   = errors.New("duplicate game")
	ErrPersistence = errors.New("persistence error")
)

// ErrorKind names the taxonomy entry err belongs to, or "" if none.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicate) && !errors.Is(err, ErrPersistence):
		return "DuplicateError"
	case errors.Is(err, ErrPersistence):
		return "PersistenceError"
	case errors.Is(err, ErrIO):
		return "IOError"
	case errors.Is(err, ErrSchema):
		return "SchemaError"
	case errors.Is(err, ErrParse):
		return "ParseError"
	default:
		return ""
	}
}
