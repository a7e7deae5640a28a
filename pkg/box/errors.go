package box

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iancoleman/strcase"
)

// ParseError reports input text that is not well-formed JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports well-formed JSON whose values violate a variant's
// declared field types.
type SchemaError struct {
	Type   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s payload: field %q %s", e.Type, e.Field, e.Reason)
}

// NotFoundError reports a referenced document or collaboration id that does
// not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// MalformedIDError reports a composite collaboration id that cannot be
// decomposed.
type MalformedIDError struct {
	ID string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed collaboration id %q", e.ID)
}

// StatusFor classifies an error kind as an HTTP-style status for the uniform
// error resource. Unknown kinds classify as internal errors.
func StatusFor(err error) int {
	var (
		parseErr  *ParseError
		schemaErr *SchemaError
		idErr     *MalformedIDError
		nfErr     *NotFoundError
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &schemaErr), errors.As(err, &idErr):
		return http.StatusBadRequest
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// codeFor derives the stable error code from the error kind name.
func codeFor(err error) string {
	var (
		parseErr  *ParseError
		schemaErr *SchemaError
		idErr     *MalformedIDError
		nfErr     *NotFoundError
	)
	var kind string
	switch {
	case errors.As(err, &parseErr):
		kind = "ParseError"
	case errors.As(err, &schemaErr):
		kind = "SchemaError"
	case errors.As(err, &nfErr):
		kind = "NotFound"
	case errors.As(err, &idErr):
		kind = "MalformedID"
	default:
		kind = "InternalError"
	}
	return strcase.ToSnake(kind)
}

// NewErrorResource converts any error into the uniform error resource. The
// conversion is total: it never fails, whatever the error kind.
func NewErrorResource(err error) *ErrorObject {
	res := NewErrorObject()
	message := "internal error"
	if err != nil {
		message = err.Error()
	}
	res.Put(FieldStatus, StatusFor(err))
	res.Put(FieldCode, codeFor(err))
	res.Put(FieldMessage, message)
	return res
}
