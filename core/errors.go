package core

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type (
	// FieldError is a failed rule on one input field, named the way clients send it.
	FieldError struct {
		Field string
		Error string
	}

	// ValidationError reports bad input, either as a whole (Err) or per field (Fields).
	ValidationError struct {
		Err    error
		Fields []FieldError
	}

	// shutdownError is a state the app cannot serve from anymore.
	shutdownError struct {
		reason string
		cause  error
	}
)

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldErrors translates validator errors into a ValidationError.
func NewFieldErrors(vErrs validator.ValidationErrors, translator ut.Translator) *ValidationError {
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return &ValidationError{Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fe := range err.Fields {
		msgs = append(msgs, fe.Field+": "+fe.Error)
	}
	return strings.Join(msgs, "; ")
}

// FieldMap indexes field messages by field name. The last message wins on duplicates.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, fe := range err.Fields {
		m[fe.Field] = fe.Error
	}
	return m
}

// NewShutdownError flags cause as unrecoverable: the server stops after answering the request.
func NewShutdownError(reason string, cause error) error {
	return &shutdownError{reason: reason, cause: cause}
}

func (err *shutdownError) Error() string {
	if err.cause == nil {
		return err.reason
	}
	return err.reason + ": " + err.cause.Error()
}

func (err *shutdownError) Unwrap() error {
	return err.cause
}

func IsShutdown(err error) bool {
	var sErr *shutdownError
	return errors.As(err, &sErr)
}
