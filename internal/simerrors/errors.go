// Package simerrors provides the structured error taxonomy used across the
// simulator, per the error handling design in SPEC_FULL.md.
package simerrors

import "fmt"

// Kind is one of the error taxonomy entries.
type Kind string

const (
	KindValidation         Kind = "Validation"
	KindNotFound           Kind = "NotFound"
	KindConflict           Kind = "Conflict"
	KindAuthFailure        Kind = "AuthFailure"
	KindInvalidDocumentKey Kind = "InvalidDocumentKey"
	KindSkillFailure       Kind = "SkillFailure"
	KindBulkUploadFailure  Kind = "BulkUploadFailure"
	KindTransient          Kind = "Transient"
	KindConfiguration      Kind = "Configuration"
	KindInvalidOperation   Kind = "InvalidOperation"
)

// httpStatusByKind is the kind -> HTTP status mapping from §7.
var httpStatusByKind = map[Kind]int{
	KindValidation:         400,
	KindNotFound:           404,
	KindConflict:           409,
	KindAuthFailure:        401,
	KindInvalidDocumentKey: 400,
	KindSkillFailure:       500,
	KindBulkUploadFailure:  500,
	KindTransient:          503,
	KindConfiguration:      500,
	KindInvalidOperation:   409,
}

// SimError is the structured error type for the simulator. It carries
// enough context for request-level error responses and for the
// accumulated per-document/per-skill failure records described in §7's
// propagation policy.
type SimError struct {
	Kind        Kind
	Code        string
	Message     string
	HTTPStatus  int
	Details     map[string]string
	Cause       error
	Retryable   bool
	DocumentKey string
	SkillName   string
}

// Error implements the error interface.
func (e *SimError) Error() string {
	if e.DocumentKey != "" {
		return fmt.Sprintf("[%s] %s (document %q)", e.Code, e.Message, e.DocumentKey)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SimError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is to match on Code.
func (e *SimError) Is(target error) bool {
	t, ok := target.(*SimError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *SimError) WithDetail(key, value string) *SimError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithDocument attaches the failing document key, per §7's propagation
// policy ("records the document key, skill name, and cause").
func (e *SimError) WithDocument(key string) *SimError {
	e.DocumentKey = key
	return e
}

// WithSkill attaches the failing skill name.
func (e *SimError) WithSkill(name string) *SimError {
	e.SkillName = name
	return e
}

// New constructs a SimError of the given kind and code, taking its HTTP
// status from the kind.
func New(kind Kind, code, message string, cause error) *SimError {
	return &SimError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatusByKind[kind],
		Cause:      cause,
		Retryable:  kind == KindTransient,
	}
}

func NewValidation(message string, cause error) *SimError {
	return New(KindValidation, "ERR_400_VALIDATION", message, cause)
}

func NewNotFound(message string, cause error) *SimError {
	return New(KindNotFound, "ERR_404_NOT_FOUND", message, cause)
}

func NewConflict(message string, cause error) *SimError {
	return New(KindConflict, "ERR_409_CONFLICT", message, cause)
}

func NewAuthFailure(message string, cause error) *SimError {
	return New(KindAuthFailure, "ERR_401_AUTH_FAILURE", message, cause)
}

func NewInvalidDocumentKey(key string) *SimError {
	return New(KindInvalidDocumentKey, "ERR_400_INVALID_DOCUMENT_KEY",
		fmt.Sprintf("document key %q contains characters outside [A-Za-z0-9_-=]", key), nil).WithDocument(key)
}

func NewSkillFailure(skillName, message string, cause error) *SimError {
	return New(KindSkillFailure, "ERR_500_SKILL_FAILURE", message, cause).WithSkill(skillName)
}

func NewBulkUploadFailure(message string, cause error) *SimError {
	return New(KindBulkUploadFailure, "ERR_500_BULK_UPLOAD_FAILURE", message, cause)
}

func NewTransient(message string, cause error) *SimError {
	return New(KindTransient, "ERR_503_TRANSIENT", message, cause)
}

func NewConfiguration(message string, cause error) *SimError {
	return New(KindConfiguration, "ERR_500_CONFIGURATION", message, cause)
}

func NewInvalidOperation(message string, cause error) *SimError {
	return New(KindInvalidOperation, "ERR_409_INVALID_OPERATION", message, cause)
}

// IsRetryable reports whether err is a SimError marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SimError); ok {
		return se.Retryable
	}
	return false
}

// IsFatal reports whether err is request-fatal per §7 (everything except
// the per-document/per-skill kinds that the caller may choose to
// accumulate and continue past).
func IsFatal(err error) bool {
	se, ok := err.(*SimError)
	if !ok {
		return err != nil
	}
	switch se.Kind {
	case KindInvalidDocumentKey, KindSkillFailure:
		return false
	default:
		return true
	}
}

// GetKind extracts the Kind from an error, or "" if not a SimError.
func GetKind(err error) Kind {
	if se, ok := err.(*SimError); ok {
		return se.Kind
	}
	return ""
}

// GetHTTPStatus extracts the HTTP status from an error, or 500 if not a
// SimError.
func GetHTTPStatus(err error) int {
	if se, ok := err.(*SimError); ok {
		return se.HTTPStatus
	}
	return 500
}
