// Package errors defines the coded application error shared by the HTTP and
// gRPC edges of every service.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Order lifecycle rejections
	CodeIllegalTransition    = "ILLEGAL_TRANSITION"
	CodeDispatchPrecondition = "DISPATCH_PRECONDITION"
	CodeMissingEvidence      = "MISSING_EVIDENCE"
	CodeInventoryShortfall   = "INVENTORY_SHORTFALL"
	CodeAlreadyDispatched    = "ALREADY_DISPATCHED"
)

// errorDomain tags ErrorInfo details written by GRPCStatus
const errorDomain = "go-commerce"

type mapping struct {
	status int
	code   codes.Code
}

var byCode = map[string]mapping{
	CodeValidation:           {http.StatusBadRequest, codes.InvalidArgument},
	CodeIllegalTransition:    {http.StatusBadRequest, codes.InvalidArgument},
	CodeMissingEvidence:      {http.StatusBadRequest, codes.InvalidArgument},
	CodeNotFound:             {http.StatusNotFound, codes.NotFound},
	CodeConflict:             {http.StatusConflict, codes.AlreadyExists},
	CodeDispatchPrecondition: {http.StatusConflict, codes.FailedPrecondition},
	CodeInventoryShortfall:   {http.StatusConflict, codes.FailedPrecondition},
	CodeAlreadyDispatched:    {http.StatusConflict, codes.FailedPrecondition},
	CodeUnauthorized:         {http.StatusUnauthorized, codes.Unauthenticated},
	CodeForbidden:            {http.StatusForbidden, codes.PermissionDenied},
}

func lookup(code string) mapping {
	if m, ok := byCode[code]; ok {
		return m
	}
	return mapping{http.StatusInternalServerError, codes.Internal}
}

// AppError is an error with a stable machine-readable code
type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every failed HTTP request
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ToJSON renders err as an ErrorResponse. Errors without a code are reported
// as INTERNAL_ERROR and their text is not exposed.
func ToJSON(err error, traceID string) (int, []byte) {
	appErr := asAppError(err)
	if appErr == nil {
		appErr = &AppError{Code: CodeInternal, Message: "An internal error occurred"}
	}

	data, _ := json.Marshal(ErrorResponse{
		Error: ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
		TraceID: traceID,
	})
	return lookup(appErr.Code).status, data
}

// HTTPStatus returns the HTTP status code for an error
func HTTPStatus(err error) int {
	if appErr := asAppError(err); appErr != nil {
		return lookup(appErr.Code).status
	}
	return http.StatusInternalServerError
}

// GRPCStatus converts err to a gRPC status error. The application code rides
// along as an ErrorInfo detail so FromGRPCStatus can restore it exactly.
func GRPCStatus(err error) error {
	appErr := asAppError(err)
	if appErr == nil {
		if st, ok := status.FromError(err); ok {
			return st.Err()
		}
		return status.Error(codes.Internal, "internal error")
	}

	st := status.New(lookup(appErr.Code).code, appErr.Message)
	if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: appErr.Code, Domain: errorDomain}); derr == nil {
		st = detailed
	}
	return st.Err()
}

// FromGRPCStatus converts a gRPC error back to an *AppError, preferring the
// code carried in an ErrorInfo detail over one derived from the status code.
func FromGRPCStatus(err error) *AppError {
	st, ok := status.FromError(err)
	if !ok {
		return NewInternal("unknown error", err)
	}

	code := codeFromStatus(st.Code())
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			code = info.GetReason()
			break
		}
	}

	return &AppError{
		Code:    code,
		Message: st.Message(),
		Err:     err,
	}
}

func codeFromStatus(c codes.Code) string {
	switch c {
	case codes.InvalidArgument:
		return CodeValidation
	case codes.NotFound:
		return CodeNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return CodeConflict
	case codes.Unauthenticated:
		return CodeUnauthorized
	case codes.PermissionDenied:
		return CodeForbidden
	default:
		return CodeInternal
	}
}

func asAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// New creates an error with an explicit code
func New(code, message string, details interface{}) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewValidation creates a validation error
func NewValidation(message string, details interface{}) *AppError {
	return New(CodeValidation, message, details)
}

// NewNotFound creates a not found error
func NewNotFound(resource string, id interface{}) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s with id '%v' not found", resource, id), nil)
}

// NewConflict creates a conflict error
func NewConflict(message string) *AppError {
	return New(CodeConflict, message, nil)
}

// NewUnauthorized creates an unauthorized error
func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, nil)
}

// NewInternal creates an internal error wrapping err
func NewInternal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// Is reports whether err carries the given code
func Is(err error, code string) bool {
	appErr := asAppError(err)
	return appErr != nil && appErr.Code == code
}

// Wrap prefixes the message of a coded error, keeping its code. Uncoded
// errors become INTERNAL_ERROR.
func Wrap(err error, message string) *AppError {
	appErr := asAppError(err)
	if appErr == nil {
		return NewInternal(message, err)
	}
	return &AppError{
		Code:    appErr.Code,
		Message: message + ": " + appErr.Message,
		Details: appErr.Details,
		Err:     err,
	}
}
