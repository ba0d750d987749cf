package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidation("bad", nil), http.StatusBadRequest},
		{New(CodeIllegalTransition, "illegal", nil), http.StatusBadRequest},
		{New(CodeMissingEvidence, "proof", nil), http.StatusBadRequest},
		{New(CodeDispatchPrecondition, "unpaid", nil), http.StatusConflict},
		{New(CodeInventoryShortfall, "short", nil), http.StatusConflict},
		{New(CodeAlreadyDispatched, "shipped", nil), http.StatusConflict},
		{NewConflict("stale"), http.StatusConflict},
		{NewNotFound("order", "ord_1"), http.StatusNotFound},
		{NewUnauthorized("who"), http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", NewNotFound("order", "ord_1")), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestToJSON(t *testing.T) {
	t.Run("app error keeps code and details", func(t *testing.T) {
		code, body := ToJSON(NewValidation("invalid request body", map[string]string{"field": "items"}), "trace-1")

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, CodeValidation, resp.Error.Code)
		assert.Equal(t, "trace-1", resp.TraceID)
		assert.Equal(t, map[string]interface{}{"field": "items"}, resp.Error.Details)
	})

	t.Run("plain error hides its message", func(t *testing.T) {
		code, body := ToJSON(errors.New("pq: password authentication failed"), "")

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.NotContains(t, string(body), "password")
		assert.NotContains(t, string(body), "trace_id")
	})
}

func TestGRPCStatusRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantGRPC codes.Code
		wantApp  string
	}{
		{"validation", NewValidation("bad", nil), codes.InvalidArgument, CodeValidation},
		{"illegal transition", New(CodeIllegalTransition, "illegal", nil), codes.InvalidArgument, CodeIllegalTransition},
		{"dispatch gate", New(CodeDispatchPrecondition, "unpaid", nil), codes.FailedPrecondition, CodeDispatchPrecondition},
		{"not found", NewNotFound("product", "MUG-1"), codes.NotFound, CodeNotFound},
		{"conflict", NewConflict("stale"), codes.AlreadyExists, CodeConflict},
		{"internal", errors.New("boom"), codes.Internal, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grpcErr := GRPCStatus(tt.err)
			assert.Equal(t, tt.wantGRPC, status.Code(grpcErr))

			appErr := FromGRPCStatus(grpcErr)
			assert.Equal(t, tt.wantApp, appErr.Code)
		})
	}
}

func TestFromGRPCStatus_WithoutDetails(t *testing.T) {
	tests := []struct {
		code codes.Code
		want string
	}{
		{codes.InvalidArgument, CodeValidation},
		{codes.FailedPrecondition, CodeConflict},
		{codes.Aborted, CodeConflict},
		{codes.PermissionDenied, CodeForbidden},
		{codes.Unavailable, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, FromGRPCStatus(status.Error(tt.code, "x")).Code)
		})
	}
}

func TestGRPCStatus_PassesStatusThrough(t *testing.T) {
	err := GRPCStatus(status.Error(codes.DeadlineExceeded, "too slow"))

	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(NewNotFound("product", "MUG-1"), "failed to resolve product price")

	assert.Equal(t, CodeNotFound, wrapped.Code)
	assert.Equal(t, "failed to resolve product price: product with id 'MUG-1' not found", wrapped.Message)
	assert.True(t, Is(Wrap(errors.New("io"), "read"), CodeInternal))
}
