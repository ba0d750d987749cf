package infrastructure

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/middleware"
)

func newTestRouter(svc OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test", "error")

	router := gin.New()
	router.Use(middleware.TraceID())
	router.Use(middleware.ErrorHandler(log))
	NewHTTPHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.TraceIDHeader, "trace-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data                         json.RawMessage   `json:"data"`
	Changed                      *bool             `json:"changed"`
	RequiresExternalConfirmation bool              `json:"requiresExternalConfirmation"`
	TraceID                      string            `json:"trace_id"`
	Error                        *errors.ErrorBody `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func validCheckout() map[string]interface{} {
	return map[string]interface{}{
		"customerId":    "cus_1",
		"paymentMethod": "CARD",
		"items": []map[string]interface{}{
			{"productRef": "sku-1", "quantity": 2, "unitPrice": 1500},
		},
		"address": map[string]interface{}{
			"line1": "1 Main St", "city": "Springfield", "country": "US",
		},
		"shipping": 500,
	}
}

func TestHTTP_CreateOrder(t *testing.T) {
	// Arrange
	svc := newStubService()
	router := newTestRouter(svc)

	// Act
	rec := do(t, router, http.MethodPost, "/api/v1/orders", validCheckout())

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.RequiresExternalConfirmation)
	assert.Equal(t, "trace-1", env.TraceID)

	var order OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "ord_1", order.ID)
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.Equal(t, "CONFIRMED", order.OrderState)
	assert.Equal(t, "2026-03-01T12:00:00Z", order.CreatedAt)

	assert.Equal(t, domain.PaymentCard, svc.created.Method)
	require.Len(t, svc.created.Items, 1)
	assert.Equal(t, int64(2), svc.created.Items[0].Quantity)
	assert.Equal(t, "Springfield", svc.created.Address.City)
	assert.Equal(t, int64(500), svc.created.Shipping)
}

func TestHTTP_CreateOrder_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"no items", func(b map[string]interface{}) { b["items"] = []interface{}{} }},
		{"unknown method", func(b map[string]interface{}) { b["paymentMethod"] = "CRYPTO" }},
		{"zero quantity", func(b map[string]interface{}) {
			b["items"] = []map[string]interface{}{{"productRef": "sku-1", "quantity": 0}}
		}},
		{"no address", func(b map[string]interface{}) { delete(b, "address") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			svc := newStubService()
			router := newTestRouter(svc)
			body := validCheckout()
			tt.mutate(body)

			// Act
			rec := do(t, router, http.MethodPost, "/api/v1/orders", body)

			// Assert
			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, errors.CodeValidation, env.Error.Code)
			assert.Empty(t, svc.created.Method, "use case must not be called")
		})
	}
}

func TestHTTP_GetOrder_NotFound(t *testing.T) {
	// Arrange
	svc := newStubService()
	svc.err = domain.NewOrderNotFound("ord_missing")
	router := newTestRouter(svc)

	// Act
	rec := do(t, router, http.MethodGet, "/api/v1/orders/ord_missing", nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.CodeNotFound, env.Error.Code)
	assert.Equal(t, "trace-1", env.TraceID)
}

func TestHTTP_RequestTransition(t *testing.T) {
	// Arrange
	svc := newStubService()
	router := newTestRouter(svc)

	// Act
	rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/transitions", map[string]interface{}{
		"dimension": "delivery",
		"target":    "DELIVERED",
		"evidence":  map[string]string{"otp": "4321"},
	})

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Changed)
	assert.True(t, *env.Changed)
	assert.Equal(t, "ord_1", svc.transition.OrderID)
	assert.Equal(t, domain.DimensionDelivery, svc.transition.Dimension)
	assert.Equal(t, "DELIVERED", svc.transition.Target)
	assert.Equal(t, "4321", svc.transition.Evidence.OTP)
}

func TestHTTP_RequestTransition_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "illegal edge",
			err:      &domain.IllegalTransitionError{Dimension: domain.DimensionOrder, From: "CONFIRMED", To: "DELIVERED"},
			wantCode: http.StatusBadRequest,
			wantBody: errors.CodeIllegalTransition,
		},
		{
			name:     "missing proof",
			err:      &domain.MissingEvidenceError{Target: "DELIVERED", Required: []string{"photo", "signature", "otp"}},
			wantCode: http.StatusBadRequest,
			wantBody: errors.CodeMissingEvidence,
		},
		{
			name:     "unpaid bank order",
			err:      &domain.DispatchPreconditionError{Method: domain.PaymentBank, Required: []domain.PaymentStatus{domain.PaymentPaid}, Current: domain.PaymentPending},
			wantCode: http.StatusConflict,
			wantBody: errors.CodeDispatchPrecondition,
		},
		{
			name:     "concurrent writer",
			err:      domain.ErrConcurrentModification,
			wantCode: http.StatusConflict,
			wantBody: errors.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			svc := newStubService()
			svc.err = tt.err
			router := newTestRouter(svc)

			// Act
			rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/transitions", map[string]interface{}{
				"dimension": "order", "target": "SHIPPED",
			})

			// Assert
			assert.Equal(t, tt.wantCode, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantBody, env.Error.Code)
		})
	}
}

func TestHTTP_RequestTransition_UnknownDimension(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/transitions", map[string]interface{}{
		"dimension": "billing", "target": "PAID",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.transition.OrderID)
}

func TestHTTP_UpdatePayment(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/payment", map[string]string{
		"status": "PAID", "gatewayRef": "ch_123",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaymentPaid, svc.payment.Status)
	assert.Equal(t, "ch_123", svc.payment.GatewayRef)
}

func TestHTTP_CancelOrder(t *testing.T) {
	t.Run("without a body", func(t *testing.T) {
		svc := newStubService()
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/cancel", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ord_1", svc.cancel.OrderID)
		assert.Empty(t, svc.cancel.Reason)
	})

	t.Run("with a reason", func(t *testing.T) {
		svc := newStubService()
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/cancel", map[string]string{"reason": "changed mind"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "changed mind", svc.cancel.Reason)
	})

	t.Run("after dispatch", func(t *testing.T) {
		svc := newStubService()
		svc.err = &domain.AlreadyDispatchedError{OrderID: "ord_1", DeliveryState: domain.DeliveryInTransit}
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/cancel", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		env := decode(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, errors.CodeAlreadyDispatched, env.Error.Code)
	})
}

func TestHTTP_DeleteOrder(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodDelete, "/api/v1/orders/ord_1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ord_1", svc.deleted)
}

func TestHTTP_Returns(t *testing.T) {
	t.Run("request", func(t *testing.T) {
		svc := newStubService()
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/return", map[string]string{"reason": "damaged"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "damaged", svc.returnIn.Reason)
	})

	t.Run("request needs a reason", func(t *testing.T) {
		svc := newStubService()
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/return", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("approve", func(t *testing.T) {
		svc := newStubService()
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPatch, "/api/v1/orders/ord_1/return", map[string]string{"status": "approved"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.ReturnApproved, svc.returnUp.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := newStubService()
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPatch, "/api/v1/orders/ord_1/return", map[string]string{"status": "lost"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("audit record", func(t *testing.T) {
		svc := newStubService()
		svc.ret = &domain.ReturnRecord{ID: "ret_1", OrderID: "ord_1", Status: domain.ReturnRequested, Reason: "damaged"}
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodGet, "/api/v1/orders/ord_1/return", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var record domain.ReturnRecord
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &record))
		assert.Equal(t, "ret_1", record.ID)
		assert.Equal(t, domain.ReturnRequested, record.Status)
	})
}

func TestHTTP_Refunds(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		svc := newStubService()
		svc.refund = &domain.RefundRecord{ID: "rfd_1", OrderID: "ord_1", Status: domain.RefundRequested, Amount: 3500}
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodGet, "/api/v1/orders/ord_1/refund", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var record domain.RefundRecord
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &record))
		assert.Equal(t, int64(3500), record.Amount)
	})

	t.Run("approve twice", func(t *testing.T) {
		svc := newStubService()
		svc.err = errors.NewConflict("refund is already APPROVED")
		router := newTestRouter(svc)

		rec := do(t, router, http.MethodPost, "/api/v1/orders/ord_1/refund/approve", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
