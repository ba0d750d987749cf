package adapters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-commerce/internal/orders/application"
	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/events"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/rabbitmq"
)

type fakePaymentUpdater struct {
	calls []application.UpdatePaymentInput
	err   error
}

func (f *fakePaymentUpdater) UpdatePaymentStatus(ctx context.Context, input application.UpdatePaymentInput) (*application.OrderOutput, error) {
	f.calls = append(f.calls, input)
	if f.err != nil {
		return nil, f.err
	}
	return &application.OrderOutput{Order: &domain.Order{ID: input.OrderID}, Changed: true}, nil
}

func newTestConsumer(payments PaymentUpdater) *PaymentStatusConsumer {
	return &PaymentStatusConsumer{
		payments: payments,
		seen:     gocache.New(time.Minute, time.Minute),
		log:      logger.New("test", "error"),
	}
}

func paymentEvent(t *testing.T, eventID, orderID, status string) []byte {
	t.Helper()
	body, err := json.Marshal(events.PaymentStatusEvent{
		Version:   "1.0",
		EventType: events.RoutingKeyPaymentStatus,
		EventID:   eventID,
		Payload:   events.PaymentStatusPayload{OrderID: orderID, Status: status, GatewayRef: "pi_42"},
	})
	require.NoError(t, err)
	return body
}

func TestHandleMessage_AppliesPayment(t *testing.T) {
	// Arrange
	payments := &fakePaymentUpdater{}
	consumer := newTestConsumer(payments)

	// Act
	err := consumer.handleMessage(context.Background(), paymentEvent(t, "evt_1", "ord_1", "PAID"))

	// Assert
	require.NoError(t, err)
	require.Len(t, payments.calls, 1)
	assert.Equal(t, application.UpdatePaymentInput{OrderID: "ord_1", Status: domain.PaymentPaid, GatewayRef: "pi_42"}, payments.calls[0])
}

func TestHandleMessage_DeduplicatesByEventID(t *testing.T) {
	payments := &fakePaymentUpdater{}
	consumer := newTestConsumer(payments)
	body := paymentEvent(t, "evt_1", "ord_1", "PAID")

	require.NoError(t, consumer.handleMessage(context.Background(), body))
	require.NoError(t, consumer.handleMessage(context.Background(), body))

	assert.Len(t, payments.calls, 1)
}

func TestHandleMessage_Discards(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"malformed json", []byte(`{"event_id":`)},
		{"missing event id", paymentEvent(t, "", "ord_1", "PAID")},
		{"missing order id", paymentEvent(t, "evt_1", "", "PAID")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &fakePaymentUpdater{}
			consumer := newTestConsumer(payments)

			err := consumer.handleMessage(context.Background(), tt.body)

			var discard *rabbitmq.ErrDiscard
			assert.True(t, stderrors.As(err, &discard), "expected discard, got %v", err)
			assert.Empty(t, payments.calls)
		})
	}
}

func TestHandleMessage_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		redeliver bool
	}{
		{"illegal move is final", errors.New(errors.CodeIllegalTransition, "illegal", nil), false},
		{"unknown order is final", domain.NewOrderNotFound("ord_1"), false},
		{"store failure is retried", errors.NewInternal("failed to update order", stderrors.New("conn reset")), true},
		{"unclassified failure is retried", context.DeadlineExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &fakePaymentUpdater{err: tt.err}
			consumer := newTestConsumer(payments)
			body := paymentEvent(t, "evt_1", "ord_1", "PAID")

			err := consumer.handleMessage(context.Background(), body)

			if tt.redeliver {
				assert.Error(t, err)
				_, seen := consumer.seen.Get("evt_1")
				assert.False(t, seen, "a retried event must not be marked seen")
			} else {
				assert.NoError(t, err)
				_, seen := consumer.seen.Get("evt_1")
				assert.True(t, seen)
			}
		})
	}
}
