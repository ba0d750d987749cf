package adapters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaLedgerStream_RefundChanged(t *testing.T) {
	// Arrange
	writer := &fakeWriter{}
	stream := NewKafkaLedgerStream(writer)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ctx := logger.WithTraceIDContext(context.Background(), "trace-9")

	// Act
	err := stream.RefundChanged(ctx, &domain.RefundRecord{
		ID:          "rfd_1",
		OrderID:     "ord_1",
		Status:      domain.RefundProcessed,
		Amount:      3000,
		RequestedAt: at,
		ProcessedAt: &at,
		UpdatedAt:   at,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "ord_1", string(writer.msgs[0].Key))

	var msg ledgerMessage
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &msg))
	assert.Equal(t, "refund", msg.Kind)
	assert.Equal(t, "PROCESSED", msg.Status)
	assert.Equal(t, int64(3000), msg.Amount)
	assert.Equal(t, "trace-9", msg.TraceID)
	require.NotNil(t, msg.FinishedAt)
	assert.True(t, at.Equal(*msg.FinishedAt))
}

func TestKafkaLedgerStream_ReturnChanged(t *testing.T) {
	writer := &fakeWriter{}
	stream := NewKafkaLedgerStream(writer)

	err := stream.ReturnChanged(context.Background(), &domain.ReturnRecord{
		ID:      "ret_1",
		OrderID: "ord_7",
		Status:  domain.ReturnApproved,
		Reason:  "damaged",
	})

	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "ord_7", string(writer.msgs[0].Key))
	assert.Contains(t, string(writer.msgs[0].Value), `"kind":"return"`)
	assert.Contains(t, string(writer.msgs[0].Value), `"reason":"damaged"`)
	assert.NotContains(t, string(writer.msgs[0].Value), "finished_at")
}

func TestKafkaLedgerStream_WriteError(t *testing.T) {
	writer := &fakeWriter{err: stderrors.New("leader not available")}
	stream := NewKafkaLedgerStream(writer)

	err := stream.ReturnChanged(context.Background(), &domain.ReturnRecord{OrderID: "ord_1", Status: domain.ReturnRequested})

	assert.ErrorContains(t, err, "leader not available")
}
