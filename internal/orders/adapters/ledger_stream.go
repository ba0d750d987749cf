package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/logger"
)

// messageWriter is the part of *kafka.Writer the stream uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaLedgerStream appends every applied refund and return change to a
// Kafka topic keyed by order id, so consumers see changes per order in order.
type KafkaLedgerStream struct {
	writer messageWriter
}

// NewKafkaWriter builds the writer for the ledger topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewKafkaLedgerStream creates a ledger stream on writer
func NewKafkaLedgerStream(writer messageWriter) *KafkaLedgerStream {
	return &KafkaLedgerStream{writer: writer}
}

// ledgerMessage is the value of every message on the ledger topic
type ledgerMessage struct {
	Kind        string     `json:"kind"`
	RecordID    string     `json:"record_id"`
	OrderID     string     `json:"order_id"`
	Status      string     `json:"status"`
	Amount      int64      `json:"amount,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	TraceID     string     `json:"trace_id,omitempty"`
}

// RefundChanged implements ports.LedgerStream
func (s *KafkaLedgerStream) RefundChanged(ctx context.Context, record *domain.RefundRecord) error {
	return s.write(ctx, ledgerMessage{
		Kind:        "refund",
		RecordID:    record.ID,
		OrderID:     record.OrderID,
		Status:      string(record.Status),
		Amount:      record.Amount,
		RequestedAt: record.RequestedAt,
		FinishedAt:  record.ProcessedAt,
		UpdatedAt:   record.UpdatedAt,
	})
}

// ReturnChanged implements ports.LedgerStream
func (s *KafkaLedgerStream) ReturnChanged(ctx context.Context, record *domain.ReturnRecord) error {
	return s.write(ctx, ledgerMessage{
		Kind:        "return",
		RecordID:    record.ID,
		OrderID:     record.OrderID,
		Status:      string(record.Status),
		Reason:      record.Reason,
		RequestedAt: record.RequestedAt,
		FinishedAt:  record.ClosedAt,
		UpdatedAt:   record.UpdatedAt,
	})
}

func (s *KafkaLedgerStream) write(ctx context.Context, msg ledgerMessage) error {
	msg.TraceID = logger.GetTraceID(ctx)
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ledger message: %w", err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.OrderID), Value: value}); err != nil {
		return fmt.Errorf("write ledger message: %w", err)
	}
	return nil
}
