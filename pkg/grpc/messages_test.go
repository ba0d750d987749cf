package grpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleMessage struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Tags     []string          `json:"tags,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
	Settled  bool              `json:"settled"`
	PlacedAt time.Time         `json:"placedAt"`
}

func TestEncodeDecode(t *testing.T) {
	// Arrange
	in := sampleMessage{
		ID:       "ord_1",
		Amount:   123456,
		Tags:     []string{"gift"},
		Meta:     map[string]string{"carrier": "DHL"},
		Settled:  true,
		PlacedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	// Act
	msg, err := Encode(in)
	require.NoError(t, err)
	var out sampleMessage
	err = Decode(msg, &out)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Amount, out.Amount)
	assert.Equal(t, in.Tags, out.Tags)
	assert.Equal(t, in.Meta, out.Meta)
	assert.True(t, out.Settled)
	assert.True(t, in.PlacedAt.Equal(out.PlacedAt))
	assert.Equal(t, "ord_1", msg.Fields["id"].GetStringValue())
}

func TestEncodeDecode_ExactIntegerRange(t *testing.T) {
	for _, amount := range []int64{1 << 53, -(1 << 53), 1<<53 - 1} {
		msg, err := Encode(sampleMessage{ID: "ord_1", Amount: amount})
		require.NoError(t, err)

		var out sampleMessage
		require.NoError(t, Decode(msg, &out))
		assert.Equal(t, amount, out.Amount)
	}
}

func TestEncode_RejectsNonObjects(t *testing.T) {
	_, err := Encode([]string{"not", "an", "object"})

	assert.Error(t, err)
}

func TestDecode_TypeMismatch(t *testing.T) {
	msg, err := Encode(map[string]interface{}{"amount": "lots"})
	require.NoError(t, err)

	var out sampleMessage
	assert.Error(t, Decode(msg, &out))
}
