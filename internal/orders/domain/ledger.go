package domain

import "time"

// RefundStatus is the state of the refund audit record
type RefundStatus string

const (
	RefundRequested RefundStatus = "REQUESTED"
	RefundApproved  RefundStatus = "APPROVED"
	RefundProcessed RefundStatus = "PROCESSED"
	RefundFailed    RefundStatus = "FAILED"
	RefundCancelled RefundStatus = "CANCELLED"
)

// Rank orders refund statuses; a record only moves to a strictly higher rank.
// Terminal statuses share the top rank so none can replace another.
func (s RefundStatus) Rank() int {
	switch s {
	case RefundRequested:
		return 1
	case RefundApproved:
		return 2
	case RefundProcessed, RefundFailed, RefundCancelled:
		return 3
	}
	return 0
}

// Rank orders return statuses the same way
func (s ReturnStatus) Rank() int {
	switch s {
	case ReturnRequested:
		return 1
	case ReturnApproved, ReturnRejected:
		return 2
	case ReturnReceived:
		return 3
	case ReturnClosed:
		return 4
	}
	return 0
}

// RefundRecord mirrors the refund phase of an order's payment, one per order
type RefundRecord struct {
	ID          string       `json:"id"`
	OrderID     string       `json:"orderId"`
	Status      RefundStatus `json:"status"`
	Amount      int64        `json:"amount"`
	GatewayRef  string       `json:"gatewayRef,omitempty"`
	RequestedAt time.Time    `json:"requestedAt"`
	ProcessedAt *time.Time   `json:"processedAt,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Advance moves the record to status if that is a forward move
func (r *RefundRecord) Advance(status RefundStatus, at time.Time) bool {
	if status.Rank() <= r.Status.Rank() {
		return false
	}
	r.Status = status
	r.UpdatedAt = at
	if status == RefundProcessed {
		processed := at
		r.ProcessedAt = &processed
	}
	return true
}

// ReturnRecord mirrors an order's return request, one per order
type ReturnRecord struct {
	ID          string       `json:"id"`
	OrderID     string       `json:"orderId"`
	Status      ReturnStatus `json:"status"`
	Reason      string       `json:"reason"`
	RequestedAt time.Time    `json:"requestedAt"`
	ClosedAt    *time.Time   `json:"closedAt,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Advance moves the record to status if that is a forward move
func (r *ReturnRecord) Advance(status ReturnStatus, at time.Time) bool {
	if status.Rank() <= r.Status.Rank() {
		return false
	}
	r.Status = status
	r.UpdatedAt = at
	if status == ReturnClosed {
		closed := at
		r.ClosedAt = &closed
	}
	return true
}

// RefundTarget maps a payment status to the refund record status it implies.
// The second result is false when the payment status does not touch the ledger.
func RefundTarget(previous, next PaymentStatus) (RefundStatus, bool) {
	switch next {
	case PaymentRefundPending:
		return RefundRequested, true
	case PaymentRefunded:
		return RefundProcessed, true
	case PaymentFailed:
		// only a failed refund, not a failed charge
		if previous == PaymentRefundPending {
			return RefundFailed, true
		}
	}
	return "", false
}
