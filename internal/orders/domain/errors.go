package domain

import (
	"fmt"
	"strings"

	"go-commerce/pkg/errors"
)

// Domain-specific errors
var (
	ErrItemsRequired        = errors.NewValidation("at least one line item is required", nil)
	ErrProductRefRequired   = errors.NewValidation("productRef is required for every line item", nil)
	ErrInvalidQuantity      = errors.NewValidation("quantity must be greater than 0", nil)
	ErrInvalidAmount        = errors.NewValidation("amounts cannot be negative", nil)
	ErrAmountOverflow       = errors.NewValidation("order total exceeds the supported range", nil)
	ErrDiscountTooHigh      = errors.NewValidation("discount cannot exceed subtotal plus shipping", nil)
	ErrAddressIncomplete    = errors.NewValidation("address requires line1, city and country", nil)
	ErrInvalidPaymentMethod = errors.NewValidation("payment method must be one of COD, CARD, BANK", nil)
	ErrUnknownDimension     = errors.NewValidation("dimension must be one of order, delivery, payment", nil)
	ErrReturnReason         = errors.NewValidation("a return reason is required", nil)
	ErrReturnNotFound       = errors.NewNotFound("return", "unknown")
	ErrRefundNotFound       = errors.NewNotFound("refund", "unknown")

	// ErrConcurrentModification is returned when the stored version moved under a write
	ErrConcurrentModification = errors.NewConflict("order was modified concurrently")
)

// NewOrderNotFound creates a not found error with the order ID
func NewOrderNotFound(id string) error {
	return errors.NewNotFound("order", id)
}

// IllegalTransitionError is returned for an edge that is not in the state graph
type IllegalTransitionError struct {
	Dimension Dimension
	From      string
	To        string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition %s -> %s", e.Dimension, e.From, e.To)
}

// Unwrap exposes the error as an AppError for transport mapping
func (e *IllegalTransitionError) Unwrap() error {
	return errors.New(errors.CodeIllegalTransition, e.Error(), map[string]interface{}{
		"dimension": e.Dimension,
		"from":      e.From,
		"to":        e.To,
	})
}

// DispatchPreconditionError is returned when payment is not adequate for shipping
type DispatchPreconditionError struct {
	Method   PaymentMethod
	Required []PaymentStatus
	Current  PaymentStatus
}

func (e *DispatchPreconditionError) Error() string {
	required := make([]string, len(e.Required))
	for i, s := range e.Required {
		required[i] = string(s)
	}
	return fmt.Sprintf("%s orders ship only with payment %s, current payment is %s",
		e.Method, strings.Join(required, " or "), e.Current)
}

func (e *DispatchPreconditionError) Unwrap() error {
	return errors.New(errors.CodeDispatchPrecondition, e.Error(), map[string]interface{}{
		"method":   e.Method,
		"required": e.Required,
		"current":  e.Current,
	})
}

// MissingEvidenceError is returned when a transition lacks required proof or reason
type MissingEvidenceError struct {
	Target   string
	Required []string
}

func (e *MissingEvidenceError) Error() string {
	return fmt.Sprintf("transition to %s requires one of: %s", e.Target, strings.Join(e.Required, ", "))
}

func (e *MissingEvidenceError) Unwrap() error {
	return errors.New(errors.CodeMissingEvidence, e.Error(), map[string]interface{}{
		"target":   e.Target,
		"required": e.Required,
	})
}

// ShortLine describes one line item that could not be reserved
type ShortLine struct {
	ProductRef string `json:"productRef"`
	Requested  int64  `json:"requested"`
	Available  int64  `json:"available"`
}

// InventoryShortfallError is returned when stock cannot cover every line item
type InventoryShortfallError struct {
	Lines []ShortLine
}

func (e *InventoryShortfallError) Error() string {
	refs := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		refs[i] = fmt.Sprintf("%s (requested %d, available %d)", l.ProductRef, l.Requested, l.Available)
	}
	return "insufficient stock for " + strings.Join(refs, ", ")
}

func (e *InventoryShortfallError) Unwrap() error {
	return errors.New(errors.CodeInventoryShortfall, e.Error(), map[string]interface{}{
		"lines": e.Lines,
	})
}

// AlreadyDispatchedError is returned when cancelling an order that left the warehouse
type AlreadyDispatchedError struct {
	OrderID       string
	DeliveryState DeliveryState
}

func (e *AlreadyDispatchedError) Error() string {
	return fmt.Sprintf("order %s is already dispatched (%s); use the return flow", e.OrderID, e.DeliveryState)
}

func (e *AlreadyDispatchedError) Unwrap() error {
	return errors.New(errors.CodeAlreadyDispatched, e.Error(), map[string]interface{}{
		"order_id":       e.OrderID,
		"delivery_state": e.DeliveryState,
	})
}

// RefundWindowError is returned for refund requests while the parcel is with the carrier
type RefundWindowError struct {
	DeliveryState DeliveryState
}

func (e *RefundWindowError) Error() string {
	return fmt.Sprintf("refunds are not accepted while delivery is %s", e.DeliveryState)
}

func (e *RefundWindowError) Unwrap() error {
	return errors.New(errors.CodeConflict, e.Error(), map[string]interface{}{
		"delivery_state": e.DeliveryState,
	})
}
