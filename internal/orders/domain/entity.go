package domain

import (
	"math"
	"time"
)

// Order is the aggregate root of the order lifecycle
type Order struct {
	ID              string
	CustomerID      string
	OrderState      OrderState
	DeliveryState   DeliveryState
	Payment         Payment
	Items           []LineItem
	Totals          Totals
	ShippingAddress Address
	LegacyStatus    string
	StatusHistory   []HistoryEntry
	DeliveryMeta    DeliveryMeta
	ReturnRequest   *ReturnRequest
	InventoryStatus InventoryStatus
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Payment is the settlement part of an order
type Payment struct {
	Method     PaymentMethod `json:"method"`
	Status     PaymentStatus `json:"status"`
	GatewayRef string        `json:"gatewayRef,omitempty"`
}

// LineItem is a product snapshot taken at checkout. Prices are in minor units.
type LineItem struct {
	ProductRef string `json:"productRef"`
	Name       string `json:"name,omitempty"`
	UnitPrice  int64  `json:"unitPrice"`
	Quantity   int64  `json:"quantity"`
}

// LineTotal returns unit price times quantity
func (l LineItem) LineTotal() int64 {
	return l.UnitPrice * l.Quantity
}

// Totals are computed once at creation, in minor units
type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	Shipping   int64 `json:"shipping"`
	Discount   int64 `json:"discount"`
	GrandTotal int64 `json:"grandTotal"`
}

// Address is the shipping destination
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// HistoryEntry records a display status and when it was reached
type HistoryEntry struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// Evidence is proof or reason data attached to a transition request
type Evidence struct {
	PhotoURL       string `json:"photoUrl,omitempty"`
	Signature      string `json:"signature,omitempty"`
	OTP            string `json:"otp,omitempty"`
	ReasonCode     string `json:"reasonCode,omitempty"`
	Detail         string `json:"detail,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// HasDeliveryProof reports whether a photo, signature or OTP is present
func (e Evidence) HasDeliveryProof() bool {
	return e.PhotoURL != "" || e.Signature != "" || e.OTP != ""
}

// HasReason reports whether a reason code or free-text detail is present
func (e Evidence) HasReason() bool {
	return e.ReasonCode != "" || e.Detail != ""
}

// IsZero reports whether no field is set
func (e Evidence) IsZero() bool {
	return e == Evidence{}
}

// Merge fills empty fields of e from other
func (e Evidence) Merge(other Evidence) Evidence {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&e.PhotoURL, other.PhotoURL)
	fill(&e.Signature, other.Signature)
	fill(&e.OTP, other.OTP)
	fill(&e.ReasonCode, other.ReasonCode)
	fill(&e.Detail, other.Detail)
	fill(&e.Carrier, other.Carrier)
	fill(&e.TrackingNumber, other.TrackingNumber)
	return e
}

// DeliveryMeta is the evidence and reason bag keyed by transition name
type DeliveryMeta struct {
	Proofs  map[string]Evidence `json:"proofs,omitempty"`
	Reasons map[string]string   `json:"reasons,omitempty"`
}

// RecordProof stores evidence under the transition target
func (m *DeliveryMeta) RecordProof(target string, ev Evidence) {
	if ev.IsZero() {
		return
	}
	if m.Proofs == nil {
		m.Proofs = make(map[string]Evidence)
	}
	m.Proofs[target] = ev.Merge(m.Proofs[target])
}

// RecordReason stores a free-text reason under key
func (m *DeliveryMeta) RecordReason(key, reason string) {
	if m.Reasons == nil {
		m.Reasons = make(map[string]string)
	}
	m.Reasons[key] = reason
}

// ReturnRequest is a customer request to send delivered goods back
type ReturnRequest struct {
	Status      ReturnStatus `json:"status"`
	Reason      string       `json:"reason"`
	RequestedAt time.Time    `json:"requestedAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	ClosedAt    *time.Time   `json:"closedAt,omitempty"`
}

// NewOrderParams carries checkout data for NewOrder
type NewOrderParams struct {
	ID         string
	CustomerID string
	Method     PaymentMethod
	Items      []LineItem
	Address    Address
	Shipping   int64
	Discount   int64
	Now        time.Time
}

// NewOrder validates checkout data and builds an order in its initial states
func NewOrder(p NewOrderParams) (*Order, error) {
	if !p.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if len(p.Items) == 0 {
		return nil, ErrItemsRequired
	}
	if p.Address.Line1 == "" || p.Address.City == "" || p.Address.Country == "" {
		return nil, ErrAddressIncomplete
	}
	if p.Shipping < 0 || p.Discount < 0 {
		return nil, ErrInvalidAmount
	}

	items := make([]LineItem, len(p.Items))
	var subtotal int64
	for i, item := range p.Items {
		if item.ProductRef == "" {
			return nil, ErrProductRefRequired
		}
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.UnitPrice < 0 {
			return nil, ErrInvalidAmount
		}
		if item.UnitPrice > 0 && item.Quantity > math.MaxInt64/item.UnitPrice {
			return nil, ErrAmountOverflow
		}
		line := item.LineTotal()
		if subtotal > math.MaxInt64-line {
			return nil, ErrAmountOverflow
		}
		items[i] = item
		subtotal += line
	}
	if subtotal > math.MaxInt64-p.Shipping {
		return nil, ErrAmountOverflow
	}
	if p.Discount > subtotal+p.Shipping {
		return nil, ErrDiscountTooHigh
	}

	status := PaymentUnpaid
	switch p.Method {
	case PaymentCard, PaymentBank:
		status = PaymentPending
	}

	order := &Order{
		ID:            p.ID,
		CustomerID:    p.CustomerID,
		OrderState:    OrderConfirmed,
		DeliveryState: DeliveryNotDispatched,
		Payment:       Payment{Method: p.Method, Status: status},
		Items:         items,
		Totals: Totals{
			Subtotal:   subtotal,
			Shipping:   p.Shipping,
			Discount:   p.Discount,
			GrandTotal: subtotal + p.Shipping - p.Discount,
		},
		ShippingAddress: p.Address,
		InventoryStatus: InventoryNone,
		CreatedAt:       p.Now,
		UpdatedAt:       p.Now,
	}
	order.LegacyStatus = PlacementStatus(p.Method)
	order.appendHistory(order.LegacyStatus, p.Now)

	return order, nil
}

// ReservesAtCreation reports whether stock is taken synchronously at checkout
func (o *Order) ReservesAtCreation() bool {
	return o.Payment.Method == PaymentCOD || o.Payment.Method == PaymentBank
}

// State returns the current value of dim
func (o *Order) State(dim Dimension) string {
	switch dim {
	case DimensionOrder:
		return string(o.OrderState)
	case DimensionDelivery:
		return string(o.DeliveryState)
	case DimensionPayment:
		return string(o.Payment.Status)
	}
	return ""
}

// SetState assigns dim without validation
func (o *Order) SetState(dim Dimension, state string) {
	switch dim {
	case DimensionOrder:
		o.OrderState = OrderState(state)
	case DimensionDelivery:
		o.DeliveryState = DeliveryState(state)
	case DimensionPayment:
		o.Payment.Status = PaymentStatus(state)
	}
}

// Reproject recomputes the display status and appends history when it changed.
// It returns true when a history entry was added.
func (o *Order) Reproject(at time.Time) bool {
	o.LegacyStatus = Project(o.OrderState, o.DeliveryState, o.Payment.Method, o.Payment.Status)
	o.UpdatedAt = at
	return o.appendHistory(o.LegacyStatus, at)
}

func (o *Order) appendHistory(status string, at time.Time) bool {
	if n := len(o.StatusHistory); n > 0 && o.StatusHistory[n-1].Status == status {
		return false
	}
	o.StatusHistory = append(o.StatusHistory, HistoryEntry{Status: status, At: at})
	return true
}

// Clone returns a deep copy so callers can mutate without aliasing
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	c.StatusHistory = append([]HistoryEntry(nil), o.StatusHistory...)
	if o.DeliveryMeta.Proofs != nil {
		c.DeliveryMeta.Proofs = make(map[string]Evidence, len(o.DeliveryMeta.Proofs))
		for k, v := range o.DeliveryMeta.Proofs {
			c.DeliveryMeta.Proofs[k] = v
		}
	}
	if o.DeliveryMeta.Reasons != nil {
		c.DeliveryMeta.Reasons = make(map[string]string, len(o.DeliveryMeta.Reasons))
		for k, v := range o.DeliveryMeta.Reasons {
			c.DeliveryMeta.Reasons[k] = v
		}
	}
	if o.ReturnRequest != nil {
		rr := *o.ReturnRequest
		if rr.ClosedAt != nil {
			closed := *rr.ClosedAt
			rr.ClosedAt = &closed
		}
		c.ReturnRequest = &rr
	}
	return &c
}
