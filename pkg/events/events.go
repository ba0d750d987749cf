package events

import "time"

// Exchange names
const (
	ExchangeCatalog  = "catalog.events"
	ExchangeOrders   = "orders.events"
	ExchangePayments = "payments.events"
)

// Routing keys
const (
	RoutingKeyProductCreated    = "product.created"
	RoutingKeyOrderCreated      = "order.created"
	RoutingKeyOrderTransitioned = "order.transitioned"
	RoutingKeyOrderCancelled    = "order.cancelled"
	RoutingKeyOrderDeleted      = "order.deleted"
	RoutingKeyReservationFailed = "order.reservation_failed"
	RoutingKeyPaymentStatus     = "payment.status"
)

const schemaVersion = "1.0"

// ProductCreatedEvent is published when a product is added to the catalog
type ProductCreatedEvent struct {
	Version   string                `json:"version"`
	EventType string                `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	TraceID   string                `json:"trace_id"`
	Payload   ProductCreatedPayload `json:"payload"`
}

// ProductCreatedPayload contains product data
type ProductCreatedPayload struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(payload ProductCreatedPayload, traceID string) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		Version:   schemaVersion,
		EventType: RoutingKeyProductCreated,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Payload:   payload,
	}
}

// OrderEvent is the envelope of every order lifecycle event. EventType equals
// the routing key it was published with.
type OrderEvent struct {
	Version   string       `json:"version"`
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	TraceID   string       `json:"trace_id"`
	Payload   OrderPayload `json:"payload"`
}

// OrderPayload is a snapshot of the order after the event
type OrderPayload struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	OrderState    string        `json:"order_state"`
	DeliveryState string        `json:"delivery_state"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus string        `json:"payment_status"`
	LegacyStatus  string        `json:"legacy_status"`
	GrandTotal    int64         `json:"grand_total"`
	Version       int64         `json:"version"`
	Changes       []StateChange `json:"changes,omitempty"`
	Shortfall     []ShortLine   `json:"shortfall,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// StateChange is one accepted move on one dimension
type StateChange struct {
	Dimension string `json:"dimension"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// ShortLine names a line item that could not be reserved
type ShortLine struct {
	ProductRef string `json:"product_ref"`
	Requested  int64  `json:"requested"`
	Available  int64  `json:"available"`
}

// NewOrderEvent creates an order event of the given type
func NewOrderEvent(eventType string, payload OrderPayload, traceID string) *OrderEvent {
	return &OrderEvent{
		Version:   schemaVersion,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Payload:   payload,
	}
}

// PaymentStatusEvent is consumed from the payment gateway bridge. EventID is
// unique per gateway notification and used for deduplication.
type PaymentStatusEvent struct {
	Version   string               `json:"version"`
	EventType string               `json:"event_type"`
	EventID   string               `json:"event_id"`
	Timestamp time.Time            `json:"timestamp"`
	TraceID   string               `json:"trace_id"`
	Payload   PaymentStatusPayload `json:"payload"`
}

// PaymentStatusPayload carries the gateway's view of one order payment
type PaymentStatusPayload struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	GatewayRef string `json:"gateway_ref,omitempty"`
}
