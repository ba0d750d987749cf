package domain

// Dimension names one of the three independently evolving status axes of an order
type Dimension string

const (
	DimensionOrder    Dimension = "order"
	DimensionDelivery Dimension = "delivery"
	DimensionPayment  Dimension = "payment"

	// DimensionReturn labels errors about a return request; it has no state graph
	DimensionReturn Dimension = "return"
)

// OrderState is the fulfillment progress of an order
type OrderState string

const (
	OrderCreated         OrderState = "CREATED"
	OrderConfirmed       OrderState = "CONFIRMED"
	OrderPacking         OrderState = "PACKING"
	OrderShipped         OrderState = "SHIPPED"
	OrderOutForDelivery  OrderState = "OUT_FOR_DELIVERY"
	OrderDelivered       OrderState = "DELIVERED"
	OrderCancelled       OrderState = "CANCELLED"
	OrderReturnRequested OrderState = "RETURN_REQUESTED"
	OrderReturned        OrderState = "RETURNED"
)

// DeliveryState is the physical progress of the parcel
type DeliveryState string

const (
	DeliveryNotDispatched       DeliveryState = "NOT_DISPATCHED"
	DeliveryShipped             DeliveryState = "SHIPPED"
	DeliveryInTransit           DeliveryState = "IN_TRANSIT"
	DeliveryOutForDelivery      DeliveryState = "OUT_FOR_DELIVERY"
	DeliveryDelivered           DeliveryState = "DELIVERED"
	DeliveryFailed              DeliveryState = "DELIVERY_FAILED"
	DeliveryRTOInitiated        DeliveryState = "RTO_INITIATED"
	DeliveryReturnedToWarehouse DeliveryState = "RETURNED_TO_WAREHOUSE"
)

// PaymentMethod is chosen by the customer at checkout
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCard PaymentMethod = "CARD"
	PaymentBank PaymentMethod = "BANK"
)

// Valid reports whether m is a supported method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentBank:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of the order's payment
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPending       PaymentStatus = "PENDING"
	PaymentAuthorized    PaymentStatus = "AUTHORIZED"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentFailed        PaymentStatus = "FAILED"
	PaymentRefundPending PaymentStatus = "REFUND_PENDING"
	PaymentRefunded      PaymentStatus = "REFUNDED"
)

// IsRefundRelated reports whether s belongs to the refund phase of a payment
func (s PaymentStatus) IsRefundRelated() bool {
	return s == PaymentRefundPending || s == PaymentRefunded
}

// ReturnStatus is the state of a customer return request
type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnReceived  ReturnStatus = "received"
	ReturnClosed    ReturnStatus = "closed"
)

// InventoryStatus tracks the single reserve/release cycle of an order's stock
type InventoryStatus string

const (
	InventoryNone     InventoryStatus = "NONE"
	InventoryReserved InventoryStatus = "RESERVED"
	InventoryReleased InventoryStatus = "RELEASED"
)
