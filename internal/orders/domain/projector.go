package domain

// Placement labels shown before the first transition
const (
	StatusPendingPayment = "pending_payment"
	StatusPlaced         = "placed"
)

// Project derives the single display status from the three state dimensions.
// Rules are evaluated in order and the first match wins. It never fails:
// contradictory inputs still produce a best-effort label.
func Project(order OrderState, delivery DeliveryState, method PaymentMethod, payment PaymentStatus) string {
	switch order {
	case OrderCancelled:
		return string(OrderCancelled)
	case OrderReturned:
		return string(OrderReturned)
	}

	if delivery == DeliveryNotDispatched || delivery == "" {
		if (method == PaymentCard || method == PaymentBank) && payment == PaymentPaid {
			return StatusPlaced
		}
		return string(order)
	}

	switch delivery {
	case DeliveryShipped, DeliveryInTransit:
		return string(DeliveryShipped)
	default:
		return string(delivery)
	}
}

// PlacementStatus is the label an order carries right after checkout
func PlacementStatus(method PaymentMethod) string {
	if method == PaymentCard {
		return StatusPendingPayment
	}
	return StatusPlaced
}

// Inconsistent reports order and delivery states that describe different
// phases, e.g. a confirmed order whose parcel is already delivered.
func Inconsistent(order OrderState, delivery DeliveryState) bool {
	dispatched := delivery != DeliveryNotDispatched
	switch order {
	case OrderCreated, OrderConfirmed, OrderPacking, OrderCancelled:
		return dispatched
	case OrderShipped, OrderOutForDelivery, OrderDelivered, OrderReturnRequested:
		return !dispatched
	}
	return false
}
