package domain

var orderTransitions = map[OrderState][]OrderState{
	OrderCreated:         {OrderConfirmed, OrderCancelled},
	OrderConfirmed:       {OrderPacking, OrderShipped, OrderCancelled},
	OrderPacking:         {OrderShipped, OrderCancelled},
	OrderShipped:         {OrderOutForDelivery, OrderDelivered, OrderReturned},
	OrderOutForDelivery:  {OrderDelivered, OrderReturned},
	OrderDelivered:       {OrderReturnRequested},
	OrderReturnRequested: {OrderReturned},
	OrderCancelled:       {},
	OrderReturned:        {},
}

var deliveryTransitions = map[DeliveryState][]DeliveryState{
	DeliveryNotDispatched:  {DeliveryShipped},
	DeliveryShipped:        {DeliveryInTransit, DeliveryOutForDelivery, DeliveryFailed, DeliveryRTOInitiated},
	DeliveryInTransit:      {DeliveryOutForDelivery, DeliveryFailed, DeliveryRTOInitiated},
	DeliveryOutForDelivery: {DeliveryDelivered, DeliveryFailed},
	// the only backward edge: a failed attempt may be retried
	DeliveryFailed:              {DeliveryOutForDelivery, DeliveryRTOInitiated},
	DeliveryRTOInitiated:        {DeliveryReturnedToWarehouse},
	DeliveryDelivered:           {},
	DeliveryReturnedToWarehouse: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentUnpaid:        {PaymentPending, PaymentPaid, PaymentFailed},
	PaymentPending:       {PaymentAuthorized, PaymentPaid, PaymentFailed},
	PaymentAuthorized:    {PaymentPaid, PaymentFailed},
	PaymentPaid:          {PaymentRefundPending, PaymentRefunded},
	PaymentRefundPending: {PaymentRefunded, PaymentFailed},
	PaymentFailed:        {},
	PaymentRefunded:      {},
}

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnRequested: {ReturnApproved, ReturnRejected},
	ReturnApproved:  {ReturnReceived, ReturnClosed},
	ReturnRejected:  {ReturnClosed},
	ReturnReceived:  {ReturnClosed},
	ReturnClosed:    {},
}

// graphs holds every dimension as plain strings so lookups need no type switch
var graphs = map[Dimension]map[string][]string{
	DimensionOrder:    flatten(orderTransitions),
	DimensionDelivery: flatten(deliveryTransitions),
	DimensionPayment:  flatten(paymentTransitions),
}

func flatten[S ~string](in map[S][]S) map[string][]string {
	out := make(map[string][]string, len(in))
	for from, targets := range in {
		edges := make([]string, len(targets))
		for i, to := range targets {
			edges[i] = string(to)
		}
		out[string(from)] = edges
	}
	return out
}

// Transitions returns a copy of the adjacency table of dim, or nil for an
// unknown dimension.
func Transitions(dim Dimension) map[string][]string {
	g, ok := graphs[dim]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(g))
	for from, targets := range g {
		out[from] = append([]string(nil), targets...)
	}
	return out
}

// Dimensions lists the state dimensions of an order
func Dimensions() []Dimension {
	return []Dimension{DimensionOrder, DimensionDelivery, DimensionPayment}
}

// IsKnownState reports whether state belongs to dim's enumeration
func IsKnownState(dim Dimension, state string) bool {
	_, ok := graphs[dim][state]
	return ok
}

// IsTerminal reports whether state has no outgoing edges in dim
func IsTerminal(dim Dimension, state string) bool {
	targets, ok := graphs[dim][state]
	return ok && len(targets) == 0
}

// ReturnTransitions returns a copy of the return request graph
func ReturnTransitions() map[ReturnStatus][]ReturnStatus {
	out := make(map[ReturnStatus][]ReturnStatus, len(returnTransitions))
	for from, targets := range returnTransitions {
		out[from] = append([]ReturnStatus(nil), targets...)
	}
	return out
}
