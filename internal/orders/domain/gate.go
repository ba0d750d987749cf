package domain

// dispatchPolicy lists the payment statuses adequate for handing goods to the
// delivery channel, per method.
var dispatchPolicy = map[PaymentMethod][]PaymentStatus{
	PaymentCOD:  {PaymentUnpaid, PaymentPaid},
	PaymentCard: {PaymentPaid, PaymentAuthorized},
	PaymentBank: {PaymentPaid},
}

// CanDispatch reports whether an order paid with method may ship at status
func CanDispatch(method PaymentMethod, status PaymentStatus) bool {
	for _, s := range dispatchPolicy[method] {
		if s == status {
			return true
		}
	}
	return false
}

// RequiredForDispatch returns the adequate payment statuses for method
func RequiredForDispatch(method PaymentMethod) []PaymentStatus {
	return append([]PaymentStatus(nil), dispatchPolicy[method]...)
}

// CheckDispatch returns a DispatchPreconditionError when payment is inadequate
func CheckDispatch(p Payment) error {
	if CanDispatch(p.Method, p.Status) {
		return nil
	}
	return &DispatchPreconditionError{
		Method:   p.Method,
		Required: RequiredForDispatch(p.Method),
		Current:  p.Status,
	}
}

// NeedsCapture reports whether dispatch must settle an authorized card payment
func NeedsCapture(p Payment) bool {
	return p.Method == PaymentCard && p.Status == PaymentAuthorized
}

// IsShippedClass reports whether state in dim means the goods have left the warehouse
func IsShippedClass(dim Dimension, state string) bool {
	switch dim {
	case DimensionDelivery:
		switch DeliveryState(state) {
		case DeliveryShipped, DeliveryInTransit, DeliveryOutForDelivery, DeliveryDelivered:
			return true
		}
	case DimensionOrder:
		switch OrderState(state) {
		case OrderShipped, OrderOutForDelivery, OrderDelivered:
			return true
		}
	}
	return false
}

// InDeliveryChannel reports whether the parcel is currently with the carrier
func InDeliveryChannel(state DeliveryState) bool {
	switch state {
	case DeliveryShipped, DeliveryInTransit, DeliveryOutForDelivery, DeliveryFailed, DeliveryRTOInitiated:
		return true
	}
	return false
}

// CheckRefundWindow rejects refund-phase payment targets while the parcel is
// with the carrier.
func CheckRefundWindow(target PaymentStatus, delivery DeliveryState) error {
	if target.IsRefundRelated() && InDeliveryChannel(delivery) {
		return &RefundWindowError{DeliveryState: delivery}
	}
	return nil
}

// Evidence requirement names reported in MissingEvidenceError
const (
	EvidencePhoto     = "photo"
	EvidenceSignature = "signature"
	EvidenceOTP       = "otp"
	EvidenceReason    = "reasonCode"
	EvidenceDetail    = "detail"
)

// CheckEvidence enforces proof-of-delivery and failure-reason requirements.
// Delivery proof recorded earlier in meta counts as supplied. Failure reasons
// do not carry over: every failed attempt and every RTO needs its own.
func CheckEvidence(target string, supplied Evidence, meta DeliveryMeta) error {
	switch target {
	// OrderDelivered has the same value
	case string(DeliveryDelivered):
		if !supplied.Merge(meta.Proofs[target]).HasDeliveryProof() {
			return &MissingEvidenceError{
				Target:   target,
				Required: []string{EvidencePhoto, EvidenceSignature, EvidenceOTP},
			}
		}
	case string(DeliveryFailed), string(DeliveryRTOInitiated):
		if !supplied.HasReason() {
			return &MissingEvidenceError{
				Target:   target,
				Required: []string{EvidenceReason, EvidenceDetail},
			}
		}
	}
	return nil
}
