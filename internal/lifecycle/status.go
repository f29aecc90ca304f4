// Package lifecycle holds the reservation state machine: statuses,
// the transition table, and the time-based guards and fee policies
// attached to each transition.  Like billing, it is pure; handlers
// evaluate these guards and hand the resulting write-set to the
// repository layer.
package lifecycle

// Reservation statuses.  CONFIRMED is the initial status; COMPLETED
// and CANCELLED are terminal.
const (
    StatusConfirmed      = "CONFIRMED"
    StatusCheckedIn      = "CHECKED_IN"
    StatusPaymentPending = "PAYMENT_PENDING"
    StatusCompleted      = "COMPLETED"
    StatusCancelled      = "CANCELLED"
)

// Cancellation reasons recorded on a cancelled reservation.  The
// `_LATE` variants carry a fee; NO_SHOW always does.
const (
    ReasonClient     = "CLIENT"
    ReasonClientLate = "CLIENT_LATE"
    ReasonOwner      = "OWNER"
    ReasonOwnerLate  = "OWNER_LATE"
    ReasonNoShow     = "NO_SHOW"
)

// Payment methods recorded at completion.  Money moves physically at
// the tent; the service only records how it was settled.
const (
    PaymentCard = "CARD"
    PaymentCash = "CASH"
    PaymentPix  = "PIX"
)

// ValidPaymentMethod reports whether s is one of the accepted
// payment method values.
func ValidPaymentMethod(s string) bool {
    switch s {
    case PaymentCard, PaymentCash, PaymentPix:
        return true
    }
    return false
}

// transitions is the full transition table.  Anything absent is
// disallowed; terminal statuses have no outgoing edges.
var transitions = map[string][]string{
    StatusConfirmed:      {StatusCheckedIn, StatusCancelled},
    StatusCheckedIn:      {StatusPaymentPending, StatusCancelled},
    StatusPaymentPending: {StatusCompleted},
}

// CanTransition reports whether moving from one status to another is
// ever allowed, before role and time guards are applied.
func CanTransition(from, to string) bool {
    for _, next := range transitions[from] {
        if next == to {
            return true
        }
    }
    return false
}

// Terminal reports whether the status admits no further transitions.
func Terminal(status string) bool {
    return status == StatusCompleted || status == StatusCancelled
}

// Active reports whether a reservation in this status blocks the
// customer from creating another one.
func Active(status string) bool {
    switch status {
    case StatusConfirmed, StatusCheckedIn, StatusPaymentPending:
        return true
    }
    return false
}

// ItemsMutable reports whether the order ledger may still change.
// The cart is frozen once payment has been requested.
func ItemsMutable(status string) bool {
    return status == StatusCheckedIn
}
