// Package queue defines message payloads exchanged over the message broker.
package queue

// Lifecycle event kinds published to the reservation.events queue.
const (
    EventCreated   = "created"
    EventCheckedIn = "checked_in"
    EventCompleted = "completed"
    EventCancelled = "cancelled"
)

// ReservationEvent is published after a lifecycle transition
// commits.  It carries enough information for downstream consumers
// to log, notify, or feed analytics without querying the primary
// database.
type ReservationEvent struct {
    Kind                 string `json:"kind"`
    ReservationID        uint64 `json:"reservation_id"`
    OrderNumber          string `json:"order_number"`
    UserID               uint64 `json:"user_id"`
    OwnerID              uint64 `json:"owner_id"`
    TentID               uint64 `json:"tent_id"`
    Status               string `json:"status"`
    TotalCents           int64  `json:"total_cents"`
    PlatformFeeCents     int64  `json:"platform_fee_cents,omitempty"`
    CancellationFeeCents int64  `json:"cancellation_fee_cents,omitempty"`
    CancellationReason   string `json:"cancellation_reason,omitempty"`
    PaymentMethod        string `json:"payment_method,omitempty"`
    OccurredAt           string `json:"occurred_at"`
}
