package lifecycle

import (
    "errors"
    "time"

    "github.com/praiamar/beach-tent-reservation/internal/billing"
    "github.com/praiamar/beach-tent-reservation/internal/model"
)

// LateWindow bounds the fee policies: cancelling inside it charges
// the cancelling side, and a no-show may only be declared once it
// has fully elapsed after the reservation instant.
const LateWindow = 15 * time.Minute

// Guard violations surfaced to handlers.  Each maps to a specific
// user-facing message; none of them reaches the database.
var (
    ErrBadClock         = errors.New("reservation time must be HH:MM")
    ErrPastInstant      = errors.New("reservation time is not in the future")
    ErrOutsideHours     = errors.New("tent is closed at the requested time")
    ErrNoSeatingKit     = errors.New("cart needs at least one seating kit")
    ErrChairWithoutKit  = errors.New("companion chairs require a seating kit")
    ErrNoShowTooEarly   = errors.New("no-show window has not elapsed")
)

// Instant combines the calendar date of createdAt with a wall-clock
// "HH:MM" to form the true reservation instant.  Comparisons against
// it are host-clock comparisons; the pair is kept in createdAt's
// location.
func Instant(createdAt time.Time, clock string) (time.Time, error) {
    // time.Parse alone would accept non-padded clocks like "9:30",
    // which later break the lexicographic hours comparison.  The
    // zero-padded shape is enforced before parsing.
    if len(clock) != 5 || clock[2] != ':' {
        return time.Time{}, ErrBadClock
    }
    t, err := time.Parse("15:04", clock)
    if err != nil {
        return time.Time{}, ErrBadClock
    }
    return time.Date(createdAt.Year(), createdAt.Month(), createdAt.Day(),
        t.Hour(), t.Minute(), 0, 0, createdAt.Location()), nil
}

// ValidateSlot checks the create-time guards on the requested slot:
// the instant must be strictly in the future and inside the tent's
// operating hours for that weekday.
func ValidateSlot(now time.Time, clock string, hours []model.OperatingHour) error {
    instant, err := Instant(now, clock)
    if err != nil {
        return err
    }
    if !instant.After(now) {
        return ErrPastInstant
    }
    for _, h := range hours {
        if h.Weekday != int(instant.Weekday()) {
            continue
        }
        if !h.IsOpen {
            return ErrOutsideHours
        }
        // zero-padded HH:MM strings order lexicographically
        if clock < h.Open || clock > h.Close {
            return ErrOutsideHours
        }
        return nil
    }
    return ErrOutsideHours
}

// ValidateCart checks the create-time cart composition: at least one
// seating kit, and no companion chair without one.  The same
// dependency is what drives the chair cascade when a kit line is
// later zeroed out of the ledger.
func ValidateCart(items []model.ReservationItem) error {
    kits, chairs := 0, 0
    for _, it := range items {
        switch it.Kind {
        case model.KindSeatingKit:
            kits += it.Quantity
        case model.KindCompanionChair:
            chairs += it.Quantity
        }
    }
    if kits == 0 {
        if chairs > 0 {
            return ErrChairWithoutKit
        }
        return ErrNoSeatingKit
    }
    return nil
}

// CustomerCancellation prices a customer-initiated cancellation.
// Cancelling with less than LateWindow left before the instant (or
// after it, while still un-checked-in) charges the fixed fee to the
// customer's outstanding balance.
func CustomerCancellation(now, instant time.Time) (feeCents int64, reason string) {
    if instant.Sub(now) < LateWindow {
        return billing.CancellationFeeCents, ReasonClientLate
    }
    return 0, ReasonClient
}

// OwnerCancellation prices an owner-initiated cancellation.  Within
// LateWindow of the instant, or once the customer is already checked
// in, the fixed fee is attributed to the owner as a platform fee.
func OwnerCancellation(now, instant time.Time, checkedIn bool) (platformFeeCents int64, reason string) {
    if checkedIn || instant.Sub(now) < LateWindow {
        return billing.CancellationFeeCents, ReasonOwnerLate
    }
    return 0, ReasonOwner
}

// NoShowAllowed reports whether the owner may declare a no-show: the
// reservation instant must lie at least LateWindow in the past.
func NoShowAllowed(now, instant time.Time) bool {
    return !now.Before(instant.Add(LateWindow))
}

// CheckinCodeMatches compares the supplied code against the stored
// one.  Exact string equality: "0042" and "42" are different codes.
func CheckinCodeMatches(supplied, stored string) bool {
    return supplied == stored
}
