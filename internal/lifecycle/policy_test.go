package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praiamar/beach-tent-reservation/internal/model"
)

func TestInstant(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got, err := Instant(created, "15:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC), got)

	_, err = Instant(created, "25:00")
	assert.ErrorIs(t, err, ErrBadClock)
	_, err = Instant(created, "half past noon")
	assert.ErrorIs(t, err, ErrBadClock)

	// non-padded clocks parse but would defeat the lexicographic
	// hours comparison, so they are rejected as malformed
	for _, clock := range []string{"9:30", "09:5", "9:3", " 9:30"} {
		_, err = Instant(created, clock)
		assert.ErrorIs(t, err, ErrBadClock, "clock %q", clock)
	}
}

func TestValidateSlot(t *testing.T) {
	t.Parallel()

	// 2025-03-14 is a Friday (weekday 5)
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	hours := []model.OperatingHour{
		{Weekday: 5, IsOpen: true, Open: "08:00", Close: "18:00"},
		{Weekday: 6, IsOpen: false, Open: "08:00", Close: "18:00"},
	}

	t.Run("inside hours and in the future", func(t *testing.T) {
		assert.NoError(t, ValidateSlot(now, "10:00", hours))
	})
	t.Run("before opening", func(t *testing.T) {
		early := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateSlot(early, "07:30", hours), ErrOutsideHours)
	})
	t.Run("after closing", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSlot(now, "18:01", hours), ErrOutsideHours)
	})
	t.Run("not strictly in the future", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSlot(now, "09:00", hours), ErrPastInstant)
		assert.ErrorIs(t, ValidateSlot(now, "08:30", hours), ErrPastInstant)
	})
	t.Run("closed weekday", func(t *testing.T) {
		sat := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateSlot(sat, "10:00", hours), ErrOutsideHours)
	})
	t.Run("non-padded clock is malformed, not out of hours", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSlot(now, "9:30", hours), ErrBadClock)
	})
	t.Run("no schedule row at all", func(t *testing.T) {
		sun := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateSlot(sun, "10:00", hours), ErrOutsideHours)
	})
}

func TestValidateCart(t *testing.T) {
	t.Parallel()

	kit := model.ReservationItem{Kind: model.KindSeatingKit, Quantity: 1}
	chair := model.ReservationItem{Kind: model.KindCompanionChair, Quantity: 2}
	drink := model.ReservationItem{Kind: model.KindMenu, Quantity: 3}

	assert.NoError(t, ValidateCart([]model.ReservationItem{kit}))
	assert.NoError(t, ValidateCart([]model.ReservationItem{kit, chair, drink}))
	assert.ErrorIs(t, ValidateCart([]model.ReservationItem{drink}), ErrNoSeatingKit)
	assert.ErrorIs(t, ValidateCart(nil), ErrNoSeatingKit)
	assert.ErrorIs(t, ValidateCart([]model.ReservationItem{chair, drink}), ErrChairWithoutKit)
}

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	all := []string{StatusConfirmed, StatusCheckedIn, StatusPaymentPending, StatusCompleted, StatusCancelled}
	allowed := map[[2]string]bool{
		{StatusConfirmed, StatusCheckedIn}:      true,
		{StatusConfirmed, StatusCancelled}:      true,
		{StatusCheckedIn, StatusPaymentPending}: true,
		{StatusCheckedIn, StatusCancelled}:      true,
		{StatusPaymentPending, StatusCompleted}: true,
	}
	// every pair not in the table is rejected, including everything
	// out of a terminal status
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]string{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, Terminal(StatusCompleted))
	assert.True(t, Terminal(StatusCancelled))
	assert.False(t, Terminal(StatusConfirmed))

	assert.True(t, Active(StatusConfirmed))
	assert.True(t, Active(StatusCheckedIn))
	assert.True(t, Active(StatusPaymentPending))
	assert.False(t, Active(StatusCompleted))
	assert.False(t, Active(StatusCancelled))

	assert.True(t, ItemsMutable(StatusCheckedIn))
	assert.False(t, ItemsMutable(StatusConfirmed))
	assert.False(t, ItemsMutable(StatusPaymentPending))
}

func TestCustomerCancellation(t *testing.T) {
	t.Parallel()

	instant := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	t.Run("ten minutes before is late", func(t *testing.T) {
		fee, reason := CustomerCancellation(instant.Add(-10*time.Minute), instant)
		assert.Equal(t, int64(300), fee)
		assert.Equal(t, ReasonClientLate, reason)
	})
	t.Run("exactly fifteen minutes before is on time", func(t *testing.T) {
		fee, reason := CustomerCancellation(instant.Add(-LateWindow), instant)
		assert.Zero(t, fee)
		assert.Equal(t, ReasonClient, reason)
	})
	t.Run("an hour before is on time", func(t *testing.T) {
		fee, reason := CustomerCancellation(instant.Add(-time.Hour), instant)
		assert.Zero(t, fee)
		assert.Equal(t, ReasonClient, reason)
	})
	t.Run("after the instant is late", func(t *testing.T) {
		fee, reason := CustomerCancellation(instant.Add(5*time.Minute), instant)
		assert.Equal(t, int64(300), fee)
		assert.Equal(t, ReasonClientLate, reason)
	})
}

func TestOwnerCancellation(t *testing.T) {
	t.Parallel()

	instant := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	t.Run("well before the instant carries no fee", func(t *testing.T) {
		fee, reason := OwnerCancellation(instant.Add(-time.Hour), instant, false)
		assert.Zero(t, fee)
		assert.Equal(t, ReasonOwner, reason)
	})
	t.Run("inside the window charges the owner", func(t *testing.T) {
		fee, reason := OwnerCancellation(instant.Add(-10*time.Minute), instant, false)
		assert.Equal(t, int64(300), fee)
		assert.Equal(t, ReasonOwnerLate, reason)
	})
	t.Run("after check-in always charges the owner", func(t *testing.T) {
		fee, reason := OwnerCancellation(instant.Add(-2*time.Hour), instant, true)
		assert.Equal(t, int64(300), fee)
		assert.Equal(t, ReasonOwnerLate, reason)
	})
}

func TestNoShowAllowed(t *testing.T) {
	t.Parallel()

	instant := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	assert.False(t, NoShowAllowed(instant, instant))
	assert.False(t, NoShowAllowed(instant.Add(14*time.Minute), instant))
	assert.True(t, NoShowAllowed(instant.Add(LateWindow), instant))
	assert.True(t, NoShowAllowed(instant.Add(time.Hour), instant))
}

func TestCheckinCodeMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, CheckinCodeMatches("0042", "0042"))
	assert.False(t, CheckinCodeMatches("42", "0042")) // not numeric equality
	assert.False(t, CheckinCodeMatches("", "0042"))
}

func TestValidPaymentMethod(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidPaymentMethod(PaymentCard))
	assert.True(t, ValidPaymentMethod(PaymentCash))
	assert.True(t, ValidPaymentMethod(PaymentPix))
	assert.False(t, ValidPaymentMethod("BOLETO"))
	assert.False(t, ValidPaymentMethod(""))
}
