package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praiamar/beach-tent-reservation/internal/model"
)

func kit(qty int, priceCents int64) model.ReservationItem {
	return model.ReservationItem{Kind: model.KindSeatingKit, Name: "Kit Guarda-Sol", PriceCents: priceCents, Quantity: qty, Status: model.ItemPending}
}

func chair(qty int, priceCents int64) model.ReservationItem {
	return model.ReservationItem{Kind: model.KindCompanionChair, Name: "Cadeira Extra", PriceCents: priceCents, Quantity: qty, Status: model.ItemPending}
}

func menu(name string, qty int, priceCents int64, status string) model.ReservationItem {
	return model.ReservationItem{Kind: model.KindMenu, Name: name, PriceCents: priceCents, Quantity: qty, Status: status}
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	t.Run("one kit with menu spend past the bar waives rental", func(t *testing.T) {
		// kit price 30.00, threshold 50.00, menu spend 60.00
		items := []model.ReservationItem{
			kit(1, 3000),
			menu("Caipirinha", 4, 1500, model.ItemPending),
		}
		got := ComputeTotals(items, false, 5000, 0)
		assert.True(t, got.Waived)
		assert.Equal(t, int64(6000), got.CartCents)
		assert.Equal(t, int64(6000), got.FinalCents)
	})

	t.Run("two kits double the bar and keep rental billed", func(t *testing.T) {
		// same menu spend, but two kits raise the bar to 100.00
		items := []model.ReservationItem{
			kit(2, 3000),
			menu("Caipirinha", 4, 1500, model.ItemPending),
		}
		got := ComputeTotals(items, false, 5000, 0)
		assert.False(t, got.Waived)
		assert.Equal(t, int64(10000), got.WaiverCents)
		assert.Equal(t, int64(12000), got.CartCents) // 60.00 menu + 60.00 rental
	})

	t.Run("companion chairs never count toward the kit bar", func(t *testing.T) {
		items := []model.ReservationItem{
			kit(1, 3000),
			chair(3, 1000),
			menu("Água", 10, 500, model.ItemPending),
		}
		got := ComputeTotals(items, false, 5000, 0)
		assert.Equal(t, 1, got.KitCount)
		assert.Equal(t, int64(5000), got.WaiverCents)
		assert.True(t, got.Waived)
		assert.Equal(t, int64(5000), got.CartCents)
	})

	t.Run("nil threshold disables the waiver", func(t *testing.T) {
		items := []model.ReservationItem{
			kit(1, 3000),
			menu("Caipirinha", 4, 1500, model.ItemPending),
		}
		got := ComputeTotals(items, false, 0, 0)
		assert.False(t, got.Waived)
		assert.Equal(t, int64(9000), got.CartCents)
	})

	t.Run("no rental on ledger means nothing to waive", func(t *testing.T) {
		items := []model.ReservationItem{menu("Caipirinha", 4, 1500, model.ItemPending)}
		got := ComputeTotals(items, false, 5000, 0)
		assert.False(t, got.Waived)
		assert.Equal(t, int64(6000), got.CartCents)
	})

	t.Run("outstanding balance folds into the final total", func(t *testing.T) {
		// prior balance 3.00 on a 27.00 cart
		items := []model.ReservationItem{
			kit(1, 2000),
			menu("Porção de camarão", 1, 700, model.ItemPending),
		}
		got := ComputeTotals(items, false, 0, 300)
		assert.Equal(t, int64(2700), got.CartCents)
		assert.Equal(t, int64(3000), got.FinalCents)
	})

	t.Run("pending confirmation lines count toward nothing", func(t *testing.T) {
		base := []model.ReservationItem{
			kit(1, 3000),
			menu("Caipirinha", 2, 1500, model.ItemPending),
		}
		withProposal := append(append([]model.ReservationItem{}, base...),
			menu("Cerveja", 4, 1200, model.ItemPendingConfirmation))
		assert.Equal(t, ComputeTotals(base, false, 5000, 0), ComputeTotals(withProposal, false, 5000, 0))
	})

	t.Run("delivered-only pass bills served lines with the all-items waiver decision", func(t *testing.T) {
		items := []model.ReservationItem{
			kit(1, 3000), // pending: not yet billed
			menu("Caipirinha", 4, 1500, model.ItemDelivered),
			menu("Cerveja", 2, 1200, model.ItemPending),
		}
		got := ComputeTotals(items, true, 5000, 0)
		// eligibility sees 84.00 menu intent, so the waiver holds
		assert.True(t, got.Waived)
		assert.Equal(t, int64(6000), got.MenuCents)
		assert.Equal(t, int64(0), got.RentalCents)
		assert.Equal(t, int64(6000), got.CartCents)
	})

	t.Run("delivered-only without waiver bills delivered rental too", func(t *testing.T) {
		items := []model.ReservationItem{
			{Kind: model.KindSeatingKit, Name: "Kit", PriceCents: 3000, Quantity: 1, Status: model.ItemDelivered},
			menu("Água", 2, 500, model.ItemDelivered),
		}
		got := ComputeTotals(items, true, 5000, 0)
		assert.False(t, got.Waived) // 10.00 menu under the 50.00 bar
		assert.Equal(t, int64(4000), got.CartCents)
	})
}

func TestWaiverMonotonicity(t *testing.T) {
	t.Parallel()

	// With one kit fixed, growing menu spend flips the waiver exactly
	// once and it never flips back.
	flipped := false
	for spend := int64(0); spend <= 10000; spend += 500 {
		items := []model.ReservationItem{kit(1, 3000)}
		if spend > 0 {
			items = append(items, menu("Caipirinha", 1, spend, model.ItemPending))
		}
		got := ComputeTotals(items, false, 5000, 0)
		if got.Waived {
			flipped = true
		}
		assert.Equal(t, spend >= 5000, got.Waived, "spend %d", spend)
		if flipped {
			assert.True(t, got.Waived, "waiver must not revert at spend %d", spend)
		}
	}
}

func TestTotalInvariant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		items       []model.ReservationItem
		threshold   int64
		outstanding int64
	}{
		{"waived", []model.ReservationItem{kit(1, 3000), menu("A", 4, 1500, model.ItemPending)}, 5000, 0},
		{"not waived", []model.ReservationItem{kit(2, 3000), menu("A", 4, 1500, model.ItemPending)}, 5000, 300},
		{"menu only", []model.ReservationItem{menu("A", 1, 900, model.ItemPending)}, 5000, 700},
		{"empty", nil, 5000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.items, false, tc.threshold, tc.outstanding)
			want := got.MenuCents
			if !got.Waived {
				want += got.RentalCents
			}
			assert.Equal(t, want, got.CartCents)
			assert.Equal(t, want+tc.outstanding, got.FinalCents)
			assert.GreaterOrEqual(t, got.FinalCents, int64(0))
		})
	}
}

func TestSumCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), SumCents(nil))
	assert.Equal(t, int64(4200), SumCents([]model.ReservationItem{
		menu("Cerveja", 3, 1200, model.ItemPending),
		menu("Água", 2, 300, model.ItemPending),
	}))
}

func TestPlatformFeeCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total, want int64
	}{
		{0, 300},         // floor
		{2900, 300},      // 2.90 fee is under the floor
		{3000, 300},      // exactly at the floor
		{10000, 1000},    // plain 10%
		{123455, 12346},  // half cent rounds up
		{123450, 12345},  // large total
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PlatformFeeCents(tc.total), "total %d", tc.total)
	}
}
