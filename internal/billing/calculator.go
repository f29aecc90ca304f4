// Package billing computes reservation totals and fees.  Everything
// here is a pure function over ledger lines: no I/O, no clock, no
// state.  Callers pass the full item list and the tent's waiver
// configuration; persistence belongs to the repository layer.
package billing

import "github.com/praiamar/beach-tent-reservation/internal/model"

// Fixed fees, in cents.
const (
    // CancellationFeeCents is charged to the customer for late
    // cancellations and no-shows.
    CancellationFeeCents int64 = 300
    // PlatformFeeFloorCents is the minimum platform fee collected
    // from the owner at completion.
    PlatformFeeFloorCents int64 = 300
)

// Totals is the result of one ComputeTotals call.
//
// MenuCents and RentalCents are the billed subtotals (restricted to
// delivered lines when deliveredOnly was set).  Waived, KitCount and
// WaiverCents always come from the eligibility pass over every
// counted line, regardless of the billing restriction.
type Totals struct {
    MenuCents   int64 // billed menu subtotal
    RentalCents int64 // billed rental subtotal
    KitCount    int   // seating kits across all counted lines
    WaiverCents int64 // menu spend required to waive rental charges
    Waived      bool  // rental charges waived
    CartCents   int64 // menu, plus rental unless waived
    FinalCents  int64 // cart plus folded-in outstanding balance
}

// ComputeTotals runs the dual-pass total computation for a
// reservation's ledger.
//
// Lines in PENDING_CONFIRMATION never count: they are proposals the
// owner has not accepted and are excluded from both passes.
//
// Eligibility pass (always over every counted line): the waiver bar
// is waiverThresholdCents multiplied by the number of seating kits,
// so each kit rented raises the spend bar linearly.  Rental charges
// are waived when the bar is positive, something rental is actually
// on the ledger, and the menu subtotal meets the bar.  Intent to
// spend governs eligibility, which is why this pass ignores
// delivery status.
//
// Billing pass: the monetary subtotals, restricted to DELIVERED
// lines when deliveredOnly is true (the final bill charges only what
// was actually served).  The waiver decision from the eligibility
// pass is applied to these subtotals, never recomputed from them.
func ComputeTotals(items []model.ReservationItem, deliveredOnly bool, waiverThresholdCents, outstandingCents int64) Totals {
    var (
        eligMenu, eligRental int64
        kits                 int
    )
    for _, it := range items {
        if it.Status == model.ItemPendingConfirmation {
            continue
        }
        line := it.PriceCents * int64(it.Quantity)
        if it.Kind.Rental() {
            eligRental += line
            if it.Kind == model.KindSeatingKit {
                kits += it.Quantity
            }
        } else {
            eligMenu += line
        }
    }

    waiver := waiverThresholdCents * int64(kits)
    waived := waiver > 0 && eligRental > 0 && eligMenu >= waiver

    menu, rental := eligMenu, eligRental
    if deliveredOnly {
        menu, rental = 0, 0
        for _, it := range items {
            if it.Status != model.ItemDelivered {
                continue
            }
            line := it.PriceCents * int64(it.Quantity)
            if it.Kind.Rental() {
                rental += line
            } else {
                menu += line
            }
        }
    }

    cart := menu
    if !waived {
        cart += rental
    }
    return Totals{
        MenuCents:   menu,
        RentalCents: rental,
        KitCount:    kits,
        WaiverCents: waiver,
        Waived:      waived,
        CartCents:   cart,
        FinalCents:  cart + outstandingCents,
    }
}

// SumCents returns price × quantity summed over the given lines.
// Used for the customer's direct-add flow, which increments the
// stored total by the new lines alone instead of recomputing the
// whole ledger.
func SumCents(items []model.ReservationItem) int64 {
    var total int64
    for _, it := range items {
        total += it.PriceCents * int64(it.Quantity)
    }
    return total
}

// PlatformFeeCents computes the owner's platform share from the
// final reservation total: 10% rounded half up, floored at
// PlatformFeeFloorCents.
func PlatformFeeCents(totalCents int64) int64 {
    fee := (totalCents + 5) / 10
    if fee < PlatformFeeFloorCents {
        return PlatformFeeFloorCents
    }
    return fee
}
