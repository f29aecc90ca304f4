package model

import "time"

// Reservation records one engagement between a customer and a tent,
// as stored in the `reservations` table.  A reservation is created
// in CONFIRMED status together with its paired chat, is mutated in
// place through its lifecycle, and is never deleted: COMPLETED and
// CANCELLED are terminal.
//
// The true reservation instant is the calendar date of CreatedAt
// combined with the wall-clock ReservationTime ("HH:MM").
//
// Fields:
//  ID                 – primary key identifier.
//  UserID             – customer who reserved.
//  OwnerID            – owner of the tent.
//  TentID             – tent being reserved.
//  Status             – lifecycle status (see lifecycle.Status).
//  ReservationTime    – requested time of day "HH:MM".
//  CheckinCode        – 4-digit secret generated at creation, single use.
//  CheckinCodeUsed    – whether the code has been consumed.
//  OrderNumber        – display identifier, never used for lookups.
//  TableNumber        – assigned at check-in (null before).
//  TotalCents         – server-computed total, never client-supplied.
//  PlatformFeeCents   – owner's owed share, set at completion or on
//                       owner-caused late cancellation (null before).
//  CancellationFeeCents – fee charged to the customer on late
//                       cancellation or no-show (null otherwise).
//  CancellationReason – why the reservation was cancelled (null while live).
//  OutstandingPaidCents – prior penalty balance folded into TotalCents
//                       at creation.
//  PaymentMethod      – CARD, CASH or PIX, recorded at completion.
//  Reviewed           – whether the customer has left a review.
//  CompletedAt        – when the reservation completed (null before).
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Reservation struct {
    ID                   uint64     // reservations.id
    UserID               uint64     // reservations.user_id
    OwnerID              uint64     // reservations.owner_id
    TentID               uint64     // reservations.tent_id
    Status               string     // reservations.status
    ReservationTime      string     // reservations.reservation_time
    CheckinCode          string     // reservations.checkin_code
    CheckinCodeUsed      bool       // reservations.checkin_code_used
    OrderNumber          string     // reservations.order_number
    TableNumber          *string    // reservations.table_number (nullable)
    TotalCents           int64      // reservations.total_cents
    PlatformFeeCents     *int64     // reservations.platform_fee_cents (nullable)
    CancellationFeeCents *int64     // reservations.cancellation_fee_cents (nullable)
    CancellationReason   *string    // reservations.cancellation_reason (nullable)
    OutstandingPaidCents int64      // reservations.outstanding_paid_cents
    PaymentMethod        *string    // reservations.payment_method (nullable)
    Reviewed             bool       // reservations.reviewed
    CompletedAt          *time.Time // reservations.completed_at (nullable)
    CreatedAt            time.Time  // reservations.created_at
    UpdatedAt            time.Time  // reservations.updated_at
}

// ReservationItem is one line in a reservation's order ledger,
// stored in the `reservation_items` table.  The kind and unit price
// are copied from the catalog at append time so later catalog edits
// do not rewrite history.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  CatalogItemID – catalog entry the line was built from.
//  Kind          – billing category copied from the catalog.
//  Name          – display name copied from the catalog.
//  PriceCents    – unit price in cents at append time.
//  Quantity      – units ordered, always ≥ 1 while the line exists.
//  Status        – PENDING, PENDING_CONFIRMATION or DELIVERED.
//  CreatedAt     – when the line was appended.
type ReservationItem struct {
    ID            uint64    // reservation_items.id
    ReservationID uint64    // reservation_items.reservation_id
    CatalogItemID uint64    // reservation_items.catalog_item_id
    Kind          ItemKind  // reservation_items.kind
    Name          string    // reservation_items.name
    PriceCents    int64     // reservation_items.price_cents
    Quantity      int       // reservation_items.quantity
    Status        string    // reservation_items.status
    CreatedAt     time.Time // reservation_items.created_at
}

// Ledger line statuses for ReservationItem.Status.  A line enters
// the bill as PENDING (or directly DELIVERED once served); a line
// proposed after check-in waits in PENDING_CONFIRMATION until the
// owner accepts or rejects it and counts toward nothing until then.
const (
    ItemPending             = "PENDING"
    ItemPendingConfirmation = "PENDING_CONFIRMATION"
    ItemDelivered           = "DELIVERED"
)
