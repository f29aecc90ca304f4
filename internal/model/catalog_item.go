package model

// ItemKind tags a catalog entry with its billing category.  The
// explicit tag replaces matching on display names: the seating kit
// and the companion chair are the two rental kinds, everything else
// on a tent's menu is MENU.  The tag is copied onto every
// reservation ledger line so billing never inspects name strings.
type ItemKind string

const (
    KindSeatingKit     ItemKind = "SEATING_KIT"     // umbrella plus two chairs; required to reserve
    KindCompanionChair ItemKind = "COMPANION_CHAIR" // extra chair, only valid alongside a kit
    KindMenu           ItemKind = "MENU"            // food and drink
)

// Rental reports whether the kind is one of the two rental kinds.
func (k ItemKind) Rental() bool {
    return k == KindSeatingKit || k == KindCompanionChair
}

// CatalogItem represents an orderable entry in the `catalog_items`
// table.  Menu items and rental items share the table and are
// distinguished by Kind.
//
// Fields:
//  ID         – primary key identifier.
//  TentID     – tent that sells the item.
//  Kind       – billing category (see ItemKind).
//  Name       – display name; not used for billing decisions.
//  PriceCents – unit price in cents.
//  Stock      – units available.
//  IsActive   – whether the item is currently offered.
type CatalogItem struct {
    ID         uint64   // catalog_items.id
    TentID     uint64   // catalog_items.tent_id
    Kind       ItemKind // catalog_items.kind
    Name       string   // catalog_items.name
    PriceCents int64    // catalog_items.price_cents
    Stock      uint32   // catalog_items.stock
    IsActive   bool     // catalog_items.is_active
}
