// Package notification translates reservation transitions into the
// system chat messages the customer and owner see.  The bridge only
// decides what to say and when; the chat subsystem owns persistence
// and rendering.  All writes go through ChatRepo inside the caller's
// transaction, so a transition and its notification commit together
// or not at all.
package notification

import (
    "context"
    "database/sql"
    "fmt"
    "strings"

    "github.com/praiamar/beach-tent-reservation/internal/model"
    "github.com/praiamar/beach-tent-reservation/internal/repository"
)

// System message bodies, one per notifiable transition.
const (
    msgCreated     = "Reservation confirmed. You can chat with the tent here."
    msgAccepted    = "New items were accepted and added to your order."
    msgOwnerEdited = "Your order was modified by the vendor."
)

// Bridge appends system messages to reservation chats.
type Bridge struct {
    Chats *repository.ChatRepo
}

// NewBridge constructs a Bridge over the given chat repository.
func NewBridge(chats *repository.ChatRepo) *Bridge {
    if chats == nil {
        panic("nil chat repository passed to NewBridge")
    }
    return &Bridge{Chats: chats}
}

// ReservationCreated posts the opening system message to a freshly
// created chat.
func (b *Bridge) ReservationCreated(ctx context.Context, tx *sql.Tx, chatID uint64) error {
    return b.Chats.AppendSystemMessageTx(ctx, tx, chatID, msgCreated)
}

// ItemsAccepted notifies the customer that their proposed items now
// count toward the order.
func (b *Bridge) ItemsAccepted(ctx context.Context, tx *sql.Tx, chatID uint64) error {
    return b.Chats.AppendSystemMessageTx(ctx, tx, chatID, msgAccepted)
}

// ItemsRejected notifies the customer which proposed items the owner
// turned down.
func (b *Bridge) ItemsRejected(ctx context.Context, tx *sql.Tx, chatID uint64, rejected []model.ReservationItem) error {
    return b.Chats.AppendSystemMessageTx(ctx, tx, chatID, RejectionMessage(rejected))
}

// OrderEdited notifies the customer that the owner changed the
// ledger directly (quantity adjustments, removals).
func (b *Bridge) OrderEdited(ctx context.Context, tx *sql.Tx, chatID uint64) error {
    return b.Chats.AppendSystemMessageTx(ctx, tx, chatID, msgOwnerEdited)
}

// ReservationCancelled archives the reservation's chat.  No message
// is posted for cancellations; the archive is the signal.
func (b *Bridge) ReservationCancelled(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
    return b.Chats.ArchiveByReservationTx(ctx, tx, reservationID)
}

// RejectionMessage names every rejected line with its quantity, e.g.
// "Items rejected: 2x Cerveja, 1x Agua de coco".
func RejectionMessage(rejected []model.ReservationItem) string {
    names := make([]string, 0, len(rejected))
    for _, it := range rejected {
        names = append(names, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
    }
    return "Items rejected: " + strings.Join(names, ", ")
}
