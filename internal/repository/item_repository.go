package repository

import (
    "context"
    "database/sql"

    "github.com/praiamar/beach-tent-reservation/internal/model"
)

// ItemRepo owns the reservation_items ledger.  All mutations run
// inside the caller's transaction, after the reservation row has
// been locked, so a quantity edit and a concurrent proposal cannot
// compute the total from different snapshots of the list.
type ItemRepo struct {
    db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// ItemRecord mirrors the columns written when appending lines.
type ItemRecord struct {
    ReservationID uint64
    CatalogItemID uint64
    Kind          model.ItemKind
    Name          string
    PriceCents    int64
    Quantity      int
    Status        string
}

// InsertBulkTx appends multiple ledger lines in a single statement.
// Passing an empty slice has no effect and returns nil.
func (r *ItemRepo) InsertBulkTx(ctx context.Context, tx *sql.Tx, items []ItemRecord) error {
    if len(items) == 0 {
        return nil
    }
    query := `INSERT INTO reservation_items
              (reservation_id, catalog_item_id, kind, name, price_cents, quantity, status) VALUES `
    args := make([]interface{}, 0, len(items)*7)
    for i, it := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, it.ReservationID, it.CatalogItemID, string(it.Kind),
            it.Name, it.PriceCents, it.Quantity, it.Status)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ListForUpdateTx re-reads the full ledger with row locks.  Total
// recomputation must always start from this snapshot, taken inside
// the same transaction as the write it feeds.
func (r *ItemRepo) ListForUpdateTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]model.ReservationItem, error) {
    const q = `SELECT id, reservation_id, catalog_item_id, kind, name,
                      price_cents, quantity, status, created_at
               FROM reservation_items
               WHERE reservation_id = ?
               ORDER BY id
               FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    items := make([]model.ReservationItem, 0)
    for rows.Next() {
        var it model.ReservationItem
        var kind string
        if err := rows.Scan(&it.ID, &it.ReservationID, &it.CatalogItemID, &kind, &it.Name,
            &it.PriceCents, &it.Quantity, &it.Status, &it.CreatedAt); err != nil {
            return nil, err
        }
        it.Kind = model.ItemKind(kind)
        items = append(items, it)
    }
    return items, rows.Err()
}

// AcceptProposalsTx flips every PENDING_CONFIRMATION line on the
// reservation to PENDING and returns how many were accepted.
func (r *ItemRepo) AcceptProposalsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (int64, error) {
    const q = `UPDATE reservation_items SET status = 'PENDING'
               WHERE reservation_id = ? AND status = 'PENDING_CONFIRMATION'`
    res, err := tx.ExecContext(ctx, q, reservationID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// DeleteProposalsTx removes every PENDING_CONFIRMATION line.  The
// caller reads the lines first (ListForUpdateTx) when it needs their
// names for the rejection message.
func (r *ItemRepo) DeleteProposalsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (int64, error) {
    const q = `DELETE FROM reservation_items
               WHERE reservation_id = ? AND status = 'PENDING_CONFIRMATION'`
    res, err := tx.ExecContext(ctx, q, reservationID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// SetQuantityTx writes a new positive quantity on one line.
func (r *ItemRepo) SetQuantityTx(ctx context.Context, tx *sql.Tx, itemID uint64, quantity int) error {
    const q = `UPDATE reservation_items SET quantity = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, quantity, itemID)
    return err
}

// DeleteTx removes one ledger line (quantity reached zero).
func (r *ItemRepo) DeleteTx(ctx context.Context, tx *sql.Tx, itemID uint64) error {
    const q = `DELETE FROM reservation_items WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, itemID)
    return err
}

// DeleteByKindTx removes every line of a kind from the reservation.
// Used for the companion-chair cascade when the last seating kit is
// zeroed out.
func (r *ItemRepo) DeleteByKindTx(ctx context.Context, tx *sql.Tx, reservationID uint64, kind model.ItemKind) (int64, error) {
    const q = `DELETE FROM reservation_items WHERE reservation_id = ? AND kind = ?`
    res, err := tx.ExecContext(ctx, q, reservationID, string(kind))
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// SetDeliveryTx toggles one line between PENDING and DELIVERED.
// Lines awaiting confirmation are refused: a proposal must be
// accepted before it can be served.  The line must belong to the
// given reservation.
func (r *ItemRepo) SetDeliveryTx(ctx context.Context, tx *sql.Tx, reservationID, itemID uint64, status string) error {
    const q = `UPDATE reservation_items SET status = ?
               WHERE id = ? AND reservation_id = ? AND status <> 'PENDING_CONFIRMATION'`
    res, err := tx.ExecContext(ctx, q, status, itemID, reservationID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

