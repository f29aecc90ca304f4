package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/praiamar/beach-tent-reservation/internal/model"
)

// TentRepo provides read access to tents, their operating hours and
// their catalogs, plus the aggregate-rating update used by the
// review transaction.  Tents and catalog entries are owned by the
// owner-facing management surface; the reservation engine only
// reads them.
type TentRepo struct {
    db *sql.DB
}

// NewTentRepo returns a new TentRepo bound to the given database.
func NewTentRepo(db *sql.DB) *TentRepo { return &TentRepo{db: db} }

// DB exposes the underlying handle so handlers can begin
// transactions spanning multiple repositories.
func (r *TentRepo) DB() *sql.DB { return r.db }

// GetByID returns a single tent.  sql.ErrNoRows is passed through
// when the tent does not exist.
func (r *TentRepo) GetByID(ctx context.Context, id uint64) (*model.Tent, error) {
    const q = `SELECT id, owner_id, name, description, min_order_waiver_cents,
                      rating_count, rating_sum, created_at
               FROM tents WHERE id = ?`
    var t model.Tent
    var waiver sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &t.ID, &t.OwnerID, &t.Name, &t.Description, &waiver,
        &t.RatingCount, &t.RatingSum, &t.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if waiver.Valid {
        v := waiver.Int64
        t.MinOrderWaiverCents = &v
    }
    return &t, nil
}

// List returns all tents ordered by name, for the public browse
// endpoint.
func (r *TentRepo) List(ctx context.Context) ([]model.Tent, error) {
    const q = `SELECT id, owner_id, name, description, min_order_waiver_cents,
                      rating_count, rating_sum, created_at
               FROM tents ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tents := make([]model.Tent, 0)
    for rows.Next() {
        var t model.Tent
        var waiver sql.NullInt64
        if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &waiver,
            &t.RatingCount, &t.RatingSum, &t.CreatedAt); err != nil {
            return nil, err
        }
        if waiver.Valid {
            v := waiver.Int64
            t.MinOrderWaiverCents = &v
        }
        tents = append(tents, t)
    }
    return tents, rows.Err()
}

// Hours returns the weekly operating schedule of a tent.  Missing
// weekdays mean the tent is closed that day.
func (r *TentRepo) Hours(ctx context.Context, tentID uint64) ([]model.OperatingHour, error) {
    const q = `SELECT tent_id, weekday, is_open, open_time, close_time
               FROM tent_hours WHERE tent_id = ? ORDER BY weekday`
    rows, err := r.db.QueryContext(ctx, q, tentID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    hours := make([]model.OperatingHour, 0, 7)
    for rows.Next() {
        var h model.OperatingHour
        if err := rows.Scan(&h.TentID, &h.Weekday, &h.IsOpen, &h.Open, &h.Close); err != nil {
            return nil, err
        }
        hours = append(hours, h)
    }
    return hours, rows.Err()
}

// Catalog returns a tent's orderable items.  When activeOnly is set,
// delisted items are filtered out (the public browse view); owner
// views pass false to see everything.
func (r *TentRepo) Catalog(ctx context.Context, tentID uint64, activeOnly bool) ([]model.CatalogItem, error) {
    q := `SELECT id, tent_id, kind, name, price_cents, stock, is_active
          FROM catalog_items WHERE tent_id = ?`
    if activeOnly {
        q += ` AND is_active = 1`
    }
    q += ` ORDER BY kind, name`
    rows, err := r.db.QueryContext(ctx, q, tentID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    items := make([]model.CatalogItem, 0)
    for rows.Next() {
        var it model.CatalogItem
        var kind string
        if err := rows.Scan(&it.ID, &it.TentID, &kind, &it.Name, &it.PriceCents, &it.Stock, &it.IsActive); err != nil {
            return nil, err
        }
        it.Kind = model.ItemKind(kind)
        items = append(items, it)
    }
    return items, rows.Err()
}

// CatalogByIDsTx loads specific catalog entries inside a
// transaction, keyed by ID.  Requested IDs that do not belong to the
// tent or are inactive are simply absent from the result; callers
// treat that as an invalid cart line.
func (r *TentRepo) CatalogByIDsTx(ctx context.Context, tx *sql.Tx, tentID uint64, ids []uint64) (map[uint64]model.CatalogItem, error) {
    out := make(map[uint64]model.CatalogItem, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids)+1)
    args = append(args, tentID)
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    q := `SELECT id, tent_id, kind, name, price_cents, stock, is_active
          FROM catalog_items
          WHERE tent_id = ? AND is_active = 1 AND id IN (` + strings.Join(placeholders, ",") + `)`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var it model.CatalogItem
        var kind string
        if err := rows.Scan(&it.ID, &it.TentID, &kind, &it.Name, &it.PriceCents, &it.Stock, &it.IsActive); err != nil {
            return nil, err
        }
        it.Kind = model.ItemKind(kind)
        out[it.ID] = it
    }
    return out, rows.Err()
}

// AggregateForUpdateTx reads a tent's rating aggregate with a row
// lock.  The review transaction must read count and sum inside the
// same transaction that writes the new review, because the new
// average depends on both; a blind update would race under
// concurrent reviews.
func (r *TentRepo) AggregateForUpdateTx(ctx context.Context, tx *sql.Tx, tentID uint64) (count uint32, sum uint64, err error) {
    const q = `SELECT rating_count, rating_sum FROM tents WHERE id = ? FOR UPDATE`
    err = tx.QueryRowContext(ctx, q, tentID).Scan(&count, &sum)
    return count, sum, err
}

// UpdateAggregateTx writes a tent's rating aggregate inside the
// review transaction.
func (r *TentRepo) UpdateAggregateTx(ctx context.Context, tx *sql.Tx, tentID uint64, count uint32, sum uint64) error {
    const q = `UPDATE tents SET rating_count = ?, rating_sum = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, count, sum, tentID)
    return err
}
