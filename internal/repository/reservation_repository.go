package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/praiamar/beach-tent-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations, their
// uniqueness guard and their status transitions.  Every mutation
// takes a transaction: a reservation never changes alone. Its chat,
// its items, the customer's balance and the active-reservation row
// move with it, and the caller commits or rolls back the whole set.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can begin
// transactions spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// ReservationRecord mirrors the columns written at creation.  The
// repository populates ID, CreatedAt and UpdatedAt after the insert.
// Business logic should read back through model.Reservation.
type ReservationRecord struct {
    ID                   uint64
    UserID               uint64
    OwnerID              uint64
    TentID               uint64
    Status               string
    ReservationTime      string
    CheckinCode          string
    OrderNumber          string
    TotalCents           int64
    OutstandingPaidCents int64
    CreatedAt            time.Time
    UpdatedAt            time.Time
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.  The caller must commit or rollback the
// transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *ReservationRecord) error {
    const q = `INSERT INTO reservations
               (user_id, owner_id, tent_id, status, reservation_time, checkin_code,
                order_number, total_cents, outstanding_paid_cents)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        res.UserID, res.OwnerID, res.TentID, res.Status, res.ReservationTime,
        res.CheckinCode, res.OrderNumber, res.TotalCents, res.OutstandingPaidCents)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the row to populate the DB-generated timestamps
    const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// InsertActiveTx inserts the uniqueness row that blocks a second
// live reservation for the same customer.  A duplicate-key failure
// is translated to ErrActiveReservation.
func (r *ReservationRepo) InsertActiveTx(ctx context.Context, tx *sql.Tx, userID, reservationID uint64) error {
    const q = `INSERT INTO active_reservations (user_id, reservation_id) VALUES (?, ?)`
    if _, err := tx.ExecContext(ctx, q, userID, reservationID); err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrActiveReservation
        }
        return err
    }
    return nil
}

// DeleteActiveTx removes the uniqueness row when a reservation
// reaches a terminal status.
func (r *ReservationRepo) DeleteActiveTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
    const q = `DELETE FROM active_reservations WHERE user_id = ?`
    _, err := tx.ExecContext(ctx, q, userID)
    return err
}

// GetForUpdateTx loads a reservation with a row lock.  Every
// transition and ledger edit starts here so concurrent actors
// serialize on the reservation row; the item list is then re-read in
// the same transaction before any total is recomputed.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    const q = `SELECT id, user_id, owner_id, tent_id, status, reservation_time,
                      checkin_code, checkin_code_used, order_number, table_number,
                      total_cents, platform_fee_cents, cancellation_fee_cents,
                      cancellation_reason, outstanding_paid_cents, payment_method,
                      reviewed, completed_at, created_at, updated_at
               FROM reservations WHERE id = ? FOR UPDATE`
    return scanReservation(tx.QueryRowContext(ctx, q, id))
}

// rowScanner lets scanReservation work for both QueryRow and rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
    var (
        res        model.Reservation
        tableNum   sql.NullString
        platFee    sql.NullInt64
        cancelFee  sql.NullInt64
        cancelWhy  sql.NullString
        payMethod  sql.NullString
        completed  sql.NullTime
    )
    err := row.Scan(
        &res.ID, &res.UserID, &res.OwnerID, &res.TentID, &res.Status, &res.ReservationTime,
        &res.CheckinCode, &res.CheckinCodeUsed, &res.OrderNumber, &tableNum,
        &res.TotalCents, &platFee, &cancelFee,
        &cancelWhy, &res.OutstandingPaidCents, &payMethod,
        &res.Reviewed, &completed, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if tableNum.Valid {
        v := tableNum.String
        res.TableNumber = &v
    }
    if platFee.Valid {
        v := platFee.Int64
        res.PlatformFeeCents = &v
    }
    if cancelFee.Valid {
        v := cancelFee.Int64
        res.CancellationFeeCents = &v
    }
    if cancelWhy.Valid {
        v := cancelWhy.String
        res.CancellationReason = &v
    }
    if payMethod.Valid {
        v := payMethod.String
        res.PaymentMethod = &v
    }
    if completed.Valid {
        v := completed.Time
        res.CompletedAt = &v
    }
    return &res, nil
}

// CheckinTx moves a reservation to CHECKED_IN, assigns the table and
// consumes the check-in code.
func (r *ReservationRepo) CheckinTx(ctx context.Context, tx *sql.Tx, id uint64, tableNumber string) error {
    const q = `UPDATE reservations
               SET status = 'CHECKED_IN', table_number = ?, checkin_code_used = 1
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, tableNumber, id)
    return err
}

// UpdateStatusTx writes a bare status change (used for the
// CHECKED_IN → PAYMENT_PENDING freeze).
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    const q = `UPDATE reservations SET status = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, status, id)
    return err
}

// UpdateTotalTx writes a recomputed total for a reservation whose
// ledger changed.
func (r *ReservationRepo) UpdateTotalTx(ctx context.Context, tx *sql.Tx, id uint64, totalCents int64) error {
    const q = `UPDATE reservations SET total_cents = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, totalCents, id)
    return err
}

// CompleteTx finalizes a reservation: terminal status, recorded
// payment method, final total, the platform fee computed from it,
// and the completion timestamp.
func (r *ReservationRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64, paymentMethod string, totalCents, platformFeeCents int64, completedAt time.Time) error {
    const q = `UPDATE reservations
               SET status = 'COMPLETED', payment_method = ?, total_cents = ?,
                   platform_fee_cents = ?, completed_at = ?
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, paymentMethod, totalCents, platformFeeCents, completedAt, id)
    return err
}

// CancelTx moves a reservation to CANCELLED with its reason.  The
// customer-side fee lands in cancellation_fee_cents, an owner-side
// fee in platform_fee_cents; either may be zero and is then left
// NULL.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, reason string, cancellationFeeCents, platformFeeCents int64) error {
    const q = `UPDATE reservations
               SET status = 'CANCELLED', cancellation_reason = ?,
                   cancellation_fee_cents = NULLIF(?, 0),
                   platform_fee_cents = NULLIF(?, 0)
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, reason, cancellationFeeCents, platformFeeCents, id)
    return err
}

// MarkReviewedTx flags a completed reservation as reviewed inside
// the review transaction.
func (r *ReservationRepo) MarkReviewedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE reservations SET reviewed = 1 WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}

// ReservationDetail is a reservation plus its tent name and ledger
// lines, as returned to customers and owners.
type ReservationDetail struct {
    ID                   uint64       `json:"id"`
    UserID               uint64       `json:"user_id,omitempty"`
    TentID               uint64       `json:"tent_id"`
    TentName             string       `json:"tent_name"`
    Status               string       `json:"status"`
    ReservationTime      string       `json:"reservation_time"`
    OrderNumber          string       `json:"order_number"`
    TableNumber          *string      `json:"table_number,omitempty"`
    TotalCents           int64        `json:"total_cents"`
    PlatformFeeCents     *int64       `json:"platform_fee_cents,omitempty"`
    CancellationFeeCents *int64       `json:"cancellation_fee_cents,omitempty"`
    CancellationReason   *string      `json:"cancellation_reason,omitempty"`
    OutstandingPaidCents int64        `json:"outstanding_paid_cents"`
    PaymentMethod        *string      `json:"payment_method,omitempty"`
    Reviewed             bool         `json:"reviewed"`
    CreatedAt            time.Time    `json:"created_at"`
    Items                []DetailItem `json:"items"`
}

// DetailItem is one ledger line in a ReservationDetail.
type DetailItem struct {
    ID         uint64 `json:"id"`
    Kind       string `json:"kind"`
    Name       string `json:"name"`
    PriceCents int64  `json:"price_cents"`
    Quantity   int    `json:"quantity"`
    Status     string `json:"status"`
}

// GetDetail returns one reservation with its items.  Ownership is
// enforced by role: customers must match user_id, owners owner_id.
// sql.ErrNoRows is returned when the reservation does not exist and
// ErrForbidden when it belongs to someone else.
func (r *ReservationRepo) GetDetail(ctx context.Context, reservationID, callerID uint64, asOwner bool) (*ReservationDetail, error) {
    const q = `SELECT res.id, res.user_id, res.tent_id, t.name, res.status,
                      res.reservation_time, res.order_number, res.table_number,
                      res.total_cents, res.platform_fee_cents, res.cancellation_fee_cents,
                      res.cancellation_reason, res.outstanding_paid_cents,
                      res.payment_method, res.reviewed, res.created_at, res.user_id, res.owner_id
               FROM reservations res
               JOIN tents t ON t.id = res.tent_id
               WHERE res.id = ?`
    var (
        d         ReservationDetail
        tableNum  sql.NullString
        platFee   sql.NullInt64
        cancelFee sql.NullInt64
        cancelWhy sql.NullString
        payMethod sql.NullString
        userID    uint64
        ownerID   uint64
    )
    err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
        &d.ID, &d.UserID, &d.TentID, &d.TentName, &d.Status,
        &d.ReservationTime, &d.OrderNumber, &tableNum,
        &d.TotalCents, &platFee, &cancelFee,
        &cancelWhy, &d.OutstandingPaidCents,
        &payMethod, &d.Reviewed, &d.CreatedAt, &userID, &ownerID,
    )
    if err != nil {
        return nil, err
    }
    if asOwner {
        if ownerID != callerID {
            return nil, ErrForbidden
        }
    } else if userID != callerID {
        return nil, ErrForbidden
    }
    if tableNum.Valid {
        v := tableNum.String
        d.TableNumber = &v
    }
    if platFee.Valid {
        v := platFee.Int64
        d.PlatformFeeCents = &v
    }
    if cancelFee.Valid {
        v := cancelFee.Int64
        d.CancellationFeeCents = &v
    }
    if cancelWhy.Valid {
        v := cancelWhy.String
        d.CancellationReason = &v
    }
    if payMethod.Valid {
        v := payMethod.String
        d.PaymentMethod = &v
    }
    items, err := r.itemsFor(ctx, []uint64{d.ID})
    if err != nil {
        return nil, err
    }
    d.Items = items[d.ID]
    if d.Items == nil {
        d.Items = []DetailItem{}
    }
    return &d, nil
}

// ListByUser returns all reservations created by the given customer,
// newest first, items included.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
    const q = `SELECT res.id, res.user_id, res.tent_id, t.name, res.status,
                      res.reservation_time, res.order_number, res.table_number,
                      res.total_cents, res.platform_fee_cents, res.cancellation_fee_cents,
                      res.cancellation_reason, res.outstanding_paid_cents,
                      res.payment_method, res.reviewed, res.created_at
               FROM reservations res
               JOIN tents t ON t.id = res.tent_id
               WHERE res.user_id = ?
               ORDER BY res.created_at DESC`
    return r.list(ctx, q, userID)
}

// ListByTentForOwner returns all reservations on a tent for its
// owner.  It verifies tent ownership first: sql.ErrNoRows when the
// tent does not exist, ErrForbidden when it belongs to someone else.
func (r *ReservationRepo) ListByTentForOwner(ctx context.Context, tentID, ownerID uint64) ([]ReservationDetail, error) {
    const checkQ = `SELECT owner_id FROM tents WHERE id = ?`
    var actualOwnerID uint64
    if err := r.db.QueryRowContext(ctx, checkQ, tentID).Scan(&actualOwnerID); err != nil {
        return nil, err
    }
    if actualOwnerID != ownerID {
        return nil, ErrForbidden
    }
    const q = `SELECT res.id, res.user_id, res.tent_id, t.name, res.status,
                      res.reservation_time, res.order_number, res.table_number,
                      res.total_cents, res.platform_fee_cents, res.cancellation_fee_cents,
                      res.cancellation_reason, res.outstanding_paid_cents,
                      res.payment_method, res.reviewed, res.created_at
               FROM reservations res
               JOIN tents t ON t.id = res.tent_id
               WHERE res.tent_id = ?
               ORDER BY res.created_at DESC`
    return r.list(ctx, q, tentID)
}

func (r *ReservationRepo) list(ctx context.Context, query string, arg uint64) ([]ReservationDetail, error) {
    rows, err := r.db.QueryContext(ctx, query, arg)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    ids := make([]uint64, 0)
    for rows.Next() {
        var (
            d         ReservationDetail
            tableNum  sql.NullString
            platFee   sql.NullInt64
            cancelFee sql.NullInt64
            cancelWhy sql.NullString
            payMethod sql.NullString
        )
        if err := rows.Scan(
            &d.ID, &d.UserID, &d.TentID, &d.TentName, &d.Status,
            &d.ReservationTime, &d.OrderNumber, &tableNum,
            &d.TotalCents, &platFee, &cancelFee,
            &cancelWhy, &d.OutstandingPaidCents,
            &payMethod, &d.Reviewed, &d.CreatedAt,
        ); err != nil {
            return nil, err
        }
        if tableNum.Valid {
            v := tableNum.String
            d.TableNumber = &v
        }
        if platFee.Valid {
            v := platFee.Int64
            d.PlatformFeeCents = &v
        }
        if cancelFee.Valid {
            v := cancelFee.Int64
            d.CancellationFeeCents = &v
        }
        if cancelWhy.Valid {
            v := cancelWhy.String
            d.CancellationReason = &v
        }
        if payMethod.Valid {
            v := payMethod.String
            d.PaymentMethod = &v
        }
        d.Items = []DetailItem{}
        ids = append(ids, d.ID)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    itemMap, err := r.itemsFor(ctx, ids)
    if err != nil {
        return nil, err
    }
    for i := range details {
        if its, ok := itemMap[details[i].ID]; ok {
            details[i].Items = its
        }
    }
    return details, nil
}

// itemsFor loads ledger lines for a set of reservations in a single
// query, grouped by reservation ID.
func (r *ReservationRepo) itemsFor(ctx context.Context, ids []uint64) (map[uint64][]DetailItem, error) {
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    q := `SELECT reservation_id, id, kind, name, price_cents, quantity, status
          FROM reservation_items
          WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY reservation_id, id`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64][]DetailItem, len(ids))
    for rows.Next() {
        var rid uint64
        var it DetailItem
        if err := rows.Scan(&rid, &it.ID, &it.Kind, &it.Name, &it.PriceCents, &it.Quantity, &it.Status); err != nil {
            return nil, err
        }
        out[rid] = append(out[rid], it)
    }
    return out, rows.Err()
}
