package repository

import (
    "context"
    "database/sql"
    "errors"
)

// AccountRepo tracks each customer's outstanding penalty balance.
// Crediting happens on late cancellations and no-shows; the balance
// is consumed exactly once, at the customer's next reservation
// creation, where it folds into the new total.
type AccountRepo struct {
    db *sql.DB
}

// NewAccountRepo returns a new AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

// ErrNegativeCredit is returned when a caller attempts to credit a
// negative amount; the balance only ever grows through penalties and
// only ConsumeAndResetTx brings it back to zero.
var ErrNegativeCredit = errors.New("credit amount must be non-negative")

// CreditTx adds a penalty to the customer's outstanding balance.
// The row is created on first use.  There is no dedup key: a retried
// call double-charges, so at-most-once invocation is the caller's
// responsibility.
func (r *AccountRepo) CreditTx(ctx context.Context, tx *sql.Tx, userID uint64, amountCents int64) error {
    if amountCents < 0 {
        return ErrNegativeCredit
    }
    if amountCents == 0 {
        return nil
    }
    const q = `INSERT INTO account_balances (user_id, outstanding_cents) VALUES (?, ?)
               ON DUPLICATE KEY UPDATE outstanding_cents = outstanding_cents + VALUES(outstanding_cents)`
    _, err := tx.ExecContext(ctx, q, userID, amountCents)
    return err
}

// ConsumeAndResetTx atomically reads the customer's outstanding
// balance, zeroes it and returns the prior value.  A missing row
// means a zero balance.
func (r *AccountRepo) ConsumeAndResetTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
    const sel = `SELECT outstanding_cents FROM account_balances WHERE user_id = ? FOR UPDATE`
    var prior int64
    err := tx.QueryRowContext(ctx, sel, userID).Scan(&prior)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return 0, nil
        }
        return 0, err
    }
    if prior == 0 {
        return 0, nil
    }
    const upd = `UPDATE account_balances SET outstanding_cents = 0 WHERE user_id = ?`
    if _, err := tx.ExecContext(ctx, upd, userID); err != nil {
        return 0, err
    }
    return prior, nil
}

// Get returns the customer's current outstanding balance outside any
// transaction, for display.
func (r *AccountRepo) Get(ctx context.Context, userID uint64) (int64, error) {
    const q = `SELECT outstanding_cents FROM account_balances WHERE user_id = ?`
    var cents int64
    err := r.db.QueryRowContext(ctx, q, userID).Scan(&cents)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, nil
    }
    return cents, err
}
