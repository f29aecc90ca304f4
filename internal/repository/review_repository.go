package repository

import (
    "context"
    "database/sql"
    "strings"
)

// ReviewRepo persists customer reviews.  A review write is the one
// place a read-verify-write transaction is mandatory rather than a
// blind batch: the tent's aggregate is read under lock in the same
// transaction, because the new count and sum depend on the values
// already stored.
type ReviewRepo struct {
    db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// InsertTx inserts one review row.  The unique key on
// reservation_id turns a duplicate review into ErrConflict.
func (r *ReviewRepo) InsertTx(ctx context.Context, tx *sql.Tx, reservationID, tentID, userID uint64, rating uint8, comment string) error {
    const q = `INSERT INTO reviews (reservation_id, tent_id, user_id, rating, comment)
               VALUES (?, ?, ?, ?, ?)`
    if _, err := tx.ExecContext(ctx, q, reservationID, tentID, userID, rating, comment); err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    return nil
}
