package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/praiamar/beach-tent-reservation/internal/model"
)

// ChatRepo persists the chat paired with each reservation.  From the
// reservation engine's perspective chats are write-only: the engine
// creates the chat at reservation time, appends system messages on
// transitions and archives the chat on cancellation.  Customer and
// owner messaging lives in a separate subsystem sharing the same
// tables.
type ChatRepo struct {
    db *sql.DB
}

// NewChatRepo returns a new ChatRepo bound to the given database.
func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{db: db} }

// SystemSenderID is the reserved identity used for lifecycle
// notifications.  No real user has ID 0.
const SystemSenderID uint64 = 0

// CreateTx inserts the chat paired with a new reservation, in the
// same transaction, and returns the chat ID.
func (r *ChatRepo) CreateTx(ctx context.Context, tx *sql.Tx, reservationID, customerID, ownerID uint64) (uint64, error) {
    const q = `INSERT INTO chats (reservation_id, customer_id, owner_id, status)
               VALUES (?, ?, ?, 'ACTIVE')`
    res, err := tx.ExecContext(ctx, q, reservationID, customerID, ownerID)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// IDByReservationTx resolves the chat belonging to a reservation
// inside a transaction.
func (r *ChatRepo) IDByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (uint64, error) {
    const q = `SELECT id FROM chats WHERE reservation_id = ?`
    var id uint64
    err := tx.QueryRowContext(ctx, q, reservationID).Scan(&id)
    return id, err
}

// AppendSystemMessageTx appends a system-authored message to the
// chat and refreshes the preview columns, all inside the caller's
// transaction.
func (r *ChatRepo) AppendSystemMessageTx(ctx context.Context, tx *sql.Tx, chatID uint64, body string) error {
    now := time.Now().UTC()
    const ins = `INSERT INTO chat_messages (chat_id, sender_id, body, is_read, created_at)
                 VALUES (?, ?, ?, 0, ?)`
    if _, err := tx.ExecContext(ctx, ins, chatID, SystemSenderID, body, now); err != nil {
        return err
    }
    const upd = `UPDATE chats
                 SET last_message = ?, last_sender_id = ?, last_message_at = ?
                 WHERE id = ?`
    _, err := tx.ExecContext(ctx, upd, body, SystemSenderID, now, chatID)
    return err
}

// ArchiveByReservationTx archives the chat paired with a cancelled
// reservation.  No message is appended; the archive itself is the
// signal.
func (r *ChatRepo) ArchiveByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
    const q = `UPDATE chats SET status = 'ARCHIVED' WHERE reservation_id = ?`
    _, err := tx.ExecContext(ctx, q, reservationID)
    return err
}

// GetByReservation returns the chat paired with a reservation, for
// display.  Callers enforce participant scoping.
func (r *ChatRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Chat, error) {
    const q = `SELECT id, reservation_id, customer_id, owner_id, status,
                      last_message, last_sender_id, last_message_at
               FROM chats WHERE reservation_id = ?`
    var c model.Chat
    var lastMsg sql.NullString
    var lastSender sql.NullInt64
    var lastAt sql.NullTime
    err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
        &c.ID, &c.ReservationID, &c.CustomerID, &c.OwnerID, &c.Status,
        &lastMsg, &lastSender, &lastAt,
    )
    if err != nil {
        return nil, err
    }
    // the preview columns stay NULL until the first message lands
    c.LastMessage = lastMsg.String
    if lastSender.Valid {
        c.LastSenderID = uint64(lastSender.Int64)
    }
    if lastAt.Valid {
        v := lastAt.Time
        c.LastMessageAt = &v
    }
    return &c, nil
}
