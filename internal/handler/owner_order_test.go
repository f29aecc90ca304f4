package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praiamar/beach-tent-reservation/internal/repository"
)

// reservationCols mirrors the column order of the locked reservation
// read that opens every owner-side transaction.
var reservationCols = []string{
	"id", "user_id", "owner_id", "tent_id", "status", "reservation_time",
	"checkin_code", "checkin_code_used", "order_number", "table_number",
	"total_cents", "platform_fee_cents", "cancellation_fee_cents",
	"cancellation_reason", "outstanding_paid_cents", "payment_method",
	"reviewed", "completed_at", "created_at", "updated_at",
}

var itemCols = []string{
	"id", "reservation_id", "catalog_item_id", "kind", "name",
	"price_cents", "quantity", "status", "created_at",
}

func checkedInRow(total int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reservationCols).AddRow(
		1, 3, 7, 5, "CHECKED_IN", "10:00",
		"1234", true, "PM-AB12CD34", nil,
		total, nil, nil,
		nil, 0, nil,
		false, nil, now, now,
	)
}

// Zeroing the last seating kit must delete every companion-chair
// line in the same transaction and recompute the total from the
// surviving ledger.
func TestAdjustQuantityKitZeroCascades(t *testing.T) {
	h, mock := newOwnerHandler(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(1)).WillReturnRows(checkedInRow(7000))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation_items")).
		WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows(itemCols).
		AddRow(10, 1, 100, "SEATING_KIT", "Kit praia", 3000, 1, "PENDING", now).
		AddRow(11, 1, 101, "COMPANION_CHAIR", "Cadeira extra", 1000, 2, "PENDING", now).
		AddRow(12, 1, 101, "COMPANION_CHAIR", "Cadeira extra", 1000, 1, "DELIVERED", now).
		AddRow(13, 1, 102, "MENU", "Agua de coco", 500, 2, "PENDING", now))
	// the kit line reaches zero and is removed
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservation_items WHERE id = ?")).
		WithArgs(uint64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	// no kits remain, so every chair line goes with it
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservation_items WHERE reservation_id = ? AND kind = ?")).
		WithArgs(uint64(1), "COMPANION_CHAIR").WillReturnResult(sqlmock.NewResult(0, 2))
	// recompute from the surviving ledger: only the menu line is left
	mock.ExpectQuery(regexp.QuoteMeta("FROM tents WHERE id = ?")).
		WithArgs(uint64(5)).WillReturnRows(sqlmock.NewRows([]string{
		"id", "owner_id", "name", "description", "min_order_waiver_cents",
		"rating_count", "rating_sum", "created_at",
	}).AddRow(5, 7, "Barraca do Sol", "na areia", 5000, 0, 0, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation_items")).
		WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows(itemCols).
		AddRow(13, 1, 102, "MENU", "Agua de coco", 500, 2, "PENDING", now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET total_cents = ? WHERE id = ?")).
		WithArgs(int64(1000), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	// the customer is told their order changed
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM chats WHERE reservation_id = ?")).
		WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WithArgs(uint64(9), repository.SystemSenderID, "Your order was modified by the vendor.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chats")).
		WithArgs("Your order was modified by the vendor.", repository.SystemSenderID, sqlmock.AnyArg(), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newContext(t, http.MethodPatch, "/v1/owner/reservations/1/items/10", `{"delta":-1}`, 7)
	c.SetParamNames("id", "itemID")
	c.SetParamValues("1", "10")
	require.NoError(t, h.AdjustQuantity(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":0`)
	assert.Contains(t, rec.Body.String(), `"total_cents":1000`)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A second accept with nothing pending must not rewrite the total
// and must not post a chat message.
func TestAcceptProposalsWithNonePendingIsNoOp(t *testing.T) {
	h, mock := newOwnerHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(1)).WillReturnRows(checkedInRow(6000))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservation_items SET status = 'PENDING'")).
		WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	c, rec := newContext(t, http.MethodPost, "/v1/owner/reservations/1/proposals/accept", `{}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.AcceptProposals(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted":0`)
	assert.Contains(t, rec.Body.String(), `"total_cents":6000`)
	// ExpectationsWereMet proves no total UPDATE and no chat INSERT ran
	require.NoError(t, mock.ExpectationsWereMet())
}
