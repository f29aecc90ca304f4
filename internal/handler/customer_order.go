package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/praiamar/beach-tent-reservation/internal/billing"
	"github.com/praiamar/beach-tent-reservation/internal/lifecycle"
	"github.com/praiamar/beach-tent-reservation/internal/model"
)

// AddItems handles POST /v1/reservations/:id/items.  After check-in
// the customer can append menu items directly: the lines land as
// PENDING and the stored total grows by exactly the new lines' sum.
// No recomputation happens here, only at acceptance, owner edits and
// close-out, so a direct add can never disturb the waiver decision
// mid-visit.
func (h *CustomerHandler) AddItems(c echo.Context) error {
	return h.appendItems(c, model.ItemPending)
}

// ProposeItems handles POST /v1/reservations/:id/proposals.  The
// lines land as PENDING_CONFIRMATION: invisible to billing and to
// the stored total until the owner accepts them.
func (h *CustomerHandler) ProposeItems(c echo.Context) error {
	return h.appendItems(c, model.ItemPendingConfirmation)
}

// appendItems implements both customer append paths.  Only menu
// items may be added after check-in; rental changes go through the
// owner's order editor.
func (h *CustomerHandler) appendItems(c echo.Context, status string) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Items []cartLine `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items are required"})
	}
	ctx := c.Request().Context()
	tx, err := h.ReservationRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	}
	if !lifecycle.ItemsMutable(res.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order can no longer be changed"})
	}
	records, lines, err := h.buildItems(c, tx, res.TentID, id, body.Items, status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	for _, l := range lines {
		if l.Kind != model.KindMenu {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "only menu items can be added after check-in"})
		}
	}
	if err := h.ItemRepo.InsertBulkTx(ctx, tx, records); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record order items"})
	}
	total := res.TotalCents
	if status == model.ItemPending {
		total += billing.SumCents(lines)
		if err := h.ReservationRepo.UpdateTotalTx(ctx, tx, id, total); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update total"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": id,
		"item_status":    status,
		"total_cents":    total,
	})
}
