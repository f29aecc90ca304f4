package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/praiamar/beach-tent-reservation/internal/billing"
	"github.com/praiamar/beach-tent-reservation/internal/lifecycle"
	"github.com/praiamar/beach-tent-reservation/internal/model"
	"github.com/praiamar/beach-tent-reservation/internal/repository"
)

// recountTotal re-reads the locked ledger and stores the recomputed
// running total on the reservation.  It must be called inside the
// same transaction as the ledger mutation it follows.
func (h *OwnerHandler) recountTotal(c echo.Context, tx *sql.Tx, res *model.Reservation) (int64, error) {
	ctx := c.Request().Context()
	tent, err := h.TentRepo.GetByID(ctx, res.TentID)
	if err != nil {
		return 0, err
	}
	items, err := h.ItemRepo.ListForUpdateTx(ctx, tx, res.ID)
	if err != nil {
		return 0, err
	}
	totals := billing.ComputeTotals(items, false, waiverThreshold(tent), res.OutstandingPaidCents)
	if err := h.ReservationRepo.UpdateTotalTx(ctx, tx, res.ID, totals.FinalCents); err != nil {
		return 0, err
	}
	return totals.FinalCents, nil
}

// AcceptProposals handles POST /v1/owner/reservations/:id/proposals/accept.
// All PENDING_CONFIRMATION lines flip to PENDING, the total is
// recomputed from the full ledger and a system message lands in the
// chat.  With no pending proposals the call is a no-op on the total
// and posts no message.
func (h *OwnerHandler) AcceptProposals(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
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
	res, errResp := h.lockOwned(c, tx, id, ownerID)
	if res == nil {
		return errResp
	}
	if !lifecycle.ItemsMutable(res.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order can no longer be changed"})
	}
	accepted, err := h.ItemRepo.AcceptProposalsTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to accept proposals"})
	}
	total := res.TotalCents
	if accepted > 0 {
		if total, err = h.recountTotal(c, tx, res); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update total"})
		}
		chatID, err := h.ChatRepo.IDByReservationTx(ctx, tx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Bridge.ItemsAccepted(ctx, tx, chatID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to notify customer"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"accepted":    accepted,
		"total_cents": total,
	})
}

// RejectProposals handles POST /v1/owner/reservations/:id/proposals/reject.
// Rejected lines are removed outright, the total never moves, and
// the chat message names each rejected line so the customer knows
// what was declined.
func (h *OwnerHandler) RejectProposals(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
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
	res, errResp := h.lockOwned(c, tx, id, ownerID)
	if res == nil {
		return errResp
	}
	if !lifecycle.ItemsMutable(res.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order can no longer be changed"})
	}
	items, err := h.ItemRepo.ListForUpdateTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rejected := make([]model.ReservationItem, 0)
	for _, it := range items {
		if it.Status == model.ItemPendingConfirmation {
			rejected = append(rejected, it)
		}
	}
	if len(rejected) > 0 {
		if _, err := h.ItemRepo.DeleteProposalsTx(ctx, tx, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reject proposals"})
		}
		chatID, err := h.ChatRepo.IDByReservationTx(ctx, tx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Bridge.ItemsRejected(ctx, tx, chatID, rejected); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to notify customer"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"rejected":    len(rejected),
		"total_cents": res.TotalCents,
	})
}

// AdjustQuantity handles PATCH /v1/owner/reservations/:id/items/:itemID.
// The body carries a signed delta.  Quantities floor at zero; a line
// reaching zero is removed, and when the last seating kit goes the
// companion chairs go with it.  The total is recomputed from the
// resulting ledger, so the waiver can flip in either direction.
func (h *OwnerHandler) AdjustQuantity(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	itemID, ok := parseID(c, "itemID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be non-zero"})
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
	res, errResp := h.lockOwned(c, tx, id, ownerID)
	if res == nil {
		return errResp
	}
	if !lifecycle.ItemsMutable(res.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order can no longer be changed"})
	}
	items, err := h.ItemRepo.ListForUpdateTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var target *model.ReservationItem
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found on this order"})
	}
	if target.Status == model.ItemPendingConfirmation {
		return c.JSON(http.StatusConflict, echo.Map{"error": "item is awaiting confirmation"})
	}
	newQty := target.Quantity + body.Delta
	if newQty < 0 {
		newQty = 0
	}
	if newQty == 0 {
		if err := h.ItemRepo.DeleteTx(ctx, tx, itemID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update item"})
		}
		if target.Kind == model.KindSeatingKit {
			kitsLeft := 0
			for _, it := range items {
				if it.Kind == model.KindSeatingKit && it.ID != itemID {
					kitsLeft += it.Quantity
				}
			}
			if kitsLeft == 0 {
				if _, err := h.ItemRepo.DeleteByKindTx(ctx, tx, id, model.KindCompanionChair); err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update item"})
				}
			}
		}
	} else {
		if err := h.ItemRepo.SetQuantityTx(ctx, tx, itemID, newQty); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update item"})
		}
	}
	total, err := h.recountTotal(c, tx, res)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update total"})
	}
	chatID, err := h.ChatRepo.IDByReservationTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Bridge.OrderEdited(ctx, tx, chatID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to notify customer"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"item_id":     itemID,
		"quantity":    newQty,
		"total_cents": total,
	})
}

// SetDelivery handles PATCH /v1/owner/reservations/:id/items/:itemID/delivery.
// Marks a line delivered or back to pending.  Proposed lines cannot
// be delivered before acceptance.
func (h *OwnerHandler) SetDelivery(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	itemID, ok := parseID(c, "itemID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		Delivered bool `json:"delivered"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.ItemPending
	if body.Delivered {
		status = model.ItemDelivered
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
	res, errResp := h.lockOwned(c, tx, id, ownerID)
	if res == nil {
		return errResp
	}
	if !lifecycle.ItemsMutable(res.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order can no longer be changed"})
	}
	if err := h.ItemRepo.SetDeliveryTx(ctx, tx, id, itemID, status); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "item is awaiting confirmation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update delivery"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"item_id": itemID,
		"status":  status,
	})
}
