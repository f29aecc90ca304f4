package handler

import (
	"database/sql" // for sentinel errors returned from repository
	"errors"       // for errors.Is comparisons
	"net/http"     // HTTP status codes
	"strconv"      // parsing the tent_id query parameter
	"strings"      // trimming the supplied check-in code
	"time"         // lifecycle timing decisions

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/praiamar/beach-tent-reservation/internal/billing"
	"github.com/praiamar/beach-tent-reservation/internal/lifecycle"
	"github.com/praiamar/beach-tent-reservation/internal/model"
	"github.com/praiamar/beach-tent-reservation/internal/notification"
	"github.com/praiamar/beach-tent-reservation/internal/queue"
	"github.com/praiamar/beach-tent-reservation/internal/repository"
)

// OwnerHandler drives a reservation along its lifecycle from the
// tent side: check-in, the payment freeze, completion, cancellation
// and no-show.  Role middleware guarantees the caller is an OWNER;
// each method still verifies the reservation belongs to a tent the
// caller operates.  Every transition locks the reservation row first
// so concurrent edits observe a single linear history.
type OwnerHandler struct {
	TentRepo        *repository.TentRepo
	ReservationRepo *repository.ReservationRepo
	ItemRepo        *repository.ItemRepo
	AccountRepo     *repository.AccountRepo
	ChatRepo        *repository.ChatRepo
	Bridge          *notification.Bridge
}

// NewOwnerHandler constructs a new OwnerHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewOwnerHandler(tentRepo *repository.TentRepo, resRepo *repository.ReservationRepo, itemRepo *repository.ItemRepo, accountRepo *repository.AccountRepo, chatRepo *repository.ChatRepo, bridge *notification.Bridge) *OwnerHandler {
	if tentRepo == nil || resRepo == nil || itemRepo == nil || accountRepo == nil || chatRepo == nil || bridge == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{
		TentRepo:        tentRepo,
		ReservationRepo: resRepo,
		ItemRepo:        itemRepo,
		AccountRepo:     accountRepo,
		ChatRepo:        chatRepo,
		Bridge:          bridge,
	}
}

// lockOwned begins no transaction of its own: inside the caller's tx
// it locks the reservation row and verifies the caller operates the
// tent.  A non-nil echo response means the caller should return it.
func (h *OwnerHandler) lockOwned(c echo.Context, tx *sql.Tx, id, ownerID uint64) (*model.Reservation, error) {
	res, err := h.ReservationRepo.GetForUpdateTx(c.Request().Context(), tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.OwnerID != ownerID {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another tent"})
	}
	return res, nil
}

// CheckIn handles POST /v1/owner/reservations/:id/checkin.  The owner
// supplies the customer's 4-digit code and a table number.  The code
// is single use: a second check-in attempt fails even with the right
// digits.  Comparison is exact, "42" does not match "0042".
func (h *OwnerHandler) CheckIn(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Code        string `json:"code"`
		TableNumber string `json:"table_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Code = strings.TrimSpace(body.Code)
	body.TableNumber = strings.TrimSpace(body.TableNumber)
	if body.Code == "" || body.TableNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and table_number are required"})
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
	if res.Status != lifecycle.StatusConfirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not awaiting check-in"})
	}
	if res.CheckinCodeUsed || !lifecycle.CheckinCodeMatches(body.Code, res.CheckinCode) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check-in code"})
	}
	if err := h.ReservationRepo.CheckinTx(ctx, tx, id, body.TableNumber); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check in"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit check-in"})
	}
	committed = true
	publishEvent(ctx, queue.ReservationEvent{
		Kind:          queue.EventCheckedIn,
		ReservationID: res.ID,
		OrderNumber:   res.OrderNumber,
		UserID:        res.UserID,
		OwnerID:       res.OwnerID,
		TentID:        res.TentID,
		Status:        lifecycle.StatusCheckedIn,
		TotalCents:    res.TotalCents,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"status":       lifecycle.StatusCheckedIn,
		"table_number": body.TableNumber,
	})
}

// RequestPayment handles POST /v1/owner/reservations/:id/payment.  It
// freezes the order ledger: once the reservation is PAYMENT_PENDING
// no items can be added, proposed, adjusted or delivered.
func (h *OwnerHandler) RequestPayment(c echo.Context) error {
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
	if !lifecycle.CanTransition(res.Status, lifecycle.StatusPaymentPending) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not checked in"})
	}
	if err := h.ReservationRepo.UpdateStatusTx(ctx, tx, id, lifecycle.StatusPaymentPending); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to request payment"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"status": lifecycle.StatusPaymentPending})
}

// Complete handles POST /v1/owner/reservations/:id/complete.  The final
// bill is recomputed from delivered lines only, keeping the waiver
// decision from the full ledger, and the platform fee is derived
// from that final total.  The uniqueness guard is freed so the
// customer can reserve again.
func (h *OwnerHandler) Complete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !lifecycle.ValidPaymentMethod(body.PaymentMethod) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method must be CARD, CASH or PIX"})
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
	if !lifecycle.CanTransition(res.Status, lifecycle.StatusCompleted) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment has not been requested"})
	}
	tent, err := h.TentRepo.GetByID(ctx, res.TentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.ItemRepo.ListForUpdateTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totals := billing.ComputeTotals(items, true, waiverThreshold(tent), res.OutstandingPaidCents)
	platformFee := billing.PlatformFeeCents(totals.FinalCents)
	now := time.Now()
	if err := h.ReservationRepo.CompleteTx(ctx, tx, id, body.PaymentMethod, totals.FinalCents, platformFee, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete reservation"})
	}
	if err := h.ReservationRepo.DeleteActiveTx(ctx, tx, res.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit completion"})
	}
	committed = true
	publishEvent(ctx, queue.ReservationEvent{
		Kind:             queue.EventCompleted,
		ReservationID:    res.ID,
		OrderNumber:      res.OrderNumber,
		UserID:           res.UserID,
		OwnerID:          res.OwnerID,
		TentID:           res.TentID,
		Status:           lifecycle.StatusCompleted,
		TotalCents:       totals.FinalCents,
		PlatformFeeCents: platformFee,
		PaymentMethod:    body.PaymentMethod,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"status":             lifecycle.StatusCompleted,
		"total_cents":        totals.FinalCents,
		"menu_cents":         totals.MenuCents,
		"rental_cents":       totals.RentalCents,
		"rental_waived":      totals.Waived,
		"platform_fee_cents": platformFee,
		"payment_method":     body.PaymentMethod,
	})
}

// Cancel handles POST /v1/owner/reservations/:id/cancel.  Owner
// cancellation is free for the customer.  When the owner cancels
// late (inside the window or after check-in) the platform fee is
// still owed by the owner as a deterrent.
func (h *OwnerHandler) Cancel(c echo.Context) error {
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
	if !lifecycle.CanTransition(res.Status, lifecycle.StatusCancelled) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation can no longer be cancelled"})
	}
	instant, err := lifecycle.Instant(res.CreatedAt, res.ReservationTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt reservation time"})
	}
	checkedIn := res.Status != lifecycle.StatusConfirmed
	platformFee, reason := lifecycle.OwnerCancellation(time.Now(), instant, checkedIn)
	if err := h.ReservationRepo.CancelTx(ctx, tx, id, reason, 0, platformFee); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if err := h.ReservationRepo.DeleteActiveTx(ctx, tx, res.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if err := h.Bridge.ReservationCancelled(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to archive chat"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit cancellation"})
	}
	committed = true
	publishEvent(ctx, queue.ReservationEvent{
		Kind:               queue.EventCancelled,
		ReservationID:      res.ID,
		OrderNumber:        res.OrderNumber,
		UserID:             res.UserID,
		OwnerID:            res.OwnerID,
		TentID:             res.TentID,
		Status:             lifecycle.StatusCancelled,
		TotalCents:         res.TotalCents,
		PlatformFeeCents:   platformFee,
		CancellationReason: reason,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"status":              lifecycle.StatusCancelled,
		"cancellation_reason": reason,
		"platform_fee_cents":  platformFee,
	})
}

// NoShow handles POST /v1/owner/reservations/:id/no-show.  Allowed only
// once the reserved instant is at least the late window in the past
// and the customer never checked in.  The fixed fee lands on the
// customer's balance and is collected with their next reservation.
func (h *OwnerHandler) NoShow(c echo.Context) error {
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
	if res.Status != lifecycle.StatusConfirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not awaiting check-in"})
	}
	instant, err := lifecycle.Instant(res.CreatedAt, res.ReservationTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt reservation time"})
	}
	if !lifecycle.NoShowAllowed(time.Now(), instant) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no-show window has not elapsed"})
	}
	if err := h.ReservationRepo.CancelTx(ctx, tx, id, lifecycle.ReasonNoShow, billing.CancellationFeeCents, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record no-show"})
	}
	if err := h.AccountRepo.CreditTx(ctx, tx, res.UserID, billing.CancellationFeeCents); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record no-show fee"})
	}
	if err := h.ReservationRepo.DeleteActiveTx(ctx, tx, res.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record no-show"})
	}
	if err := h.Bridge.ReservationCancelled(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to archive chat"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit no-show"})
	}
	committed = true
	publishEvent(ctx, queue.ReservationEvent{
		Kind:                 queue.EventCancelled,
		ReservationID:        res.ID,
		OrderNumber:          res.OrderNumber,
		UserID:               res.UserID,
		OwnerID:              res.OwnerID,
		TentID:               res.TentID,
		Status:               lifecycle.StatusCancelled,
		TotalCents:           res.TotalCents,
		CancellationFeeCents: billing.CancellationFeeCents,
		CancellationReason:   lifecycle.ReasonNoShow,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"status":                 lifecycle.StatusCancelled,
		"cancellation_reason":    lifecycle.ReasonNoShow,
		"cancellation_fee_cents": billing.CancellationFeeCents,
	})
}

// ListByTent handles GET /v1/owner/reservations?tent_id= for the
// tent's owner, newest first.
func (h *OwnerHandler) ListByTent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tentID, err := strconv.ParseUint(c.QueryParam("tent_id"), 10, 64)
	if err != nil || tentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tent_id is required"})
	}
	list, err := h.ReservationRepo.ListByTentForOwner(c.Request().Context(), tentID, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tent not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tent belongs to another owner"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// GetReservation handles GET /v1/owner/reservations/:id for the owner of
// the tent the reservation was made at.
func (h *OwnerHandler) GetReservation(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.ReservationRepo.GetDetail(c.Request().Context(), id, ownerID, true)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another tent"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, detail)
}
