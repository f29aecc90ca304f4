package handler

import (
	"context"      // context passed through to the publisher
	"database/sql" // for sentinel errors returned from repository
	"errors"       // for errors.Is comparisons
	"net/http"     // HTTP status codes
	"time"         // reservation instant arithmetic

	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/sirupsen/logrus"  // structured logging

	"github.com/praiamar/beach-tent-reservation/internal/billing"
	"github.com/praiamar/beach-tent-reservation/internal/lifecycle"
	"github.com/praiamar/beach-tent-reservation/internal/model"
	"github.com/praiamar/beach-tent-reservation/internal/notification"
	"github.com/praiamar/beach-tent-reservation/internal/queue"
	"github.com/praiamar/beach-tent-reservation/internal/repository"
	queuepub "github.com/praiamar/beach-tent-reservation/internal/service"
	"github.com/praiamar/beach-tent-reservation/internal/utils"
)

// CustomerHandler groups the repositories needed to create,
// inspect and cancel reservations on behalf of customers.  All
// methods assume that JWT authentication and role validation has
// already been performed by middleware.  Methods may return 401
// Unauthorized if the user ID cannot be extracted from the context.
// Every state change runs inside a single transaction so the
// reservation, its ledger, its chat and the customer's balance
// always move together.
type CustomerHandler struct {
	TentRepo        *repository.TentRepo        // tents, hours and catalog lookups
	ReservationRepo *repository.ReservationRepo // reservations and the active-reservation guard
	ItemRepo        *repository.ItemRepo        // the order-item ledger
	AccountRepo     *repository.AccountRepo     // outstanding penalty balances
	ChatRepo        *repository.ChatRepo        // the paired chat thread
	Bridge          *notification.Bridge        // system messages into the chat
}

// NewCustomerHandler constructs a new CustomerHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCustomerHandler(tentRepo *repository.TentRepo, resRepo *repository.ReservationRepo, itemRepo *repository.ItemRepo, accountRepo *repository.AccountRepo, chatRepo *repository.ChatRepo, bridge *notification.Bridge) *CustomerHandler {
	if tentRepo == nil || resRepo == nil || itemRepo == nil || accountRepo == nil || chatRepo == nil || bridge == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{
		TentRepo:        tentRepo,
		ReservationRepo: resRepo,
		ItemRepo:        itemRepo,
		AccountRepo:     accountRepo,
		ChatRepo:        chatRepo,
		Bridge:          bridge,
	}
}

// cartLine is one requested ledger line in a creation or append body.
type cartLine struct {
	CatalogItemID uint64 `json:"catalog_item_id"`
	Quantity      int    `json:"quantity"`
}

// buildItems resolves requested lines against the tent's active
// catalog inside the transaction.  Unknown or inactive items and
// non-positive quantities fail the whole request.
func (h *CustomerHandler) buildItems(c echo.Context, tx *sql.Tx, tentID, reservationID uint64, lines []cartLine, status string) ([]repository.ItemRecord, []model.ReservationItem, error) {
	ids := make([]uint64, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, nil, errors.New("quantity must be positive")
		}
		ids = append(ids, l.CatalogItemID)
	}
	catalog, err := h.TentRepo.CatalogByIDsTx(c.Request().Context(), tx, tentID, ids)
	if err != nil {
		return nil, nil, err
	}
	records := make([]repository.ItemRecord, 0, len(lines))
	models := make([]model.ReservationItem, 0, len(lines))
	for _, l := range lines {
		ci, ok := catalog[l.CatalogItemID]
		if !ok {
			return nil, nil, errors.New("item not available at this tent")
		}
		records = append(records, repository.ItemRecord{
			ReservationID: reservationID,
			CatalogItemID: ci.ID,
			Kind:          ci.Kind,
			Name:          ci.Name,
			PriceCents:    ci.PriceCents,
			Quantity:      l.Quantity,
			Status:        status,
		})
		models = append(models, model.ReservationItem{
			CatalogItemID: ci.ID,
			Kind:          ci.Kind,
			Name:          ci.Name,
			PriceCents:    ci.PriceCents,
			Quantity:      l.Quantity,
			Status:        status,
		})
	}
	return records, models, nil
}

// waiverThreshold returns the tent's per-kit waiver bar, zero when
// the tent has the waiver disabled.
func waiverThreshold(t *model.Tent) int64 {
	if t.MinOrderWaiverCents == nil {
		return 0
	}
	return *t.MinOrderWaiverCents
}

// CreateReservation handles POST /v1/reservations.  The body names a
// tent, a wall-clock time "HH:MM" for today and an initial cart.  The
// cart must contain at least one seating kit, companion chairs only
// alongside a kit, and the slot must fall inside the tent's hours and
// strictly in the future.  Any outstanding penalty balance is folded
// into the total and zeroed in the same transaction.  On success the
// customer receives the 4-digit check-in code exactly once, here.
func (h *CustomerHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		TentID          uint64     `json:"tent_id"`
		ReservationTime string     `json:"reservation_time"`
		Items           []cartLine `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tent_id is required"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items are required"})
	}
	ctx := c.Request().Context()
	tent, err := h.TentRepo.GetByID(ctx, body.TentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tent not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := h.TentRepo.Hours(ctx, tent.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now()
	if err := lifecycle.ValidateSlot(now, body.ReservationTime, hours); err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrBadClock):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_time must be HH:MM"})
		case errors.Is(err, lifecycle.ErrPastInstant):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation time must be in the future"})
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tent is closed at the requested time"})
		}
	}
	checkinCode, err := utils.NewCheckinCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate check-in code"})
	}
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
	records, lines, err := h.buildItems(c, tx, tent.ID, 0, body.Items, model.ItemPending)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := lifecycle.ValidateCart(lines); err != nil {
		if errors.Is(err, lifecycle.ErrNoSeatingKit) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a seating kit is required"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "companion chairs require a seating kit"})
	}
	outstanding, err := h.AccountRepo.ConsumeAndResetTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to settle balance"})
	}
	totals := billing.ComputeTotals(lines, false, waiverThreshold(tent), outstanding)
	rec := &repository.ReservationRecord{
		UserID:               userID,
		OwnerID:              tent.OwnerID,
		TentID:               tent.ID,
		Status:               lifecycle.StatusConfirmed,
		ReservationTime:      body.ReservationTime,
		CheckinCode:          checkinCode,
		OrderNumber:          utils.NewOrderNumber(),
		TotalCents:           totals.FinalCents,
		OutstandingPaidCents: outstanding,
	}
	if err := h.ReservationRepo.CreateTx(ctx, tx, rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := h.ReservationRepo.InsertActiveTx(ctx, tx, userID, rec.ID); err != nil {
		if errors.Is(err, repository.ErrActiveReservation) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already have an active reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	for i := range records {
		records[i].ReservationID = rec.ID
	}
	if err := h.ItemRepo.InsertBulkTx(ctx, tx, records); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record order items"})
	}
	chatID, err := h.ChatRepo.CreateTx(ctx, tx, rec.ID, userID, tent.OwnerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open chat"})
	}
	if err := h.Bridge.ReservationCreated(ctx, tx, chatID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open chat"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit reservation"})
	}
	committed = true
	publishEvent(ctx, queue.ReservationEvent{
		Kind:          queue.EventCreated,
		ReservationID: rec.ID,
		OrderNumber:   rec.OrderNumber,
		UserID:        userID,
		OwnerID:       tent.OwnerID,
		TentID:        tent.ID,
		Status:        lifecycle.StatusConfirmed,
		TotalCents:    totals.FinalCents,
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"id":                     rec.ID,
		"order_number":           rec.OrderNumber,
		"checkin_code":           checkinCode,
		"status":                 lifecycle.StatusConfirmed,
		"reservation_time":       body.ReservationTime,
		"total_cents":            totals.FinalCents,
		"rental_waived":          totals.Waived,
		"outstanding_paid_cents": outstanding,
		"chat_id":                chatID,
	})
}

// ListReservations handles GET /v1/my-reservations and returns the
// caller's reservations, newest first, each with its ledger lines.
func (h *CustomerHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.ReservationRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// GetReservation handles GET /v1/reservations/:id for the customer
// who owns the reservation.
func (h *CustomerHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.ReservationRepo.GetDetail(c.Request().Context(), id, userID, false)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, detail)
}

// CancelReservation handles POST /v1/reservations/:id/cancel for the
// customer.  Cancellation is allowed only before check-in.  Inside
// the 15-minute window before the reserved instant a fixed fee is
// charged to the customer's balance; before that the cancellation is
// free.  The chat is archived and the active-reservation guard freed
// in the same transaction.
func (h *CustomerHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
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
	if res.Status != lifecycle.StatusConfirmed {
		if res.Status == lifecycle.StatusCheckedIn || res.Status == lifecycle.StatusPaymentPending {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already checked in"})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already closed"})
	}
	instant, err := lifecycle.Instant(res.CreatedAt, res.ReservationTime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt reservation time"})
	}
	fee, reason := lifecycle.CustomerCancellation(time.Now(), instant)
	if err := h.ReservationRepo.CancelTx(ctx, tx, id, reason, fee, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if fee > 0 {
		if err := h.AccountRepo.CreditTx(ctx, tx, userID, fee); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record cancellation fee"})
		}
	}
	if err := h.ReservationRepo.DeleteActiveTx(ctx, tx, userID); err != nil {
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
		Kind:                 queue.EventCancelled,
		ReservationID:        res.ID,
		OrderNumber:          res.OrderNumber,
		UserID:               res.UserID,
		OwnerID:              res.OwnerID,
		TentID:               res.TentID,
		Status:               lifecycle.StatusCancelled,
		TotalCents:           res.TotalCents,
		CancellationFeeCents: fee,
		CancellationReason:   reason,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"status":                 lifecycle.StatusCancelled,
		"cancellation_reason":    reason,
		"cancellation_fee_cents": fee,
	})
}

// publishEvent stamps and publishes a lifecycle event after commit.
// Publish failures are logged and never surfaced to the client: the
// database is already the source of truth.
func publishEvent(ctx context.Context, ev queue.ReservationEvent) {
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	if err := queuepub.PublishReservationEvent(ctx, ev); err != nil {
		logrus.WithError(err).Warn("reservation event publish failed")
	}
}
