package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/praiamar/beach-tent-reservation/internal/lifecycle"
	"github.com/praiamar/beach-tent-reservation/internal/repository"
)

// ReviewHandler lets customers rate a completed visit.  The tent's
// aggregate is updated under a row lock in the same transaction as
// the review insert, so concurrent reviews for the same tent never
// lose an increment.
type ReviewHandler struct {
	TentRepo        *repository.TentRepo
	ReservationRepo *repository.ReservationRepo
	ReviewRepo      *repository.ReviewRepo
}

// NewReviewHandler constructs a ReviewHandler.  All dependencies
// must be non-nil.
func NewReviewHandler(tentRepo *repository.TentRepo, resRepo *repository.ReservationRepo, reviewRepo *repository.ReviewRepo) *ReviewHandler {
	if tentRepo == nil || resRepo == nil || reviewRepo == nil {
		panic("nil dependency passed to NewReviewHandler")
	}
	return &ReviewHandler{TentRepo: tentRepo, ReservationRepo: resRepo, ReviewRepo: reviewRepo}
}

// Create handles POST /v1/reservations/:id/review.  One review per
// reservation, customers only, completed reservations only.  Rating
// is 1 through 5; the comment is optional.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Rating < 1 || body.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	body.Comment = strings.TrimSpace(body.Comment)
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
	if res.Status != lifecycle.StatusCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only completed reservations can be reviewed"})
	}
	if res.Reviewed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already reviewed"})
	}
	count, sum, err := h.TentRepo.AggregateForUpdateTx(ctx, tx, res.TentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.ReviewRepo.InsertTx(ctx, tx, id, res.TentID, userID, uint8(body.Rating), body.Comment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save review"})
	}
	if err := h.TentRepo.UpdateAggregateTx(ctx, tx, res.TentID, count+1, sum+uint64(body.Rating)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update rating"})
	}
	if err := h.ReservationRepo.MarkReviewedTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save review"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit review"})
	}
	committed = true
	avg := float64(sum+uint64(body.Rating)) / float64(count+1)
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": id,
		"rating":         body.Rating,
		"tent_rating":    avg,
	})
}
