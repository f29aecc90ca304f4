package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/praiamar/beach-tent-reservation/internal/model"
)

// chatView is the participant-facing projection of a reservation's
// chat, preview columns included.
type chatView struct {
	ID            uint64     `json:"id"`
	ReservationID uint64     `json:"reservation_id"`
	Status        string     `json:"status"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastSenderID  uint64     `json:"last_sender_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

func chatViewOf(ch *model.Chat) chatView {
	return chatView{
		ID:            ch.ID,
		ReservationID: ch.ReservationID,
		Status:        ch.Status,
		LastMessage:   ch.LastMessage,
		LastSenderID:  ch.LastSenderID,
		LastMessageAt: ch.LastMessageAt,
	}
}

// GetChat handles GET /v1/reservations/:id/chat for the customer
// side of the conversation.
func (h *CustomerHandler) GetChat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ch, err := h.ChatRepo.GetByReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ch.CustomerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	}
	return c.JSON(http.StatusOK, chatViewOf(ch))
}

// GetChat handles GET /v1/owner/reservations/:id/chat for the tent
// side of the conversation.
func (h *OwnerHandler) GetChat(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ch, err := h.ChatRepo.GetByReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ch.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another tent"})
	}
	return c.JSON(http.StatusOK, chatViewOf(ch))
}

// GetBalance handles GET /v1/my-balance.  A customer can see the
// outstanding penalty that will fold into their next reservation.
func (h *CustomerHandler) GetBalance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cents, err := h.AccountRepo.Get(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"outstanding_cents": cents})
}
