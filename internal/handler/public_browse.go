package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/praiamar/beach-tent-reservation/internal/model"
	"github.com/praiamar/beach-tent-reservation/internal/repository"
)

// BrowseHandler serves the unauthenticated discovery endpoints:
// tent listings, operating hours and catalogs.  Responses for these
// endpoints are cached and rate limited by middleware.
type BrowseHandler struct {
	TentRepo *repository.TentRepo
}

// NewBrowseHandler constructs a BrowseHandler.
func NewBrowseHandler(tentRepo *repository.TentRepo) *BrowseHandler {
	if tentRepo == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{TentRepo: tentRepo}
}

// tentView is the public projection of a tent, with the review
// aggregate collapsed to an average.
type tentView struct {
	ID                  uint64  `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	MinOrderWaiverCents *int64  `json:"min_order_waiver_cents,omitempty"`
	Rating              float64 `json:"rating"`
	RatingCount         uint32  `json:"rating_count"`
}

func viewOf(t *model.Tent) tentView {
	v := tentView{
		ID:                  t.ID,
		Name:                t.Name,
		Description:         t.Description,
		MinOrderWaiverCents: t.MinOrderWaiverCents,
		RatingCount:         t.RatingCount,
	}
	if t.RatingCount > 0 {
		v.Rating = float64(t.RatingSum) / float64(t.RatingCount)
	}
	return v
}

// ListTents handles GET /v1/tents.
func (h *BrowseHandler) ListTents(c echo.Context) error {
	tents, err := h.TentRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	views := make([]tentView, 0, len(tents))
	for i := range tents {
		views = append(views, viewOf(&tents[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tents": views})
}

// GetTent handles GET /v1/tents/:id.
func (h *BrowseHandler) GetTent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tent id"})
	}
	tent, err := h.TentRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tent not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, viewOf(tent))
}

// GetHours handles GET /v1/tents/:id/hours.
func (h *BrowseHandler) GetHours(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tent id"})
	}
	ctx := c.Request().Context()
	if _, err := h.TentRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tent not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := h.TentRepo.Hours(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type hourView struct {
		Weekday int    `json:"weekday"`
		IsOpen  bool   `json:"is_open"`
		Open    string `json:"open,omitempty"`
		Close   string `json:"close,omitempty"`
	}
	views := make([]hourView, 0, len(hours))
	for _, hr := range hours {
		views = append(views, hourView{Weekday: hr.Weekday, IsOpen: hr.IsOpen, Open: hr.Open, Close: hr.Close})
	}
	return c.JSON(http.StatusOK, echo.Map{"tent_id": id, "hours": views})
}

// GetCatalog handles GET /v1/tents/:id/catalog and returns only
// active items.
func (h *BrowseHandler) GetCatalog(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tent id"})
	}
	ctx := c.Request().Context()
	if _, err := h.TentRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tent not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.TentRepo.Catalog(ctx, id, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type itemView struct {
		ID         uint64 `json:"id"`
		Kind       string `json:"kind"`
		Name       string `json:"name"`
		PriceCents int64  `json:"price_cents"`
		Stock      uint32 `json:"stock"`
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemView{ID: it.ID, Kind: string(it.Kind), Name: it.Name, PriceCents: it.PriceCents, Stock: it.Stock})
	}
	return c.JSON(http.StatusOK, echo.Map{"tent_id": id, "items": views})
}
