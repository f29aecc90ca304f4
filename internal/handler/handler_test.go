package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praiamar/beach-tent-reservation/internal/notification"
	"github.com/praiamar/beach-tent-reservation/internal/repository"
)

// newContext builds an echo context for a JSON request, optionally
// authenticated as the given user.
func newContext(t *testing.T, method, path, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

func newOwnerHandler(t *testing.T) (*OwnerHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	chatRepo := repository.NewChatRepo(db)
	return NewOwnerHandler(
		repository.NewTentRepo(db),
		repository.NewReservationRepo(db),
		repository.NewItemRepo(db),
		repository.NewAccountRepo(db),
		chatRepo,
		notification.NewBridge(chatRepo),
	), mock
}

func TestCheckInValidation(t *testing.T) {
	h, _ := newOwnerHandler(t)

	t.Run("unauthenticated", func(t *testing.T) {
		c, rec := newContext(t, http.MethodPost, "/v1/owner/reservations/1/checkin", `{}`, 0)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.CheckIn(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad reservation id", func(t *testing.T) {
		c, rec := newContext(t, http.MethodPost, "/v1/owner/reservations/x/checkin", `{}`, 7)
		c.SetParamNames("id")
		c.SetParamValues("x")
		require.NoError(t, h.CheckIn(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing code or table", func(t *testing.T) {
		c, rec := newContext(t, http.MethodPost, "/v1/owner/reservations/1/checkin", `{"code":"  "}`, 7)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.CheckIn(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompleteRejectsUnknownPaymentMethod(t *testing.T) {
	h, _ := newOwnerHandler(t)
	c, rec := newContext(t, http.MethodPost, "/v1/owner/reservations/1/complete", `{"payment_method":"CHECK"}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Complete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustQuantityRequiresDelta(t *testing.T) {
	h, _ := newOwnerHandler(t)
	c, rec := newContext(t, http.MethodPatch, "/v1/owner/reservations/1/items/2", `{"delta":0}`, 7)
	c.SetParamNames("id", "itemID")
	c.SetParamValues("1", "2")
	require.NoError(t, h.AdjustQuantity(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewRatingBounds(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewReviewHandler(repository.NewTentRepo(db), repository.NewReservationRepo(db), repository.NewReviewRepo(db))

	for _, rating := range []int{0, 6, -1} {
		c, rec := newContext(t, http.MethodPost, "/v1/reservations/1/review", `{"rating":`+strconv.Itoa(rating)+`}`, 3)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %d", rating)
	}
}

func TestBrowseGetTent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewBrowseHandler(repository.NewTentRepo(db))

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "owner_id", "name", "description", "min_order_waiver_cents",
			"rating_count", "rating_sum", "created_at",
		}).AddRow(5, 2, "Barraca do Sol", "na areia", 3000, 4, 18, time.Now())
		mock.ExpectQuery(regexp.QuoteMeta("FROM tents WHERE id = ?")).WithArgs(uint64(5)).WillReturnRows(rows)

		c, rec := newContext(t, http.MethodGet, "/v1/tents/5", "", 0)
		c.SetParamNames("id")
		c.SetParamValues("5")
		require.NoError(t, h.GetTent(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rating":4.5`)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM tents WHERE id = ?")).WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)

		c, rec := newContext(t, http.MethodGet, "/v1/tents/99", "", 0)
		c.SetParamNames("id")
		c.SetParamValues("99")
		require.NoError(t, h.GetTent(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateReservationValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	chatRepo := repository.NewChatRepo(db)
	h := NewCustomerHandler(
		repository.NewTentRepo(db),
		repository.NewReservationRepo(db),
		repository.NewItemRepo(db),
		repository.NewAccountRepo(db),
		chatRepo,
		notification.NewBridge(chatRepo),
	)

	cases := []struct {
		name string
		body string
	}{
		{"missing tent", `{"reservation_time":"14:00","items":[{"catalog_item_id":1,"quantity":1}]}`},
		{"empty cart", `{"tent_id":1,"reservation_time":"14:00","items":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPost, "/v1/reservations", tc.body, 3)
			require.NoError(t, h.CreateReservation(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
