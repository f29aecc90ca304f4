package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praiamar/beach-tent-reservation/internal/model"
)

func TestChatRepoGetByReservation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewChatRepo(db)
	cols := []string{
		"id", "reservation_id", "customer_id", "owner_id", "status",
		"last_message", "last_sender_id", "last_message_at",
	}

	t.Run("empty preview columns", func(t *testing.T) {
		// before the first message lands all three preview columns are NULL
		rows := sqlmock.NewRows(cols).AddRow(9, 4, 3, 7, model.ChatActive, nil, nil, nil)
		mock.ExpectQuery(regexp.QuoteMeta("FROM chats WHERE reservation_id = ?")).
			WithArgs(uint64(4)).WillReturnRows(rows)

		ch, err := repo.GetByReservation(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), ch.ID)
		assert.Equal(t, model.ChatActive, ch.Status)
		assert.Empty(t, ch.LastMessage)
		assert.Zero(t, ch.LastSenderID)
		assert.Nil(t, ch.LastMessageAt)
	})

	t.Run("populated preview", func(t *testing.T) {
		at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(cols).
			AddRow(9, 4, 3, 7, model.ChatArchived, "Your order was modified by the vendor.", int64(SystemSenderID), at)
		mock.ExpectQuery(regexp.QuoteMeta("FROM chats WHERE reservation_id = ?")).
			WithArgs(uint64(4)).WillReturnRows(rows)

		ch, err := repo.GetByReservation(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, "Your order was modified by the vendor.", ch.LastMessage)
		assert.Equal(t, SystemSenderID, ch.LastSenderID)
		require.NotNil(t, ch.LastMessageAt)
		assert.True(t, ch.LastMessageAt.Equal(at))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
