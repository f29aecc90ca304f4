package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepoCreditTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountRepo(db)
	ctx := context.Background()

	t.Run("negative amounts are rejected before any write", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)
		assert.ErrorIs(t, repo.CreditTx(ctx, tx, 7, -100), ErrNegativeCredit)
	})

	t.Run("zero amount is a no-op", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)
		assert.NoError(t, repo.CreditTx(ctx, tx, 7, 0))
	})

	t.Run("positive amount upserts the balance row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(uint64(7), int64(300)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		tx, err := db.Begin()
		require.NoError(t, err)
		assert.NoError(t, repo.CreditTx(ctx, tx, 7, 300))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepoConsumeAndResetTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountRepo(db)
	ctx := context.Background()

	t.Run("missing row reads as zero without an update", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT outstanding_cents FROM account_balances").
			WithArgs(uint64(9)).
			WillReturnError(sql.ErrNoRows)
		tx, err := db.Begin()
		require.NoError(t, err)
		prior, err := repo.ConsumeAndResetTx(ctx, tx, 9)
		require.NoError(t, err)
		assert.Zero(t, prior)
	})

	t.Run("positive balance is returned and zeroed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT outstanding_cents FROM account_balances").
			WithArgs(uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"outstanding_cents"}).AddRow(300))
		mock.ExpectExec("UPDATE account_balances SET outstanding_cents = 0").
			WithArgs(uint64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		tx, err := db.Begin()
		require.NoError(t, err)
		prior, err := repo.ConsumeAndResetTx(ctx, tx, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(300), prior)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
