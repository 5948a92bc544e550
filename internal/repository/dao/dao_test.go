package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres spins up a throwaway Postgres container. These tests need a
// real database because the semantics under test live in SQL: the partial
// unique index, conditional updates and the multi-statement draw
// transaction.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	require.NoError(t, pool.Client.Ping())

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=raffle_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("host=localhost port=%s user=postgres password=secret dbname=raffle_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	var db *gorm.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if openErr != nil {
			return openErr
		}
		sqlDB, openErr := db.DB()
		if openErr != nil {
			return openErr
		}
		return sqlDB.Ping()
	})
	require.NoError(t, err)

	require.NoError(t, InitTables(db))
	return db
}

func newRound(raffleID string, number int, status string) RaffleRound {
	start := time.Now().UTC().Truncate(time.Second)
	return RaffleRound{
		ID:          uuid.NewString(),
		RaffleID:    raffleID,
		RoundNumber: number,
		StartTime:   start,
		EndTime:     start.Add(24 * time.Hour),
		Status:      status,
	}
}

func TestRoundDAO_SingleActiveRoundPerRaffle(t *testing.T) {
	db := setupPostgres(t)
	dao := NewRoundDAO(db)
	ctx := context.Background()

	first, err := dao.Insert(ctx, newRound("3", 1, "active"))
	require.NoError(t, err)

	// A second active round for the same raffle violates the partial
	// unique index, regardless of round number.
	_, err = dao.Insert(ctx, newRound("3", 2, "active"))
	assert.ErrorIs(t, err, ErrDuplicateRound)

	// Another raffle is unaffected.
	_, err = dao.Insert(ctx, newRound("4", 1, "active"))
	assert.NoError(t, err)

	// Once the first round ends, a successor can open.
	require.NoError(t, dao.MarkEnded(ctx, first.ID))
	_, err = dao.Insert(ctx, newRound("3", 2, "active"))
	assert.NoError(t, err)
}

func TestRoundDAO_DuplicateRoundNumber(t *testing.T) {
	db := setupPostgres(t)
	dao := NewRoundDAO(db)
	ctx := context.Background()

	_, err := dao.Insert(ctx, newRound("3", 1, "ended"))
	require.NoError(t, err)

	_, err = dao.Insert(ctx, newRound("3", 1, "ended"))
	assert.ErrorIs(t, err, ErrDuplicateRound)
}

func TestRoundDAO_MarkEndedOnce(t *testing.T) {
	db := setupPostgres(t)
	dao := NewRoundDAO(db)
	ctx := context.Background()

	round, err := dao.Insert(ctx, newRound("3", 1, "active"))
	require.NoError(t, err)

	require.NoError(t, dao.MarkEnded(ctx, round.ID))
	assert.ErrorIs(t, dao.MarkEnded(ctx, round.ID), ErrInvalidTransition)
	assert.ErrorIs(t, dao.MarkEnded(ctx, uuid.NewString()), ErrRoundNotFound)
}

func TestRoundDAO_IncrementAggregatesClampsToCapacity(t *testing.T) {
	db := setupPostgres(t)
	dao := NewRoundDAO(db)
	ctx := context.Background()

	round, err := dao.Insert(ctx, newRound("3", 1, "active"))
	require.NoError(t, err)

	require.NoError(t, dao.IncrementAggregates(ctx, round.ID, 70, 70, 80))
	require.NoError(t, dao.IncrementAggregates(ctx, round.ID, 30, 30, 80))

	got, err := dao.GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.TotalTicketsSold)
	assert.Equal(t, int64(100), got.TotalPrizePoolWei)

	// Ended rounds accept no further increments.
	require.NoError(t, dao.MarkEnded(ctx, round.ID))
	assert.ErrorIs(t, dao.IncrementAggregates(ctx, round.ID, 1, 1, 80), ErrInvalidTransition)
}

func TestRoundDAO_SetAggregatesIsMonotonic(t *testing.T) {
	db := setupPostgres(t)
	dao := NewRoundDAO(db)
	ctx := context.Background()

	round, err := dao.Insert(ctx, newRound("3", 1, "active"))
	require.NoError(t, err)
	require.NoError(t, dao.SetAggregates(ctx, round.ID, 10, 100))

	assert.ErrorIs(t, dao.SetAggregates(ctx, round.ID, 5, 50), ErrInvalidTransition)

	got, err := dao.GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalTicketsSold)
}

func TestEntryDAO_SettleOnce(t *testing.T) {
	db := setupPostgres(t)
	dao := NewEntryDAO(db)
	ctx := context.Background()

	entry, err := dao.Insert(ctx, RaffleEntry{
		WalletAddress: "0xaaa",
		RaffleID:      "3",
		RoundID:       uuid.NewString(),
		TicketCount:   2,
		AmountWei:     4600000000000000,
		Status:        "pending",
		EntryType:     "raffle_entry",
	})
	require.NoError(t, err)

	require.NoError(t, dao.Settle(ctx, entry.ID, "0xhash", "confirmed"))
	assert.ErrorIs(t, dao.Settle(ctx, entry.ID, "0xother", "failed"), ErrEntrySettled)

	got, err := dao.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
	assert.Equal(t, "0xhash", got.TxHash)
}

func TestEntryDAO_RejectsReusedPaymentHash(t *testing.T) {
	db := setupPostgres(t)
	dao := NewEntryDAO(db)
	ctx := context.Background()

	hash := "0x1111111111111111111111111111111111111111111111111111111111111111"
	first, err := dao.Insert(ctx, RaffleEntry{
		WalletAddress: "0xaaa",
		RaffleID:      "3",
		RoundID:       uuid.NewString(),
		TicketCount:   2,
		AmountWei:     4600000000000000,
		TxHash:        hash,
		Status:        "pending",
		EntryType:     "raffle_entry",
	})
	require.NoError(t, err)

	// The same transfer presented by another wallet bounces off the
	// partial unique index.
	_, err = dao.Insert(ctx, RaffleEntry{
		WalletAddress: "0xbbb",
		RaffleID:      "3",
		RoundID:       uuid.NewString(),
		TicketCount:   2,
		AmountWei:     4600000000000000,
		TxHash:        hash,
		Status:        "pending",
		EntryType:     "raffle_entry",
	})
	assert.ErrorIs(t, err, ErrPaymentReused)

	// A failed entry releases its hash for a retry.
	require.NoError(t, dao.Settle(ctx, first.ID, "", "failed"))
	_, err = dao.Insert(ctx, RaffleEntry{
		WalletAddress: "0xaaa",
		RaffleID:      "3",
		RoundID:       uuid.NewString(),
		TicketCount:   2,
		AmountWei:     4600000000000000,
		TxHash:        hash,
		Status:        "pending",
		EntryType:     "raffle_entry",
	})
	assert.NoError(t, err)

	// Prize claims sit outside the guard; a claim can share a hash value
	// without blocking purchases.
	_, err = dao.Insert(ctx, RaffleEntry{
		WalletAddress: "0xaaa",
		RaffleID:      "3",
		RoundID:       uuid.NewString(),
		AmountWei:     38900000000000000,
		TxHash:        hash,
		Status:        "confirmed",
		EntryType:     "prize_claim",
	})
	assert.NoError(t, err)
}

func TestRoundDAO_RecordWinnerTransaction(t *testing.T) {
	db := setupPostgres(t)
	roundDAO := NewRoundDAO(db)
	winnerDAO := NewWinnerDAO(db)
	ctx := context.Background()

	round, err := roundDAO.Insert(ctx, newRound("3", 1, "active"))
	require.NoError(t, err)
	require.NoError(t, roundDAO.MarkEnded(ctx, round.ID))

	_, err = winnerDAO.InsertCommit(ctx, DrawCommit{
		RoundID:    round.ID,
		Nonce:      "n",
		Secret:     "s",
		Timestamp:  1,
		CommitHash: "deadbeef",
	})
	require.NoError(t, err)

	winner := RaffleWinner{
		RoundID:        round.ID,
		RaffleID:       "3",
		WalletAddress:  "0xaaa",
		PrizeAmountWei: 38900000000000000,
		CommitHash:     "deadbeef",
		Nonce:          "n",
		Secret:         "s",
		Timestamp:      1,
		WinningSlot:    4,
		TotalTickets:   10,
		DrawnAt:        time.Now().UTC(),
	}
	require.NoError(t, roundDAO.RecordWinner(ctx, winner))

	// A second draw of the same round fails whole, leaving one winner.
	assert.ErrorIs(t, roundDAO.RecordWinner(ctx, winner), ErrInvalidTransition)

	got, err := roundDAO.GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, "drawn", got.Status)
	assert.Equal(t, "0xaaa", got.WinnerAddress)

	commit, err := winnerDAO.GetCommit(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, commit.Revealed)

	recorded, err := winnerDAO.GetByRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, "0xaaa", recorded.WalletAddress)
}

func TestWinnerDAO_MarkClaimedOnce(t *testing.T) {
	db := setupPostgres(t)
	dao := NewWinnerDAO(db)
	ctx := context.Background()

	roundID := uuid.NewString()
	require.NoError(t, db.Create(&RaffleWinner{
		RoundID:        roundID,
		RaffleID:       "3",
		WalletAddress:  "0xaaa",
		PrizeAmountWei: 1,
		CommitHash:     "c",
		Nonce:          "n",
		Secret:         "s",
		Timestamp:      1,
		DrawnAt:        time.Now().UTC(),
	}).Error)

	require.NoError(t, dao.MarkClaimed(ctx, roundID))
	require.NoError(t, dao.SetClaimTxHash(ctx, roundID, "0xclaim"))
	assert.ErrorIs(t, dao.MarkClaimed(ctx, roundID), ErrAlreadyClaimed)

	got, err := dao.GetByRound(ctx, roundID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
	assert.Equal(t, "0xclaim", got.ClaimTxHash)
}
