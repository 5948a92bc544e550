package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRoundNotFound     = errors.New("round not found")
	ErrDuplicateRound    = errors.New("duplicate round")
	ErrInvalidTransition = errors.New("invalid round status transition")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// RaffleRound is one 24-hour cycle of a raffle. The uq_raffle_round_number
// index backs the cross-process duplicate-round guard; a partial unique
// index on (raffle_id) WHERE status = 'active' (created in InitTables)
// enforces the single-active-round invariant at the storage level.
type RaffleRound struct {
	ID                string `gorm:"primaryKey;size:36"`
	RaffleID          string `gorm:"not null;uniqueIndex:uq_raffle_round_number,priority:1"`
	RoundNumber       int    `gorm:"not null;uniqueIndex:uq_raffle_round_number,priority:2"`
	StartTime         time.Time
	EndTime           time.Time `gorm:"not null;index"`
	Status            string    `gorm:"not null;index"`
	TotalTicketsSold  int       `gorm:"not null;default:0"`
	TotalPrizePoolWei int64     `gorm:"not null;default:0"`
	WinnerAddress     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (RaffleRound) TableName() string {
	return "raffle_rounds"
}

type RoundDAO struct {
	db *gorm.DB
}

func NewRoundDAO(db *gorm.DB) *RoundDAO {
	return &RoundDAO{
		db: db,
	}
}

// storeErr folds unexpected database failures into ErrStoreUnavailable so
// callers can classify them as transient.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (d *RoundDAO) GetActiveRound(ctx context.Context, raffleID string) (RaffleRound, error) {
	var round RaffleRound

	result := d.db.WithContext(ctx).
		Where("raffle_id = ? AND status = ?", raffleID, "active").
		Order("start_time DESC").
		First(&round)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RaffleRound{}, ErrRoundNotFound
		}
		return RaffleRound{}, storeErr(result.Error)
	}

	return round, nil
}

func (d *RoundDAO) GetByID(ctx context.Context, roundID string) (RaffleRound, error) {
	var round RaffleRound

	result := d.db.WithContext(ctx).First(&round, "id = ?", roundID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RaffleRound{}, ErrRoundNotFound
		}
		return RaffleRound{}, storeErr(result.Error)
	}

	return round, nil
}

func (d *RoundDAO) Insert(ctx context.Context, round RaffleRound) (RaffleRound, error) {
	result := d.db.WithContext(ctx).Create(&round)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return RaffleRound{}, ErrDuplicateRound
		}
		return RaffleRound{}, storeErr(result.Error)
	}

	return round, nil
}

// MarkEnded transitions active -> ended as a conditional update, so a
// concurrent rotation cannot end the same round twice.
func (d *RoundDAO) MarkEnded(ctx context.Context, roundID string) error {
	result := d.db.WithContext(ctx).
		Model(&RaffleRound{}).
		Where("id = ? AND status = ?", roundID, "active").
		Updates(map[string]any{
			"status":     "ended",
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := d.GetByID(ctx, roundID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

func (d *RoundDAO) MaxRoundNumber(ctx context.Context, raffleID string) (int, error) {
	var max int

	result := d.db.WithContext(ctx).
		Model(&RaffleRound{}).
		Where("raffle_id = ?", raffleID).
		Select("COALESCE(MAX(round_number), 0)").
		Scan(&max)
	if result.Error != nil {
		return 0, storeErr(result.Error)
	}

	return max, nil
}

// IncrementAggregates applies a purchase to the round counters as a single
// atomic SQL update. Tickets sold is clamped to the raffle capacity and the
// update only applies while the round is still active.
func (d *RoundDAO) IncrementAggregates(ctx context.Context, roundID string, tickets int, amountWei int64, capacity int) error {
	if tickets < 0 || amountWei < 0 {
		return ErrInvalidTransition
	}

	result := d.db.WithContext(ctx).
		Model(&RaffleRound{}).
		Where("id = ? AND status = ?", roundID, "active").
		Updates(map[string]any{
			"total_tickets_sold":   gorm.Expr("LEAST(total_tickets_sold + ?, ?)", tickets, capacity),
			"total_prize_pool_wei": gorm.Expr("total_prize_pool_wei + ?", amountWei),
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := d.GetByID(ctx, roundID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// SetAggregates writes ledger-derived totals during reconciliation. The
// ticket count is monotonic: a write that would decrease it is rejected.
func (d *RoundDAO) SetAggregates(ctx context.Context, roundID string, tickets int, amountWei int64) error {
	result := d.db.WithContext(ctx).
		Model(&RaffleRound{}).
		Where("id = ? AND total_tickets_sold <= ?", roundID, tickets).
		Updates(map[string]any{
			"total_tickets_sold":   tickets,
			"total_prize_pool_wei": amountWei,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := d.GetByID(ctx, roundID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// RecordWinner transitions ended -> drawn, persists the winner row and marks
// the round's commit revealed, all in one database transaction.
func (d *RoundDAO) RecordWinner(ctx context.Context, winner RaffleWinner) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&RaffleRound{}).
			Where("id = ? AND status = ?", winner.RoundID, "ended").
			Updates(map[string]any{
				"status":         "drawn",
				"winner_address": winner.WalletAddress,
				"updated_at":     time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		if err := tx.Create(&winner).Error; err != nil {
			return err
		}

		return tx.Model(&DrawCommit{}).
			Where("round_id = ?", winner.RoundID).
			Update("revealed", true).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return ErrInvalidTransition
		}
		if isUniqueViolation(err) {
			return ErrInvalidTransition
		}
		return storeErr(err)
	}

	return nil
}

func (d *RoundDAO) ListEndedWithoutWinner(ctx context.Context, limit int) ([]RaffleRound, error) {
	var rounds []RaffleRound

	result := d.db.WithContext(ctx).
		Where("status = ?", "ended").
		Order("end_time ASC").
		Limit(limit).
		Find(&rounds)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return rounds, nil
}

func (d *RoundDAO) ListActive(ctx context.Context) ([]RaffleRound, error) {
	var rounds []RaffleRound

	result := d.db.WithContext(ctx).
		Where("status = ?", "active").
		Find(&rounds)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return rounds, nil
}

func (d *RoundDAO) ListByRaffle(ctx context.Context, raffleID string, limit int) ([]RaffleRound, error) {
	var rounds []RaffleRound

	result := d.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("round_number DESC").
		Limit(limit).
		Find(&rounds)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return rounds, nil
}
