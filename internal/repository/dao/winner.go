package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrWinnerNotFound = errors.New("winner not found")
	ErrCommitNotFound = errors.New("draw commit not found")
	ErrAlreadyClaimed = errors.New("prize already claimed")
)

// DrawCommit stores the pre-draw commitment for a round. The secret columns
// stay server-side until the draw reveals them.
type DrawCommit struct {
	RoundID    string `gorm:"primaryKey;size:36"`
	Nonce      string `gorm:"not null"`
	Secret     string `gorm:"not null"`
	Timestamp  int64  `gorm:"not null"`
	CommitHash string `gorm:"not null"`
	Revealed   bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

func (DrawCommit) TableName() string {
	return "draw_commits"
}

// RaffleWinner is the immutable outcome of one draw. The unique index on
// round_id guarantees at most one winner per round.
type RaffleWinner struct {
	ID             uint      `gorm:"primaryKey"`
	RoundID        string    `gorm:"not null;uniqueIndex;size:36"`
	RaffleID       string    `gorm:"not null;index"`
	WalletAddress  string    `gorm:"not null;index"`
	PrizeAmountWei int64     `gorm:"not null"`
	CommitHash     string    `gorm:"not null"`
	Nonce          string    `gorm:"not null"`
	Secret         string    `gorm:"not null"`
	Timestamp      int64     `gorm:"not null"`
	WinningSlot    int64     `gorm:"not null"`
	TotalTickets   int64     `gorm:"not null"`
	DrawnAt        time.Time `gorm:"not null"`
	Claimed        bool      `gorm:"not null;default:false"`
	ClaimTxHash    string
	ClaimedAt      *time.Time
}

func (RaffleWinner) TableName() string {
	return "raffle_winners"
}

type WinnerDAO struct {
	db *gorm.DB
}

func NewWinnerDAO(db *gorm.DB) *WinnerDAO {
	return &WinnerDAO{
		db: db,
	}
}

// InsertCommit stores a round's commitment. If a commit already exists for
// the round the stored one wins and is returned, so concurrent rotations
// never overwrite a published hash.
func (d *WinnerDAO) InsertCommit(ctx context.Context, commit DrawCommit) (DrawCommit, error) {
	result := d.db.WithContext(ctx).Create(&commit)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return d.GetCommit(ctx, commit.RoundID)
		}
		return DrawCommit{}, storeErr(result.Error)
	}

	return commit, nil
}

func (d *WinnerDAO) GetCommit(ctx context.Context, roundID string) (DrawCommit, error) {
	var commit DrawCommit

	result := d.db.WithContext(ctx).First(&commit, "round_id = ?", roundID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return DrawCommit{}, ErrCommitNotFound
		}
		return DrawCommit{}, storeErr(result.Error)
	}

	return commit, nil
}

func (d *WinnerDAO) GetByRound(ctx context.Context, roundID string) (RaffleWinner, error) {
	var winner RaffleWinner

	result := d.db.WithContext(ctx).First(&winner, "round_id = ?", roundID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RaffleWinner{}, ErrWinnerNotFound
		}
		return RaffleWinner{}, storeErr(result.Error)
	}

	return winner, nil
}

func (d *WinnerDAO) ListRecent(ctx context.Context, limit int) ([]RaffleWinner, error) {
	var winners []RaffleWinner

	result := d.db.WithContext(ctx).
		Order("drawn_at DESC").
		Limit(limit).
		Find(&winners)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return winners, nil
}

func (d *WinnerDAO) ListByWallet(ctx context.Context, walletAddress string) ([]RaffleWinner, error) {
	var winners []RaffleWinner

	result := d.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("drawn_at DESC").
		Find(&winners)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return winners, nil
}

// MarkClaimed flips the claimed flag once. A second claim attempt finds no
// unclaimed row and fails.
func (d *WinnerDAO) MarkClaimed(ctx context.Context, roundID string) error {
	now := time.Now().UTC()

	result := d.db.WithContext(ctx).
		Model(&RaffleWinner{}).
		Where("round_id = ? AND claimed = ?", roundID, false).
		Updates(map[string]any{
			"claimed":    true,
			"claimed_at": &now,
		})
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := d.GetByRound(ctx, roundID); err != nil {
			return err
		}
		return ErrAlreadyClaimed
	}

	return nil
}

// SetClaimTxHash records the payout transaction on an already claimed row.
func (d *WinnerDAO) SetClaimTxHash(ctx context.Context, roundID string, claimTxHash string) error {
	result := d.db.WithContext(ctx).
		Model(&RaffleWinner{}).
		Where("round_id = ? AND claimed = ?", roundID, true).
		Update("claim_tx_hash", claimTxHash)
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWinnerNotFound
	}

	return nil
}
