package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrEntrySettled  = errors.New("entry already settled")
	ErrPaymentReused = errors.New("payment transaction already used")
)

// RaffleEntry is one ledger row. Rows are inserted pending and settled to
// confirmed or failed exactly once; amounts and counts never change after
// insertion. The uq_entry_payment_tx index (created in InitTables) binds a
// payment hash to at most one non-failed purchase entry, so one on-chain
// transfer cannot fund several entries.
type RaffleEntry struct {
	ID            uint   `gorm:"primaryKey"`
	WalletAddress string `gorm:"not null;index"`
	RaffleID      string `gorm:"not null;index"`
	RoundID       string `gorm:"not null;index;size:36"`
	TicketCount   int    `gorm:"not null"`
	AmountWei     int64  `gorm:"not null"`
	TxHash        string
	Status        string `gorm:"not null;index"`
	EntryType     string `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RaffleEntry) TableName() string {
	return "raffle_entries"
}

type EntryDAO struct {
	db *gorm.DB
}

func NewEntryDAO(db *gorm.DB) *EntryDAO {
	return &EntryDAO{
		db: db,
	}
}

func (d *EntryDAO) Insert(ctx context.Context, entry RaffleEntry) (RaffleEntry, error) {
	result := d.db.WithContext(ctx).Create(&entry)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return RaffleEntry{}, ErrPaymentReused
		}
		return RaffleEntry{}, storeErr(result.Error)
	}

	return entry, nil
}

// Settle moves a pending entry to its terminal status. The conditional
// update guarantees an entry settles at most once even under concurrent
// settlement attempts.
func (d *EntryDAO) Settle(ctx context.Context, entryID uint, txHash string, status string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}

	result := d.db.WithContext(ctx).
		Model(&RaffleEntry{}).
		Where("id = ? AND status = ?", entryID, "pending").
		Updates(updates)
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		var entry RaffleEntry
		if err := d.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return storeErr(err)
		}
		return ErrEntrySettled
	}

	return nil
}

func (d *EntryDAO) GetByID(ctx context.Context, entryID uint) (RaffleEntry, error) {
	var entry RaffleEntry

	result := d.db.WithContext(ctx).First(&entry, "id = ?", entryID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RaffleEntry{}, ErrEntryNotFound
		}
		return RaffleEntry{}, storeErr(result.Error)
	}

	return entry, nil
}

// HasEntered reports whether the wallet already holds a confirmed purchase
// entry in the round. Pending and failed entries do not count; a payment
// still in flight is not an entry yet.
func (d *EntryDAO) HasEntered(ctx context.Context, roundID string, walletAddress string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&RaffleEntry{}).
		Where("round_id = ? AND wallet_address = ? AND entry_type = ? AND status = ?",
			roundID, walletAddress, "raffle_entry", "confirmed").
		Count(&count)
	if result.Error != nil {
		return false, storeErr(result.Error)
	}

	return count > 0, nil
}

// ListConfirmedByRound returns the round's confirmed purchase entries in
// insertion order. This ordering defines the slot layout for the draw.
func (d *EntryDAO) ListConfirmedByRound(ctx context.Context, roundID string) ([]RaffleEntry, error) {
	var entries []RaffleEntry

	result := d.db.WithContext(ctx).
		Where("round_id = ? AND entry_type = ? AND status = ?", roundID, "raffle_entry", "confirmed").
		Order("created_at ASC, id ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return entries, nil
}

// ListByWallet returns the wallet's ledger rows, newest first. A limit of
// zero or less returns everything.
func (d *EntryDAO) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]RaffleEntry, error) {
	var entries []RaffleEntry

	query := d.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	result := query.Find(&entries)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return entries, nil
}

// ListPendingBefore returns purchase entries still pending past the cutoff,
// for reconciliation against the payment gateway.
func (d *EntryDAO) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]RaffleEntry, error) {
	var entries []RaffleEntry

	result := d.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", "pending", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, storeErr(result.Error)
	}

	return entries, nil
}

type RoundTotals struct {
	Tickets   int
	AmountWei int64
}

// SumConfirmedByRound re-derives the round aggregates from the ledger.
func (d *EntryDAO) SumConfirmedByRound(ctx context.Context, roundID string) (RoundTotals, error) {
	var totals RoundTotals

	result := d.db.WithContext(ctx).
		Model(&RaffleEntry{}).
		Where("round_id = ? AND entry_type = ? AND status = ?", roundID, "raffle_entry", "confirmed").
		Select("COALESCE(SUM(ticket_count), 0) AS tickets, COALESCE(SUM(amount_wei), 0) AS amount_wei").
		Scan(&totals)
	if result.Error != nil {
		return RoundTotals{}, storeErr(result.Error)
	}

	return totals, nil
}
