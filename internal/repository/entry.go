package repository

import (
	"context"
	"time"

	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository/dao"
)

var (
	ErrEntryNotFound = dao.ErrEntryNotFound
	ErrEntrySettled  = dao.ErrEntrySettled
	ErrPaymentReused = dao.ErrPaymentReused
)

type EntryDAO interface {
	Insert(ctx context.Context, entry dao.RaffleEntry) (dao.RaffleEntry, error)
	Settle(ctx context.Context, entryID uint, txHash string, status string) error
	GetByID(ctx context.Context, entryID uint) (dao.RaffleEntry, error)
	HasEntered(ctx context.Context, roundID string, walletAddress string) (bool, error)
	ListConfirmedByRound(ctx context.Context, roundID string) ([]dao.RaffleEntry, error)
	ListByWallet(ctx context.Context, walletAddress string, limit int) ([]dao.RaffleEntry, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]dao.RaffleEntry, error)
	SumConfirmedByRound(ctx context.Context, roundID string) (dao.RoundTotals, error)
}

type EntryRepository struct {
	dao EntryDAO
}

func NewEntryRepository(dao EntryDAO) *EntryRepository {
	return &EntryRepository{
		dao: dao,
	}
}

func (r *EntryRepository) domainToDao(entry domain.Entry) dao.RaffleEntry {
	return dao.RaffleEntry{
		ID:            entry.ID,
		WalletAddress: entry.WalletAddress,
		RaffleID:      entry.RaffleID,
		RoundID:       entry.RoundID,
		TicketCount:   entry.TicketCount,
		AmountWei:     entry.AmountWei,
		TxHash:        entry.TxHash,
		Status:        string(entry.Status),
		EntryType:     string(entry.Type),
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}

func (r *EntryRepository) daoToDomain(entry dao.RaffleEntry) domain.Entry {
	return domain.Entry{
		ID:            entry.ID,
		WalletAddress: entry.WalletAddress,
		RaffleID:      entry.RaffleID,
		RoundID:       entry.RoundID,
		TicketCount:   entry.TicketCount,
		AmountWei:     entry.AmountWei,
		TxHash:        entry.TxHash,
		Status:        domain.EntryStatus(entry.Status),
		Type:          domain.EntryType(entry.EntryType),
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}

func (r *EntryRepository) daosToDomain(entries []dao.RaffleEntry) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	for i, entry := range entries {
		out[i] = r.daoToDomain(entry)
	}
	return out
}

func (r *EntryRepository) Insert(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(entry))
	if err != nil {
		return domain.Entry{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *EntryRepository) Settle(ctx context.Context, entryID uint, txHash string, status domain.EntryStatus) error {
	return r.dao.Settle(ctx, entryID, txHash, string(status))
}

func (r *EntryRepository) GetByID(ctx context.Context, entryID uint) (domain.Entry, error) {
	entry, err := r.dao.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, err
	}

	return r.daoToDomain(entry), nil
}

func (r *EntryRepository) HasEntered(ctx context.Context, roundID string, walletAddress string) (bool, error) {
	return r.dao.HasEntered(ctx, roundID, domain.NormalizeAddress(walletAddress))
}

func (r *EntryRepository) ListConfirmedByRound(ctx context.Context, roundID string) ([]domain.Entry, error) {
	entries, err := r.dao.ListConfirmedByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(entries), nil
}

func (r *EntryRepository) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]domain.Entry, error) {
	entries, err := r.dao.ListByWallet(ctx, domain.NormalizeAddress(walletAddress), limit)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(entries), nil
}

func (r *EntryRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Entry, error) {
	entries, err := r.dao.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(entries), nil
}

func (r *EntryRepository) SumConfirmedByRound(ctx context.Context, roundID string) (int, int64, error) {
	totals, err := r.dao.SumConfirmedByRound(ctx, roundID)
	if err != nil {
		return 0, 0, err
	}

	return totals.Tickets, totals.AmountWei, nil
}
