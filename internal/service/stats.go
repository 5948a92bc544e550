package service

import (
	"context"
	"fmt"

	"github.com/lottagg/raffle-api/internal/domain"
)

// StatsService serves wallet-facing reads: statistics derived from the
// ledger and raw transaction history.
type StatsService struct {
	entries EntryRepository
	winners WinnerRepository
}

func NewStatsService(entries EntryRepository, winners WinnerRepository) *StatsService {
	return &StatsService{
		entries: entries,
		winners: winners,
	}
}

// UserStats derives the wallet's statistics from its confirmed ledger
// entries on every call; nothing is cached or stored.
func (s *StatsService) UserStats(ctx context.Context, walletAddress string) (domain.UserStats, error) {
	entries, err := s.entries.ListByWallet(ctx, walletAddress, 0)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("s.entries.ListByWallet -> %w", err)
	}

	return domain.ComputeUserStats(walletAddress, entries), nil
}

// Transactions returns the wallet's ledger history, newest first.
func (s *StatsService) Transactions(ctx context.Context, walletAddress string, limit int) ([]domain.Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := s.entries.ListByWallet(ctx, walletAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("s.entries.ListByWallet -> %w", err)
	}

	return entries, nil
}

// Wins returns the wallet's drawn wins, newest first.
func (s *StatsService) Wins(ctx context.Context, walletAddress string) ([]domain.Winner, error) {
	winners, err := s.winners.ListByWallet(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("s.winners.ListByWallet -> %w", err)
	}

	return winners, nil
}
