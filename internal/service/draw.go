package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository"
)

var (
	ErrWinnerNotFound = repository.ErrWinnerNotFound
	ErrCommitNotFound = repository.ErrCommitNotFound
	ErrAlreadyClaimed = repository.ErrAlreadyClaimed

	ErrNoEntrants     = errors.New("round has no entrants")
	ErrRoundNotEnded  = errors.New("round has not ended")
	ErrRoundDrawn     = errors.New("round already drawn")
	ErrCommitMissing  = errors.New("round has no draw commit")
	ErrCommitMismatch = errors.New("stored payload does not match commit hash")
)

type WinnerRepository interface {
	InsertCommit(ctx context.Context, commit domain.DrawCommit) (domain.DrawCommit, error)
	GetCommit(ctx context.Context, roundID string) (domain.DrawCommit, error)
	GetByRound(ctx context.Context, roundID string) (domain.Winner, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Winner, error)
	ListByWallet(ctx context.Context, walletAddress string) ([]domain.Winner, error)
	MarkClaimed(ctx context.Context, roundID string) error
	SetClaimTxHash(ctx context.Context, roundID string, claimTxHash string) error
}

type DrawEntryReader interface {
	ListConfirmedByRound(ctx context.Context, roundID string) ([]domain.Entry, error)
}

// FairDrawService runs the commit-reveal draw. A commitment is published
// when a round opens; the draw reveals it, derives the winning slot from it
// and the final ticket count, and records the winner in one transaction.
type FairDrawService struct {
	catalog         *domain.Catalog
	rounds          RoundRepository
	winners         WinnerRepository
	entries         DrawEntryReader
	rakeBasisPoints int64
	now             func() time.Time
}

func NewFairDrawService(catalog *domain.Catalog, rounds RoundRepository, winners WinnerRepository, entries DrawEntryReader, rakeBasisPoints int64) *FairDrawService {
	return &FairDrawService{
		catalog:         catalog,
		rounds:          rounds,
		winners:         winners,
		entries:         entries,
		rakeBasisPoints: rakeBasisPoints,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CommitRound creates and stores a fresh commitment for the round. If one
// already exists it is kept; a published hash is never replaced.
func (s *FairDrawService) CommitRound(ctx context.Context, round domain.Round) (domain.DrawCommit, error) {
	nonce, err := randomHex(8)
	if err != nil {
		return domain.DrawCommit{}, fmt.Errorf("randomHex -> %w", err)
	}
	secret, err := randomHex(32)
	if err != nil {
		return domain.DrawCommit{}, fmt.Errorf("randomHex -> %w", err)
	}

	payload := domain.RevealPayload{
		Nonce:     nonce,
		Secret:    secret,
		Timestamp: round.StartTime.Unix(),
	}

	commit, err := s.winners.InsertCommit(ctx, domain.DrawCommit{
		RoundID:    round.ID,
		Nonce:      payload.Nonce,
		Secret:     payload.Secret,
		Timestamp:  payload.Timestamp,
		CommitHash: payload.CommitHash(),
		CreatedAt:  round.StartTime,
	})
	if err != nil {
		return domain.DrawCommit{}, fmt.Errorf("s.winners.InsertCommit -> %w", err)
	}

	return commit, nil
}

// Commit returns the round's commitment for public display.
func (s *FairDrawService) Commit(ctx context.Context, roundID string) (domain.DrawCommit, error) {
	commit, err := s.winners.GetCommit(ctx, roundID)
	if err != nil {
		if errors.Is(err, ErrCommitNotFound) {
			return domain.DrawCommit{}, ErrCommitMissing
		}
		return domain.DrawCommit{}, fmt.Errorf("s.winners.GetCommit -> %w", err)
	}

	return commit, nil
}

// Draw selects and records the winner of an ended round. The draw is
// deterministic given the stored commitment and the confirmed entries, so
// re-running it can never pick a different wallet; once a winner is recorded
// the draw returns it unchanged.
func (s *FairDrawService) Draw(ctx context.Context, roundID string) (domain.Winner, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return domain.Winner{}, fmt.Errorf("s.rounds.GetByID -> %w", err)
	}

	switch round.Status {
	case domain.RoundStatusEnded:
	case domain.RoundStatusDrawn:
		winner, err := s.winners.GetByRound(ctx, roundID)
		if err != nil {
			return domain.Winner{}, fmt.Errorf("s.winners.GetByRound -> %w", err)
		}
		return winner, nil
	default:
		return domain.Winner{}, ErrRoundNotEnded
	}

	raffle, ok := s.catalog.Get(round.RaffleID)
	if !ok {
		return domain.Winner{}, ErrRaffleNotFound
	}

	entries, err := s.entries.ListConfirmedByRound(ctx, roundID)
	if err != nil {
		return domain.Winner{}, fmt.Errorf("s.entries.ListConfirmedByRound -> %w", err)
	}
	if len(entries) == 0 {
		return domain.Winner{}, ErrNoEntrants
	}

	commit, err := s.winners.GetCommit(ctx, roundID)
	if err != nil {
		if errors.Is(err, ErrCommitNotFound) {
			return domain.Winner{}, ErrCommitMissing
		}
		return domain.Winner{}, fmt.Errorf("s.winners.GetCommit -> %w", err)
	}

	payload := commit.Payload()
	if payload.CommitHash() != commit.CommitHash {
		// The stored secret no longer matches the published hash. Refusing
		// is the only honest move; re-committing would defeat the scheme.
		return domain.Winner{}, ErrCommitMismatch
	}

	var totalTickets int64
	var totalPoolWei int64
	for _, e := range entries {
		totalTickets += int64(e.TicketCount)
		totalPoolWei += e.AmountWei
	}

	slot := domain.DeriveWinningSlot(payload, totalTickets)
	wallet, ok := domain.WinnerForSlot(entries, slot)
	if !ok {
		return domain.Winner{}, ErrNoEntrants
	}

	winner := domain.Winner{
		RoundID:        round.ID,
		RaffleID:       round.RaffleID,
		WalletAddress:  wallet,
		PrizeAmountWei: s.prizeFor(raffle, totalTickets, totalPoolWei),
		CommitHash:     commit.CommitHash,
		Nonce:          payload.Nonce,
		Secret:         payload.Secret,
		Timestamp:      payload.Timestamp,
		WinningSlot:    slot,
		TotalTickets:   totalTickets,
		DrawnAt:        s.now(),
	}

	if err := s.rounds.RecordWinner(ctx, winner); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Lost the race to another draw of the same round.
			recorded, getErr := s.winners.GetByRound(ctx, roundID)
			if getErr == nil {
				return recorded, nil
			}
		}
		return domain.Winner{}, fmt.Errorf("s.rounds.RecordWinner -> %w", err)
	}

	zap.L().Info("round drawn",
		zap.String("round_id", round.ID),
		zap.String("raffle_id", round.RaffleID),
		zap.String("winner", wallet),
		zap.Int64("winning_slot", slot),
		zap.Int64("total_tickets", totalTickets),
		zap.Int64("prize_wei", winner.PrizeAmountWei),
	)

	recorded, err := s.winners.GetByRound(ctx, roundID)
	if err != nil {
		return winner, nil
	}
	return recorded, nil
}

// prizeFor computes the payout. A round that filled at least half its
// capacity pays the full advertised prize, as do free raffles; otherwise the
// payout is the collected pool minus the house rake.
func (s *FairDrawService) prizeFor(raffle domain.Raffle, totalTickets int64, totalPoolWei int64) int64 {
	if raffle.IsFree() {
		return raffle.PrizeWei
	}
	if totalTickets*2 >= int64(raffle.Capacity) {
		return raffle.PrizeWei
	}

	rake := totalPoolWei * s.rakeBasisPoints / 10000
	return totalPoolWei - rake
}

func (s *FairDrawService) WinnerByRound(ctx context.Context, roundID string) (domain.Winner, error) {
	winner, err := s.winners.GetByRound(ctx, roundID)
	if err != nil {
		return domain.Winner{}, fmt.Errorf("s.winners.GetByRound -> %w", err)
	}

	return winner, nil
}

func (s *FairDrawService) RecentWinners(ctx context.Context, limit int) ([]domain.Winner, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	winners, err := s.winners.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("s.winners.ListRecent -> %w", err)
	}

	return winners, nil
}
