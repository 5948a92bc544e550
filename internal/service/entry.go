package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository"
)

var (
	ErrEntryNotFound = repository.ErrEntryNotFound
	ErrEntrySettled  = repository.ErrEntrySettled
	ErrPaymentReused = repository.ErrPaymentReused

	ErrRoundClosed    = errors.New("round closed for entries")
	ErrAlreadyEntered = errors.New("wallet already entered this round")
	ErrInvalidTickets = errors.New("invalid ticket count")
	ErrNotWinner      = errors.New("wallet is not the round winner")
)

type EntryRepository interface {
	Insert(ctx context.Context, entry domain.Entry) (domain.Entry, error)
	Settle(ctx context.Context, entryID uint, txHash string, status domain.EntryStatus) error
	GetByID(ctx context.Context, entryID uint) (domain.Entry, error)
	HasEntered(ctx context.Context, roundID string, walletAddress string) (bool, error)
	ListConfirmedByRound(ctx context.Context, roundID string) ([]domain.Entry, error)
	ListByWallet(ctx context.Context, walletAddress string, limit int) ([]domain.Entry, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Entry, error)
	SumConfirmedByRound(ctx context.Context, roundID string) (int, int64, error)
}

// RoundProvider is the slice of the lifecycle the orchestrator needs.
type RoundProvider interface {
	EnsureCurrentRound(ctx context.Context, raffleID string) (domain.Round, error)
	CurrentRound(ctx context.Context, raffleID string) (domain.Round, error)
}

type walletLock struct {
	mu   sync.Mutex
	refs int
}

// EntryService orchestrates the full entry flow: round resolution, ledger
// writes, payment collection and settlement, plus prize claims.
type EntryService struct {
	catalog        *domain.Catalog
	provider       RoundProvider
	entries        EntryRepository
	rounds         RoundRepository
	winners        WinnerRepository
	gateway        PaymentGateway
	confirmTimeout time.Duration
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*walletLock
}

func NewEntryService(catalog *domain.Catalog, provider RoundProvider, entries EntryRepository, rounds RoundRepository, winners WinnerRepository, gateway PaymentGateway, confirmTimeout time.Duration) *EntryService {
	return &EntryService{
		catalog:        catalog,
		provider:       provider,
		entries:        entries,
		rounds:         rounds,
		winners:        winners,
		gateway:        gateway,
		confirmTimeout: confirmTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		locks:          make(map[string]*walletLock),
	}
}

// lockWallet serializes entry attempts for one (round, wallet) pair. The
// free-raffle uniqueness check and insert must not interleave.
func (s *EntryService) lockWallet(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &walletLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Enter buys tickets in the raffle's current round. Free raffles take one
// ticket per wallet per round and settle immediately; paid raffles create a
// pending ledger entry, verify the player's payment on chain, then settle
// it.
func (s *EntryService) Enter(ctx context.Context, raffleID string, walletAddress string, ticketCount int, paymentTxHash string) (domain.Entry, error) {
	raffle, ok := s.catalog.Get(raffleID)
	if !ok {
		return domain.Entry{}, ErrRaffleNotFound
	}

	wallet := domain.NormalizeAddress(walletAddress)
	if raffle.IsFree() {
		ticketCount = 1
	}
	if ticketCount < 1 {
		return domain.Entry{}, ErrInvalidTickets
	}
	if !raffle.IsFree() && paymentTxHash == "" {
		return domain.Entry{}, fmt.Errorf("%w: missing payment transaction", ErrPaymentRejected)
	}

	round, err := s.provider.EnsureCurrentRound(ctx, raffleID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("s.provider.EnsureCurrentRound -> %w", err)
	}
	if round.Expired(s.now()) {
		return domain.Entry{}, ErrRoundClosed
	}
	if round.TotalTicketsSold+ticketCount > raffle.Capacity {
		return domain.Entry{}, ErrRoundClosed
	}

	if raffle.IsFree() {
		return s.enterFree(ctx, raffle, round, wallet)
	}
	return s.enterPaid(ctx, raffle, round, wallet, ticketCount, paymentTxHash)
}

func (s *EntryService) enterFree(ctx context.Context, raffle domain.Raffle, round domain.Round, wallet string) (domain.Entry, error) {
	unlock := s.lockWallet(round.ID + "|" + wallet)
	defer unlock()

	entered, err := s.entries.HasEntered(ctx, round.ID, wallet)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("s.entries.HasEntered -> %w", err)
	}
	if entered {
		return domain.Entry{}, ErrAlreadyEntered
	}

	now := s.now()
	entry, err := s.entries.Insert(ctx, domain.Entry{
		WalletAddress: wallet,
		RaffleID:      raffle.ID,
		RoundID:       round.ID,
		TicketCount:   1,
		AmountWei:     0,
		Status:        domain.EntryStatusConfirmed,
		Type:          domain.EntryTypeRaffleEntry,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return domain.Entry{}, fmt.Errorf("s.entries.Insert -> %w", err)
	}

	if err := s.rounds.IncrementAggregates(ctx, round.ID, 1, 0, raffle.Capacity); err != nil {
		// The ledger row is the source of truth; the reconciler repairs
		// the aggregate from it.
		zap.L().Warn("aggregate update failed after free entry",
			zap.String("round_id", round.ID),
			zap.Error(err),
		)
	}

	return entry, nil
}

func (s *EntryService) enterPaid(ctx context.Context, raffle domain.Raffle, round domain.Round, wallet string, ticketCount int, paymentTxHash string) (domain.Entry, error) {
	amountWei := raffle.TicketPriceWei * int64(ticketCount)

	// The pending row carries the payment hash so a crash or timeout here
	// leaves enough behind for the reconciler to finish the job.
	now := s.now()
	entry, err := s.entries.Insert(ctx, domain.Entry{
		WalletAddress: wallet,
		RaffleID:      raffle.ID,
		RoundID:       round.ID,
		TicketCount:   ticketCount,
		AmountWei:     amountWei,
		TxHash:        paymentTxHash,
		Status:        domain.EntryStatusPending,
		Type:          domain.EntryTypeRaffleEntry,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return domain.Entry{}, fmt.Errorf("s.entries.Insert -> %w", err)
	}

	payCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	receipt, err := s.gateway.Verify(payCtx, PaymentRequest{
		TxHash:        paymentTxHash,
		WalletAddress: wallet,
		AmountWei:     amountWei,
	})
	if err != nil {
		return domain.Entry{}, s.settleFailedPayment(ctx, entry, err)
	}

	if err := s.entries.Settle(ctx, entry.ID, receipt.TxHash, domain.EntryStatusConfirmed); err != nil {
		return domain.Entry{}, fmt.Errorf("s.entries.Settle -> %w", err)
	}

	if err := s.rounds.IncrementAggregates(ctx, round.ID, ticketCount, amountWei, raffle.Capacity); err != nil {
		zap.L().Warn("aggregate update failed after paid entry",
			zap.String("round_id", round.ID),
			zap.Error(err),
		)
	}

	entry.TxHash = receipt.TxHash
	entry.Status = domain.EntryStatusConfirmed
	return entry, nil
}

// settleFailedPayment maps a gateway failure to the ledger outcome. Definite
// rejections settle the entry failed; an unconfirmed submission stays
// pending for the reconciler to resolve against the chain.
func (s *EntryService) settleFailedPayment(ctx context.Context, entry domain.Entry, payErr error) error {
	if ctx.Err() != nil {
		zap.L().Warn("entry abandoned mid-payment",
			zap.Uint("entry_id", entry.ID),
			zap.Error(payErr),
		)
		return fmt.Errorf("%w: entry %d", ErrAbandoned, entry.ID)
	}

	if errors.Is(payErr, context.DeadlineExceeded) {
		zap.L().Warn("payment confirmation timed out",
			zap.Uint("entry_id", entry.ID),
		)
		return fmt.Errorf("%w: entry %d", ErrPaymentTimeout, entry.ID)
	}

	if err := s.entries.Settle(context.WithoutCancel(ctx), entry.ID, "", domain.EntryStatusFailed); err != nil {
		zap.L().Error("failed to settle rejected entry",
			zap.Uint("entry_id", entry.ID),
			zap.Error(err),
		)
	}

	return fmt.Errorf("%w: %v", ErrPaymentRejected, payErr)
}

// HasEntered reports whether the wallet holds a live entry in the raffle's
// current round.
func (s *EntryService) HasEntered(ctx context.Context, raffleID string, walletAddress string) (bool, error) {
	round, err := s.provider.CurrentRound(ctx, raffleID)
	if err != nil {
		if errors.Is(err, ErrNoActiveRound) {
			return false, nil
		}
		return false, fmt.Errorf("s.provider.CurrentRound -> %w", err)
	}

	entered, err := s.entries.HasEntered(ctx, round.ID, domain.NormalizeAddress(walletAddress))
	if err != nil {
		return false, fmt.Errorf("s.entries.HasEntered -> %w", err)
	}

	return entered, nil
}

// ClaimPrize pays a drawn round's prize out to its winner and records the
// claim in the ledger. A prize claims at most once.
func (s *EntryService) ClaimPrize(ctx context.Context, roundID string, walletAddress string) (domain.Entry, error) {
	wallet := domain.NormalizeAddress(walletAddress)

	winner, err := s.winners.GetByRound(ctx, roundID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("s.winners.GetByRound -> %w", err)
	}
	if domain.NormalizeAddress(winner.WalletAddress) != wallet {
		return domain.Entry{}, ErrNotWinner
	}
	if winner.Claimed {
		return domain.Entry{}, ErrAlreadyClaimed
	}

	// Flip the claimed flag before paying so a double-submit cannot pay
	// twice. If the payout then fails the claim is surfaced as failed and
	// handled manually.
	if err := s.winners.MarkClaimed(ctx, roundID); err != nil {
		return domain.Entry{}, fmt.Errorf("s.winners.MarkClaimed -> %w", err)
	}

	payCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	receipt, err := s.gateway.Payout(payCtx, wallet, winner.PrizeAmountWei)
	if err != nil {
		zap.L().Error("prize payout failed",
			zap.String("round_id", roundID),
			zap.String("wallet", wallet),
			zap.Error(err),
		)
		return domain.Entry{}, fmt.Errorf("s.gateway.Payout -> %w", err)
	}

	now := s.now()
	entry, err := s.entries.Insert(ctx, domain.Entry{
		WalletAddress: wallet,
		RaffleID:      winner.RaffleID,
		RoundID:       roundID,
		TicketCount:   0,
		AmountWei:     winner.PrizeAmountWei,
		TxHash:        receipt.TxHash,
		Status:        domain.EntryStatusConfirmed,
		Type:          domain.EntryTypePrizeClaim,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return domain.Entry{}, fmt.Errorf("s.entries.Insert -> %w", err)
	}

	if err := s.winners.SetClaimTxHash(ctx, roundID, receipt.TxHash); err != nil {
		zap.L().Warn("failed to record claim tx hash",
			zap.String("round_id", roundID),
			zap.Error(err),
		)
	}

	return entry, nil
}
