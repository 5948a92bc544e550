package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lottagg/raffle-api/internal/domain"
)

// Reconciler is the periodic sweep that keeps the system converging without
// request traffic: it rotates expired rounds, resolves stale pending
// payments against the chain, repairs round aggregates from the ledger,
// backfills missing draw commits and draws ended rounds.
type Reconciler struct {
	catalog       *domain.Catalog
	lifecycle     *LifecycleService
	draws         *FairDrawService
	entries       EntryRepository
	rounds        RoundRepository
	winners       WinnerRepository
	gateway       PaymentGateway
	pendingWindow time.Duration
	now           func() time.Time
}

func NewReconciler(catalog *domain.Catalog, lifecycle *LifecycleService, draws *FairDrawService, entries EntryRepository, rounds RoundRepository, winners WinnerRepository, gateway PaymentGateway, pendingWindow time.Duration) *Reconciler {
	return &Reconciler{
		catalog:       catalog,
		lifecycle:     lifecycle,
		draws:         draws,
		entries:       entries,
		rounds:        rounds,
		winners:       winners,
		gateway:       gateway,
		pendingWindow: pendingWindow,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one full sweep. Each phase logs and continues on failure so
// one bad round cannot stall the others.
func (r *Reconciler) Run(ctx context.Context) {
	r.rotateExpired(ctx)
	settled := r.settleStalePending(ctx)
	r.repairAggregates(ctx, settled)
	r.backfillCommits(ctx)
	r.drawEndedRounds(ctx)
}

func (r *Reconciler) rotateExpired(ctx context.Context) {
	for _, raffle := range r.catalog.All() {
		if _, err := r.lifecycle.EnsureCurrentRound(ctx, raffle.ID); err != nil {
			zap.L().Warn("reconciler rotation failed",
				zap.String("raffle_id", raffle.ID),
				zap.Error(err),
			)
		}
	}
}

// settleStalePending resolves pending entries older than the pending window
// by asking the gateway what became of their payment. It returns the ids of
// rounds that gained a confirmed entry.
func (r *Reconciler) settleStalePending(ctx context.Context) map[string]struct{} {
	settled := make(map[string]struct{})

	cutoff := r.now().Add(-r.pendingWindow)
	entries, err := r.entries.ListPendingBefore(ctx, cutoff, 100)
	if err != nil {
		zap.L().Warn("reconciler pending scan failed", zap.Error(err))
		return settled
	}

	for _, entry := range entries {
		confirmed, err := r.settlePending(ctx, entry)
		if err != nil {
			zap.L().Warn("reconciler settlement failed",
				zap.Uint("entry_id", entry.ID),
				zap.Error(err),
			)
			continue
		}
		if confirmed {
			settled[entry.RoundID] = struct{}{}
		}
	}

	return settled
}

func (r *Reconciler) settlePending(ctx context.Context, entry domain.Entry) (bool, error) {
	// A pending entry without a transaction hash never reached the chain.
	if entry.TxHash == "" {
		return false, r.entries.Settle(ctx, entry.ID, "", domain.EntryStatusFailed)
	}

	state, err := r.gateway.Status(ctx, entry.TxHash)
	if err != nil {
		return false, fmt.Errorf("r.gateway.Status -> %w", err)
	}

	switch state {
	case PaymentStateConfirmed:
		if err := r.entries.Settle(ctx, entry.ID, entry.TxHash, domain.EntryStatusConfirmed); err != nil {
			return false, fmt.Errorf("r.entries.Settle -> %w", err)
		}
		zap.L().Info("reconciler confirmed stale entry", zap.Uint("entry_id", entry.ID))
		return true, nil
	case PaymentStateFailed:
		return false, r.entries.Settle(ctx, entry.ID, entry.TxHash, domain.EntryStatusFailed)
	default:
		// Still in flight on the chain, leave it for the next sweep.
		return false, nil
	}
}

// repairAggregates re-derives round counters from confirmed entries. It
// covers every active round plus the rounds that just gained a confirmed
// entry; those may have rotated out of the active set earlier in the same
// sweep, and an ended round's aggregates feed its draw payout. The ledger
// wins whenever the two disagree.
func (r *Reconciler) repairAggregates(ctx context.Context, settled map[string]struct{}) {
	rounds, err := r.rounds.ListActive(ctx)
	if err != nil {
		zap.L().Warn("reconciler active round scan failed", zap.Error(err))
		return
	}

	active := make(map[string]struct{}, len(rounds))
	for _, round := range rounds {
		active[round.ID] = struct{}{}
	}
	for roundID := range settled {
		if _, ok := active[roundID]; ok {
			continue
		}
		round, err := r.rounds.GetByID(ctx, roundID)
		if err != nil {
			zap.L().Warn("reconciler settled round lookup failed",
				zap.String("round_id", roundID),
				zap.Error(err),
			)
			continue
		}
		rounds = append(rounds, round)
	}

	for _, round := range rounds {
		tickets, amountWei, err := r.entries.SumConfirmedByRound(ctx, round.ID)
		if err != nil {
			zap.L().Warn("reconciler aggregate derivation failed",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
			continue
		}
		if tickets == round.TotalTicketsSold && amountWei == round.TotalPrizePoolWei {
			continue
		}

		if err := r.rounds.SetAggregates(ctx, round.ID, tickets, amountWei); err != nil {
			zap.L().Warn("reconciler aggregate repair failed",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("reconciler repaired round aggregates",
			zap.String("round_id", round.ID),
			zap.Int("tickets", tickets),
			zap.Int64("amount_wei", amountWei),
		)
	}
}

// backfillCommits creates commitments for active rounds that are missing
// one, so the eventual draw is never blocked.
func (r *Reconciler) backfillCommits(ctx context.Context) {
	rounds, err := r.rounds.ListActive(ctx)
	if err != nil {
		zap.L().Warn("reconciler active round scan failed", zap.Error(err))
		return
	}

	for _, round := range rounds {
		if _, err := r.winners.GetCommit(ctx, round.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrCommitNotFound) {
			zap.L().Warn("reconciler commit lookup failed",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
			continue
		}

		if _, err := r.draws.CommitRound(ctx, round); err != nil {
			zap.L().Warn("reconciler commit backfill failed",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
		}
	}
}

func (r *Reconciler) drawEndedRounds(ctx context.Context) {
	rounds, err := r.rounds.ListEndedWithoutWinner(ctx, 20)
	if err != nil {
		zap.L().Warn("reconciler ended round scan failed", zap.Error(err))
		return
	}

	for _, round := range rounds {
		_, err := r.draws.Draw(ctx, round.ID)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoEntrants):
			// Nothing to award; the round simply stays ended.
		case errors.Is(err, ErrCommitMissing), errors.Is(err, ErrCommitMismatch):
			zap.L().Error("reconciler cannot draw round",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
		default:
			zap.L().Warn("reconciler draw failed",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
		}
	}
}
