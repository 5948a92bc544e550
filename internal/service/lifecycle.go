package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository"
)

var (
	ErrRoundNotFound     = repository.ErrRoundNotFound
	ErrDuplicateRound    = repository.ErrDuplicateRound
	ErrInvalidTransition = repository.ErrInvalidTransition
	ErrStoreUnavailable  = repository.ErrStoreUnavailable

	ErrNoActiveRound  = errors.New("no active round")
	ErrRaffleNotFound = errors.New("raffle not found")
)

type RoundRepository interface {
	GetActiveRound(ctx context.Context, raffleID string) (domain.Round, error)
	GetByID(ctx context.Context, roundID string) (domain.Round, error)
	Insert(ctx context.Context, round domain.Round) (domain.Round, error)
	MarkEnded(ctx context.Context, roundID string) error
	MaxRoundNumber(ctx context.Context, raffleID string) (int, error)
	IncrementAggregates(ctx context.Context, roundID string, tickets int, amountWei int64, capacity int) error
	SetAggregates(ctx context.Context, roundID string, tickets int, amountWei int64) error
	RecordWinner(ctx context.Context, winner domain.Winner) error
	ListEndedWithoutWinner(ctx context.Context, limit int) ([]domain.Round, error)
	ListActive(ctx context.Context) ([]domain.Round, error)
	ListByRaffle(ctx context.Context, raffleID string, limit int) ([]domain.Round, error)
}

// RoundCommitter publishes a draw commitment for a freshly opened round.
type RoundCommitter interface {
	CommitRound(ctx context.Context, round domain.Round) (domain.DrawCommit, error)
}

type rotation struct {
	done  chan struct{}
	round domain.Round
	err   error
}

// LifecycleService owns round rotation. Rotation is expiry-driven: it runs
// when a caller touches an expired round or when the reconciler sweeps, and
// concurrent callers for the same raffle join a single in-flight rotation
// rather than racing.
type LifecycleService struct {
	catalog       *domain.Catalog
	repo          RoundRepository
	committer     RoundCommitter
	roundDuration time.Duration
	now           func() time.Time

	mu        sync.Mutex
	rotations map[string]*rotation
}

func NewLifecycleService(catalog *domain.Catalog, repo RoundRepository, committer RoundCommitter, roundDuration time.Duration) *LifecycleService {
	return &LifecycleService{
		catalog:       catalog,
		repo:          repo,
		committer:     committer,
		roundDuration: roundDuration,
		now:           func() time.Time { return time.Now().UTC() },
		rotations:     make(map[string]*rotation),
	}
}

// CurrentRound returns the raffle's active round without creating one.
func (s *LifecycleService) CurrentRound(ctx context.Context, raffleID string) (domain.Round, error) {
	if _, ok := s.catalog.Get(raffleID); !ok {
		return domain.Round{}, ErrRaffleNotFound
	}

	round, err := s.repo.GetActiveRound(ctx, raffleID)
	if err != nil {
		if errors.Is(err, ErrRoundNotFound) {
			return domain.Round{}, ErrNoActiveRound
		}
		return domain.Round{}, fmt.Errorf("s.repo.GetActiveRound -> %w", err)
	}

	return round, nil
}

// EnsureCurrentRound returns the raffle's active, unexpired round, rotating
// first if the current one has expired or none exists. Transient store
// failures are retried with exponential backoff; anything else fails fast.
func (s *LifecycleService) EnsureCurrentRound(ctx context.Context, raffleID string) (domain.Round, error) {
	if _, ok := s.catalog.Get(raffleID); !ok {
		return domain.Round{}, ErrRaffleNotFound
	}

	var round domain.Round

	policy := backoff.WithContext(newStorePolicy(), ctx)
	err := backoff.Retry(func() error {
		var err error
		round, err = s.ensureOnce(ctx, raffleID)
		if err != nil && !errors.Is(err, ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err != nil {
		return domain.Round{}, err
	}

	return round, nil
}

func newStorePolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second
	return policy
}

func (s *LifecycleService) ensureOnce(ctx context.Context, raffleID string) (domain.Round, error) {
	round, err := s.repo.GetActiveRound(ctx, raffleID)
	if err != nil {
		if errors.Is(err, ErrRoundNotFound) {
			return s.rotate(ctx, raffleID)
		}
		return domain.Round{}, fmt.Errorf("s.repo.GetActiveRound -> %w", err)
	}

	if round.Expired(s.now()) {
		return s.rotate(ctx, raffleID)
	}

	return round, nil
}

// rotate runs at most one rotation per raffle at a time. Late callers block
// on the in-flight rotation and share its outcome.
func (s *LifecycleService) rotate(ctx context.Context, raffleID string) (domain.Round, error) {
	s.mu.Lock()
	if inflight, ok := s.rotations[raffleID]; ok {
		s.mu.Unlock()
		select {
		case <-inflight.done:
			return inflight.round, inflight.err
		case <-ctx.Done():
			return domain.Round{}, ctx.Err()
		}
	}

	current := &rotation{done: make(chan struct{})}
	s.rotations[raffleID] = current
	s.mu.Unlock()

	current.round, current.err = s.doRotate(ctx, raffleID)

	s.mu.Lock()
	delete(s.rotations, raffleID)
	s.mu.Unlock()
	close(current.done)

	return current.round, current.err
}

func (s *LifecycleService) doRotate(ctx context.Context, raffleID string) (domain.Round, error) {
	// Re-read under the rotation guard. A rotation we joined too late to
	// notice may already have opened a fresh round.
	active, err := s.repo.GetActiveRound(ctx, raffleID)
	switch {
	case err == nil:
		if !active.Expired(s.now()) {
			return active, nil
		}
		if err := s.repo.MarkEnded(ctx, active.ID); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return domain.Round{}, fmt.Errorf("s.repo.MarkEnded -> %w", err)
		}
	case errors.Is(err, ErrRoundNotFound):
	default:
		return domain.Round{}, fmt.Errorf("s.repo.GetActiveRound -> %w", err)
	}

	maxNumber, err := s.repo.MaxRoundNumber(ctx, raffleID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("s.repo.MaxRoundNumber -> %w", err)
	}

	now := s.now()
	round, err := s.repo.Insert(ctx, domain.Round{
		ID:          uuid.NewString(),
		RaffleID:    raffleID,
		RoundNumber: maxNumber + 1,
		StartTime:   now,
		EndTime:     now.Add(s.roundDuration),
		Status:      domain.RoundStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateRound) {
			// Another process won the race. Its round is the round.
			existing, getErr := s.repo.GetActiveRound(ctx, raffleID)
			if getErr != nil {
				return domain.Round{}, fmt.Errorf("s.repo.GetActiveRound -> %w", getErr)
			}
			return existing, nil
		}
		return domain.Round{}, fmt.Errorf("s.repo.Insert -> %w", err)
	}

	zap.L().Info("round rotated",
		zap.String("raffle_id", raffleID),
		zap.String("round_id", round.ID),
		zap.Int("round_number", round.RoundNumber),
	)

	if s.committer != nil {
		if _, err := s.committer.CommitRound(ctx, round); err != nil {
			// The draw refuses to run without a commit, and the reconciler
			// backfills missing ones, so this is not fatal here.
			zap.L().Warn("draw commit failed for new round",
				zap.String("round_id", round.ID),
				zap.Error(err),
			)
		}
	}

	return round, nil
}

// RoundHistory lists the raffle's most recent rounds, newest first.
func (s *LifecycleService) RoundHistory(ctx context.Context, raffleID string, limit int) ([]domain.Round, error) {
	if _, ok := s.catalog.Get(raffleID); !ok {
		return nil, ErrRaffleNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rounds, err := s.repo.ListByRaffle(ctx, raffleID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByRaffle -> %w", err)
	}

	return rounds, nil
}

// GetRound fetches one round by id.
func (s *LifecycleService) GetRound(ctx context.Context, roundID string) (domain.Round, error) {
	round, err := s.repo.GetByID(ctx, roundID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return round, nil
}

// Catalog exposes the configured raffles.
func (s *LifecycleService) Catalog() []domain.Raffle {
	return s.catalog.All()
}

// Raffle looks up one configured raffle.
func (s *LifecycleService) Raffle(raffleID string) (domain.Raffle, error) {
	raffle, ok := s.catalog.Get(raffleID)
	if !ok {
		return domain.Raffle{}, ErrRaffleNotFound
	}
	return raffle, nil
}
