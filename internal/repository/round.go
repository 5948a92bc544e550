package repository

import (
	"context"

	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository/dao"
)

var (
	ErrRoundNotFound     = dao.ErrRoundNotFound
	ErrDuplicateRound    = dao.ErrDuplicateRound
	ErrInvalidTransition = dao.ErrInvalidTransition
	ErrStoreUnavailable  = dao.ErrStoreUnavailable
)

type RoundDAO interface {
	GetActiveRound(ctx context.Context, raffleID string) (dao.RaffleRound, error)
	GetByID(ctx context.Context, roundID string) (dao.RaffleRound, error)
	Insert(ctx context.Context, round dao.RaffleRound) (dao.RaffleRound, error)
	MarkEnded(ctx context.Context, roundID string) error
	MaxRoundNumber(ctx context.Context, raffleID string) (int, error)
	IncrementAggregates(ctx context.Context, roundID string, tickets int, amountWei int64, capacity int) error
	SetAggregates(ctx context.Context, roundID string, tickets int, amountWei int64) error
	RecordWinner(ctx context.Context, winner dao.RaffleWinner) error
	ListEndedWithoutWinner(ctx context.Context, limit int) ([]dao.RaffleRound, error)
	ListActive(ctx context.Context) ([]dao.RaffleRound, error)
	ListByRaffle(ctx context.Context, raffleID string, limit int) ([]dao.RaffleRound, error)
}

type RoundRepository struct {
	dao RoundDAO
}

func NewRoundRepository(dao RoundDAO) *RoundRepository {
	return &RoundRepository{
		dao: dao,
	}
}

func (r *RoundRepository) domainToDao(round domain.Round) dao.RaffleRound {
	return dao.RaffleRound{
		ID:                round.ID,
		RaffleID:          round.RaffleID,
		RoundNumber:       round.RoundNumber,
		StartTime:         round.StartTime,
		EndTime:           round.EndTime,
		Status:            string(round.Status),
		TotalTicketsSold:  round.TotalTicketsSold,
		TotalPrizePoolWei: round.TotalPrizePoolWei,
		WinnerAddress:     round.WinnerAddress,
		CreatedAt:         round.CreatedAt,
		UpdatedAt:         round.UpdatedAt,
	}
}

func (r *RoundRepository) daoToDomain(round dao.RaffleRound) domain.Round {
	return domain.Round{
		ID:                round.ID,
		RaffleID:          round.RaffleID,
		RoundNumber:       round.RoundNumber,
		StartTime:         round.StartTime,
		EndTime:           round.EndTime,
		Status:            domain.RoundStatus(round.Status),
		TotalTicketsSold:  round.TotalTicketsSold,
		TotalPrizePoolWei: round.TotalPrizePoolWei,
		WinnerAddress:     round.WinnerAddress,
		CreatedAt:         round.CreatedAt,
		UpdatedAt:         round.UpdatedAt,
	}
}

func (r *RoundRepository) daosToDomain(rounds []dao.RaffleRound) []domain.Round {
	out := make([]domain.Round, len(rounds))
	for i, round := range rounds {
		out[i] = r.daoToDomain(round)
	}
	return out
}

func (r *RoundRepository) GetActiveRound(ctx context.Context, raffleID string) (domain.Round, error) {
	round, err := r.dao.GetActiveRound(ctx, raffleID)
	if err != nil {
		return domain.Round{}, err
	}

	return r.daoToDomain(round), nil
}

func (r *RoundRepository) GetByID(ctx context.Context, roundID string) (domain.Round, error) {
	round, err := r.dao.GetByID(ctx, roundID)
	if err != nil {
		return domain.Round{}, err
	}

	return r.daoToDomain(round), nil
}

func (r *RoundRepository) Insert(ctx context.Context, round domain.Round) (domain.Round, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(round))
	if err != nil {
		return domain.Round{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *RoundRepository) MarkEnded(ctx context.Context, roundID string) error {
	return r.dao.MarkEnded(ctx, roundID)
}

func (r *RoundRepository) MaxRoundNumber(ctx context.Context, raffleID string) (int, error) {
	return r.dao.MaxRoundNumber(ctx, raffleID)
}

func (r *RoundRepository) IncrementAggregates(ctx context.Context, roundID string, tickets int, amountWei int64, capacity int) error {
	return r.dao.IncrementAggregates(ctx, roundID, tickets, amountWei, capacity)
}

func (r *RoundRepository) SetAggregates(ctx context.Context, roundID string, tickets int, amountWei int64) error {
	return r.dao.SetAggregates(ctx, roundID, tickets, amountWei)
}

func (r *RoundRepository) RecordWinner(ctx context.Context, winner domain.Winner) error {
	return r.dao.RecordWinner(ctx, dao.RaffleWinner{
		RoundID:        winner.RoundID,
		RaffleID:       winner.RaffleID,
		WalletAddress:  winner.WalletAddress,
		PrizeAmountWei: winner.PrizeAmountWei,
		CommitHash:     winner.CommitHash,
		Nonce:          winner.Nonce,
		Secret:         winner.Secret,
		Timestamp:      winner.Timestamp,
		WinningSlot:    winner.WinningSlot,
		TotalTickets:   winner.TotalTickets,
		DrawnAt:        winner.DrawnAt,
	})
}

func (r *RoundRepository) ListEndedWithoutWinner(ctx context.Context, limit int) ([]domain.Round, error) {
	rounds, err := r.dao.ListEndedWithoutWinner(ctx, limit)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(rounds), nil
}

func (r *RoundRepository) ListActive(ctx context.Context) ([]domain.Round, error) {
	rounds, err := r.dao.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(rounds), nil
}

func (r *RoundRepository) ListByRaffle(ctx context.Context, raffleID string, limit int) ([]domain.Round, error) {
	rounds, err := r.dao.ListByRaffle(ctx, raffleID, limit)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(rounds), nil
}
