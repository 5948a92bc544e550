package repository

import (
	"context"

	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/repository/dao"
)

var (
	ErrWinnerNotFound = dao.ErrWinnerNotFound
	ErrCommitNotFound = dao.ErrCommitNotFound
	ErrAlreadyClaimed = dao.ErrAlreadyClaimed
)

type WinnerDAO interface {
	InsertCommit(ctx context.Context, commit dao.DrawCommit) (dao.DrawCommit, error)
	GetCommit(ctx context.Context, roundID string) (dao.DrawCommit, error)
	GetByRound(ctx context.Context, roundID string) (dao.RaffleWinner, error)
	ListRecent(ctx context.Context, limit int) ([]dao.RaffleWinner, error)
	ListByWallet(ctx context.Context, walletAddress string) ([]dao.RaffleWinner, error)
	MarkClaimed(ctx context.Context, roundID string) error
	SetClaimTxHash(ctx context.Context, roundID string, claimTxHash string) error
}

type WinnerRepository struct {
	dao WinnerDAO
}

func NewWinnerRepository(dao WinnerDAO) *WinnerRepository {
	return &WinnerRepository{
		dao: dao,
	}
}

func (r *WinnerRepository) commitDaoToDomain(commit dao.DrawCommit) domain.DrawCommit {
	return domain.DrawCommit{
		RoundID:    commit.RoundID,
		Nonce:      commit.Nonce,
		Secret:     commit.Secret,
		Timestamp:  commit.Timestamp,
		CommitHash: commit.CommitHash,
		Revealed:   commit.Revealed,
		CreatedAt:  commit.CreatedAt,
	}
}

func (r *WinnerRepository) daoToDomain(winner dao.RaffleWinner) domain.Winner {
	return domain.Winner{
		ID:             winner.ID,
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
		Claimed:        winner.Claimed,
		ClaimTxHash:    winner.ClaimTxHash,
	}
}

func (r *WinnerRepository) daosToDomain(winners []dao.RaffleWinner) []domain.Winner {
	out := make([]domain.Winner, len(winners))
	for i, winner := range winners {
		out[i] = r.daoToDomain(winner)
	}
	return out
}

func (r *WinnerRepository) InsertCommit(ctx context.Context, commit domain.DrawCommit) (domain.DrawCommit, error) {
	created, err := r.dao.InsertCommit(ctx, dao.DrawCommit{
		RoundID:    commit.RoundID,
		Nonce:      commit.Nonce,
		Secret:     commit.Secret,
		Timestamp:  commit.Timestamp,
		CommitHash: commit.CommitHash,
		Revealed:   commit.Revealed,
		CreatedAt:  commit.CreatedAt,
	})
	if err != nil {
		return domain.DrawCommit{}, err
	}

	return r.commitDaoToDomain(created), nil
}

func (r *WinnerRepository) GetCommit(ctx context.Context, roundID string) (domain.DrawCommit, error) {
	commit, err := r.dao.GetCommit(ctx, roundID)
	if err != nil {
		return domain.DrawCommit{}, err
	}

	return r.commitDaoToDomain(commit), nil
}

func (r *WinnerRepository) GetByRound(ctx context.Context, roundID string) (domain.Winner, error) {
	winner, err := r.dao.GetByRound(ctx, roundID)
	if err != nil {
		return domain.Winner{}, err
	}

	return r.daoToDomain(winner), nil
}

func (r *WinnerRepository) ListRecent(ctx context.Context, limit int) ([]domain.Winner, error) {
	winners, err := r.dao.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(winners), nil
}

func (r *WinnerRepository) ListByWallet(ctx context.Context, walletAddress string) ([]domain.Winner, error) {
	winners, err := r.dao.ListByWallet(ctx, domain.NormalizeAddress(walletAddress))
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(winners), nil
}

func (r *WinnerRepository) MarkClaimed(ctx context.Context, roundID string) error {
	return r.dao.MarkClaimed(ctx, roundID)
}

func (r *WinnerRepository) SetClaimTxHash(ctx context.Context, roundID string, claimTxHash string) error {
	return r.dao.SetClaimTxHash(ctx, roundID, claimTxHash)
}
