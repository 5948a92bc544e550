package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lottagg/raffle-api/internal/api/handler/v1/request"
	"github.com/lottagg/raffle-api/internal/api/handler/v1/response"
	"github.com/lottagg/raffle-api/internal/domain"
	"github.com/lottagg/raffle-api/internal/service"
)

type RaffleService interface {
	Catalog() []domain.Raffle
	Raffle(raffleID string) (domain.Raffle, error)
	CurrentRound(ctx context.Context, raffleID string) (domain.Round, error)
	EnsureCurrentRound(ctx context.Context, raffleID string) (domain.Round, error)
	RoundHistory(ctx context.Context, raffleID string, limit int) ([]domain.Round, error)
	GetRound(ctx context.Context, roundID string) (domain.Round, error)
}

type EntryOrchestrator interface {
	Enter(ctx context.Context, raffleID string, walletAddress string, ticketCount int, paymentTxHash string) (domain.Entry, error)
	HasEntered(ctx context.Context, raffleID string, walletAddress string) (bool, error)
	ClaimPrize(ctx context.Context, roundID string, walletAddress string) (domain.Entry, error)
}

type DrawService interface {
	Commit(ctx context.Context, roundID string) (domain.DrawCommit, error)
	WinnerByRound(ctx context.Context, roundID string) (domain.Winner, error)
	RecentWinners(ctx context.Context, limit int) ([]domain.Winner, error)
}

type StatsProvider interface {
	UserStats(ctx context.Context, walletAddress string) (domain.UserStats, error)
	Transactions(ctx context.Context, walletAddress string, limit int) ([]domain.Entry, error)
	Wins(ctx context.Context, walletAddress string) ([]domain.Winner, error)
}

type RaffleHandler struct {
	svc     RaffleService
	entries EntryOrchestrator
	draws   DrawService
	stats   StatsProvider
}

func NewRaffleHandler(svc RaffleService, entries EntryOrchestrator, draws DrawService, stats StatsProvider) *RaffleHandler {
	return &RaffleHandler{
		svc:     svc,
		entries: entries,
		draws:   draws,
		stats:   stats,
	}
}

// renderServiceErr maps service failures onto HTTP statuses.
func renderServiceErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRaffleNotFound),
		errors.Is(err, service.ErrRoundNotFound),
		errors.Is(err, service.ErrNoActiveRound),
		errors.Is(err, service.ErrWinnerNotFound),
		errors.Is(err, service.ErrCommitMissing):
		response.RenderErr(ctx, response.ErrNotFound(err))
	case errors.Is(err, service.ErrRoundClosed),
		errors.Is(err, service.ErrAlreadyEntered),
		errors.Is(err, service.ErrRoundNotEnded),
		errors.Is(err, service.ErrNoEntrants),
		errors.Is(err, service.ErrNotWinner),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPaymentReused):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrInvalidTickets),
		errors.Is(err, service.ErrPaymentRejected):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrPaymentTimeout),
		errors.Is(err, service.ErrAbandoned):
		response.RenderErr(ctx, response.ErrGatewayTimeout(err))
	case errors.Is(err, service.ErrStoreUnavailable):
		response.RenderErr(ctx, response.ErrServiceUnavailable(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

// HandleListRaffles godoc
// @Summary      List all raffles with their current rounds
// @Tags         raffles
// @Produce      json
// @Success      200  {array}   response.RaffleWithRound
// @Router       /raffles [get]
func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
	raffles := h.svc.Catalog()

	out := make([]response.RaffleWithRound, 0, len(raffles))
	for _, raffle := range raffles {
		item := response.RaffleWithRound{Raffle: raffle}
		round, err := h.svc.CurrentRound(ctx.Request.Context(), raffle.ID)
		if err == nil {
			item.Round = &round
		} else if !errors.Is(err, service.ErrNoActiveRound) {
			renderServiceErr(ctx, err)
			return
		}
		out = append(out, item)
	}

	ctx.JSON(http.StatusOK, out)
}

// HandleGetCurrentRound godoc
// @Summary      Get the raffle's current round, opening one if needed
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true  "raffle ID"
// @Success      200       {object}  domain.Round
// @Failure      404       {object}  response.Err
// @Failure      503       {object}  response.Err
// @Router       /raffles/{raffleID}/round [get]
func (h *RaffleHandler) HandleGetCurrentRound(ctx *gin.Context) {
	round, err := h.svc.EnsureCurrentRound(ctx.Request.Context(), ctx.Param("raffleID"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, round)
}

// HandleGetRoundHistory godoc
// @Summary      List the raffle's most recent rounds
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true   "raffle ID"
// @Param        limit     query     int     false  "max rounds to return"
// @Success      200       {array}   domain.Round
// @Failure      404       {object}  response.Err
// @Router       /raffles/{raffleID}/rounds [get]
func (h *RaffleHandler) HandleGetRoundHistory(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	rounds, err := h.svc.RoundHistory(ctx.Request.Context(), ctx.Param("raffleID"), limit)
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, rounds)
}

// HandleEnterRaffle godoc
// @Summary      Enter the raffle's current round
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        raffleID  path      string                      true  "raffle ID"
// @Param        request   body      request.EnterRaffleRequest  true  "request body"
// @Success      201       {object}  domain.Entry
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      504       {object}  response.Err
// @Router       /raffles/{raffleID}/enter [post]
func (h *RaffleHandler) HandleEnterRaffle(ctx *gin.Context) {
	var req request.EnterRaffleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.entries.Enter(ctx.Request.Context(), ctx.Param("raffleID"), req.WalletAddress, req.TicketCount, req.TxHash)
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandleCheckEntered godoc
// @Summary      Check whether a wallet entered the raffle's current round
// @Tags         raffles
// @Produce      json
// @Param        raffleID        path      string  true  "raffle ID"
// @Param        wallet_address  query     string  true  "wallet address"
// @Success      200             {object}  response.EnteredResponse
// @Failure      400             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Router       /raffles/{raffleID}/entered [get]
func (h *RaffleHandler) HandleCheckEntered(ctx *gin.Context) {
	wallet := ctx.Query("wallet_address")
	if wallet == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("wallet_address is required")))
		return
	}

	entered, err := h.entries.HasEntered(ctx.Request.Context(), ctx.Param("raffleID"), wallet)
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.EnteredResponse{Entered: entered})
}

// HandleGetRound godoc
// @Summary      Get one round by ID
// @Tags         rounds
// @Produce      json
// @Param        roundID  path      string  true  "round ID"
// @Success      200      {object}  domain.Round
// @Failure      404      {object}  response.Err
// @Router       /rounds/{roundID} [get]
func (h *RaffleHandler) HandleGetRound(ctx *gin.Context) {
	round, err := h.svc.GetRound(ctx.Request.Context(), ctx.Param("roundID"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, round)
}

// HandleGetCommit godoc
// @Summary      Get the round's draw commitment
// @Tags         rounds
// @Produce      json
// @Param        roundID  path      string  true  "round ID"
// @Success      200      {object}  response.CommitResponse
// @Failure      404      {object}  response.Err
// @Router       /rounds/{roundID}/commit [get]
func (h *RaffleHandler) HandleGetCommit(ctx *gin.Context) {
	commit, err := h.draws.Commit(ctx.Request.Context(), ctx.Param("roundID"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	out := response.CommitResponse{
		RoundID:    commit.RoundID,
		CommitHash: commit.CommitHash,
		Revealed:   commit.Revealed,
	}
	if commit.Revealed {
		payload := commit.Payload()
		out.Reveal = &payload
	}

	ctx.JSON(http.StatusOK, out)
}

// HandleGetRoundWinner godoc
// @Summary      Get the round's winner
// @Tags         rounds
// @Produce      json
// @Param        roundID  path      string  true  "round ID"
// @Success      200      {object}  domain.Winner
// @Failure      404      {object}  response.Err
// @Router       /rounds/{roundID}/winner [get]
func (h *RaffleHandler) HandleGetRoundWinner(ctx *gin.Context) {
	winner, err := h.draws.WinnerByRound(ctx.Request.Context(), ctx.Param("roundID"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, winner)
}

// HandleClaimPrize godoc
// @Summary      Claim the round's prize
// @Tags         rounds
// @Accept       json
// @Produce      json
// @Param        roundID  path      string                    true  "round ID"
// @Param        request  body      request.ClaimPrizeRequest  true  "request body"
// @Success      200      {object}  domain.Entry
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /rounds/{roundID}/claim [post]
func (h *RaffleHandler) HandleClaimPrize(ctx *gin.Context) {
	var req request.ClaimPrizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.entries.ClaimPrize(ctx.Request.Context(), ctx.Param("roundID"), req.WalletAddress)
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, entry)
}

// HandleListWinners godoc
// @Summary      List recent winners across all raffles
// @Tags         winners
// @Produce      json
// @Param        limit  query     int  false  "max winners to return"
// @Success      200    {array}   domain.Winner
// @Router       /winners [get]
func (h *RaffleHandler) HandleListWinners(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	winners, err := h.draws.RecentWinners(ctx.Request.Context(), limit)
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, winners)
}

// HandleGetUserStats godoc
// @Summary      Get a wallet's ledger-derived statistics
// @Tags         users
// @Produce      json
// @Param        walletAddress  path      string  true  "wallet address"
// @Success      200            {object}  domain.UserStats
// @Router       /users/{walletAddress}/stats [get]
func (h *RaffleHandler) HandleGetUserStats(ctx *gin.Context) {
	stats, err := h.stats.UserStats(ctx.Request.Context(), ctx.Param("walletAddress"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleGetUserTransactions godoc
// @Summary      Get a wallet's transaction history
// @Tags         users
// @Produce      json
// @Param        walletAddress  path      string  true   "wallet address"
// @Param        limit          query     int     false  "max entries to return"
// @Success      200            {array}   domain.Entry
// @Router       /users/{walletAddress}/transactions [get]
func (h *RaffleHandler) HandleGetUserTransactions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	entries, err := h.stats.Transactions(ctx.Request.Context(), ctx.Param("walletAddress"), limit)
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleGetUserWins godoc
// @Summary      Get a wallet's wins
// @Tags         users
// @Produce      json
// @Param        walletAddress  path      string  true  "wallet address"
// @Success      200            {array}   domain.Winner
// @Router       /users/{walletAddress}/wins [get]
func (h *RaffleHandler) HandleGetUserWins(ctx *gin.Context) {
	winners, err := h.stats.Wins(ctx.Request.Context(), ctx.Param("walletAddress"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, winners)
}
