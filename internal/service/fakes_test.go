package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lottagg/raffle-api/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres-backed repositories.
// It mirrors their semantics: conditional status transitions, the unique
// active-round constraint, the unique (raffle, round number) pair and the
// one-live-entry-per-payment-hash constraint.
type fakeStore struct {
	mu          sync.Mutex
	rounds      map[string]*domain.Round
	entries     []*domain.Entry
	nextEntryID uint
	commits     map[string]domain.DrawCommit
	winners     map[string]*domain.Winner
	nextWinID   uint

	// failures > 0 makes the next reads fail as if the store were down.
	failures int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rounds:  make(map[string]*domain.Round),
		commits: make(map[string]domain.DrawCommit),
		winners: make(map[string]*domain.Winner),
	}
}

func (s *fakeStore) failOnce() error {
	if s.failures > 0 {
		s.failures--
		return fmt.Errorf("%w: connection refused", ErrStoreUnavailable)
	}
	return nil
}

type fakeRounds struct{ s *fakeStore }
type fakeEntries struct{ s *fakeStore }
type fakeWinners struct{ s *fakeStore }

func (f *fakeRounds) GetActiveRound(_ context.Context, raffleID string) (domain.Round, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.failOnce(); err != nil {
		return domain.Round{}, err
	}

	var found *domain.Round
	for _, r := range f.s.rounds {
		if r.RaffleID == raffleID && r.Status == domain.RoundStatusActive {
			if found == nil || r.StartTime.After(found.StartTime) {
				found = r
			}
		}
	}
	if found == nil {
		return domain.Round{}, ErrRoundNotFound
	}
	return *found, nil
}

func (f *fakeRounds) GetByID(_ context.Context, roundID string) (domain.Round, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	r, ok := f.s.rounds[roundID]
	if !ok {
		return domain.Round{}, ErrRoundNotFound
	}
	return *r, nil
}

func (f *fakeRounds) Insert(_ context.Context, round domain.Round) (domain.Round, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.failOnce(); err != nil {
		return domain.Round{}, err
	}

	for _, r := range f.s.rounds {
		if r.RaffleID == round.RaffleID && r.RoundNumber == round.RoundNumber {
			return domain.Round{}, ErrDuplicateRound
		}
		if r.RaffleID == round.RaffleID && r.Status == domain.RoundStatusActive && round.Status == domain.RoundStatusActive {
			return domain.Round{}, ErrDuplicateRound
		}
	}

	stored := round
	f.s.rounds[round.ID] = &stored
	return round, nil
}

func (f *fakeRounds) MarkEnded(_ context.Context, roundID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	r, ok := f.s.rounds[roundID]
	if !ok {
		return ErrRoundNotFound
	}
	if r.Status != domain.RoundStatusActive {
		return ErrInvalidTransition
	}
	r.Status = domain.RoundStatusEnded
	return nil
}

func (f *fakeRounds) MaxRoundNumber(_ context.Context, raffleID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	max := 0
	for _, r := range f.s.rounds {
		if r.RaffleID == raffleID && r.RoundNumber > max {
			max = r.RoundNumber
		}
	}
	return max, nil
}

func (f *fakeRounds) IncrementAggregates(_ context.Context, roundID string, tickets int, amountWei int64, capacity int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	r, ok := f.s.rounds[roundID]
	if !ok {
		return ErrRoundNotFound
	}
	if r.Status != domain.RoundStatusActive {
		return ErrInvalidTransition
	}
	r.TotalTicketsSold += tickets
	if r.TotalTicketsSold > capacity {
		r.TotalTicketsSold = capacity
	}
	r.TotalPrizePoolWei += amountWei
	return nil
}

func (f *fakeRounds) SetAggregates(_ context.Context, roundID string, tickets int, amountWei int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	r, ok := f.s.rounds[roundID]
	if !ok {
		return ErrRoundNotFound
	}
	if r.TotalTicketsSold > tickets {
		return ErrInvalidTransition
	}
	r.TotalTicketsSold = tickets
	r.TotalPrizePoolWei = amountWei
	return nil
}

func (f *fakeRounds) RecordWinner(_ context.Context, winner domain.Winner) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	r, ok := f.s.rounds[winner.RoundID]
	if !ok {
		return ErrRoundNotFound
	}
	if r.Status != domain.RoundStatusEnded {
		return ErrInvalidTransition
	}
	if _, exists := f.s.winners[winner.RoundID]; exists {
		return ErrInvalidTransition
	}

	r.Status = domain.RoundStatusDrawn
	r.WinnerAddress = winner.WalletAddress

	f.s.nextWinID++
	stored := winner
	stored.ID = f.s.nextWinID
	f.s.winners[winner.RoundID] = &stored

	if c, ok := f.s.commits[winner.RoundID]; ok {
		c.Revealed = true
		f.s.commits[winner.RoundID] = c
	}
	return nil
}

func (f *fakeRounds) ListEndedWithoutWinner(_ context.Context, limit int) ([]domain.Round, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Round
	for _, r := range f.s.rounds {
		if r.Status == domain.RoundStatusEnded {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRounds) ListActive(_ context.Context) ([]domain.Round, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Round
	for _, r := range f.s.rounds {
		if r.Status == domain.RoundStatusActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRounds) ListByRaffle(_ context.Context, raffleID string, limit int) ([]domain.Round, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Round
	for _, r := range f.s.rounds {
		if r.RaffleID == raffleID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber > out[j].RoundNumber })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEntries) Insert(_ context.Context, entry domain.Entry) (domain.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if entry.Type == domain.EntryTypeRaffleEntry && entry.TxHash != "" {
		for _, e := range f.s.entries {
			if e.Type == domain.EntryTypeRaffleEntry && e.TxHash == entry.TxHash &&
				e.Status != domain.EntryStatusFailed {
				return domain.Entry{}, ErrPaymentReused
			}
		}
	}

	f.s.nextEntryID++
	entry.ID = f.s.nextEntryID
	stored := entry
	f.s.entries = append(f.s.entries, &stored)
	return entry, nil
}

func (f *fakeEntries) Settle(_ context.Context, entryID uint, txHash string, status domain.EntryStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, e := range f.s.entries {
		if e.ID != entryID {
			continue
		}
		if e.Status != domain.EntryStatusPending {
			return ErrEntrySettled
		}
		if txHash != "" {
			e.TxHash = txHash
		}
		e.Status = status
		return nil
	}
	return ErrEntryNotFound
}

func (f *fakeEntries) GetByID(_ context.Context, entryID uint) (domain.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, e := range f.s.entries {
		if e.ID == entryID {
			return *e, nil
		}
	}
	return domain.Entry{}, ErrEntryNotFound
}

func (f *fakeEntries) HasEntered(_ context.Context, roundID string, walletAddress string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, e := range f.s.entries {
		if e.RoundID == roundID && e.WalletAddress == walletAddress &&
			e.Type == domain.EntryTypeRaffleEntry && e.Status == domain.EntryStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEntries) ListConfirmedByRound(_ context.Context, roundID string) ([]domain.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Entry
	for _, e := range f.s.entries {
		if e.RoundID == roundID && e.Type == domain.EntryTypeRaffleEntry && e.Status == domain.EntryStatusConfirmed {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEntries) ListByWallet(_ context.Context, walletAddress string, limit int) ([]domain.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Entry
	for _, e := range f.s.entries {
		if e.WalletAddress == walletAddress {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEntries) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Entry
	for _, e := range f.s.entries {
		if e.Status == domain.EntryStatusPending && e.CreatedAt.Before(cutoff) {
			out = append(out, *e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEntries) SumConfirmedByRound(_ context.Context, roundID string) (int, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var tickets int
	var amount int64
	for _, e := range f.s.entries {
		if e.RoundID == roundID && e.Type == domain.EntryTypeRaffleEntry && e.Status == domain.EntryStatusConfirmed {
			tickets += e.TicketCount
			amount += e.AmountWei
		}
	}
	return tickets, amount, nil
}

func (f *fakeWinners) InsertCommit(_ context.Context, commit domain.DrawCommit) (domain.DrawCommit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if existing, ok := f.s.commits[commit.RoundID]; ok {
		return existing, nil
	}
	f.s.commits[commit.RoundID] = commit
	return commit, nil
}

func (f *fakeWinners) GetCommit(_ context.Context, roundID string) (domain.DrawCommit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	commit, ok := f.s.commits[roundID]
	if !ok {
		return domain.DrawCommit{}, ErrCommitNotFound
	}
	return commit, nil
}

func (f *fakeWinners) GetByRound(_ context.Context, roundID string) (domain.Winner, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	w, ok := f.s.winners[roundID]
	if !ok {
		return domain.Winner{}, ErrWinnerNotFound
	}
	return *w, nil
}

func (f *fakeWinners) ListRecent(_ context.Context, limit int) ([]domain.Winner, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Winner
	for _, w := range f.s.winners {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrawnAt.After(out[j].DrawnAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWinners) ListByWallet(_ context.Context, walletAddress string) ([]domain.Winner, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []domain.Winner
	for _, w := range f.s.winners {
		if w.WalletAddress == walletAddress {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrawnAt.After(out[j].DrawnAt) })
	return out, nil
}

func (f *fakeWinners) MarkClaimed(_ context.Context, roundID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	w, ok := f.s.winners[roundID]
	if !ok {
		return ErrWinnerNotFound
	}
	if w.Claimed {
		return ErrAlreadyClaimed
	}
	w.Claimed = true
	return nil
}

func (f *fakeWinners) SetClaimTxHash(_ context.Context, roundID string, claimTxHash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	w, ok := f.s.winners[roundID]
	if !ok || !w.Claimed {
		return ErrWinnerNotFound
	}
	w.ClaimTxHash = claimTxHash
	return nil
}

type recordedPayout struct {
	wallet    string
	amountWei int64
}

// fakeGateway plays the chain. Every verification succeeds unless told
// otherwise, and Payout hands back a canned transaction hash.
type fakeGateway struct {
	mu          sync.Mutex
	verifyErr   error
	verifyDelay time.Duration
	statuses    map[string]PaymentState
	payouts     []recordedPayout
	payoutErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statuses: make(map[string]PaymentState),
	}
}

func (g *fakeGateway) Verify(ctx context.Context, req PaymentRequest) (PaymentReceipt, error) {
	g.mu.Lock()
	delay := g.verifyDelay
	verifyErr := g.verifyErr
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return PaymentReceipt{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if verifyErr != nil {
		return PaymentReceipt{}, verifyErr
	}
	return PaymentReceipt{TxHash: req.TxHash}, nil
}

func (g *fakeGateway) Status(_ context.Context, txHash string) (PaymentState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if state, ok := g.statuses[txHash]; ok {
		return state, nil
	}
	return PaymentStateConfirmed, nil
}

func (g *fakeGateway) Payout(_ context.Context, walletAddress string, amountWei int64) (PaymentReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.payoutErr != nil {
		return PaymentReceipt{}, g.payoutErr
	}
	g.payouts = append(g.payouts, recordedPayout{wallet: walletAddress, amountWei: amountWei})
	return PaymentReceipt{TxHash: fmt.Sprintf("0xpayout%d", len(g.payouts))}, nil
}

func testCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.Raffle{
		{ID: "1", Title: "0.23 BNB Raffle", TicketPriceWei: 19400000000000000, PrizeWei: 230000000000000000, Capacity: 20},
		{ID: "3", Title: "0.0389 BNB Raffle", TicketPriceWei: 2300000000000000, PrizeWei: 38900000000000000, Capacity: 80},
		{ID: "4", Title: "Free Raffle", TicketPriceWei: 0, PrizeWei: 322000000000000000, Capacity: 100},
	})
}

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
