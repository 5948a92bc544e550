package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottagg/raffle-api/internal/domain"
)

type lifecycleFixture struct {
	store     *fakeStore
	clock     *testClock
	lifecycle *LifecycleService
	draws     *FairDrawService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	store := newFakeStore()
	rounds := &fakeRounds{s: store}
	entries := &fakeEntries{s: store}
	winners := &fakeWinners{s: store}
	catalog := testCatalog()
	clock := newTestClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	draws := NewFairDrawService(catalog, rounds, winners, entries, 1000)
	lifecycle := NewLifecycleService(catalog, rounds, draws, 24*time.Hour)
	lifecycle.now = clock.Now

	return &lifecycleFixture{
		store:     store,
		clock:     clock,
		lifecycle: lifecycle,
		draws:     draws,
	}
}

func TestEnsureCurrentRound_OpensFirstRound(t *testing.T) {
	f := newLifecycleFixture(t)

	round, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)

	assert.Equal(t, "3", round.RaffleID)
	assert.Equal(t, 1, round.RoundNumber)
	assert.Equal(t, domain.RoundStatusActive, round.Status)
	assert.Equal(t, f.clock.Now(), round.StartTime)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), round.EndTime)

	// A fresh round gets its commitment immediately.
	commit, err := f.draws.Commit(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Len(t, commit.CommitHash, 64)
	assert.False(t, commit.Revealed)
}

func TestEnsureCurrentRound_ReturnsLiveRound(t *testing.T) {
	f := newLifecycleFixture(t)

	first, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)

	again, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestEnsureCurrentRound_RotatesExpired(t *testing.T) {
	f := newLifecycleFixture(t)

	first, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	second, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, second.RoundNumber)
	assert.Equal(t, f.clock.Now(), second.StartTime)

	ended, err := f.lifecycle.GetRound(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStatusEnded, ended.Status)
}

func TestEnsureCurrentRound_ConcurrentRotationsShareOneRound(t *testing.T) {
	f := newLifecycleFixture(t)

	first, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)
	f.clock.Advance(25 * time.Hour)

	const callers = 20
	results := make([]domain.Round, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.lifecycle.EnsureCurrentRound(context.Background(), "3")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
		assert.NotEqual(t, first.ID, results[i].ID)
	}

	// Exactly one rotation happened: the old round plus one successor.
	f.store.mu.Lock()
	assert.Len(t, f.store.rounds, 2)
	f.store.mu.Unlock()
}

func TestEnsureCurrentRound_RetriesTransientStoreFailure(t *testing.T) {
	f := newLifecycleFixture(t)

	f.store.mu.Lock()
	f.store.failures = 2
	f.store.mu.Unlock()

	round, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, 1, round.RoundNumber)
}

func TestEnsureCurrentRound_UnknownRaffle(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.lifecycle.EnsureCurrentRound(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRaffleNotFound)
}

func TestCurrentRound_NoActiveRound(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.lifecycle.CurrentRound(context.Background(), "3")
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestRoundHistory(t *testing.T) {
	f := newLifecycleFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.lifecycle.EnsureCurrentRound(context.Background(), "3")
		require.NoError(t, err)
		f.clock.Advance(25 * time.Hour)
	}

	rounds, err := f.lifecycle.RoundHistory(context.Background(), "3", 2)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 3, rounds[0].RoundNumber)
	assert.Equal(t, 2, rounds[1].RoundNumber)
}
