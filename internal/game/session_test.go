package game

import (
	"context"
	"io"
	rand "math/rand/v2"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/poker"
)

// newTestSession deals the given cards in order: player, dealer, flop,
// turn, river.
func newTestSession(t *testing.T, cards string, opts ...Option) *Session {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	rules := DefaultRules()
	rules.Simulations = 50

	base := []Option{
		WithRules(rules),
		WithRNG(randutil.New(42)),
		WithLogger(logger),
		WithEstimator(analysis.NewEstimator(analysis.WithWorkers(2), analysis.WithLogger(logger))),
	}
	if cards != "" {
		stacked := poker.MustParseCards(cards)
		base = append(base, WithDeckFunc(func(*rand.Rand) *poker.Deck {
			return poker.NewDeckFromCards(stacked)
		}))
	}
	return NewSession(append(base, opts...)...)
}

func playToShowdown(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Call(ctx))
	}
}

func TestShowdownOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		cards     string
		outcome   Outcome
		net       int
		wantChips int
	}{
		{"dealer does not qualify", "AsAh2c7dAdKc9s4h3d", OutcomeNotQualified, 20, 1020},
		{"player beats qualified dealer", "AsAh5c5dKc9s4h2d7c", OutcomeWin, 20, 1020},
		{"dealer wins", "2c3dKsKhAd9c7h5sJd", OutcomeLoss, -30, 970},
		{"board plays for both", "2c3d4h5hAsKsQsJsTs", OutcomeTie, 0, 1000},
		{"dealer pair of threes does not qualify", "2c4d3c3dKh9s7h6cJd", OutcomeNotQualified, 20, 1020},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, tt.cards)
			playToShowdown(t, s)

			snap := s.Snapshot()
			require.NotNil(t, snap.Round)
			require.NotNil(t, snap.Round.Result)
			assert.Equal(t, Finished, snap.Round.Phase)
			assert.Equal(t, tt.outcome, snap.Round.Result.Outcome)
			assert.Equal(t, tt.net, snap.Round.Result.Net)
			assert.Equal(t, tt.wantChips, s.Chips())

			history := s.History()
			require.Len(t, history, 1)
			assert.Equal(t, tt.outcome, history[0].Outcome)
			assert.Equal(t, snap.Round.ID, history[0].RoundID)
		})
	}
}

func TestCallSequence(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "AsAh5c5dKc9s4h2d7c")

	require.NoError(t, s.Start(ctx))
	snap := s.Snapshot()
	assert.Equal(t, PreFlop, snap.Round.Phase)
	assert.Equal(t, 990, snap.Chips)
	assert.Equal(t, 10, snap.Round.Staked)
	assert.Empty(t, snap.Round.Board)
	assert.Nil(t, snap.Round.Dealer, "dealer cards are hidden while in play")

	wantBoard := []int{3, 4, 5}
	wantPhase := []Phase{Flop, Turn, River}
	for i := range wantBoard {
		require.NoError(t, s.Call(ctx))
		snap = s.Snapshot()
		assert.Equal(t, wantPhase[i], snap.Round.Phase)
		assert.Len(t, snap.Round.Board, wantBoard[i])
	}
	assert.Equal(t, 970, snap.Chips, "call costs twice the ante")
	assert.Equal(t, 30, snap.Round.Staked)

	require.NoError(t, s.Call(ctx))
	snap = s.Snapshot()
	assert.Equal(t, Finished, snap.Round.Phase)
	assert.Equal(t, poker.MustParseCards("5c5d"), snap.Round.Dealer)

	assert.ErrorIs(t, s.Call(ctx), ErrInvalidAction, "no call after the showdown")
}

func TestFold(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "")

	assert.ErrorIs(t, s.Fold(), ErrInvalidAction, "nothing to fold yet")

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Fold())

	assert.Equal(t, 990, s.Chips())
	assert.Equal(t, 0.0, s.WinRate())
	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, OutcomeFold, history[0].Outcome)
	assert.Equal(t, -10, history[0].Net)

	snap := s.Snapshot()
	assert.Equal(t, Finished, snap.Round.Phase)
	assert.Len(t, snap.Round.Dealer, 2, "dealer cards are shown after a fold")

	t.Run("not after the flop", func(t *testing.T) {
		s := newTestSession(t, "")
		require.NoError(t, s.Start(ctx))
		require.NoError(t, s.Call(ctx))
		assert.ErrorIs(t, s.Fold(), ErrInvalidAction)
		assert.Equal(t, Flop, s.Snapshot().Round.Phase)
	})
}

func TestStartWhileInPlay(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "")
	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), ErrInvalidAction)
	assert.Equal(t, 990, s.Chips(), "a rejected start takes no ante")
}

func TestInsufficientChips(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot start", func(t *testing.T) {
		rules := DefaultRules()
		rules.StartingChips = 15
		s := newTestSession(t, "", WithRules(rules))

		assert.ErrorIs(t, s.Start(ctx), ErrInsufficientChips)
		assert.Equal(t, 15, s.Chips())
		assert.Nil(t, s.Snapshot().Round)
		assert.Equal(t, "Insufficient chips!", s.Snapshot().Message)
	})

	t.Run("cannot call", func(t *testing.T) {
		rules := DefaultRules()
		rules.StartingChips = 25
		rules.Simulations = 10
		s := newTestSession(t, "", WithRules(rules))

		require.NoError(t, s.Start(ctx))
		assert.ErrorIs(t, s.Call(ctx), ErrInsufficientChips)
		assert.Equal(t, 15, s.Chips())
		assert.Equal(t, PreFlop, s.Snapshot().Round.Phase)

		// Folding is still possible.
		require.NoError(t, s.Fold())
	})
}

func TestShortDeckVoidsRound(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "AsAh5c5dKc")

	require.NoError(t, s.Start(ctx))
	err := s.Call(ctx)
	assert.ErrorIs(t, err, poker.ErrEmptyDeck)

	snap := s.Snapshot()
	assert.Equal(t, Finished, snap.Round.Phase)
	assert.Equal(t, 1000, snap.Chips, "stakes are returned")
	assert.Empty(t, snap.History)
	assert.Contains(t, snap.Message, "voided")

	t.Run("too few cards to deal hole cards", func(t *testing.T) {
		s := newTestSession(t, "AsAh5c")
		assert.ErrorIs(t, s.Start(ctx), poker.ErrEmptyDeck)
		assert.Equal(t, 1000, s.Chips())
	})
}

func TestHistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "")

	var ids []string
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Start(ctx))
		ids = append(ids, s.Snapshot().Round.ID)
		require.NoError(t, s.Fold())
	}

	history := s.History()
	require.Len(t, history, 5)
	assert.Equal(t, ids[6], history[0].RoundID, "newest first")
	assert.Equal(t, ids[2], history[4].RoundID)
	assert.Equal(t, 7, s.Snapshot().Played)
	assert.Equal(t, 930, s.Chips())
}

func TestWinRate(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "AsAh5c5dKc9s4h2d7c")
	playToShowdown(t, s)

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Fold())

	assert.Equal(t, 50.0, s.WinRate())
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "AsAh5c5dKc9s4h2d7c")

	_, err := s.Stats()
	assert.ErrorIs(t, err, ErrNoRound)

	require.NoError(t, s.Start(ctx))
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, poker.CategoryPremium, stats.HoleCategory)
	assert.Equal(t, "High Card", stats.Hand)
	assert.Zero(t, stats.Outs)
	assert.Equal(t, 50, stats.Equity.Trials)

	require.NoError(t, s.Call(ctx))
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, "Pair", stats.Hand)
	assert.Equal(t, analysis.CountOuts(poker.MustParseCards("AsAh"), poker.MustParseCards("Kc9s4h")), stats.Outs)
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "2c3dKsKhAd9c7h5sJd")

	_, err := s.Compare()
	assert.ErrorIs(t, err, ErrNoRound)

	require.NoError(t, s.Start(ctx))
	_, err = s.Compare()
	assert.ErrorIs(t, err, ErrInvalidAction, "dealer cards stay hidden pre-flop")

	for range 3 {
		require.NoError(t, s.Call(ctx))
		_, err = s.Compare()
		assert.ErrorIs(t, err, ErrInvalidAction, "dealer cards stay hidden during play")
	}

	require.NoError(t, s.Call(ctx))
	cmp, err := s.Compare()
	require.NoError(t, err)
	assert.Equal(t, "dealer", cmp.Winner)
	assert.Equal(t, "High Card", cmp.PlayerHand)
	assert.Equal(t, "Pair", cmp.DealerHand)
}

func TestClockTimestamps(t *testing.T) {
	ctx := context.Background()
	mock := quartz.NewMock(t)
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.Set(start)

	s := newTestSession(t, "", WithClock(mock), WithID("01h5n0et5q6mt3v7ms1234abcd"))
	assert.Equal(t, "01h5n0et5q6mt3v7ms1234abcd", s.ID())
	assert.Equal(t, start, s.LastActive())

	mock.Advance(time.Minute).MustWait(ctx)
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, start.Add(time.Minute), s.LastActive())

	mock.Advance(time.Minute).MustWait(ctx)
	require.NoError(t, s.Fold())

	snap := s.Snapshot()
	assert.Equal(t, start.Add(time.Minute), snap.Round.StartedAt)
	require.NotNil(t, snap.Round.FinishedAt)
	assert.Equal(t, start.Add(2*time.Minute), *snap.Round.FinishedAt)
	assert.Equal(t, start.Add(2*time.Minute), snap.History[0].FinishedAt)
}
