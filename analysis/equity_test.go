package analysis

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/poker"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestEquityResult(t *testing.T) {
	result := EquityResult{WinPct: 30, TiePct: 5, LossPct: 65, Trials: 1000}

	t.Run("Equity", func(t *testing.T) {
		assert.InDelta(t, 0.325, result.Equity(), 0.001) // (30 + 5*0.5) / 100
	})

	t.Run("ConfidenceInterval", func(t *testing.T) {
		lower, upper := result.ConfidenceInterval()
		assert.Less(t, lower, result.Equity())
		assert.Greater(t, upper, result.Equity())
		// 1.96 * sqrt(0.325 * 0.675 / 1000) ~= 0.029
		assert.InDelta(t, 0.029, upper-result.Equity(), 0.002)
	})

	t.Run("fallback has a point interval", func(t *testing.T) {
		lower, upper := InsufficientUnseenFallback.ConfidenceInterval()
		assert.Equal(t, lower, upper)
	})
}

func TestTally(t *testing.T) {
	var total Tally
	assert.Equal(t, NoTrialsFallback, total.Result())

	total.Add(Tally{Wins: 2, Ties: 1, Losses: 1})
	total.Add(Tally{Wins: 1, Losses: 3})
	require.Equal(t, 8, total.Total())

	result := total.Result()
	assert.Equal(t, 37.5, result.WinPct)
	assert.Equal(t, 12.5, result.TiePct)
	assert.Equal(t, 50.0, result.LossPct)
	assert.Equal(t, 8, result.Trials)
}

func TestEstimateEquityPocketAces(t *testing.T) {
	hole := poker.MustParseCards("AsAh")
	result := EstimateEquity(hole, nil, 2000, randutil.New(42))

	assert.Greater(t, result.WinPct, 70.0, "pocket aces should win most showdowns")
	assert.InDelta(t, 100.0, result.WinPct+result.TiePct+result.LossPct, 0.2)
	assert.Equal(t, 2000, result.Trials)

	var categories int
	for _, n := range result.Categories {
		categories += n
	}
	assert.Equal(t, 2000, categories, "every trial records a category")
	assert.Zero(t, result.Categories[poker.HighCard], "aces never finish as high card")
}

func TestEstimateEquityIsReproducible(t *testing.T) {
	hole := poker.MustParseCards("KdQd")
	board := poker.MustParseCards("Jd7c2d")

	a := EstimateEquity(hole, board, 1000, randutil.New(7))
	b := EstimateEquity(hole, board, 1000, randutil.New(7))
	assert.Equal(t, a, b)

	// The worker count must not change a seeded result.
	ctx := context.Background()
	serial, err := NewEstimator(WithWorkers(1), WithLogger(quietLogger())).
		Estimate(ctx, hole, board, 1000, randutil.New(7))
	require.NoError(t, err)
	parallel, err := NewEstimator(WithWorkers(6), WithLogger(quietLogger())).
		Estimate(ctx, hole, board, 1000, randutil.New(7))
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
	assert.Equal(t, a, serial)
}

func TestEstimateEquityCompleteBoard(t *testing.T) {
	// Royal flush on the board: every showdown is a split.
	board := poker.MustParseCards("AsKsQsJsTs")
	result := EstimateEquity(poker.MustParseCards("2c3d"), board, 300, randutil.New(1))
	assert.Equal(t, 100.0, result.TiePct)
	assert.Equal(t, 300, result.Categories[poker.RoyalFlush])

	// The nut hand on a complete board can lose to nothing.
	nuts := EstimateEquity(poker.MustParseCards("AhAd"), poker.MustParseCards("AcAs7h2c9d"), 300, randutil.New(1))
	assert.Zero(t, nuts.LossPct)
}

func TestEstimateEquityFallbacks(t *testing.T) {
	rng := randutil.New(3)

	t.Run("no hole cards", func(t *testing.T) {
		result := EstimateEquity(nil, poker.MustParseCards("AsKsQs"), 100, rng)
		assert.Equal(t, EquityResult{WinPct: 0, TiePct: 0, LossPct: 100}, result)
	})

	t.Run("unseen pool too small", func(t *testing.T) {
		deck := poker.FullDeck()
		result := EstimateEquity(deck[:2], deck[2:51], 100, rng)
		assert.Equal(t, InsufficientUnseenFallback, result)
	})

	t.Run("zero trials", func(t *testing.T) {
		result := EstimateEquity(poker.MustParseCards("AsKs"), nil, 0, rng)
		assert.Equal(t, NoTrialsFallback, result)
		assert.InDelta(t, 100.0, result.WinPct+result.TiePct+result.LossPct, 1e-9)
	})
}

func TestEstimateValidation(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))
	ctx := context.Background()

	_, err := est.Estimate(ctx, poker.MustParseCards("AsAs"), nil, 10, randutil.New(1))
	assert.ErrorIs(t, err, poker.ErrInvalidCardSet)

	_, err = est.Estimate(ctx, poker.MustParseCards("AsKs"), poker.MustParseCards("2c3c4c5c6c7c"), 10, randutil.New(1))
	assert.ErrorIs(t, err, poker.ErrInvalidCardSet)

	_, err = est.Estimate(ctx, poker.MustParseCards("AsKsQs"), nil, 10, randutil.New(1))
	assert.ErrorIs(t, err, poker.ErrInvalidCardSet)
}

func TestEstimateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	est := NewEstimator(WithLogger(quietLogger()))
	_, err := est.Estimate(ctx, poker.MustParseCards("AsKs"), nil, 5000, randutil.New(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimateEquityRounding(t *testing.T) {
	result := EstimateEquity(poker.MustParseCards("7h2c"), poker.MustParseCards("Kd"), 333, randutil.New(11))
	for _, pct := range []float64{result.WinPct, result.TiePct, result.LossPct} {
		assert.InDelta(t, pct, math.Round(pct*10)/10, 1e-9, "percentages carry one decimal")
	}
}

func BenchmarkEstimateEquity(b *testing.B) {
	hole := poker.MustParseCards("AsKs")
	board := poker.MustParseCards("Qs7h2d")
	rng := randutil.New(1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = EstimateEquity(hole, board, DefaultTrials, rng)
	}
}
