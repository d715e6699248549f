// Package analysis estimates how a Casino Hold'em hand stands against a single
// unknown dealer hand: Monte Carlo win/tie/loss equity and exhaustive outs.
//
// Both calculations work from a frozen snapshot of known cards and never touch
// a live deck, so they are safe to run while a round is in progress.
package analysis

import (
	"context"
	"fmt"
	"math"
	rand "math/rand/v2"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/poker"
)

// DefaultTrials is the simulation count used while a round is in progress.
const DefaultTrials = 500

// chunkTrials is the number of trials run on one derived random stream.
// Chunks, not workers, own the streams, so results for a seed do not depend
// on how many workers ran them.
const chunkTrials = 128

var (
	// AllLoss is returned when there is no hole hand to evaluate.
	AllLoss = EquityResult{LossPct: 100}

	// InsufficientUnseenFallback is returned when the unseen pool cannot
	// complete the board and deal an opposing hand.
	InsufficientUnseenFallback = EquityResult{WinPct: 50, TiePct: 10, LossPct: 40}

	// NoTrialsFallback is returned when no trial could be counted.
	NoTrialsFallback = EquityResult{WinPct: 33.3, TiePct: 33.3, LossPct: 33.4}
)

// EquityResult is the outcome of an equity estimate, in percent rounded to
// one decimal place.
type EquityResult struct {
	WinPct  float64 `json:"win_pct" toml:"win_pct"`
	TiePct  float64 `json:"tie_pct" toml:"tie_pct"`
	LossPct float64 `json:"loss_pct" toml:"loss_pct"`

	// Trials is the number of trials that were counted. Fallback results
	// carry zero.
	Trials int `json:"trials" toml:"trials"`

	// Categories counts the holder's final hand category per trial, indexed
	// by poker.HandCategory.
	Categories [len(poker.Categories)]int `json:"categories" toml:"categories"`
}

// Equity returns the overall equity (0.0 to 1.0)
// Wins count as 1.0, ties count as 0.5
func (e EquityResult) Equity() float64 {
	return (e.WinPct + e.TiePct/2) / 100
}

// ConfidenceInterval returns the 95% confidence interval for equity
func (e EquityResult) ConfidenceInterval() (lower, upper float64) {
	equity := e.Equity()
	n := float64(e.Trials)
	if n == 0 {
		return equity, equity
	}

	// Standard error for binomial proportion
	se := math.Sqrt((equity * (1.0 - equity)) / n)
	margin := 1.96 * se

	return math.Max(0.0, equity-margin), math.Min(1.0, equity+margin)
}

// CategoryPct returns how often, in percent, the holder finished with c.
func (e EquityResult) CategoryPct(c poker.HandCategory) float64 {
	if e.Trials == 0 || int(c) >= len(e.Categories) {
		return 0
	}
	return roundTenth(float64(e.Categories[c]) / float64(e.Trials) * 100)
}

// Tally accumulates raw trial outcomes. Partial tallies combine by addition.
type Tally struct {
	Wins       int
	Ties       int
	Losses     int
	Categories [len(poker.Categories)]int
}

// Total returns the number of counted trials.
func (t Tally) Total() int {
	return t.Wins + t.Ties + t.Losses
}

// Add merges another partial tally into t.
func (t *Tally) Add(other Tally) {
	t.Wins += other.Wins
	t.Ties += other.Ties
	t.Losses += other.Losses
	for i, n := range other.Categories {
		t.Categories[i] += n
	}
}

// Result converts the tally into percentages.
func (t Tally) Result() EquityResult {
	total := t.Total()
	if total == 0 {
		return NoTrialsFallback
	}
	pct := func(n int) float64 {
		return roundTenth(float64(n) / float64(total) * 100)
	}
	return EquityResult{
		WinPct:     pct(t.Wins),
		TiePct:     pct(t.Ties),
		LossPct:    pct(t.Losses),
		Trials:     total,
		Categories: t.Categories,
	}
}

// Estimator runs equity simulations across a bounded pool of workers.
type Estimator struct {
	workers int
	logger  *log.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithWorkers caps the number of concurrent simulation workers.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger used for simulation diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger.WithPrefix("equity")
		}
	}
}

// NewEstimator creates an estimator. By default it uses one worker per CPU,
// capped at eight.
func NewEstimator(opts ...Option) *Estimator {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Cap at 8 for diminishing returns
	}
	e := &Estimator{
		workers: workers,
		logger:  log.Default().WithPrefix("equity"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEstimator = NewEstimator()

// EstimateEquity estimates the chance that hole, completed with board, beats a
// single random opposing hand. Randomness comes only from rng, so a seeded
// generator reproduces the same result.
func EstimateEquity(hole, board []poker.Card, trials int, rng *rand.Rand) EquityResult {
	result, err := defaultEstimator.run(context.Background(), hole, board, trials, rng)
	if err != nil {
		// Only cancellation fails a run, and the background context is never cancelled.
		return NoTrialsFallback
	}
	return result
}

// Estimate validates the known cards and runs trials simulations. It stops
// early with the context's error when ctx is cancelled.
func (e *Estimator) Estimate(ctx context.Context, hole, board []poker.Card, trials int, rng *rand.Rand) (EquityResult, error) {
	if len(board) > 5 {
		return EquityResult{}, fmt.Errorf("%w: %d board cards, at most 5 allowed", poker.ErrInvalidCardSet, len(board))
	}
	if len(hole) > 2 {
		return EquityResult{}, fmt.Errorf("%w: %d hole cards, at most 2 allowed", poker.ErrInvalidCardSet, len(hole))
	}
	if err := poker.CheckCards(append(append([]poker.Card{}, hole...), board...)); err != nil {
		return EquityResult{}, err
	}
	return e.run(ctx, hole, board, trials, rng)
}

func (e *Estimator) run(ctx context.Context, hole, board []poker.Card, trials int, rng *rand.Rand) (EquityResult, error) {
	if len(hole) == 0 {
		return AllLoss, nil
	}

	known := append(append(make([]poker.Card, 0, len(hole)+len(board)), hole...), board...)
	unseen := poker.RemainingUnseen(known)
	boardNeeded := max(0, 5-len(board))
	if len(unseen) < boardNeeded+2 {
		e.logger.Debug("Unseen pool too small", "unseen", len(unseen), "needed", boardNeeded+2)
		return InsufficientUnseenFallback, nil
	}
	if trials <= 0 {
		return NoTrialsFallback, nil
	}

	start := time.Now()

	// Derive every chunk's stream up front, in order, from the caller's rng.
	chunks := (trials + chunkTrials - 1) / chunkTrials
	streams := make([]*rand.Rand, chunks)
	for i := range streams {
		streams[i] = randutil.Derive(rng)
	}
	partials := make([]Tally, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range chunks {
		n := chunkTrials
		if i == chunks-1 {
			n = trials - i*chunkTrials
		}
		g.Go(func() error {
			tally, err := simulate(gctx, hole, board, unseen, n, streams[i])
			partials[i] = tally
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return EquityResult{}, err
	}

	var total Tally
	for _, p := range partials {
		total.Add(p)
	}
	result := total.Result()

	e.logger.Debug("Equity estimated",
		"hole", poker.FormatCards(hole),
		"board", poker.FormatCards(board),
		"trials", total.Total(),
		"win", result.WinPct,
		"tie", result.TiePct,
		"loss", result.LossPct,
		"elapsed", time.Since(start))

	return result, nil
}

// simulate runs n trials on its own copy of the unseen pool.
func simulate(ctx context.Context, hole, board, unseen []poker.Card, n int, rng *rand.Rand) (Tally, error) {
	var tally Tally

	pool := make([]poker.Card, len(unseen))
	copy(pool, unseen)

	boardNeeded := max(0, 5-len(board))
	needed := boardNeeded + 2

	// Pre-allocate reusable slices
	hero := make([]poker.Card, 0, len(hole)+5)
	opp := make([]poker.Card, 0, 7)

	for i := 0; i < n; i++ {
		if i%32 == 0 {
			if err := ctx.Err(); err != nil {
				return tally, err
			}
		}
		if len(pool) < needed {
			continue
		}

		// Partial Fisher-Yates: only the first `needed` positions are drawn.
		for k := 0; k < needed; k++ {
			j := k + rng.IntN(len(pool)-k)
			pool[k], pool[j] = pool[j], pool[k]
		}
		runout := pool[:boardNeeded]
		oppHole := pool[boardNeeded:needed]

		hero = append(append(append(hero[:0], hole...), board...), runout...)
		opp = append(append(append(opp[:0], oppHole...), board...), runout...)

		heroRank := poker.Evaluate(hero)
		tally.Categories[heroRank.Category]++

		switch heroRank.Compare(poker.Evaluate(opp)) {
		case 1:
			tally.Wins++
		case 0:
			tally.Ties++
		default:
			tally.Losses++
		}
	}
	return tally, nil
}

func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
