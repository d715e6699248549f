package game

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/internal/gameid"
	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/poker"
)

var (
	// ErrInsufficientChips is returned when the player cannot cover a bet.
	ErrInsufficientChips = errors.New("insufficient chips")

	// ErrInvalidAction is returned for an action the current phase does not allow.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNoRound is returned when no round has been dealt yet.
	ErrNoRound = errors.New("no round dealt")
)

// HistoryEntry records a finished round.
type HistoryEntry struct {
	RoundID    string    `json:"round_id"`
	Outcome    Outcome   `json:"outcome"`
	Net        int       `json:"net"`
	FinishedAt time.Time `json:"finished_at"`
}

// Session is one player's sequence of rounds at the table. It is safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	rules     Rules
	rng       *rand.Rand
	clock     quartz.Clock
	logger    *log.Logger
	estimator *analysis.Estimator
	newDeck   func(*rand.Rand) *poker.Deck

	chips      int
	round      *Round
	history    []HistoryEntry
	played     int
	wins       int
	message    string
	lastActive time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithRules sets the table rules.
func WithRules(rules Rules) Option {
	return func(s *Session) { s.rules = rules }
}

// WithRNG sets the source used for dealing and simulation.
func WithRNG(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithClock sets the clock used for timestamps and idle tracking.
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithEstimator sets the equity estimator used for in-round stats.
func WithEstimator(e *analysis.Estimator) Option {
	return func(s *Session) { s.estimator = e }
}

// WithDeckFunc replaces the shuffled deck dealt each round, for stacked
// decks in tests and replays.
func WithDeckFunc(fn func(*rand.Rand) *poker.Deck) Option {
	return func(s *Session) { s.newDeck = fn }
}

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession creates a session with the starting chip stack.
func NewSession(opts ...Option) *Session {
	s := &Session{
		rules: DefaultRules(),
		clock: quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.id == "" {
		s.id = gameid.Generate()
	}
	if s.rng == nil {
		s.rng = randutil.New(randutil.Seed(nil))
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.logger = s.logger.With("session", s.id)
	if s.estimator == nil {
		s.estimator = analysis.NewEstimator(analysis.WithLogger(s.logger))
	}
	if s.newDeck == nil {
		s.newDeck = func(rng *rand.Rand) *poker.Deck { return poker.NewDeck(rng) }
	}

	s.chips = s.rules.StartingChips
	s.message = "Welcome to Casino Hold'em!"
	s.lastActive = s.clock.Now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Rules returns the table rules.
func (s *Session) Rules() Rules {
	return s.rules
}

// LastActive returns when the session last handled an action.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Start deals a new round: two cards each to player and dealer, with the
// ante taken from the player's stack.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.round != nil && s.round.Phase.InPlay() {
		return fmt.Errorf("%w: round %s is still in play", ErrInvalidAction, s.round.ID)
	}
	if s.chips < s.rules.CallCost() {
		s.message = "Insufficient chips!"
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientChips, s.chips, s.rules.CallCost())
	}

	deck := s.newDeck(s.rng)
	hands, err := deck.DrawN(4)
	if err != nil {
		return fmt.Errorf("dealing hole cards: %w", err)
	}

	s.round = &Round{
		ID:        gameid.Generate(),
		Phase:     PreFlop,
		Player:    hands[:2],
		Dealer:    hands[2:],
		Staked:    s.rules.Ante,
		StartedAt: s.clock.Now(),
		deck:      deck,
	}
	s.chips -= s.rules.Ante
	s.message = fmt.Sprintf("Your cards are dealt. CALL (%d) or FOLD?", s.rules.CallCost())

	s.logger.Info("Round started",
		"round", s.round.ID,
		"player", poker.FormatCards(s.round.Player),
		"chips", s.chips)

	return s.refreshStats(ctx)
}

// Call advances the round. From pre-flop it places the call bet and deals
// the flop; afterwards it reveals the turn, then the river, then settles.
func (s *Session) Call(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	r := s.round
	if r == nil || !r.Phase.InPlay() {
		return fmt.Errorf("%w: no round in play", ErrInvalidAction)
	}

	if r.Phase == River {
		s.showdown()
		return nil
	}

	if r.Phase == PreFlop {
		cost := s.rules.CallCost()
		if s.chips < cost {
			s.message = "Insufficient chips to CALL!"
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientChips, s.chips, cost)
		}
		s.chips -= cost
		r.Staked += cost
	}

	want := boardTarget[r.Phase] - len(r.Board)
	cards, err := r.deck.DrawN(want)
	if err != nil {
		s.void()
		return fmt.Errorf("dealing %s: %w", r.Phase+1, err)
	}
	r.Board = append(r.Board, cards...)
	r.Phase++

	switch r.Phase {
	case Flop:
		s.message = "Flop revealed. CONTINUE to the turn."
	case Turn:
		s.message = "Turn revealed. CONTINUE to the river."
	case River:
		s.message = "River revealed. CONTINUE to the showdown."
	}

	s.logger.Debug("Board dealt", "round", r.ID, "phase", r.Phase, "board", poker.FormatCards(r.Board))

	return s.refreshStats(ctx)
}

// Fold gives up the ante. Folding is only possible before the flop.
func (s *Session) Fold() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	r := s.round
	if r == nil || r.Phase != PreFlop {
		return fmt.Errorf("%w: fold is only allowed pre-flop", ErrInvalidAction)
	}

	r.Result = &Result{Outcome: OutcomeFold, Net: -r.Staked}
	s.message = fmt.Sprintf("You folded and lost %d.", r.Staked)
	s.finish()
	return nil
}

// Compare reads the finished round's cards head to head. The dealer's hand
// stays hidden while the round is in play.
func (s *Session) Compare() (Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.round == nil {
		return Comparison{}, ErrNoRound
	}
	if s.round.Phase != Finished {
		return Comparison{}, fmt.Errorf("%w: dealer cards are hidden until the round is finished", ErrInvalidAction)
	}
	return s.round.Compare(), nil
}

// Stats returns the latest stats for the round in play.
func (s *Session) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil || s.round.Stats == nil {
		return Stats{}, ErrNoRound
	}
	return *s.round.Stats, nil
}

// History returns the most recent results, newest first.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Chips returns the player's stack.
func (s *Session) Chips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chips
}

// WinRate returns the percentage of finished rounds that made a profit.
func (s *Session) WinRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winRate()
}

func (s *Session) winRate() float64 {
	if s.played == 0 {
		return 0
	}
	return float64(s.wins) / float64(s.played) * 100
}

func (s *Session) showdown() {
	r := s.round
	player, dealer := r.PlayerRank(), r.DealerRank()
	result := Settle(player, dealer, s.rules)
	s.chips += result.Credit
	r.Result = &result

	switch result.Outcome {
	case OutcomeNotQualified:
		s.message = fmt.Sprintf("Dealer did not qualify! You won %d. Your hand: %s", result.Net, result.PlayerHand)
	case OutcomeWin:
		s.message = fmt.Sprintf("You win %d! %s vs %s", result.Net, result.PlayerHand, result.DealerHand)
	case OutcomeTie:
		s.message = fmt.Sprintf("Tie! Bets returned. %s", result.PlayerHand)
	default:
		s.message = fmt.Sprintf("Dealer wins. You lost %d. %s vs %s", -result.Net, result.DealerHand, result.PlayerHand)
	}
	s.finish()
}

// void ends a round that could not be dealt to completion and returns the
// player's stakes.
func (s *Session) void() {
	r := s.round
	s.chips += r.Staked
	r.Phase = Finished
	r.FinishedAt = s.clock.Now()
	s.message = "Not enough cards left in the deck, round voided."
	s.logger.Warn("Round voided", "round", r.ID, "board", poker.FormatCards(r.Board))
}

func (s *Session) finish() {
	r := s.round
	r.Phase = Finished
	r.FinishedAt = s.clock.Now()

	s.history = slices.Insert(s.history, 0, HistoryEntry{
		RoundID:    r.ID,
		Outcome:    r.Result.Outcome,
		Net:        r.Result.Net,
		FinishedAt: r.FinishedAt,
	})
	if size := max(1, s.rules.HistorySize); len(s.history) > size {
		s.history = s.history[:size]
	}

	s.played++
	if r.Result.Net > 0 {
		s.wins++
	}

	s.logger.Info("Round finished",
		"round", r.ID,
		"outcome", r.Result.Outcome,
		"net", r.Result.Net,
		"chips", s.chips,
		"win_rate", fmt.Sprintf("%.1f%%", s.winRate()))
}

func (s *Session) refreshStats(ctx context.Context) error {
	r := s.round
	equity, err := s.estimator.Estimate(ctx, r.Player, r.Board, s.rules.Simulations, s.rng)
	if err != nil {
		return fmt.Errorf("estimating equity: %w", err)
	}
	r.Stats = &Stats{
		Equity:       equity,
		Hand:         r.PlayerRank().Category.String(),
		Outs:         analysis.CountOuts(r.Player, r.Board),
		HoleCategory: poker.CategorizeHoleCards(r.Player),
	}
	return nil
}

func (s *Session) touch() {
	s.lastActive = s.clock.Now()
}
