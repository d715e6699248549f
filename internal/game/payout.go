package game

import (
	"github.com/lox/casinoholdem/internal/config"
	"github.com/lox/casinoholdem/poker"
)

// Rules are the table parameters a session plays under.
type Rules struct {
	StartingChips int
	Ante          int
	Simulations   int
	HistorySize   int

	// QualifyingPair is the lowest pair the dealer needs to contest the pot.
	QualifyingPair poker.Rank
}

// DefaultRules returns the standard table: 1000 chips, ante 10, dealer
// qualifies with a pair of fours.
func DefaultRules() Rules {
	return RulesFromConfig(config.Default().Game)
}

// RulesFromConfig converts the game block of the configuration.
func RulesFromConfig(cfg config.GameSettings) Rules {
	return Rules{
		StartingChips:  cfg.StartingChips,
		Ante:           cfg.Ante,
		Simulations:    cfg.Simulations,
		HistorySize:    cfg.HistorySize,
		QualifyingPair: poker.Rank(cfg.QualifyingPair),
	}
}

// CallCost is the bet required to see the flop.
func (r Rules) CallCost() int {
	return 2 * r.Ante
}

// Outcome names how a round ended.
type Outcome string

const (
	OutcomeWin          Outcome = "WIN"
	OutcomeNotQualified Outcome = "WIN (dealer did not qualify)"
	OutcomeTie          Outcome = "TIE"
	OutcomeLoss         Outcome = "LOSS"
	OutcomeFold         Outcome = "FOLD"
)

// Result is the settled outcome of a round.
type Result struct {
	Outcome Outcome `json:"outcome"`

	// Net is the change in chips over the whole round.
	Net int `json:"net"`

	// Credit is what the table pays back at settlement, stakes included.
	Credit int `json:"credit"`

	PlayerHand      string `json:"player_hand,omitempty"`
	DealerHand      string `json:"dealer_hand,omitempty"`
	DealerQualified bool   `json:"dealer_qualified"`
}

// Qualifies reports whether a dealer hand is strong enough to contest the
// pot: any pair of minPair or better, or any higher category.
func Qualifies(dealer poker.HandRank, minPair poker.Rank) bool {
	switch {
	case dealer.Category > poker.Pair:
		return true
	case dealer.Category == poker.Pair:
		return len(dealer.TieBreak) > 0 && dealer.TieBreak[0] >= int(minPair)
	}
	return false
}

// Settle resolves a showdown where the player has staked the ante and the
// call. A dealer that does not qualify pays the player regardless of the
// player's hand.
func Settle(player, dealer poker.HandRank, rules Rules) Result {
	staked := rules.Ante + rules.CallCost()
	win := 2 * rules.Ante

	result := Result{
		PlayerHand:      player.Category.String(),
		DealerHand:      dealer.Category.String(),
		DealerQualified: Qualifies(dealer, rules.QualifyingPair),
	}

	switch {
	case !result.DealerQualified:
		result.Outcome = OutcomeNotQualified
		result.Credit = staked + win
		result.Net = win
	case player.Beats(dealer):
		result.Outcome = OutcomeWin
		result.Credit = staked + win
		result.Net = win
	case player.Equal(dealer):
		result.Outcome = OutcomeTie
		result.Credit = staked
	default:
		result.Outcome = OutcomeLoss
		result.Net = -staked
	}
	return result
}
