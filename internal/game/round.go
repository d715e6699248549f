package game

import (
	"slices"
	"time"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/poker"
)

// Round is a single Casino Hold'em hand against the dealer.
type Round struct {
	ID     string
	Phase  Phase
	Player []poker.Card
	Dealer []poker.Card
	Board  []poker.Card

	// Staked is what the player has committed so far.
	Staked int

	Stats  *Stats
	Result *Result

	StartedAt  time.Time
	FinishedAt time.Time

	deck *poker.Deck
}

// Stats describe the player's position after the latest reveal.
type Stats struct {
	Equity       analysis.EquityResult  `json:"equity"`
	Hand         string                 `json:"hand"`
	Outs         int                    `json:"outs"`
	HoleCategory poker.HoleCardCategory `json:"hole_category"`
}

// PlayerRank evaluates the player's best hand with the current board.
func (r *Round) PlayerRank() poker.HandRank {
	return poker.Evaluate(append(slices.Clone(r.Player), r.Board...))
}

// DealerRank evaluates the dealer's best hand with the current board.
func (r *Round) DealerRank() poker.HandRank {
	return poker.Evaluate(append(slices.Clone(r.Dealer), r.Board...))
}

// Comparison is a head-to-head reading of the cards dealt so far.
type Comparison struct {
	Winner     string `json:"winner"`
	PlayerHand string `json:"player_hand"`
	DealerHand string `json:"dealer_hand"`
}

// Compare ranks the player against the dealer on the current board.
func (r *Round) Compare() Comparison {
	player, dealer := r.PlayerRank(), r.DealerRank()
	c := Comparison{
		Winner:     "tie",
		PlayerHand: player.Category.String(),
		DealerHand: dealer.Category.String(),
	}
	switch player.Compare(dealer) {
	case 1:
		c.Winner = "player"
	case -1:
		c.Winner = "dealer"
	}
	return c
}

// boardTarget is the number of board cards after each reveal.
var boardTarget = map[Phase]int{
	PreFlop: 3,
	Flop:    4,
	Turn:    5,
}
