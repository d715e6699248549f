package poker

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidCardSet reports a card set the evaluator cannot accept.
var ErrInvalidCardSet = errors.New("poker: invalid card set")

// HandCategory enumerates the categories of poker hands ordered from weakest to strongest.
type HandCategory uint8

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryLabels = [...]string{
	HighCard:      "High Card",
	Pair:          "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

// Categories lists every category from weakest to strongest.
var Categories = [...]HandCategory{
	HighCard, Pair, TwoPair, ThreeOfAKind, Straight,
	Flush, FullHouse, FourOfAKind, StraightFlush, RoyalFlush,
}

// String returns the display label for the category.
func (c HandCategory) String() string {
	if int(c) < len(categoryLabels) {
		return categoryLabels[c]
	}
	return "Unknown"
}

// HandRank is the strength of the best hand in a card set: the category, then
// a tie-break vector compared element by element.
type HandRank struct {
	Category HandCategory
	TieBreak []int
}

// Compare returns 1 if hr beats other, -1 if other wins, 0 for a tie.
func (hr HandRank) Compare(other HandRank) int {
	if hr.Category != other.Category {
		if hr.Category > other.Category {
			return 1
		}
		return -1
	}
	return slices.Compare(hr.TieBreak, other.TieBreak)
}

// Beats reports whether hr is strictly stronger than other.
func (hr HandRank) Beats(other HandRank) bool {
	return hr.Compare(other) > 0
}

// Equal reports whether both ranks are interchangeable.
func (hr HandRank) Equal(other HandRank) bool {
	return hr.Compare(other) == 0
}

// String returns the category label followed by the tie-break strengths.
func (hr HandRank) String() string {
	return fmt.Sprintf("%s %v", hr.Category, hr.TieBreak)
}

// CompareHands compares two hands and returns 1 if a wins, -1 if b wins, 0 for tie
func CompareHands(a, b HandRank) int {
	return a.Compare(b)
}

// CheckCards validates a card set at an API boundary: every card must be one
// of the 52 and appear once, and no more than seven may be supplied.
func CheckCards(cards []Card) error {
	if len(cards) > 7 {
		return fmt.Errorf("%w: %d cards, at most 7 allowed", ErrInvalidCardSet, len(cards))
	}
	var seen Hand
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card %v", ErrInvalidCardSet, c)
		}
		if seen.HasCard(c) {
			return fmt.Errorf("%w: duplicate card %s", ErrInvalidCardSet, c)
		}
		seen.AddCard(c)
	}
	return nil
}

// EvaluateChecked validates cards and then evaluates them.
func EvaluateChecked(cards []Card) (HandRank, error) {
	if err := CheckCards(cards); err != nil {
		return HandRank{}, err
	}
	return Evaluate(cards), nil
}

// Evaluate returns the best five-card hand obtainable from cards.
//
// With fewer than five cards the result is a HighCard rank holding the
// supplied strengths in descending order; it describes the hand so far and is
// not meant for showdown. Callers are expected to pass a well-formed set (see
// CheckCards).
func Evaluate(cards []Card) HandRank {
	if len(cards) < 5 {
		strengths := make([]int, len(cards))
		for i, c := range cards {
			strengths[i] = int(c.Rank)
		}
		slices.SortFunc(strengths, descending)
		return HandRank{Category: HighCard, TieBreak: strengths}
	}

	var (
		best  HandRank
		found bool
		five  [5]Card
	)
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						five = [5]Card{cards[a], cards[b], cards[c], cards[d], cards[e]}
						rank := evaluateFive(five)
						if !found || rank.Beats(best) {
							best = rank
							found = true
						}
					}
				}
			}
		}
	}
	return best
}

// evaluateFive classifies exactly five cards.
func evaluateFive(cards [5]Card) HandRank {
	strengths := make([]int, 5)
	flush := true
	for i, c := range cards {
		strengths[i] = int(c.Rank)
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	slices.SortFunc(strengths, descending)

	straight, sequence := straightSequence(strengths)
	if straight && flush {
		if sequence[0] == int(Ace) {
			return HandRank{Category: RoyalFlush, TieBreak: sequence}
		}
		return HandRank{Category: StraightFlush, TieBreak: sequence}
	}

	grouped, sizes := groupStrengths(strengths)
	switch {
	case sizes[0] == 4:
		return HandRank{Category: FourOfAKind, TieBreak: grouped}
	case sizes[0] == 3 && sizes[1] == 2:
		return HandRank{Category: FullHouse, TieBreak: grouped}
	case flush:
		return HandRank{Category: Flush, TieBreak: strengths}
	case straight:
		return HandRank{Category: Straight, TieBreak: sequence}
	case sizes[0] == 3:
		return HandRank{Category: ThreeOfAKind, TieBreak: grouped}
	case sizes[0] == 2 && sizes[1] == 2:
		return HandRank{Category: TwoPair, TieBreak: grouped}
	case sizes[0] == 2:
		return HandRank{Category: Pair, TieBreak: grouped}
	default:
		return HandRank{Category: HighCard, TieBreak: strengths}
	}
}

// straightSequence reports whether the descending strengths form a straight
// and returns the sequence used to order it. The wheel plays its ace as 1.
func straightSequence(desc []int) (bool, []int) {
	if slices.Equal(desc, []int{int(Ace), int(Five), int(Four), int(Three), int(Two)}) {
		return true, []int{int(Five), int(Four), int(Three), int(Two), aceLow}
	}
	for i := 1; i < len(desc); i++ {
		if desc[i-1]-desc[i] != 1 {
			return false, nil
		}
	}
	return true, desc
}

// groupStrengths reorders descending strengths so that larger groups come
// first (ties between equal-sized groups go to the higher rank) and returns
// the group sizes in the same order.
func groupStrengths(desc []int) ([]int, []int) {
	type group struct{ rank, size int }
	groups := make([]group, 0, 5)
	for _, s := range desc {
		if len(groups) > 0 && groups[len(groups)-1].rank == s {
			groups[len(groups)-1].size++
			continue
		}
		groups = append(groups, group{rank: s, size: 1})
	}
	slices.SortStableFunc(groups, func(a, b group) int {
		return b.size - a.size
	})

	ordered := make([]int, 0, len(desc))
	sizes := make([]int, 0, len(groups)+1)
	for _, g := range groups {
		sizes = append(sizes, g.size)
		for range g.size {
			ordered = append(ordered, g.rank)
		}
	}
	// Pad so callers can always read sizes[1].
	sizes = append(sizes, 0)
	return ordered, sizes
}

func descending(a, b int) int {
	return b - a
}
