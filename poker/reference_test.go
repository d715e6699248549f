package poker

import (
	"testing"

	reference "github.com/paulhankin/poker"

	"github.com/lox/casinoholdem/internal/randutil"
)

// toReference converts a card to the reference library's encoding (ace = 1).
func toReference(t *testing.T, c Card) reference.Card {
	t.Helper()
	var suit reference.Suit
	switch c.Suit {
	case Clubs:
		suit = reference.Club
	case Diamonds:
		suit = reference.Diamond
	case Hearts:
		suit = reference.Heart
	default:
		suit = reference.Spade
	}
	rank := reference.Rank(c.Rank)
	if c.Rank == Ace {
		rank = reference.Rank(1)
	}
	card, err := reference.MakeCard(suit, rank)
	if err != nil {
		t.Fatalf("MakeCard(%s): %v", c, err)
	}
	return card
}

func referenceScore(t *testing.T, cards []Card) int16 {
	t.Helper()
	var seven [7]reference.Card
	for i, c := range cards {
		seven[i] = toReference(t, c)
	}
	return reference.Eval7(&seven)
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Random heads-up showdowns must be ordered the same way the reference
// evaluator orders them. The reference library has no royal flush category,
// which is fine: a royal flush is the top straight flush there too.
func TestEvaluateAgreesWithReference(t *testing.T) {
	t.Parallel()
	rng := randutil.New(31337)
	for i := 0; i < 2000; i++ {
		deck := NewDeck(rng)
		cards, err := deck.DrawN(9)
		if err != nil {
			t.Fatal(err)
		}
		board := cards[4:]
		a := append([]Card{cards[0], cards[1]}, board...)
		b := append([]Card{cards[2], cards[3]}, board...)

		got := CompareHands(Evaluate(a), Evaluate(b))
		want := sign(int(referenceScore(t, a)) - int(referenceScore(t, b)))
		if got != want {
			t.Fatalf("%s vs %s: got %d, reference %d (%v vs %v)",
				FormatCards(a), FormatCards(b), got, want, Evaluate(a), Evaluate(b))
		}
	}
}
