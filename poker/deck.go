package poker

import (
	"errors"
	rand "math/rand/v2"
)

// ErrEmptyDeck is returned when drawing from an exhausted deck.
var ErrEmptyDeck = errors.New("poker: deck is empty")

// FullDeck returns the 52-card universe in suit-major order.
func FullDeck() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// RemainingUnseen returns the universe minus known, as a fresh slice.
func RemainingUnseen(known []Card) []Card {
	used := NewHand(known...)
	unseen := make([]Card, 0, 52-used.CountCards())
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			c := NewCard(rank, suit)
			if !used.HasCard(c) {
				unseen = append(unseen, c)
			}
		}
	}
	return unseen
}

// Deck is a shuffled sequence of cards owned by a single round.
// It is not safe for concurrent use.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a shuffled deck of the universe minus any known cards.
func NewDeck(rng *rand.Rand, known ...Card) *Deck {
	d := &Deck{
		cards: RemainingUnseen(known),
		rng:   rng,
	}
	d.Shuffle()
	return d
}

// NewDeckFromCards creates an unshuffled deck that deals cards in the given
// order. Rounds dealt from it are fully predictable.
func NewDeckFromCards(cards []Card) *Deck {
	stacked := make([]Card, len(cards))
	for i, c := range cards {
		stacked[len(cards)-1-i] = c
	}
	return &Deck{cards: stacked}
}

// Shuffle permutes the remaining cards using Fisher-Yates
func (d *Deck) Shuffle() {
	ShuffleCards(d.cards, d.rng)
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	last := len(d.cards) - 1
	card := d.cards[last]
	d.cards = d.cards[:last]
	return card, nil
}

// DrawN draws n cards, or none at all when fewer than n remain.
func (d *Deck) DrawN(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrEmptyDeck
	}
	cards := make([]Card, n)
	for i := range cards {
		cards[i], _ = d.Draw()
	}
	return cards, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// ShuffleCards permutes cards in place with the supplied source. A nil
// source falls back to the runtime's global generator.
func ShuffleCards(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		cards[i], cards[j] = cards[j], cards[i]
	}
}
