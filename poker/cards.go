package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Suit is one of the four card suits. Suits carry no ordering.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in generation order.
var Suits = [...]Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the single-letter suit notation.
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "c"
	case Diamonds:
		return "d"
	case Hearts:
		return "h"
	case Spades:
		return "s"
	default:
		return "?"
	}
}

// Symbol returns the unicode suit glyph.
func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed reports whether the suit is hearts or diamonds.
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank is the numeric strength of a card, 2 through 14 (ace high).
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// aceLow is the strength an ace takes when it completes the wheel.
const aceLow = 1

// Valid reports whether r is one of the thirteen ranks.
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

// String returns the single-character rank notation (T for ten).
func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return string("23456789TJQKA"[r-Two])
}

// Card is an immutable playing card. Two cards are equal when rank and suit match.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard builds a card from rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Valid reports whether the card is one of the 52 in the universe.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit <= Spades
}

// String returns the two-character notation, e.g. "As" or "Td".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Pretty returns the card with its suit glyph and a "10" for tens, e.g. "10♥".
func (c Card) Pretty() string {
	if c.Rank == Ten {
		return "10" + c.Suit.Symbol()
	}
	return c.Rank.String() + c.Suit.Symbol()
}

// MarshalText encodes the card in two-character notation.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card rank %d suit %d", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses two-character notation.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// index maps the card to a bit position 0-51 (suit-major).
func (c Card) index() uint {
	return uint(c.Suit)*13 + uint(c.Rank-Two)
}

// Hand is a bitset of cards, one bit per card of the universe.
type Hand uint64

// NewHand builds a bitset from the given cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h.AddCard(c)
	}
	return h
}

// AddCard adds c to the set.
func (h *Hand) AddCard(c Card) {
	*h |= 1 << c.index()
}

// HasCard reports whether c is in the set.
func (h Hand) HasCard(c Card) bool {
	return h&(1<<c.index()) != 0
}

// CountCards returns the number of cards in the set.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// ParseCard parses two-character notation ("As", "Td", "10h" is also accepted).
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "10") {
		s = "T" + s[2:]
	}
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q: want rank and suit", s)
	}
	rank, err := parseRank(s[0])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	suit, err := parseSuit(s[1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return NewCard(rank, suit), nil
}

// ParseCards parses a run of cards. Cards may be concatenated ("AsKd") or
// separated by spaces or commas ("As Kd", "As,Kd").
func ParseCards(s string) ([]Card, error) {
	s = strings.NewReplacer(",", "", " ", "", "10", "T").Replace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %d (must be even)", len(s))
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i/2, err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

// FormatCards joins card notations with spaces.
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func parseRank(c byte) (Rank, error) {
	switch c {
	case 'A', 'a':
		return Ace, nil
	case 'K', 'k':
		return King, nil
	case 'Q', 'q':
		return Queen, nil
	case 'J', 'j':
		return Jack, nil
	case 'T', 't':
		return Ten, nil
	}
	if c >= '2' && c <= '9' {
		return Rank(c-'0'), nil
	}
	return 0, fmt.Errorf("unknown rank '%c'", c)
}

func parseSuit(c byte) (Suit, error) {
	switch c {
	case 'c', 'C':
		return Clubs, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'h', 'H':
		return Hearts, nil
	case 's', 'S':
		return Spades, nil
	default:
		return 0, fmt.Errorf("unknown suit '%c'", c)
	}
}
