package analysis

import (
	"github.com/lox/casinoholdem/poker"
)

// Outs returns the unseen cards that would lift the holder's best hand into a
// strictly higher category if dealt next. Only the category is compared, so a
// card that merely improves a kicker is not an out.
//
// There are no outs without a hole hand or once the board is complete. With
// fewer than five known cards the current hand counts as High Card.
func Outs(hole, board []poker.Card) []poker.Card {
	if len(hole) == 0 || len(board) >= 5 {
		return nil
	}

	known := make([]poker.Card, 0, len(hole)+len(board)+1)
	known = append(append(known, hole...), board...)
	baseline := poker.Evaluate(known).Category

	var outs []poker.Card
	next := append(known, poker.Card{})
	for _, c := range poker.RemainingUnseen(known) {
		next[len(next)-1] = c
		if poker.Evaluate(next).Category > baseline {
			outs = append(outs, c)
		}
	}
	return outs
}

// CountOuts returns len(Outs(hole, board)).
func CountOuts(hole, board []poker.Card) int {
	return len(Outs(hole, board))
}
