// Package game runs Casino Hold'em rounds for a single player against the
// dealer.
//
// The main type is Session, which tracks the player's chips, the round in
// play and a short history of results.
//
// # Basic Usage
//
//	s := game.NewSession(game.WithRNG(randutil.New(42)))
//	if err := s.Start(ctx); err != nil { // deals and takes the ante
//	    return err
//	}
//	s.Call(ctx) // pays twice the ante and deals the flop
//	s.Call(ctx) // turn
//	s.Call(ctx) // river
//	s.Call(ctx) // showdown
//	fmt.Println(s.Snapshot().Message)
//
// Folding is only allowed before the flop and loses the ante.
//
// # Settlement
//
// The dealer qualifies with a pair of fours or better. A dealer that does
// not qualify pays the player twice the ante. Otherwise the better hand
// wins: the player collects twice the ante or loses the ante and the call.
// Equal hands return both bets.
//
// # Deterministic Testing
//
// WithRNG fixes the shuffle and the equity simulation. WithDeckFunc deals
// from a stacked deck:
//
//	s := game.NewSession(game.WithDeckFunc(func(*rand.Rand) *poker.Deck {
//	    return poker.NewDeckFromCards(poker.MustParseCards("AsAh5c5dKc9s4h2d7c"))
//	}))
package game
