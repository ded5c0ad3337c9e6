// Package game implements the rules of a single Texas Hold'em table.
//
// A Table holds seats, stacks and stakes between hands. StartHand creates a
// Hand, the state machine for one deal: it moves the button, collects antes
// or blinds through the Ledger, deals hole cards and then accepts actions
// from the acting seat until one player remains or the river closes.
//
//	tbl, _ := game.NewTable("main", game.Config{
//	    Capacity: 6, Mode: game.ModeBlinds,
//	    SmallBlind: 5, BigBlind: 10, InitialChips: 1000,
//	})
//	_ = tbl.Join(0, game.Occupant{ID: "a", Name: "Alice"}, 0)
//	_ = tbl.Join(3, game.Occupant{ID: "b", Name: "Bob", Bot: "advanced"}, 0)
//	h, _ := game.StartHand(tbl, game.WithRNG(rng))
//	_ = h.ProcessAction(game.Action{Seat: h.Actor, Kind: game.Call})
//
// LegalActions and the Ledger's pot building are pure functions of their
// inputs and can be used without a Hand. Neither Table nor Hand is safe for
// concurrent use; internal/session runs each table on its own goroutine.
package game
