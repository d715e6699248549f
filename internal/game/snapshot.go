package game

import (
	"slices"
	"time"

	"github.com/lox/casinoholdem/poker"
)

// Snapshot is a point-in-time view of a session, safe to serialise. The
// dealer's cards stay hidden until the round is finished.
type Snapshot struct {
	SessionID string  `json:"session_id"`
	Chips     int     `json:"chips"`
	Ante      int     `json:"ante"`
	Message   string  `json:"message"`
	Played    int     `json:"games_played"`
	WinRate   float64 `json:"win_rate"`

	Round   *RoundView     `json:"round,omitempty"`
	History []HistoryEntry `json:"history"`
}

// RoundView is the public part of a round.
type RoundView struct {
	ID     string       `json:"id"`
	Phase  Phase        `json:"phase"`
	Player []poker.Card `json:"player"`
	Dealer []poker.Card `json:"dealer,omitempty"`
	Board  []poker.Card `json:"board"`
	Staked int          `json:"staked"`
	Stats  *Stats       `json:"stats,omitempty"`
	Result *Result      `json:"result,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.id,
		Chips:     s.chips,
		Ante:      s.rules.Ante,
		Message:   s.message,
		Played:    s.played,
		WinRate:   s.winRate(),
		History:   slices.Clone(s.history),
	}
	if snap.History == nil {
		snap.History = []HistoryEntry{}
	}

	if r := s.round; r != nil {
		view := &RoundView{
			ID:        r.ID,
			Phase:     r.Phase,
			Player:    slices.Clone(r.Player),
			Board:     slices.Clone(r.Board),
			Staked:    r.Staked,
			StartedAt: r.StartedAt,
		}
		if view.Board == nil {
			view.Board = []poker.Card{}
		}
		if r.Stats != nil {
			stats := *r.Stats
			view.Stats = &stats
		}
		if r.Phase == Finished {
			view.Dealer = slices.Clone(r.Dealer)
			finished := r.FinishedAt
			view.FinishedAt = &finished
			if r.Result != nil {
				result := *r.Result
				view.Result = &result
			}
		}
		snap.Round = view
	}
	return snap
}
