package game

import "fmt"

// Phase is the position of a round in the Casino Hold'em sequence.
type Phase int

const (
	Idle Phase = iota
	PreFlop
	Flop
	Turn
	River
	Finished
)

var phaseNames = [...]string{"idle", "pre-flop", "flop", "turn", "river", "finished"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// InPlay reports whether cards are still to come or a decision is pending.
func (p Phase) InPlay() bool {
	return p >= PreFlop && p <= River
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
