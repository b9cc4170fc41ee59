package session

import "fmt"

// Phase is the current step of a play.
type Phase int

const (
	PhaseAwaitingAnswer Phase = iota // question shown, clock running
	PhaseLocked                      // answered or timed out, feedback visible
	PhaseComplete                    // every question presented
	PhaseFailed                      // ran out of lives
)

var phaseNames = map[Phase]string{
	PhaseAwaitingAnswer: "awaiting_answer",
	PhaseLocked:         "locked",
	PhaseComplete:       "complete",
	PhaseFailed:         "failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
