package actor

import (
	"github.com/OCAP2/gunplay/internal/combat"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Step holds a set of intents for Duration seconds. Fire, Reload and
// Switch press on the first tick of the step; Fire stays held after that.
type Step struct {
	Duration float64 `yaml:"duration"`
	Fire     bool    `yaml:"fire"`
	Reload   bool    `yaml:"reload"`
	Switch   bool    `yaml:"switch"`
	Aim      bool    `yaml:"aim"`
	Run      bool    `yaml:"run"`
	Move     bool    `yaml:"move"`
	Throw    bool    `yaml:"throw"`
}

// Script is an IntentSource playing a fixed list of steps.
type Script struct {
	steps   []Step
	loop    bool
	i       int
	elapsed float64
}

// NewScript creates a script. A looping script starts over after its last
// step; otherwise it goes idle.
func NewScript(steps []Step, loop bool) *Script {
	return &Script{steps: steps, loop: loop}
}

// Done reports whether a non-looping script has played every step.
func (s *Script) Done() bool {
	return !s.loop && s.i >= len(s.steps)
}

func (s *Script) Next(dt float64) combat.Intents {
	if s.i >= len(s.steps) {
		if !s.loop || len(s.steps) == 0 {
			return combat.Intents{}
		}
		s.i = 0
	}
	st := s.steps[s.i]
	first := s.elapsed == 0

	in := combat.Intents{
		FireEdge:   st.Fire && first,
		FireHeld:   st.Fire,
		ReloadEdge: st.Reload && first,
		SwitchEdge: st.Switch && first,
		AimHeld:    st.Aim,
		RunHeld:    st.Run,
		Moving:     st.Move,
		ThrowHeld:  st.Throw,
	}

	s.elapsed += dt
	if s.elapsed >= st.Duration-core.TimerEpsilon {
		s.i++
		s.elapsed = 0
	}
	return in
}
