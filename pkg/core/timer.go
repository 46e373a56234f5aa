// pkg/core/timer.go
package core

// TimerEpsilon absorbs float drift from repeatedly subtracting tick deltas,
// so a 0.1s timer drained by ten 0.01s ticks reads exactly zero.
const TimerEpsilon = 1e-9

// Decay advances a countdown timer by dt and clamps it at zero.
func Decay(timer, dt float64) float64 {
	timer -= dt
	if timer <= TimerEpsilon {
		return 0
	}
	return timer
}
