package grenade

// Rand is the random source a Uniform policy draws from.
type Rand interface {
	Float64() float64
}

// Policy decides the cooldown between throws and whether a throw needs the
// actor's intent.
type Policy interface {
	Initial() float64
	Next() float64
	RequiresIntent() bool
}

// Fixed is the player policy: a constant cooldown, throws only on intent.
type Fixed struct {
	Delay float64
}

func (f Fixed) Initial() float64     { return 0 }
func (f Fixed) Next() float64        { return f.Delay }
func (f Fixed) RequiresIntent() bool { return true }

// Uniform is the enemy policy: a cooldown drawn uniformly from [Min, Max]
// before the first throw and after each one, no intent needed.
type Uniform struct {
	Min, Max float64
	Rand     Rand
}

func (u Uniform) Initial() float64     { return u.Next() }
func (u Uniform) RequiresIntent() bool { return false }

func (u Uniform) Next() float64 {
	lo, hi := u.Min, u.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if u.Rand == nil || hi == lo {
		return lo
	}
	return lo + u.Rand.Float64()*(hi-lo)
}
