// pkg/core/curve.go
package core

import "sort"

// Keyframe is one point of a Curve.
type Keyframe struct {
	Time  float64 `json:"time" yaml:"time"`
	Value float64 `json:"value" yaml:"value"`
}

// Curve is a piecewise linear function over its keyframe times. Inputs
// before the first key or after the last one clamp to the edge values.
// An empty curve evaluates to a linear falloff from 1 at 0 to 0 at 1.
type Curve []Keyframe

// LinearFalloff is the default explosion damage ratio over normalized distance.
var LinearFalloff = Curve{{Time: 0, Value: 1}, {Time: 1, Value: 0}}

// Evaluate samples the curve at t.
func (c Curve) Evaluate(t float64) float64 {
	keys := c
	if len(keys) == 0 {
		keys = LinearFalloff
	}
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].Time < keys[j].Time }) {
		keys = append(Curve(nil), keys...)
		sort.Slice(keys, func(i, j int) bool { return keys[i].Time < keys[j].Time })
	}

	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if t >= last.Time {
		return last.Value
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if t > b.Time {
			continue
		}
		span := b.Time - a.Time
		if span == 0 {
			return b.Value
		}
		return a.Value + (b.Value-a.Value)*(t-a.Time)/span
	}
	return last.Value
}
