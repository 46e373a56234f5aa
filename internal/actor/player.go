package actor

import (
	"github.com/OCAP2/gunplay/internal/combat"
)

// IntentSource supplies the player's intents for the next tick.
type IntentSource interface {
	Next(dt float64) combat.Intents
}

// IntentFunc adapts a function to an IntentSource.
type IntentFunc func(dt float64) combat.Intents

func (f IntentFunc) Next(dt float64) combat.Intents { return f(dt) }

// Player drives an actor from an intent source.
type Player struct {
	*Actor
	src IntentSource
}

// NewPlayer wraps a player-kind actor.
func NewPlayer(a *Actor, src IntentSource) *Player {
	return &Player{Actor: a, src: src}
}

// Update samples the intents and ticks the actor.
func (p *Player) Update(dt float64) error {
	var in combat.Intents
	if p.src != nil {
		in = p.src.Next(dt)
	}
	return p.Tick(dt, in)
}
