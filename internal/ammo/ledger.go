// Package ammo holds the pooled ammunition an actor draws reloads from.
package ammo

import (
	"errors"
	"math"
	"sync"
)

// ErrUnknownAmmo is returned when an ammo type was never seeded or increased.
var ErrUnknownAmmo = errors.New("unknown ammo type")

type pool struct {
	mu    sync.Mutex
	count int
}

// Ledger maps ammo type to a non-negative count. Every weapon sharing an
// ammo type draws from the same pool. In infinite mode Available still
// reports the pooled count but withdrawals never deplete it.
//
// A Ledger is safe for concurrent use; transactions on the same ammo type
// are serialized.
type Ledger struct {
	infinite bool

	mu    sync.RWMutex
	pools map[string]*pool
}

// NewLedger creates an empty ledger.
func NewLedger(infinite bool) *Ledger {
	return &Ledger{
		infinite: infinite,
		pools:    make(map[string]*pool),
	}
}

func (l *Ledger) get(ammoType string) (*pool, bool) {
	l.mu.RLock()
	p, ok := l.pools[ammoType]
	l.mu.RUnlock()
	return p, ok
}

func (l *Ledger) getOrCreate(ammoType string) (*pool, bool) {
	if p, ok := l.get(ammoType); ok {
		return p, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.pools[ammoType]; ok {
		return p, false
	}
	p := &pool{}
	l.pools[ammoType] = p
	return p, true
}

// Seed sets the starting amount of an ammo type the first time it is seen.
// Later calls for the same type are ignored. It reports whether the seed
// was applied.
func (l *Ledger) Seed(ammoType string, amount int) bool {
	p, created := l.getOrCreate(ammoType)
	if !created {
		return false
	}
	p.mu.Lock()
	p.count = max(0, amount)
	p.mu.Unlock()
	return true
}

// Increase adds amount to the pool, saturating at math.MaxInt.
// Non-positive amounts are ignored.
func (l *Ledger) Increase(ammoType string, amount int) {
	if amount <= 0 {
		return
	}
	p, _ := l.getOrCreate(ammoType)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count > math.MaxInt-amount {
		p.count = math.MaxInt
		return
	}
	p.count += amount
}

// Available returns the pooled count, 0 for unknown types.
func (l *Ledger) Available(ammoType string) int {
	p, ok := l.get(ammoType)
	if !ok {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Infinite reports whether reloads of this type bypass the pool.
func (l *Ledger) Infinite(ammoType string) bool {
	return l.infinite
}

// CanSupply reports whether a reload of this type can make progress.
func (l *Ledger) CanSupply(ammoType string) bool {
	return l.infinite || l.Available(ammoType) > 0
}

// Withdraw removes min(balance, want) rounds and returns the amount removed.
// It never blocks on other ammo types.
func (l *Ledger) Withdraw(ammoType string, want int) (int, error) {
	if want <= 0 {
		return 0, nil
	}
	p, ok := l.get(ammoType)
	if !ok {
		return 0, ErrUnknownAmmo
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := min(p.count, want)
	p.count -= n
	return n, nil
}

// Snapshot returns a copy of every pool's count.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.RLock()
	types := make([]string, 0, len(l.pools))
	for k := range l.pools {
		types = append(types, k)
	}
	l.mu.RUnlock()

	out := make(map[string]int, len(types))
	for _, t := range types {
		out[t] = l.Available(t)
	}
	return out
}
