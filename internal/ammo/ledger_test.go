package ammo

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_SeedOncePerType(t *testing.T) {
	l := NewLedger(false)

	assert.True(t, l.Seed("9mm", 60))
	assert.False(t, l.Seed("9mm", 999), "second seed for the same type must be ignored")
	assert.Equal(t, 60, l.Available("9mm"))
}

func TestLedger_SeedNegativeClampsToZero(t *testing.T) {
	l := NewLedger(false)
	l.Seed("rocket", -4)
	assert.Equal(t, 0, l.Available("rocket"))
}

func TestLedger_Increase(t *testing.T) {
	l := NewLedger(false)

	l.Increase("shell", 8)
	l.Increase("shell", 4)
	l.Increase("shell", -10)
	l.Increase("shell", 0)

	assert.Equal(t, 12, l.Available("shell"))
}

func TestLedger_IncreaseSaturates(t *testing.T) {
	l := NewLedger(false)
	l.Seed("shell", math.MaxInt-1)

	l.Increase("shell", 10)

	assert.Equal(t, math.MaxInt, l.Available("shell"))
}

func TestLedger_AvailableUnknown(t *testing.T) {
	l := NewLedger(false)
	assert.Equal(t, 0, l.Available("none"))
	assert.False(t, l.CanSupply("none"))
}

func TestLedger_Withdraw(t *testing.T) {
	l := NewLedger(false)
	l.Seed("556", 25)

	n, err := l.Withdraw("556", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 15, l.Available("556"))

	n, err = l.Withdraw("556", 40)
	require.NoError(t, err)
	assert.Equal(t, 15, n, "withdraw is bounded by the balance")
	assert.Equal(t, 0, l.Available("556"))

	n, err = l.Withdraw("556", 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedger_WithdrawUnknown(t *testing.T) {
	l := NewLedger(false)
	_, err := l.Withdraw("missing", 1)
	assert.ErrorIs(t, err, ErrUnknownAmmo)
}

func TestLedger_Infinite(t *testing.T) {
	l := NewLedger(true)
	assert.True(t, l.Infinite("any"))
	assert.True(t, l.CanSupply("any"), "infinite ledger supplies even when empty")

	finite := NewLedger(false)
	finite.Seed("any", 1)
	assert.False(t, finite.Infinite("any"))
	assert.True(t, finite.CanSupply("any"))
}

func TestLedger_ConcurrentWithdrawNeverOverdraws(t *testing.T) {
	l := NewLedger(false)
	l.Seed("556", 1000)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				n, err := l.Withdraw("556", 3)
				if err != nil {
					return
				}
				mu.Lock()
				total += n
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, total, "1500 rounds requested, exactly the seeded 1000 delivered")
	assert.Equal(t, 0, l.Available("556"))
}

func TestLedger_Snapshot(t *testing.T) {
	l := NewLedger(false)
	l.Seed("a", 1)
	l.Seed("b", 2)

	snap := l.Snapshot()
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, snap)
}
