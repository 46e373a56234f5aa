package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testItem is a simple struct for testing the generic queue
type testItem struct {
	ID   int
	Name string
}

func TestQueue_New(t *testing.T) {
	q := New[testItem]()
	require.NotNil(t, q)
	assert.True(t, q.Empty())
	assert.Zero(t, q.Len())
	assert.Zero(t, q.Peak())
}

func TestQueue_PushPop(t *testing.T) {
	q := New[testItem]()

	_, ok := q.Pop()
	assert.False(t, ok, "empty queue")

	q.Push(testItem{ID: 1, Name: "first"}, testItem{ID: 2, Name: "second"})
	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, testItem{ID: 1, Name: "first"}, first)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Peak(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	q.Pop()
	q.Push(4)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 3, q.Peak())

	q.Push(5)
	assert.Equal(t, 4, q.Peak())

	q.GetAndEmpty()
	assert.Equal(t, 4, q.Peak(), "draining keeps the peak")
	q.ResetPeak()
	assert.Zero(t, q.Peak())
}

func TestQueue_Clear(t *testing.T) {
	q := New[string]()
	q.Push("a", "b")
	q.Clear()
	assert.True(t, q.Empty())
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	assert.Equal(t, []int{1, 2, 3}, q.GetAndEmpty())
	assert.True(t, q.Empty())
	assert.Empty(t, q.GetAndEmpty())
}

func TestQueue_Take(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4, 5)

	assert.Equal(t, []int{1, 2}, q.Take(2))
	assert.Equal(t, 3, q.Len())

	q.Push(6)
	assert.Equal(t, []int{3, 4, 5, 6}, q.Take(10))
	assert.True(t, q.Empty())

	q.Push(7, 8)
	assert.Equal(t, []int{7, 8}, q.Take(0))
}

func TestQueue_TakeDoesNotAlias(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	batch := q.Take(1)
	q.Push(4)
	batch[0] = 99
	assert.Equal(t, []int{2, 3, 4}, q.GetAndEmpty())
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(g*100 + i)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 1000, q.Len())

	var mu sync.Mutex
	total := 0
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := len(q.Take(50))
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, total)
	assert.Equal(t, 500, q.Len())
}
