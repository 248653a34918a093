package containers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceQueueBasics(t *testing.T) {
	t.Parallel()

	q := NewSliceQueue[int]()

	_, ok := q.Pop()
	require.False(t, ok)
	_, ok = q.Peek()
	require.False(t, ok)

	q.Add(1)
	q.Add(2)
	require.Equal(t, 2, q.Size())

	head, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, 1, head)

	head, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, 1, head)

	head, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, 2, head)
	require.Equal(t, 0, q.Size())
}

func TestSliceQueueSignal(t *testing.T) {
	t.Parallel()

	q := NewSliceQueue[int]()

	const numElems = 1000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < numElems; i++ {
			q.Add(i)
		}
	}()

	next := 0
	for next < numElems {
		<-q.C
		for {
			elem, ok := q.Pop()
			if !ok {
				break
			}
			require.Equal(t, next, elem)
			next++
		}
	}
	wg.Wait()
}
