package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircular_WriteRead(t *testing.T) {
	buf := NewCircular[int](3)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))

	v, ok := buf.Read()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = buf.Read()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = buf.Read()
	assert.False(t, ok)
}

func TestCircular_DropOldest(t *testing.T) {
	var dropped []int
	buf := NewCircular(3,
		WithOverflowPolicy[int](DropOldest),
		WithDropCallback(func(item int) { dropped = append(dropped, item) }),
	)

	for i := 1; i <= 5; i++ {
		require.NoError(t, buf.Write(i))
	}

	assert.Equal(t, []int{3, 4, 5}, buf.Snapshot())
	assert.Equal(t, []int{1, 2}, dropped)
	assert.Equal(t, int64(2), buf.Stats().Drops())
}

func TestCircular_DropNewest(t *testing.T) {
	buf := NewCircular(2, WithOverflowPolicy[int](DropNewest))

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3)) // dropped

	assert.Equal(t, []int{1, 2}, buf.Snapshot())
	assert.Equal(t, int64(1), buf.Stats().Drops())
}

func TestCircular_SnapshotWrapsAround(t *testing.T) {
	buf := NewCircular[int](3)

	for i := 1; i <= 4; i++ {
		require.NoError(t, buf.Write(i))
	}
	_, _ = buf.Read()
	require.NoError(t, buf.Write(5))

	assert.Equal(t, []int{3, 4, 5}, buf.Snapshot())
}

func TestCircular_Clear(t *testing.T) {
	buf := NewCircular[string](4)
	require.NoError(t, buf.Write("a"))
	require.NoError(t, buf.Write("b"))

	buf.Clear()

	assert.True(t, buf.IsEmpty())
	assert.Empty(t, buf.Snapshot())
	_, ok := buf.Peek()
	assert.False(t, ok)
}

func TestCircular_WriteAfterClose(t *testing.T) {
	buf := NewCircular[int](2)
	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Close())

	assert.Error(t, buf.Write(2))

	// Buffered items remain readable after close.
	v, ok := buf.Read()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCircular_ConcurrentAccess(t *testing.T) {
	buf := NewCircular[int](128)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = buf.Write(base + i)
				buf.Read()
			}
		}(w * 1000)
	}
	wg.Wait()

	assert.LessOrEqual(t, buf.Size(), 128)
}
