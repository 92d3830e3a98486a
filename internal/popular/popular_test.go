package popular

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_HitAndTop(t *testing.T) {
	tr := New(10, 0)
	for i := 0; i < 100; i++ {
		tr.Hit("hot")
	}
	for i := 0; i < 50; i++ {
		tr.Hit("warm")
	}
	tr.Hit("cold")

	top := tr.Top(2)
	assert.Equal(t, []Entry{{ID: "hot", Count: 100}, {ID: "warm", Count: 50}}, top)
	assert.Len(t, tr.Top(0), 3)
}

func TestTracker_TiesOrderedByID(t *testing.T) {
	tr := New(10, 0)
	for _, id := range []string{"c", "a", "b", "d"} {
		tr.Hit(id)
	}
	tr.Hit("d")

	assert.Equal(t, []Entry{{"d", 2}, {"a", 1}, {"b", 1}}, tr.Top(3))
}

func TestTracker_ForgetAndReset(t *testing.T) {
	tr := New(10, 0)
	tr.Hit("x")
	tr.Hit("y")
	tr.Forget("x")
	assert.Equal(t, 1, tr.Size())
	assert.Equal(t, []Entry{{"y", 1}}, tr.Top(5))

	tr.Reset()
	assert.Equal(t, 0, tr.Size())
	assert.Empty(t, tr.Top(5))
}

func TestTracker_Decay(t *testing.T) {
	tr := New(10, 0)
	for i := 0; i < 5; i++ {
		tr.Hit("key")
	}
	tr.Hit("once")
	tr.decay()

	assert.Equal(t, []Entry{{"key", 2}}, tr.Top(5))
}

func TestTracker_DecayLoopStops(t *testing.T) {
	tr := New(10, 10*time.Millisecond)
	for i := 0; i < 100; i++ {
		tr.Hit("key")
	}
	require.Eventually(t, func() bool {
		top := tr.Top(1)
		return len(top) == 0 || top[0].Count < 100
	}, time.Second, 5*time.Millisecond)

	tr.Close()
	tr.Close()
}

func TestTracker_ConcurrentHits(t *testing.T) {
	tr := New(10, 0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Hit("shared")
				tr.Hit(fmt.Sprintf("own-%d", i))
			}
		}(i)
	}
	wg.Wait()

	top := tr.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, Entry{"shared", 1000}, top[0])
	assert.Equal(t, 11, tr.Size())
}
