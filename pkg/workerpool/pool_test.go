package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsResult(t *testing.T) {
	p := New(4)
	defer p.Close()

	f := p.Submit(func() any { return 42 })
	require.Equal(t, 42, f.Wait())
}

func TestSubmitRunsConcurrently(t *testing.T) {
	p := New(4)
	defer p.Close()

	var inFlight int32
	var maxInFlight int32
	release := make(chan struct{})

	awaitables := make([]interface{ Wait() any }, 4)
	for i := 0; i < 4; i++ {
		awaitables[i] = p.Submit(func() any {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&maxInFlight)
				if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	for _, a := range awaitables {
		a.Wait()
	}

	assert.Equal(t, int32(4), maxInFlight)
}

func TestWaitIsIdempotent(t *testing.T) {
	p := New(2)
	defer p.Close()

	var calls int32
	f := p.Submit(func() any {
		atomic.AddInt32(&calls, 1)
		return "ok"
	})

	require.Equal(t, "ok", f.Wait())
	require.Equal(t, "ok", f.Wait())
	assert.Equal(t, int32(1), calls)
}

func TestCloseWaitsForInFlightTasks(t *testing.T) {
	p := New(1)

	done := make(chan struct{})
	p.Submit(func() any {
		close(done)
		return nil
	})

	p.Close()
	select {
	case <-done:
	default:
		t.Fatalf("expected task to have completed before Close returned")
	}
}
