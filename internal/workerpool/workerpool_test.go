package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsAndReturnsValue(t *testing.T) {
	p := New(2)
	res := <-Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if res.Err != nil || res.Value != 42 {
		t.Fatalf("got %+v", res)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(1)
	var inFlight int32
	var maxSeen int32

	const tasks = 5
	chans := make([]<-chan Result[struct{}], tasks)
	for i := 0; i < tasks; i++ {
		chans[i] = Submit(context.Background(), p, func(ctx context.Context) (struct{}, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return struct{}{}, nil
		})
	}
	for _, c := range chans {
		<-c
	}
	if maxSeen > 1 {
		t.Fatalf("expected at most 1 concurrent task, saw %d", maxSeen)
	}
}

func TestRunPropagatesCancellation(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, p, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
