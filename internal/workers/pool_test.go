package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitReturnsJobError(t *testing.T) {
	p := New(2, 0)
	defer p.Shutdown()

	boom := errors.New("boom")
	if err := p.Submit(func(context.Context) error { return boom }).Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}
	if err := p.Submit(func(context.Context) error { return nil }).Wait(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	p := New(1, 0)
	defer p.Shutdown()

	err := p.Submit(func(context.Context) error { panic("kaputt") }).Wait()
	if err == nil {
		t.Fatal("panic was not reported")
	}
	// The worker survives.
	if err := p.Submit(func(context.Context) error { return nil }).Wait(); err != nil {
		t.Fatalf("pool unusable after panic: %v", err)
	}
}

func TestShutdownJoinsAndCancels(t *testing.T) {
	p := New(2, 0)
	var finished, cancelled atomic.Int32
	release := make(chan struct{})
	for range 6 {
		p.Submit(func(ctx context.Context) error {
			select {
			case <-release:
			case <-ctx.Done():
				cancelled.Add(1)
			}
			finished.Add(1)
			return nil
		})
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	p.Shutdown()
	if finished.Load() != 6 {
		t.Fatalf("Shutdown returned with %d of 6 jobs finished", finished.Load())
	}
	if p.Context().Err() == nil {
		t.Errorf("pool context not cancelled")
	}
	if err := p.Submit(func(context.Context) error { return nil }).Wait(); !Rejected(err) {
		t.Errorf("submit after shutdown should be rejected, got %v", err)
	}
}

func TestQueueFullRejects(t *testing.T) {
	p := New(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func(context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started
	p.Submit(func(context.Context) error { return nil })

	rejected := false
	for range 32 {
		task := p.Submit(func(context.Context) error { return nil })
		select {
		case <-task.Done():
			rejected = rejected || Rejected(task.Wait())
		default:
		}
	}
	close(block)
	p.Shutdown()
	if !rejected {
		t.Errorf("expected a rejected submission once the queue was full")
	}
}
