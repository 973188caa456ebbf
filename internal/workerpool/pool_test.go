package workerpool

import (
	"context"
	"testing"
	"time"
)

func echoProcessor(ctx context.Context, input any) (any, error) {
	return input, nil
}

func TestSubmitResolves(t *testing.T) {
	p := New(echoProcessor, Options{MaxWorkers: 2})
	defer p.Shutdown()

	ch, err := p.Submit(Task{ID: "t1", Input: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-ch:
		if r.Err != nil || r.Output != "hello" {
			t.Fatalf("unexpected result: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestQueueFullFailsFast(t *testing.T) {
	block := make(chan struct{})
	slow := func(ctx context.Context, input any) (any, error) {
		<-block
		return nil, nil
	}
	p := New(slow, Options{MaxWorkers: 1, QueueCapacity: 1})
	defer func() {
		close(block)
		p.Shutdown()
	}()

	if _, err := p.Submit(Task{ID: "a"}); err != nil {
		t.Fatalf("expected first submit to succeed, got %v", err)
	}
	if _, err := p.Submit(Task{ID: "b"}); err != nil {
		t.Fatalf("expected second submit (fills queue capacity 1) to succeed, got %v", err)
	}
	if _, err := p.Submit(Task{ID: "c"}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestSubmitAfterShutdownFails(t *testing.T) {
	p := New(echoProcessor, Options{MaxWorkers: 1})
	p.Shutdown()
	if _, err := p.Submit(Task{ID: "a"}); err != ErrShutdown {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
}

func TestTaskTimeout(t *testing.T) {
	hang := func(ctx context.Context, input any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p := New(hang, Options{MaxWorkers: 1})
	defer p.Shutdown()

	ch, err := p.Submit(Task{ID: "t", TimeoutMs: 20})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-ch:
		if r.Err != ErrTaskTimeout {
			t.Fatalf("expected ErrTaskTimeout, got %v", r.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timeout result")
	}
}

func TestSubmitStreamDeliversAllByID(t *testing.T) {
	p := New(echoProcessor, Options{MaxWorkers: 4})
	defer p.Shutdown()

	tasks := []Task{{ID: "1", Input: 1}, {ID: "2", Input: 2}, {ID: "3", Input: 3}}
	ch, err := p.SubmitStream(tasks)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for r := range ch {
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		seen[r.TaskID] = true
	}
	for _, want := range []string{"1", "2", "3"} {
		if !seen[want] {
			t.Errorf("expected result for task %s", want)
		}
	}
}

func TestClearQueueCancelsPending(t *testing.T) {
	block := make(chan struct{})
	slow := func(ctx context.Context, input any) (any, error) {
		<-block
		return nil, nil
	}
	p := New(slow, Options{MaxWorkers: 1, QueueCapacity: 10})
	defer p.Shutdown()

	// First task occupies the only worker slot.
	busyCh, _ := p.Submit(Task{ID: "busy"})
	pendingCh, err := p.Submit(Task{ID: "pending"})
	if err != nil {
		t.Fatal(err)
	}

	// Give the busy task a moment to actually start before clearing.
	time.Sleep(50 * time.Millisecond)
	p.ClearQueue()

	select {
	case r := <-pendingCh:
		if r.Err != ErrCancelled {
			t.Fatalf("expected ErrCancelled for pending task, got %v", r.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancellation")
	}
	close(block)
	<-busyCh
}
