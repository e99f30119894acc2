package mission

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeTransport records sent goals and lets tests resolve them by hand.
type fakeTransport struct {
	mu        sync.Mutex
	nextID    uint64
	handles   []*GoalHandle
	cancelled int

	// sendErr, when set, fails the next Send.
	sendErr error
}

func (t *fakeTransport) Send(_ context.Context, goal FlightGoal) (*GoalHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		err := t.sendErr
		t.sendErr = nil
		return nil, err
	}
	t.nextID++
	handle := NewGoalHandle(t.nextID, goal)
	t.handles = append(t.handles, handle)
	return handle, nil
}

func (t *fakeTransport) Cancel(_ context.Context, handle *GoalHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled++
	handle.Resolve(StatusPreempted)
	return nil
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

func (t *fakeTransport) last() *GoalHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.handles) == 0 {
		return nil
	}
	return t.handles[len(t.handles)-1]
}

func (t *fakeTransport) succeedLast() {
	if h := t.last(); h != nil {
		h.Resolve(StatusSucceeded)
	}
}

func TestGoalHandleFirstTerminalWins(t *testing.T) {
	handle := NewGoalHandle(1, FlightGoal{Motion: MotionGoto})

	if handle.Status() != StatusPending {
		t.Fatalf("fresh handle status = %v, want Pending", handle.Status())
	}
	if handle.Status().Terminal() {
		t.Fatal("pending must not be terminal")
	}

	if !handle.Resolve(StatusSucceeded) {
		t.Fatal("first resolution should win")
	}
	if handle.Resolve(StatusAborted) {
		t.Error("second resolution should be ignored")
	}
	if handle.Status() != StatusSucceeded {
		t.Errorf("status = %v, want Succeeded", handle.Status())
	}
}

func TestGoalHandleResolveRejectsNonTerminal(t *testing.T) {
	handle := NewGoalHandle(1, FlightGoal{})
	if handle.Resolve(StatusPending) {
		t.Error("resolving to Pending should be refused")
	}
	if handle.Status() != StatusPending {
		t.Errorf("status changed to %v", handle.Status())
	}
}

func TestChannelSingleOutstandingGoal(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{}
	channel := NewChannel(transport)

	first, err := channel.Submit(ctx, FlightGoal{Motion: MotionTakeoff})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := channel.Submit(ctx, FlightGoal{Motion: MotionGoto}); !errors.Is(err, ErrGoalOutstanding) {
		t.Fatalf("second submit err = %v, want ErrGoalOutstanding", err)
	}

	first.Resolve(StatusSucceeded)
	if _, err := channel.Submit(ctx, FlightGoal{Motion: MotionGoto}); err != nil {
		t.Fatalf("submit after terminal goal failed: %v", err)
	}
	if transport.count() != 2 {
		t.Errorf("transport saw %d goals, want 2", transport.count())
	}
}

func TestChannelCancel(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{}
	channel := NewChannel(transport)

	// Cancel with nothing outstanding is a no-op.
	if err := channel.Cancel(ctx); err != nil {
		t.Fatalf("idle cancel: %v", err)
	}
	if transport.cancelled != 0 {
		t.Error("idle cancel reached the transport")
	}

	handle, err := channel.Submit(ctx, FlightGoal{Motion: MotionGoto})
	if err != nil {
		t.Fatal(err)
	}
	if err := channel.Cancel(ctx); err != nil {
		t.Fatal(err)
	}
	if handle.Status() != StatusPreempted {
		t.Errorf("cancelled goal status = %v, want Preempted", handle.Status())
	}

	// Cancelling an already-terminal goal is a no-op too.
	if err := channel.Cancel(ctx); err != nil {
		t.Fatal(err)
	}
	if transport.cancelled != 1 {
		t.Errorf("transport cancel count = %d, want 1", transport.cancelled)
	}
}

func TestChannelOutstanding(t *testing.T) {
	ctx := context.Background()
	channel := NewChannel(&fakeTransport{})

	if channel.Outstanding() != nil {
		t.Fatal("outstanding should be nil before first submit")
	}

	handle, err := channel.Submit(ctx, FlightGoal{Motion: MotionLand})
	if err != nil {
		t.Fatal(err)
	}
	if channel.Outstanding() != handle {
		t.Error("outstanding should be the submitted handle")
	}

	handle.Resolve(StatusAborted)
	if channel.Outstanding() != handle {
		t.Error("terminal handle remains visible until the next submit")
	}
}
