package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddRejectsInvalidSpec(t *testing.T) {
	r := New(context.Background())
	if _, err := r.Add("bad", "not a spec", func(context.Context) {}); err == nil {
		t.Fatal("Expected error for invalid spec")
	}
}

func TestRunnerFiresWithBaseContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "base")
	r := New(base)

	got := make(chan any, 1)
	if _, err := r.Add("probe", "@every 1s", func(ctx context.Context) {
		select {
		case got <- ctx.Value(key{}):
		default:
		}
	}); err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop()

	select {
	case v := <-got:
		if v != "base" {
			t.Errorf("Expected base context, got %v", v)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Job did not fire")
	}
}

func TestRunnerSkipsOverlappingRuns(t *testing.T) {
	r := New(context.Background())

	var running, maxRunning atomic.Int32
	release := make(chan struct{})
	if _, err := r.Add("slow", "* * * * * *", func(context.Context) {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		<-release
	}); err != nil {
		t.Fatal(err)
	}
	r.Start()

	time.Sleep(2500 * time.Millisecond)
	close(release)
	r.Stop()

	if maxRunning.Load() > 1 {
		t.Errorf("Expected at most one concurrent run, got %d", maxRunning.Load())
	}
}
