package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testChecker() *Checker {
	return New(Config{
		CheckInterval: time.Minute,
		ProbeTimeout:  time.Second,
		FailThreshold: 3,
	}, zap.NewNop())
}

func TestHealthyProbe(t *testing.T) {
	c := testChecker()
	c.AddProbe("mongo", func(ctx context.Context) error { return nil })

	c.CheckAll(context.Background())

	if !c.Healthy() {
		t.Fatal("expected healthy")
	}
	st := c.Snapshot()["mongo"]
	if !st.Healthy || st.Error != "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestDegradedOnlyAfterThreshold(t *testing.T) {
	c := testChecker()
	boom := errors.New("connection refused")
	c.AddProbe("nats", func(ctx context.Context) error { return boom })

	ctx := context.Background()

	// Below the threshold the dependency still reports healthy.
	c.CheckAll(ctx)
	c.CheckAll(ctx)
	if !c.Healthy() {
		t.Fatal("two failures must not trip the threshold of three")
	}

	c.CheckAll(ctx)
	if c.Healthy() {
		t.Fatal("expected degraded after three consecutive failures")
	}
	st := c.Snapshot()["nats"]
	if st.Healthy || st.Error != "connection refused" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestRecovery(t *testing.T) {
	c := testChecker()
	var fail bool
	c.AddProbe("mongo", func(ctx context.Context) error {
		if fail {
			return errors.New("timeout")
		}
		return nil
	})

	ctx := context.Background()
	fail = true
	for i := 0; i < 3; i++ {
		c.CheckAll(ctx)
	}
	if c.Healthy() {
		t.Fatal("expected degraded")
	}

	fail = false
	c.CheckAll(ctx)
	if !c.Healthy() {
		t.Fatal("one success must reset the failure count")
	}
}

func TestStartReturnsWhenStopped(t *testing.T) {
	c := testChecker()
	c.AddProbe("mongo", func(ctx context.Context) error { return nil })

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		c.Start(stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after stop was closed")
	}
}

func TestProbeTimeoutIsEnforced(t *testing.T) {
	c := New(Config{
		CheckInterval: time.Minute,
		ProbeTimeout:  10 * time.Millisecond,
		FailThreshold: 1,
	}, zap.NewNop())
	c.AddProbe("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan struct{})
	go func() {
		c.CheckAll(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("probe did not respect its timeout")
	}
	if c.Healthy() {
		t.Fatal("timed-out probe must count as a failure")
	}
}
