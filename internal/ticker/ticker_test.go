package ticker

import (
	"context"
	"testing"
	"time"

	"ticksched/internal/sched"
	logx "ticksched/pkg/logx"
)

func newTestDriver(res time.Duration) *Driver {
	eng := sched.New(sched.Config{}, logx.Nop(), nil)
	return New(Config{Resolution: res}, eng, logx.Nop())
}

func TestTickManualPump(t *testing.T) {
	t.Parallel()
	d := newTestDriver(time.Hour) // loop never started; Tick drives time

	calls := 0
	id := d.Create(3, sched.RecurForever, false, func() { calls++ })
	if id == 0 {
		t.Fatal("Create failed")
	}

	d.Tick(2)
	if calls != 0 {
		t.Fatalf("fired after 2/3 ticks")
	}
	d.Tick(1)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	d.Tick(3)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWrappersDelegate(t *testing.T) {
	t.Parallel()
	d := newTestDriver(time.Hour)

	id := d.Create(10, 1, false, func() {})
	if d.TotalCount() != 1 || d.ActiveCount() != 1 {
		t.Fatalf("counts = %d/%d", d.TotalCount(), d.ActiveCount())
	}
	if !d.WillFireAgain(id) {
		t.Fatal("WillFireAgain = false")
	}
	if !d.Disable(id) || d.IsEnabled(id) {
		t.Fatal("Disable/IsEnabled mismatch")
	}
	if !d.AlterPeriod(id, 4) || !d.Rearm(id) {
		t.Fatal("AlterPeriod/Rearm failed")
	}
	snap := d.Snapshot()
	if len(snap.Schedules) != 1 || snap.Schedules[0].TimeToWait != 4 {
		t.Fatalf("snapshot = %+v", snap.Schedules)
	}
	d.BeginProfiling(id)
	if !d.IsProfiled(id) {
		t.Fatal("IsProfiled = false")
	}
	if !d.Remove(id) || d.Remove(id) {
		t.Fatal("Remove semantics broken")
	}
}

func TestLoopFiresSchedule(t *testing.T) {
	t.Parallel()
	d := newTestDriver(time.Millisecond)

	fired := make(chan struct{}, 1)
	d.Create(1, 1, true, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx := context.Background()
	d.Start(ctx)
	defer d.Stop(ctx)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("schedule never fired under the tick loop")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()
	d := newTestDriver(time.Millisecond)
	ctx := context.Background()

	d.Start(ctx)
	d.Start(ctx) // no-op while running
	d.Stop(ctx)
	d.Stop(ctx) // no-op when stopped

	// Restart after stop still works.
	d.Start(ctx)
	d.Stop(ctx)
}

func TestApplyKeepsStoppedLoopStopped(t *testing.T) {
	t.Parallel()
	d := newTestDriver(time.Millisecond)
	d.Apply(Config{Resolution: 2 * time.Millisecond})

	d.mu.Lock()
	running := d.cancel != nil
	res := d.cfg.Resolution
	d.mu.Unlock()
	if running {
		t.Fatal("Apply started a stopped loop")
	}
	if res != 2*time.Millisecond {
		t.Fatalf("resolution = %v", res)
	}
}

func TestApplyDefaultsZeroResolution(t *testing.T) {
	t.Parallel()
	d := newTestDriver(0)
	d.mu.Lock()
	res := d.cfg.Resolution
	d.mu.Unlock()
	if res != DefaultResolution {
		t.Fatalf("resolution = %v, want default %v", res, DefaultResolution)
	}
}
