package ticker

import (
	"time"

	"ticksched/internal/sched"
)

// Mutex-guarded pass-throughs to the owned engine. These are the only
// supported entry points once the tick loop is running; calling the engine
// directly from another goroutine would race an in-progress pass.
//
// The callback reentrancy rule carries over: callbacks must not call back
// into the driver that is firing them (the pass holds the driver mutex).

func (d *Driver) Create(period uint64, recurrence int, autoRemove bool, cb sched.Callback) sched.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Create(period, recurrence, autoRemove, cb)
}

func (d *Driver) Alter(id sched.ID, period uint64, recurrence int, autoRemove bool, cb sched.Callback) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Alter(id, period, recurrence, autoRemove, cb)
}

func (d *Driver) AlterCallback(id sched.ID, cb sched.Callback) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.AlterCallback(id, cb)
}

func (d *Driver) AlterAutoRemove(id sched.ID, autoRemove bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.AlterAutoRemove(id, autoRemove)
}

func (d *Driver) AlterRecurrence(id sched.ID, recurrence int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.AlterRecurrence(id, recurrence)
}

func (d *Driver) AlterPeriod(id sched.ID, period uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.AlterPeriod(id, period)
}

func (d *Driver) Remove(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Remove(id)
}

func (d *Driver) Enable(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Enable(id)
}

func (d *Driver) Disable(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Disable(id)
}

func (d *Driver) Delay(id sched.ID, ticks uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Delay(id, ticks)
}

func (d *Driver) Rearm(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Rearm(id)
}

func (d *Driver) TotalCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.TotalCount()
}

func (d *Driver) ActiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.ActiveCount()
}

func (d *Driver) IsEnabled(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.IsEnabled(id)
}

func (d *Driver) WillFireAgain(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.WillFireAgain(id)
}

func (d *Driver) PeekNextID() sched.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.PeekNextID()
}

func (d *Driver) BeginProfiling(id sched.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eng.BeginProfiling(id)
}

func (d *Driver) StopProfiling(id sched.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eng.StopProfiling(id)
}

func (d *Driver) ClearProfilingData(id sched.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eng.ClearProfilingData(id)
}

func (d *Driver) IsProfiled(id sched.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.IsProfiled(id)
}

func (d *Driver) TotalLoops() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.TotalLoops()
}

func (d *Driver) ProductiveLoops() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.ProductiveLoops()
}

func (d *Driver) Overhead() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Overhead()
}

// Snapshot returns a read-only view for diagnostics.
func (d *Driver) Snapshot() sched.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eng.Snapshot()
}
