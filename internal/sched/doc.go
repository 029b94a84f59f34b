// Package sched implements a cooperative, tick-driven schedule engine.
//
// The engine owns a registry of periodic schedules (callback + timing
// metadata) and advances them in two decoupled phases:
//   - Advance(n) decrements the countdown of every enabled schedule and marks
//     schedules whose countdown reached zero as fire-pending.
//   - Service() invokes the callback of every fire-pending schedule and
//     applies the recurrence / auto-removal policy.
//
// The Engine itself performs no locking and is not safe for concurrent use;
// drive it from a single goroutine or wrap it (see internal/ticker.Driver).
// Callbacks must not mutate the registry of the engine invoking them, with
// one supported exception: Remove() of the currently executing schedule is
// deferred until its firing completes.
package sched
