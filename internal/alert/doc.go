// Package alert implements the threshold alert engine.
//
// Each alert is a small state machine: armed until its condition first
// holds on an observed tick, then fired, which is terminal. Evaluation
// is driven synchronously from the price-changed stream, so an armed
// alert observes every tick for its symbol exactly once and can never
// miss a crossing or fire twice. Firing atomically deactivates the
// alert and stamps the trigger time, then emits one event on the Events
// channel.
//
// Alert collections are per user, each serialized by its own lock;
// a symbol index shared with the evaluation path is guarded separately.
// Toggling a fired alert is rejected: the terminal state never re-arms
// and the trigger timestamp is never cleared.
package alert
