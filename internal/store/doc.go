// Package store keeps the history of scenario runs in SQLite.
//
// Every run is written once, in a single transaction, and never updated:
//   - runs: one row per invocation of the runner, with aggregate counts
//   - scenario_results: one row per scenario, in declared order
//   - step_results: recorded step outcomes, in execution order
//
// Reads return rows in the order they were written (seq ASC), so a run
// read back renders the same report it was written from, durations
// aside.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
