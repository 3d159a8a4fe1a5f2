// Package jobs owns the dubbing job lifecycle.
//
// The Store persists jobs in SQLite (modernc.org/sqlite) with embedded
// migrations. The Runner processes a single job end to end: it resolves the
// original upload, stages it in a private temp directory, runs the pipeline
// and records the terminal status. Runner.Process never returns an error;
// failures are recorded on the job row instead.
//
// The Dispatcher admits jobs (rejecting ones already processing) and hands
// them to a bounded worker pool. The Sweeper deletes jobs and their media once
// they outlive the retention window.
package jobs
