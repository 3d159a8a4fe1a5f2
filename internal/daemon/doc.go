// Package daemon coordinates the long-running dubber process.
//
// It wires configuration, the job store, media storage, the dispatcher, and
// the retention sweeper into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon owns the HTTP API listener, fails
// jobs left in processing by a previous run, and assembles the health report.
//
// Keep orchestration logic here: the dubbing stages live in the pipeline
// package and job bookkeeping in jobs, while the daemon focuses on startup,
// shutdown, and periodic maintenance.
package daemon
