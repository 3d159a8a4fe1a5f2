// Command dubber serves the dubbing HTTP API and manages dubbing jobs from
// the terminal.
//
// `dubber serve` runs the daemon in the foreground. The remaining commands
// open the job database and media directory directly, so they work whether or
// not a daemon is running: upload and list videos, run the dubbing pipeline
// for one job, sweep expired jobs, and report engine dependencies.
package main
