// Package logging assembles structured slog loggers for the dubber CLI and
// daemon.
//
// It provides a console handler that prefixes lines with the component and
// job/stage subject, a JSON handler for machine consumption, and helpers that
// lift job IDs, stage names, and correlation IDs out of a context so pipeline
// code does not have to thread them by hand.
package logging
