// Package pyhelper runs short embedded Python programs for engines whose
// models only ship as Python libraries (transformers, torch).
//
// A helper receives its request on stdin, writes a single JSON document to
// stdout, and reports failures on stderr. Only the last 8 KiB of stderr is
// retained. Probe checks that the required modules import cleanly and caches
// the outcome so engines can resolve their dependencies lazily.
package pyhelper
