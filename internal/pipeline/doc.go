// Package pipeline chains the dubbing engines into a single run:
// extract audio, transcribe, translate, synthesize, and mux the synthesized
// track back onto the source video.
//
// The orchestrator does not catch anything. The first failing stage aborts
// the run and its error is returned unchanged, so callers see exactly what the
// engine reported.
package pipeline
