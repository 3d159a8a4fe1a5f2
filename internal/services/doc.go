// Package services defines shared utilities consumed by the dubbing engines
// and the job runner.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and the typed engine
//     errors (MediaToolError, DependencyMissingError, EmptyInputError) that
//     callers match with errors.Is / errors.As.
//
// Engine packages live under services/ (ffmpeg, whisper, translate, tts, llm)
// and return these errors unchanged so the job runner can record them verbatim.
package services
