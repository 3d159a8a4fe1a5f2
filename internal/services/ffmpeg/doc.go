// Package ffmpeg wraps the two ffmpeg invocations the dubbing pipeline needs:
// extracting a mono 16 kHz PCM track from a video, and replacing a video's
// audio with a synthesized track while copying the video stream untouched.
//
// Failures surface as *services.MediaToolError carrying ffmpeg's stderr. The
// package never deletes files and imposes no timeout beyond the caller's
// context.
package ffmpeg
