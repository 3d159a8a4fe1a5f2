// Package tts synthesizes dubbed speech into WAV files.
//
// The backend is fixed when the Service is built. Model ids starting with
// "facebook/mms-tts-" use the direct-waveform path: a Python helper runs the
// VITS model and hands back float samples, which are clipped, scaled to
// 16-bit PCM, and written as a mono WAV here. Every other model id goes
// through the Coqui TTS command line tool.
package tts
