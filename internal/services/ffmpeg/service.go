package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"dubber/internal/services"
)

const (
	// DefaultBinary is used when no ffmpeg path is configured.
	DefaultBinary = "ffmpeg"

	extractFailure = "Failed to extract audio with ffmpeg"
	muxFailure     = "Failed to merge dubbed audio with video"
)

// CommandRunner executes ffmpeg and returns its stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// Service runs ffmpeg subprocesses.
type Service struct {
	binary string
	runner CommandRunner
}

// NewService creates a media engine using the given ffmpeg binary.
func NewService(binary string) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Service{binary: binary, runner: run}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		s.runner = runner
	}
}

// Binary returns the configured ffmpeg executable.
func (s *Service) Binary() string {
	return s.binary
}

// ExtractAudio writes the source's audio as 16-bit mono 16 kHz PCM WAV.
func (s *Service) ExtractAudio(ctx context.Context, sourceVideo, outputAudio string) (string, error) {
	if err := s.invoke(ctx, extractFailure, ExtractArgs(sourceVideo, outputAudio)); err != nil {
		return "", err
	}
	return outputAudio, nil
}

// MuxAudioWithVideo copies the first video stream of sourceVideo and encodes
// the first audio stream of audio as AAC. Output length is the shorter input.
func (s *Service) MuxAudioWithVideo(ctx context.Context, sourceVideo, audio, outputVideo string) (string, error) {
	if err := s.invoke(ctx, muxFailure, MuxArgs(sourceVideo, audio, outputVideo)); err != nil {
		return "", err
	}
	return outputVideo, nil
}

// ExtractArgs builds the ffmpeg arguments for audio extraction.
func ExtractArgs(sourceVideo, outputAudio string) []string {
	return []string{
		"-y",
		"-i", sourceVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputAudio,
	}
}

// MuxArgs builds the ffmpeg arguments for audio replacement.
func MuxArgs(sourceVideo, audio, outputVideo string) []string {
	return []string{
		"-y",
		"-i", sourceVideo,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputVideo,
	}
}

func (s *Service) invoke(ctx context.Context, failure string, args []string) error {
	stderr, err := s.runner(ctx, s.binary, args...)
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &services.DependencyMissingError{
			Dependency: "ffmpeg",
			Remedy:     "install ffmpeg and make sure it is on PATH",
			Err:        err,
		}
	}
	return &services.MediaToolError{Message: failure, Stderr: stderr, Err: err}
}

func run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}
