package tts

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultSampleRate applies when a model reports no sampling rate.
	DefaultSampleRate = 16000
	pcmBitDepth       = 16
	wavFormatPCM      = 1
)

// WAVInfo describes a WAV file's stream parameters.
type WAVInfo struct {
	Channels   int
	BitDepth   int
	SampleRate int
	Duration   time.Duration
}

// PCM16 clips samples to [-1, 1] and scales them to signed 16-bit values.
// Scaling truncates toward zero.
func PCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s)
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		case math.IsNaN(v):
			v = 0
		}
		out[i] = int(int16(v * 32767))
	}
	return out
}

// WriteMonoPCM16 writes samples as a mono 16-bit PCM WAV file.
func WriteMonoPCM16(path string, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	enc := wav.NewEncoder(file, sampleRate, pcmBitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           PCM16(samples),
		SourceBitDepth: pcmBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		file.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return file.Close()
}

// ReadWAVInfo reads the header of a WAV file.
func ReadWAVInfo(path string) (WAVInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return WAVInfo{}, fmt.Errorf("read wav header: %w", err)
	}
	if dec.NumChans == 0 {
		return WAVInfo{}, errors.New("read wav header: not a wav file")
	}
	info := WAVInfo{
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		SampleRate: int(dec.SampleRate),
	}
	if d, err := dec.Duration(); err == nil {
		info.Duration = d
	}
	return info, nil
}
