package tts

import "strings"

// Backend identifies the synthesis strategy.
type Backend int

const (
	// BackendGeneral drives the Coqui TTS command line tool.
	BackendGeneral Backend = iota
	// BackendDirectWaveform runs a VITS model and writes the waveform itself.
	BackendDirectWaveform
)

const directWaveformPrefix = "facebook/mms-tts-"

func (b Backend) String() string {
	switch b {
	case BackendDirectWaveform:
		return "direct-waveform"
	case BackendGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// SelectBackend picks the backend for a model id.
func SelectBackend(model string) Backend {
	if strings.HasPrefix(strings.TrimSpace(model), directWaveformPrefix) {
		return BackendDirectWaveform
	}
	return BackendGeneral
}
