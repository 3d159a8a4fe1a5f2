// Package config loads, normalizes, and validates dubber configuration data.
//
// It supplies repository defaults, honours the environment variables the
// engines have always read (FFMPEG_BIN, WHISPER_MODEL_NAME,
// HF_TRANSLATION_MODEL_NAME, COQUI_TTS_MODEL_NAME, DUBBING_SOURCE_LANGUAGE,
// VIDEO_RETENTION_DAYS), reads TOML files, and expands user paths. Values
// resolve file first, then environment, then default.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, normalized language codes, and clear validation errors.
package config
