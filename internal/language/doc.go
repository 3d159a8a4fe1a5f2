// Package language normalizes the language codes exchanged with the
// transcription and translation engines.
//
// Configured source languages may be ISO 639 codes, BCP 47 tags ("en-US"),
// or English names ("english"); everything is reduced to the short base code
// before it reaches a backend.
package language
