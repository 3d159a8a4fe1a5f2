package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// whisper accepts full language names as well as codes; these are the names
// users most often put in DUBBING_SOURCE_LANGUAGE.
var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"kazakh":     "kk",
	"turkish":    "tr",
	"ukrainian":  "uk",
}

// Normalize converts a language code, BCP 47 tag, or English language name
// to the short code the engines expect (ISO 639-1 where one exists).
// Empty input returns "" with no error.
func Normalize(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", nil
	}
	if mapped, ok := wordForms[code]; ok {
		return mapped, nil
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return "", fmt.Errorf("unknown language %q: %w", code, err)
	}
	base, conf := tag.Base()
	if conf == xlanguage.No {
		return "", fmt.Errorf("unknown language %q", code)
	}
	return base.String(), nil
}

// ToISO2 is Normalize without the error; unrecognized input yields "".
func ToISO2(code string) string {
	normalized, err := Normalize(code)
	if err != nil {
		return ""
	}
	return normalized
}

// DisplayName returns the English name for a language code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	normalized, err := Normalize(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	tag, err := xlanguage.Parse(normalized)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := display.Languages(xlanguage.English).Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}
