package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
)

// words maps common English language names to ISO 639-1 codes.
var words = map[string]string{
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
}

// Normalize converts a language code, tag, or English name to its base ISO 639
// code (two letters when one exists). An empty input returns an empty string.
func Normalize(value string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(value))
	if code == "" {
		return "", nil
	}
	if mapped, ok := words[code]; ok {
		return mapped, nil
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", value, err)
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return "", fmt.Errorf("unrecognized language %q", value)
	}
	return base.String(), nil
}

// ToISO2 is Normalize without the error: unrecognized input yields "".
func ToISO2(value string) string {
	code, err := Normalize(value)
	if err != nil {
		return ""
	}
	return code
}
