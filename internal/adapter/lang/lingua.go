// Package lang detects the language of report text using lingua-go.
package lang

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// minDetectableRunes is the length below which detection is too unreliable
// to report a language at all.
const minDetectableRunes = 20

// Detector implements domain.LanguageDetector with a lingua model limited
// to the languages reports actually arrive in.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector for the supported report languages.
func NewDetector() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Spanish,
			lingua.Portuguese,
			lingua.French,
		).
		Build()
	return &Detector{detector: d}
}

// Detect returns the ISO 639-1 code of the most likely language, or
// "unknown" when the text is too short or no language is confident.
func (d *Detector) Detect(text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minDetectableRunes {
		return "unknown"
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "unknown"
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
