package domain

import (
	"regexp"
	"strings"
)

// LanguageDetector identifies the language of a text, returning an ISO 639-1
// code or "unknown" when there is no signal. Implementations never fail.
type LanguageDetector interface {
	Detect(text string) string
}

// Redaction masks. None of them contain digits or "@", so re-redacting
// already-redacted text is a no-op.
const (
	MaskPhone = "[phone]"
	MaskEmail = "[email]"
	MaskID    = "[id]"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// nationalIDRe matches ID-shaped digit groups like "123-45-6789" or
	// "12.345.678-9" before the looser phone pattern can eat them.
	nationalIDRe = regexp.MustCompile(`\b\d{2,3}[.-]\d{2,3}[.-]\d{3,4}(?:[.-]\d{1,2})?\b`)

	// phoneRe matches phone-shaped digit runs: optional "+", 8-14 digits with
	// optional single separators.
	phoneRe = regexp.MustCompile(`\+?\d(?:[ .()-]?\d){7,13}`)

	urlRe        = regexp.MustCompile(`\b(?:https?://|www\.)\S+`)
	handleRe     = regexp.MustCompile(`[@#]\w+`)
	disallowedRe = regexp.MustCompile(`[^a-z0-9 .,!?-]+`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// NormalizedReport is the output of the normalization stage.
type NormalizedReport struct {
	Language string
	Redacted string
	Text     string
	Tokens   []string
}

// Redact substitutes phone-number-shaped digit runs, email-like tokens, and
// national-ID-shaped digit groups with fixed masks. Deterministic and
// idempotent.
func Redact(text string) string {
	text = emailRe.ReplaceAllString(text, MaskEmail)
	text = nationalIDRe.ReplaceAllString(text, MaskID)
	text = phoneRe.ReplaceAllString(text, MaskPhone)
	return text
}

// Canonicalize lowercases the text, strips URLs, @handles, #hashtags and any
// character outside [a-z0-9 .,!?-], collapses whitespace, and trims.
func Canonicalize(text string) string {
	text = strings.ToLower(text)
	text = urlRe.ReplaceAllString(text, " ")
	text = handleRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Tokenize splits canonical text on whitespace.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// NormalizeReport runs the full normalization stage: language detection over
// the raw text, PII redaction, then canonicalization and tokenization of the
// redacted text. Pure over its inputs.
func NormalizeReport(text string, detector LanguageDetector) NormalizedReport {
	lang := "unknown"
	if detector != nil {
		lang = detector.Detect(text)
	}
	redacted := Redact(text)
	canonical := Canonicalize(redacted)
	return NormalizedReport{
		Language: lang,
		Redacted: redacted,
		Text:     canonical,
		Tokens:   Tokenize(canonical),
	}
}
