package model

import "strings"

// CaptchaLength is the number of characters in every CAPTCHA the service issues.
const CaptchaLength = 6

// CaptchaAttempt pairs the session cookie issued with a CAPTCHA image and the
// text recognized from that image. The answer is only valid for that session.
type CaptchaAttempt struct {
	// SessionID is the raw cookie pair, e.g. "PHPSESSID=abc".
	SessionID string

	// Text is the OCR output after CleanCaptcha.
	Text string
}

// Usable reports whether the attempt is worth submitting: a session exists
// and the answer has the expected shape.
func (a CaptchaAttempt) Usable() bool {
	return a.SessionID != "" && IsValidCaptcha(a.Text)
}

// CleanCaptcha trims, lowercases and removes every non-alphanumeric character
// from raw OCR output.
func CleanCaptcha(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	var sb strings.Builder
	sb.Grow(len(lower))
	for _, c := range lower {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// IsValidCaptcha reports whether text is exactly CaptchaLength characters
// long after normalization.
func IsValidCaptcha(text string) bool {
	return len(CleanCaptcha(text)) == CaptchaLength
}
