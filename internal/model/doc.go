// Package model defines the data structures shared by every stage of a
// traffic fine lookup.
//
// This package contains the following main types:
//   - CaptchaAttempt: a session cookie paired with the OCR answer for it
//   - QueryOutcome: the result page URL returned by the query endpoint
//   - ParseOutcome: records parsed from the result page and whether the
//     page must be fetched again
//   - ViolationRecord: one violation, filled from the ordered field table
//   - ResponseEnvelope: the only value handed back to callers of a lookup
//   - Lookup: the state of one lookup run as it moves through the pipeline
//
// Plate and CAPTCHA normalization helpers live here as well, because the
// CLI, the service client and the pipeline all need them.
package model
