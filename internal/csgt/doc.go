// Package csgt talks to the traffic police violation lookup service.
//
// A lookup is three unreliable stages chained through one session cookie:
//
//  1. ResolveCaptcha fetches a CAPTCHA image, which also issues the
//     PHPSESSID session, and reads it with OCR.
//  2. SubmitQuery posts the plate, vehicle type and CAPTCHA answer and
//     receives the URL of the result page.
//  3. ParseResult fetches that page and turns it into violation records.
//
// Each stage has a WithRetry variant that drives it through retry.Do until
// its output is usable. SubmitQueryWithRetry solves a fresh CAPTCHA on every
// attempt because an answer is only valid for the session that issued it.
//
// ParseResultPage is the pure HTML interpretation step and has no I/O.
package csgt
