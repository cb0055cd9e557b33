package csgt

import "errors"

var (
	// ErrNoResponse is returned when the service did not answer with a usable response.
	ErrNoResponse = errors.New("no response from service")

	// ErrEmptyCaptcha is returned when the CAPTCHA endpoint sent no image.
	ErrEmptyCaptcha = errors.New("empty captcha image")

	// ErrNoSession is the rejection reason when no PHPSESSID cookie was issued.
	ErrNoSession = errors.New("no session cookie")

	// ErrInvalidCaptcha is the rejection reason for OCR output of the wrong shape.
	ErrInvalidCaptcha = errors.New("captcha text is not 6 alphanumeric characters")

	// ErrCaptchaUnsolved is returned by SubmitQuery when no usable CAPTCHA
	// could be obtained, in which case nothing is posted.
	ErrCaptchaUnsolved = errors.New("captcha could not be solved")

	// ErrInvalidResultURL is the rejection reason when the query reply does
	// not point at the result host.
	ErrInvalidResultURL = errors.New("result url missing or not on the result host")

	// ErrEmptyResultURL is returned by ParseResult when called without a URL.
	ErrEmptyResultURL = errors.New("empty result url")

	// ErrResultNotReady is the rejection reason for a retryable parse outcome.
	ErrResultNotReady = errors.New("result page not in a final state")
)
