// Package log builds the slog loggers used by phatnguoi.
//
// Every logger returned here wraps its handler in a SecureHandler, which
// masks values that would let someone replay a lookup session: the
// PHPSESSID cookie bound to a solved CAPTCHA, raw Cookie headers and the
// usual credentials. Masking applies in verbose mode too, because debug
// logs are the ones most often pasted into bug reports.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("query submitted", "cookie", "PHPSESSID=abc") // cookie=***REDACTED***
//
// With --log-file the CLI tees log output into a size-rotated file:
//
//	f := log.NewRotatingFile(path)
//	defer f.Close()
//	logger := log.NewSecureLogger(io.MultiWriter(os.Stderr, f), verbose)
package log
