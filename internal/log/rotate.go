package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 28
)

// NewRotatingFile returns a writer that appends to path and rotates it once
// it grows past maxLogSizeMB. Old files are gzip-compressed. The file and
// its directory are created on first write.
func NewRotatingFile(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}
}
