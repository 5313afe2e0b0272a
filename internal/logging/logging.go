// internal/logging/logging.go
// Package logging configures the apex/log logger shared by the wildguard commands.
package logging

import (
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
)

// New returns a text logger writing to w at the given level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	return &log.Logger{
		Handler: text.New(w),
		Level:   lvl,
	}
}
