package cellgfx

import (
	"io"
	"log"
	"os"
)

// DefaultLogger writes to stderr with a "cellgfx: " prefix.
func DefaultLogger() *log.Logger {
	return log.New(os.Stderr, "cellgfx: ", log.LstdFlags)
}

// orDiscard keeps nil loggers usable.
func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}
