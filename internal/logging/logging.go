// Package logging holds disko's debug loggers. They discard everything until
// Enable is called or DISKO_DEBUG is set; the terminal belongs to the UI, so
// output goes to a file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	// Debug traces controller and UI activity
	Debug = log.New(io.Discard, "", 0)
	// Walker reports skipped entries and unreadable directories
	Walker = log.New(io.Discard, "", 0)

	mu      sync.Mutex
	logFile *os.File
)

func init() {
	if os.Getenv("DISKO_DEBUG") == "" {
		return
	}
	path := os.Getenv("DISKO_DEBUG_FILE")
	if path == "" {
		path = "debug.log"
	}
	if err := Enable(path); err != nil {
		// Fallback to stderr if we can't open the file
		setOutput(os.Stderr, log.Ldate|log.Ltime)
	}
}

// Enable appends both loggers to the file at path
func Enable(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	prev := logFile
	logFile = f
	mu.Unlock()

	setOutput(f, log.Lmicroseconds)
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Enabled reports whether log output is kept
func Enabled() bool {
	return Debug.Writer() != io.Discard
}

// Disable discards log output again and closes the log file
func Disable() {
	setOutput(io.Discard, 0)

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func setOutput(w io.Writer, flags int) {
	Debug.SetOutput(w)
	Debug.SetFlags(flags)
	Debug.SetPrefix("[debug] ")
	Walker.SetOutput(w)
	Walker.SetFlags(flags)
	Walker.SetPrefix("[walker] ")
}
