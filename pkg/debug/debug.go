// Package debug is a small leveled logger shared by the CLI and the hardware
// backends.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Session milestones (hubs resolved, encoders reset)
	LevelLive    = 2 // Per-command output (targets sent to actuators)
	LevelVerbose = 3 // Config details, mode transitions
	LevelTrace   = 4 // Raw hardware access (bus reads/writes, GPIO)
)

var (
	mu     sync.Mutex
	level  int
	out    io.Writer = os.Stderr
	logger *log.Logger
)

// Init sets the debug level (0-4). Output goes to stderr unless SetOutput
// was called.
func Init(debugLevel int) {
	mu.Lock()
	defer mu.Unlock()
	level = debugLevel
	if level > LevelOff {
		logger = log.New(out, "[portstest] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		logger = nil
	}
}

// SetOutput redirects log output. The TUI uses this to keep the alternate
// screen clean.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return Level() >= minLevel
}

func printf(minLevel int, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level >= minLevel && logger != nil {
		logger.Printf(format, args...)
	}
}

// Info prints a level 1 message.
func Info(format string, args ...any) {
	printf(LevelInfo, "[INFO] "+format, args...)
}

// Value prints a named value (level 1).
func Value(name string, value any) {
	printf(LevelInfo, "[INFO]   %s = %v", name, value)
}

// Live prints a level 2 message.
func Live(format string, args ...any) {
	printf(LevelLive, "[LIVE] "+format, args...)
}

// Verbose prints a level 3 message.
func Verbose(format string, args ...any) {
	printf(LevelVerbose, "[VERBOSE] "+format, args...)
}

// Section prints a section separator (level 3).
func Section(name string) {
	printf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	printf(LevelVerbose, "  %s", name)
	printf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// Trace prints a level 4 message.
func Trace(format string, args ...any) {
	printf(LevelTrace, "[TRACE] "+format, args...)
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value any) {
	printf(LevelTrace, "[GPIO] %s pin=%d value=%v", operation, pin, value)
}

// Error prints an error (level 1+).
func Error(err error) {
	printf(LevelInfo, "[ERROR] %v", err)
}
