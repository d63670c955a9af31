package gekko2d

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	// SetFrame tags following lines with a frame number; 0 clears the tag.
	SetFrame(frame uint64)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes debug and info lines to one writer and problems to
// another. A warning or error repeated on consecutive frames is printed
// once, followed by a repeat count when a different problem shows up.
type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	frame  uint64
	out    *log.Logger
	err    *log.Logger

	lastLevel string
	lastMsg   string
	repeats   int
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLoggerTo(os.Stdout, os.Stderr, prefix, debug)
}

func NewLoggerTo(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) SetFrame(frame uint64) {
	l.mu.Lock()
	l.frame = frame
	l.mu.Unlock()
}

// line formats "[prefix] frame N LEVEL: msg". Callers hold mu.
func (l *DefaultLogger) line(level, msg string) string {
	tag := level
	if l.frame > 0 {
		tag = fmt.Sprintf("frame %d %s", l.frame, level)
	}
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, tag, msg)
	}
	return fmt.Sprintf("%s: %s", tag, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	if !l.debug {
		l.mu.Unlock()
		return
	}
	s := l.line("DEBUG", fmt.Sprintf(format, args...))
	l.mu.Unlock()
	l.out.Print(s)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.mu.Lock()
	s := l.line("INFO", fmt.Sprintf(format, args...))
	l.mu.Unlock()
	l.out.Print(s)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.problem("WARN", fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.problem("ERROR", fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) problem(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level == l.lastLevel && msg == l.lastMsg {
		l.repeats++
		return
	}
	if l.repeats > 0 {
		l.err.Print(l.line(l.lastLevel, fmt.Sprintf("last message repeated %d times", l.repeats)))
	}
	l.lastLevel, l.lastMsg, l.repeats = level, msg, 0
	l.err.Print(l.line(level, msg))
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) SetFrame(frame uint64)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
