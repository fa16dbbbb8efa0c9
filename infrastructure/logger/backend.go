package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const normalLogSize = 512

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile adds the full path and line number of the logging
	// callsite to every entry, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line number of the logging
	// callsite to every entry, e.g. main.go:123. Takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// flagsFromEnv reads the comma separated LOGFLAGS environment variable
func flagsFromEnv() uint32 {
	var flags uint32
	for _, flag := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch strings.TrimSpace(flag) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

// Log rotation defaults: roll files at 100 MB and keep the last 8 of them
const (
	rotationThresholdKB = 100 * 1000
	rotationMaxRolls    = 8
)

type logEntry struct {
	log   []byte
	level Level
}

// levelWriter receives every entry at or above minLevel
type levelWriter struct {
	io.WriteCloser
	minLevel Level
}

// Backend fans log entries of all subsystems out to its writers. Entries are
// written by a single goroutine, so writes never interleave.
type Backend struct {
	flag      uint32
	isRunning uint32
	writers   []levelWriter
	writeChan chan logEntry
	done      chan struct{}
}

// NewBackendWithFlags creates a logger backend with the given flags instead
// of the ones in the LOGFLAGS environment variable
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flag:      flags,
		writeChan: make(chan logEntry),
		done:      make(chan struct{}),
	}
}

// NewBackend creates a new logger backend configured by LOGFLAGS
func NewBackend() *Backend {
	return NewBackendWithFlags(flagsFromEnv())
}

// AddLogWriter registers a writer for all entries at logLevel or above.
// Writers can only be added before Run.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("cannot add a log writer to a running logger")
	}
	b.writers = append(b.writers, levelWriter{WriteCloser: writer, minLevel: logLevel})
	return nil
}

// AddLogFile registers a rotated log file for all entries at logLevel or
// above, creating the file and its directory if needed
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("cannot add a log file to a running logger")
	}
	logDir := filepath.Dir(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		return errors.Wrapf(err, "failed to create log directory %s", logDir)
	}
	fileRotator, err := rotator.New(logFile, rotationThresholdKB, false, rotationMaxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.AddLogWriter(fileRotator, logLevel)
}

// Run starts writing entries in a separate goroutine. It may only be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger is already running")
	}
	go b.writeLoop()
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	defer atomic.StoreUint32(&b.isRunning, 0)
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error in the logger backend: %+v\n%s\n", err, debug.Stack())
		}
	}()

	for entry := range b.writeChan {
		for _, writer := range b.writers {
			if entry.level >= writer.minLevel {
				_, _ = writer.Write(entry.log)
			}
		}
	}
}

// IsRunning returns whether Run was called
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close flushes all pending entries and closes all writers
func (b *Backend) Close() {
	close(b.writeChan)
	<-b.done
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// Logger returns the logger of a subsystem. Every entry it writes is tagged
// with subsystemTag. New loggers log at LevelInfo.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelInfo), tag: subsystemTag, b: b, writeChan: b.writeChan}
}
