package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how component loggers write.
type Options struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is "json" or "console".
	Format string
	// File, when set, receives the logs through a rotating writer instead of stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	outputMu sync.RWMutex
	output   io.Writer
	level    string
	rotating *lumberjack.Logger
)

// Setup configures the output shared by loggers created afterwards with New.
// Without Setup, loggers follow APP_ENV and LOG_LEVEL.
func Setup(opts Options) error {
	var w io.Writer = os.Stdout
	var lj *lumberjack.Logger
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		lj = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		w = lj
	}
	if strings.EqualFold(opts.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: lj != nil}
	}

	outputMu.Lock()
	defer outputMu.Unlock()
	if rotating != nil {
		_ = rotating.Close()
	}
	output, level, rotating = w, opts.Level, lj
	return nil
}

// Close releases the rotating log file, if any, and restores stdout output.
func Close() error {
	outputMu.Lock()
	defer outputMu.Unlock()
	var err error
	if rotating != nil {
		err = rotating.Close()
	}
	output, level, rotating = nil, "", nil
	return err
}

func configured() (io.Writer, string, bool) {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output, level, output != nil
}
