// Package monitoring reports planning failures and panics to an error
// tracker. The process-wide monitor defaults to a no-op.
package monitoring

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPanic wraps panics recovered by Safe.
var ErrPanic = errors.New("panic")

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)       {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor restores the no-op.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Safe runs fn and converts a panic into an error wrapping ErrPanic after
// reporting it.
func Safe(tags map[string]string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			get().CapturePanic(r, tags)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
