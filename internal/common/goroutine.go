// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers for pipeline stages
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics
var goroutineCounter int64

// activeByStage tracks how many goroutines are currently in flight per
// pipeline stage (e.g. "schedule", "signal"), derived from the
// name passed to SafeGo/SafeGoWithContext. The callers are the
// scheduled-update loop ("schedule:build") and the CLI's interrupt
// handler ("signal:interrupt-handler"); Build runs its source fetchers
// on the caller's goroutine, so they are not counted here. A crash
// report lists which stages were in flight rather than just a single
// process-wide count.
var activeByStage sync.Map // string -> *int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo
// or SafeGoWithContext over the process lifetime.
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// ActiveGoroutinesByStage returns a snapshot of how many SafeGo-managed
// goroutines are currently running, grouped by stage. Used by
// WriteCrashFile to record what the pipeline was doing at the moment of
// a fatal panic, and available to the build/status CLI paths for
// progress diagnostics.
func ActiveGoroutinesByStage() map[string]int64 {
	out := map[string]int64{}
	activeByStage.Range(func(key, value interface{}) bool {
		if n := atomic.LoadInt64(value.(*int64)); n > 0 {
			out[key.(string)] = n
		}
		return true
	})
	return out
}

// stageOf derives the stage label from a goroutine name of the form
// "stage:detail" (e.g. "fetch:repo-file:docs/overview.md" -> "fetch").
// A name with no colon is its own stage.
func stageOf(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i]
		}
	}
	return name
}

func enterStage(name string) {
	atomic.AddInt64(&goroutineCounter, 1)
	stage := stageOf(name)
	counter, _ := activeByStage.LoadOrStore(stage, new(int64))
	atomic.AddInt64(counter.(*int64), 1)
}

func exitStage(name string) {
	stage := stageOf(name)
	if counter, ok := activeByStage.Load(stage); ok {
		atomic.AddInt64(counter.(*int64), -1)
	}
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the process, so one panicking
// goroutine does not take down the others running alongside it.
//
// Example:
//
//	common.SafeGo(logger, "fetch:rendered-page", func() {
//	    fetcher.Fetch(ctx, page)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	enterStage(name)

	go func() {
		defer exitStage(name)
		defer func() {
			if r := recover(); r != nil {
				stackTrace := GetStackTrace()

				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("recovered from panic in pipeline goroutine - continuing build")
				} else {
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}

				writeCrashLog(name, r, stackTrace)
			}
		}()

		fn()
	}()
}

// SafeGoWithContext runs a function in a goroutine with panic recovery
// and context support. The goroutine exits without running fn if ctx is
// already cancelled when it starts: a cancelled build must leave
// partial work valid rather than half-apply it.
//
// Example:
//
//	common.SafeGoWithContext(ctx, logger, "schedule:build", func() {
//	    pipeline.Build(ctx)
//	})
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	enterStage(name)

	go func() {
		defer exitStage(name)
		defer func() {
			if r := recover(); r != nil {
				stackTrace := GetStackTrace()

				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("recovered from panic in pipeline goroutine - continuing build")
				}

				writeCrashLog(name, r, stackTrace)
			}
		}()

		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Debug().Str("goroutine", name).Msg("goroutine cancelled before start")
			}
			return
		default:
		}

		fn()
	}()
}

// writeCrashLog appends a one-line record of a non-fatal goroutine
// panic to <CrashLogDir>/goroutine-panics.log, tagged with the stage
// that was running. Unlike WriteCrashFile (fatal, process-ending
// panics, one file per crash) this is a best-effort append used for
// post-mortem correlation of degraded builds that otherwise completed.
// The file is a durable companion to the warning log stream, not a
// replacement for it.
func writeCrashLog(goroutineName string, panicVal interface{}, stackTrace string) {
	if CrashLogDir == "" {
		return
	}
	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(CrashLogDir, "goroutine-panics.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] stage=%s panic=%v\n%s\n---\n", time.Now().Format(time.RFC3339), stageOf(goroutineName), panicVal, stackTrace)
}
