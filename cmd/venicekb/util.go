package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/venicekb/internal/common"
)

// nowForDisplay reports the time the CLI uses for "next run at ..."
// messages. Pipeline.RunScheduled does not use it; it reads
// time.Now() itself when computing the next run.
func nowForDisplay() time.Time {
	return time.Now()
}

// installInterruptHandler cancels ctx on SIGINT/SIGTERM.
func installInterruptHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	common.SafeGo(common.GetLogger(), "signal:interrupt-handler", func() {
		<-sigChan
		common.GetLogger().Info().Msg("interrupt signal received, cancelling scheduled updates and any build in progress")
		cancel()
	})
}
