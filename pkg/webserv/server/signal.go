package server

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// shutdownRequested is the process-wide shutdown flag. The signal
// handler only stores into it; the event loop observes it between
// iterations.
var shutdownRequested atomic.Bool

// RequestShutdown sets the shutdown flag.
func RequestShutdown() {
	shutdownRequested.Store(true)
}

// InstallSignals wires SIGINT and SIGTERM to the shutdown flag and
// ignores SIGPIPE, so a peer closing mid-write surfaces as a write
// error on that connection instead of killing the process.
func InstallSignals(log *zap.Logger) {
	signal.Ignore(syscall.SIGPIPE)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		log.Info("shutdown requested", zap.String("signal", sig.String()))
		shutdownRequested.Store(true)
	}()
}
