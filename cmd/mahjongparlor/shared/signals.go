package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// SetupSignalHandler creates a context that is cancelled on interrupt
// signals, logging the signal that triggered the shutdown
func SetupSignalHandler(logger *log.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
		cancel()
	}()

	return ctx
}
