package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/monshunter/fleetftp/pkg/log"
)

// GracefulShutdownHandler cancels the run context on the first SIGINT or
// SIGTERM so the batch stops after the device in progress. A second signal
// exits immediately.
type GracefulShutdownHandler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	done     chan struct{}
	once     sync.Once
	exitFunc func(int) // Allow injection of exit function for testing
}

// NewGracefulShutdownHandler creates a new graceful shutdown handler
func NewGracefulShutdownHandler() *GracefulShutdownHandler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &GracefulShutdownHandler{
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  make(chan os.Signal, 2),
		done:     make(chan struct{}),
		exitFunc: os.Exit,
	}

	signal.Notify(handler.sigChan, os.Interrupt, syscall.SIGTERM)
	go handler.handleSignals(handler.sigChan)

	return handler
}

// Context returns the context that will be cancelled on shutdown
func (h *GracefulShutdownHandler) Context() context.Context {
	return h.ctx
}

// Close stops signal handling and cancels the context
func (h *GracefulShutdownHandler) Close() {
	h.once.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
	})
	h.cancel()
}

// SetExitFunc sets a custom exit function (useful for testing)
func (h *GracefulShutdownHandler) SetExitFunc(exitFunc func(int)) {
	h.exitFunc = exitFunc
}

func (h *GracefulShutdownHandler) handleSignals(sigChan chan os.Signal) {
	select {
	case sig := <-sigChan:
		log.Warnf("Received signal %v, stopping after the current device (signal again to abort)", sig)
		h.cancel()
	case <-h.done:
		return
	}

	select {
	case sig := <-sigChan:
		log.Errorf("Received signal %v, aborting", sig)
		h.exitFunc(130)
	case <-h.done:
	}
}
