package database

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background(), nil)
	defer stop()

	// Context should not be cancelled initially
	select {
	case <-ctx.Done():
		t.Error("Context should not be cancelled immediately")
	default:
	}
}

func TestSignalCancelsContext(t *testing.T) {
	if os.Getenv("CI") == "true" {
		t.Skip("Skipping signal test in CI environment")
	}

	var received atomic.Value
	ctx, stop := SetupSignalHandler(context.Background(), func(sig os.Signal) {
		received.Store(sig)
	})
	defer stop()

	time.Sleep(10 * time.Millisecond) // Let the goroutine start
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case <-ctx.Done():
		if got := received.Load(); got != syscall.SIGINT {
			t.Errorf("Expected signal SIGINT, got %v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Context was not cancelled after receiving signal")
	}
}

func TestStopCancelsContext(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background(), nil)
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(100 * time.Millisecond):
		t.Error("stop() should cancel the context")
	}
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent, nil)
	defer stop()

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(100 * time.Millisecond):
		t.Error("Context should follow parent cancellation")
	}
}

func TestContextNotCancelledWithoutSignal(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background(), nil)
	defer stop()

	time.Sleep(50 * time.Millisecond)

	select {
	case <-ctx.Done():
		t.Error("Context should not be cancelled without signal")
	default:
	}
}
