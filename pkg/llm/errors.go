package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

var (
	// ErrTimeout marks a call that exhausted its time budget.
	ErrTimeout = errors.New("model call timed out")
	// ErrNetwork marks a transient transport failure worth retrying.
	ErrNetwork = errors.New("model server unreachable")
)

// classify wraps transport errors with the sentinel that matches their
// cause so the orchestrator can decide between retry and give-up.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return err
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
