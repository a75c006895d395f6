package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		timeout bool
		network bool
	}{
		{
			name:    "deadline exceeded",
			err:     context.DeadlineExceeded,
			timeout: true,
		},
		{
			name:    "wrapped deadline",
			err:     fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			timeout: true,
		},
		{
			name:    "connection refused",
			err:     fmt.Errorf("dial: %w", syscall.ECONNREFUSED),
			network: true,
		},
		{
			name:    "connection reset",
			err:     fmt.Errorf("read: %w", syscall.ECONNRESET),
			network: true,
		},
		{
			name:    "net op error",
			err:     &net.OpError{Op: "dial", Err: errors.New("no route to host")},
			network: true,
		},
		{
			name:    "url error",
			err:     &url.Error{Op: "Post", URL: "http://localhost:11434", Err: errors.New("EOF")},
			network: true,
		},
		{
			name: "unrelated error untouched",
			err:  errors.New("model returned garbage"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.timeout, IsTimeout(got))
			assert.Equal(t, tt.network, IsNetwork(got))
			if !tt.timeout && !tt.network {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestIsTimeoutAndIsNetworkDisjoint(t *testing.T) {
	assert.False(t, IsTimeout(ErrNetwork))
	assert.False(t, IsNetwork(ErrTimeout))
	assert.False(t, IsTimeout(nil))
	assert.False(t, IsNetwork(nil))
}
