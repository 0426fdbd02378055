package ssh

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDialError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"dns not found", &net.DNSError{Err: "no such host", Name: "nope", IsNotFound: true}, ErrNameNotResolved},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", Name: "slow", IsTimeout: true}, ErrTimeout},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"os timeout", &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}, ErrTimeout},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, ErrUnreachable},
		{"no route", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH}, ErrUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyDialError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.True(t, IsConnectivity(got))
		})
	}
}

func TestClassifyHandshakeError(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, classifyHandshakeError(errors.New("ssh: unable to authenticate")), ErrAuthFailed)
	assert.ErrorIs(t, classifyHandshakeError(os.ErrDeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, classifyHandshakeError(ErrHostKeyMismatch), ErrHostKeyMismatch)
}

func TestNetTransport_RefusedPortIsUnreachable(t *testing.T) {
	t.Parallel()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = NewTransport().Dial(context.Background(), Target{
		Host:    "127.0.0.1",
		Port:    port,
		User:    "root",
		Timeout: time.Second,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestNetTransport_SilentServerTimesOut(t *testing.T) {
	t.Parallel()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	// Accept but never speak SSH.
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			defer func() { _ = c.Close() }()
		}
	}()

	_, err = NewTransport().Dial(context.Background(), Target{
		Host:    "127.0.0.1",
		Port:    l.Addr().(*net.TCPAddr).Port,
		User:    "root",
		Timeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestNetTransport_RequiresHostAndUser(t *testing.T) {
	t.Parallel()
	_, err := NewTransport().Dial(context.Background(), Target{User: "root"})
	assert.Error(t, err)
	_, err = NewTransport().Dial(context.Background(), Target{Host: "a"})
	assert.Error(t, err)
}

func TestTarget_Address(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "node1:22", Target{Host: "node1"}.Address())
	assert.Equal(t, "[::1]:2222", Target{Host: "::1", Port: 2222}.Address())
}
