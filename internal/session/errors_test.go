package session

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func opError(errno syscall.Errno) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindConnectTimeout},
		{"wrapped deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), KindConnectTimeout},
		{"net timeout", &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}, KindConnectTimeout},
		{"refused", opError(syscall.ECONNREFUSED), KindConnectionRefused},
		{"reset", opError(syscall.ECONNRESET), KindConnectionReset},
		{"broken pipe", opError(syscall.EPIPE), KindConnectionReset},
		{"net unreachable", opError(syscall.ENETUNREACH), KindNetworkUnreachable},
		{"host unreachable", opError(syscall.EHOSTUNREACH), KindNetworkUnreachable},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}, KindNetworkUnreachable},
		{"dns timeout", &net.DNSError{Err: "timeout", Name: "slow.invalid", IsTimeout: true}, KindConnectTimeout},
		{"x509", x509.UnknownAuthorityError{}, KindTLSFailure},
		{"tls text", errors.New("tls: first record does not look like a TLS handshake"), KindTLSFailure},
		{"refused text", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), KindConnectionRefused},
		{"bad handshake", fmt.Errorf("%w (HTTP 404)", websocket.ErrBadHandshake), KindUnknown},
		{"eof", io.EOF, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyCloseError(t *testing.T) {
	got := classify(&websocket.CloseError{Code: websocket.CloseGoingAway, Text: "restart"})
	assert.Equal(t, KindRemoteClosed, got.Kind)
	assert.Equal(t, websocket.CloseGoingAway, got.Code)
	assert.Equal(t, "Server going away: restart", got.Error())
}

func TestClassifyKeepsSessionError(t *testing.T) {
	orig := &Error{Kind: KindInvalidURL}
	assert.Same(t, orig, classify(fmt.Errorf("wrapped: %w", orig)))
	assert.Nil(t, classify(nil))
}

func TestRetryable(t *testing.T) {
	eligible := map[Kind]bool{
		KindConnectTimeout:     true,
		KindConnectionReset:    true,
		KindNetworkUnreachable: true,
	}
	for k := KindUnknown; k <= KindMalformedMessage; k++ {
		assert.Equal(t, eligible[k], k.Retryable(), k.String())
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindConnectionRefused}, "Connection refused: server offline or port blocked"},
		{&Error{Kind: KindNetworkUnreachable}, "Network unreachable: check connectivity/address"},
		{&Error{Kind: KindConnectTimeout}, "Connection timed out: server not responding"},
		{&Error{Kind: KindTLSFailure}, "Secure connection failed: server may not support secure connections"},
		{&Error{Kind: KindRemoteClosed, Code: websocket.CloseAbnormalClosure, Reason: "unexpected EOF"}, "Connection lost unexpectedly"},
		{&Error{Kind: KindRemoteClosed, Code: 4001}, "Connection closed by server (code 4001)"},
		{&Error{Kind: KindUnknown, Err: errors.New("boom")}, "Connection failed: boom"},
		{&Error{Kind: KindInvalidURL, Err: errors.New("missing host")}, "Invalid server URL: missing host"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "DISCONNECTED", StateDisconnected.String())
	assert.Equal(t, "CONNECTING", StateConnecting.String())
	assert.Equal(t, "CONNECTED", StateConnected.String())
	assert.Equal(t, "ERROR", StateError.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
