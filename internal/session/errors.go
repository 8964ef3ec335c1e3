package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

// Kind classifies a session failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidURL
	KindConnectTimeout
	KindConnectionRefused
	KindNetworkUnreachable
	KindConnectionReset
	KindTLSFailure
	KindRemoteClosed
	KindMalformedMessage
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindInvalidURL:         "invalid_url",
	KindConnectTimeout:     "connect_timeout",
	KindConnectionRefused:  "connection_refused",
	KindNetworkUnreachable: "network_unreachable",
	KindConnectionReset:    "connection_reset",
	KindTLSFailure:         "tls_failure",
	KindRemoteClosed:       "remote_closed",
	KindMalformedMessage:   "malformed_message",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Retryable reports whether a failure of this kind is transient and worth an
// automatic reconnect.
func (k Kind) Retryable() bool {
	switch k {
	case KindConnectTimeout, KindConnectionReset, KindNetworkUnreachable:
		return true
	}
	return false
}

var (
	ErrDisconnected = errors.New("session: disconnected while connecting")
	ErrClosed       = errors.New("session: manager closed")
)

// Error is the structured failure reported to observers and returned by Connect.
// Its Error method yields the text shown to the user.
type Error struct {
	Kind Kind
	// Code and Reason are set for KindRemoteClosed.
	Code   int
	Reason string
	// Raw holds the offending payload for KindMalformedMessage.
	Raw string
	// Retrying is true when an automatic reconnect has been scheduled.
	Retrying bool
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		if e.Err != nil {
			return "Invalid server URL: " + e.Err.Error()
		}
		return "Invalid server URL"
	case KindConnectTimeout:
		return "Connection timed out: server not responding"
	case KindConnectionRefused:
		return "Connection refused: server offline or port blocked"
	case KindNetworkUnreachable:
		return "Network unreachable: check connectivity/address"
	case KindConnectionReset:
		return "Connection reset: the network dropped the connection"
	case KindTLSFailure:
		return "Secure connection failed: server may not support secure connections"
	case KindRemoteClosed:
		return closeText(e.Code, e.Reason)
	case KindMalformedMessage:
		return "Malformed message from server"
	}
	if e.Err != nil {
		return "Connection failed: " + e.Err.Error()
	}
	return "Connection failed"
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure's kind is eligible for automatic retry.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindOf returns the Kind of err, or KindUnknown when err is not a session error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

func closeText(code int, reason string) string {
	var text string
	switch code {
	case websocket.CloseGoingAway:
		text = "Server going away"
	case websocket.CloseProtocolError:
		text = "Protocol error"
	case websocket.CloseUnsupportedData:
		text = "Server rejected the message format"
	case websocket.CloseAbnormalClosure:
		// No close frame was received, so any reason is ours, not the server's.
		return "Connection lost unexpectedly"
	case websocket.ClosePolicyViolation:
		text = "Connection rejected by server"
	case websocket.CloseMessageTooBig:
		text = "Message too large"
	case websocket.CloseInternalServerErr:
		text = "Server internal error"
	case websocket.CloseServiceRestart:
		text = "Server restarting"
	case websocket.CloseTryAgainLater:
		text = "Server busy, try again later"
	default:
		text = fmt.Sprintf("Connection closed by server (code %d)", code)
	}
	if reason != "" {
		return text + ": " + reason
	}
	return text
}

// classify maps a transport error onto the session taxonomy.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return &Error{Kind: KindRemoteClosed, Code: ce.Code, Reason: ce.Text, Err: err}
	}

	return &Error{Kind: classifyKind(err), Err: err}
}

func classifyKind(err error) Kind {
	switch {
	case isTLSError(err):
		return KindTLSFailure
	case errors.Is(err, context.DeadlineExceeded):
		return KindConnectTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNABORTED):
		return KindConnectionReset
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return KindNetworkUnreachable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindConnectTimeout
		}
		return KindNetworkUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindConnectTimeout
	}

	// Some platforms only surface the condition in the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return KindConnectionRefused
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "broken pipe"):
		return KindConnectionReset
	case strings.Contains(msg, "network is unreachable"), strings.Contains(msg, "no route to host"):
		return KindNetworkUnreachable
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return KindConnectTimeout
	}
	return KindUnknown
}

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
		authorityEr x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &authorityEr),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr):
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls: ") || strings.Contains(msg, "x509: ")
}
