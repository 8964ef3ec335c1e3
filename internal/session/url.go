package session

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ParseURL validates a bridge address. Only ws and wss URLs with a host are
// accepted; anything else fails with KindInvalidURL.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &Error{Kind: KindInvalidURL, Err: errors.New("empty address")}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, &Error{Kind: KindInvalidURL, Err: fmt.Errorf("scheme %q is not ws or wss", u.Scheme)}
	}
	if u.Hostname() == "" {
		return nil, &Error{Kind: KindInvalidURL, Err: errors.New("missing host")}
	}
	return u, nil
}
