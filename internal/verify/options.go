package verify

import (
	"net/http"
	"time"
)

// Option configures the default checkers.
type Option func(*checkers)

// WithHTTPClient sets the client used to fetch the reference clock.
func WithHTTPClient(client *http.Client) Option {
	return func(c *checkers) {
		if client != nil {
			c.client = client
		}
	}
}

// WithClock overrides the local time source.
func WithClock(now func() time.Time) Option {
	return func(c *checkers) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxSkew sets how far the local clock may drift from the reference.
func WithMaxSkew(d time.Duration) Option {
	return func(c *checkers) {
		if d > 0 {
			c.maxSkew = d
		}
	}
}
