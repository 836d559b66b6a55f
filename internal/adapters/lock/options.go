package lock

import "time"

// Option applies a configuration option to the FileGate.
type Option func(*FileGate)

// WithTimeout bounds lock acquisition. Zero or negative waits until the
// caller's context ends.
func WithTimeout(timeout time.Duration) Option {
	return func(g *FileGate) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithBackoff sets the polling interval range used while another process
// holds the lock.
func WithBackoff(minBackoff, maxBackoff time.Duration) Option {
	return func(g *FileGate) {
		if minBackoff > 0 && maxBackoff >= minBackoff {
			g.minBackoff = minBackoff
			g.maxBackoff = maxBackoff
		}
	}
}
