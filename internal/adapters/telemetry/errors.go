package telemetry

import "errors"

// Sentinel kinds for delivery errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected status from metrics backend")
	ErrMissingAPIKey    = errors.New("datadog api key is empty")
)
