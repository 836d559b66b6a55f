package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

const (
	seriesPath         = "/api/v1/series"
	defaultSendTimeout = 5 * time.Second
)

// DatadogSink posts each point to the Datadog v1 series endpoint.
type DatadogSink struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	metricType string
}

// NewDatadogSink creates a sink for site, e.g. "https://api.datadoghq.com".
func NewDatadogSink(site, apiKey string, opts ...DatadogOption) (*DatadogSink, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	s := &DatadogSink{
		client:     &http.Client{Timeout: defaultSendTimeout},
		endpoint:   strings.TrimRight(site, "/") + seriesPath,
		apiKey:     apiKey,
		metricType: "gauge",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

type seriesPayload struct {
	Series []series `json:"series"`
}

type series struct {
	Metric string       `json:"metric"`
	Points [][2]float64 `json:"points"`
	Type   string       `json:"type"`
	Tags   []string     `json:"tags"`
}

// Send implements worker.Sender.
func (s *DatadogSink) Send(ctx context.Context, m model.Metric) error { //nolint:gocritic // hugeParam: matches worker.Sender
	body, err := json.Marshal(seriesPayload{Series: []series{{
		Metric: m.Name,
		Points: [][2]float64{{float64(m.Timestamp.Unix()), m.Value}},
		Type:   s.metricType,
		Tags:   m.Tags,
	}}})
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post series: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
