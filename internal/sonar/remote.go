package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RemoteDriver polls a ranging endpoint exposed by a networked sensor node.
// The body may be a bare number, a quoted number, or a JSON object holding
// the value under Field.
type RemoteDriver struct {
	log    *slog.Logger
	url    string
	field  string
	client *http.Client
}

func NewRemoteDriver(log *slog.Logger, url, field string, timeout time.Duration) *RemoteDriver {
	if field == "" {
		field = "distance"
	}
	return &RemoteDriver{
		log:   log,
		url:   url,
		field: field,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (d *RemoteDriver) Name() string {
	return "remote"
}

func (d *RemoteDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func (d *RemoteDriver) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	bodyStr := string(bytes.TrimSpace(body))
	switch strings.ToLower(bodyStr) {
	case "", "null", "false", "none":
		return 0, ErrNoEcho
	}

	var raw any
	if err := json.Unmarshal([]byte(bodyStr), &raw); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if obj, ok := raw.(map[string]any); ok {
		value, exists := obj[d.field]
		if !exists {
			d.log.Debug("field not found in response", slog.String("field", d.field))
			return 0, ErrNoEcho
		}
		raw = value
	}

	return toCentimeters(raw)
}

func toCentimeters(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, ErrNoEcho
	case float64:
		return int(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse distance %q: %w", val, err)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("unsupported distance type %T", v)
	}
}
