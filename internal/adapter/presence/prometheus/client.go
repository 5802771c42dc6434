// Package prometheus asks an external Prometheus whether a device is
// currently reachable, typically backed by a ping or ARP exporter.
package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

type presenceDetector struct {
	prometheusURL string
	queryTemplate string
	client        *http.Client
	log           *zap.Logger
}

// NewPresenceDetector builds a detector around a query template. The
// template is expanded with the normalized MAC, e.g.
//
//	probe_success{mac="%s"}
//
// Any sample with a positive value counts as "device observed".
func NewPresenceDetector(promURL, queryTemplate string, log *zap.Logger) port.PresenceDetector {
	return &presenceDetector{
		prometheusURL: promURL,
		queryTemplate: queryTemplate,
		client:        &http.Client{Timeout: 5 * time.Second},
		log:           log,
	}
}

// Prometheus API response structure
type prometheusResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric map[string]string `json:"metric"`
			Value  interface{}       `json:"value"`
		} `json:"result"`
	} `json:"data"`
	Error     string `json:"error"`
	ErrorType string `json:"errorType"`
}

func (s *presenceDetector) Observe(ctx context.Context, mac string) (bool, error) {
	query := strings.ReplaceAll(s.queryTemplate, "%s", mac)

	value, err := s.queryPrometheus(ctx, query)
	if err != nil {
		s.log.Debug("Presence query failed", zap.String("mac", mac), zap.Error(err))
		return false, err
	}

	return value > 0, nil
}

func (s *presenceDetector) queryPrometheus(ctx context.Context, query string) (float64, error) {
	escapedQuery := url.QueryEscape(query)
	reqURL := fmt.Sprintf("%s/api/v1/query?query=%s", s.prometheusURL, escapedQuery)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("prometheus returned status %d: %s", resp.StatusCode, string(body))
	}

	var result prometheusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("JSON decode failed: %w", err)
	}

	if result.Status != "success" {
		return 0, fmt.Errorf("prometheus error: %s (%s)", result.Error, result.ErrorType)
	}

	if len(result.Data.Result) == 0 {
		// No sample at all means the exporter has never seen the device.
		return 0, nil
	}

	// Parse value - handle both the [timestamp, "value"] array and direct
	// scalar formats.
	value := result.Data.Result[0].Value

	switch v := value.(type) {
	case []interface{}:
		if len(v) < 2 {
			return 0, fmt.Errorf("unexpected value array length: %d", len(v))
		}
		switch valRaw := v[1].(type) {
		case string:
			return strconv.ParseFloat(valRaw, 64)
		case float64:
			return valRaw, nil
		default:
			return 0, fmt.Errorf("unexpected value type in array: %T", valRaw)
		}

	case float64:
		return v, nil

	case string:
		return strconv.ParseFloat(v, 64)

	default:
		return 0, fmt.Errorf("unexpected value format: %T (%v)", value, value)
	}
}
