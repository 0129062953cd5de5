package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPForecaster delegates to an external forecasting service, such as a Prophet
// sidecar, that accepts the series as JSON.
type HTTPForecaster struct {
	url    string
	client *http.Client
}

// NewHTTPForecaster creates a client for the service at url.
func NewHTTPForecaster(url string, timeout time.Duration) *HTTPForecaster {
	return &HTTPForecaster{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type remotePoint struct {
	DS string  `json:"ds"`
	Y  float64 `json:"y"`
}

type remoteRequest struct {
	Series  []remotePoint `json:"series"`
	Horizon int           `json:"horizon"`
}

type remotePrediction struct {
	DS        string  `json:"ds"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
}

type remoteResponse struct {
	Predictions []remotePrediction `json:"predictions"`
	Error       string             `json:"error,omitempty"`
}

// Forecast implements Forecaster.
func (f *HTTPForecaster) Forecast(ctx context.Context, series []Point, horizon int) ([]Prediction, error) {
	reqBody := remoteRequest{Horizon: horizon, Series: make([]remotePoint, len(series))}
	for i, p := range series {
		reqBody.Series[i] = remotePoint{DS: p.Date.Format(DisplayDateLayout), Y: p.Value}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("forecast service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("forecast service error: %s", out.Error)
	}

	preds := make([]Prediction, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		d, err := time.Parse(DisplayDateLayout, p.DS)
		if err != nil {
			d, err = time.Parse(time.RFC3339, p.DS)
			if err != nil {
				return nil, fmt.Errorf("invalid prediction date %q: %w", p.DS, err)
			}
		}
		preds = append(preds, Prediction{Date: d, Yhat: p.Yhat, YhatLower: p.YhatLower, YhatUpper: p.YhatUpper})
	}
	return preds, nil
}
