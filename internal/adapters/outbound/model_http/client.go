// Package model_http calls the draft-based kill model over HTTP.
package model_http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Client implements value.Predictor. The service answers P(stat > league
// mean) for a draft; the client shifts that to the requested line.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	adjust     value.LineAdjust
}

var _ value.Predictor = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		adjust:  value.DefaultLineAdjust(),
	}
}

type composition struct {
	Top     string `json:"top"`
	Jungle  string `json:"jung"`
	Mid     string `json:"mid"`
	ADC     string `json:"adc"`
	Support string `json:"sup"`
}

func toComposition(p [5]string) composition {
	return composition{Top: p[0], Jungle: p[1], Mid: p[2], ADC: p[3], Support: p[4]}
}

type predictRequest struct {
	League string      `json:"league"`
	Stat   string      `json:"stat"`
	Team1  composition `json:"team1"`
	Team2  composition `json:"team2"`
}

type predictResponse struct {
	ProbOverMean *float64 `json:"prob_over_mean"`
	LeagueMean   *float64 `json:"league_mean,omitempty"`
	LeagueStd    *float64 `json:"league_std,omitempty"`
}

// Predict returns over/under probabilities at req.Line. An incomplete draft,
// an unknown league or an unavailable service yield ErrModelUnavailable.
func (c *Client) Predict(ctx context.Context, req value.PredictRequest) (*value.Prediction, error) {
	if !req.Complete() {
		return nil, value.ErrModelUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	data, err := json.Marshal(predictRequest{
		League: req.League,
		Stat:   req.Stat,
		Team1:  toComposition(req.Team1),
		Team2:  toComposition(req.Team2),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", value.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	telemetry.Debugf("model_http: POST /predict -> %d (%s)", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity,
		resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", value.ErrModelUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("model status %d: %s", resp.StatusCode, string(body))
	}

	var pr predictResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	if pr.ProbOverMean == nil {
		return nil, value.ErrModelUnavailable
	}

	mean, std := req.LeagueMean, req.LeagueStd
	if pr.LeagueMean != nil && pr.LeagueStd != nil {
		mean, std = *pr.LeagueMean, *pr.LeagueStd
	}
	return c.adjust.TotalPrediction(*pr.ProbOverMean, req.Line, mean, std), nil
}
