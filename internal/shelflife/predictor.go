// Package shelflife predicts how many days a food item keeps in the fridge.
package shelflife

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"go.uber.org/zap"
)

// Predictor asks the API for a prediction and falls back to the local table
type Predictor struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewPredictor creates a predictor for the API rooted at baseURL
func NewPredictor(baseURL string, httpClient *http.Client, timeout time.Duration, log *zap.Logger) *Predictor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Predictor{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     log,
	}
}

// Predict never fails; any API problem yields a table prediction
func (p *Predictor) Predict(ctx context.Context, item string) models.ExpiryPrediction {
	item = strings.TrimSpace(item)

	days, err := p.remote(ctx, item)
	if err == nil {
		return models.ExpiryPrediction{ItemName: item, Days: clampDays(days), Source: models.ExpirySourceRemote}
	}

	p.logger.Info("expiry_prediction_fallback",
		zap.String("item", logger.SanitizeString(item, 100)),
		zap.String("error", logger.SanitizeError(err)),
	)
	return models.ExpiryPrediction{ItemName: item, Days: Lookup(item), Source: models.ExpirySourceFallback}
}

func (p *Predictor) remote(ctx context.Context, item string) (int, error) {
	if item == "" {
		return 0, fmt.Errorf("item name is empty")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]string{"item_name": item})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/expiry/predict-expiry", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("prediction request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("prediction returned status %d", resp.StatusCode)
	}

	var reply struct {
		Days *int `json:"days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return 0, fmt.Errorf("failed to decode prediction: %w", err)
	}
	if reply.Days == nil {
		return 0, fmt.Errorf("prediction has no days")
	}
	return *reply.Days, nil
}
