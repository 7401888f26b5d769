// Package profile fetches the signed-in user's profile from the fridge API.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBodyBytes = 4 * 1024

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("userInfo returned status %d", e.StatusCode)
}

// Fetcher retrieves profiles from GET <api>/userInfo
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	recorder   metrics.Recorder
	tracer     trace.Tracer
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithTimeout bounds each fetch. Zero leaves the caller's context in charge.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithRecorder reports fetch status and latency
func WithRecorder(r metrics.Recorder) Option {
	return func(f *Fetcher) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// NewFetcher creates a fetcher for the API rooted at baseURL
func NewFetcher(baseURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		recorder:   metrics.Nop{},
		tracer:     otel.Tracer("fridge/profile"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// wireProfile is the userInfo response body
type wireProfile struct {
	ID             string                `json:"id"`
	Email          string                `json:"email"`
	FirstName      *string               `json:"first_name"`
	LastName       *string               `json:"last_name"`
	FridgeID       *string               `json:"fridge_id"`
	ActiveFridgeID *string               `json:"active_fridge_id"`
	Fridge         *models.FridgeSummary `json:"fridge"`
	FridgeCount    int                   `json:"fridge_count"`
	FridgeMates    []models.FridgeMate   `json:"fridgeMates"`
	ProfilePhoto   *string               `json:"profile_photo"`
}

// FetchProfile returns the profile of the user the bearer token belongs to
func (f *Fetcher) FetchProfile(ctx context.Context, bearer string) (*models.UserProfile, error) {
	ctx, span := f.tracer.Start(ctx, "profile.fetch")
	defer span.End()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/userInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userInfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.recorder.RecordProfileFetch(0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("userInfo request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	f.recorder.RecordProfileFetch(resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		span.SetStatus(codes.Error, statusErr.Error())
		return nil, statusErr
	}

	var wire wireProfile
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("failed to decode userInfo response: %w", err)
	}

	return wire.toModel(), nil
}

func (w wireProfile) toModel() *models.UserProfile {
	p := &models.UserProfile{
		ID:             w.ID,
		Email:          w.Email,
		FirstName:      w.FirstName,
		LastName:       w.LastName,
		ActiveFridgeID: w.ActiveFridgeID,
		Fridge:         w.Fridge,
		FridgeCount:    w.FridgeCount,
		FridgeMates:    w.FridgeMates,
	}
	if p.ActiveFridgeID == nil {
		p.ActiveFridgeID = w.FridgeID
	}
	if p.FridgeMates == nil {
		p.FridgeMates = []models.FridgeMate{}
	}
	if w.ProfilePhoto != nil {
		p.ProfilePhoto = NormalizePhotoURL(*w.ProfilePhoto)
	}
	return p
}

// NormalizePhotoURL points storage object URLs at the public bucket path
func NormalizePhotoURL(url string) string {
	if strings.Contains(url, "/object/") && !strings.Contains(url, "/object/public/") {
		return strings.Replace(url, "/object/", "/object/public/", 1)
	}
	return url
}
