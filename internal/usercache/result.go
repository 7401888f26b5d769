package usercache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
)

// ErrSuperseded is reported by a refresh whose result lost to a newer update
var ErrSuperseded = errors.New("refresh superseded by a newer update")

// RefreshStatus says what a refresh did to the cache
type RefreshStatus int

const (
	// RefreshOK means a fresh profile was committed
	RefreshOK RefreshStatus = iota
	// RefreshStale means the refresh failed and the previous value was kept
	RefreshStale
	// RefreshEmpty means the cache was cleared
	RefreshEmpty
	// RefreshSuperseded means a newer refresh or invalidation won and nothing was committed
	RefreshSuperseded
)

func (s RefreshStatus) String() string {
	switch s {
	case RefreshOK:
		return "ok"
	case RefreshStale:
		return "stale"
	case RefreshEmpty:
		return "empty"
	case RefreshSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("RefreshStatus(%d)", int(s))
	}
}

// RefreshResult is the outcome of Store.Refresh.
// Profile is the value held by the cache when the call returned; Err is the cause of any failure.
type RefreshResult struct {
	Status  RefreshStatus
	Profile *models.UserProfile
	Err     error
}

// Fresh returns the profile only when this refresh committed it
func (r RefreshResult) Fresh() *models.UserProfile {
	if r.Status != RefreshOK {
		return nil
	}
	return r.Profile
}

// FailurePolicy decides what a failed refresh does to the cached value
type FailurePolicy int

const (
	// KeepStale leaves the last known profile in place
	KeepStale FailurePolicy = iota
	// ClearOnFailure empties the cache and notifies subscribers
	ClearOnFailure
)

// ParseFailurePolicy maps the configuration values "keep" and "clear"
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return KeepStale, nil
	case "clear":
		return ClearOnFailure, nil
	default:
		return KeepStale, fmt.Errorf("unknown refresh failure policy %q", s)
	}
}
