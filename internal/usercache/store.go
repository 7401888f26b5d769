// Package usercache holds the signed-in user's profile for the whole process
// and tells every subscriber when it changes.
package usercache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/session"
	"go.uber.org/zap"
)

// Fetcher loads a profile for a bearer token
type Fetcher interface {
	FetchProfile(ctx context.Context, bearer string) (*models.UserProfile, error)
}

// Store is the process-wide user cache.
//
// Read never blocks. Every change is committed and fanned out to subscribers
// under one mutex, so all subscribers observe changes in the same order.
// Each Refresh and Invalidate takes a generation number and only the most
// recently issued one may commit; a slower, older refresh returns
// RefreshSuperseded instead of overwriting newer state.
//
// Callbacks may call Read but must not call Refresh or Invalidate synchronously.
type Store struct {
	accessor session.Accessor
	fetcher  Fetcher
	registry *Registry
	policy   FailurePolicy
	logger   *zap.Logger
	recorder metrics.Recorder

	current    atomic.Pointer[models.UserProfile]
	generation atomic.Uint64
	commitMu   sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithFailurePolicy sets what a failed refresh does to the cache
func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewStore creates an empty cache
func NewStore(accessor session.Accessor, fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		accessor: accessor,
		fetcher:  fetcher,
		policy:   KeepStale,
		logger:   zap.NewNop(),
		recorder: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.logger, s.recorder)
	return s
}

// Read returns the cached profile or nil. It performs no I/O.
func (s *Store) Read() *models.UserProfile {
	return s.current.Load()
}

// Subscribe registers cb for every future change. The current value is not replayed.
func (s *Store) Subscribe(cb Callback) *Subscription {
	return s.registry.Subscribe(cb)
}

// Subscribers returns the number of registered callbacks
func (s *Store) Subscribers() int {
	return s.registry.Len()
}

// Refresh fetches the profile for the current session and replaces the cache
func (s *Store) Refresh(ctx context.Context) RefreshResult {
	gen := s.generation.Add(1)

	sess, err := s.accessor.Session(ctx)
	if err != nil {
		return s.fail(gen, fmt.Errorf("failed to get session: %w", err))
	}
	if sess == nil {
		s.logger.Debug("profile_refresh_no_session")
		return s.commit(gen, nil, RefreshEmpty, nil)
	}

	p, err := s.fetcher.FetchProfile(ctx, sess.AccessToken)
	if err != nil {
		return s.fail(gen, err)
	}
	if p == nil {
		return s.fail(gen, fmt.Errorf("profile fetch returned no profile"))
	}
	return s.commit(gen, p, RefreshOK, nil)
}

// Invalidate clears the cache and notifies subscribers without fetching.
// Refreshes already in flight can no longer commit.
func (s *Store) Invalidate() {
	gen := s.generation.Add(1)
	s.commit(gen, nil, RefreshEmpty, nil)
}

// Load returns the cached profile, refreshing first when the cache is empty
func (s *Store) Load(ctx context.Context) (*models.UserProfile, error) {
	if p := s.Read(); p != nil {
		return p, nil
	}
	result := s.Refresh(ctx)
	return result.Fresh(), result.Err
}

func (s *Store) fail(gen uint64, cause error) RefreshResult {
	s.logger.Warn("profile_refresh_failed",
		zap.String("error", logger.SanitizeError(cause)),
		zap.String("policy", s.policyName()),
	)

	if s.policy == ClearOnFailure {
		return s.commit(gen, nil, RefreshEmpty, cause)
	}

	if s.generation.Load() != gen {
		return s.superseded()
	}
	s.recorder.RecordRefresh(RefreshStale.String())
	return RefreshResult{Status: RefreshStale, Profile: s.Read(), Err: cause}
}

func (s *Store) commit(gen uint64, p *models.UserProfile, status RefreshStatus, cause error) RefreshResult {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.generation.Load() != gen {
		return s.superseded()
	}

	s.current.Store(p)
	s.registry.NotifyAll(p)
	s.recorder.RecordRefresh(status.String())
	return RefreshResult{Status: status, Profile: p, Err: cause}
}

func (s *Store) superseded() RefreshResult {
	s.logger.Debug("profile_refresh_superseded")
	s.recorder.RecordRefresh(RefreshSuperseded.String())
	return RefreshResult{Status: RefreshSuperseded, Profile: s.Read(), Err: ErrSuperseded}
}

func (s *Store) policyName() string {
	if s.policy == ClearOnFailure {
		return "clear"
	}
	return "keep"
}
