package usercache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"go.uber.org/zap"
)

// Callback receives the cached profile after every change; nil means signed out
type Callback func(*models.UserProfile)

// Subscription is the handle returned by Subscribe
type Subscription struct {
	registry *Registry
	id       uint64
	active   atomic.Bool
	cb       Callback
}

// Unsubscribe stops further notifications. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.Unsubscribe(s)
}

// Registry is an ordered list of profile observers
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []*Subscription

	logger   *zap.Logger
	recorder metrics.Recorder
}

// NewRegistry creates an empty registry. A faulting callback is logged and counted.
func NewRegistry(log *zap.Logger, recorder metrics.Recorder) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Registry{logger: log, recorder: recorder}
}

// Subscribe appends cb to the notification order. A nil callback yields an inert handle.
func (r *Registry) Subscribe(cb Callback) *Subscription {
	if cb == nil {
		return &Subscription{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := &Subscription{registry: r, id: r.nextID, cb: cb}
	sub.active.Store(true)
	r.entries = append(r.entries, sub)
	return sub
}

// Unsubscribe removes sub and reports whether it was registered
func (r *Registry) Unsubscribe(sub *Subscription) bool {
	if sub == nil || sub.registry != r {
		return false
	}
	if !sub.active.CompareAndSwap(true, false) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.id == sub.id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered callbacks
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// NotifyAll calls every registered callback with p in registration order.
// Callbacks run outside the registry lock, so they may subscribe or unsubscribe.
func (r *Registry) NotifyAll(p *models.UserProfile) {
	r.mu.Lock()
	snapshot := make([]*Subscription, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	for _, sub := range snapshot {
		// Skip entries removed by an earlier callback in this round
		if !sub.active.Load() {
			continue
		}
		r.invoke(sub, p)
	}
}

func (r *Registry) invoke(sub *Subscription, p *models.UserProfile) {
	defer func() {
		if rec := recover(); rec != nil {
			r.recorder.RecordSubscriberFault()
			r.logger.Error("subscriber_fault",
				zap.Uint64("subscription_id", sub.id),
				zap.String("panic", fmt.Sprint(rec)),
			)
		}
	}()
	sub.cb(p)
}
