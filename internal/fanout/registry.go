// Package fanout pushes committed entity changes to connected observers.
//
// Core policy: drop updates, never block. A slow observer loses updates
// (recovered by its next GET) and must never stall fan-out to others.
package fanout

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"delivery-tracker-service/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRegistryClosed   = errors.New("fanout: registry is closed")
	ErrObserverExists   = errors.New("fanout: observer already attached")
	ErrObserverNotFound = errors.New("fanout: observer not attached")
)

// TargetKind names what an observer watches.
type TargetKind string

const (
	TargetDelivery   TargetKind = "delivery"
	TargetDriver     TargetKind = "driver"
	TargetAllDrivers TargetKind = "all-drivers"
)

// Target identifies one watchable thing. ID is empty for all-drivers.
type Target struct {
	Kind TargetKind
	ID   string
}

// Update is one entity snapshot pushed to an observer. Entity is nil and
// Deleted true when the entity was removed after the triggering commit.
type Update struct {
	Kind    domain.Kind
	ID      string
	Seq     uint64
	Deleted bool
	Entity  any
}

// Subscription is the handle returned by Subscribe. Ephemeral: it lives
// only as long as the observer stays attached.
type Subscription struct {
	ID         string
	ObserverID string
	Target     Target
}

// ObserverStats counts pushes per attached observer.
type ObserverStats struct {
	Sent    uint64
	Dropped uint64
}

type observer struct {
	id       string
	ch       chan Update
	subs     map[string]Target
	lastSeen time.Time

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Non-blocking send. Reports whether the update was accepted.
func (o *observer) push(u Update) bool {
	select {
	case o.ch <- u:
		o.sent.Add(1)
		return true
	default:
		o.dropped.Add(1)
		return false
	}
}

// Registry tracks which observers are interested in which targets.
// Purely in-memory and process-local; nothing here is ever persisted.
type Registry struct {
	mu        sync.RWMutex
	observers map[string]*observer
	buffer    int
	closed    bool
}

// NewRegistry creates a registry whose observer channels buffer up to
// buffer updates before drops begin.
func NewRegistry(buffer int) *Registry {
	if buffer < 1 {
		buffer = 16
	}
	return &Registry{
		observers: make(map[string]*observer),
		buffer:    buffer,
	}
}

// Attach registers an observer and returns its outbound channel.
// The channel is closed by Detach (or Close).
func (r *Registry) Attach(observerID string) (<-chan Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if _, exists := r.observers[observerID]; exists {
		return nil, ErrObserverExists
	}

	o := &observer{
		id:       observerID,
		ch:       make(chan Update, r.buffer),
		subs:     make(map[string]Target),
		lastSeen: time.Now(),
	}
	r.observers[observerID] = o
	return o.ch, nil
}

// Detach drops the observer with all its subscriptions and closes its channel.
func (r *Registry) Detach(observerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.observers[observerID]
	if !exists {
		return ErrObserverNotFound
	}
	delete(r.observers, observerID)
	close(o.ch)
	return nil
}

// Subscribe registers interest in a target for an attached observer.
func (r *Registry) Subscribe(observerID string, t Target) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	o, exists := r.observers[observerID]
	if !exists {
		return nil, ErrObserverNotFound
	}

	sub := &Subscription{
		ID:         uuid.NewString(),
		ObserverID: observerID,
		Target:     t,
	}
	o.subs[sub.ID] = t
	o.lastSeen = time.Now()
	return sub, nil
}

// Unsubscribe releases a single subscription. The observer stays attached.
func (r *Registry) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrObserverNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.observers[sub.ObserverID]
	if !exists {
		return ErrObserverNotFound
	}
	delete(o.subs, sub.ID)
	return nil
}

// Touch refreshes an observer's last-seen timestamp so the reaper keeps it.
func (r *Registry) Touch(observerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, exists := r.observers[observerID]; exists {
		o.lastSeen = time.Now()
	}
}

// Stats returns push counters for an observer.
func (r *Registry) Stats(observerID string) (ObserverStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.observers[observerID]
	if !exists {
		return ObserverStats{}, ErrObserverNotFound
	}
	return ObserverStats{Sent: o.sent.Load(), Dropped: o.dropped.Load()}, nil
}

// publish resolves the observers interested in a mutation of (kind, id)
// and pushes the update to each. Driver mutations match that driver's
// watchers plus all-drivers watchers; delivery mutations match that
// delivery's watchers. No ordering guarantee among observers. The read
// lock is held across the pushes so Detach cannot close a channel
// mid-send; sends themselves never block.
func (r *Registry) publish(u Update) (sent, dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.observers {
		interested := false
		for _, t := range o.subs {
			if matches(t, u.Kind, u.ID) {
				interested = true
				break
			}
		}
		if !interested {
			continue
		}

		if o.push(u) {
			sent++
		} else {
			dropped++
		}
	}
	return sent, dropped
}

func matches(t Target, kind domain.Kind, id string) bool {
	switch kind {
	case domain.KindDriver:
		return t.Kind == TargetAllDrivers || (t.Kind == TargetDriver && t.ID == id)
	case domain.KindDelivery:
		return t.Kind == TargetDelivery && t.ID == id
	default:
		return false
	}
}

// EvictIdle detaches observers whose last-seen is older than ttl.
// Returns how many were evicted. Used when disconnect detection is
// unreliable; otherwise Detach on disconnect is enough.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, o := range r.observers {
		if o.lastSeen.Before(cutoff) {
			delete(r.observers, id)
			close(o.ch)
			n++
		}
	}
	return n
}

// StartReaper evicts idle observers every interval until stop is closed.
func (r *Registry) StartReaper(stop <-chan struct{}, ttl, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.EvictIdle(ttl)
			}
		}
	}()
}

// Close detaches every observer and rejects further use.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for id, o := range r.observers {
		delete(r.observers, id)
		close(o.ch)
	}
}
