package fanout

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"delivery-tracker-service/internal/domain"
)

// Source is the read side of the entity store. The engine always
// re-fetches the post-commit entity here and never forwards the state a
// caller happened to hold; that closes the notify-before-commit-visible
// race.
type Source interface {
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetAdmin(ctx context.Context, id string) (*domain.Admin, error)
	GetDelivery(ctx context.Context, id string) (*domain.Delivery, error)
}

// RemotePublisher forwards committed events to observers attached to
// other processes. Nil when the deployment is single-process.
type RemotePublisher interface {
	Publish(ctx context.Context, kind domain.Kind, id string) error
}

type entityKey struct {
	kind domain.Kind
	id   string
}

// Engine fans committed mutations out to interested observers.
//
// Dispatch is serialized per entity id: notifications for the same id
// reach each observer in commit order, while different ids dispatch
// fully in parallel. Push failures are logged and swallowed; the
// mutation already succeeded by the time the engine hears about it.
type Engine struct {
	reg    *Registry
	src    Source
	remote RemotePublisher

	fetchTimeout time.Duration
	seq          atomic.Uint64

	mu      sync.Mutex
	pending map[entityKey]int
	closed  bool
	wg      sync.WaitGroup
}

func NewEngine(reg *Registry, src Source) *Engine {
	return &Engine{
		reg:          reg,
		src:          src,
		fetchTimeout: 5 * time.Second,
		pending:      make(map[entityKey]int),
	}
}

// UseRemote makes Notify republish events through p after local dispatch
// is queued. Call before the engine starts receiving notifications.
func (e *Engine) UseRemote(p RemotePublisher) { e.remote = p }

// Notify schedules fan-out for a committed mutation of (kind, id).
// Never blocks on observers or the store.
func (e *Engine) Notify(kind domain.Kind, id string) {
	e.enqueue(entityKey{kind: kind, id: id})

	if e.remote != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.fetchTimeout)
			defer cancel()
			if err := e.remote.Publish(ctx, kind, id); err != nil {
				log.Printf("fanout: remote publish kind=%s id=%s err=%v", kind, id, err)
			}
		}()
	}
}

// Ingest schedules fan-out for an event that originated on another
// process. Local only: it is never republished remotely.
func (e *Engine) Ingest(kind domain.Kind, id string) {
	e.enqueue(entityKey{kind: kind, id: id})
}

func (e *Engine) enqueue(k entityKey) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	// One drain goroutine per in-flight id keeps same-id dispatch ordered.
	if n, running := e.pending[k]; running {
		e.pending[k] = n + 1
		return
	}
	e.pending[k] = 1
	e.wg.Add(1)
	go e.drain(k)
}

func (e *Engine) drain(k entityKey) {
	defer e.wg.Done()

	for {
		e.dispatch(k)

		e.mu.Lock()
		n := e.pending[k] - 1
		if n <= 0 {
			delete(e.pending, k)
			e.mu.Unlock()
			return
		}
		e.pending[k] = n
		e.mu.Unlock()
	}
}

func (e *Engine) dispatch(k entityKey) {
	ctx, cancel := context.WithTimeout(context.Background(), e.fetchTimeout)
	defer cancel()

	u := Update{Kind: k.kind, ID: k.id, Seq: e.seq.Add(1)}

	entity, err := e.fetch(ctx, k)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Deleted after the commit we were told about: fan out a tombstone
		// so watchers drop the row.
		u.Deleted = true
	case err != nil:
		log.Printf("fanout: refetch kind=%s id=%s err=%v", k.kind, k.id, err)
		return
	default:
		u.Entity = entity
	}

	sent, dropped := e.reg.publish(u)
	if dropped > 0 {
		log.Printf("fanout: slow observers kind=%s id=%s sent=%d dropped=%d", k.kind, k.id, sent, dropped)
	}
}

func (e *Engine) fetch(ctx context.Context, k entityKey) (any, error) {
	switch k.kind {
	case domain.KindDriver:
		return e.src.GetDriver(ctx, k.id)
	case domain.KindCustomer:
		return e.src.GetCustomer(ctx, k.id)
	case domain.KindAdmin:
		return e.src.GetAdmin(ctx, k.id)
	case domain.KindDelivery:
		return e.src.GetDelivery(ctx, k.id)
	default:
		return nil, domain.ErrNotFound
	}
}

// Close stops accepting notifications and waits for in-flight dispatch.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
}
