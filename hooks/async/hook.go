// Package asynchook moves catalog hook calls off the write path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    CorruptEvery: 10, // sample logs: ~every 10th corrupt read
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cat, _ := catalog.New(catalog.Options{
//	    Namespace: "app:prod",
//	    Provider:  provider,
//	    GenStore:  genstore.NewRedisGenStoreWithTTL(rdb, "app:prod", 24*time.Hour),
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/souris/catalog"
)

// Hooks queues every event for a fixed worker pool. Events arriving while
// the queue is full are dropped and counted.
type Hooks struct {
	inner   catalog.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ catalog.Hooks = (*Hooks)(nil)

func New(inner catalog.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded on a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Corrupt(k, r string)              { h.try(func() { h.inner.Corrupt(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)     { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) GenBumpError(k string, err error) { h.try(func() { h.inner.GenBumpError(k, err) }) }
func (h *Hooks) CASConflict(db string, obs, cur uint64) {
	h.try(func() { h.inner.CASConflict(db, obs, cur) })
}
func (h *Hooks) GenSnapshotError(k string, err error) {
	h.try(func() { h.inner.GenSnapshotError(k, err) })
}
func (h *Hooks) GenSeedError(k string, gen uint64, err error) {
	h.try(func() { h.inner.GenSeedError(k, gen, err) })
}
func (h *Hooks) PayloadTooLarge(k string, size, limit int) {
	h.try(func() { h.inner.PayloadTooLarge(k, size, limit) })
}
