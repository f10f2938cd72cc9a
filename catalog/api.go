package catalog

import (
	"context"
	"time"

	"github.com/unkn0wn-root/souris"
	c "github.com/unkn0wn-root/souris/codec"
	gen "github.com/unkn0wn-root/souris/genstore"
	pr "github.com/unkn0wn-root/souris/provider"
)

// SetCostFunc reports the provider cost of one stored envelope.
type SetCostFunc func(storageKey string, envelope []byte) int64

// Catalog is a set of named databases, each one encoded souris.Store,
// persisted through a Provider. Writes carry a per-database generation so
// callers can do read-modify-write without losing concurrent updates.
type Catalog interface {
	// ListDBs returns the database names in ascending order. Names come from
	// the catalog index; with a TTL set, a listed database may have expired.
	ListDBs(ctx context.Context) ([]string, error)

	// CreateDB stores an empty Map under name. An existing database is kept
	// unless overwrite is set. created reports whether name was new.
	CreateDB(ctx context.Context, name string, overwrite bool) (created bool, err error)
	// PutDB is CreateDB with contents. A nil store is an empty Map.
	PutDB(ctx context.Context, name string, s *souris.Store, overwrite bool) (created bool, err error)
	// GetDB returns the database and the generation it was written with.
	GetDB(ctx context.Context, name string) (*souris.Store, uint64, error)
	// RemoveDB deletes the database. Removing a missing database is not an error.
	RemoveDB(ctx context.Context, name string) error

	// AddEntry inserts key/value with souris.Store.Insert semantics, creating
	// the database if needed. created reports whether key was new.
	AddEntry(ctx context.Context, db, key string, v souris.Value) (created bool, err error)
	// RemoveEntry deletes key from db. removed is false when key was absent.
	RemoveEntry(ctx context.Context, db, key string) (removed bool, err error)

	// PutDBIfUnchanged replaces the database only if it is still at
	// observedGen (0 means "does not exist"). Returns the new generation, or
	// ErrConflict.
	PutDBIfUnchanged(ctx context.Context, name string, s *souris.Store, observedGen uint64) (uint64, error)
	// SnapshotGen returns the latest generation issued for name.
	SnapshotGen(ctx context.Context, name string) (uint64, error)
	// SnapshotGens is SnapshotGen for many databases in one GenStore read.
	// Names never written map to 0.
	SnapshotGens(ctx context.Context, names ...string) (map[string]uint64, error)

	Close(context.Context) error
}

// Options configure a Catalog.
// Only Namespace and Provider are required; others have sensible defaults.
type Options struct {
	// Required
	Namespace string // isolates databases of different catalogs sharing a provider
	Provider  pr.Provider

	Codec          c.Codec[*souris.Store] // nil => codec.Store (native format)
	Logger         souris.Logger          // nil => souris.NopLogger
	Hooks          Hooks                  // nil => NopHooks
	GenStore       gen.GenStore           // nil => LocalGenStore (in-process, never pruned)
	TTL            time.Duration          // 0 => no expiry
	MaxPayload     int                    // encoded store size limit; 0 => cursor.MaxLen
	ComputeSetCost SetCostFunc            // default len(envelope)
}

func New(opts Options) (Catalog, error) {
	return newCatalog(opts)
}
