package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/souris"
	c "github.com/unkn0wn-root/souris/codec"
	"github.com/unkn0wn-root/souris/cursor"
	gen "github.com/unkn0wn-root/souris/genstore"
	"github.com/unkn0wn-root/souris/internal/util"
	"github.com/unkn0wn-root/souris/internal/wire"
	pr "github.com/unkn0wn-root/souris/provider"
)

type catalog struct {
	mu             sync.Mutex // serializes writes
	ns             string
	provider       pr.Provider
	codec          c.Codec[*souris.Store]
	log            souris.Logger
	hooks          Hooks
	gen            gen.GenStore
	ttl            time.Duration
	maxPayload     int
	computeSetCost SetCostFunc
}

var _ Catalog = (*catalog)(nil)

func newCatalog(opts Options) (*catalog, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("catalog: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("catalog: namespace is required")
	}
	if opts.MaxPayload < 0 || opts.MaxPayload > cursor.MaxLen {
		return nil, fmt.Errorf("catalog: max payload %d out of range", opts.MaxPayload)
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("catalog: negative ttl %s", opts.TTL)
	}

	cat := &catalog{
		ns:       opts.Namespace,
		provider: opts.Provider,
		ttl:      opts.TTL,
	}

	// defaults
	cat.codec = coalesce[c.Codec[*souris.Store]](opts.Codec, c.Store{})
	cat.log = coalesce[souris.Logger](opts.Logger, souris.NopLogger{})
	cat.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cat.maxPayload = coalesce(opts.MaxPayload, cursor.MaxLen)

	if opts.ComputeSetCost != nil {
		cat.computeSetCost = opts.ComputeSetCost
	} else {
		cat.computeSetCost = func(_ string, env []byte) int64 { return int64(len(env)) }
	}

	if opts.GenStore != nil {
		cat.gen = opts.GenStore
	} else {
		// persisted envelopes reseed the counters, so nothing is ever pruned
		cat.gen = gen.NewLocalGenStore(0, 0)
	}

	return cat, nil
}

func (c *catalog) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if c.gen != nil {
		_ = c.gen.Close(ctx)
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

func (c *catalog) ListDBs(ctx context.Context) ([]string, error) {
	names, err := c.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (c *catalog) CreateDB(ctx context.Context, name string, overwrite bool) (bool, error) {
	return c.PutDB(ctx, name, souris.New(), overwrite)
}

func (c *catalog) PutDB(ctx context.Context, name string, s *souris.Store, overwrite bool) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	if s == nil {
		s = souris.New()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := util.DBKey(c.ns, name)
	prev, found, err := c.peekGen(ctx, k)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return false, err
	}
	if found && !overwrite {
		c.log.Debug("database exists; kept", souris.Fields{"db": name, "gen": prev})
		return false, nil
	}
	if _, err := c.write(ctx, name, s, prev); err != nil {
		return false, err
	}
	if err := c.indexAdd(ctx, name); err != nil {
		return !found, err
	}
	return !found, nil
}

func (c *catalog) GetDB(ctx context.Context, name string) (*souris.Store, uint64, error) {
	if err := validName(name); err != nil {
		return nil, 0, err
	}
	s, g, found, err := c.load(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s, g, nil
}

func (c *catalog) RemoveDB(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := util.DBKey(c.ns, name)
	if err := c.provider.Del(ctx, k); err != nil {
		return &WriteError{Op: "del", Key: k, Err: err}
	}
	// bump so observers of the removed database conflict
	if g, err := c.gen.Bump(ctx, k); err != nil {
		c.hooks.GenBumpError(k, err)
		c.log.Warn("gen bump error on remove", souris.Fields{"key": k, "err": err})
	} else {
		c.log.Debug("removed database", souris.Fields{"db": name, "gen": g})
	}
	return c.indexRemove(ctx, name)
}

func (c *catalog) AddEntry(ctx context.Context, db, key string, v souris.Value) (bool, error) {
	if err := validName(db); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, prev, found, err := c.load(ctx, db)
	if err != nil {
		return false, err
	}
	if !found {
		s = souris.New()
	}

	created := true
	if s.Shape() == souris.ShapeMap {
		_, had := s.Get(key)
		created = !had
	}
	s.Insert(key, v)

	if _, err := c.write(ctx, db, s, prev); err != nil {
		return false, err
	}
	if !found {
		if err := c.indexAdd(ctx, db); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (c *catalog) RemoveEntry(ctx context.Context, db, key string) (bool, error) {
	if err := validName(db); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, prev, found, err := c.load(ctx, db)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w: %s", ErrNotFound, db)
	}
	if _, ok := s.Remove(key); !ok {
		return false, nil
	}
	if _, err := c.write(ctx, db, s, prev); err != nil {
		return false, err
	}
	return true, nil
}

func (c *catalog) PutDBIfUnchanged(ctx context.Context, name string, s *souris.Store, observedGen uint64) (uint64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	if s == nil {
		s = souris.New()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := util.DBKey(c.ns, name)
	cur, found, err := c.peekGen(ctx, k)
	if err != nil {
		return 0, err
	}
	if cur != observedGen {
		c.hooks.CASConflict(name, observedGen, cur)
		c.log.Debug("PutDBIfUnchanged skipped (gen mismatch)", souris.Fields{"db": name, "obs": observedGen, "cur": cur})
		return 0, fmt.Errorf("%w: %s at gen %d, observed %d", ErrConflict, name, cur, observedGen)
	}

	g, err := c.write(ctx, name, s, cur)
	if err != nil {
		return 0, err
	}
	if !found {
		if err := c.indexAdd(ctx, name); err != nil {
			return g, err
		}
	}
	return g, nil
}

func (c *catalog) SnapshotGen(ctx context.Context, name string) (uint64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	k := util.DBKey(c.ns, name)
	g, err := c.gen.Snapshot(ctx, k)
	if err != nil {
		c.hooks.GenSnapshotError(k, err)
		return 0, err
	}
	return g, nil
}

func (c *catalog) SnapshotGens(ctx context.Context, names ...string) (map[string]uint64, error) {
	keys := make([]string, len(names))
	for i, name := range names {
		if err := validName(name); err != nil {
			return nil, err
		}
		keys[i] = util.DBKey(c.ns, name)
	}
	out := make(map[string]uint64, len(names))
	if len(keys) == 0 {
		return out, nil
	}
	gens, err := c.gen.SnapshotMany(ctx, keys)
	if err != nil {
		for _, k := range keys {
			c.hooks.GenSnapshotError(k, err)
		}
		return nil, err
	}
	for i, name := range names {
		out[name] = gens[keys[i]]
	}
	return out, nil
}

// load reads and decodes one database. found is true for a present entry even
// when it fails to decode.
func (c *catalog) load(ctx context.Context, name string) (*souris.Store, uint64, bool, error) {
	k := util.DBKey(c.ns, name)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		return nil, 0, false, fmt.Errorf("catalog: get %s: %w", k, err)
	}
	if !ok {
		return nil, 0, false, nil
	}

	g, payload, err := wire.DecodeDB(raw)
	if err != nil {
		return nil, 0, true, c.corrupt(k, "envelope", err)
	}
	if len(payload) > c.maxPayload {
		return nil, 0, true, c.tooLarge(k, len(payload))
	}
	s, err := c.codec.Decode(payload)
	if err != nil {
		return nil, 0, true, c.corrupt(k, "payload", err)
	}
	c.seed(ctx, k, g)
	return s, g, true, nil
}

// peekGen validates the envelope under k and returns its generation without
// decoding the payload.
func (c *catalog) peekGen(ctx context.Context, k string) (uint64, bool, error) {
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		return 0, false, fmt.Errorf("catalog: get %s: %w", k, err)
	}
	if !ok {
		return 0, false, nil
	}
	g, _, err := wire.DecodeDB(raw)
	if err != nil {
		return 0, true, c.corrupt(k, "envelope", err)
	}
	return g, true, nil
}

// write encodes s and stores it under a freshly bumped generation. prev is
// the generation of the entry being replaced (0 if none); the counter is
// raised to it first so generations never move backwards.
func (c *catalog) write(ctx context.Context, name string, s *souris.Store, prev uint64) (uint64, error) {
	k := util.DBKey(c.ns, name)
	payload, err := c.codec.Encode(s)
	if err != nil {
		return 0, fmt.Errorf("catalog: encode %s: %w", name, err)
	}
	if len(payload) > c.maxPayload {
		return 0, c.tooLarge(k, len(payload))
	}

	if prev > 0 {
		c.seed(ctx, k, prev)
	}
	g, err := c.gen.Bump(ctx, k)
	if err != nil {
		c.hooks.GenBumpError(k, err)
		c.log.Error("gen bump error", souris.Fields{"key": k, "err": err})
		return 0, &WriteError{Op: "bump", Key: k, Err: err}
	}

	env := wire.EncodeDB(g, payload)
	ok, err := c.provider.Set(ctx, k, env, c.computeSetCost(k, env), c.ttl)
	if err != nil {
		return 0, &WriteError{Op: "set", Key: k, Err: err}
	}
	if !ok {
		c.hooks.ProviderSetRejected(k)
		c.log.Warn("database write rejected by provider (pressure)", souris.Fields{"db": name, "size": humanize.Bytes(uint64(len(env)))})
		return 0, fmt.Errorf("%w: %s", ErrWriteRejected, k)
	}
	c.log.Debug("stored database", souris.Fields{"db": name, "gen": g, "size": humanize.Bytes(uint64(len(env)))})
	return g, nil
}

// seed raises the generation counter to a persisted generation.
func (c *catalog) seed(ctx context.Context, k string, g uint64) {
	cur, err := c.gen.Snapshot(ctx, k)
	if err != nil {
		c.hooks.GenSnapshotError(k, err)
		c.log.Warn("gen snapshot error", souris.Fields{"key": k, "err": err})
		return
	}
	if cur >= g {
		return
	}
	if err := c.gen.Seed(ctx, k, g); err != nil {
		c.hooks.GenSeedError(k, g, err)
		c.log.Warn("gen seed error", souris.Fields{"key": k, "gen": g, "err": err})
	}
}

func (c *catalog) corrupt(k, reason string, err error) error {
	c.hooks.Corrupt(k, reason)
	c.log.Warn("corrupt entry", souris.Fields{"key": k, "reason": reason, "err": err})
	return fmt.Errorf("%w: %s (%s): %w", ErrCorrupt, k, reason, err)
}

func (c *catalog) tooLarge(k string, size int) error {
	c.hooks.PayloadTooLarge(k, size, c.maxPayload)
	return fmt.Errorf("%w: %s is %s, limit %s", ErrTooLarge, k,
		humanize.Bytes(uint64(size)), humanize.Bytes(uint64(c.maxPayload)))
}

// readIndex returns the sorted database names; a missing index is empty.
func (c *catalog) readIndex(ctx context.Context) ([]string, error) {
	k := util.IndexKey(c.ns)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", k, err)
	}
	if !ok {
		return nil, nil
	}
	names, err := wire.DecodeIndex(raw)
	if err != nil {
		return nil, c.corrupt(k, "index", err)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (c *catalog) indexAdd(ctx context.Context, name string) error {
	names, err := c.readIndex(ctx)
	if errors.Is(err, ErrCorrupt) {
		c.log.Warn("replacing corrupt index", souris.Fields{"ns": c.ns})
		names, err = nil, nil
	}
	if err != nil {
		return err
	}
	i, ok := slices.BinarySearch(names, name)
	if ok {
		return nil
	}
	return c.writeIndex(ctx, slices.Insert(names, i, name))
}

func (c *catalog) indexRemove(ctx context.Context, name string) error {
	names, err := c.readIndex(ctx)
	if err != nil {
		return err
	}
	i, ok := slices.BinarySearch(names, name)
	if !ok {
		return nil
	}
	names = slices.Delete(names, i, i+1)
	if len(names) == 0 {
		k := util.IndexKey(c.ns)
		if err := c.provider.Del(ctx, k); err != nil {
			return &WriteError{Op: "del", Key: k, Err: err}
		}
		return nil
	}
	return c.writeIndex(ctx, names)
}

// writeIndex stores names without expiry.
func (c *catalog) writeIndex(ctx context.Context, names []string) error {
	k := util.IndexKey(c.ns)
	b, err := wire.EncodeIndex(names)
	if err != nil {
		return err
	}
	ok, err := c.provider.Set(ctx, k, b, c.computeSetCost(k, b), 0)
	if err != nil {
		return &WriteError{Op: "set", Key: k, Err: err}
	}
	if !ok {
		c.hooks.ProviderSetRejected(k)
		return fmt.Errorf("%w: %s", ErrWriteRejected, k)
	}
	return nil
}

func validName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > wire.MaxNameLen:
		return fmt.Errorf("%w: %d bytes", ErrInvalidName, len(name))
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: not UTF-8", ErrInvalidName)
	}
	return nil
}
