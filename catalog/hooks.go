package catalog

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The catalog calls them while holding its write lock.
type Hooks interface {
	// A stored entry failed validation on read. It is left in place.
	// reason ∈ {"envelope", "payload", "index"}
	Corrupt(storageKey, reason string)

	// A conditional write found the database at another generation.
	CASConflict(db string, observed, current uint64)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot, seed or bump).
	GenSnapshotError(storageKey string, err error)
	GenSeedError(storageKey string, gen uint64, err error)
	GenBumpError(storageKey string, err error)

	// An encoded database exceeded Options.MaxPayload.
	PayloadTooLarge(storageKey string, size, limit int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Corrupt(string, string)             {}
func (NopHooks) CASConflict(string, uint64, uint64) {}
func (NopHooks) ProviderSetRejected(string)         {}
func (NopHooks) GenSnapshotError(string, error)     {}
func (NopHooks) GenSeedError(string, uint64, error) {}
func (NopHooks) GenBumpError(string, error)         {}
func (NopHooks) PayloadTooLarge(string, int, int)   {}
