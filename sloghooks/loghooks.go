// Package sloghooks reports catalog hook events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/souris/catalog"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CorruptEvery  uint64
	ConflictEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	corruptCtr  atomic.Uint64
	conflictCtr atomic.Uint64
}

var _ catalog.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Corrupt(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.CorruptEvery, &h.corruptCtr) {
		return
	}
	h.l.Error("souris.corrupt",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) CASConflict(db string, observed, current uint64) {
	if h.l == nil || !sample(h.opts.ConflictEvery, &h.conflictCtr) {
		return
	}
	h.l.Debug("souris.cas_conflict",
		"db", h.redact(db),
		"observed", observed,
		"current", current)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("souris.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("souris.gen_snapshot_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenSeedError(storageKey string, gen uint64, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("souris.gen_seed_error",
		"key", h.redact(storageKey),
		"gen", gen,
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("souris.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) PayloadTooLarge(storageKey string, size, limit int) {
	if h.l == nil {
		return
	}
	h.l.Warn("souris.payload_too_large",
		"key", h.redact(storageKey),
		"size", humanize.Bytes(uint64(size)),
		"limit", humanize.Bytes(uint64(limit)))
}
