package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &buf, l
}

func TestRedactsKeys(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})
	h.GenBumpError("db:prod:secret", errors.New("down"))

	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Fatalf("key leaked: %s", out)
	}
	if !strings.Contains(out, "souris.gen_bump_error") || !strings.Contains(out, "err=down") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	h = New(l, Options{Redact: strings.ToUpper})
	h.ProviderSetRejected("db:x")
	if !strings.Contains(buf.String(), "key=DB:X") {
		t.Fatalf("custom redactor not used: %s", buf.String())
	}
}

func TestSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{CorruptEvery: 5})
	for i := 0; i < 20; i++ {
		h.Corrupt("k", "payload")
	}
	if n := strings.Count(buf.String(), "souris.corrupt"); n != 4 {
		t.Fatalf("logged %d corrupt events, want 4", n)
	}
}

func TestPayloadSizesAreHumanized(t *testing.T) {
	buf, l := newBuf()
	New(l, Options{}).PayloadTooLarge("k", 2_000_000, 1_000_000)
	if !strings.Contains(buf.String(), `size="2.0 MB"`) || !strings.Contains(buf.String(), `limit="1.0 MB"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.Corrupt("k", "envelope")
	h.CASConflict("db", 1, 2)
	h.PayloadTooLarge("k", 1, 1)
}

func TestSeedErrorIsDistinct(t *testing.T) {
	buf, l := newBuf()
	New(l, Options{}).GenSeedError("db:x", 7, errors.New("down"))
	out := buf.String()
	if !strings.Contains(out, "souris.gen_seed_error") || !strings.Contains(out, "gen=7") {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "gen_snapshot_error") {
		t.Fatalf("seed failure logged as snapshot failure: %s", out)
	}
}
