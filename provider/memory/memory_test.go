package memory

import (
	"context"
	"testing"
	"time"
)

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p := New()

	buf := []byte("abc")
	if ok, err := p.Set(ctx, "k", buf, 1, 0); !ok || err != nil {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	buf[0] = 'X'
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || string(got) != "abc" {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
	got[1] = 'Y'
	if again, _, _ := p.Get(ctx, "k"); string(again) != "abc" {
		t.Fatalf("stored value mutated through Get result: %q", again)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("hit after Del")
	}
}

func TestTTL(t *testing.T) {
	ctx := context.Background()
	p := New()
	now := time.Unix(1000, 0)
	p.now = func() time.Time { return now }

	if _, err := p.Set(ctx, "short", []byte("v"), 1, time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := p.Set(ctx, "forever", []byte("v"), 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := p.Get(ctx, "short"); ok {
		t.Fatalf("expired entry returned")
	}
	if _, ok, _ := p.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without TTL expired")
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
}
