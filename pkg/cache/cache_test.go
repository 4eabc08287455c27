package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	key := NewDefaultKeyer().VariantKey("abc", VariantKeyOpts{Preset: "base", Normalization: "percentile", Seed: 1})

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	want := []byte(`{"preset":"base"}`)
	if err := c.Set(ctx, key, want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("hit after delete")
	}
	// Deleting a missing key is fine.
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "ephemeral", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "ephemeral"); err != nil || hit {
		t.Errorf("expired entry: hit=%v err=%v", hit, err)
	}
}

func TestNullCacheNeverStores(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("null cache stored something: hit=%v err=%v", hit, err)
	}
}

func TestVariantKeyDependsOnAllInputs(t *testing.T) {
	k := NewDefaultKeyer()
	base := k.VariantKey("data1", VariantKeyOpts{Preset: "base", Normalization: "percentile", Seed: 1, SolverHash: "s1"})

	variants := []VariantKeyOpts{
		{Preset: "state-emphasis", Normalization: "percentile", Seed: 1, SolverHash: "s1"},
		{Preset: "base", Normalization: "zscore", Seed: 1, SolverHash: "s1"},
		{Preset: "base", Normalization: "percentile", Seed: 2, SolverHash: "s1"},
		{Preset: "base", Normalization: "percentile", Seed: 1, SolverHash: "s2"},
	}
	for i, opts := range variants {
		if k.VariantKey("data1", opts) == base {
			t.Errorf("variant %d produced the same key", i)
		}
	}
	if k.VariantKey("data2", VariantKeyOpts{Preset: "base", Normalization: "percentile", Seed: 1, SolverHash: "s1"}) == base {
		t.Error("different dataset produced the same key")
	}

	// Same inputs, same key.
	again := k.VariantKey("data1", VariantKeyOpts{Preset: "base", Normalization: "percentile", Seed: 1, SolverHash: "s1"})
	if again != base {
		t.Error("identical inputs produced different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:42:")

	key := scoped.DatasetKey("abc")
	if !strings.HasPrefix(key, "tenant:42:") {
		t.Errorf("key %q missing prefix", key)
	}
	if strings.TrimPrefix(key, "tenant:42:") != inner.DatasetKey("abc") {
		t.Error("scoped key does not wrap the inner key")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("permanent errors fail immediately", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			return errors.New("permanent")
		})
		if err == nil || calls != 1 {
			t.Errorf("calls=%d err=%v, want one call and an error", calls, err)
		}
	})

	t.Run("retryable errors retry then succeed", func(t *testing.T) {
		calls := 0
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 2 {
				return Retryable(errors.New("transient"))
			}
			return nil
		})
		if err != nil || calls != 2 {
			t.Errorf("calls=%d err=%v, want success on second call", calls, err)
		}
	})
}
