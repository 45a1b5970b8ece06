package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/adpena/molt/internal/capability"
)

func TestCompileIsPureFunctionOfInputsAndConfig(t *testing.T) {
	cfg := capability.BuildConfig{HashSeed: 7}
	p1, err := Compile("m", "x = 1\n", cfg)
	if err != nil {
		t.Fatalf("compile 1: %v", err)
	}
	p2, err := Compile("m", "x = 1\n", cfg)
	if err != nil {
		t.Fatalf("compile 2: %v", err)
	}
	if len(p1.Init.Blocks) != len(p2.Init.Blocks) {
		t.Fatalf("expected identical block counts across runs, got %d vs %d", len(p1.Init.Blocks), len(p2.Init.Blocks))
	}
}

func TestCompileReturnsLoweringErrorWithoutRuntimeFallback(t *testing.T) {
	// assigning to a literal is a malformed assignment target
	// per spec §4.1; this must fail at lowering time, not silently
	// widen to Dynamic or panic.
	_, err := Compile("m", "1 = 2\n", capability.BuildConfig{})
	if err == nil {
		t.Fatalf("expected a lowering-time error for an invalid assignment target")
	}
}

func TestCacheEvictsLeastRecentlyUsedOverByteBudget(t *testing.T) {
	c := NewCache(2, 0)
	prog, err := Compile("m", "x = 1\n", capability.BuildConfig{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	c.Put("a", prog, 1)
	c.Put("b", prog, 1)
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries under budget, got %d", c.Len())
	}
	c.Put("c", prog, 1)
	if c.Len() != 2 {
		t.Fatalf("expected eviction to keep the cache at 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected least-recently-used entry %q to have been evicted", "a")
	}
}

func TestCacheEvictsAgedOutEntries(t *testing.T) {
	c := NewCache(1000, time.Nanosecond)
	prog, err := Compile("m", "x = 1\n", capability.BuildConfig{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	c.Put("a", prog, 1)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to have aged out")
	}
}

func TestCompilerSingleFlightsConcurrentIdenticalRequests(t *testing.T) {
	compiler := NewCompiler(1000, 0)
	const n = 8
	var wg sync.WaitGroup
	results := make([]*struct {
		err error
	}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		results[i] = &struct{ err error }{}
		go func() {
			defer wg.Done()
			_, err := compiler.Compile("m", "x = 1\n", capability.BuildConfig{})
			results[i].err = err
		}()
	}
	wg.Wait()
	for i, r := range results {
		if r.err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, r.err)
		}
	}
	if compiler.cache.Len() != 1 {
		t.Fatalf("expected exactly one cache entry for identical concurrent requests, got %d", compiler.cache.Len())
	}
}
