package pipeline

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/lir"
	"golang.org/x/sync/singleflight"
)

// CacheKey computes the deterministic identity a Cache entry and a
// singleflight call are both keyed on: the source text plus every
// BuildConfig field that can change what Compile produces. HashSeed and
// ModuleRoots affect generated artifacts' content (spec §6.5); Trusted
// does not change lowering output, only capability enforcement
// downstream, but is folded in anyway so a cache never serves a program
// compiled under a different trust posture to a caller that didn't ask
// for it.
func CacheKey(moduleName, src string, cfg capability.BuildConfig) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%t\x00%t\x00%v",
		moduleName, src, cfg.HashSeed, cfg.Trusted, cfg.Deterministic, cfg.ModuleRoots)
	return hex.EncodeToString(h.Sum(nil))
}

// entry is one compilation cache slot: the lowered program, its
// approximate byte size for the LRU-by-byte budget, and the time it was
// last touched for the age-limit eviction (SPEC_FULL.md Open Question
// (a), decided: "strict LRU-by-byte with a secondary age limit").
type entry struct {
	key        string
	program    *lir.Program
	size       int64
	lastAccess time.Time
	elem       *list.Element
}

// Cache is the compilation cache spec §9's Open Question (a) refers to:
// bounded by total approximate byte size (LRU eviction) and by a maximum
// entry age, whichever triggers first. Safe for concurrent use; Get/Put
// take the same mutex a singleflight-protected Compiler call already
// serializes most traffic through, so contention in practice is low.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	order     *list.List // front = most recently used
	byteLimit int64
	maxAge    time.Duration
	curBytes  int64
}

// NewCache constructs a Cache bounded by byteLimit total approximate
// program size and maxAge entry lifetime. A zero maxAge disables the
// age limit (LRU-by-byte only).
func NewCache(byteLimit int64, maxAge time.Duration) *Cache {
	return &Cache{
		entries:   make(map[string]*entry),
		order:     list.New(),
		byteLimit: byteLimit,
		maxAge:    maxAge,
	}
}

// Get returns the cached program for key if present and not expired by
// the age limit; an age-expired entry is evicted on lookup rather than
// waiting for the next Put to notice it.
func (c *Cache) Get(key string) (*lir.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.maxAge > 0 && time.Since(e.lastAccess) > c.maxAge {
		c.evictLocked(e)
		return nil, false
	}
	e.lastAccess = time.Now()
	c.order.MoveToFront(e.elem)
	return e.program, true
}

// Put inserts or refreshes key's entry, evicting least-recently-used
// entries (and any entry that has independently aged out) until the
// cache is back under its byte budget.
func (c *Cache) Put(key string, program *lir.Program, approxSize int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.evictLocked(e)
	}
	e := &entry{key: key, program: program, size: approxSize, lastAccess: time.Now()}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e
	c.curBytes += approxSize
	c.evictOverBudgetLocked()
}

func (c *Cache) evictOverBudgetLocked() {
	for c.byteLimit > 0 && c.curBytes > c.byteLimit {
		back := c.order.Back()
		if back == nil {
			return
		}
		c.evictLocked(back.Value.(*entry))
	}
}

func (c *Cache) evictLocked(e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.key)
	c.curBytes -= e.size
}

// Len reports the number of live entries; for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Compiler bundles a Cache with a singleflight.Group so that N
// concurrent requests to compile the same (moduleName, src, cfg) tuple
// run Compile exactly once, matching SPEC_FULL.md §11's "compile-cache
// single-flighting of concurrent identical build requests." Distinct
// keys never block each other; singleflight's Group keys the in-flight
// call map on the same string CacheKey computes.
type Compiler struct {
	cache *Cache
	group singleflight.Group
}

// NewCompiler constructs a Compiler backed by a fresh Cache with the
// given byte budget and age limit.
func NewCompiler(byteLimit int64, maxAge time.Duration) *Compiler {
	return &Compiler{cache: NewCache(byteLimit, maxAge)}
}

// Compile returns the cached program for (moduleName, src, cfg) if one
// is live, otherwise compiles it — sharing the compile among any other
// concurrent callers requesting the identical key — and populates the
// cache before returning.
func (c *Compiler) Compile(moduleName, src string, cfg capability.BuildConfig) (*lir.Program, error) {
	key := CacheKey(moduleName, src, cfg)
	if prog, ok := c.cache.Get(key); ok {
		return prog, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if prog, ok := c.cache.Get(key); ok {
			return prog, nil
		}
		prog, err := Compile(moduleName, src, cfg)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, prog, approxProgramSize(prog))
		return prog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*lir.Program), nil
}

// approxProgramSize estimates a lir.Program's cache weight as its total
// instruction count — cheap to compute and monotone in actual memory
// footprint, which is all an LRU-by-byte budget needs.
func approxProgramSize(p *lir.Program) int64 {
	var n int64
	count := func(fn *lir.Function) {
		for _, blk := range fn.Blocks {
			n += int64(len(blk.Ops)) + 1
		}
	}
	if p.Init != nil {
		count(p.Init)
	}
	for _, fn := range p.Funcs {
		count(fn)
	}
	return n
}
