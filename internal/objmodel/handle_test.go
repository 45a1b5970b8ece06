package objmodel

import (
	"sync"
	"testing"
)

func TestHandleAllocResolveFree(t *testing.T) {
	r := NewRegistry()
	payload := FromHeapRef(7)
	h := r.Alloc(HandleObject, payload)
	if !h.IsHandleRef() {
		t.Fatalf("Alloc did not return a handle ref")
	}
	got, kind, ok := r.Resolve(h)
	if !ok {
		t.Fatalf("expected Resolve to succeed")
	}
	if got != payload || kind != HandleObject {
		t.Fatalf("Resolve returned %v/%v, want %v/%v", got, kind, payload, HandleObject)
	}
	r.Free(h)
	if _, _, ok := r.Resolve(h); ok {
		t.Fatalf("expected Resolve to fail after Free")
	}
	r.Free(h) // idempotent
}

func TestHandleResolveNonHandle(t *testing.T) {
	r := NewRegistry()
	if _, _, ok := r.Resolve(FromSmallInt(1)); ok {
		t.Fatalf("expected Resolve to reject a non-handle Value")
	}
}

func TestHandleConcurrentAlloc(t *testing.T) {
	r := NewRegistry()
	const n = 500
	handles := make([]Value, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = r.Alloc(HandleObject, FromSmallInt(int64(i)))
		}(i)
	}
	wg.Wait()
	if r.Len() != n {
		t.Fatalf("Len() = %d, want %d", r.Len(), n)
	}
	seen := make(map[Value]bool)
	for _, h := range handles {
		if seen[h] {
			t.Fatalf("duplicate handle allocated: %v", h)
		}
		seen[h] = true
		if _, _, ok := r.Resolve(h); !ok {
			t.Fatalf("expected every allocated handle to resolve")
		}
	}
}
