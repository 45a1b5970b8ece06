package intrinsics

import (
	"math"

	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
	"github.com/cespare/xxhash/v2"
)

// Grounded on the teacher's dependency on a fast non-cryptographic hash
// for internal identity/dedup work; xxhash is already a pack dependency
// and gives spec §4.8's "hashing with a deterministic seed" directly —
// xxhash.Sum64 has no seed parameter, so the seed is folded in as an
// eight-byte prefix, which is the library's documented way to key a hash
// without reaching for a different algorithm.
func init() {
	registerHashOps()
}

func registerHashOps() {
	Register(&Spec{Name: "value.hash", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		b, err := hashBytes(ctx, args[0])
		if err != nil {
			return 0, err
		}
		seed := uint64(ctx.Caps.Config().HashSeed)
		d := xxhash.New()
		d.Write(seedBytes(seed))
		d.Write(b)
		sum := int64(d.Sum64() & 0x7FFFFFFFFFFFFFFF)
		if objmodel.InSmallIntRange(sum) {
			return intResult(sum), nil
		}
		return objmodel.FromFloat(float64(sum)), nil
	}})
}

func seedBytes(seed uint64) []byte {
	return []byte{
		byte(seed), byte(seed >> 8), byte(seed >> 16), byte(seed >> 24),
		byte(seed >> 32), byte(seed >> 40), byte(seed >> 48), byte(seed >> 56),
	}
}

// hashBytes produces a stable byte encoding of v's value for hashing.
// Only hashable (immutable-by-convention) kinds are supported: scalars,
// strings, bytes, and tuples of hashable elements — lists, sets, and
// mappings are mutable and, per the language's own rules, unhashable.
func hashBytes(ctx *Context, v objmodel.Value) ([]byte, *molterr.Error) {
	switch {
	case v.IsSmallInt():
		n := v.SmallInt()
		return []byte{1, byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24), byte(n >> 32), byte(n >> 40), byte(n >> 48), byte(n >> 56)}, nil
	case v.IsFloat():
		return append([]byte{2}, seedBytes(math.Float64bits(v.Float()))...), nil
	case v.IsNull():
		return []byte{3}, nil
	case v.IsBool():
		if v.Bool() {
			return []byte{4, 1}, nil
		}
		return []byte{4, 0}, nil
	case v.IsHeapRef():
		obj := ctx.Heap.Table().Get(v.HeapIndex())
		if obj == nil {
			return nil, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
		}
		switch p := obj.Payload.(type) {
		case string:
			return append([]byte{5}, []byte(p)...), nil
		case []byte:
			return append([]byte{6}, p...), nil
		case *TuplePayload:
			out := []byte{7}
			for _, e := range p.Elems {
				eb, err := hashBytes(ctx, e)
				if err != nil {
					return nil, err
				}
				out = append(out, eb...)
			}
			return out, nil
		default:
			return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "unhashable type")
		}
	default:
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "unhashable type")
	}
}
