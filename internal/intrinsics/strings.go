package intrinsics

import (
	"strings"
	"unicode/utf8"

	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Str/Bytes payloads are plain Go string/[]byte values — unlike the
// composite container Kinds, these have no further structure worth a
// dedicated payload type.

func newStr(ctx *Context, s string) objmodel.Value {
	idx := ctx.Heap.Alloc(heap.KindStr, s, uint64(16+len(s)))
	return objmodel.FromHeapRef(idx)
}

func newBytes(ctx *Context, b []byte) objmodel.Value {
	idx := ctx.Heap.Alloc(heap.KindBytes, b, uint64(16+len(b)))
	return objmodel.FromHeapRef(idx)
}

func asStr(ctx *Context, v objmodel.Value) (string, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindStr)
	if err != nil {
		return "", err
	}
	return p.(string), nil
}

func asBytes(ctx *Context, v objmodel.Value) ([]byte, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindBytes)
	if err != nil {
		return nil, err
	}
	return p.([]byte), nil
}

// isASCII gates the ASCII fast path spec §4.8 calls for: plain byte-wise
// case conversion and indexing is correct only when every codepoint is
// single-byte.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

var upperCaser = cases.Upper(language.Und)
var lowerCaser = cases.Lower(language.Und)
var foldCaser = cases.Fold()

func init() {
	registerStringOps()
}

func registerStringOps() {
	Register(&Spec{Name: "str.len", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		// Spec §8: "string indices are codepoint indices" — length must
		// count runes, not bytes, to stay consistent with find/slice.
		return intResult(int64(utf8.RuneCountInString(s))), nil
	}})

	Register(&Spec{Name: "str.concat", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		a, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		b, err := asStr(ctx, args[1])
		if err != nil {
			return 0, err
		}
		return newStr(ctx, a+b), nil
	}})

	Register(&Spec{Name: "str.find", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		haystack, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		needle, err := asStr(ctx, args[1])
		if err != nil {
			return 0, err
		}
		byteIdx := strings.Index(haystack, needle)
		if byteIdx < 0 {
			return intResult(-1), nil
		}
		// Spec §8: "find on a mixed-ASCII/non-ASCII haystack returns the
		// codepoint offset" — convert the byte offset strings.Index gives
		// us into a rune offset.
		return intResult(int64(utf8.RuneCountInString(haystack[:byteIdx]))), nil
	}})

	Register(&Spec{Name: "str.split", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		sep, err := asStr(ctx, args[1])
		if err != nil {
			return 0, err
		}
		parts := strings.Split(s, sep)
		elems := make([]objmodel.Value, len(parts))
		for i, p := range parts {
			elems[i] = newStr(ctx, p)
		}
		return newList(ctx, elems), nil
	}})

	Register(&Spec{Name: "str.replace", NumArgs: 3, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		old, err := asStr(ctx, args[1])
		if err != nil {
			return 0, err
		}
		repl, err := asStr(ctx, args[2])
		if err != nil {
			return 0, err
		}
		return newStr(ctx, strings.ReplaceAll(s, old, repl)), nil
	}})

	Register(&Spec{Name: "str.upper", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		if isASCII(s) {
			return newStr(ctx, strings.ToUpper(s)), nil
		}
		return newStr(ctx, upperCaser.String(s)), nil
	}})

	Register(&Spec{Name: "str.lower", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		if isASCII(s) {
			return newStr(ctx, strings.ToLower(s)), nil
		}
		return newStr(ctx, lowerCaser.String(s)), nil
	}})

	Register(&Spec{Name: "str.casefold", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		return newStr(ctx, foldCaser.String(s)), nil
	}})

	Register(&Spec{Name: "str.encode", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		return newBytes(ctx, []byte(s)), nil
	}})

	Register(&Spec{Name: "bytes.decode", NumArgs: 1, Effect: Pure, MayRaise: []molterr.Kind{molterr.KindValue}, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		b, err := asBytes(ctx, args[0])
		if err != nil {
			return 0, err
		}
		if !utf8.Valid(b) {
			return 0, molterr.New(molterr.KindValue, molterr.RTInternal, "bytes are not valid UTF-8")
		}
		return newStr(ctx, string(b)), nil
	}})
}
