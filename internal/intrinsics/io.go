package intrinsics

import (
	"os"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// filePayload is an open file's Go-level handle, heap-allocated like any
// other resource (spec §4.8 "I/O acquisition (open/read/write/close)").
type filePayload struct {
	f      *os.File
	closed bool
}

func init() {
	registerIOOps()
}

func registerIOOps() {
	Register(&Spec{Name: "io.open", NumArgs: 2, Effect: WritesState, Capabilities: capability.Set(0).Grant(capability.FSRead).Grant(capability.FSWrite), MayRaise: []molterr.Kind{molterr.KindOS}, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		path, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		mode, err := asStr(ctx, args[1])
		if err != nil {
			return 0, err
		}
		flag, cerr := flagForMode(mode)
		if cerr != nil {
			return 0, cerr
		}
		required := capability.Set(0)
		if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_APPEND) != 0 {
			required = required.Grant(capability.FSWrite)
		}
		if flag&os.O_WRONLY == 0 {
			required = required.Grant(capability.FSRead)
		}
		if rerr := ctx.Caps.RequireAll(required); rerr != nil {
			return 0, molterr.Wrap(molterr.KindCapabilityDenied, molterr.RTCapabilityDeny, rerr, "io.open %q", path)
		}
		f, oerr := os.OpenFile(path, flag, 0o644)
		if oerr != nil {
			return 0, molterr.NewOSError("open", oerr)
		}
		idx := ctx.Heap.Alloc(heap.KindFile, &filePayload{f: f}, 64)
		return objmodel.FromHeapRef(idx), nil
	}})

	Register(&Spec{Name: "io.read", NumArgs: 2, Effect: ReadsState, Capabilities: capability.Set(0).Grant(capability.FSRead), MayRaise: []molterr.Kind{molterr.KindOS}, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		fp, err := fileOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		n := args[1].SmallInt()
		buf := make([]byte, n)
		read, rerr := fp.f.Read(buf)
		if rerr != nil && read == 0 {
			if rerr.Error() == "EOF" {
				return newBytes(ctx, nil), nil
			}
			return 0, molterr.NewOSError("read", rerr)
		}
		return newBytes(ctx, buf[:read]), nil
	}})

	Register(&Spec{Name: "io.write", NumArgs: 2, Effect: WritesState, Capabilities: capability.Set(0).Grant(capability.FSWrite), MayRaise: []molterr.Kind{molterr.KindOS}, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		fp, err := fileOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		data, err := asBytes(ctx, args[1])
		if err != nil {
			return 0, err
		}
		n, werr := fp.f.Write(data)
		if werr != nil {
			return 0, molterr.NewOSError("write", werr)
		}
		return intResult(int64(n)), nil
	}})

	Register(&Spec{Name: "io.close", NumArgs: 1, Effect: WritesState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		fp, err := fileOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		if fp.closed {
			return objmodel.Null, nil
		}
		fp.closed = true
		if cerr := fp.f.Close(); cerr != nil {
			return 0, molterr.NewOSError("close", cerr)
		}
		return objmodel.Null, nil
	}})
}

func flagForMode(mode string) (int, *molterr.Error) {
	switch mode {
	case "r":
		return os.O_RDONLY, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "r+":
		return os.O_RDWR, nil
	default:
		return 0, molterr.New(molterr.KindValue, molterr.RTInternal, "unknown open mode %q", mode)
	}
}

func fileOf(ctx *Context, v objmodel.Value) (*filePayload, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindFile)
	if err != nil {
		return nil, err
	}
	return p.(*filePayload), nil
}
