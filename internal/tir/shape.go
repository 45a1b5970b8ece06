package tir

import "github.com/adpena/molt/internal/types"

// inferShapes implements spec §4.2's mapping-as-record rule: "If a
// mapping value is only ever indexed by constant string keys within its
// live range and never escapes through a polymorphic sink, it is
// assigned a shape descriptor... Escape through unknown calls dissolves
// the shape." A mapping escapes here if it is ever passed as a call
// argument/keyword, returned, raised, stored into an attribute, index,
// or another container — any sink this pass cannot prove preserves the
// constant-key-only access pattern.
func inferShapes(v *Variant) {
	escaped := map[*MakeMapping]bool{}
	fields := map[*MakeMapping]map[string]*Field{}
	order := map[*MakeMapping][]string{}
	definingBlock := map[*MakeMapping]*Block{}

	markEscaped := func(val Value) {
		if mm, ok := val.(*MakeMapping); ok {
			escaped[mm] = true
		}
	}

	observe := func(blk *Block, x Value, key Value, valType *types.Type) {
		mm, ok := x.(*MakeMapping)
		if !ok {
			return
		}
		k, ok := key.(*Const)
		if !ok || k.Tag != types.TagStr {
			escaped[mm] = true
			return
		}
		keyStr, _ := k.Lit.(string)
		if fields[mm] == nil {
			fields[mm] = map[string]*Field{}
		}
		f, exists := fields[mm][keyStr]
		presence := Always
		if definingBlock[mm] != blk {
			presence = Sometimes
		}
		if !exists {
			fields[mm][keyStr] = &Field{Key: keyStr, Value: valType, Presence: presence}
			order[mm] = append(order[mm], keyStr)
		} else {
			f.Value = types.Join(f.Value, valType)
			if presence == Sometimes {
				f.Presence = Sometimes
			}
		}
	}

	for _, blk := range v.Blocks {
		for _, instr := range blk.Instrs {
			switch n := instr.(type) {
			case *MakeMapping:
				definingBlock[n] = blk
			}
		}
	}

	for _, blk := range v.Blocks {
		for _, instr := range blk.Instrs {
			switch n := instr.(type) {
			case *LoadIndex:
				observe(blk, n.X, n.Index, safeType(n))
			case *StoreIndex:
				observe(blk, n.X, n.Index, safeType(n.Value))
				markEscaped(n.Value)
			case *Call:
				markEscaped(n.Callee)
				for _, a := range n.Args {
					markEscaped(a)
				}
				for _, a := range n.Keywords {
					markEscaped(a)
				}
			case *StoreAttr:
				markEscaped(n.Value)
			case *MakeList:
				for _, e := range n.Elems {
					markEscaped(e)
				}
			case *MakeTuple:
				for _, e := range n.Elems {
					markEscaped(e)
				}
			case *MakeSet:
				for _, e := range n.Elems {
					markEscaped(e)
				}
			case *MakeMapping:
				for _, e := range n.Values {
					markEscaped(e)
				}
			case *MakeClosure:
				for _, e := range n.Captured {
					markEscaped(e)
				}
			}
		}
		switch term := blk.Term.(type) {
		case *Return:
			markEscaped(term.Value)
		case *Raise:
			markEscaped(term.Value)
		}
	}

	for mm, keys := range order {
		if escaped[mm] {
			continue
		}
		shapeFields := make([]Field, len(keys))
		var keyTy, valTy *types.Type
		for i, k := range keys {
			f := fields[mm][k]
			shapeFields[i] = *f
			keyTy = types.Join(keyTy, types.Str)
			valTy = types.Join(valTy, f.Value)
		}
		mm.SetType(types.Mapping(keyTy, valTy, &types.Shape{Fields: shapeFields}))
	}
}

// Field and Presence are re-exported locally to read naturally above;
// they are internal/types' own descriptor types.
type Field = types.Field

const (
	Always    = types.Always
	Sometimes = types.Sometimes
)
