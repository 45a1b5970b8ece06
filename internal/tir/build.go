package tir

import (
	"strings"

	"github.com/adpena/molt/internal/hir"
	"github.com/adpena/molt/internal/types"
)

// BuildProgram lowers a HIR module into a CFG-shaped Program. Every
// function gets a single "general" Variant at this stage — inference
// (infer.go) runs over it afterward, and specialization (specialize.go)
// clones additional Variants once call-site argument tuples are known.
func BuildProgram(mod *hir.Module) *Program {
	p := &Program{Name: mod.Name}
	for _, fd := range mod.Funcs {
		p.Funcs = append(p.Funcs, buildFunction(fd))
	}
	init := &hir.FuncDef{Name: "<init>", Body: mod.Init}
	p.Init = buildFunction(init)
	return p
}

// Builder holds the mutable state threaded through one function's CFG
// construction: the block currently being appended to, the live
// variable-name→Value bindings in that block, and the enclosing loops'
// header/exit blocks for break/continue.
type Builder struct {
	fn          *Function
	cur         *Block
	defs        map[string]Value
	blocks      []*Block
	nextBlockID int
	loopHeaders []*Block
	loopExits   []*Block
}

func buildFunction(fd *hir.FuncDef) *Function {
	fn := &Function{Name: fd.Name, Synthetic: fd.Synthetic, Captures: fd.Captures}
	b := &Builder{fn: fn, defs: map[string]Value{}}
	entry := b.newBlock("entry")
	b.cur = entry
	for _, name := range fd.Params {
		p := &Param{Name: name}
		fn.Params = append(fn.Params, p)
		b.defs[name] = p
	}
	for _, name := range fd.Captures {
		p := &Param{Name: name}
		fn.Params = append(fn.Params, p)
		b.defs[name] = p
	}
	b.buildStmts(fd.Body)
	if b.cur.Term == nil {
		b.cur.Term = &Return{Value: &Const{Tag: types.TagNull, Lit: nil}}
	}
	fn.General = &Variant{Entry: entry, Blocks: b.blocks}
	return fn
}

func (b *Builder) newBlock(label string) *Block {
	blk := &Block{ID: b.nextBlockID, Label: label}
	b.nextBlockID++
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *Builder) emit(i Instr) Value {
	b.cur.Instrs = append(b.cur.Instrs, i)
	return i
}

func prependInstr(blk *Block, i Instr) {
	blk.Instrs = append([]Instr{i}, blk.Instrs...)
}

func copyDefs(d map[string]Value) map[string]Value {
	out := make(map[string]Value, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// mergeReaching installs a Phi for every variable bound on every
// reaching path whose value differs across the reaching def maps, and
// returns the merged def map for the join block; a variable bound on
// only some paths is not carried past the join. A single reaching predecessor needs no
// phi. Zero reaching predecessors means the join block is dead code
// (every path out of the preceding construct terminated early).
func (b *Builder) mergeReaching(join *Block, reaching []map[string]Value, snapshot map[string]Value) map[string]Value {
	if len(reaching) == 0 {
		join.Term = &Unreachable{}
		return snapshot
	}
	if len(reaching) == 1 {
		return reaching[0]
	}
	result := map[string]Value{}
	for key, first := range reaching[0] {
		same, boundOnAll := true, true
		for _, dm := range reaching[1:] {
			v, ok := dm[key]
			if !ok {
				boundOnAll = false
				break
			}
			if v != first {
				same = false
			}
		}
		if !boundOnAll {
			continue
		}
		if same {
			result[key] = first
			continue
		}
		phi := &Phi{Edges: make([]Value, len(reaching))}
		for i, dm := range reaching {
			phi.Edges[i] = dm[key]
		}
		prependInstr(join, phi)
		result[key] = phi
	}
	return result
}

func (b *Builder) buildStmts(stmts []hir.Stmt) {
	for _, s := range stmts {
		if b.cur.Term != nil {
			// Dead code after an unconditional terminator (return/raise/
			// break/continue); further sibling statements in this list are
			// unreachable and contribute nothing to the CFG.
			return
		}
		b.buildStmt(s)
	}
}

func (b *Builder) buildStmt(s hir.Stmt) {
	switch n := s.(type) {
	case *hir.Assign:
		v := b.buildExpr(n.Value)
		b.storeTarget(n.Target, v)
	case *hir.ExprStmt:
		b.buildExpr(n.X)
	case *hir.Return:
		var v Value = &Const{Tag: types.TagNull, Lit: nil}
		if n.Value != nil {
			v = b.buildExpr(n.Value)
		}
		b.cur.Term = &Return{Value: v}
	case *hir.Raise:
		var v Value = &Const{Tag: types.TagNull, Lit: nil}
		if n.Value != nil {
			v = b.buildExpr(n.Value)
		}
		b.cur.Term = &Raise{Value: v}
	case *hir.Pass:
		// no operation
	case *hir.Break:
		if len(b.loopExits) == 0 {
			return
		}
		target := b.loopExits[len(b.loopExits)-1]
		b.cur.Term = &Jump{Target: target}
		target.Preds = append(target.Preds, b.cur)
	case *hir.Continue:
		if len(b.loopHeaders) == 0 {
			return
		}
		target := b.loopHeaders[len(b.loopHeaders)-1]
		b.cur.Term = &Jump{Target: target}
		target.Preds = append(target.Preds, b.cur)
	case *hir.Import:
		b.defs[n.Bind] = &IntrinsicRef{Name: "module." + n.Module}
	case *hir.If:
		b.buildIf(n)
	case *hir.While:
		b.buildWhile(n)
	case *hir.TryFinally:
		b.buildTryFinally(n)
	}
}

func (b *Builder) storeTarget(target hir.Expr, value Value) {
	switch t := target.(type) {
	case *hir.Ident:
		b.defs[t.Name] = value
	case *hir.StoreAttr:
		x := b.buildExpr(t.X)
		b.emit(&StoreAttr{X: x, Name: t.Name, Value: value})
	case *hir.StoreIndex:
		x := b.buildExpr(t.X)
		idx := b.buildExpr(t.Index)
		b.emit(&StoreIndex{X: x, Index: idx, Value: value})
	}
}

func (b *Builder) buildIf(n *hir.If) {
	cond := b.buildExpr(n.Cond)
	snapshot := copyDefs(b.defs)
	entry := b.cur
	thenBlock := b.newBlock("then")
	elseBlock := b.newBlock("else")
	join := b.newBlock("endif")
	entry.Term = &CondBranch{Cond: cond, Then: thenBlock, Else: elseBlock}
	thenBlock.Preds = append(thenBlock.Preds, entry)
	elseBlock.Preds = append(elseBlock.Preds, entry)

	var reaching []map[string]Value

	b.cur, b.defs = thenBlock, copyDefs(snapshot)
	b.buildStmts(n.Then)
	if b.cur.Term == nil {
		b.cur.Term = &Jump{Target: join}
		join.Preds = append(join.Preds, b.cur)
		reaching = append(reaching, b.defs)
	}

	b.cur, b.defs = elseBlock, copyDefs(snapshot)
	b.buildStmts(n.Else)
	if b.cur.Term == nil {
		b.cur.Term = &Jump{Target: join}
		join.Preds = append(join.Preds, b.cur)
		reaching = append(reaching, b.defs)
	}

	b.cur = join
	b.defs = b.mergeReaching(join, reaching, snapshot)
}

func (b *Builder) buildWhile(n *hir.While) {
	preheader := b.cur
	snapshot := copyDefs(b.defs)
	header := b.newBlock("whilehead")
	preheader.Term = &Jump{Target: header}
	header.Preds = append(header.Preds, preheader)

	assigned := assignedNames(n.Body)
	phis := map[string]*Phi{}
	headerDefs := copyDefs(snapshot)
	for _, name := range assigned {
		if _, ok := snapshot[name]; !ok {
			continue
		}
		phi := &Phi{Edges: make([]Value, 2)}
		phi.Edges[0] = snapshot[name]
		prependInstr(header, phi)
		headerDefs[name] = phi
		phis[name] = phi
	}

	b.cur, b.defs = header, headerDefs
	cond := b.buildExpr(n.Cond)
	body := b.newBlock("whilebody")
	exit := b.newBlock("whileexit")
	header.Term = &CondBranch{Cond: cond, Then: body, Else: exit}
	body.Preds = append(body.Preds, header)
	exit.Preds = append(exit.Preds, header)

	b.loopHeaders = append(b.loopHeaders, header)
	b.loopExits = append(b.loopExits, exit)
	b.cur, b.defs = body, copyDefs(headerDefs)
	b.buildStmts(n.Body)
	bodyEnd, bodyDefs := b.cur, b.defs
	if bodyEnd.Term == nil {
		bodyEnd.Term = &Jump{Target: header}
		header.Preds = append(header.Preds, bodyEnd)
		for name, phi := range phis {
			phi.Edges[1] = bodyDefs[name]
		}
	}
	for _, phi := range phis {
		if phi.Edges[1] == nil {
			phi.Edges[1] = phi.Edges[0]
		}
	}
	b.loopHeaders = b.loopHeaders[:len(b.loopHeaders)-1]
	b.loopExits = b.loopExits[:len(b.loopExits)-1]

	b.cur = exit
	b.defs = headerDefs
}

// buildTryFinally models the protected region's normal path inline
// (body, then finally, then continue) and each except-handler as a
// separate block whose defs conservatively restart from the pre-try
// snapshot — an exception can interrupt the body at any instruction, so
// the handler cannot assume any partial progress. This is a documented
// simplification: a handler that reads a variable the body assigned
// right before raising sees the pre-try value, not the partial one.
func (b *Builder) buildTryFinally(n *hir.TryFinally) {
	entry := b.cur
	snapshot := copyDefs(b.defs)
	after := b.newBlock("after_try")

	var reaching []map[string]Value

	b.buildStmts(n.Body)
	if b.cur.Term == nil {
		b.buildStmts(n.Finally)
		if b.cur.Term == nil {
			b.cur.Term = &Jump{Target: after}
			after.Preds = append(after.Preds, b.cur)
			reaching = append(reaching, b.defs)
		}
	}

	var handlers []TryHandler
	for _, h := range n.Handlers {
		hb := b.newBlock("except_" + h.Kind)
		b.cur, b.defs = hb, copyDefs(snapshot)
		if h.Bind != "" {
			ev := &CaughtError{Kind: h.Kind}
			b.emit(ev)
			b.defs[h.Bind] = ev
		}
		b.buildStmts(h.Body)
		if b.cur.Term == nil {
			b.buildStmts(n.Finally)
			if b.cur.Term == nil {
				b.cur.Term = &Jump{Target: after}
				after.Preds = append(after.Preds, b.cur)
				reaching = append(reaching, b.defs)
			}
		}
		handlers = append(handlers, TryHandler{Kind: h.Kind, Bind: h.Bind, Entry: hb})
	}
	entry.Handlers = handlers

	b.cur = after
	b.defs = b.mergeReaching(after, reaching, snapshot)
}

func (b *Builder) buildExpr(e hir.Expr) Value {
	switch n := e.(type) {
	case *hir.Ident:
		if v, ok := b.defs[n.Name]; ok {
			return v
		}
		return &IntrinsicRef{Name: n.Name}
	case *hir.ConstInt:
		return b.emit(&Const{Tag: types.TagInt, Lit: n.Value})
	case *hir.ConstFloat:
		return b.emit(&Const{Tag: types.TagFloat, Lit: n.Value})
	case *hir.ConstStr:
		return b.emit(&Const{Tag: types.TagStr, Lit: n.Value})
	case *hir.ConstBool:
		return b.emit(&Const{Tag: types.TagBool, Lit: n.Value})
	case *hir.ConstNull:
		return b.emit(&Const{Tag: types.TagNull, Lit: nil})
	case *hir.BinOp:
		left, right := b.buildExpr(n.Left), b.buildExpr(n.Right)
		return b.emit(&BinOp{Op: n.Op, Left: left, Right: right})
	case *hir.UnaryOp:
		return b.emit(&UnaryOp{Op: n.Op, X: b.buildExpr(n.X)})
	case *hir.BoolOp:
		return b.buildBoolOp(n)
	case *hir.Call:
		return b.buildCall(n)
	case *hir.LoadAttr:
		return b.emit(&LoadAttr{X: b.buildExpr(n.X), Name: n.Name})
	case *hir.LoadIndex:
		return b.emit(&LoadIndex{X: b.buildExpr(n.X), Index: b.buildExpr(n.Index)})
	case *hir.MakeList:
		return b.emit(&MakeList{Elems: b.buildExprList(n.Elems)})
	case *hir.MakeTuple:
		return b.emit(&MakeTuple{Elems: b.buildExprList(n.Elems)})
	case *hir.MakeSet:
		return b.emit(&MakeSet{Elems: b.buildExprList(n.Elems)})
	case *hir.MakeMapping:
		return b.emit(&MakeMapping{Keys: b.buildExprList(n.Keys), Values: b.buildExprList(n.Values)})
	case *hir.IterAcquire:
		return b.emit(&IterAcquire{Iterable: b.buildExpr(n.Iterable)})
	case *hir.MakeClosure:
		fn := buildFunction(n.Func)
		return b.emit(&MakeClosure{Func: fn, Captured: b.buildExprList(n.Captured)})
	default:
		return &Const{Tag: types.TagNull, Lit: nil}
	}
}

func (b *Builder) buildExprList(exprs []hir.Expr) []Value {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		out[i] = b.buildExpr(e)
	}
	return out
}

// intrinsicName reports whether name follows the dotted runtime
// intrinsic convention hir lowering emits (e.g. "iter.next",
// "value.eq") rather than naming an ordinary bound variable.
func intrinsicName(name string) bool { return strings.Contains(name, ".") }

func (b *Builder) buildCall(n *hir.Call) Value {
	var callee Value
	if id, ok := n.Func.(*hir.Ident); ok && intrinsicName(id.Name) {
		callee = &IntrinsicRef{Name: id.Name}
	} else {
		callee = b.buildExpr(n.Func)
	}
	args := b.buildExprList(n.Args)
	kw := map[string]Value{}
	for k, v := range n.Keywords {
		kw[k] = b.buildExpr(v)
	}
	return b.emit(&Call{Callee: callee, Args: args, Keywords: kw})
}

// buildBoolOp lowers `and`/`or` into explicit short-circuiting control
// flow: each operand after the first is only evaluated if the fold so
// far hasn't already decided the result (spec §4.1 desugaring applies
// to surface sugar; short-circuit evaluation order is runtime semantics
// TIR must make an explicit branch rather than leaving implicit).
func (b *Builder) buildBoolOp(n *hir.BoolOp) Value {
	acc := b.buildExpr(n.Values[0])
	if len(n.Values) == 1 {
		return acc
	}
	merge := b.newBlock("boolop_merge")
	type edge struct {
		block *Block
		val   Value
	}
	var edges []edge
	for i := 1; i < len(n.Values); i++ {
		truth := b.emit(&Call{Callee: &IntrinsicRef{Name: "value.truthy"}, Args: []Value{acc}})
		nextBlock := b.newBlock("boolop_next")
		shortBlock := b.newBlock("boolop_short")
		from := b.cur
		if n.Op == "and" {
			from.Term = &CondBranch{Cond: truth, Then: nextBlock, Else: shortBlock}
		} else {
			from.Term = &CondBranch{Cond: truth, Then: shortBlock, Else: nextBlock}
		}
		nextBlock.Preds = append(nextBlock.Preds, from)
		shortBlock.Preds = append(shortBlock.Preds, from)

		shortBlock.Term = &Jump{Target: merge}
		merge.Preds = append(merge.Preds, shortBlock)
		edges = append(edges, edge{shortBlock, acc})

		b.cur = nextBlock
		acc = b.buildExpr(n.Values[i])
	}
	b.cur.Term = &Jump{Target: merge}
	merge.Preds = append(merge.Preds, b.cur)
	edges = append(edges, edge{b.cur, acc})

	b.cur = merge
	phi := &Phi{Edges: make([]Value, len(edges))}
	for i, e := range edges {
		phi.Edges[i] = e.val
	}
	return b.emit(phi)
}

// assignedNames returns the set of variable names a statement list
// assigns directly (not recursing into nested loop/if bodies would miss
// assignments there, so this does recurse into If/While/TryFinally, but
// never into a nested FuncDef/MakeClosure's own body — those introduce a
// new scope). Used to decide which variables need a loop-header phi.
func assignedNames(stmts []hir.Stmt) []string {
	seen := map[string]bool{}
	var order []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	var walk func([]hir.Stmt)
	walk = func(list []hir.Stmt) {
		for _, s := range list {
			switch n := s.(type) {
			case *hir.Assign:
				if id, ok := n.Target.(*hir.Ident); ok {
					add(id.Name)
				}
			case *hir.Import:
				add(n.Bind)
			case *hir.If:
				walk(n.Then)
				walk(n.Else)
			case *hir.While:
				walk(n.Body)
			case *hir.TryFinally:
				walk(n.Body)
				for _, h := range n.Handlers {
					walk(h.Body)
				}
				walk(n.Finally)
			}
		}
	}
	walk(stmts)
	return order
}
