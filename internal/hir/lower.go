package hir

import (
	"fmt"

	"github.com/adpena/molt/internal/ast"
	"github.com/adpena/molt/internal/molterr"
)

// Lowerer rewrites a parsed ast.Module into HIR per spec §4.1. One
// Lowerer instance handles one module; temp names are unique within it.
type Lowerer struct {
	moduleName string
	tmpCounter int
	synthetics []*FuncDef
	errs       []*molterr.Error
}

// NewLowerer constructs a Lowerer for a module named name.
func NewLowerer(name string) *Lowerer {
	return &Lowerer{moduleName: name}
}

// Lower runs the full lowering pass over mod.
func (l *Lowerer) Lower(mod *ast.Module) *Module {
	out := &Module{Name: l.moduleName}
	out.base.P = mod.Pos
	for _, stmt := range mod.Body {
		if fd, ok := stmt.(*ast.FuncDef); ok {
			out.Funcs = append(out.Funcs, l.lowerFuncDef(fd))
			continue
		}
		out.Init = append(out.Init, l.lowerStmt(stmt)...)
	}
	out.Funcs = append(out.Funcs, l.synthetics...)
	return out
}

// Errors returns lowering-time diagnostics (spec §4.1: malformed
// patterns, invalid assignment targets, and unsupported dynamic forms
// fail at lowering time with a precise source location).
func (l *Lowerer) Errors() []*molterr.Error { return l.errs }

func (l *Lowerer) errorf(pos ast.Pos, format string, args ...any) {
	e := molterr.New(molterr.KindSyntax, "HIR001", format, args...)
	e.Traceback = []molterr.FrameDescriptor{{Line: pos.Line, Col: pos.Col}}
	l.errs = append(l.errs, e)
}

func (l *Lowerer) tmp(prefix string) string {
	l.tmpCounter++
	return fmt.Sprintf("__%s%d", prefix, l.tmpCounter)
}

func (l *Lowerer) lowerFuncDef(fd *ast.FuncDef) *FuncDef {
	var params []string
	for _, p := range fd.Params {
		params = append(params, p.Name)
	}
	out := &FuncDef{Name: fd.Name, Params: params}
	out.base.P = fd.Pos
	for _, s := range fd.Body {
		out.Body = append(out.Body, l.lowerStmt(s)...)
	}
	return out
}

// lowerStmt returns the sequence of HIR statements a single AST
// statement expands into (usually one, more for For/With/tuple-assign).
func (l *Lowerer) lowerStmt(s ast.Stmt) []Stmt {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return []Stmt{&ExprStmt{base: base{n.Pos}, X: l.lowerExpr(n.X)}}
	case *ast.Return:
		var v Expr
		if n.Value != nil {
			v = l.lowerExpr(n.Value)
		}
		return []Stmt{&Return{base: base{n.Pos}, Value: v}}
	case *ast.Pass:
		return []Stmt{&Pass{base{n.Pos}}}
	case *ast.Break:
		return []Stmt{&Break{base{n.Pos}}}
	case *ast.Continue:
		return []Stmt{&Continue{base{n.Pos}}}
	case *ast.Raise:
		var v Expr
		if n.Value != nil {
			v = l.lowerExpr(n.Value)
		}
		return []Stmt{&Raise{base: base{n.Pos}, Value: v}}
	case *ast.Import:
		if len(n.Names) > 0 {
			var out []Stmt
			for _, name := range n.Names {
				out = append(out, &Import{base: base{n.Pos}, Module: n.Module + "." + name, Bind: name})
			}
			return out
		}
		name := n.Alias
		if name == "" {
			name = n.Module
		}
		return []Stmt{&Import{base: base{n.Pos}, Module: n.Module, Bind: name}}
	case *ast.Assign:
		return l.lowerAssign(n)
	case *ast.AugAssign:
		return l.lowerAugAssign(n)
	case *ast.If:
		return l.lowerIf(n)
	case *ast.While:
		var body []Stmt
		for _, s := range n.Body {
			body = append(body, l.lowerStmt(s)...)
		}
		return []Stmt{&While{base: base{n.Pos}, Cond: l.lowerExpr(n.Cond), Body: body}}
	case *ast.For:
		return l.lowerFor(n)
	case *ast.With:
		return l.lowerWith(n)
	case *ast.Try:
		return l.lowerTry(n)
	case *ast.ClassDef:
		// Class bodies lower to the same explicit core as a module's init
		// block; method FuncDefs are hoisted alongside top-level functions.
		var body []Stmt
		for _, s := range n.Body {
			if fd, ok := s.(*ast.FuncDef); ok {
				l.synthetics = append(l.synthetics, l.lowerFuncDef(fd))
				continue
			}
			body = append(body, l.lowerStmt(s)...)
		}
		return body
	case *ast.Match:
		return l.lowerMatch(n)
	case *ast.GlobalDecl, *ast.NonlocalDecl:
		return nil // scope declarations carry no runtime operation
	case *ast.Del:
		return nil // TODO: lower to an explicit release-and-unbind op
	default:
		l.errorf(s.Position(), "unsupported statement form %T", s)
		return nil
	}
}

func (l *Lowerer) lowerIf(n *ast.If) []Stmt {
	var then, els []Stmt
	for _, s := range n.Then {
		then = append(then, l.lowerStmt(s)...)
	}
	for _, s := range n.Else {
		els = append(els, l.lowerStmt(s)...)
	}
	return []Stmt{&If{base: base{n.Pos}, Cond: l.lowerExpr(n.Cond), Then: then, Else: els}}
}

// lowerFor rewrites `for target in iter: body` into an explicit while
// loop driven by IterAcquire (spec §4.1).
func (l *Lowerer) lowerFor(n *ast.For) []Stmt {
	itVar := l.tmp("it")
	hasVar := l.tmp("has")
	valVar := l.tmp("val")

	acquire := &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: itVar},
		Value: &IterAcquire{base: base{n.Pos}, Iterable: l.lowerExpr(n.Iter)}}

	// __pair = next(__it); __has = __pair[0]; __val = __pair[1] — the
	// "iter.next" intrinsic returns a two-element tuple, unpacked the
	// same way any other tuple assignment target is linearized: store to
	// a temp, then index element-by-element.
	pairVar := l.tmp("pair")
	nextCall := &Call{base: base{n.Pos}, Func: &Ident{base: base{n.Pos}, Name: "iter.next"},
		Args: []Expr{&Ident{base: base{n.Pos}, Name: itVar}}}
	pairAssign := &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: pairVar}, Value: nextCall}
	hasAssign := &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: hasVar},
		Value: &LoadIndex{base: base{n.Pos}, X: &Ident{base: base{n.Pos}, Name: pairVar}, Index: &ConstInt{base: base{n.Pos}, Value: "0"}}}
	valAssign := &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: valVar},
		Value: &LoadIndex{base: base{n.Pos}, X: &Ident{base: base{n.Pos}, Name: pairVar}, Index: &ConstInt{base: base{n.Pos}, Value: "1"}}}

	breakIfExhausted := &If{base: base{n.Pos},
		Cond: &UnaryOp{base: base{n.Pos}, Op: "not", X: &Ident{base: base{n.Pos}, Name: hasVar}},
		Then: []Stmt{&Break{base{n.Pos}}},
	}

	bindTarget := l.lowerAssignTarget(n.Target, &Ident{base: base{n.Pos}, Name: valVar}, n.Pos)

	var body []Stmt
	body = append(body, pairAssign, hasAssign, valAssign, breakIfExhausted)
	body = append(body, bindTarget...)
	for _, s := range n.Body {
		body = append(body, l.lowerStmt(s)...)
	}

	loop := &While{base: base{n.Pos}, Cond: &ConstBool{base: base{n.Pos}, Value: true}, Body: body}
	return []Stmt{acquire, loop}
}

// lowerWith rewrites `with ctx as x: body` into acquire + try/finally
// (spec §4.1).
func (l *Lowerer) lowerWith(n *ast.With) []Stmt {
	var pre []Stmt
	var finallyBody []Stmt
	for _, item := range n.Items {
		cmVar := l.tmp("cm")
		pre = append(pre, &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: cmVar}, Value: l.lowerExpr(item.Context)})
		enter := &Call{base: base{n.Pos}, Func: &Ident{base: base{n.Pos}, Name: "context.enter"}, Args: []Expr{&Ident{base: base{n.Pos}, Name: cmVar}}}
		if item.As != nil {
			pre = append(pre, l.lowerAssignTarget(item.As, enter, n.Pos)...)
		} else {
			pre = append(pre, &ExprStmt{base: base{n.Pos}, X: enter})
		}
		exit := &Call{base: base{n.Pos}, Func: &Ident{base: base{n.Pos}, Name: "context.exit"}, Args: []Expr{&Ident{base: base{n.Pos}, Name: cmVar}}}
		finallyBody = append(finallyBody, &ExprStmt{base: base{n.Pos}, X: exit})
	}
	var body []Stmt
	for _, s := range n.Body {
		body = append(body, l.lowerStmt(s)...)
	}
	tf := &TryFinally{base: base{n.Pos}, Body: body, Finally: finallyBody}
	return append(pre, tf)
}

func (l *Lowerer) lowerTry(n *ast.Try) []Stmt {
	var body []Stmt
	for _, s := range n.Body {
		body = append(body, l.lowerStmt(s)...)
	}
	var handlers []Handler
	for _, h := range n.Handlers {
		var hBody []Stmt
		for _, s := range h.Body {
			hBody = append(hBody, l.lowerStmt(s)...)
		}
		handlers = append(handlers, Handler{Kind: h.Kind, Bind: h.As, Body: hBody})
	}
	var fin []Stmt
	for _, s := range n.Finally {
		fin = append(fin, l.lowerStmt(s)...)
	}
	return []Stmt{&TryFinally{base: base{n.Pos}, Body: body, Handlers: handlers, Finally: fin}}
}

// lowerMatch expands a match expression into a decision tree of type
// checks and binding extractions (spec §4.1), evaluated as a chain of
// If statements tried in source order. A subject with no matching case
// raises at runtime rather than silently falling through.
func (l *Lowerer) lowerMatch(n *ast.Match) []Stmt {
	subjVar := l.tmp("subject")
	pre := &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: subjVar}, Value: l.lowerExpr(n.Subject)}
	subject := &Ident{base: base{n.Pos}, Name: subjVar}

	noMatch := []Stmt{&Raise{base: base{n.Pos}, Value: &Call{base: base{n.Pos},
		Func: &Ident{base: base{n.Pos}, Name: "error.new"},
		Args: []Expr{&ConstStr{base: base{n.Pos}, Value: string(molterr.KindValue)}, &ConstStr{base: base{n.Pos}, Value: "no matching case"}},
	}}}

	chain := noMatch
	for i := len(n.Cases) - 1; i >= 0; i-- {
		c := n.Cases[i]
		cond, binds := l.lowerPattern(c.Pattern, subject)
		if c.Guard != nil {
			cond = &BoolOp{base: base{n.Pos}, Op: "and", Values: []Expr{cond, l.lowerExpr(c.Guard)}}
		}
		var body []Stmt
		body = append(body, binds...)
		for _, s := range c.Body {
			body = append(body, l.lowerStmt(s)...)
		}
		chain = []Stmt{&If{base: base{n.Pos}, Cond: cond, Then: body, Else: chain}}
	}
	return append([]Stmt{pre}, chain...)
}

// lowerPattern compiles one match pattern into a boolean test expression
// plus the binding statements it introduces when the test succeeds.
func (l *Lowerer) lowerPattern(p ast.Pattern, subject Expr) (Expr, []Stmt) {
	pos := p.Position()
	switch pat := p.(type) {
	case *ast.BindPattern:
		if pat.Name == "_" {
			return &ConstBool{base: base{pos}, Value: true}, nil
		}
		return &ConstBool{base: base{pos}, Value: true},
			[]Stmt{&Assign{base: base{pos}, Target: &Ident{base: base{pos}, Name: pat.Name}, Value: subject}}
	case *ast.LiteralPattern:
		cond := &Call{base: base{pos}, Func: &Ident{base: base{pos}, Name: "value.eq"},
			Args: []Expr{subject, l.lowerExpr(pat.Value)}}
		return cond, nil
	case *ast.TuplePattern:
		conds := []Expr{&Call{base: base{pos}, Func: &Ident{base: base{pos}, Name: "value.is_tuple_of_len"},
			Args: []Expr{subject, &ConstInt{base: base{pos}, Value: fmt.Sprint(len(pat.Elems))}}}}
		var binds []Stmt
		for i, elem := range pat.Elems {
			elemExpr := &LoadIndex{base: base{pos}, X: subject, Index: &ConstInt{base: base{pos}, Value: fmt.Sprint(i)}}
			c, b := l.lowerPattern(elem, elemExpr)
			conds = append(conds, c)
			binds = append(binds, b...)
		}
		return &BoolOp{base: base{pos}, Op: "and", Values: conds}, binds
	case *ast.ClassPattern:
		conds := []Expr{&Call{base: base{pos}, Func: &Ident{base: base{pos}, Name: "value.isinstance"},
			Args: []Expr{subject, &ConstStr{base: base{pos}, Value: pat.ClassName}}}}
		var binds []Stmt
		for name, sub := range pat.Fields {
			fieldExpr := &LoadAttr{base: base{pos}, X: subject, Name: name}
			c, b := l.lowerPattern(sub, fieldExpr)
			conds = append(conds, c)
			binds = append(binds, b...)
		}
		return &BoolOp{base: base{pos}, Op: "and", Values: conds}, binds
	default:
		l.errorf(pos, "unsupported pattern form %T", p)
		return &ConstBool{base: base{pos}, Value: false}, nil
	}
}

func (l *Lowerer) lowerAugAssign(n *ast.AugAssign) []Stmt {
	bin := &BinOp{base: base{n.Pos}, Op: n.Op, Left: l.lowerExpr(n.Target), Right: l.lowerExpr(n.Value)}
	return l.lowerAssignTarget(n.Target, bin, n.Pos)
}

func (l *Lowerer) lowerAssign(n *ast.Assign) []Stmt {
	value := l.lowerExpr(n.Value)
	var out []Stmt
	if len(n.Targets) > 1 {
		// re-evaluating a shared value expression for every target would
		// duplicate side effects; stash it in a temp once, up front.
		tmpName := l.tmp("assignval")
		out = append(out, &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: tmpName}, Value: value})
		value = &Ident{base: base{n.Pos}, Name: tmpName}
	}
	for _, target := range n.Targets {
		out = append(out, l.lowerAssignTarget(target, value, n.Pos)...)
	}
	return out
}

// lowerAssignTarget linearizes a single assignment target — identifier,
// attribute, subscript, or tuple/starred pattern — into primitive store
// operations (spec §4.1).
func (l *Lowerer) lowerAssignTarget(target ast.Expr, value Expr, pos ast.Pos) []Stmt {
	switch t := target.(type) {
	case *ast.Ident:
		return []Stmt{&Assign{base: base{pos}, Target: &Ident{base: base{pos}, Name: t.Name}, Value: value}}
	case *ast.Attribute:
		return []Stmt{&Assign{base: base{pos}, Target: &StoreAttr{base: base{pos}, X: l.lowerExpr(t.X), Name: t.Name}, Value: value}}
	case *ast.Subscript:
		return []Stmt{&Assign{base: base{pos}, Target: &StoreIndex{base: base{pos}, X: l.lowerExpr(t.X), Index: l.lowerExpr(t.Index)}, Value: value}}
	case *ast.TupleLit:
		tmpName := l.tmp("unpack")
		var out []Stmt
		out = append(out, &Assign{base: base{pos}, Target: &Ident{base: base{pos}, Name: tmpName}, Value: value})
		holder := &Ident{base: base{pos}, Name: tmpName}
		for i, elem := range t.Elems {
			if starred, ok := elem.(*ast.Starred); ok {
				rest := &Call{base: base{pos}, Func: &Ident{base: base{pos}, Name: "seq.rest"},
					Args: []Expr{holder, &ConstInt{base: base{pos}, Value: fmt.Sprint(i)}}}
				out = append(out, l.lowerAssignTarget(starred.X, rest, pos)...)
				continue
			}
			idx := &LoadIndex{base: base{pos}, X: holder, Index: &ConstInt{base: base{pos}, Value: fmt.Sprint(i)}}
			out = append(out, l.lowerAssignTarget(elem, idx, pos)...)
		}
		return out
	default:
		l.errorf(pos, "invalid assignment target %T", target)
		return nil
	}
}

// lowerExpr translates AST expressions into HIR, recursing through
// operator forms and desugaring comprehensions into synthetic closures
// as it goes.
func (l *Lowerer) lowerExpr(e ast.Expr) Expr {
	switch n := e.(type) {
	case *ast.Ident:
		return &Ident{base: base{n.Pos}, Name: n.Name}
	case *ast.IntLit:
		return &ConstInt{base: base{n.Pos}, Value: n.Value}
	case *ast.FloatLit:
		return &ConstFloat{base: base{n.Pos}, Value: n.Value}
	case *ast.StringLit:
		return &ConstStr{base: base{n.Pos}, Value: n.Value}
	case *ast.BoolLit:
		return &ConstBool{base: base{n.Pos}, Value: n.Value}
	case *ast.NullLit:
		return &ConstNull{base{n.Pos}}
	case *ast.BinaryExpr:
		return &BinOp{base: base{n.Pos}, Op: n.Op, Left: l.lowerExpr(n.Left), Right: l.lowerExpr(n.Right)}
	case *ast.UnaryExpr:
		return &UnaryOp{base: base{n.Pos}, Op: n.Op, X: l.lowerExpr(n.X)}
	case *ast.BoolOp:
		var vs []Expr
		for _, v := range n.Values {
			vs = append(vs, l.lowerExpr(v))
		}
		return &BoolOp{base: base{n.Pos}, Op: n.Op, Values: vs}
	case *ast.Call:
		var args []Expr
		for _, a := range n.Args {
			args = append(args, l.lowerExpr(a))
		}
		kw := map[string]Expr{}
		for k, v := range n.Keywords {
			kw[k] = l.lowerExpr(v)
		}
		return &Call{base: base{n.Pos}, Func: l.lowerExpr(n.Func), Args: args, Keywords: kw}
	case *ast.Attribute:
		return &LoadAttr{base: base{n.Pos}, X: l.lowerExpr(n.X), Name: n.Name}
	case *ast.Subscript:
		return &LoadIndex{base: base{n.Pos}, X: l.lowerExpr(n.X), Index: l.lowerExpr(n.Index)}
	case *ast.ListLit:
		var elems []Expr
		for _, e := range n.Elems {
			elems = append(elems, l.lowerExpr(e))
		}
		return &MakeList{base: base{n.Pos}, Elems: elems}
	case *ast.TupleLit:
		var elems []Expr
		for _, e := range n.Elems {
			elems = append(elems, l.lowerExpr(e))
		}
		return &MakeTuple{base: base{n.Pos}, Elems: elems}
	case *ast.SetLit:
		var elems []Expr
		for _, e := range n.Elems {
			elems = append(elems, l.lowerExpr(e))
		}
		return &MakeSet{base: base{n.Pos}, Elems: elems}
	case *ast.DictLit:
		var ks, vs []Expr
		for _, k := range n.Keys {
			ks = append(ks, l.lowerExpr(k))
		}
		for _, v := range n.Values {
			vs = append(vs, l.lowerExpr(v))
		}
		return &MakeMapping{base: base{n.Pos}, Keys: ks, Values: vs}
	case *ast.Comprehension:
		return l.lowerComprehension(n)
	case *ast.Lambda:
		return l.lowerLambda(n)
	case *ast.Starred:
		// A bare starred expression only has meaning inside an assignment
		// target or call argument list, both handled by their own callers;
		// reaching here means it escaped into a value position.
		l.errorf(n.Pos, "starred expression outside assignment target or call")
		return &ConstNull{base{n.Pos}}
	default:
		l.errorf(e.Position(), "unsupported expression form %T", e)
		return &ConstNull{base{e.Position()}}
	}
}

// lowerComprehension desugars list/set/mapping/generator comprehensions
// into a synthetic zero-argument closure containing the equivalent
// explicit loop and an accumulator, called immediately at the
// comprehension's original position (spec §4.1 "desugared functions
// containing the generator state machine, preserving lexical capture").
func (l *Lowerer) lowerComprehension(n *ast.Comprehension) Expr {
	accName := l.tmp("acc")
	var accInit Stmt
	var accumulate Stmt
	accIdent := &Ident{base: base{n.Pos}, Name: accName}

	switch n.Kind {
	case ast.ComprehensionList, ast.ComprehensionGenerator:
		accInit = &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: accName}, Value: &MakeList{base: base{n.Pos}}}
		accumulate = &ExprStmt{base: base{n.Pos}, X: &Call{base: base{n.Pos},
			Func: &Ident{base: base{n.Pos}, Name: "list.append"},
			Args: []Expr{accIdent, l.lowerExpr(n.Element)}}}
	case ast.ComprehensionSet:
		accInit = &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: accName}, Value: &MakeSet{base: base{n.Pos}}}
		accumulate = &ExprStmt{base: base{n.Pos}, X: &Call{base: base{n.Pos},
			Func: &Ident{base: base{n.Pos}, Name: "set.add"},
			Args: []Expr{accIdent, l.lowerExpr(n.Element)}}}
	case ast.ComprehensionMapping:
		accInit = &Assign{base: base{n.Pos}, Target: &Ident{base: base{n.Pos}, Name: accName}, Value: &MakeMapping{base: base{n.Pos}}}
		accumulate = &Assign{base: base{n.Pos},
			Target: &StoreIndex{base: base{n.Pos}, X: accIdent, Index: l.lowerExpr(n.KeyElem)},
			Value:  l.lowerExpr(n.Element)}
	}

	forStmt := &ast.For{Pos: n.Pos, Target: n.Target, Iter: n.Iter, Body: nil}
	body := []Stmt{accumulate}
	loweredFor := l.lowerForWithBody(forStmt, func() []Stmt {
		guarded := body
		for i := len(n.Ifs) - 1; i >= 0; i-- {
			guarded = []Stmt{&If{base: base{n.Pos}, Cond: l.lowerExpr(n.Ifs[i]), Then: guarded}}
		}
		return guarded
	})

	fn := &FuncDef{Synthetic: true, Name: l.tmp("comp")}
	fn.base.P = n.Pos
	fn.Body = append([]Stmt{accInit}, loweredFor...)
	fn.Body = append(fn.Body, &Return{base: base{n.Pos}, Value: accIdent})
	fn.Captures = freeVars(fn.Body)
	l.synthetics = append(l.synthetics, fn)

	var capturedArgs []Expr
	for _, name := range fn.Captures {
		capturedArgs = append(capturedArgs, &Ident{base: base{n.Pos}, Name: name})
	}
	return &Call{base: base{n.Pos}, Func: &MakeClosure{base: base{n.Pos}, Func: fn, Captured: capturedArgs}}
}

// lowerForWithBody is lowerFor generalized to accept a body-builder
// callback, used by comprehension lowering to splice in the
// if-guard-wrapped accumulate statement as the loop body.
func (l *Lowerer) lowerForWithBody(n *ast.For, body func() []Stmt) []Stmt {
	saved := n.Body
	n.Body = nil
	stmts := l.lowerFor(n)
	n.Body = saved
	// lowerFor's while-loop is always the second element after the
	// iterator-acquire assign; splice the guarded accumulate statements
	// into its body.
	whileStmt := stmts[len(stmts)-1].(*While)
	whileStmt.Body = append(whileStmt.Body, body()...)
	return stmts
}

func (l *Lowerer) lowerLambda(n *ast.Lambda) Expr {
	var params []string
	for _, p := range n.Params {
		params = append(params, p.Name)
	}
	fn := &FuncDef{Synthetic: true, Name: l.tmp("lambda"), Params: params}
	fn.base.P = n.Pos
	fn.Body = []Stmt{&Return{base: base{n.Pos}, Value: l.lowerExpr(n.Body)}}
	fn.Captures = freeVars(fn.Body)
	l.synthetics = append(l.synthetics, fn)
	var capturedArgs []Expr
	for _, name := range fn.Captures {
		capturedArgs = append(capturedArgs, &Ident{base: base{n.Pos}, Name: name})
	}
	return &MakeClosure{base: base{n.Pos}, Func: fn, Captured: capturedArgs}
}
