package hir

// freeVars computes the set of identifiers read by body that are not
// bound by an Assign target (or the loop/handler binders) within body
// itself, in first-use order. Used to populate FuncDef.Captures for
// synthetic closures introduced by comprehension and lambda lowering
// (spec §4.1 "preserving lexical capture").
func freeVars(body []Stmt) []string {
	c := &capCollector{bound: map[string]bool{}, seen: map[string]bool{}}
	for _, s := range body {
		c.walkStmt(s)
	}
	return c.order
}

type capCollector struct {
	bound map[string]bool
	seen  map[string]bool
	order []string
}

func (c *capCollector) bind(name string) {
	c.bound[name] = true
}

func (c *capCollector) use(name string) {
	if c.bound[name] || c.seen[name] {
		return
	}
	c.seen[name] = true
	c.order = append(c.order, name)
}

func (c *capCollector) walkStmt(s Stmt) {
	switch n := s.(type) {
	case *Assign:
		c.walkExpr(n.Value)
		c.bindTarget(n.Target)
	case *ExprStmt:
		c.walkExpr(n.X)
	case *Return:
		if n.Value != nil {
			c.walkExpr(n.Value)
		}
	case *If:
		c.walkExpr(n.Cond)
		for _, s := range n.Then {
			c.walkStmt(s)
		}
		for _, s := range n.Else {
			c.walkStmt(s)
		}
	case *While:
		c.walkExpr(n.Cond)
		for _, s := range n.Body {
			c.walkStmt(s)
		}
	case *TryFinally:
		for _, s := range n.Body {
			c.walkStmt(s)
		}
		for _, h := range n.Handlers {
			if h.Bind != "" {
				c.bind(h.Bind)
			}
			for _, s := range h.Body {
				c.walkStmt(s)
			}
		}
		for _, s := range n.Finally {
			c.walkStmt(s)
		}
	case *Raise:
		if n.Value != nil {
			c.walkExpr(n.Value)
		}
	case *Import:
		c.bind(n.Bind)
	case *Break, *Continue, *Pass:
		// no bindings or uses
	}
}

// bindTarget records the identifiers a (possibly linearized) store
// target binds, and walks any sub-expressions it reads (e.g. the
// object and index of a StoreAttr/StoreIndex target).
func (c *capCollector) bindTarget(target Expr) {
	switch t := target.(type) {
	case *Ident:
		c.bind(t.Name)
	case *StoreAttr:
		c.walkExpr(t.X)
	case *StoreIndex:
		c.walkExpr(t.X)
		c.walkExpr(t.Index)
	}
}

func (c *capCollector) walkExpr(e Expr) {
	switch n := e.(type) {
	case *Ident:
		c.use(n.Name)
	case *BinOp:
		c.walkExpr(n.Left)
		c.walkExpr(n.Right)
	case *UnaryOp:
		c.walkExpr(n.X)
	case *BoolOp:
		for _, v := range n.Values {
			c.walkExpr(v)
		}
	case *Call:
		c.walkExpr(n.Func)
		for _, a := range n.Args {
			c.walkExpr(a)
		}
		for _, v := range n.Keywords {
			c.walkExpr(v)
		}
	case *IterAcquire:
		c.walkExpr(n.Iterable)
	case *LoadAttr:
		c.walkExpr(n.X)
	case *StoreAttr:
		c.walkExpr(n.X)
	case *LoadIndex:
		c.walkExpr(n.X)
		c.walkExpr(n.Index)
	case *StoreIndex:
		c.walkExpr(n.X)
		c.walkExpr(n.Index)
	case *MakeList:
		for _, el := range n.Elems {
			c.walkExpr(el)
		}
	case *MakeTuple:
		for _, el := range n.Elems {
			c.walkExpr(el)
		}
	case *MakeSet:
		for _, el := range n.Elems {
			c.walkExpr(el)
		}
	case *MakeMapping:
		for _, k := range n.Keys {
			c.walkExpr(k)
		}
		for _, v := range n.Values {
			c.walkExpr(v)
		}
	case *MakeClosure:
		for _, cap := range n.Captured {
			c.walkExpr(cap)
		}
		// the closure's own Func.Captures were already computed when it
		// was synthesized; its body is not re-walked here.
	case *ConstInt, *ConstFloat, *ConstStr, *ConstBool, *ConstNull:
		// no identifiers
	}
}
