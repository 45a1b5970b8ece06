package parser

import (
	"testing"

	"github.com/adpena/molt/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, errs := Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return mod
}

func TestParseFuncDefAndReturn(t *testing.T) {
	mod := mustParse(t, "def add(a, b):\n    return a + b\n")
	if len(mod.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(mod.Body))
	}
	fn, ok := mod.Body[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected FuncDef, got %T", mod.Body[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected func shape: %+v", fn)
	}
	ret, ok := fn.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected Return, got %T", fn.Body[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected a+b binary expr, got %+v", ret.Value)
	}
}

func TestParseIfElifElse(t *testing.T) {
	mod := mustParse(t, "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n")
	ifs, ok := mod.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", mod.Body[0])
	}
	elifNode, ok := ifs.Else[0].(*ast.If)
	if !ok {
		t.Fatalf("expected elif chain to produce nested If, got %T", ifs.Else[0])
	}
	if len(elifNode.Else) == 0 {
		t.Fatalf("expected final else branch")
	}
}

func TestParseForWithAndTry(t *testing.T) {
	src := "for x in xs:\n    with open(x) as f:\n        try:\n            use(f)\n        except ValueError as e:\n            pass\n        finally:\n            pass\n"
	mod := mustParse(t, src)
	forStmt, ok := mod.Body[0].(*ast.For)
	if !ok {
		t.Fatalf("expected For, got %T", mod.Body[0])
	}
	withStmt, ok := forStmt.Body[0].(*ast.With)
	if !ok {
		t.Fatalf("expected With, got %T", forStmt.Body[0])
	}
	tryStmt, ok := withStmt.Body[0].(*ast.Try)
	if !ok {
		t.Fatalf("expected Try, got %T", withStmt.Body[0])
	}
	if len(tryStmt.Handlers) != 1 || tryStmt.Handlers[0].Kind != "ValueError" {
		t.Fatalf("unexpected handlers: %+v", tryStmt.Handlers)
	}
	if tryStmt.Finally == nil {
		t.Fatalf("expected finally block")
	}
}

func TestParseTupleAssignment(t *testing.T) {
	mod := mustParse(t, "a, b = b, a\n")
	assign, ok := mod.Body[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", mod.Body[0])
	}
	if _, ok := assign.Targets[0].(*ast.TupleLit); !ok {
		t.Fatalf("expected tuple target, got %T", assign.Targets[0])
	}
	if _, ok := assign.Value.(*ast.TupleLit); !ok {
		t.Fatalf("expected tuple value, got %T", assign.Value)
	}
}

func TestParseListComprehension(t *testing.T) {
	mod := mustParse(t, "y = [x * 2 for x in xs if x > 0]\n")
	assign := mod.Body[0].(*ast.Assign)
	comp, ok := assign.Value.(*ast.Comprehension)
	if !ok {
		t.Fatalf("expected Comprehension, got %T", assign.Value)
	}
	if comp.Kind != ast.ComprehensionList || len(comp.Ifs) != 1 {
		t.Fatalf("unexpected comprehension shape: %+v", comp)
	}
}

func TestParseDictAndCall(t *testing.T) {
	mod := mustParse(t, "d = {\"x\": 1, \"y\": 2}\nf(1, 2, key=3)\n")
	assign := mod.Body[0].(*ast.Assign)
	dict, ok := assign.Value.(*ast.DictLit)
	if !ok || len(dict.Keys) != 2 {
		t.Fatalf("unexpected dict: %+v", assign.Value)
	}
	exprStmt := mod.Body[1].(*ast.ExprStmt)
	call, ok := exprStmt.X.(*ast.Call)
	if !ok || len(call.Args) != 2 || call.Keywords["key"] == nil {
		t.Fatalf("unexpected call: %+v", exprStmt.X)
	}
}

func TestParseAttributeAndSubscriptChain(t *testing.T) {
	mod := mustParse(t, "x = a.b[0].c\n")
	assign := mod.Body[0].(*ast.Assign)
	attr, ok := assign.Value.(*ast.Attribute)
	if !ok || attr.Name != "c" {
		t.Fatalf("unexpected chain tail: %+v", assign.Value)
	}
	sub, ok := attr.X.(*ast.Subscript)
	if !ok {
		t.Fatalf("expected subscript in chain, got %T", attr.X)
	}
	inner, ok := sub.X.(*ast.Attribute)
	if !ok || inner.Name != "b" {
		t.Fatalf("unexpected inner attribute: %+v", sub.X)
	}
}

func TestParseWhileBreakContinue(t *testing.T) {
	mod := mustParse(t, "while True:\n    if x:\n        break\n    continue\n")
	w, ok := mod.Body[0].(*ast.While)
	if !ok {
		t.Fatalf("expected While, got %T", mod.Body[0])
	}
	if len(w.Body) != 2 {
		t.Fatalf("expected if+continue in while body, got %d stmts", len(w.Body))
	}
}
