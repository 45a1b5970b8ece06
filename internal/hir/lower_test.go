package hir

import (
	"testing"

	"github.com/adpena/molt/internal/parser"
)

func mustLower(t *testing.T, src string) *Module {
	t.Helper()
	mod, errs := parser.Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	l := NewLowerer("test")
	out := l.Lower(mod)
	if len(l.Errors()) > 0 {
		t.Fatalf("unexpected lowering errors: %v", l.Errors())
	}
	return out
}

func TestLowerForBecomesWhileWithIterAcquire(t *testing.T) {
	mod := mustLower(t, "for x in xs:\n    use(x)\n")
	if len(mod.Init) != 2 {
		t.Fatalf("expected acquire+while, got %d stmts", len(mod.Init))
	}
	acquire, ok := mod.Init[0].(*Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", mod.Init[0])
	}
	if _, ok := acquire.Value.(*IterAcquire); !ok {
		t.Fatalf("expected IterAcquire value, got %T", acquire.Value)
	}
	loop, ok := mod.Init[1].(*While)
	if !ok {
		t.Fatalf("expected While, got %T", mod.Init[1])
	}
	if len(loop.Body) < 5 {
		t.Fatalf("expected next+has+val+break-guard+bind+body, got %d stmts", len(loop.Body))
	}
}

func TestLowerWithBecomesTryFinally(t *testing.T) {
	mod := mustLower(t, "with open(\"f\") as f:\n    use(f)\n")
	var tf *TryFinally
	for _, s := range mod.Init {
		if t2, ok := s.(*TryFinally); ok {
			tf = t2
		}
	}
	if tf == nil {
		t.Fatalf("expected a TryFinally among lowered statements: %+v", mod.Init)
	}
	if len(tf.Finally) != 1 {
		t.Fatalf("expected one context.exit call in finally, got %d", len(tf.Finally))
	}
}

func TestLowerTupleAssignmentLinearizes(t *testing.T) {
	mod := mustLower(t, "a, b = b, a\n")
	if len(mod.Init) < 3 {
		t.Fatalf("expected tmp store + two element stores, got %d stmts", len(mod.Init))
	}
	first, ok := mod.Init[0].(*Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", mod.Init[0])
	}
	if _, ok := first.Value.(*MakeTuple); !ok {
		t.Fatalf("expected MakeTuple rhs, got %T", first.Value)
	}
}

func TestLowerListComprehensionProducesSyntheticClosure(t *testing.T) {
	mod := mustLower(t, "y = [x * 2 for x in xs if x > 0]\n")
	assign, ok := mod.Init[0].(*Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", mod.Init[0])
	}
	call, ok := assign.Value.(*Call)
	if !ok {
		t.Fatalf("expected Call invoking the synthetic closure, got %T", assign.Value)
	}
	closure, ok := call.Func.(*MakeClosure)
	if !ok {
		t.Fatalf("expected MakeClosure, got %T", call.Func)
	}
	if !closure.Func.Synthetic {
		t.Fatalf("expected synthesized FuncDef to be marked Synthetic")
	}
	found := false
	for _, fn := range mod.Funcs {
		if fn == closure.Func {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected synthetic FuncDef to be hoisted into Module.Funcs")
	}
}

func TestLowerLambdaCapturesFreeVariables(t *testing.T) {
	mod := mustLower(t, "f = lambda y: x + y\n")
	assign := mod.Init[0].(*Assign)
	closure, ok := assign.Value.(*MakeClosure)
	if !ok {
		t.Fatalf("expected MakeClosure, got %T", assign.Value)
	}
	found := false
	for _, name := range closure.Func.Captures {
		if name == "x" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected lambda to capture free variable x, got %v", closure.Func.Captures)
	}
	if len(closure.Func.Params) != 1 || closure.Func.Params[0] != "y" {
		t.Fatalf("unexpected lambda params: %v", closure.Func.Params)
	}
}

func TestLowerAugAssignExpandsToBinOp(t *testing.T) {
	mod := mustLower(t, "x += 1\n")
	assign, ok := mod.Init[0].(*Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", mod.Init[0])
	}
	bin, ok := assign.Value.(*BinOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected x = x + 1, got %+v", assign.Value)
	}
}

func TestLowerImportResolvesEagerly(t *testing.T) {
	mod := mustLower(t, "import collections as c\n")
	imp, ok := mod.Init[0].(*Import)
	if !ok {
		t.Fatalf("expected Import, got %T", mod.Init[0])
	}
	if imp.Module != "collections" || imp.Bind != "c" {
		t.Fatalf("unexpected import lowering: %+v", imp)
	}
}

func TestLowerFuncDefIsHoisted(t *testing.T) {
	mod := mustLower(t, "def add(a, b):\n    return a + b\n")
	if len(mod.Funcs) != 1 {
		t.Fatalf("expected one hoisted function, got %d", len(mod.Funcs))
	}
	if mod.Funcs[0].Name != "add" || len(mod.Funcs[0].Params) != 2 {
		t.Fatalf("unexpected lowered func: %+v", mod.Funcs[0])
	}
}
