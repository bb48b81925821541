// optimizer_test.go
package core

import "testing"

// countNodes walks e and counts nodes satisfying pred, looking through
// the normalized binder wrappers.
func countNodes(e Expr, pred func(Expr) bool) int {
	n := 0
	if pred(e) {
		n++
	}
	for _, c := range Children(e) {
		n += countNodes(c, pred)
	}
	return n
}

func selfCalls(e Expr, fn *Id) int {
	return countNodes(e, func(x Expr) bool {
		app, ok := x.(*Application)
		if !ok {
			return false
		}
		v, ok := app.Func.(*Var)
		return ok && v.Id == fn
	})
}

func Test_Optimize_Constant_Folding(t *testing.T) {
	e := &Binary{
		Left:  Integer(1).Expr(),
		Op:    BinaryAdd,
		Right: &Binary{Left: Integer(2).Expr(), Op: BinaryMultiply, Right: Integer(3).Expr()},
	}
	out := Optimize(e)
	if !AlphaEqual(out, Integer(7).Expr()) {
		t.Fatalf("got %s", Format(out))
	}
}

func Test_Optimize_String_And_Bool_Folding(t *testing.T) {
	concat := &Binary{Left: String("a").Expr(), Op: BinaryAdd, Right: String("b").Expr()}
	if out := Optimize(concat); !AlphaEqual(out, String("ab").Expr()) {
		t.Fatalf("concat: %s", Format(out))
	}
	not := &Unary{Op: UnaryNot, Expr: Bool(false).Expr()}
	if out := Optimize(not); !AlphaEqual(out, Bool(true).Expr()) {
		t.Fatalf("not: %s", Format(out))
	}
}

func Test_Optimize_Leaves_Coercing_Operators(t *testing.T) {
	div := &Binary{Left: Integer(1).Expr(), Op: BinaryDivide, Right: Integer(2).Expr()}
	if out := Optimize(div); !AlphaEqual(out, div) {
		t.Fatalf("division folded: %s", Format(out))
	}
	mixed := &Binary{Left: Integer(1).Expr(), Op: BinaryAdd, Right: String("x").Expr()}
	if out := Optimize(mixed); !AlphaEqual(out, mixed) {
		t.Fatalf("mixed-kind folded: %s", Format(out))
	}
}

func Test_Optimize_Dead_Branches(t *testing.T) {
	marker := &Global{Path: []string{"sideEffect"}}
	e := &IfThenElse{Cond: Bool(true).Expr(), Then: Integer(1).Expr(), Else: marker}
	if out := Optimize(e); !AlphaEqual(out, Integer(1).Expr()) {
		t.Fatalf("true branch: %s", Format(out))
	}
	e2 := &IfThenElse{Cond: Bool(false).Expr(), Then: marker, Else: Integer(2).Expr()}
	if out := Optimize(e2); !AlphaEqual(out, Integer(2).Expr()) {
		t.Fatalf("false branch: %s", Format(out))
	}
	// A folded comparison feeds branch elimination bottom-up.
	e3 := &IfThenElse{
		Cond: &Binary{Left: Integer(3).Expr(), Op: BinaryLess, Right: Integer(4).Expr()},
		Then: String("yes").Expr(),
		Else: String("no").Expr(),
	}
	if out := Optimize(e3); !AlphaEqual(out, String("yes").Expr()) {
		t.Fatalf("folded condition: %s", Format(out))
	}
}

func Test_Optimize_Discards_Pure_Values(t *testing.T) {
	e := &Sequential{First: Integer(1).Expr(), Second: Integer(2).Expr()}
	if out := Optimize(e); !AlphaEqual(out, Integer(2).Expr()) {
		t.Fatalf("pure first kept: %s", Format(out))
	}
	call := &Application{Func: &Global{Path: []string{"f"}}, Args: nil}
	e2 := &Sequential{First: call, Second: Integer(2).Expr()}
	if out := Optimize(e2); !AlphaEqual(out, e2) {
		t.Fatalf("effectful first dropped: %s", Format(out))
	}
}

func Test_Optimize_Collapses_Trivial_Lets(t *testing.T) {
	x := NewIdNamed("x")
	e := &Let{Id: x, Value: &Global{Path: []string{"v"}}, Body: &Var{Id: x}}
	if out := Optimize(e); !AlphaEqual(out, &Global{Path: []string{"v"}}) {
		t.Fatalf("let of var: %s", Format(out))
	}
	y := NewIdNamed("y")
	e2 := &Let{Id: y, Value: Integer(1).Expr(), Body: Integer(2).Expr()}
	if out := Optimize(e2); !AlphaEqual(out, Integer(2).Expr()) {
		t.Fatalf("unused pure let: %s", Format(out))
	}
	// An effectful value pins the binding even when unused.
	z := NewIdNamed("z")
	e3 := &Let{Id: z, Value: &Application{Func: &Global{Path: []string{"f"}}}, Body: Integer(2).Expr()}
	if out := Optimize(e3); !AlphaEqual(out, e3) {
		t.Fatalf("effectful let dropped: %s", Format(out))
	}
}

// factorial builds letrec fact n acc = n <= 1 ? acc : fact(n-1, n*acc)
// applied to (n, 1).
func factorial(n int64) (Expr, *Id) {
	fact := NewIdNamed("fact")
	p := NewIdNamed("n")
	acc := NewIdNamed("acc")
	body := &IfThenElse{
		Cond: &Binary{Left: &Var{Id: p}, Op: BinaryLessOrEqual, Right: Integer(1).Expr()},
		Then: &Var{Id: acc},
		Else: &Application{Func: &Var{Id: fact}, Args: []Expr{
			&Binary{Left: &Var{Id: p}, Op: BinarySubtract, Right: Integer(1).Expr()},
			&Binary{Left: &Var{Id: p}, Op: BinaryMultiply, Right: &Var{Id: acc}},
		}},
	}
	e := &LetRecursive{
		Bindings: []Binding{{Id: fact, Value: &Lambda{Params: []*Id{p, acc}, Body: body}}},
		Body:     &Application{Func: &Var{Id: fact}, Args: []Expr{Integer(n).Expr(), Integer(1).Expr()}},
	}
	return e, fact
}

func Test_Optimize_TailCall_Becomes_Loop(t *testing.T) {
	e, _ := factorial(5)
	out := Optimize(e)
	lr, ok := out.(*LetRecursive)
	if !ok {
		t.Fatalf("letrec gone: %s", Format(out))
	}
	fn := lr.Bindings[0].Id
	if got := selfCalls(lr.Bindings[0].Value, fn); got != 0 {
		t.Fatalf("%d residual self-calls:\n%s", got, Format(out))
	}
	if got := countNodes(lr.Bindings[0].Value, func(x Expr) bool { _, ok := x.(*WhileLoop); return ok }); got != 1 {
		t.Fatalf("want one loop, got %d:\n%s", got, Format(out))
	}
	if v := evalExpr(t, out); v != int64(120) {
		t.Fatalf("loop form evaluates to %v", v)
	}
	if v := evalExpr(t, e); v != int64(120) {
		t.Fatalf("source form evaluates to %v", v)
	}
}

func Test_Optimize_TailCall_Idempotent(t *testing.T) {
	e, _ := factorial(6)
	once := Optimize(e)
	twice := Optimize(once)
	if !AlphaEqual(once, twice) {
		t.Fatalf("not idempotent:\n%s\nvs\n%s", Format(once), Format(twice))
	}
	if v := evalExpr(t, twice); v != int64(720) {
		t.Fatalf("evaluates to %v", v)
	}
}

func Test_Optimize_NonTail_Recursion_Untouched(t *testing.T) {
	fact := NewIdNamed("fact")
	p := NewIdNamed("n")
	// fact n = n <= 1 ? 1 : n * fact(n-1): the self-call is an operand.
	body := &IfThenElse{
		Cond: &Binary{Left: &Var{Id: p}, Op: BinaryLessOrEqual, Right: Integer(1).Expr()},
		Then: Integer(1).Expr(),
		Else: &Binary{
			Left: &Var{Id: p},
			Op:   BinaryMultiply,
			Right: &Application{Func: &Var{Id: fact}, Args: []Expr{
				&Binary{Left: &Var{Id: p}, Op: BinarySubtract, Right: Integer(1).Expr()},
			}},
		},
	}
	e := &LetRecursive{
		Bindings: []Binding{{Id: fact, Value: &Lambda{Params: []*Id{p}, Body: body}}},
		Body:     &Application{Func: &Var{Id: fact}, Args: []Expr{Integer(5).Expr()}},
	}
	out := Optimize(e)
	lr, ok := out.(*LetRecursive)
	if !ok {
		t.Fatalf("letrec gone: %s", Format(out))
	}
	if got := selfCalls(lr.Bindings[0].Value, lr.Bindings[0].Id); got != 1 {
		t.Fatalf("non-tail recursion rewritten (%d self-calls):\n%s", got, Format(out))
	}
	if v := evalExpr(t, out); v != int64(120) {
		t.Fatalf("evaluates to %v", v)
	}
}

func Test_Optimize_Escaping_Reference_Untouched(t *testing.T) {
	f := NewIdNamed("f")
	p := NewIdNamed("n")
	// The binding passes itself to a foreign function: no rewrite.
	body := &Application{Func: &Global{Path: []string{"g"}}, Args: []Expr{&Var{Id: f}, &Var{Id: p}}}
	e := &LetRecursive{
		Bindings: []Binding{{Id: f, Value: &Lambda{Params: []*Id{p}, Body: body}}},
		Body:     &Var{Id: f},
	}
	out := Optimize(e)
	lr, ok := out.(*LetRecursive)
	if !ok {
		t.Fatalf("letrec gone: %s", Format(out))
	}
	if got := countNodes(lr.Bindings[0].Value, func(x Expr) bool { _, ok := x.(*WhileLoop); return ok }); got != 0 {
		t.Fatalf("escaping reference rewritten:\n%s", Format(out))
	}
}

func Test_Optimize_Result_Is_AlphaNormalized(t *testing.T) {
	x := NewIdNamed("x")
	dup := &Sequential{
		First:  &Application{Func: lam(x, &Var{Id: x}), Args: []Expr{Integer(1).Expr()}},
		Second: &Application{Func: lam(x, &Var{Id: x}), Args: []Expr{Integer(2).Expr()}},
	}
	if !IsAlphaNormalized(Optimize(dup)) {
		t.Fatal("optimizer output should be alpha-normalized")
	}
}

func Test_Optimize_TailCall_Swapped_Params(t *testing.T) {
	// swap a b = a == 0 ? b : swap(b, a - 1) needs temporaries so the
	// writes do not observe each other.
	fn := NewIdNamed("swap")
	a := NewIdNamed("a")
	b := NewIdNamed("b")
	body := &IfThenElse{
		Cond: &Binary{Left: &Var{Id: a}, Op: BinaryEqualsStrict, Right: Integer(0).Expr()},
		Then: &Var{Id: b},
		Else: &Application{Func: &Var{Id: fn}, Args: []Expr{
			&Var{Id: b},
			&Binary{Left: &Var{Id: a}, Op: BinarySubtract, Right: Integer(1).Expr()},
		}},
	}
	e := &LetRecursive{
		Bindings: []Binding{{Id: fn, Value: &Lambda{Params: []*Id{a, b}, Body: body}}},
		Body:     &Application{Func: &Var{Id: fn}, Args: []Expr{Integer(3).Expr(), Integer(10).Expr()}},
	}
	want := evalExpr(t, e)
	out := Optimize(e)
	if got := evalExpr(t, out); got != want {
		t.Fatalf("loop form %v, source form %v\n%s", got, want, Format(out))
	}
}

func Test_Optimize_TailCall_Assigned_Param(t *testing.T) {
	// count m acc = m <= 0 ? acc : (m = m - 1, count(m, acc + 1))
	// writes to its own parameter; the loop rewrite must rename the
	// write along with the reads or the old parameter leaks out free.
	fn := NewIdNamed("count")
	m := NewMutableId("m")
	acc := NewIdNamed("acc")
	body := &IfThenElse{
		Cond: &Binary{Left: &Var{Id: m}, Op: BinaryLessOrEqual, Right: Integer(0).Expr()},
		Then: &Var{Id: acc},
		Else: &Sequential{
			First: &VarSet{Id: m, Value: &Binary{Left: &Var{Id: m}, Op: BinarySubtract, Right: Integer(1).Expr()}},
			Second: &Application{Func: &Var{Id: fn}, Args: []Expr{
				&Var{Id: m},
				&Binary{Left: &Var{Id: acc}, Op: BinaryAdd, Right: Integer(1).Expr()},
			}},
		},
	}
	e := &LetRecursive{
		Bindings: []Binding{{Id: fn, Value: &Lambda{Params: []*Id{m, acc}, Body: body}}},
		Body:     &Application{Func: &Var{Id: fn}, Args: []Expr{Integer(5).Expr(), Integer(0).Expr()}},
	}
	if !IsGround(e) {
		t.Fatal("source tree is not ground")
	}
	want := evalExpr(t, e)
	out := Optimize(e)
	if free := GetFreeIds(out); free.Len() != 0 {
		t.Fatalf("rewrite freed identifiers %v:\n%s", free.Ids(), Format(out))
	}
	if got := evalExpr(t, out); got != want {
		t.Fatalf("loop form %v, source form %v\n%s", got, want, Format(out))
	}
}
