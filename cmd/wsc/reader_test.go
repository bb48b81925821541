// reader_test.go
package main

import (
	"testing"

	"github.com/jeroldhaas/websharper/core"
	"github.com/jeroldhaas/websharper/js"
)

func read(t *testing.T, src string) core.Expr {
	t.Helper()
	e, err := readExpr(src)
	if err != nil {
		t.Fatalf("readExpr(%q): %v", src, err)
	}
	return e
}

func compiled(t *testing.T, src string) string {
	t.Helper()
	p := &pipeline{optimize: true}
	out, err := p.run(read(t, src))
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return out
}

func Test_Reader_Atoms(t *testing.T) {
	cases := map[string]core.Expr{
		"42":        core.Integer(42).Expr(),
		"-7":        core.Integer(-7).Expr(),
		"2.5":       core.Double(2.5).Expr(),
		"true":      core.Bool(true).Expr(),
		"false":     core.Bool(false).Expr(),
		"null":      core.Null.Expr(),
		"undefined": core.Undefined.Expr(),
		`"a\"b"`:    core.String(`a"b`).Expr(),
		"alert":     &core.Global{Path: []string{"alert"}},
	}
	for src, want := range cases {
		if got := read(t, src); !core.AlphaEqual(got, want) {
			t.Fatalf("%q read as %s", src, core.Format(got))
		}
	}
}

func Test_Reader_Let_Binds_Lexically(t *testing.T) {
	e := read(t, "(let x 1 (+ x x))")
	let, ok := e.(*core.Let)
	if !ok {
		t.Fatalf("got %s", core.Format(e))
	}
	sum := let.Body.(*core.Binary)
	if sum.Left.(*core.Var).Id != let.Id || sum.Right.(*core.Var).Id != let.Id {
		t.Fatalf("occurrences not bound: %s", core.Format(e))
	}
}

func Test_Reader_Lambda_And_This(t *testing.T) {
	e := read(t, "(lambda [this self] (x) (get self x))")
	lam, ok := e.(*core.Lambda)
	if !ok || lam.This == nil || len(lam.Params) != 1 {
		t.Fatalf("got %s", core.Format(e))
	}
	get := lam.Body.(*core.FieldGet)
	if get.Obj.(*core.Var).Id != lam.This {
		t.Fatalf("this occurrence unbound: %s", core.Format(e))
	}
}

func Test_Reader_Letrec_Siblings_In_Scope(t *testing.T) {
	e := read(t, "(letrec (f (lambda (n) (apply g n))) (g (lambda (n) n)) (apply f 1))")
	lr, ok := e.(*core.LetRecursive)
	if !ok || len(lr.Bindings) != 2 {
		t.Fatalf("got %s", core.Format(e))
	}
	inner := lr.Bindings[0].Value.(*core.Lambda).Body.(*core.Application)
	if inner.Func.(*core.Var).Id != lr.Bindings[1].Id {
		t.Fatalf("forward reference unbound: %s", core.Format(e))
	}
}

func Test_Reader_Operators(t *testing.T) {
	if e := read(t, "(- 5)"); !core.AlphaEqual(e, &core.Unary{Op: core.UnaryNegate, Expr: core.Integer(5).Expr()}) {
		t.Fatalf("unary minus: %s", core.Format(e))
	}
	want := &core.Binary{Left: core.Integer(5).Expr(), Op: core.BinarySubtract, Right: core.Integer(2).Expr()}
	if e := read(t, "(- 5 2)"); !core.AlphaEqual(e, want) {
		t.Fatalf("binary minus: %s", core.Format(e))
	}
	if _, err := readExpr("(?? 1 2)"); err == nil {
		t.Fatal("unknown operator accepted")
	}
}

func Test_Reader_Strips_Ordering_Suffix(t *testing.T) {
	e := read(t, "(let x#12 1 x#12)")
	let := e.(*core.Let)
	if let.Id.Name() != "x" {
		t.Fatalf("suffix kept: %q", let.Id.Name())
	}
	if let.Body.(*core.Var).Id != let.Id {
		t.Fatal("suffixed occurrence unbound")
	}
}

func Test_Reader_Incomplete_Input(t *testing.T) {
	_, err := readExpr("(let x 1")
	if err == nil || !isIncomplete(err) {
		t.Fatalf("want incomplete, got %v", err)
	}
	_, err = readExpr(`"unterminated`)
	if err == nil || !isIncomplete(err) {
		t.Fatalf("want incomplete string, got %v", err)
	}
	_, err = readExpr("(+ 1 2) 3")
	if err == nil || isIncomplete(err) {
		t.Fatalf("trailing input: %v", err)
	}
}

func Test_Reader_Comments_And_Whitespace(t *testing.T) {
	e := read(t, "; a comment\n(+ 1 ; inline\n 2)")
	if !core.AlphaEqual(e, &core.Binary{Left: core.Integer(1).Expr(), Op: core.BinaryAdd, Right: core.Integer(2).Expr()}) {
		t.Fatalf("got %s", core.Format(e))
	}
}

func Test_Pipeline_Compiles_To_JavaScript(t *testing.T) {
	got := compiled(t, `(apply (global console.log) (+ 1 2))`)
	want := "(0, window.console.log)(3);\n"
	if got != want {
		t.Fatalf("\nwant: %q\ngot:  %q", want, got)
	}
}

func Test_Pipeline_Optimizes_Tail_Recursion(t *testing.T) {
	src := `(letrec
  (loop (lambda (n acc)
    (if (<= n 0) acc (apply loop (- n 1) (+ acc n)))))
  (apply loop 10 0))`
	p := &pipeline{optimize: true}
	out, err := p.run(read(t, src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, frag := range []string{"while (", "= function (n, acc)"} {
		if countOccurrences(out, frag) == 0 {
			t.Fatalf("output missing %q:\n%s", frag, out)
		}
	}
	// The only call of loop left is the one in the group body.
	if countOccurrences(out, "loop(") != 1 {
		t.Fatalf("self-call not eliminated:\n%s", out)
	}
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func Test_Reader_Object_And_Array(t *testing.T) {
	e := read(t, `(object ("a" 1) ("b c" (array 1 2)))`)
	obj, ok := e.(*core.NewObject)
	if !ok || len(obj.Fields) != 2 || obj.Fields[1].Key != "b c" {
		t.Fatalf("got %s", core.Format(e))
	}
	x, err := core.ToExpression(core.Options{}, e)
	if err != nil {
		t.Fatalf("ToExpression: %v", err)
	}
	if got := js.WriteExpr(x); got != `{a: 1, "b c": [1, 2]}` {
		t.Fatalf("got %s", got)
	}
}
