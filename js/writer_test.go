// writer_test.go
package js

import (
	"strings"
	"testing"
)

func wantExpr(t *testing.T, e Expr, want string) {
	t.Helper()
	got := WriteExpr(e)
	if got != want {
		t.Fatalf("\nwant: %s\ngot:  %s", want, got)
	}
}

func Test_Writer_IsIdent(t *testing.T) {
	for _, s := range []string{"x", "_x", "$", "abc123", "π"} {
		if !IsIdent(s) {
			t.Fatalf("IsIdent(%q) = false", s)
		}
	}
	for _, s := range []string{"", "1x", "a-b", "for", "var", "a b", "undefined"} {
		if IsIdent(s) {
			t.Fatalf("IsIdent(%q) = true", s)
		}
	}
}

func Test_Writer_Quote(t *testing.T) {
	if got := Quote(`a"b` + "\n"); got != `"a\"b\n"` {
		t.Fatalf("Quote: %s", got)
	}
}

func Test_Writer_Binary_Nesting(t *testing.T) {
	e := &Binary{
		Left:  &Binary{Left: &Ident{Name: "a"}, Op: "+", Right: &Ident{Name: "b"}},
		Op:    "*",
		Right: &Number{Value: "2"},
	}
	wantExpr(t, e, "(a + b) * 2")
}

func Test_Writer_Sequence_And_Call(t *testing.T) {
	e := &Call{
		Callee: &Binary{Left: &Number{Value: "0"}, Op: ",", Right: &Member{Obj: &Ident{Name: "o"}, Name: "f"}},
		Args:   []Expr{&Number{Value: "1"}, &Str{Value: "x"}},
	}
	wantExpr(t, e, `(0, o.f)(1, "x")`)
}

func Test_Writer_Member_Index(t *testing.T) {
	e := &Index{
		Obj: &Member{Obj: &Ident{Name: "window"}, Name: "console"},
		Key: &Str{Value: "log"},
	}
	wantExpr(t, e, `window.console["log"]`)
}

func Test_Writer_Conditional_Nested(t *testing.T) {
	e := &Binary{
		Left:  &Conditional{Cond: &Ident{Name: "c"}, Then: &Number{Value: "1"}, Else: &Number{Value: "2"}},
		Op:    "+",
		Right: &Number{Value: "3"},
	}
	wantExpr(t, e, "(c ? 1 : 2) + 3")
}

func Test_Writer_Func_Statement_Parenthesized(t *testing.T) {
	p := &Program{Body: []Stmt{
		&ExprStmt{Expr: &Func{Params: []string{"x"}, Body: []Stmt{
			&Return{Value: &Ident{Name: "x"}},
		}}},
	}}
	got := WriteProgram(p)
	want := "(function (x) {\n  return x;\n});\n"
	if got != want {
		t.Fatalf("\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func Test_Writer_Program_Statements(t *testing.T) {
	p := &Program{Body: []Stmt{
		&VarDecl{Name: "x", Init: &Number{Value: "1"}},
		&If{
			Cond: &Binary{Left: &Ident{Name: "x"}, Op: "<", Right: &Number{Value: "10"}},
			Then: []Stmt{&ExprStmt{Expr: &Assign{Target: &Ident{Name: "x"}, Value: &Number{Value: "10"}}}},
			Else: []Stmt{&Throw{Value: &Str{Value: "big"}}},
		},
		&ExprStmt{Expr: &Ident{Name: "x"}},
	}}
	got := WriteProgram(p)
	want := strings.Join([]string{
		"var x = 1;",
		"if (x < 10) {",
		"  x = 10;",
		"} else {",
		`  throw "big";`,
		"}",
		"x;",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func Test_Writer_For_And_ForIn(t *testing.T) {
	p := &Program{Body: []Stmt{
		&For{
			Name: "i",
			Init: &Number{Value: "0"},
			Cond: &Binary{Left: &Ident{Name: "i"}, Op: "<=", Right: &Number{Value: "9"}},
			Post: &Assign{Target: &Ident{Name: "i"}, Value: &Binary{Left: &Ident{Name: "i"}, Op: "+", Right: &Number{Value: "1"}}},
			Body: []Stmt{&ExprStmt{Expr: &Call{Callee: &Ident{Name: "f"}, Args: []Expr{&Ident{Name: "i"}}}}},
		},
		&ForIn{Name: "k", Obj: &Ident{Name: "o"}, Body: []Stmt{&Empty{}}},
	}}
	got := WriteProgram(p)
	want := strings.Join([]string{
		"for (var i = 0; i <= 9; i = i + 1) {",
		"  f(i);",
		"}",
		"for (var k in o) {",
		"  ;",
		"}",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func Test_Writer_Try(t *testing.T) {
	p := &Program{Body: []Stmt{
		&Try{
			Body:    []Stmt{&Throw{Value: &Number{Value: "1"}}},
			Param:   "e",
			Catch:   []Stmt{&ExprStmt{Expr: &Ident{Name: "e"}}},
			Finally: []Stmt{&ExprStmt{Expr: &Ident{Name: "done"}}},
		},
	}}
	got := WriteProgram(p)
	want := strings.Join([]string{
		"try {",
		"  throw 1;",
		"} catch (e) {",
		"  e;",
		"} finally {",
		"  done;",
		"}",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("\nwant:\n%s\ngot:\n%s", want, got)
	}
}
