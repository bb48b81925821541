package core

import (
	"fmt"
	"strings"
)

// Format renders an expression as an indented s-expression for
// diagnostics and REPL display. The output is stable for alpha-normalized
// input since identifiers print with their ordering token.
func Format(e Expr) string {
	var b strings.Builder
	f := formatter{b: &b}
	f.print(e)
	return b.String()
}

type formatter struct {
	b     *strings.Builder
	depth int
}

func (f *formatter) write(s string) { f.b.WriteString(s) }

func (f *formatter) pad() {
	for i := 0; i < f.depth; i++ {
		f.b.WriteString("  ")
	}
}

func (f *formatter) nl() { f.b.WriteString("\n"); f.pad() }

// form prints a head symbol followed by each part on its own line when
// any part is itself compound, otherwise on a single line.
func (f *formatter) form(head string, parts ...func()) {
	f.write("(" + head)
	f.depth++
	for _, p := range parts {
		f.nl()
		p()
	}
	f.depth--
	f.write(")")
}

func (f *formatter) atom(e Expr) func() { return func() { f.print(e) } }

func (f *formatter) print(e Expr) {
	switch n := e.(type) {
	case *Constant:
		f.write(n.Value.String())
	case *Var:
		f.write(n.Id.String())
	case *Global:
		if len(n.Path) == 0 {
			f.write("(global)")
		} else {
			f.write("(global " + strings.Join(n.Path, ".") + ")")
		}
	case *Runtime:
		f.write("(runtime)")
	case *Lambda:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.String()
		}
		head := "lambda (" + strings.Join(params, " ") + ")"
		if n.This != nil {
			head = "lambda [this " + n.This.String() + "] (" + strings.Join(params, " ") + ")"
		}
		f.form(head, f.atom(n.Body))
	case *Application:
		f.form("apply", f.exprParts(append([]Expr{n.Func}, n.Args...))...)
	case *Call:
		f.form("call", f.exprParts(append([]Expr{n.This, n.Func}, n.Args...))...)
	case *New:
		f.form("new", f.exprParts(append([]Expr{n.Ctor}, n.Args...))...)
	case *Let:
		f.form("let "+n.Id.String(), f.atom(n.Value), f.atom(n.Body))
	case *LetRecursive:
		parts := make([]func(), 0, len(n.Bindings)+1)
		for _, b := range n.Bindings {
			b := b
			parts = append(parts, func() { f.form(b.Id.String(), f.atom(b.Value)) })
		}
		parts = append(parts, f.atom(n.Body))
		f.form("letrec", parts...)
	case *VarSet:
		f.form("set "+n.Id.String(), f.atom(n.Value))
	case *IfThenElse:
		f.form("if", f.atom(n.Cond), f.atom(n.Then), f.atom(n.Else))
	case *Sequential:
		f.form("seq", f.atom(n.First), f.atom(n.Second))
	case *Binary:
		f.form(n.Op.String(), f.atom(n.Left), f.atom(n.Right))
	case *Unary:
		f.form(n.Op.String(), f.atom(n.Expr))
	case *FieldGet:
		f.form("get", f.atom(n.Obj), f.atom(n.Key))
	case *FieldSet:
		f.form("put", f.atom(n.Obj), f.atom(n.Key), f.atom(n.Value))
	case *FieldDelete:
		f.form("delete", f.atom(n.Obj), f.atom(n.Key))
	case *NewArray:
		f.form("array", f.exprParts(n.Elems)...)
	case *NewObject:
		parts := make([]func(), len(n.Fields))
		for i, fld := range n.Fields {
			fld := fld
			parts[i] = func() { f.form(fmt.Sprintf("%q", fld.Key), f.atom(fld.Value)) }
		}
		f.form("object", parts...)
	case *NewRegex:
		f.write("(regex " + n.Pattern + ")")
	case *WhileLoop:
		f.form("while", f.atom(n.Cond), f.atom(n.Body))
	case *ForEachField:
		f.form("for-field "+n.Id.String(), f.atom(n.Obj), f.atom(n.Body))
	case *ForIntegerRange:
		f.form("for-range "+n.Id.String(), f.atom(n.Lo), f.atom(n.Hi), f.atom(n.Body))
	case *Throw:
		f.form("throw", f.atom(n.Value))
	case *TryWith:
		f.form("try-with "+n.Id.String(), f.atom(n.Body), f.atom(n.Handler))
	case *TryFinally:
		f.form("try-finally", f.atom(n.Body), f.atom(n.Finalizer))
	default:
		f.write(fmt.Sprintf("(? %T)", e))
	}
}

func (f *formatter) exprParts(es []Expr) []func() {
	parts := make([]func(), len(es))
	for i, e := range es {
		e := e
		parts[i] = f.atom(e)
	}
	return parts
}
