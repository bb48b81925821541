package js

import (
	"fmt"
	"strings"
	"unicode"
)

/* ---------- small writer with indentation ---------- */

type writer struct {
	b     strings.Builder
	depth int
}

func (w *writer) write(s string) { w.b.WriteString(s) }
func (w *writer) nl()            { w.b.WriteByte('\n') }
func (w *writer) pad() {
	for i := 0; i < w.depth; i++ {
		w.b.WriteString("  ")
	}
}
func (w *writer) withIndent(fn func()) { w.depth++; fn(); w.depth-- }

// IsIdent reports whether s is a plain identifier (and so may appear
// after a dot or as an unquoted object key).
func IsIdent(s string) bool {
	if s == "" || Reserved(s) {
		return false
	}
	rs := []rune(s)
	if !(unicode.IsLetter(rs[0]) || rs[0] == '_' || rs[0] == '$') {
		return false
	}
	for _, r := range rs[1:] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$') {
			return false
		}
	}
	return true
}

// Quote renders s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// WriteProgram renders a program as source text.
func WriteProgram(p *Program) string {
	w := &writer{}
	for _, s := range p.Body {
		w.stmt(s)
	}
	return w.b.String()
}

// WriteExpr renders a single expression as source text.
func WriteExpr(e Expr) string {
	w := &writer{}
	w.expr(e, false)
	return w.b.String()
}

/* ---------- statements ---------- */

func (w *writer) stmts(body []Stmt) {
	for _, s := range body {
		w.stmt(s)
	}
}

func (w *writer) block(body []Stmt) {
	w.write("{")
	w.nl()
	w.withIndent(func() { w.stmts(body) })
	w.pad()
	w.write("}")
}

func (w *writer) stmt(s Stmt) {
	switch n := s.(type) {
	case *ExprStmt:
		w.pad()
		// A leading "function" or "{" would be parsed as a declaration
		// or block; parenthesize to keep it an expression statement.
		switch n.Expr.(type) {
		case *Func, *Object:
			w.write("(")
			w.expr(n.Expr, false)
			w.write(")")
		default:
			w.expr(n.Expr, false)
		}
		w.write(";")
		w.nl()
	case *VarDecl:
		w.pad()
		w.write("var " + n.Name)
		if n.Init != nil {
			w.write(" = ")
			w.expr(n.Init, false)
		}
		w.write(";")
		w.nl()
	case *Return:
		w.pad()
		if n.Value == nil {
			w.write("return;")
		} else {
			w.write("return ")
			w.expr(n.Value, false)
			w.write(";")
		}
		w.nl()
	case *If:
		w.pad()
		w.write("if (")
		w.expr(n.Cond, false)
		w.write(") ")
		w.block(n.Then)
		if len(n.Else) > 0 {
			w.write(" else ")
			w.block(n.Else)
		}
		w.nl()
	case *While:
		w.pad()
		w.write("while (")
		w.expr(n.Cond, false)
		w.write(") ")
		w.block(n.Body)
		w.nl()
	case *For:
		w.pad()
		w.write("for (var " + n.Name + " = ")
		w.expr(n.Init, false)
		w.write("; ")
		w.expr(n.Cond, false)
		w.write("; ")
		w.expr(n.Post, false)
		w.write(") ")
		w.block(n.Body)
		w.nl()
	case *ForIn:
		w.pad()
		w.write("for (var " + n.Name + " in ")
		w.expr(n.Obj, false)
		w.write(") ")
		w.block(n.Body)
		w.nl()
	case *Block:
		w.pad()
		w.block(n.Body)
		w.nl()
	case *Throw:
		w.pad()
		w.write("throw ")
		w.expr(n.Value, false)
		w.write(";")
		w.nl()
	case *Try:
		w.pad()
		w.write("try ")
		w.block(n.Body)
		if n.Param != "" {
			w.write(" catch (" + n.Param + ") ")
			w.block(n.Catch)
		}
		if len(n.Finally) > 0 {
			w.write(" finally ")
			w.block(n.Finally)
		}
		w.nl()
	case *Empty:
		w.pad()
		w.write(";")
		w.nl()
	default:
		panic(fmt.Sprintf("js: unknown statement %T", s))
	}
}

/* ---------- expressions ---------- */

// expr renders e; nested guards with parentheses wherever precedence
// could be ambiguous. The renderer is deliberately conservative: extra
// parentheses are cheaper than a precedence table that must match the
// whole grammar.
func (w *writer) expr(e Expr, nested bool) {
	switch n := e.(type) {
	case *This:
		w.write("this")
	case *Ident:
		w.write(n.Name)
	case *Number:
		w.write(n.Value)
	case *Str:
		w.write(Quote(n.Value))
	case *Bool:
		if n.Value {
			w.write("true")
		} else {
			w.write("false")
		}
	case *Null:
		w.write("null")
	case *Unary:
		if nested {
			w.write("(")
		}
		w.write(n.Op)
		if len(n.Op) > 1 {
			w.write(" ")
		}
		w.expr(n.Expr, true)
		if nested {
			w.write(")")
		}
	case *Binary:
		if nested {
			w.write("(")
		}
		w.expr(n.Left, true)
		if n.Op == "," {
			w.write(", ")
		} else {
			w.write(" " + n.Op + " ")
		}
		w.expr(n.Right, true)
		if nested {
			w.write(")")
		}
	case *Conditional:
		if nested {
			w.write("(")
		}
		w.expr(n.Cond, true)
		w.write(" ? ")
		w.expr(n.Then, true)
		w.write(" : ")
		w.expr(n.Else, true)
		if nested {
			w.write(")")
		}
	case *Assign:
		if nested {
			w.write("(")
		}
		w.expr(n.Target, true)
		w.write(" = ")
		w.expr(n.Value, true)
		if nested {
			w.write(")")
		}
	case *Member:
		w.expr(n.Obj, true)
		w.write("." + n.Name)
	case *Index:
		w.expr(n.Obj, true)
		w.write("[")
		w.expr(n.Key, false)
		w.write("]")
	case *Call:
		w.expr(n.Callee, true)
		w.args(n.Args)
	case *New:
		w.write("new ")
		w.expr(n.Ctor, true)
		w.args(n.Args)
	case *Func:
		if nested {
			w.write("(")
		}
		w.write("function ")
		if n.Name != "" {
			w.write(n.Name)
		}
		w.write("(" + strings.Join(n.Params, ", ") + ") ")
		w.block(n.Body)
		if nested {
			w.write(")")
		}
	case *Array:
		w.write("[")
		for i, el := range n.Elems {
			if i > 0 {
				w.write(", ")
			}
			w.expr(el, true)
		}
		w.write("]")
	case *Object:
		w.write("{")
		for i, p := range n.Props {
			if i > 0 {
				w.write(", ")
			}
			if IsIdent(p.Key) {
				w.write(p.Key)
			} else {
				w.write(Quote(p.Key))
			}
			w.write(": ")
			w.expr(p.Value, true)
		}
		w.write("}")
	case *Regex:
		w.write(n.Pattern)
	default:
		panic(fmt.Sprintf("js: unknown expression %T", e))
	}
}

func (w *writer) args(args []Expr) {
	w.write("(")
	for i, a := range args {
		if i > 0 {
			w.write(", ")
		}
		w.expr(a, true)
	}
	w.write(")")
}
