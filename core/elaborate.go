// elaborate.go: lowering IR trees to output-language syntax.
//
// Every bound identifier receives a concrete output name that collides
// with no simultaneously-visible binding, no reserved word, and neither
// configured root name. Binder forms lower to native statements inside
// function bodies and to immediately invoked function expressions in
// expression position; evaluation order always follows the traversal
// order of Fold.
package core

import (
	"strconv"
	"strings"

	"github.com/jeroldhaas/websharper/js"
)

// Naming selects how bound identifiers are rendered.
type Naming int

const (
	// Readable preserves name hints where unambiguous.
	Readable Naming = iota
	// Compact mints minimal fresh names and ignores hints.
	Compact
)

// Options parameterizes elaboration. The zero value is usable: readable
// naming, the global object bound to "window" and the runtime support
// object bound to "Runtime".
type Options struct {
	Naming  Naming
	Global  string
	Runtime string
}

func (o Options) globalName() string {
	if o.Global == "" {
		return "window"
	}
	return o.Global
}

func (o Options) runtimeName() string {
	if o.Runtime == "" {
		return "Runtime"
	}
	return o.Runtime
}

// ToProgram lowers e to a program whose final statement evaluates e's
// value. It fails on malformed trees: a free identifier, or a var-set on
// an immutable identifier.
func ToProgram(opts Options, e Expr) (p *js.Program, err error) {
	defer catchElab(&err)
	el := newElaborator(opts)
	return &js.Program{Body: el.stmts(e, false)}, nil
}

// ToExpression lowers e to a single output expression.
func ToExpression(opts Options, e Expr) (x js.Expr, err error) {
	defer catchElab(&err)
	el := newElaborator(opts)
	return el.expr(e), nil
}

func catchElab(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(*ElabError); ok {
			*err = e
			return
		}
		panic(r)
	}
}

type elaborator struct {
	opts   Options
	names  []map[*Id]string
	taken  []map[string]bool
	tick   int
}

func newElaborator(opts Options) *elaborator {
	el := &elaborator{opts: opts}
	el.push()
	return el
}

func (el *elaborator) push() {
	el.names = append(el.names, map[*Id]string{})
	el.taken = append(el.taken, map[string]bool{})
}

func (el *elaborator) pop() {
	el.names = el.names[:len(el.names)-1]
	el.taken = el.taken[:len(el.taken)-1]
}

func (el *elaborator) available(name string) bool {
	if js.Reserved(name) || name == el.opts.globalName() || name == el.opts.runtimeName() {
		return false
	}
	for _, t := range el.taken {
		if t[name] {
			return false
		}
	}
	return true
}

// bind assigns a concrete name to a binder in the current function scope.
func (el *elaborator) bind(id *Id) string {
	var name string
	if el.opts.Naming == Compact {
		for {
			name = compactName(el.tick)
			el.tick++
			if el.available(name) {
				break
			}
		}
	} else {
		base := sanitizeHint(id.Name())
		name = base
		for i := 1; !el.available(name); i++ {
			name = base + "$" + strconv.Itoa(i)
		}
	}
	el.names[len(el.names)-1][id] = name
	el.taken[len(el.taken)-1][name] = true
	return name
}

func (el *elaborator) lookup(id *Id) string {
	for i := len(el.names) - 1; i >= 0; i-- {
		if name, ok := el.names[i][id]; ok {
			return name
		}
	}
	elabFail("free identifier %s has no binding", id)
	return ""
}

func compactName(i int) string {
	name := ""
	for {
		name = string(rune('a'+i%26)) + name
		i = i/26 - 1
		if i < 0 {
			return name
		}
	}
}

func sanitizeHint(hint string) string {
	var b strings.Builder
	for _, r := range hint {
		switch {
		case r == '_' || r == '$',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}

/* ---------- statement lowering ---------- */

// stmts lowers e into function-body statements. With ret set the value of
// e is returned; otherwise the last statement evaluates it for effect.
func (el *elaborator) stmts(e Expr, ret bool) []js.Stmt {
	switch n := e.(type) {
	case *Let:
		init := el.expr(n.Value)
		name := el.bind(n.Id)
		out := []js.Stmt{&js.VarDecl{Name: name, Init: init}}
		return append(out, el.stmts(n.Body, ret)...)
	case *LetRecursive:
		names := make([]string, len(n.Bindings))
		for i, b := range n.Bindings {
			names[i] = el.bind(b.Id)
		}
		out := make([]js.Stmt, 0, len(n.Bindings)+1)
		for i, b := range n.Bindings {
			out = append(out, &js.VarDecl{Name: names[i], Init: el.expr(b.Value)})
		}
		return append(out, el.stmts(n.Body, ret)...)
	case *Sequential:
		out := el.stmts(n.First, false)
		return append(out, el.stmts(n.Second, ret)...)
	case *IfThenElse:
		return []js.Stmt{&js.If{
			Cond: el.expr(n.Cond),
			Then: el.stmts(n.Then, ret),
			Else: el.stmts(n.Else, ret),
		}}
	case *WhileLoop:
		out := []js.Stmt{&js.While{Cond: el.expr(n.Cond), Body: el.stmts(n.Body, false)}}
		return el.finishVoid(out, ret)
	case *ForIntegerRange:
		lo, hi := el.expr(n.Lo), el.expr(n.Hi)
		name := el.bind(n.Id)
		loop := &js.For{
			Name: name,
			Init: lo,
			Cond: &js.Binary{Left: &js.Ident{Name: name}, Op: "<=", Right: hi},
			Post: &js.Assign{
				Target: &js.Ident{Name: name},
				Value:  &js.Binary{Left: &js.Ident{Name: name}, Op: "+", Right: &js.Number{Value: "1"}},
			},
			Body: el.stmts(n.Body, false),
		}
		return el.finishVoid([]js.Stmt{loop}, ret)
	case *ForEachField:
		obj := el.expr(n.Obj)
		name := el.bind(n.Id)
		loop := &js.ForIn{Name: name, Obj: obj, Body: el.stmts(n.Body, false)}
		return el.finishVoid([]js.Stmt{loop}, ret)
	case *TryWith:
		body := el.stmts(n.Body, ret)
		param := el.bind(n.Id)
		return []js.Stmt{&js.Try{Body: body, Param: param, Catch: el.stmts(n.Handler, ret)}}
	case *TryFinally:
		return []js.Stmt{&js.Try{Body: el.stmts(n.Body, ret), Finally: el.stmts(n.Finalizer, false)}}
	case *Throw:
		return []js.Stmt{&js.Throw{Value: el.expr(n.Value)}}
	default:
		x := el.expr(e)
		if ret {
			return []js.Stmt{&js.Return{Value: x}}
		}
		return []js.Stmt{&js.ExprStmt{Expr: x}}
	}
}

func (el *elaborator) finishVoid(out []js.Stmt, ret bool) []js.Stmt {
	if ret {
		return append(out, &js.Return{Value: &js.Ident{Name: "undefined"}})
	}
	return out
}

/* ---------- expression lowering ---------- */

func (el *elaborator) expr(e Expr) js.Expr {
	switch n := e.(type) {
	case *Constant:
		return literalExpr(n.Value)
	case *Var:
		return &js.Ident{Name: el.lookup(n.Id)}
	case *VarSet:
		if !n.Id.Mutable() {
			elabFail("var-set on immutable identifier %s", n.Id)
		}
		return &js.Assign{Target: &js.Ident{Name: el.lookup(n.Id)}, Value: el.expr(n.Value)}
	case *Global:
		var out js.Expr = &js.Ident{Name: el.opts.globalName()}
		for _, seg := range n.Path {
			if js.IsIdent(seg) {
				out = &js.Member{Obj: out, Name: seg}
			} else {
				out = &js.Index{Obj: out, Key: &js.Str{Value: seg}}
			}
		}
		return out
	case *Runtime:
		return &js.Ident{Name: el.opts.runtimeName()}
	case *Application:
		callee := el.expr(n.Func)
		switch callee.(type) {
		case *js.Member, *js.Index:
			// A member callee would pass the object as the receiver;
			// sequence it to keep a plain call.
			callee = &js.Binary{Left: &js.Number{Value: "0"}, Op: ",", Right: callee}
		}
		return &js.Call{Callee: callee, Args: el.exprs(n.Args)}
	case *Call:
		obj := el.expr(n.This)
		return &js.Call{Callee: el.member(obj, n.Func), Args: el.exprs(n.Args)}
	case *Binary:
		return &js.Binary{Left: el.expr(n.Left), Op: n.Op.String(), Right: el.expr(n.Right)}
	case *Unary:
		return &js.Unary{Op: n.Op.String(), Expr: el.expr(n.Expr)}
	case *FieldGet:
		return el.member(el.expr(n.Obj), n.Key)
	case *FieldSet:
		return &js.Assign{Target: el.member(el.expr(n.Obj), n.Key), Value: el.expr(n.Value)}
	case *FieldDelete:
		return &js.Unary{Op: "delete", Expr: el.member(el.expr(n.Obj), n.Key)}
	case *IfThenElse:
		return &js.Conditional{Cond: el.expr(n.Cond), Then: el.expr(n.Then), Else: el.expr(n.Else)}
	case *Lambda:
		return el.function(n)
	case *Sequential:
		return &js.Binary{Left: el.expr(n.First), Op: ",", Right: el.expr(n.Second)}
	case *New:
		return &js.New{Ctor: el.expr(n.Ctor), Args: el.exprs(n.Args)}
	case *NewArray:
		return &js.Array{Elems: el.exprs(n.Elems)}
	case *NewObject:
		props := make([]js.Prop, len(n.Fields))
		for i, f := range n.Fields {
			props[i] = js.Prop{Key: f.Key, Value: el.expr(f.Value)}
		}
		return &js.Object{Props: props}
	case *NewRegex:
		return &js.Regex{Pattern: n.Pattern}
	default:
		// Statement-only forms in expression position run inside an
		// immediately invoked function.
		return el.iife(e)
	}
}

func (el *elaborator) exprs(es []Expr) []js.Expr {
	out := make([]js.Expr, len(es))
	for i, e := range es {
		out[i] = el.expr(e)
	}
	return out
}

// member lowers a property access, preferring dot syntax for literal
// identifier keys.
func (el *elaborator) member(obj js.Expr, key Expr) js.Expr {
	if c, ok := key.(*Constant); ok && c.Value.Kind == LString && js.IsIdent(c.Value.Str) {
		return &js.Member{Obj: obj, Name: c.Value.Str}
	}
	return &js.Index{Obj: obj, Key: el.expr(key)}
}

func (el *elaborator) function(lam *Lambda) *js.Func {
	el.push()
	defer el.pop()
	params := make([]string, len(lam.Params))
	for i, p := range lam.Params {
		params[i] = el.bind(p)
	}
	var body []js.Stmt
	if lam.This != nil {
		body = append(body, &js.VarDecl{Name: el.bind(lam.This), Init: &js.This{}})
	}
	body = append(body, el.stmts(lam.Body, true)...)
	return &js.Func{Params: params, Body: body}
}

func (el *elaborator) iife(e Expr) js.Expr {
	el.push()
	defer el.pop()
	return &js.Call{Callee: &js.Func{Body: el.stmts(e, true)}}
}

func literalExpr(l Literal) js.Expr {
	switch l.Kind {
	case LDouble:
		return &js.Number{Value: strconv.FormatFloat(l.Dbl, 'g', -1, 64)}
	case LInteger:
		return &js.Number{Value: strconv.FormatInt(l.Int, 10)}
	case LTrue:
		return &js.Bool{Value: true}
	case LFalse:
		return &js.Bool{Value: false}
	case LNull:
		return &js.Null{}
	case LString:
		return &js.Str{Value: l.Str}
	default:
		return &js.Ident{Name: "undefined"}
	}
}
