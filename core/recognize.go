// recognize.go: partial parsing of output syntax back into the IR.
//
// Recognition is an intentionally partial, best-effort inverse of
// elaboration: anything outside the supported subset yields ok=false,
// never an error. Bound names become fresh mutable identifiers (every
// variable of the output language is assignable); unbound names become
// global-path references; the configured global and runtime root names
// become the corresponding IR nodes. Variable declarations are grouped so
// that recursive function declarations read back as recursive bindings.
package core

import (
	"strconv"

	"github.com/jeroldhaas/websharper/js"
)

// Recognize reads a syntax expression under default Options.
func Recognize(e js.Expr) (Expr, bool) {
	return RecognizeWith(Options{}, e)
}

// RecognizeWith reads a syntax expression, treating opts' root names as
// the global object and runtime support references.
func RecognizeWith(opts Options, e js.Expr) (Expr, bool) {
	r := &recognizer{opts: opts, poison: map[string]bool{}}
	r.push()
	return r.expr(e)
}

// RecognizeProgram reads a whole program; the final expression statement
// is the program's value.
func RecognizeProgram(opts Options, p *js.Program) (Expr, bool) {
	r := &recognizer{opts: opts, poison: map[string]bool{}}
	r.push()
	return r.body(p.Body, tailValue)
}

type recognizer struct {
	opts   Options
	scopes []map[string]*Id
	poison map[string]bool
}

func (r *recognizer) push() { r.scopes = append(r.scopes, map[string]*Id{}) }
func (r *recognizer) pop()  { r.scopes = r.scopes[:len(r.scopes)-1] }

// popPoison drops a nested statement scope. The output language hoists
// its declarations to the enclosing function, so a later reference to a
// dropped name is outside the subset: the name is poisoned and any
// unresolved use of it refuses rather than misreads as a global.
func (r *recognizer) popPoison() {
	top := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	for name := range top {
		r.poison[name] = true
	}
}

// bodyScoped reads a nested statement list (a branch, loop or try block)
// in its own scope.
func (r *recognizer) bodyScoped(stmts []js.Stmt, mode tailMode) (Expr, bool) {
	r.push()
	e, ok := r.body(stmts, mode)
	r.popPoison()
	return e, ok
}

func (r *recognizer) bind(name string) *Id {
	id := NewMutableId(name)
	r.scopes[len(r.scopes)-1][name] = id
	return id
}

func (r *recognizer) resolve(name string) (*Id, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if id, ok := r.scopes[i][name]; ok {
			return id, true
		}
	}
	return nil, false
}

/* ---------- expressions ---------- */

func (r *recognizer) expr(e js.Expr) (Expr, bool) {
	switch n := e.(type) {
	case *js.Ident:
		if id, ok := r.resolve(n.Name); ok {
			return &Var{Id: id}, true
		}
		switch n.Name {
		case "undefined":
			return Undefined.Expr(), true
		case r.opts.globalName():
			return &Global{}, true
		case r.opts.runtimeName():
			return &Runtime{}, true
		}
		if r.poison[n.Name] {
			return nil, false
		}
		return &Global{Path: []string{n.Name}}, true
	case *js.Number:
		if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			return Integer(i).Expr(), true
		}
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return Double(f).Expr(), true
		}
		return nil, false
	case *js.Str:
		return String(n.Value).Expr(), true
	case *js.Bool:
		return Bool(n.Value).Expr(), true
	case *js.Null:
		return Null.Expr(), true
	case *js.Regex:
		return &NewRegex{Pattern: n.Pattern}, true
	case *js.Unary:
		return r.unary(n)
	case *js.Binary:
		return r.binary(n)
	case *js.Conditional:
		cond, ok1 := r.expr(n.Cond)
		then, ok2 := r.expr(n.Then)
		els, ok3 := r.expr(n.Else)
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return &IfThenElse{Cond: cond, Then: then, Else: els}, true
	case *js.Assign:
		return r.assign(n)
	case *js.Member:
		obj, ok := r.expr(n.Obj)
		if !ok {
			return nil, false
		}
		if g, isGlobal := obj.(*Global); isGlobal {
			return &Global{Path: append(append([]string{}, g.Path...), n.Name)}, true
		}
		return &FieldGet{Obj: obj, Key: String(n.Name).Expr()}, true
	case *js.Index:
		obj, ok1 := r.expr(n.Obj)
		key, ok2 := r.expr(n.Key)
		if !ok1 || !ok2 {
			return nil, false
		}
		return &FieldGet{Obj: obj, Key: key}, true
	case *js.Call:
		return r.call(n)
	case *js.New:
		ctor, ok := r.expr(n.Ctor)
		if !ok {
			return nil, false
		}
		args, ok := r.exprs(n.Args)
		if !ok {
			return nil, false
		}
		return &New{Ctor: ctor, Args: args}, true
	case *js.Func:
		return r.function(n)
	case *js.Array:
		elems, ok := r.exprs(n.Elems)
		if !ok {
			return nil, false
		}
		return &NewArray{Elems: elems}, true
	case *js.Object:
		fields := make([]Field, len(n.Props))
		for i, p := range n.Props {
			v, ok := r.expr(p.Value)
			if !ok {
				return nil, false
			}
			fields[i] = Field{Key: p.Key, Value: v}
		}
		return &NewObject{Fields: fields}, true
	default:
		return nil, false
	}
}

func (r *recognizer) exprs(es []js.Expr) ([]Expr, bool) {
	out := make([]Expr, len(es))
	for i, e := range es {
		x, ok := r.expr(e)
		if !ok {
			return nil, false
		}
		out[i] = x
	}
	return out, true
}

func (r *recognizer) unary(n *js.Unary) (Expr, bool) {
	if n.Op == "delete" {
		obj, key, ok := r.memberTarget(n.Expr)
		if !ok {
			return nil, false
		}
		return &FieldDelete{Obj: obj, Key: key}, true
	}
	var op UnaryOp
	switch n.Op {
	case "~":
		op = UnaryBitwiseNot
	case "-":
		op = UnaryNegate
	case "!":
		op = UnaryNot
	case "+":
		op = UnaryPlus
	case "typeof":
		op = UnaryTypeof
	case "void":
		op = UnaryVoid
	default:
		return nil, false
	}
	x, ok := r.expr(n.Expr)
	if !ok {
		return nil, false
	}
	return &Unary{Op: op, Expr: x}, true
}

var binaryOps = map[string]BinaryOp{
	"!=": BinaryNotEquals, "!==": BinaryNotEqualsStrict, "%": BinaryModulo,
	"&&": BinaryAnd, "&": BinaryBitwiseAnd, "*": BinaryMultiply,
	"+": BinaryAdd, "-": BinarySubtract, "/": BinaryDivide,
	"<<": BinaryShiftLeft, "<=": BinaryLessOrEqual, "<": BinaryLess,
	"===": BinaryEqualsStrict, "==": BinaryEquals, ">=": BinaryGreaterOrEqual,
	">>>": BinaryUnsignedShiftRight, ">>": BinaryShiftRight, ">": BinaryGreater,
	"^": BinaryBitwiseXor, "in": BinaryIn, "instanceof": BinaryInstanceOf,
	"|": BinaryBitwiseOr, "||": BinaryOr,
}

func (r *recognizer) binary(n *js.Binary) (Expr, bool) {
	left, ok1 := r.expr(n.Left)
	right, ok2 := r.expr(n.Right)
	if !ok1 || !ok2 {
		return nil, false
	}
	if n.Op == "," {
		return &Sequential{First: left, Second: right}, true
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		return nil, false
	}
	return &Binary{Left: left, Op: op, Right: right}, true
}

func (r *recognizer) assign(n *js.Assign) (Expr, bool) {
	if target, ok := n.Target.(*js.Ident); ok {
		id, bound := r.resolve(target.Name)
		if !bound {
			return nil, false
		}
		value, ok := r.expr(n.Value)
		if !ok {
			return nil, false
		}
		return &VarSet{Id: id, Value: value}, true
	}
	obj, key, ok := r.memberTarget(n.Target)
	if !ok {
		return nil, false
	}
	value, ok := r.expr(n.Value)
	if !ok {
		return nil, false
	}
	return &FieldSet{Obj: obj, Key: key, Value: value}, true
}

func (r *recognizer) memberTarget(e js.Expr) (obj, key Expr, ok bool) {
	switch t := e.(type) {
	case *js.Member:
		o, okObj := r.expr(t.Obj)
		if !okObj {
			return nil, nil, false
		}
		return o, String(t.Name).Expr(), true
	case *js.Index:
		o, okObj := r.expr(t.Obj)
		k, okKey := r.expr(t.Key)
		if !okObj || !okKey {
			return nil, nil, false
		}
		return o, k, true
	default:
		return nil, nil, false
	}
}

func (r *recognizer) call(n *js.Call) (Expr, bool) {
	// (function () { ... })() reads back as the body expression.
	if fn, isFunc := n.Callee.(*js.Func); isFunc && len(fn.Params) == 0 && len(n.Args) == 0 && fn.Name == "" {
		r.push()
		defer r.pop()
		return r.body(fn.Body, tailReturn)
	}
	// (0, f)(args) is a receiver-stripped plain call.
	if seq, isSeq := n.Callee.(*js.Binary); isSeq && seq.Op == "," {
		if num, isNum := seq.Left.(*js.Number); isNum && num.Value == "0" {
			callee, ok := r.expr(seq.Right)
			if !ok {
				return nil, false
			}
			args, ok := r.exprs(n.Args)
			if !ok {
				return nil, false
			}
			return &Application{Func: callee, Args: args}, true
		}
	}
	switch callee := n.Callee.(type) {
	case *js.Member:
		obj, ok := r.expr(callee.Obj)
		if !ok {
			return nil, false
		}
		args, ok := r.exprs(n.Args)
		if !ok {
			return nil, false
		}
		// A member callee always threads its receiver: receiver-less
		// calls through a path render as (0, path)(args) and are read
		// by the branch above.
		return &Call{This: obj, Func: String(callee.Name).Expr(), Args: args}, true
	case *js.Index:
		obj, ok1 := r.expr(callee.Obj)
		key, ok2 := r.expr(callee.Key)
		args, ok3 := r.exprs(n.Args)
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return &Call{This: obj, Func: key, Args: args}, true
	default:
		fn, ok := r.expr(n.Callee)
		if !ok {
			return nil, false
		}
		args, ok := r.exprs(n.Args)
		if !ok {
			return nil, false
		}
		return &Application{Func: fn, Args: args}, true
	}
}

func (r *recognizer) function(n *js.Func) (Expr, bool) {
	if n.Name != "" {
		return nil, false
	}
	r.push()
	defer r.pop()
	params := make([]*Id, len(n.Params))
	for i, p := range n.Params {
		params[i] = r.bind(p)
	}
	body := n.Body
	var thisId *Id
	if len(body) > 0 {
		if vd, isDecl := body[0].(*js.VarDecl); isDecl {
			if _, isThis := vd.Init.(*js.This); isThis {
				thisId = r.bind(vd.Name)
				body = body[1:]
			}
		}
	}
	b, ok := r.body(body, tailReturn)
	if !ok {
		return nil, false
	}
	return &Lambda{This: thisId, Params: params, Body: b}, true
}

/* ---------- statement lists ---------- */

type tailMode int

const (
	tailReturn  tailMode = iota // function body: return carries the value
	tailValue                   // program: last expression statement is the value
	tailDiscard                 // loop/branch body: value unused
)

func (r *recognizer) body(stmts []js.Stmt, mode tailMode) (Expr, bool) {
	if len(stmts) == 0 {
		return Undefined.Expr(), true
	}
	switch n := stmts[0].(type) {
	case *js.VarDecl:
		return r.declGroup(stmts, mode)
	case *js.Return:
		if mode != tailReturn || len(stmts) > 1 {
			return nil, false
		}
		if n.Value == nil {
			return Undefined.Expr(), true
		}
		return r.expr(n.Value)
	case *js.Empty:
		return r.body(stmts[1:], mode)
	}
	if len(stmts) == 1 {
		return r.tailStmt(stmts[0], mode)
	}
	first, ok := r.stmt(stmts[0])
	if !ok {
		return nil, false
	}
	rest, ok := r.body(stmts[1:], mode)
	if !ok {
		return nil, false
	}
	return &Sequential{First: first, Second: rest}, true
}

// declGroup reads a contiguous run of var declarations as one binding
// group, with every name in scope for every initializer, mirroring the
// output language's function-scoped variables.
func (r *recognizer) declGroup(stmts []js.Stmt, mode tailMode) (Expr, bool) {
	var decls []*js.VarDecl
	rest := stmts
	for len(rest) > 0 {
		vd, ok := rest[0].(*js.VarDecl)
		if !ok {
			break
		}
		decls = append(decls, vd)
		rest = rest[1:]
	}
	ids := make([]*Id, len(decls))
	for i, vd := range decls {
		ids[i] = r.bind(vd.Name)
	}
	bindings := make([]Binding, len(decls))
	for i, vd := range decls {
		var init Expr = Undefined.Expr()
		if vd.Init != nil {
			x, ok := r.expr(vd.Init)
			if !ok {
				return nil, false
			}
			init = x
		}
		bindings[i] = Binding{Id: ids[i], Value: init}
	}
	tail, ok := r.body(rest, mode)
	if !ok {
		return nil, false
	}
	if len(bindings) == 1 && !GetFreeIds(bindings[0].Value).Contains(ids[0]) {
		return &Let{Id: ids[0], Value: bindings[0].Value, Body: tail}, true
	}
	return &LetRecursive{Bindings: bindings, Body: tail}, true
}

// tailStmt reads the final statement of a list in the given mode.
func (r *recognizer) tailStmt(s js.Stmt, mode tailMode) (Expr, bool) {
	switch n := s.(type) {
	case *js.ExprStmt:
		x, ok := r.expr(n.Expr)
		if !ok {
			return nil, false
		}
		if mode == tailReturn {
			return &Sequential{First: x, Second: Undefined.Expr()}, true
		}
		return x, true
	case *js.If:
		cond, ok := r.expr(n.Cond)
		if !ok {
			return nil, false
		}
		then, ok1 := r.bodyScoped(n.Then, mode)
		els, ok2 := r.bodyScoped(n.Else, mode)
		if !ok1 || !ok2 {
			return nil, false
		}
		return &IfThenElse{Cond: cond, Then: then, Else: els}, true
	case *js.Try:
		return r.try(n, mode)
	case *js.Throw:
		v, ok := r.expr(n.Value)
		if !ok {
			return nil, false
		}
		return &Throw{Value: v}, true
	default:
		return r.stmt(s)
	}
}

// stmt reads a mid-list statement whose value is discarded.
func (r *recognizer) stmt(s js.Stmt) (Expr, bool) {
	switch n := s.(type) {
	case *js.ExprStmt:
		return r.expr(n.Expr)
	case *js.If:
		cond, ok := r.expr(n.Cond)
		if !ok {
			return nil, false
		}
		then, ok1 := r.bodyScoped(n.Then, tailDiscard)
		els, ok2 := r.bodyScoped(n.Else, tailDiscard)
		if !ok1 || !ok2 {
			return nil, false
		}
		return &IfThenElse{Cond: cond, Then: then, Else: els}, true
	case *js.While:
		cond, ok := r.expr(n.Cond)
		if !ok {
			return nil, false
		}
		body, ok := r.bodyScoped(n.Body, tailDiscard)
		if !ok {
			return nil, false
		}
		return &WhileLoop{Cond: cond, Body: body}, true
	case *js.For:
		return r.forLoop(n)
	case *js.ForIn:
		obj, ok := r.expr(n.Obj)
		if !ok {
			return nil, false
		}
		r.push()
		defer r.popPoison()
		id := r.bind(n.Name)
		body, ok := r.body(n.Body, tailDiscard)
		if !ok {
			return nil, false
		}
		return &ForEachField{Id: id, Obj: obj, Body: body}, true
	case *js.Block:
		return r.bodyScoped(n.Body, tailDiscard)
	case *js.Throw:
		v, ok := r.expr(n.Value)
		if !ok {
			return nil, false
		}
		return &Throw{Value: v}, true
	case *js.Try:
		return r.try(n, tailDiscard)
	case *js.Empty:
		return Undefined.Expr(), true
	default:
		return nil, false
	}
}

// forLoop accepts only the counting shape the elaborator emits:
// for (var i = lo; i <= hi; i = i + 1).
func (r *recognizer) forLoop(n *js.For) (Expr, bool) {
	lo, ok := r.expr(n.Init)
	if !ok {
		return nil, false
	}
	cond, isCmp := n.Cond.(*js.Binary)
	if !isCmp || cond.Op != "<=" {
		return nil, false
	}
	if v, isIdent := cond.Left.(*js.Ident); !isIdent || v.Name != n.Name {
		return nil, false
	}
	hi, ok := r.expr(cond.Right)
	if !ok {
		return nil, false
	}
	post, isAssign := n.Post.(*js.Assign)
	if !isAssign {
		return nil, false
	}
	target, isIdent := post.Target.(*js.Ident)
	if !isIdent || target.Name != n.Name {
		return nil, false
	}
	step, isAdd := post.Value.(*js.Binary)
	if !isAdd || step.Op != "+" {
		return nil, false
	}
	if v, isIdent := step.Left.(*js.Ident); !isIdent || v.Name != n.Name {
		return nil, false
	}
	if one, isNum := step.Right.(*js.Number); !isNum || one.Value != "1" {
		return nil, false
	}
	r.push()
	defer r.popPoison()
	id := r.bind(n.Name)
	body, ok := r.body(n.Body, tailDiscard)
	if !ok {
		return nil, false
	}
	return &ForIntegerRange{Id: id, Lo: lo, Hi: hi, Body: body}, true
}

func (r *recognizer) try(n *js.Try, mode tailMode) (Expr, bool) {
	body, ok := r.bodyScoped(n.Body, mode)
	if !ok {
		return nil, false
	}
	out := body
	if n.Param != "" {
		r.push()
		id := r.bind(n.Param)
		handler, okCatch := r.body(n.Catch, mode)
		r.popPoison()
		if !okCatch {
			return nil, false
		}
		out = &TryWith{Body: body, Id: id, Handler: handler}
	}
	if len(n.Finally) > 0 {
		fin, okFin := r.bodyScoped(n.Finally, tailDiscard)
		if !okFin {
			return nil, false
		}
		out = &TryFinally{Body: out, Finalizer: fin}
	}
	return out, true
}
