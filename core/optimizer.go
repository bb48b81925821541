// optimizer.go: the bounded structural rewrite pass.
//
// The principal rewrite is tail-call elimination: a recursive binding
// whose every self-reference is a direct tail call of matching arity is
// rewritten into a while-loop over mutable parameter copies, so the
// recursion runs in constant stack space and allocates no closures per
// step. Self-recursion is handled per binding; mutual recursion across a
// group is left as ordinary closures (see DESIGN.md). The other rewrites
// are local, strictly size-non-increasing simplifications: constant
// folding, dead-branch elimination, pure-value discarding.
package core

// Optimize alpha-normalizes e and applies the rewrite pass bottom-up.
// The result is alpha-equivalent in behavior to e, and the pass is
// idempotent: optimizing the result again changes nothing.
func Optimize(e Expr) Expr {
	return optimize(AlphaNormalize(e))
}

func optimize(e Expr) Expr {
	if lr, ok := e.(*LetRecursive); ok {
		bindings := make([]Binding, len(lr.Bindings))
		for i, b := range lr.Bindings {
			bindings[i] = Binding{Id: b.Id, Value: optimize(b.Value)}
		}
		out := &LetRecursive{Bindings: bindings, Body: optimize(lr.Body)}
		return simplify(eliminateTailCalls(out))
	}
	return simplify(Transform(optimize, e))
}

/* ---------- local simplifications ---------- */

func simplify(e Expr) Expr {
	switch n := e.(type) {
	case *Binary:
		if l, okl := n.Left.(*Constant); okl {
			if r, okr := n.Right.(*Constant); okr {
				if out, ok := foldBinary(l.Value, n.Op, r.Value); ok {
					return out.Expr()
				}
			}
		}
	case *Unary:
		if c, ok := n.Expr.(*Constant); ok {
			if out, folded := foldUnary(n.Op, c.Value); folded {
				return out.Expr()
			}
		}
	case *IfThenElse:
		if c, ok := n.Cond.(*Constant); ok {
			switch c.Value.Kind {
			case LTrue:
				return n.Then
			case LFalse:
				return n.Else
			}
		}
	case *Sequential:
		if isPure(n.First) {
			return n.Second
		}
	case *Let:
		if v, ok := n.Body.(*Var); ok && v.Id == n.Id && !n.Id.Mutable() {
			return n.Value
		}
		if isPure(n.Value) && !GetFreeIds(n.Body).Contains(n.Id) {
			return n.Body
		}
	}
	return e
}

// isPure reports that evaluating e can have no observable effect, so a
// discarded occurrence may be dropped.
func isPure(e Expr) bool {
	switch e.(type) {
	case *Constant, *Var, *Lambda, *Global, *Runtime, *NewRegex:
		return true
	default:
		return false
	}
}

func foldBinary(l Literal, op BinaryOp, r Literal) (Literal, bool) {
	if l.Kind == LInteger && r.Kind == LInteger {
		a, b := l.Int, r.Int
		switch op {
		case BinaryAdd:
			return Integer(a + b), true
		case BinarySubtract:
			return Integer(a - b), true
		case BinaryMultiply:
			return Integer(a * b), true
		case BinaryLess:
			return Bool(a < b), true
		case BinaryLessOrEqual:
			return Bool(a <= b), true
		case BinaryGreater:
			return Bool(a > b), true
		case BinaryGreaterOrEqual:
			return Bool(a >= b), true
		case BinaryEquals, BinaryEqualsStrict:
			return Bool(a == b), true
		case BinaryNotEquals, BinaryNotEqualsStrict:
			return Bool(a != b), true
		}
		return Literal{}, false
	}
	if l.Kind == LDouble && r.Kind == LDouble {
		a, b := l.Dbl, r.Dbl
		switch op {
		case BinaryAdd:
			return Double(a + b), true
		case BinarySubtract:
			return Double(a - b), true
		case BinaryMultiply:
			return Double(a * b), true
		case BinaryLess:
			return Bool(a < b), true
		case BinaryLessOrEqual:
			return Bool(a <= b), true
		case BinaryGreater:
			return Bool(a > b), true
		case BinaryGreaterOrEqual:
			return Bool(a >= b), true
		case BinaryEquals, BinaryEqualsStrict:
			return Bool(a == b), true
		case BinaryNotEquals, BinaryNotEqualsStrict:
			return Bool(a != b), true
		}
		return Literal{}, false
	}
	if l.Kind == LString && r.Kind == LString {
		switch op {
		case BinaryAdd:
			return String(l.Str + r.Str), true
		case BinaryEquals, BinaryEqualsStrict:
			return Bool(l.Str == r.Str), true
		case BinaryNotEquals, BinaryNotEqualsStrict:
			return Bool(l.Str != r.Str), true
		}
		return Literal{}, false
	}
	if isBoolLit(l) && isBoolLit(r) {
		a, b := l.Kind == LTrue, r.Kind == LTrue
		switch op {
		case BinaryAnd:
			return Bool(a && b), true
		case BinaryOr:
			return Bool(a || b), true
		case BinaryEquals, BinaryEqualsStrict:
			return Bool(a == b), true
		case BinaryNotEquals, BinaryNotEqualsStrict:
			return Bool(a != b), true
		}
	}
	// Division, modulo, bitwise and mixed-kind operands keep the target
	// language's coercion semantics; leave them to the runtime.
	return Literal{}, false
}

func foldUnary(op UnaryOp, c Literal) (Literal, bool) {
	switch op {
	case UnaryNot:
		if isBoolLit(c) {
			return Bool(c.Kind != LTrue), true
		}
	case UnaryNegate:
		switch c.Kind {
		case LInteger:
			return Integer(-c.Int), true
		case LDouble:
			return Double(-c.Dbl), true
		}
	case UnaryPlus:
		if c.Kind == LInteger || c.Kind == LDouble {
			return c, true
		}
	case UnaryTypeof:
		switch c.Kind {
		case LInteger, LDouble:
			return String("number"), true
		case LTrue, LFalse:
			return String("boolean"), true
		case LString:
			return String("string"), true
		case LUndefined:
			return String("undefined"), true
		case LNull:
			return String("object"), true
		}
	case UnaryVoid:
		return Undefined, true
	}
	return Literal{}, false
}

func isBoolLit(l Literal) bool {
	return l.Kind == LTrue || l.Kind == LFalse
}

/* ---------- tail-call elimination ---------- */

func eliminateTailCalls(lr *LetRecursive) Expr {
	changed := false
	bindings := make([]Binding, len(lr.Bindings))
	for i, b := range lr.Bindings {
		bindings[i] = b
		lam, ok := b.Value.(*Lambda)
		if !ok || lam.This != nil {
			continue
		}
		if loop, ok := rewriteTailBinding(b.Id, lam); ok {
			bindings[i].Value = loop
			changed = true
		}
	}
	if !changed {
		return lr
	}
	return &LetRecursive{Bindings: bindings, Body: lr.Body}
}

// rewriteTailBinding turns a self-tail-recursive lambda into a lambda
// whose body is an explicit loop. fn's parameters become mutable loop
// variables; each tail self-call becomes a parameter reassignment.
func rewriteTailBinding(fn *Id, lam *Lambda) (*Lambda, bool) {
	ok, found := tailUses(fn, lam.Body, true, len(lam.Params))
	if !ok || !found {
		return nil, false
	}

	params := make([]*Id, len(lam.Params))
	renamed := make(map[*Id]*Id, len(lam.Params))
	for i, p := range lam.Params {
		m := NewMutableId(p.Name())
		params[i] = m
		renamed[p] = m
	}
	body := renameIds(renamed, lam.Body)

	running := NewMutableId("loop")
	result := NewMutableId("res")
	looped := rewriteTails(fn, params, running, result, body)

	loop := &Let{Id: running, Value: Bool(true).Expr(),
		Body: &Let{Id: result, Value: Undefined.Expr(),
			Body: &Sequential{
				First:  &WhileLoop{Cond: &Var{Id: running}, Body: looped},
				Second: &Var{Id: result},
			}}}
	return &Lambda{Params: params, Body: loop}, true
}

// renameIds rewrites both reads and writes of the mapped identifiers.
// The tree is alpha-normalized, so no inner binder reuses a mapped
// identity and no scope tracking is needed.
func renameIds(ren map[*Id]*Id, e Expr) Expr {
	switch n := e.(type) {
	case *Var:
		if m, ok := ren[n.Id]; ok {
			return &Var{Id: m}
		}
		return n
	case *VarSet:
		id := n.Id
		if m, ok := ren[id]; ok {
			id = m
		}
		return &VarSet{Id: id, Value: renameIds(ren, n.Value)}
	}
	return Transform(func(c Expr) Expr { return renameIds(ren, c) }, e)
}

// rewriteTails rewrites every tail position of e: a tail self-call
// becomes parameter reassignment (the loop continues), any other tail
// value stops the loop and stores the result.
func rewriteTails(fn *Id, params []*Id, running, result *Id, e Expr) Expr {
	switch n := e.(type) {
	case *Application:
		if v, ok := n.Func.(*Var); ok && v.Id == fn {
			return reassign(params, n.Args)
		}
	case *IfThenElse:
		return &IfThenElse{
			Cond: n.Cond,
			Then: rewriteTails(fn, params, running, result, n.Then),
			Else: rewriteTails(fn, params, running, result, n.Else),
		}
	case *Sequential:
		return &Sequential{First: n.First, Second: rewriteTails(fn, params, running, result, n.Second)}
	case *Let:
		return &Let{Id: n.Id, Value: n.Value, Body: rewriteTails(fn, params, running, result, n.Body)}
	case *LetRecursive:
		return &LetRecursive{Bindings: n.Bindings, Body: rewriteTails(fn, params, running, result, n.Body)}
	}
	return &Sequential{
		First:  &VarSet{Id: result, Value: e},
		Second: &VarSet{Id: running, Value: Bool(false).Expr()},
	}
}

// reassign binds the new argument values to temporaries before writing
// the loop variables, so assignments cannot observe each other.
func reassign(params []*Id, args []Expr) Expr {
	temps := make([]*Id, len(args))
	var writes Expr = Undefined.Expr()
	for i := len(params) - 1; i >= 0; i-- {
		temps[i] = NewId()
		writes = &Sequential{First: &VarSet{Id: params[i], Value: &Var{Id: temps[i]}}, Second: writes}
	}
	out := writes
	for i := len(args) - 1; i >= 0; i-- {
		out = &Let{Id: temps[i], Value: args[i], Body: out}
	}
	return out
}

// tailUses checks that every occurrence of fn in e is a direct tail call
// with the given arity. ok=false rejects the binding for loop conversion;
// found reports that at least one tail self-call exists.
func tailUses(fn *Id, e Expr, tail bool, arity int) (ok bool, found bool) {
	switch n := e.(type) {
	case *Var:
		return n.Id != fn, false
	case *Application:
		if v, isVar := n.Func.(*Var); isVar && v.Id == fn {
			if !tail || len(n.Args) != arity {
				return false, false
			}
			for _, a := range n.Args {
				if aok, _ := tailUses(fn, a, false, arity); !aok {
					return false, false
				}
			}
			return true, true
		}
	case *IfThenElse:
		if cok, _ := tailUses(fn, n.Cond, false, arity); !cok {
			return false, false
		}
		tok, tfound := tailUses(fn, n.Then, tail, arity)
		if !tok {
			return false, false
		}
		eok, efound := tailUses(fn, n.Else, tail, arity)
		return eok, tfound || efound
	case *Sequential:
		if fok, _ := tailUses(fn, n.First, false, arity); !fok {
			return false, false
		}
		return tailUses(fn, n.Second, tail, arity)
	case *Let:
		if vok, _ := tailUses(fn, n.Value, false, arity); !vok {
			return false, false
		}
		return tailUses(fn, n.Body, tail, arity)
	case *LetRecursive:
		for _, b := range n.Bindings {
			if vok, _ := tailUses(fn, b.Value, false, arity); !vok {
				return false, false
			}
		}
		return tailUses(fn, n.Body, tail, arity)
	}
	// Every other form is an eager context: no tail positions inside
	// (try bodies included), so any use of fn disqualifies.
	ok = true
	for _, c := range Children(e) {
		cok, _ := tailUses(fn, c, false, arity)
		if !cok {
			ok = false
			break
		}
	}
	return ok, false
}
