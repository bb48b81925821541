// traverse.go: the single structural map/fold every pass is built on.
//
// Both Transform and Fold present a uniform view of scope: any binder-
// carrying form (let, let-recursive, for-each-field, for-integer-range,
// try-with) hands its body to the callback wrapped in a Lambda, so a
// scope-aware pass has exactly one binding form to special-case. Transform
// reconstructs the original form from the lambda the callback returns.
//
// Callbacks given to Transform must preserve the wrapper's shape (a lambda
// with the same parameter count and no receiver binder); breaking that
// contract is a defect in the pass, and Transform panics with a diagnostic
// rather than building a malformed tree. A callback may substitute fresh
// parameter identifiers, but for let-recursive the group binders are taken
// from the body wrapper, so a callback that renames group binders must
// rename them consistently or handle the form itself (alpha-normalization
// and substitution do the latter).
package core

import "fmt"

// Transform applies f to every immediate child expression of e and
// reconstructs e with the results.
func Transform(f func(Expr) Expr, e Expr) Expr {
	switch n := e.(type) {
	case *Application:
		return &Application{Func: f(n.Func), Args: mapExprs(f, n.Args)}
	case *Binary:
		return &Binary{Left: f(n.Left), Op: n.Op, Right: f(n.Right)}
	case *Call:
		return &Call{This: f(n.This), Func: f(n.Func), Args: mapExprs(f, n.Args)}
	case *Constant:
		return n
	case *FieldDelete:
		return &FieldDelete{Obj: f(n.Obj), Key: f(n.Key)}
	case *FieldGet:
		return &FieldGet{Obj: f(n.Obj), Key: f(n.Key)}
	case *FieldSet:
		return &FieldSet{Obj: f(n.Obj), Key: f(n.Key), Value: f(n.Value)}
	case *ForEachField:
		obj := f(n.Obj)
		lam := expectWrapper(f(wrap1(n.Id, n.Body)), 1, "for-each-field")
		return &ForEachField{Id: lam.Params[0], Obj: obj, Body: lam.Body}
	case *ForIntegerRange:
		lo, hi := f(n.Lo), f(n.Hi)
		lam := expectWrapper(f(wrap1(n.Id, n.Body)), 1, "for-integer-range")
		return &ForIntegerRange{Id: lam.Params[0], Lo: lo, Hi: hi, Body: lam.Body}
	case *Global:
		return n
	case *IfThenElse:
		return &IfThenElse{Cond: f(n.Cond), Then: f(n.Then), Else: f(n.Else)}
	case *Lambda:
		return &Lambda{This: n.This, Params: n.Params, Body: f(n.Body)}
	case *Let:
		value := f(n.Value)
		lam := expectWrapper(f(wrap1(n.Id, n.Body)), 1, "let")
		return &Let{Id: lam.Params[0], Value: value, Body: lam.Body}
	case *LetRecursive:
		ids := make([]*Id, len(n.Bindings))
		for i, b := range n.Bindings {
			ids[i] = b.Id
		}
		values := make([]Expr, len(n.Bindings))
		for i, b := range n.Bindings {
			values[i] = expectWrapper(f(&Lambda{Params: ids, Body: b.Value}), len(ids), "let-recursive").Body
		}
		bodyLam := expectWrapper(f(&Lambda{Params: ids, Body: n.Body}), len(ids), "let-recursive")
		bindings := make([]Binding, len(n.Bindings))
		for i := range n.Bindings {
			bindings[i] = Binding{Id: bodyLam.Params[i], Value: values[i]}
		}
		return &LetRecursive{Bindings: bindings, Body: bodyLam.Body}
	case *New:
		return &New{Ctor: f(n.Ctor), Args: mapExprs(f, n.Args)}
	case *NewArray:
		return &NewArray{Elems: mapExprs(f, n.Elems)}
	case *NewObject:
		fields := make([]Field, len(n.Fields))
		for i, fld := range n.Fields {
			fields[i] = Field{Key: fld.Key, Value: f(fld.Value)}
		}
		return &NewObject{Fields: fields}
	case *NewRegex:
		return n
	case *Runtime:
		return n
	case *Sequential:
		return &Sequential{First: f(n.First), Second: f(n.Second)}
	case *Throw:
		return &Throw{Value: f(n.Value)}
	case *TryFinally:
		return &TryFinally{Body: f(n.Body), Finalizer: f(n.Finalizer)}
	case *TryWith:
		body := f(n.Body)
		lam := expectWrapper(f(wrap1(n.Id, n.Handler)), 1, "try-with")
		return &TryWith{Body: body, Id: lam.Params[0], Handler: lam.Body}
	case *Unary:
		return &Unary{Op: n.Op, Expr: f(n.Expr)}
	case *Var:
		return n
	case *VarSet:
		return &VarSet{Id: n.Id, Value: f(n.Value)}
	case *WhileLoop:
		return &WhileLoop{Cond: f(n.Cond), Body: f(n.Body)}
	default:
		panic(fmt.Sprintf("core: Transform on unknown node %T", e))
	}
}

// Fold accumulates f left-to-right over the immediate children of e in
// evaluation order, with the same binder normalization as Transform.
func Fold[T any](f func(T, Expr) T, seed T, e Expr) T {
	acc := seed
	switch n := e.(type) {
	case *Application:
		acc = f(acc, n.Func)
		acc = foldExprs(f, acc, n.Args)
	case *Binary:
		acc = f(acc, n.Left)
		acc = f(acc, n.Right)
	case *Call:
		acc = f(acc, n.This)
		acc = f(acc, n.Func)
		acc = foldExprs(f, acc, n.Args)
	case *Constant, *Global, *NewRegex, *Runtime, *Var:
		// no children
	case *FieldDelete:
		acc = f(acc, n.Obj)
		acc = f(acc, n.Key)
	case *FieldGet:
		acc = f(acc, n.Obj)
		acc = f(acc, n.Key)
	case *FieldSet:
		acc = f(acc, n.Obj)
		acc = f(acc, n.Key)
		acc = f(acc, n.Value)
	case *ForEachField:
		acc = f(acc, n.Obj)
		acc = f(acc, wrap1(n.Id, n.Body))
	case *ForIntegerRange:
		acc = f(acc, n.Lo)
		acc = f(acc, n.Hi)
		acc = f(acc, wrap1(n.Id, n.Body))
	case *IfThenElse:
		acc = f(acc, n.Cond)
		acc = f(acc, n.Then)
		acc = f(acc, n.Else)
	case *Lambda:
		acc = f(acc, n.Body)
	case *Let:
		acc = f(acc, n.Value)
		acc = f(acc, wrap1(n.Id, n.Body))
	case *LetRecursive:
		ids := make([]*Id, len(n.Bindings))
		for i, b := range n.Bindings {
			ids[i] = b.Id
		}
		for _, b := range n.Bindings {
			acc = f(acc, &Lambda{Params: ids, Body: b.Value})
		}
		acc = f(acc, &Lambda{Params: ids, Body: n.Body})
	case *New:
		acc = f(acc, n.Ctor)
		acc = foldExprs(f, acc, n.Args)
	case *NewArray:
		acc = foldExprs(f, acc, n.Elems)
	case *NewObject:
		for _, fld := range n.Fields {
			acc = f(acc, fld.Value)
		}
	case *Sequential:
		acc = f(acc, n.First)
		acc = f(acc, n.Second)
	case *Throw:
		acc = f(acc, n.Value)
	case *TryFinally:
		acc = f(acc, n.Body)
		acc = f(acc, n.Finalizer)
	case *TryWith:
		acc = f(acc, n.Body)
		acc = f(acc, wrap1(n.Id, n.Handler))
	case *Unary:
		acc = f(acc, n.Expr)
	case *VarSet:
		acc = f(acc, n.Value)
	case *WhileLoop:
		acc = f(acc, n.Cond)
		acc = f(acc, n.Body)
	default:
		panic(fmt.Sprintf("core: Fold on unknown node %T", e))
	}
	return acc
}

// Children returns the normalized immediate children in fold order.
func Children(e Expr) []Expr {
	return Fold(func(acc []Expr, c Expr) []Expr { return append(acc, c) }, nil, e)
}

func wrap1(id *Id, body Expr) *Lambda {
	return &Lambda{Params: []*Id{id}, Body: body}
}

func expectWrapper(e Expr, arity int, form string) *Lambda {
	lam, ok := e.(*Lambda)
	if !ok || lam.This != nil || len(lam.Params) != arity {
		panic(fmt.Sprintf("core: transform callback broke the %s binder wrapper (got %T)", form, e))
	}
	return lam
}

func mapExprs(f func(Expr) Expr, es []Expr) []Expr {
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = f(e)
	}
	return out
}

func foldExprs[T any](f func(T, Expr) T, acc T, es []Expr) T {
	for _, e := range es {
		acc = f(acc, e)
	}
	return acc
}
