// binding.go: alpha-normalization, alpha-equivalence, free- and mutable-
// identifier analysis. All of these are total on well-formed trees.
package core

import "reflect"

// IsAlphaNormalized reports whether no identifier is introduced as a
// binder more than once anywhere in e.
func IsAlphaNormalized(e Expr) bool {
	seen := NewIdSet()
	ok := true
	var visit func(Expr)
	bind := func(id *Id) {
		if id == nil {
			return
		}
		if seen.Contains(id) {
			ok = false
		}
		seen.Add(id)
	}
	visit = func(x Expr) {
		if !ok {
			return
		}
		switch n := x.(type) {
		case *Lambda:
			bind(n.This)
			for _, p := range n.Params {
				bind(p)
			}
			visit(n.Body)
		case *LetRecursive:
			// The fold wrappers would re-present the group binders once
			// per binding; register them once here instead.
			for _, b := range n.Bindings {
				bind(b.Id)
			}
			for _, b := range n.Bindings {
				visit(b.Value)
			}
			visit(n.Body)
		default:
			Fold(func(_ struct{}, c Expr) struct{} { visit(c); return struct{}{} }, struct{}{}, x)
		}
	}
	visit(e)
	return ok
}

// AlphaNormalize returns an equivalent tree in which every bound
// identifier is replaced by a fresh clone, so that
// IsAlphaNormalized(AlphaNormalize(e)) always holds. Free identifiers are
// untouched.
func AlphaNormalize(e Expr) Expr {
	return alphaRename(e, nil)
}

func alphaRename(e Expr, env map[*Id]*Id) Expr {
	switch n := e.(type) {
	case *Var:
		if r, ok := env[n.Id]; ok {
			return &Var{Id: r}
		}
		return n
	case *VarSet:
		id := n.Id
		if r, ok := env[id]; ok {
			id = r
		}
		return &VarSet{Id: id, Value: alphaRename(n.Value, env)}
	case *Lambda:
		inner := copyRenaming(env)
		this := cloneInto(inner, n.This)
		params := make([]*Id, len(n.Params))
		for i, p := range n.Params {
			params[i] = cloneInto(inner, p)
		}
		return &Lambda{This: this, Params: params, Body: alphaRename(n.Body, inner)}
	case *Let:
		value := alphaRename(n.Value, env)
		inner := copyRenaming(env)
		fresh := cloneInto(inner, n.Id)
		return &Let{Id: fresh, Value: value, Body: alphaRename(n.Body, inner)}
	case *LetRecursive:
		inner := copyRenaming(env)
		bindings := make([]Binding, len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i].Id = cloneInto(inner, b.Id)
		}
		for i, b := range n.Bindings {
			bindings[i].Value = alphaRename(b.Value, inner)
		}
		return &LetRecursive{Bindings: bindings, Body: alphaRename(n.Body, inner)}
	case *ForEachField:
		obj := alphaRename(n.Obj, env)
		inner := copyRenaming(env)
		fresh := cloneInto(inner, n.Id)
		return &ForEachField{Id: fresh, Obj: obj, Body: alphaRename(n.Body, inner)}
	case *ForIntegerRange:
		lo := alphaRename(n.Lo, env)
		hi := alphaRename(n.Hi, env)
		inner := copyRenaming(env)
		fresh := cloneInto(inner, n.Id)
		return &ForIntegerRange{Id: fresh, Lo: lo, Hi: hi, Body: alphaRename(n.Body, inner)}
	case *TryWith:
		body := alphaRename(n.Body, env)
		inner := copyRenaming(env)
		fresh := cloneInto(inner, n.Id)
		return &TryWith{Body: body, Id: fresh, Handler: alphaRename(n.Handler, inner)}
	default:
		return Transform(func(c Expr) Expr { return alphaRename(c, env) }, e)
	}
}

func copyRenaming(env map[*Id]*Id) map[*Id]*Id {
	inner := make(map[*Id]*Id, len(env)+1)
	for k, v := range env {
		inner[k] = v
	}
	return inner
}

func cloneInto(env map[*Id]*Id, id *Id) *Id {
	if id == nil {
		return nil
	}
	fresh := id.Clone()
	env[id] = fresh
	return fresh
}

// GetFreeIds returns the identifiers referenced in e that no enclosing
// binder within e introduces.
func GetFreeIds(e Expr) IdSet {
	free := NewIdSet()
	var visit func(Expr, IdSet)
	visit = func(x Expr, bound IdSet) {
		switch n := x.(type) {
		case *Var:
			if !bound.Contains(n.Id) {
				free.Add(n.Id)
			}
		case *VarSet:
			if !bound.Contains(n.Id) {
				free.Add(n.Id)
			}
			visit(n.Value, bound)
		case *Lambda:
			inner := bound.copy()
			if n.This != nil {
				inner.Add(n.This)
			}
			for _, p := range n.Params {
				inner.Add(p)
			}
			visit(n.Body, inner)
		default:
			Fold(func(_ struct{}, c Expr) struct{} { visit(c, bound); return struct{}{} }, struct{}{}, x)
		}
	}
	visit(e, NewIdSet())
	return free
}

// GetMutableIds returns the identifiers within e that appear in var-set
// position or whose mutability flag is set.
func GetMutableIds(e Expr) IdSet {
	mutable := NewIdSet()
	note := func(id *Id) {
		if id != nil && id.Mutable() {
			mutable.Add(id)
		}
	}
	var visit func(Expr)
	visit = func(x Expr) {
		switch n := x.(type) {
		case *Var:
			note(n.Id)
		case *VarSet:
			mutable.Add(n.Id)
			visit(n.Value)
		case *Lambda:
			note(n.This)
			for _, p := range n.Params {
				note(p)
			}
			visit(n.Body)
		default:
			Fold(func(_ struct{}, c Expr) struct{} { visit(c); return struct{}{} }, struct{}{}, x)
		}
	}
	visit(e)
	return mutable
}

// IsGround reports whether e has no free identifiers.
func IsGround(e Expr) bool {
	return GetFreeIds(e).Len() == 0
}

// AlphaEqual reports whether a and b differ only in the identity of their
// bound identifiers. Free identifiers must match exactly, and paired
// binders must agree on mutability: a var-set is only legal on a mutable
// identifier, so trees differing in a binder's flag are not
// interchangeable.
func AlphaEqual(a, b Expr) bool {
	return alphaEq(a, b, nil, nil)
}

func alphaEq(a, b Expr, ab, ba map[*Id]*Id) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	idEq := func(x, y *Id) bool {
		if m, ok := ab[x]; ok {
			return m == y && ba[y] == x
		}
		if _, bound := ba[y]; bound {
			return false
		}
		return x == y
	}
	switch x := a.(type) {
	case *Var:
		return idEq(x.Id, b.(*Var).Id)
	case *VarSet:
		y := b.(*VarSet)
		return idEq(x.Id, y.Id) && alphaEq(x.Value, y.Value, ab, ba)
	case *Lambda:
		y := b.(*Lambda)
		if len(x.Params) != len(y.Params) || (x.This == nil) != (y.This == nil) {
			return false
		}
		ab2, ba2 := copyRenaming(ab), copyRenaming(ba)
		if x.This != nil {
			if x.This.Mutable() != y.This.Mutable() {
				return false
			}
			ab2[x.This], ba2[y.This] = y.This, x.This
		}
		for i := range x.Params {
			if x.Params[i].Mutable() != y.Params[i].Mutable() {
				return false
			}
			ab2[x.Params[i]], ba2[y.Params[i]] = y.Params[i], x.Params[i]
		}
		return alphaEq(x.Body, y.Body, ab2, ba2)
	case *Constant:
		return x.Value == b.(*Constant).Value
	case *Global:
		y := b.(*Global)
		if len(x.Path) != len(y.Path) {
			return false
		}
		for i := range x.Path {
			if x.Path[i] != y.Path[i] {
				return false
			}
		}
		return true
	case *NewRegex:
		return x.Pattern == b.(*NewRegex).Pattern
	case *NewObject:
		y := b.(*NewObject)
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Key != y.Fields[i].Key {
				return false
			}
		}
	case *Binary:
		if x.Op != b.(*Binary).Op {
			return false
		}
	case *Unary:
		if x.Op != b.(*Unary).Op {
			return false
		}
	}
	// Remaining structure compares child-by-child through the normalized
	// view; binder wrappers line up and are handled by the Lambda case.
	ca, cb := Children(a), Children(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !alphaEq(ca[i], cb[i], ab, ba) {
			return false
		}
	}
	return true
}

func (s IdSet) copy() IdSet {
	out := NewIdSet()
	for id := range s.members {
		out.Add(id)
	}
	return out
}
