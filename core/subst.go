// subst.go: capture-avoiding substitution of free identifiers.
package core

// Substitute replaces every free occurrence of an identifier for which
// lookup returns a replacement with that replacement, everywhere in e.
// Binders shadow: within a binder's scope, its own identifier is never
// substituted. A binder that would capture a free identifier of a
// replacement expression is renamed first. Callers should alpha-normalize
// e whenever the replacements introduce free identifiers that could also
// occur as binders in e.
func Substitute(lookup func(*Id) (Expr, bool), e Expr) Expr {
	s := &substituter{lookup: lookup}
	return s.apply(e, NewIdSet(), nil)
}

// SubstituteId replaces free occurrences of a single identifier.
func SubstituteId(id *Id, replacement Expr, e Expr) Expr {
	return Substitute(func(x *Id) (Expr, bool) {
		if x == id {
			return replacement, true
		}
		return nil, false
	}, e)
}

type substituter struct {
	lookup func(*Id) (Expr, bool)
}

func (s *substituter) apply(e Expr, shadow IdSet, ren map[*Id]*Id) Expr {
	switch n := e.(type) {
	case *Var:
		if r, ok := ren[n.Id]; ok {
			return &Var{Id: r}
		}
		if shadow.Contains(n.Id) {
			return n
		}
		if v, ok := s.lookup(n.Id); ok {
			return v
		}
		return n
	case *VarSet:
		id := n.Id
		if r, ok := ren[id]; ok {
			id = r
		}
		return &VarSet{Id: id, Value: s.apply(n.Value, shadow, ren)}
	case *Lambda:
		binders := make([]*Id, 0, len(n.Params)+1)
		if n.This != nil {
			binders = append(binders, n.This)
		}
		binders = append(binders, n.Params...)
		shadow2, ren2 := s.enter(n.Body, binders, shadow, ren)
		this := replaced(ren2, n.This)
		params := make([]*Id, len(n.Params))
		for i, p := range n.Params {
			params[i] = replaced(ren2, p)
		}
		return &Lambda{This: this, Params: params, Body: s.apply(n.Body, shadow2, ren2)}
	case *Let:
		value := s.apply(n.Value, shadow, ren)
		shadow2, ren2 := s.enter(n.Body, []*Id{n.Id}, shadow, ren)
		return &Let{Id: replaced(ren2, n.Id), Value: value, Body: s.apply(n.Body, shadow2, ren2)}
	case *LetRecursive:
		ids := make([]*Id, len(n.Bindings))
		for i, b := range n.Bindings {
			ids[i] = b.Id
		}
		// Group binders scope over every value as well as the body.
		scope := n.Body
		for _, b := range n.Bindings {
			scope = &Sequential{First: b.Value, Second: scope}
		}
		shadow2, ren2 := s.enter(scope, ids, shadow, ren)
		bindings := make([]Binding, len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = Binding{Id: replaced(ren2, b.Id), Value: s.apply(b.Value, shadow2, ren2)}
		}
		return &LetRecursive{Bindings: bindings, Body: s.apply(n.Body, shadow2, ren2)}
	case *ForEachField:
		obj := s.apply(n.Obj, shadow, ren)
		shadow2, ren2 := s.enter(n.Body, []*Id{n.Id}, shadow, ren)
		return &ForEachField{Id: replaced(ren2, n.Id), Obj: obj, Body: s.apply(n.Body, shadow2, ren2)}
	case *ForIntegerRange:
		lo := s.apply(n.Lo, shadow, ren)
		hi := s.apply(n.Hi, shadow, ren)
		shadow2, ren2 := s.enter(n.Body, []*Id{n.Id}, shadow, ren)
		return &ForIntegerRange{Id: replaced(ren2, n.Id), Lo: lo, Hi: hi, Body: s.apply(n.Body, shadow2, ren2)}
	case *TryWith:
		body := s.apply(n.Body, shadow, ren)
		shadow2, ren2 := s.enter(n.Handler, []*Id{n.Id}, shadow, ren)
		return &TryWith{Body: body, Id: replaced(ren2, n.Id), Handler: s.apply(n.Handler, shadow2, ren2)}
	default:
		return Transform(func(c Expr) Expr { return s.apply(c, shadow, ren) }, e)
	}
}

// enter computes the shadow set and binder renaming for one scope. A
// binder is renamed when some replacement that can fire inside the scope
// has the binder among its free identifiers (capture avoidance).
func (s *substituter) enter(scope Expr, binders []*Id, shadow IdSet, ren map[*Id]*Id) (IdSet, map[*Id]*Id) {
	shadow2 := shadow.copy()
	for _, b := range binders {
		shadow2.Add(b)
	}
	var incoming IdSet
	haveIncoming := false
	for _, id := range GetFreeIds(scope).Ids() {
		if shadow2.Contains(id) {
			continue
		}
		if _, renamed := ren[id]; renamed {
			continue
		}
		if v, ok := s.lookup(id); ok {
			if !haveIncoming {
				incoming = NewIdSet()
				haveIncoming = true
			}
			for _, fv := range GetFreeIds(v).Ids() {
				incoming.Add(fv)
			}
		}
	}
	if !haveIncoming {
		return shadow2, ren
	}
	ren2 := ren
	copied := false
	for _, b := range binders {
		if incoming.Contains(b) {
			if !copied {
				ren2 = copyRenaming(ren)
				copied = true
			}
			ren2[b] = b.Clone()
		}
	}
	return shadow2, ren2
}

func replaced(ren map[*Id]*Id, id *Id) *Id {
	if id == nil {
		return nil
	}
	if r, ok := ren[id]; ok {
		return r
	}
	return id
}
