// eval_test.go: a minimal reference interpreter for the expression
// algebra, used to check that rewrites preserve behavior. It covers only
// the forms the optimizer tests exercise and is strict where the output
// language would coerce.
package core

import (
	"fmt"
	"testing"
)

type evalValue interface{}

type undefinedValue struct{}

type closureValue struct {
	lam *Lambda
	ev  *evaluator
}

type evaluator struct {
	cells map[*Id]*evalValue
	steps int
}

func newEvaluator() *evaluator {
	return &evaluator{cells: map[*Id]*evalValue{}}
}

func evalExpr(t *testing.T, e Expr) evalValue {
	t.Helper()
	ev := newEvaluator()
	v, err := ev.eval(e)
	if err != nil {
		t.Fatalf("eval: %v\nin:\n%s", err, Format(e))
	}
	return v
}

func (ev *evaluator) bind(id *Id, v evalValue) (restore func()) {
	old, had := ev.cells[id]
	cell := &v
	ev.cells[id] = cell
	return func() {
		if had {
			ev.cells[id] = old
		} else {
			delete(ev.cells, id)
		}
	}
}

func (ev *evaluator) eval(e Expr) (evalValue, error) {
	ev.steps++
	if ev.steps > 1_000_000 {
		return nil, fmt.Errorf("step budget exhausted")
	}
	switch n := e.(type) {
	case *Constant:
		return literalValue(n.Value), nil
	case *Var:
		cell, ok := ev.cells[n.Id]
		if !ok {
			return nil, fmt.Errorf("unbound %s", n.Id)
		}
		return *cell, nil
	case *VarSet:
		cell, ok := ev.cells[n.Id]
		if !ok {
			return nil, fmt.Errorf("set of unbound %s", n.Id)
		}
		v, err := ev.eval(n.Value)
		if err != nil {
			return nil, err
		}
		*cell = v
		return v, nil
	case *Lambda:
		return closureValue{lam: n, ev: ev}, nil
	case *Application:
		fv, err := ev.eval(n.Func)
		if err != nil {
			return nil, err
		}
		cl, ok := fv.(closureValue)
		if !ok {
			return nil, fmt.Errorf("apply of non-function %T", fv)
		}
		if len(n.Args) != len(cl.lam.Params) {
			return nil, fmt.Errorf("arity %d vs %d", len(n.Args), len(cl.lam.Params))
		}
		args := make([]evalValue, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = ev.eval(a); err != nil {
				return nil, err
			}
		}
		restores := make([]func(), len(args))
		for i, p := range cl.lam.Params {
			restores[i] = ev.bind(p, args[i])
		}
		out, err := ev.eval(cl.lam.Body)
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return out, err
	case *Let:
		v, err := ev.eval(n.Value)
		if err != nil {
			return nil, err
		}
		restore := ev.bind(n.Id, v)
		defer restore()
		return ev.eval(n.Body)
	case *LetRecursive:
		restores := make([]func(), len(n.Bindings))
		for i, b := range n.Bindings {
			restores[i] = ev.bind(b.Id, undefinedValue{})
		}
		defer func() {
			for i := len(restores) - 1; i >= 0; i-- {
				restores[i]()
			}
		}()
		for _, b := range n.Bindings {
			v, err := ev.eval(b.Value)
			if err != nil {
				return nil, err
			}
			*ev.cells[b.Id] = v
		}
		return ev.eval(n.Body)
	case *IfThenElse:
		c, err := ev.eval(n.Cond)
		if err != nil {
			return nil, err
		}
		b, ok := c.(bool)
		if !ok {
			return nil, fmt.Errorf("condition is %T, not bool", c)
		}
		if b {
			return ev.eval(n.Then)
		}
		return ev.eval(n.Else)
	case *Sequential:
		if _, err := ev.eval(n.First); err != nil {
			return nil, err
		}
		return ev.eval(n.Second)
	case *WhileLoop:
		for {
			c, err := ev.eval(n.Cond)
			if err != nil {
				return nil, err
			}
			b, ok := c.(bool)
			if !ok {
				return nil, fmt.Errorf("loop condition is %T, not bool", c)
			}
			if !b {
				return undefinedValue{}, nil
			}
			if _, err := ev.eval(n.Body); err != nil {
				return nil, err
			}
		}
	case *Binary:
		l, err := ev.eval(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := ev.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return applyBinary(l, n.Op, r)
	case *Unary:
		v, err := ev.eval(n.Expr)
		if err != nil {
			return nil, err
		}
		return applyUnary(n.Op, v)
	default:
		return nil, fmt.Errorf("eval does not cover %T", e)
	}
}

func literalValue(l Literal) evalValue {
	switch l.Kind {
	case LInteger:
		return l.Int
	case LDouble:
		return l.Dbl
	case LString:
		return l.Str
	case LTrue:
		return true
	case LFalse:
		return false
	case LNull:
		return nil
	default:
		return undefinedValue{}
	}
}

func applyBinary(l evalValue, op BinaryOp, r evalValue) (evalValue, error) {
	if a, ok := l.(int64); ok {
		if b, ok := r.(int64); ok {
			switch op {
			case BinaryAdd:
				return a + b, nil
			case BinarySubtract:
				return a - b, nil
			case BinaryMultiply:
				return a * b, nil
			case BinaryLess:
				return a < b, nil
			case BinaryLessOrEqual:
				return a <= b, nil
			case BinaryGreater:
				return a > b, nil
			case BinaryGreaterOrEqual:
				return a >= b, nil
			case BinaryEquals, BinaryEqualsStrict:
				return a == b, nil
			case BinaryNotEquals, BinaryNotEqualsStrict:
				return a != b, nil
			}
		}
	}
	if a, ok := l.(string); ok {
		if b, ok := r.(string); ok {
			switch op {
			case BinaryAdd:
				return a + b, nil
			case BinaryEquals, BinaryEqualsStrict:
				return a == b, nil
			case BinaryNotEquals, BinaryNotEqualsStrict:
				return a != b, nil
			}
		}
	}
	if a, ok := l.(bool); ok {
		if b, ok := r.(bool); ok {
			switch op {
			case BinaryAnd:
				return a && b, nil
			case BinaryOr:
				return a || b, nil
			}
		}
	}
	return nil, fmt.Errorf("binary %s on %T and %T", op, l, r)
}

func applyUnary(op UnaryOp, v evalValue) (evalValue, error) {
	switch op {
	case UnaryNot:
		if b, ok := v.(bool); ok {
			return !b, nil
		}
	case UnaryNegate:
		if i, ok := v.(int64); ok {
			return -i, nil
		}
		if f, ok := v.(float64); ok {
			return -f, nil
		}
	}
	return nil, fmt.Errorf("unary %s on %T", op, v)
}
