package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeroldhaas/websharper/core"
)

// The REPL and compile command accept the same s-expression form the
// library's Format produces: (lambda (x) ...), (let x v body),
// (apply f a ...), operators by their output spelling, and so on.
// Identifier occurrences may carry a #n suffix, which the reader strips;
// binding is purely lexical and every bound name is assignable. A bare
// unbound name reads as a global reference.

var errIncomplete = errors.New("unexpected end of input")

func isIncomplete(err error) bool { return errors.Is(err, errIncomplete) }

type token struct {
	kind byte // '(' ')' '[' ']' 's' string 'a' atom
	text string
	line int
}

type reader struct {
	toks   []token
	pos    int
	scopes []map[string]*core.Id
}

// readExpr parses one expression from src.
func readExpr(src string) (core.Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	r := &reader{toks: toks, scopes: []map[string]*core.Id{{}}}
	e, err := r.expr()
	if err != nil {
		return nil, err
	}
	if r.pos < len(r.toks) {
		return nil, fmt.Errorf("line %d: trailing input after expression", r.toks[r.pos].line)
	}
	return e, nil
}

func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(' || c == ')' || c == '[' || c == ']':
			toks = append(toks, token{kind: c, line: line})
			i++
		case c == '"':
			var b strings.Builder
			i++
			for {
				if i >= len(src) {
					return nil, fmt.Errorf("line %d: unterminated string: %w", line, errIncomplete)
				}
				ch := src[i]
				if ch == '"' {
					i++
					break
				}
				if ch == '\\' && i+1 < len(src) {
					i++
					switch src[i] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					case 'r':
						b.WriteByte('\r')
					default:
						b.WriteByte(src[i])
					}
					i++
					continue
				}
				if ch == '\n' {
					line++
				}
				b.WriteByte(ch)
				i++
			}
			toks = append(toks, token{kind: 's', text: b.String(), line: line})
		default:
			j := i
			for j < len(src) && !strings.ContainsRune(" \t\r\n()[];\"", rune(src[j])) {
				j++
			}
			toks = append(toks, token{kind: 'a', text: src[i:j], line: line})
			i = j
		}
	}
	return toks, nil
}

func (r *reader) peek() (token, error) {
	if r.pos >= len(r.toks) {
		return token{}, errIncomplete
	}
	return r.toks[r.pos], nil
}

func (r *reader) next() (token, error) {
	t, err := r.peek()
	if err == nil {
		r.pos++
	}
	return t, err
}

func (r *reader) expect(kind byte) error {
	t, err := r.next()
	if err != nil {
		return err
	}
	if t.kind != kind {
		return fmt.Errorf("line %d: expected %q, found %q", t.line, string(kind), t.text)
	}
	return nil
}

func (r *reader) push() { r.scopes = append(r.scopes, map[string]*core.Id{}) }
func (r *reader) pop()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *reader) bind(name string) *core.Id {
	id := core.NewMutableId(name)
	r.scopes[len(r.scopes)-1][name] = id
	return id
}

func (r *reader) resolve(name string) (*core.Id, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if id, ok := r.scopes[i][name]; ok {
			return id, true
		}
	}
	return nil, false
}

// baseName strips a #n ordering suffix from a formatted identifier.
func baseName(s string) string {
	if i := strings.LastIndexByte(s, '#'); i > 0 {
		if _, err := strconv.Atoi(s[i+1:]); err == nil {
			return s[:i]
		}
	}
	return s
}

func (r *reader) name() (string, error) {
	t, err := r.next()
	if err != nil {
		return "", err
	}
	if t.kind != 'a' {
		return "", fmt.Errorf("line %d: expected a name", t.line)
	}
	return baseName(t.text), nil
}

func (r *reader) expr() (core.Expr, error) {
	t, err := r.next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case 's':
		return core.String(t.text).Expr(), nil
	case 'a':
		return r.atom(t)
	case '(':
		return r.form(t.line)
	default:
		return nil, fmt.Errorf("line %d: unexpected %q", t.line, string(t.kind))
	}
}

func (r *reader) atom(t token) (core.Expr, error) {
	switch t.text {
	case "true":
		return core.Bool(true).Expr(), nil
	case "false":
		return core.Bool(false).Expr(), nil
	case "null":
		return core.Null.Expr(), nil
	case "undefined":
		return core.Undefined.Expr(), nil
	}
	if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
		return core.Integer(i).Expr(), nil
	}
	if f, err := strconv.ParseFloat(t.text, 64); err == nil {
		return core.Double(f).Expr(), nil
	}
	name := baseName(t.text)
	if id, ok := r.resolve(name); ok {
		return &core.Var{Id: id}, nil
	}
	return &core.Global{Path: []string{name}}, nil
}

func (r *reader) form(line int) (core.Expr, error) {
	head, err := r.next()
	if err != nil {
		return nil, err
	}
	if head.kind != 'a' {
		return nil, fmt.Errorf("line %d: expected a form head", head.line)
	}
	switch head.text {
	case "global":
		t, err := r.peek()
		if err != nil {
			return nil, err
		}
		if t.kind == ')' {
			r.pos++
			return &core.Global{}, nil
		}
		n, err := r.name()
		if err != nil {
			return nil, err
		}
		return &core.Global{Path: strings.Split(n, ".")}, r.expect(')')
	case "runtime":
		return &core.Runtime{}, r.expect(')')
	case "regex":
		t, err := r.next()
		if err != nil {
			return nil, err
		}
		if t.kind != 'a' && t.kind != 's' {
			return nil, fmt.Errorf("line %d: expected a regex pattern", t.line)
		}
		return &core.NewRegex{Pattern: t.text}, r.expect(')')
	case "lambda":
		return r.lambda()
	case "apply":
		f, args, err := r.exprTail(1)
		if err != nil {
			return nil, err
		}
		return &core.Application{Func: f[0], Args: args}, nil
	case "call":
		f, args, err := r.exprTail(2)
		if err != nil {
			return nil, err
		}
		return &core.Call{This: f[0], Func: f[1], Args: args}, nil
	case "new":
		f, args, err := r.exprTail(1)
		if err != nil {
			return nil, err
		}
		return &core.New{Ctor: f[0], Args: args}, nil
	case "let":
		return r.let()
	case "letrec":
		return r.letrec()
	case "set":
		n, err := r.name()
		if err != nil {
			return nil, err
		}
		id, ok := r.resolve(n)
		if !ok {
			return nil, fmt.Errorf("line %d: set of unbound name %q", line, n)
		}
		v, err := r.expr()
		if err != nil {
			return nil, err
		}
		return &core.VarSet{Id: id, Value: v}, r.expect(')')
	case "if":
		xs, _, err := r.exprTail(3)
		if err != nil {
			return nil, err
		}
		return &core.IfThenElse{Cond: xs[0], Then: xs[1], Else: xs[2]}, nil
	case "seq":
		xs, _, err := r.exprTail(2)
		if err != nil {
			return nil, err
		}
		return &core.Sequential{First: xs[0], Second: xs[1]}, nil
	case "while":
		xs, _, err := r.exprTail(2)
		if err != nil {
			return nil, err
		}
		return &core.WhileLoop{Cond: xs[0], Body: xs[1]}, nil
	case "get":
		xs, _, err := r.exprTail(2)
		if err != nil {
			return nil, err
		}
		return &core.FieldGet{Obj: xs[0], Key: xs[1]}, nil
	case "put":
		xs, _, err := r.exprTail(3)
		if err != nil {
			return nil, err
		}
		return &core.FieldSet{Obj: xs[0], Key: xs[1], Value: xs[2]}, nil
	case "delete":
		xs, _, err := r.exprTail(2)
		if err != nil {
			return nil, err
		}
		return &core.FieldDelete{Obj: xs[0], Key: xs[1]}, nil
	case "array":
		xs, rest, err := r.exprTail(0)
		if err != nil {
			return nil, err
		}
		return &core.NewArray{Elems: append(xs, rest...)}, nil
	case "object":
		return r.object()
	case "throw":
		xs, _, err := r.exprTail(1)
		if err != nil {
			return nil, err
		}
		return &core.Throw{Value: xs[0]}, nil
	case "try-with":
		return r.tryWith()
	case "try-finally":
		xs, _, err := r.exprTail(2)
		if err != nil {
			return nil, err
		}
		return &core.TryFinally{Body: xs[0], Finalizer: xs[1]}, nil
	case "for-field":
		return r.forField()
	case "for-range":
		return r.forRange()
	default:
		return r.operator(head, line)
	}
}

// exprTail reads at least min expressions up to the closing paren and
// returns the first min separately from the rest.
func (r *reader) exprTail(min int) ([]core.Expr, []core.Expr, error) {
	var xs []core.Expr
	for {
		t, err := r.peek()
		if err != nil {
			return nil, nil, err
		}
		if t.kind == ')' {
			r.pos++
			break
		}
		e, err := r.expr()
		if err != nil {
			return nil, nil, err
		}
		xs = append(xs, e)
	}
	if len(xs) < min {
		return nil, nil, fmt.Errorf("form needs at least %d parts, found %d", min, len(xs))
	}
	return xs[:min], xs[min:], nil
}

func (r *reader) lambda() (core.Expr, error) {
	var thisId *core.Id
	t, err := r.peek()
	if err != nil {
		return nil, err
	}
	r.push()
	defer r.pop()
	if t.kind == '[' {
		r.pos++
		if n, err := r.name(); err != nil || n != "this" {
			return nil, fmt.Errorf("line %d: expected [this name]", t.line)
		}
		n, err := r.name()
		if err != nil {
			return nil, err
		}
		thisId = r.bind(n)
		if err := r.expect(']'); err != nil {
			return nil, err
		}
	}
	if err := r.expect('('); err != nil {
		return nil, err
	}
	var params []*core.Id
	for {
		t, err := r.peek()
		if err != nil {
			return nil, err
		}
		if t.kind == ')' {
			r.pos++
			break
		}
		n, err := r.name()
		if err != nil {
			return nil, err
		}
		params = append(params, r.bind(n))
	}
	body, err := r.expr()
	if err != nil {
		return nil, err
	}
	return &core.Lambda{This: thisId, Params: params, Body: body}, r.expect(')')
}

func (r *reader) let() (core.Expr, error) {
	n, err := r.name()
	if err != nil {
		return nil, err
	}
	value, err := r.expr()
	if err != nil {
		return nil, err
	}
	r.push()
	defer r.pop()
	id := r.bind(n)
	body, err := r.expr()
	if err != nil {
		return nil, err
	}
	return &core.Let{Id: id, Value: value, Body: body}, r.expect(')')
}

func (r *reader) letrec() (core.Expr, error) {
	r.push()
	defer r.pop()
	var names []string
	var values []core.Expr
	// First collect the binding heads so every value sees every name.
	start := r.pos
	for {
		t, err := r.peek()
		if err != nil {
			return nil, err
		}
		if t.kind != '(' {
			break
		}
		r.pos++
		n, err := r.name()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		if err := r.skip(); err != nil {
			return nil, err
		}
		if err := r.expect(')'); err != nil {
			return nil, err
		}
	}
	end := r.pos
	ids := make([]*core.Id, len(names))
	for i, n := range names {
		ids[i] = r.bind(n)
	}
	r.pos = start
	for range names {
		r.pos++ // '('
		if _, err := r.name(); err != nil {
			return nil, err
		}
		v, err := r.expr()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if err := r.expect(')'); err != nil {
			return nil, err
		}
	}
	if r.pos != end {
		return nil, fmt.Errorf("malformed letrec bindings")
	}
	body, err := r.expr()
	if err != nil {
		return nil, err
	}
	bindings := make([]core.Binding, len(ids))
	for i := range ids {
		bindings[i] = core.Binding{Id: ids[i], Value: values[i]}
	}
	return &core.LetRecursive{Bindings: bindings, Body: body}, r.expect(')')
}

// skip advances over one balanced expression without building it.
func (r *reader) skip() error {
	depth := 0
	for {
		t, err := r.next()
		if err != nil {
			return err
		}
		switch t.kind {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return fmt.Errorf("line %d: unexpected close", t.line)
			}
		}
		if depth == 0 && t.kind != '(' && t.kind != '[' {
			return nil
		}
		if depth == 0 && (t.kind == ')' || t.kind == ']') {
			return nil
		}
	}
}

func (r *reader) object() (core.Expr, error) {
	var fields []core.Field
	for {
		t, err := r.peek()
		if err != nil {
			return nil, err
		}
		if t.kind == ')' {
			r.pos++
			break
		}
		if err := r.expect('('); err != nil {
			return nil, err
		}
		key, err := r.next()
		if err != nil {
			return nil, err
		}
		if key.kind != 's' && key.kind != 'a' {
			return nil, fmt.Errorf("line %d: expected a field key", key.line)
		}
		v, err := r.expr()
		if err != nil {
			return nil, err
		}
		if err := r.expect(')'); err != nil {
			return nil, err
		}
		fields = append(fields, core.Field{Key: key.text, Value: v})
	}
	return &core.NewObject{Fields: fields}, nil
}

func (r *reader) tryWith() (core.Expr, error) {
	n, err := r.name()
	if err != nil {
		return nil, err
	}
	body, err := r.expr()
	if err != nil {
		return nil, err
	}
	r.push()
	defer r.pop()
	id := r.bind(n)
	handler, err := r.expr()
	if err != nil {
		return nil, err
	}
	return &core.TryWith{Body: body, Id: id, Handler: handler}, r.expect(')')
}

func (r *reader) forField() (core.Expr, error) {
	n, err := r.name()
	if err != nil {
		return nil, err
	}
	obj, err := r.expr()
	if err != nil {
		return nil, err
	}
	r.push()
	defer r.pop()
	id := r.bind(n)
	body, err := r.expr()
	if err != nil {
		return nil, err
	}
	return &core.ForEachField{Id: id, Obj: obj, Body: body}, r.expect(')')
}

func (r *reader) forRange() (core.Expr, error) {
	n, err := r.name()
	if err != nil {
		return nil, err
	}
	lo, err := r.expr()
	if err != nil {
		return nil, err
	}
	hi, err := r.expr()
	if err != nil {
		return nil, err
	}
	r.push()
	defer r.pop()
	id := r.bind(n)
	body, err := r.expr()
	if err != nil {
		return nil, err
	}
	return &core.ForIntegerRange{Id: id, Lo: lo, Hi: hi, Body: body}, r.expect(')')
}

var readBinaryOps = map[string]core.BinaryOp{
	"!=": core.BinaryNotEquals, "!==": core.BinaryNotEqualsStrict,
	"%": core.BinaryModulo, "&&": core.BinaryAnd, "&": core.BinaryBitwiseAnd,
	"*": core.BinaryMultiply, "+": core.BinaryAdd, "-": core.BinarySubtract,
	"/": core.BinaryDivide, "<<": core.BinaryShiftLeft,
	"<=": core.BinaryLessOrEqual, "<": core.BinaryLess,
	"===": core.BinaryEqualsStrict, "==": core.BinaryEquals,
	">=": core.BinaryGreaterOrEqual, ">>>": core.BinaryUnsignedShiftRight,
	">>": core.BinaryShiftRight, ">": core.BinaryGreater,
	"^": core.BinaryBitwiseXor, "in": core.BinaryIn,
	"instanceof": core.BinaryInstanceOf, "|": core.BinaryBitwiseOr,
	"||": core.BinaryOr,
}

var readUnaryOps = map[string]core.UnaryOp{
	"~": core.UnaryBitwiseNot, "-": core.UnaryNegate, "!": core.UnaryNot,
	"+": core.UnaryPlus, "typeof": core.UnaryTypeof, "void": core.UnaryVoid,
}

func (r *reader) operator(head token, line int) (core.Expr, error) {
	xs, rest, err := r.exprTail(1)
	if err != nil {
		return nil, err
	}
	args := append(xs, rest...)
	if len(args) == 1 {
		if op, ok := readUnaryOps[head.text]; ok {
			return &core.Unary{Op: op, Expr: args[0]}, nil
		}
		return nil, fmt.Errorf("line %d: unknown form %q", line, head.text)
	}
	if len(args) == 2 {
		if op, ok := readBinaryOps[head.text]; ok {
			return &core.Binary{Left: args[0], Op: op, Right: args[1]}, nil
		}
	}
	return nil, fmt.Errorf("line %d: unknown form %q", line, head.text)
}
