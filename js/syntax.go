// Package js models the subset of JavaScript syntax the core elaborates
// into and the recognizer reads back. The tree is printable with
// WriteProgram/WriteExpr; semantic analysis stays in the core package.
package js

// Expr is a JavaScript expression node.
type Expr interface {
	jsExpr()
}

// Stmt is a JavaScript statement node.
type Stmt interface {
	jsStmt()
}

// Program is a statement list, the unit of output.
type Program struct {
	Body []Stmt
}

// This is the receiver reference.
type This struct{}

// Ident references a name.
type Ident struct {
	Name string
}

// Number is a numeric literal, held in source form.
type Number struct {
	Value string
}

// Str is a string literal (unescaped value).
type Str struct {
	Value string
}

// Bool is true or false.
type Bool struct {
	Value bool
}

// Null is the null literal.
type Null struct{}

// Unary applies a prefix operator ("!", "-", "~", "+", "typeof", "void",
// "delete").
type Unary struct {
	Op   string
	Expr Expr
}

// Binary applies an infix operator, including the comma operator.
type Binary struct {
	Left  Expr
	Op    string
	Right Expr
}

// Conditional is cond ? then : else.
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Assign is target = value; Target is an Ident, Member or Index.
type Assign struct {
	Target Expr
	Value  Expr
}

// Member is obj.Name (Name is a valid identifier).
type Member struct {
	Obj  Expr
	Name string
}

// Index is obj[key].
type Index struct {
	Obj Expr
	Key Expr
}

// Call applies a callee to arguments.
type Call struct {
	Callee Expr
	Args   []Expr
}

// New is a constructor application.
type New struct {
	Ctor Expr
	Args []Expr
}

// Func is a function expression.
type Func struct {
	Name   string // optional
	Params []string
	Body   []Stmt
}

// Array is an array literal.
type Array struct {
	Elems []Expr
}

// Prop is one key/value pair of an object literal.
type Prop struct {
	Key   string
	Value Expr
}

// Object is an object literal.
type Object struct {
	Props []Prop
}

// Regex is a regular expression literal in source form, e.g. "/a+/".
type Regex struct {
	Pattern string
}

func (*This) jsExpr()        {}
func (*Ident) jsExpr()       {}
func (*Number) jsExpr()      {}
func (*Str) jsExpr()         {}
func (*Bool) jsExpr()        {}
func (*Null) jsExpr()        {}
func (*Unary) jsExpr()       {}
func (*Binary) jsExpr()      {}
func (*Conditional) jsExpr() {}
func (*Assign) jsExpr()      {}
func (*Member) jsExpr()      {}
func (*Index) jsExpr()       {}
func (*Call) jsExpr()        {}
func (*New) jsExpr()         {}
func (*Func) jsExpr()        {}
func (*Array) jsExpr()       {}
func (*Object) jsExpr()      {}
func (*Regex) jsExpr()       {}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	Expr Expr
}

// VarDecl declares one variable with an optional initializer.
type VarDecl struct {
	Name string
	Init Expr // may be nil
}

// Return exits the enclosing function with an optional value.
type Return struct {
	Value Expr // may be nil
}

// If is the conditional statement; Else may be empty.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// While is the standard loop.
type While struct {
	Cond Expr
	Body []Stmt
}

// For is the counting loop `for (var Name = Init; Cond; Post) ...`.
type For struct {
	Name string
	Init Expr
	Cond Expr
	Post Expr
	Body []Stmt
}

// ForIn iterates enumerable property keys.
type ForIn struct {
	Name string
	Obj  Expr
	Body []Stmt
}

// Block groups statements.
type Block struct {
	Body []Stmt
}

// Throw raises a value.
type Throw struct {
	Value Expr
}

// Try is try/catch/finally; Param is empty when there is no catch clause,
// Finally may be empty.
type Try struct {
	Body    []Stmt
	Param   string
	Catch   []Stmt
	Finally []Stmt
}

// Empty is the empty statement.
type Empty struct{}

func (*ExprStmt) jsStmt() {}
func (*VarDecl) jsStmt()  {}
func (*Return) jsStmt()   {}
func (*If) jsStmt()       {}
func (*While) jsStmt()    {}
func (*For) jsStmt()      {}
func (*ForIn) jsStmt()    {}
func (*Block) jsStmt()    {}
func (*Throw) jsStmt()    {}
func (*Try) jsStmt()      {}
func (*Empty) jsStmt()    {}

// Reserved reports whether name may not be used as a binding in the
// output language (keywords, future reserved words, and the handful of
// globals that behave like keywords).
func Reserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

var reservedWords = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {},
	"continue": {}, "debugger": {}, "default": {}, "delete": {}, "do": {},
	"else": {}, "enum": {}, "export": {}, "extends": {}, "false": {},
	"finally": {}, "for": {}, "function": {}, "if": {}, "implements": {},
	"import": {}, "in": {}, "instanceof": {}, "interface": {}, "let": {},
	"new": {}, "null": {}, "package": {}, "private": {}, "protected": {},
	"public": {}, "return": {}, "static": {}, "super": {}, "switch": {},
	"this": {}, "throw": {}, "true": {}, "try": {}, "typeof": {},
	"undefined": {}, "var": {}, "void": {}, "while": {}, "with": {},
	"yield": {}, "arguments": {}, "eval": {},
}
