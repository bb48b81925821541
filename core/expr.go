// expr.go: the closed expression algebra of the IR.
//
// Nodes are immutable by convention: passes never mutate a node in place,
// they rebuild. Subtrees may therefore be shared freely. Identifier
// references (Var/VarSet and the binder fields) carry *Id tokens compared
// by allocation identity, never by name.
package core

// Expr is the interface closed over every IR node kind.
type Expr interface {
	exprNode()
}

// UnaryOp tags the prefix operators.
type UnaryOp int

const (
	UnaryBitwiseNot UnaryOp = iota
	UnaryNegate
	UnaryNot
	UnaryPlus
	UnaryTypeof
	UnaryVoid
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryBitwiseNot:
		return "~"
	case UnaryNegate:
		return "-"
	case UnaryNot:
		return "!"
	case UnaryPlus:
		return "+"
	case UnaryTypeof:
		return "typeof"
	case UnaryVoid:
		return "void"
	default:
		return "?"
	}
}

// BinaryOp tags the binary operators: the output language's binary
// operators excluding assignment, sequence and member access.
type BinaryOp int

const (
	BinaryNotEquals BinaryOp = iota
	BinaryNotEqualsStrict
	BinaryModulo
	BinaryAnd
	BinaryBitwiseAnd
	BinaryMultiply
	BinaryAdd
	BinarySubtract
	BinaryDivide
	BinaryShiftLeft
	BinaryLessOrEqual
	BinaryLess
	BinaryEqualsStrict
	BinaryEquals
	BinaryGreaterOrEqual
	BinaryUnsignedShiftRight
	BinaryShiftRight
	BinaryGreater
	BinaryBitwiseXor
	BinaryIn
	BinaryInstanceOf
	BinaryBitwiseOr
	BinaryOr
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryNotEquals:
		return "!="
	case BinaryNotEqualsStrict:
		return "!=="
	case BinaryModulo:
		return "%"
	case BinaryAnd:
		return "&&"
	case BinaryBitwiseAnd:
		return "&"
	case BinaryMultiply:
		return "*"
	case BinaryAdd:
		return "+"
	case BinarySubtract:
		return "-"
	case BinaryDivide:
		return "/"
	case BinaryShiftLeft:
		return "<<"
	case BinaryLessOrEqual:
		return "<="
	case BinaryLess:
		return "<"
	case BinaryEqualsStrict:
		return "==="
	case BinaryEquals:
		return "=="
	case BinaryGreaterOrEqual:
		return ">="
	case BinaryUnsignedShiftRight:
		return ">>>"
	case BinaryShiftRight:
		return ">>"
	case BinaryGreater:
		return ">"
	case BinaryBitwiseXor:
		return "^"
	case BinaryIn:
		return "in"
	case BinaryInstanceOf:
		return "instanceof"
	case BinaryBitwiseOr:
		return "|"
	case BinaryOr:
		return "||"
	default:
		return "?"
	}
}

// Application calls a function value with arguments.
type Application struct {
	Func Expr
	Args []Expr
}

// Binary combines two operands with a BinaryOp.
type Binary struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

// Call invokes a method on a receiver, threading the receiver for
// this-style dispatch; distinct from Application on a FieldGet.
type Call struct {
	This Expr
	Func Expr
	Args []Expr
}

// Constant lifts a Literal into the algebra.
type Constant struct {
	Value Literal
}

// FieldDelete removes a property from an object.
type FieldDelete struct {
	Obj Expr
	Key Expr
}

// FieldGet reads a property.
type FieldGet struct {
	Obj Expr
	Key Expr
}

// FieldSet writes a property and yields the written value.
type FieldSet struct {
	Obj   Expr
	Key   Expr
	Value Expr
}

// ForEachField iterates the enumerable property keys of Obj, binding each
// key to Id around Body.
type ForEachField struct {
	Id   *Id
	Obj  Expr
	Body Expr
}

// ForIntegerRange iterates Id from Lo to Hi inclusive around Body.
type ForIntegerRange struct {
	Id   *Id
	Lo   Expr
	Hi   Expr
	Body Expr
}

// Global references a host binding by dotted path from the global object.
type Global struct {
	Path []string
}

// IfThenElse is the conditional expression.
type IfThenElse struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Lambda is the canonical variable-binding form. This is optional and
// binds the receiver; Params bind positionally.
type Lambda struct {
	This   *Id
	Params []*Id
	Body   Expr
}

// Let binds Id to Value around Body.
type Let struct {
	Id    *Id
	Value Expr
	Body  Expr
}

// Binding is one (name, value) pair of a recursive group.
type Binding struct {
	Id    *Id
	Value Expr
}

// LetRecursive binds a mutually recursive group around Body; every
// binding's value may reference any binder of the group.
type LetRecursive struct {
	Bindings []Binding
	Body     Expr
}

// New constructs an object from a constructor function.
type New struct {
	Ctor Expr
	Args []Expr
}

// NewArray is an array literal.
type NewArray struct {
	Elems []Expr
}

// Field is one (key, value) pair of an object literal.
type Field struct {
	Key   string
	Value Expr
}

// NewObject is an object literal.
type NewObject struct {
	Fields []Field
}

// NewRegex is a regular expression literal, pattern given in source form.
type NewRegex struct {
	Pattern string
}

// Runtime is the opaque reference to the runtime-support value.
type Runtime struct{}

// Sequential evaluates First, discards it, and yields Second.
type Sequential struct {
	First  Expr
	Second Expr
}

// Throw raises Value.
type Throw struct {
	Value Expr
}

// TryFinally runs Body, then Finalizer regardless of outcome.
type TryFinally struct {
	Body      Expr
	Finalizer Expr
}

// TryWith runs Body; on a raised value, binds it to Id around Handler.
type TryWith struct {
	Body    Expr
	Id      *Id
	Handler Expr
}

// Unary applies a prefix operator.
type Unary struct {
	Op   UnaryOp
	Expr Expr
}

// Var reads an identifier.
type Var struct {
	Id *Id
}

// VarSet writes an identifier; well-formed only when Id.Mutable() holds.
type VarSet struct {
	Id    *Id
	Value Expr
}

// WhileLoop evaluates Body while Cond holds; yields undefined.
type WhileLoop struct {
	Cond Expr
	Body Expr
}

func (*Application) exprNode()     {}
func (*Binary) exprNode()          {}
func (*Call) exprNode()            {}
func (*Constant) exprNode()        {}
func (*FieldDelete) exprNode()     {}
func (*FieldGet) exprNode()        {}
func (*FieldSet) exprNode()        {}
func (*ForEachField) exprNode()    {}
func (*ForIntegerRange) exprNode() {}
func (*Global) exprNode()          {}
func (*IfThenElse) exprNode()      {}
func (*Lambda) exprNode()          {}
func (*Let) exprNode()             {}
func (*LetRecursive) exprNode()    {}
func (*New) exprNode()             {}
func (*NewArray) exprNode()        {}
func (*NewObject) exprNode()       {}
func (*NewRegex) exprNode()        {}
func (*Runtime) exprNode()         {}
func (*Sequential) exprNode()      {}
func (*Throw) exprNode()           {}
func (*TryFinally) exprNode()      {}
func (*TryWith) exprNode()         {}
func (*Unary) exprNode()           {}
func (*Var) exprNode()             {}
func (*VarSet) exprNode()          {}
func (*WhileLoop) exprNode()       {}
