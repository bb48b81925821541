// errors.go: typed errors surfaced at the elaboration boundary.
//
// The analysis functions in this package are total on well-formed trees
// and return no errors; malformed trees (a var-set on an immutable
// identifier, a free identifier with no external binding) surface here as
// *ElabError when the tree is lowered to output syntax.
package core

import "fmt"

// ElabError reports a malformed tree detected during elaboration.
type ElabError struct {
	Msg string
}

func (e *ElabError) Error() string { return "elaborate: " + e.Msg }

// elabFail aborts the current elaboration; ToProgram/ToExpression recover
// it into an ordinary error return.
func elabFail(format string, args ...any) {
	panic(&ElabError{Msg: fmt.Sprintf(format, args...)})
}
