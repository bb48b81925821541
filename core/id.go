// id.go: reference-identity tokens for bound names.
//
// Every binder in the expression algebra (lambda parameter, let binding,
// loop variable, exception variable) introduces an *Id. Two identifiers are
// the same iff they are the same allocation; the optional name is a display
// hint and never participates in equality. A process-wide atomic counter
// gives each identifier a sequence number used only for ordering, so sets
// and maps of identifiers iterate deterministically even across goroutines
// building trees in parallel.
package core

import (
	"fmt"
	"sync/atomic"
)

var idSeq atomic.Int64

// Id is an opaque identifier token. Compare with ==; the zero value is not
// a valid identifier, always allocate through NewId and friends.
type Id struct {
	seq     int64
	name    string
	mutable bool
}

// NewId returns a fresh immutable identifier with no name hint.
func NewId() *Id {
	return &Id{seq: idSeq.Add(1)}
}

// NewIdNamed returns a fresh immutable identifier carrying a name hint.
func NewIdNamed(name string) *Id {
	return &Id{seq: idSeq.Add(1), name: name}
}

// NewMutableId returns a fresh identifier whose var-set positions are legal.
func NewMutableId(name string) *Id {
	return &Id{seq: idSeq.Add(1), name: name, mutable: true}
}

// Clone mints a new identity preserving the hint and mutability flag.
// Alpha-normalization and capture-avoiding renames use this to replace
// binders without losing readable names.
func (id *Id) Clone() *Id {
	return &Id{seq: idSeq.Add(1), name: id.name, mutable: id.mutable}
}

// Name returns the display hint, possibly empty.
func (id *Id) Name() string { return id.name }

// SetName replaces the display hint. Identity is unaffected.
func (id *Id) SetName(name string) { id.name = name }

// Mutable reports whether var-set on this identifier is well-formed.
func (id *Id) Mutable() bool { return id.mutable }

// Compare orders identifiers by creation sequence: -1, 0 or +1.
func (id *Id) Compare(other *Id) int {
	switch {
	case id.seq < other.seq:
		return -1
	case id.seq > other.seq:
		return 1
	default:
		return 0
	}
}

func (id *Id) String() string {
	if id.name == "" {
		return fmt.Sprintf("id#%d", id.seq)
	}
	return fmt.Sprintf("%s#%d", id.name, id.seq)
}

// IdSet is a set of identifiers keyed on identity. The zero value is not
// usable; construct with NewIdSet.
type IdSet struct {
	members map[*Id]struct{}
}

func NewIdSet(ids ...*Id) IdSet {
	s := IdSet{members: make(map[*Id]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IdSet) Add(id *Id)           { s.members[id] = struct{}{} }
func (s IdSet) Remove(id *Id)        { delete(s.members, id) }
func (s IdSet) Contains(id *Id) bool { _, ok := s.members[id]; return ok }
func (s IdSet) Len() int             { return len(s.members) }

// Ids returns the members ordered by creation sequence.
func (s IdSet) Ids() []*Id {
	out := make([]*Id, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Compare(out[j-1]) < 0; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
