// Package fieldloc implements FieldLocation: an origin + path reference
// resolving to an already-decoded field, used to read dynamic lengths and
// variant/optional selectors at decode time.
package fieldloc

// Origin selects the structure a Location's path is resolved from.
type Origin int

const (
	// OriginNone resolves relative to the current field's parent.
	OriginNone Origin = iota
	OriginPacketHeader
	OriginPacketContext
	OriginEventHeader
	OriginEventCommonContext
	OriginEventSpecificContext
	OriginEventPayload
)

// ParentSentinel, used as a PathElement's Name with Parent set true, means
// "go up to the containing struct".
const ParentSentinel = ""

// PathElement is one step of a Location's path: either a struct-member name
// or the "parent" sentinel.
type PathElement struct {
	Name   string
	Parent bool
}

// Member returns a PathElement selecting the named struct member.
func Member(name string) PathElement { return PathElement{Name: name} }

// Parent returns the "parent" sentinel PathElement.
func Parent() PathElement { return PathElement{Parent: true} }

// Location is an origin selector plus an ordered path of path elements. The
// last element must not be Parent (validated at metadata build time, not
// here, since construction in isolation cannot see the full schema).
type Location struct {
	Origin Origin
	Path   []PathElement
}

// IsZero reports whether l is the zero-value Location (the CTF2 "nothing
// located here" state, distinct from a Location with OriginNone and an
// empty path, which is a legal self-reference).
func (l Location) IsZero() bool {
	return l.Origin == OriginNone && l.Path == nil
}
