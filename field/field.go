// Package field implements Field, the decoded-value tagged variant, and the
// FieldLocator that resolves a fieldloc.Location against the in-progress
// decoding tree.
package field

import (
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/fieldclass"
	"github.com/nilsaberg/actf2/fieldloc"
	"github.com/nilsaberg/actf2/internal/arena"
)

// Kind discriminates the decoded Field variant.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindSInt
	KindUInt
	KindBitMap
	KindReal32
	KindReal64
	KindStr
	KindBlob
	KindArray
	KindStruct
)

// Field is one decoded value, addressed by arena.Index and linked to its
// containing field via Parent (an index, not a pointer — see the arena
// package doc). Str and Blob point directly into the backing byte buffer:
// zero-copy, valid only as long as that buffer is.
type Field struct {
	Kind   Kind
	Class  *fieldclass.FieldClass
	Parent arena.Index

	Bool bool

	SInt int64
	UInt uint64
	// VarLenBits is the effective bit width of a decoded variable-length
	// integer (ceil(actual_bits/7)*8, capped at 64), needed by clock-value
	// update and by display/debug tooling; zero for fixed-length integers.
	VarLenBits uint

	BitMap uint64

	Real32 float32
	Real64 float64

	Str []byte
	Blob []byte

	// Array holds child indices in decode order. Mid-decode, Len(Array)
	// counts the elements decoded so far plus the element currently being
	// decoded, which is appended before its own decoding starts; a
	// field-location lookup into an in-progress array resolves into that
	// last element.
	Array []arena.Index

	// Struct holds one child index per member, in Class.Members order,
	// allocated as arena.Nil before the member is decoded.
	Struct []arena.Index
}

// Tree is the arena backing one decoding pass (packet or event batch). It
// owns every Field node produced while decoding, addressed by index.
type Tree struct {
	arena *arena.Arena[Field]
}

// NewTree wraps an arena for Field nodes, with hint as an initial capacity
// guess.
func NewTree(hint int) *Tree {
	return &Tree{arena: arena.New[Field](hint)}
}

// Reset clears the tree for reuse at the next packet/event-batch boundary.
func (t *Tree) Reset() { t.arena.Reset() }

// Alloc allocates a new Field node with the given parent and returns its
// index.
func (t *Tree) Alloc(parent arena.Index, f Field) arena.Index {
	f.Parent = parent

	return t.arena.Alloc(f)
}

// Get returns a pointer to the node at idx for in-place mutation (appending
// to Array, filling in a Struct member slot).
func (t *Tree) Get(idx arena.Index) *Field {
	return t.arena.Get(idx)
}

// Locator resolves a fieldloc.Location against a Tree, starting from a given
// field.
type Locator struct {
	tree *Tree
}

// NewLocator binds a Locator to the tree it will resolve locations within.
func NewLocator(tree *Tree) *Locator {
	return &Locator{tree: tree}
}

// Resolve walks loc's path starting from "from" (the field currently being
// decoded), per spec.md §4.2: origin None starts at from's parent; a named
// path element selects a struct member (which must already be decoded); the
// "parent" sentinel moves up one level; at an array, a named/parent element
// advances into the element currently being decoded. The final field must be
// an integer (UInt/SInt/BitMap) or Bool.
func (l *Locator) Resolve(from arena.Index, loc fieldloc.Location) (*Field, error) {
	cur := from
	if loc.Origin == fieldloc.OriginNone {
		f := l.tree.Get(cur)
		if f.Parent == arena.Nil {
			return nil, errs.ErrMissingFieldLocation
		}
		cur = f.Parent
	} else {
		// Non-None origins select a different top-level context (packet
		// header, event payload, ...); the decoder resolves those roots
		// before calling Resolve and passes the resolved root as "from".
		// Within this package OriginNone is the only path actually walked.
	}

	for _, elem := range loc.Path {
		f := l.tree.Get(cur)
		switch f.Kind {
		case KindStruct:
			if elem.Parent {
				if f.Parent == arena.Nil {
					return nil, errs.ErrMissingFieldLocation
				}
				cur = f.Parent

				continue
			}
			idx, err := memberIndex(f.Class, elem.Name)
			if err != nil {
				return nil, err
			}
			if idx >= len(f.Struct) || f.Struct[idx] == arena.Nil {
				return nil, errs.ErrMissingFieldLocation
			}
			cur = f.Struct[idx]
		case KindArray:
			if len(f.Array) == 0 {
				return nil, errs.ErrMissingFieldLocation
			}
			// Advance into the element currently being decoded: the last
			// allocated (possibly still-filling) element.
			cur = f.Array[len(f.Array)-1]
		default:
			return nil, errs.ErrMissingFieldLocation
		}
	}

	target := l.tree.Get(cur)
	switch target.Kind {
	case KindUInt, KindSInt, KindBitMap, KindBool:
		return target, nil
	default:
		return nil, errs.ErrWrongFieldType
	}
}

func memberIndex(fc *fieldclass.FieldClass, name string) (int, error) {
	for i, m := range fc.Members {
		if m.Name == name {
			return i, nil
		}
	}

	return 0, errs.ErrMissingFieldLocation
}

// AsInt64 returns the field's value as a signed integer, for selector /
// length resolution. Bool is treated as 0/1.
func (f *Field) AsInt64() (int64, error) {
	switch f.Kind {
	case KindSInt:
		return f.SInt, nil
	case KindUInt, KindBitMap:
		return int64(f.UInt), nil
	case KindBool:
		if f.Bool {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, errs.ErrWrongFieldType
	}
}

// AsUint64 returns the field's value as an unsigned integer, for
// dynamic-length resolution (spec.md requires these to be unsigned).
func (f *Field) AsUint64() (uint64, error) {
	switch f.Kind {
	case KindUInt, KindBitMap:
		return f.UInt, nil
	default:
		return 0, errs.ErrWrongFieldType
	}
}
