package tree

import (
	"iter"

	"github.com/benz9527/xtree/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

// KeyExtractor maps a stored element to the key used for ordering.
// It is a type parameter of the tree, its zero value is used and it
// must be stateless.
type KeyExtractor[K infra.OrderedKey, E any] interface {
	KeyOf(elem *E) K
}

// IdentityKey is the set policy, the element is the key.
type IdentityKey[K infra.OrderedKey] struct{}

func (IdentityKey[K]) KeyOf(elem *K) K {
	return *elem
}

type Pair[K infra.OrderedKey, V any] struct {
	Key K
	Val V
}

// PairKey is the map policy, the key is the first of the pair.
type PairKey[K infra.OrderedKey, V any] struct{}

func (PairKey[K, V]) KeyOf(elem *Pair[K, V]) K {
	return elem.Key
}

// RBNode is a read-only handle of a tree node. Absent links are nil.
type RBNode[E any] interface {
	Elem() *E
	Color() RBColor
	Left() RBNode[E]
	Right() RBNode[E]
	Parent() RBNode[E]
}

type RBTree[K infra.OrderedKey, E any] interface {
	Len() int64
	Root() RBNode[E]
	// Insert rejects an element whose key is already present and returns
	// the iterator of the existing element with false.
	Insert(elem E) (Iterator[E], bool)
	// Find returns End() if the key is absent.
	Find(key K) Iterator[E]
	Begin() Iterator[E]
	End() Iterator[E]
	Last() Iterator[E]
	REnd() Iterator[E]
	Foreach(action func(idx int64, color RBColor, elem *E) bool)
	All() iter.Seq[*E]
	Height() int
	Size() int64
	IsBalance() bool
	Stats() RBTreeStats
	Clone() RBTree[K, E]
	Release()

	arena() *rbArena[E]
	compareKey(e1, e2 *E) int64
	keyOf(elem *E) K
}
