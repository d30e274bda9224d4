package kv

import (
	"iter"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

var _ OrderedSet[int] = (*orderedSet[int])(nil)

type orderedSet[K infra.OrderedKey] struct {
	tree tree.RBTree[K, K]
}

func (s *orderedSet[K]) Len() int64 {
	return s.tree.Len()
}

func (s *orderedSet[K]) Insert(key K) (tree.Iterator[K], bool) {
	return s.tree.Insert(key)
}

func (s *orderedSet[K]) Contains(key K) bool {
	return s.tree.Find(key).Valid()
}

func (s *orderedSet[K]) Find(key K) tree.Iterator[K] {
	return s.tree.Find(key)
}

func (s *orderedSet[K]) Begin() tree.Iterator[K] {
	return s.tree.Begin()
}

func (s *orderedSet[K]) End() tree.Iterator[K] {
	return s.tree.End()
}

func (s *orderedSet[K]) Keys(filters ...KeyFilterFunc[K]) []K {
	return filterKeys[K](s.All(), s.tree.Len(), filters...)
}

// All yields copies, the keys of a set are not writable.
func (s *orderedSet[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for key := range s.tree.All() {
			if !yield(*key) {
				return
			}
		}
	}
}

func (s *orderedSet[K]) Clone() OrderedSet[K] {
	return &orderedSet[K]{tree: s.tree.Clone()}
}

func (s *orderedSet[K]) Release() {
	s.tree.Release()
}

func NewOrderedSet[K infra.OrderedKey](opts ...tree.RBTreeOpt) OrderedSet[K] {
	return &orderedSet[K]{
		tree: tree.NewSetRBTree[K](opts...),
	}
}
