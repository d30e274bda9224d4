package kv

import (
	"iter"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

var _ OrderedMap[int, int] = (*orderedMap[int, int])(nil)

type orderedMap[K infra.OrderedKey, V any] struct {
	tree tree.RBTree[K, tree.Pair[K, V]]
}

func (m *orderedMap[K, V]) Len() int64 {
	return m.tree.Len()
}

func (m *orderedMap[K, V]) Insert(key K, val V) (tree.Iterator[tree.Pair[K, V]], bool) {
	return m.tree.Insert(tree.Pair[K, V]{Key: key, Val: val})
}

func (m *orderedMap[K, V]) Index(key K) *V {
	it, _ := m.tree.Insert(tree.Pair[K, V]{Key: key})
	return &it.Elem().Val
}

func (m *orderedMap[K, V]) Get(key K) (val V, exists bool) {
	if it := m.tree.Find(key); it.Valid() {
		return it.Elem().Val, true
	}
	return
}

func (m *orderedMap[K, V]) Contains(key K) bool {
	return m.tree.Find(key).Valid()
}

func (m *orderedMap[K, V]) Find(key K) tree.Iterator[tree.Pair[K, V]] {
	return m.tree.Find(key)
}

func (m *orderedMap[K, V]) Begin() tree.Iterator[tree.Pair[K, V]] {
	return m.tree.Begin()
}

func (m *orderedMap[K, V]) End() tree.Iterator[tree.Pair[K, V]] {
	return m.tree.End()
}

func (m *orderedMap[K, V]) pairs() []*tree.Pair[K, V] {
	pairs := make([]*tree.Pair[K, V], 0, m.tree.Len())
	for pair := range m.tree.All() {
		pairs = append(pairs, pair)
	}
	return pairs
}

func (m *orderedMap[K, V]) Keys(filters ...KeyFilterFunc[K]) []K {
	keys := func(yield func(K) bool) {
		for pair := range m.tree.All() {
			if !yield(pair.Key) {
				return
			}
		}
	}
	return filterKeys[K](keys, m.tree.Len(), filters...)
}

func (m *orderedMap[K, V]) Values() []V {
	return lo.Map(m.pairs(), func(pair *tree.Pair[K, V], _ int) V {
		return pair.Val
	})
}

func (m *orderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for pair := range m.tree.All() {
			if !yield(pair.Key, pair.Val) {
				return
			}
		}
	}
}

func (m *orderedMap[K, V]) Clone() OrderedMap[K, V] {
	return &orderedMap[K, V]{tree: m.tree.Clone()}
}

func (m *orderedMap[K, V]) Purge() error {
	var merr error
	for pair := range m.tree.All() {
		closer, ok := any(pair.Val).(Closable)
		if !ok || lo.IsNil(closer) {
			continue
		}
		if err := closer.Close(); err != nil {
			merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(err, "close value failed"))
		}
	}
	m.tree.Release()
	return merr
}

func (m *orderedMap[K, V]) Release() {
	m.tree.Release()
}

func NewOrderedMap[K infra.OrderedKey, V any](opts ...tree.RBTreeOpt) OrderedMap[K, V] {
	return &orderedMap[K, V]{
		tree: tree.NewMapRBTree[K, V](opts...),
	}
}
