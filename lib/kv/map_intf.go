package kv

import (
	"io"
	"iter"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

type KeyFilterFunc[K infra.OrderedKey] func(key K) bool

func defaultAllKeysFilter[K infra.OrderedKey](key K) bool {
	return true
}

type Closable interface {
	io.Closer
}

// OrderedMap is a sorted key value index. It is a reference type, copies
// share the same entries. Not thread safe.
type OrderedMap[K infra.OrderedKey, V any] interface {
	Len() int64
	// Insert keeps the existing value of a present key and returns false.
	Insert(key K, val V) (tree.Iterator[tree.Pair[K, V]], bool)
	// Index returns the value slot of key, inserting the zero value if the
	// key is absent. The pointer stays valid until Release or Purge.
	Index(key K) *V
	Get(key K) (val V, exists bool)
	Contains(key K) bool
	Find(key K) tree.Iterator[tree.Pair[K, V]]
	Begin() tree.Iterator[tree.Pair[K, V]]
	End() tree.Iterator[tree.Pair[K, V]]
	// Keys returns the sorted keys accepted by any of the filters, all
	// keys without filters.
	Keys(filters ...KeyFilterFunc[K]) []K
	Values() []V
	All() iter.Seq2[K, V]
	Clone() OrderedMap[K, V]
	// Purge closes the Closable values, then releases the entries.
	Purge() error
	Release()
}

// OrderedSet is a sorted key set. It is a reference type, copies share
// the same keys. Not thread safe.
type OrderedSet[K infra.OrderedKey] interface {
	Len() int64
	Insert(key K) (tree.Iterator[K], bool)
	Contains(key K) bool
	Find(key K) tree.Iterator[K]
	Begin() tree.Iterator[K]
	End() tree.Iterator[K]
	Keys(filters ...KeyFilterFunc[K]) []K
	All() iter.Seq[K]
	Clone() OrderedSet[K]
	Release()
}

func filterKeys[K infra.OrderedKey](keys iter.Seq[K], size int64, filters ...KeyFilterFunc[K]) []K {
	realFilters := make([]KeyFilterFunc[K], 0, len(filters))
	for _, filter := range filters {
		if filter != nil {
			realFilters = append(realFilters, filter)
		}
	}
	if len(realFilters) == 0 {
		realFilters = append(realFilters, defaultAllKeysFilter[K])
	}

	res := make([]K, 0, size)
	for key := range keys {
		for _, filter := range realFilters {
			if filter(key) {
				res = append(res, key)
				break
			}
		}
	}
	return res
}
