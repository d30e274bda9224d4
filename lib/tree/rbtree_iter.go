package tree

// Iterator is a cursor over the tree in sorted order. Besides the
// elements it has two sentinel positions, End (past the last element)
// and REnd (before the first element), so both directions are
// well-defined from either boundary:
//
//	for it := tree.Begin(); !it.IsEnd(); it = it.Next() { ... }
//	for it := tree.End().Prev(); !it.IsREnd(); it = it.Prev() { ... }
//
// Inserts do not invalidate an iterator, Release does.
// The zero value is an End iterator without a tree.
type Iterator[E any] struct {
	nodes *rbArena[E]
	node  uint32
}

// Valid reports whether the iterator points to an element.
func (it Iterator[E]) Valid() bool {
	return it.nodes != nil && it.nodes.contains(it.node)
}

func (it Iterator[E]) IsEnd() bool {
	return it.node == nilNode
}

func (it Iterator[E]) IsREnd() bool {
	return it.node == rendNode
}

// Elem returns nil at a sentinel position.
func (it Iterator[E]) Elem() *E {
	if !it.Valid() {
		return nil
	}
	return &it.nodes.node(it.node).elem
}

// Color of a sentinel position is Black, like a nil leaf.
func (it Iterator[E]) Color() RBColor {
	if !it.Valid() {
		return Black
	}
	return it.nodes.node(it.node).color
}

// Equal reports whether both iterators of the same tree point to the
// same node or to the same sentinel.
func (it Iterator[E]) Equal(other Iterator[E]) bool {
	return it.nodes == other.nodes && it.node == other.node
}

// Next returns the in-order successor. REnd moves to the first element,
// End stays End.
func (it Iterator[E]) Next() Iterator[E] {
	if it.nodes == nil || it.node == nilNode {
		return it
	}
	if it.node == rendNode {
		return Iterator[E]{nodes: it.nodes, node: it.nodes.minimum(it.nodes.root)}
	}
	if !it.nodes.contains(it.node) {
		// Released.
		return Iterator[E]{nodes: it.nodes, node: nilNode}
	}
	return Iterator[E]{nodes: it.nodes, node: it.nodes.succ(it.node)}
}

// Prev returns the in-order predecessor. End moves to the last element,
// REnd stays REnd.
func (it Iterator[E]) Prev() Iterator[E] {
	if it.nodes == nil || it.node == rendNode {
		return it
	}

	var prev uint32
	if it.node == nilNode {
		prev = it.nodes.maximum(it.nodes.root)
	} else if it.nodes.contains(it.node) {
		prev = it.nodes.pred(it.node)
	}
	if prev == nilNode {
		prev = rendNode
	}
	return Iterator[E]{nodes: it.nodes, node: prev}
}
