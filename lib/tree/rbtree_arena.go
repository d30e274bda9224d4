package tree

import "math"

// Nodes live in an arena and link each other by index. Index 0 is the
// reserved nil leaf and math.MaxUint32 is never allocated, so it serves
// as the before-the-begin iterator position.
const (
	nilNode  uint32 = 0
	rendNode uint32 = math.MaxUint32

	chunkShift = 8
	chunkSize  = 1 << chunkShift
	chunkMask  = chunkSize - 1
)

type rbNode[E any] struct {
	elem   E
	parent uint32
	left   uint32
	right  uint32
	color  RBColor
}

// rbArena allocates nodes in fixed-size chunks. A chunk is never moved
// after its allocation, so element pointers handed out by iterators
// survive later inserts.
type rbArena[E any] struct {
	chunks [][]rbNode[E]
	size   uint32 // Allocated slots, the nil slot included.
	root   uint32
}

func newRBArena[E any](initCap int) *rbArena[E] {
	a := &rbArena[E]{}
	if initCap > 0 {
		a.chunks = make([][]rbNode[E], 0, (initCap>>chunkShift)+1)
	}
	return a
}

func (a *rbArena[E]) node(idx uint32) *rbNode[E] {
	return &a.chunks[idx>>chunkShift][idx&chunkMask]
}

func (a *rbArena[E]) contains(idx uint32) bool {
	return idx != nilNode && idx < a.size
}

func (a *rbArena[E]) grow() {
	if int(a.size>>chunkShift) == len(a.chunks) {
		a.chunks = append(a.chunks, make([]rbNode[E], chunkSize))
	}
}

// malloc returns a new red node without links.
func (a *rbArena[E]) malloc(elem E) uint32 {
	if a.size == 0 {
		a.grow()
		a.size = 1 // Reserve the nil slot.
	}
	if a.size == rendNode {
		panic("[rbtree] arena reached the maximum number of nodes")
	}
	a.grow()
	idx := a.size
	a.size++
	*a.node(idx) = rbNode[E]{
		elem:  elem,
		color: Red,
	}
	return idx
}

// release clears every allocated node once and drops all chunks.
func (a *rbArena[E]) release() int64 {
	freed := int64(0)
	for i, chunk := range a.chunks {
		used := int64(a.size) - int64(i)<<chunkShift
		if used > chunkSize {
			used = chunkSize
		}
		if used > 0 {
			clear(chunk[:used])
			freed += used
		}
		a.chunks[i] = nil
	}
	if freed > 0 {
		freed-- // The nil slot.
	}
	a.chunks = nil
	a.size = 0
	a.root = nilNode
	return freed
}

// clone copies the chunks, indices stay the same in the copy.
// Elements are copied by value.
func (a *rbArena[E]) clone() *rbArena[E] {
	c := &rbArena[E]{
		chunks: make([][]rbNode[E], len(a.chunks), cap(a.chunks)),
		size:   a.size,
		root:   a.root,
	}
	for i, chunk := range a.chunks {
		c.chunks[i] = make([]rbNode[E], chunkSize)
		copy(c.chunks[i], chunk)
	}
	return c
}

func (a *rbArena[E]) isRed(idx uint32) bool {
	return idx != nilNode && a.node(idx).color == Red
}

func (a *rbArena[E]) isBlack(idx uint32) bool {
	return !a.isRed(idx)
}

func (a *rbArena[E]) direction(idx uint32) RBDirection {
	if idx == nilNode {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}
	p := a.node(idx).parent
	if p == nilNode {
		return Root
	}
	if a.node(p).left == idx {
		return Left
	}
	return Right
}

// fixLink points the children of idx back to it.
func (a *rbArena[E]) fixLink(idx uint32) {
	n := a.node(idx)
	if n.left != nilNode {
		a.node(n.left).parent = idx
	}
	if n.right != nilNode {
		a.node(n.right).parent = idx
	}
}

func (a *rbArena[E]) minimum(idx uint32) uint32 {
	if idx == nilNode {
		return nilNode
	}
	for l := a.node(idx).left; l != nilNode; l = a.node(idx).left {
		idx = l
	}
	return idx
}

func (a *rbArena[E]) maximum(idx uint32) uint32 {
	if idx == nilNode {
		return nilNode
	}
	for r := a.node(idx).right; r != nilNode; r = a.node(idx).right {
		idx = r
	}
	return idx
}

// The succ node of idx is its next node in sorted order, nilNode if idx
// is the maximum.
func (a *rbArena[E]) succ(idx uint32) uint32 {
	if r := a.node(idx).right; r != nilNode {
		return a.minimum(r)
	}
	p := a.node(idx).parent
	// Backtrack to the first ancestor reached by a left edge.
	for p != nilNode && idx == a.node(p).right {
		idx = p
		p = a.node(p).parent
	}
	return p
}

// The pred node of idx is its previous node in sorted order, nilNode if
// idx is the minimum.
func (a *rbArena[E]) pred(idx uint32) uint32 {
	if l := a.node(idx).left; l != nilNode {
		return a.maximum(l)
	}
	p := a.node(idx).parent
	for p != nilNode && idx == a.node(p).left {
		idx = p
		p = a.node(p).parent
	}
	return p
}

func (a *rbArena[E]) height(idx uint32) int {
	if idx == nilNode {
		return 0
	}
	n := a.node(idx)
	return max(a.height(n.left), a.height(n.right)) + 1
}

func (a *rbArena[E]) count(idx uint32) int64 {
	if idx == nilNode {
		return 0
	}
	n := a.node(idx)
	return a.count(n.left) + a.count(n.right) + 1
}

var _ RBNode[int] = rbNodeRef[int]{}

// rbNodeRef is the RBNode handle of an arena slot.
type rbNodeRef[E any] struct {
	nodes *rbArena[E]
	idx   uint32
}

func newRBNodeRef[E any](a *rbArena[E], idx uint32) RBNode[E] {
	if a == nil || !a.contains(idx) {
		return nil
	}
	return rbNodeRef[E]{nodes: a, idx: idx}
}

func (ref rbNodeRef[E]) Elem() *E {
	return &ref.nodes.node(ref.idx).elem
}

func (ref rbNodeRef[E]) Color() RBColor {
	return ref.nodes.node(ref.idx).color
}

func (ref rbNodeRef[E]) Left() RBNode[E] {
	return newRBNodeRef(ref.nodes, ref.nodes.node(ref.idx).left)
}

func (ref rbNodeRef[E]) Right() RBNode[E] {
	return newRBNodeRef(ref.nodes, ref.nodes.node(ref.idx).right)
}

func (ref rbNodeRef[E]) Parent() RBNode[E] {
	return newRBNodeRef(ref.nodes, ref.nodes.node(ref.idx).parent)
}
