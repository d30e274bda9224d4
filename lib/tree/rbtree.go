package tree

import (
	"iter"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	_ RBTree[int, int]            = (*rbTree[int, int, IdentityKey[int]])(nil)
	_ RBTree[int, Pair[int, any]] = (*rbTree[int, Pair[int, any], PairKey[int, any]])(nil)
)

// rbTree is not thread safe, it assumes a single writer.
type rbTree[K infra.OrderedKey, E any, X KeyExtractor[K, E]] struct {
	nodes     *rbArena[E]
	count     int64
	extractor X
	compare   infra.OrderedKeyComparator[K]
	stats     *rbTreeStats
	cfg       rbTreeCfg
}

func (tree *rbTree[K, E, X]) arena() *rbArena[E] {
	return tree.nodes
}

func (tree *rbTree[K, E, X]) keyOf(elem *E) K {
	return tree.extractor.KeyOf(elem)
}

func (tree *rbTree[K, E, X]) compareKey(e1, e2 *E) int64 {
	return tree.compare(tree.extractor.KeyOf(e1), tree.extractor.KeyOf(e2))
}

func (tree *rbTree[K, E, X]) iterAt(idx uint32) Iterator[E] {
	return Iterator[E]{nodes: tree.nodes, node: idx}
}

func (tree *rbTree[K, E, X]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K, E, X]) Root() RBNode[E] {
	return newRBNodeRef(tree.nodes, tree.nodes.root)
}

func (tree *rbTree[K, E, X]) Stats() RBTreeStats {
	return tree.stats.snapshot()
}

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// The longest path nodes' number is at most 2 * shortest path nodes' number,
// so the height is bounded by 2*log2(n+1).

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K, E, X]) leftRotate(x uint32) {
	a := tree.nodes
	if x == nilNode || a.node(x).right == nilNode {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	xn := a.node(x)
	p, y := xn.parent, xn.right
	dir := a.direction(x)
	yn := a.node(y)
	xn.right, yn.left = yn.left, x

	a.fixLink(x)
	a.fixLink(y)

	switch dir {
	case Root:
		a.root = y
	case Left:
		a.node(p).left = y
	case Right:
		a.node(p).right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to left-rotate")
	}
	yn.parent = p
	tree.stats.RecordRotate(Left)
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *rbTree[K, E, X]) rightRotate(x uint32) {
	a := tree.nodes
	if x == nilNode || a.node(x).left == nilNode {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	xn := a.node(x)
	p, y := xn.parent, xn.left
	dir := a.direction(x)
	yn := a.node(y)
	xn.left, yn.right = yn.right, x

	a.fixLink(x)
	a.fixLink(y)

	switch dir {
	case Root:
		a.root = y
	case Left:
		a.node(p).left = y
	case Right:
		a.node(p).right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to right-rotate")
	}
	yn.parent = p
	tree.stats.RecordRotate(Right)
}

// Insert descends to the nil edge and links a new red node there.
// A duplicate key returns the existing position and leaves the tree
// untouched.
func (tree *rbTree[K, E, X]) Insert(elem E) (Iterator[E], bool) {
	a := tree.nodes
	key := tree.extractor.KeyOf(&elem)

	var x, y uint32 = a.root, nilNode
	res := int64(0)
	for x != nilNode {
		y = x
		res = tree.compare(key, tree.extractor.KeyOf(&a.node(x).elem))
		if /* equal */ res == 0 {
			tree.stats.RecordDuplicate()
			return tree.iterAt(x), false
		} else /* less */ if res < 0 {
			x = a.node(x).left
		} else /* greater */ {
			x = a.node(x).right
		}
	}

	z := a.malloc(elem)
	a.node(z).parent = y
	switch {
	case y == nilNode:
		a.root = z
	case res < 0:
		a.node(y).left = z
	default:
		a.node(y).right = z
	}

	tree.count++
	tree.stats.RecordInsert()
	tree.insertRebalance(z)
	return tree.iterAt(z), true
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

im1: X's parent P is black (or X is the root), nothing to fix.

im2 (case A): Both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Continue to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im3 (case B): The parent P is red but the uncle U is black. X is the same
direction as P (straight shape). Rotate G to the opposite direction and
repaint. No further climbing.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]

im4 (case C): The parent P is red but the uncle U is black. X is opposite
direction to P (bent shape). Rotate P to straighten the shape, then rotate
G as im3 does, X becomes the subtree top and is painted black.

	  [G]                 [G]                  [X]
	  / \    rotate(P)    / \    rotate(G)     / \
	<P> [U]  ========>  <X> [U]  ========>  <P> <G>
	  \                 /                          \
	  <X>             <P>                          [U]

Finally the root is painted black unconditionally.
*/
func (tree *rbTree[K, E, X]) insertRebalance(x uint32) {
	a := tree.nodes
	for {
		p := a.node(x).parent
		if /* im1 */ p == nilNode || a.isBlack(p) {
			break
		}

		gp := a.node(p).parent
		if gp == nilNode {
			// impossible run to here, a red root never survives a fixup.
			panic( /* debug assertion */ "[rbtree] insert violate, red parent without grandpa")
		}

		pDir := a.direction(p)
		var uncle uint32
		switch pDir {
		case Left:
			uncle = a.node(gp).right
		case Right:
			uncle = a.node(gp).left
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate, parent without direction")
		}

		if /* im2 */ a.isRed(uncle) {
			a.node(p).color = Black
			a.node(uncle).color = Black
			a.node(gp).color = Red
			tree.stats.RecordRecolor()
			x = gp
			continue
		}

		top := p
		if /* im4 */ xDir := a.direction(x); xDir != pDir {
			switch xDir {
			case Right:
				tree.leftRotate(p)
			case Left:
				tree.rightRotate(p)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[rbtree] insert violate (im4)")
			}
			top = x
		}

		switch /* im3 */ pDir {
		case Left:
			tree.rightRotate(gp)
		case Right:
			tree.leftRotate(gp)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate (im3)")
		}
		a.node(top).color = Black
		a.node(gp).color = Red
		break
	}
	a.node(a.root).color = Black
}

func (tree *rbTree[K, E, X]) Find(key K) Iterator[E] {
	a := tree.nodes
	for aux := a.root; aux != nilNode; {
		res := tree.compare(key, tree.extractor.KeyOf(&a.node(aux).elem))
		if res == 0 {
			return tree.iterAt(aux)
		} else if res > 0 {
			aux = a.node(aux).right
		} else {
			aux = a.node(aux).left
		}
	}
	return tree.End()
}

func (tree *rbTree[K, E, X]) Begin() Iterator[E] {
	return tree.iterAt(tree.nodes.minimum(tree.nodes.root))
}

func (tree *rbTree[K, E, X]) End() Iterator[E] {
	return tree.iterAt(nilNode)
}

// Last returns REnd() if the tree is empty.
func (tree *rbTree[K, E, X]) Last() Iterator[E] {
	if tree.nodes.root == nilNode {
		return tree.REnd()
	}
	return tree.iterAt(tree.nodes.maximum(tree.nodes.root))
}

func (tree *rbTree[K, E, X]) REnd() Iterator[E] {
	return tree.iterAt(rendNode)
}

// Inorder traversal, stops once the action returns false.
func (tree *rbTree[K, E, X]) Foreach(action func(idx int64, color RBColor, elem *E) bool) {
	a := tree.nodes
	idx := int64(0)
	for aux := a.minimum(a.root); aux != nilNode; aux = a.succ(aux) {
		n := a.node(aux)
		if !action(idx, n.color, &n.elem) {
			return
		}
		idx++
	}
}

func (tree *rbTree[K, E, X]) All() iter.Seq[*E] {
	return func(yield func(*E) bool) {
		a := tree.nodes
		for aux := a.minimum(a.root); aux != nilNode; aux = a.succ(aux) {
			if !yield(&a.node(aux).elem) {
				return
			}
		}
	}
}

// Height is the number of nodes on the longest root to nil path.
func (tree *rbTree[K, E, X]) Height() int {
	return tree.nodes.height(tree.nodes.root)
}

// Size counts the reachable nodes, Len is the O(1) equivalent.
func (tree *rbTree[K, E, X]) Size() int64 {
	return tree.nodes.count(tree.nodes.root)
}

func (tree *rbTree[K, E, X]) IsBalance() bool {
	return RootViolationValidate[K, E](tree) == nil &&
		RedViolationValidate[K, E](tree) == nil &&
		BlackViolationValidate[K, E](tree) == nil
}

// Clone returns a deep copy. Elements are copied by value, the
// pointees of pointer elements are shared.
func (tree *rbTree[K, E, X]) Clone() RBTree[K, E] {
	clone := &rbTree[K, E, X]{
		nodes:   tree.nodes.clone(),
		count:   tree.count,
		compare: tree.compare,
		cfg:     tree.cfg,
	}
	if tree.cfg.statsEnabled {
		clone.stats = newRBTreeStats(tree.cfg.statsName)
		clone.stats.RecordClone(clone.count)
	}
	return clone
}

// Release frees every node, the tree is empty and reusable afterward.
// Iterators and elements obtained before are invalid.
func (tree *rbTree[K, E, X]) Release() {
	freed := tree.nodes.release()
	tree.count = 0
	tree.stats.RecordRelease(freed)
}

type rbTreeCfg struct {
	isDesc       bool
	initCap      int
	statsEnabled bool
	statsName    string
}

type RBTreeOpt func(*rbTreeCfg)

func WithRBTreeDesc() RBTreeOpt {
	return func(cfg *rbTreeCfg) {
		cfg.isDesc = true
	}
}

// WithRBTreeInitCap preallocates the arena chunk table.
func WithRBTreeInitCap(capacity int) RBTreeOpt {
	return func(cfg *rbTreeCfg) {
		if capacity > 0 {
			cfg.initCap = capacity
		}
	}
}

// WithRBTreeStats enables the rebalance counters and the OpenTelemetry
// instruments of the meter RBTreeStatsName/name.
func WithRBTreeStats(name string) RBTreeOpt {
	return func(cfg *rbTreeCfg) {
		cfg.statsEnabled = true
		cfg.statsName = name
	}
}

func NewRBTree[K infra.OrderedKey, E any, X KeyExtractor[K, E]](opts ...RBTreeOpt) RBTree[K, E] {
	cfg := rbTreeCfg{}
	for _, o := range opts {
		o(&cfg)
	}

	tree := &rbTree[K, E, X]{
		nodes:   newRBArena[E](cfg.initCap),
		compare: infra.AscOrderedKeyComparator[K](),
		cfg:     cfg,
	}
	if cfg.isDesc {
		tree.compare = infra.DescOrderedKeyComparator[K]()
	}
	if cfg.statsEnabled {
		tree.stats = newRBTreeStats(cfg.statsName)
	}
	return tree
}

func NewSetRBTree[K infra.OrderedKey](opts ...RBTreeOpt) RBTree[K, K] {
	return NewRBTree[K, K, IdentityKey[K]](opts...)
}

func NewMapRBTree[K infra.OrderedKey, V any](opts ...RBTreeOpt) RBTree[K, Pair[K, V]] {
	return NewRBTree[K, Pair[K, V], PairKey[K, V]](opts...)
}
