package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	ErrRootViolation  = errors.New("rbtree root violation")
	ErrRedViolation   = errors.New("rbtree red violation")
	ErrBlackViolation = errors.New("rbtree black violation")
	ErrOrderViolation = errors.New("rbtree order violation")
	ErrLinkViolation  = errors.New("rbtree link violation")
)

func blackDepthTo[E any](a *rbArena[E], target, to uint32) int {
	depth := 0
	for aux := target; aux != to; aux = a.node(aux).parent {
		if a.isBlack(aux) {
			depth++
		}
	}
	return depth
}

// BlackHeight is the number of black nodes on the leftmost root to nil
// path. It is only meaningful for a tree without black violation.
func BlackHeight[K infra.OrderedKey, E any](tree RBTree[K, E]) int {
	a := tree.arena()
	height := 0
	for aux := a.root; aux != nilNode; aux = a.node(aux).left {
		if a.isBlack(aux) {
			height++
		}
	}
	return height
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func RootViolationValidate[K infra.OrderedKey, E any](tree RBTree[K, E]) error {
	a := tree.arena()
	if a.root == nilNode {
		return nil
	}
	if a.isRed(a.root) {
		return infra.WrapErrorStackWithMessage(ErrRootViolation,
			fmt.Sprintf("root key %v is red", tree.keyOf(&a.node(a.root).elem)))
	}
	if a.node(a.root).parent != nilNode {
		return infra.WrapErrorStackWithMessage(ErrRootViolation,
			fmt.Sprintf("root key %v has a parent", tree.keyOf(&a.node(a.root).elem)))
	}
	return nil
}

// Inorder traversal to validate the rbtree properties.
func RedViolationValidate[K infra.OrderedKey, E any](tree RBTree[K, E]) error {
	a := tree.arena()
	size := tree.Len()
	if size <= 0 || a.root == nilNode {
		return nil
	}

	stack := make([]uint32, 0, size>>1)
	defer func() {
		clear(stack)
	}()

	aux := a.root
	for ; aux != nilNode; aux = a.node(aux).left {
		stack = append(stack, aux)
	}

	for n := len(stack); n > 0; n = len(stack) {
		aux = stack[n-1]
		if node := a.node(aux); a.isRed(aux) && (a.isRed(node.left) || a.isRed(node.right)) {
			return infra.WrapErrorStackWithMessage(ErrRedViolation,
				fmt.Sprintf("red key %v has a red child", tree.keyOf(&node.elem)))
		}

		stack = stack[:n-1]
		for aux = a.node(aux).right; aux != nilNode; aux = a.node(aux).left {
			stack = append(stack, aux)
		}
	}
	return nil
}

// BFS traversal to load all leaves, the nodes with at least one nil child.
func bfsLeaves[E any](a *rbArena[E], size int64) []uint32 {
	if size <= 0 || a.root == nilNode {
		return nil
	}

	leaves := make([]uint32, 0, size>>1+1)
	queue := make([]uint32, 0, size>>1+1)
	queue = append(queue, a.root)
	for len(queue) > 0 {
		aux := queue[0]
		l, r := a.node(aux).left, a.node(aux).right
		if /* nil leaves, keep one */ l == nilNode || r == nilNode {
			leaves = append(leaves, aux)
		}
		if l != nilNode {
			queue = append(queue, l)
		}
		if r != nilNode {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K infra.OrderedKey, E any](tree RBTree[K, E]) error {
	a := tree.arena()
	leaves := bfsLeaves(a, tree.Len())
	if leaves == nil {
		return nil
	}

	// The walk stops below the root, the root color does not change
	// the comparison.
	blackDepth := blackDepthTo(a, leaves[0], nilNode)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo(a, leaves[i], nilNode); depth != blackDepth {
			return infra.WrapErrorStackWithMessage(ErrBlackViolation,
				fmt.Sprintf("leaf key %v black depth %d, expected %d",
					tree.keyOf(&a.node(leaves[i]).elem), depth, blackDepth))
		}
	}
	return nil
}

// OrderViolationValidate checks that the inorder sequence is strictly
// increasing under the tree comparator.
func OrderViolationValidate[K infra.OrderedKey, E any](tree RBTree[K, E]) error {
	a := tree.arena()
	prev := nilNode
	for aux := a.minimum(a.root); aux != nilNode; aux = a.succ(aux) {
		if prev != nilNode && tree.compareKey(&a.node(prev).elem, &a.node(aux).elem) >= 0 {
			return infra.WrapErrorStackWithMessage(ErrOrderViolation,
				fmt.Sprintf("key %v is not before key %v",
					tree.keyOf(&a.node(prev).elem), tree.keyOf(&a.node(aux).elem)))
		}
		prev = aux
	}
	return nil
}

// LinkViolationValidate checks the parent back-links and that the number
// of reachable nodes is Len().
func LinkViolationValidate[K infra.OrderedKey, E any](tree RBTree[K, E]) error {
	a := tree.arena()
	if a.root == nilNode {
		if tree.Len() != 0 {
			return infra.WrapErrorStackWithMessage(ErrLinkViolation,
				fmt.Sprintf("empty tree with len %d", tree.Len()))
		}
		return nil
	}

	reachable := int64(0)
	stack := []uint32{a.root}
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reachable++
		if reachable > tree.Len() {
			// A cycle also ends here.
			break
		}
		node := a.node(aux)
		for _, child := range [2]uint32{node.left, node.right} {
			if child == nilNode {
				continue
			}
			if !a.contains(child) || a.node(child).parent != aux {
				return infra.WrapErrorStackWithMessage(ErrLinkViolation,
					fmt.Sprintf("child of key %v does not link back", tree.keyOf(&node.elem)))
			}
			stack = append(stack, child)
		}
	}
	if reachable != tree.Len() {
		return infra.WrapErrorStackWithMessage(ErrLinkViolation,
			fmt.Sprintf("reachable nodes %d, len %d", reachable, tree.Len()))
	}
	return nil
}

// Validate runs every validator and combines the violations.
func Validate[K infra.OrderedKey, E any](tree RBTree[K, E]) error {
	if err := LinkViolationValidate(tree); err != nil {
		// The other walks are unsafe on broken links.
		return err
	}
	return multierr.Combine(
		RootViolationValidate(tree),
		RedViolationValidate(tree),
		BlackViolationValidate(tree),
		OrderViolationValidate(tree),
	)
}
