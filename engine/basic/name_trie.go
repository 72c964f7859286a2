package basic

import (
	enc "github.com/ndn-go/ndnkit/encoding"
)

// NameTrie is a simple prefix tree keyed by name components.
// It is not thread safe; the owner serializes access.
type NameTrie[V any] struct {
	val      V
	key      string
	name     enc.Name
	parent   *NameTrie[V]
	children map[string]*NameTrie[V]
	depth    int
}

// NewNameTrie creates the root node of a NameTrie.
func NewNameTrie[V any]() *NameTrie[V] {
	return &NameTrie[V]{}
}

func (n *NameTrie[V]) Value() V {
	return n.val
}

func (n *NameTrie[V]) SetValue(value V) {
	n.val = value
}

func (n *NameTrie[V]) Depth() int {
	return n.depth
}

func (n *NameTrie[V]) Parent() *NameTrie[V] {
	return n.parent
}

// Name returns the full name of this node.
func (n *NameTrie[V]) Name() enc.Name {
	return n.name
}

func (n *NameTrie[V]) HasChildren() bool {
	return len(n.children) > 0
}

func (n *NameTrie[V]) newChild(c enc.Component) *NameTrie[V] {
	key := c.TlvStr()
	child := &NameTrie[V]{
		key:    key,
		name:   n.name.Append(c.Clone()),
		parent: n,
		depth:  n.depth + 1,
	}
	if n.children == nil {
		n.children = make(map[string]*NameTrie[V])
	}
	n.children[key] = child
	return child
}

// ExactMatch returns the node matching the name exactly, or nil.
func (n *NameTrie[V]) ExactMatch(name enc.Name) *NameTrie[V] {
	cur := n
	for _, c := range name {
		next, ok := cur.children[c.TlvStr()]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// PrefixMatch returns the deepest existing node along the name.
// At worst, the root itself is returned.
func (n *NameTrie[V]) PrefixMatch(name enc.Name) *NameTrie[V] {
	cur := n
	for _, c := range name {
		next, ok := cur.children[c.TlvStr()]
		if !ok {
			return cur
		}
		cur = next
	}
	return cur
}

// MatchAlways returns the node matching the name exactly,
// creating intermediate nodes as needed.
func (n *NameTrie[V]) MatchAlways(name enc.Name) *NameTrie[V] {
	cur := n
	for _, c := range name {
		next, ok := cur.children[c.TlvStr()]
		if !ok {
			next = cur.newChild(c)
		}
		cur = next
	}
	return cur
}

// FirstSatisfyOrNew walks down the name and returns the first node
// whose value satisfies pred. If none does, the full path is created
// and the leaf is returned.
func (n *NameTrie[V]) FirstSatisfyOrNew(name enc.Name, pred func(V) bool) *NameTrie[V] {
	cur := n
	for _, c := range name {
		if pred(cur.val) {
			return cur
		}
		next, ok := cur.children[c.TlvStr()]
		if !ok {
			next = cur.newChild(c)
		}
		cur = next
	}
	return cur
}

// Prune removes this node if it has no children, then repeats for its
// ancestors. Values are ignored; use PruneIf to keep valued branches.
func (n *NameTrie[V]) Prune() {
	cur := n
	for cur.parent != nil && len(cur.children) == 0 {
		parent := cur.parent
		delete(parent.children, cur.key)
		cur = parent
	}
}

// PruneIf removes this node if it has no children and its value
// satisfies pred, then repeats for its ancestors.
func (n *NameTrie[V]) PruneIf(pred func(V) bool) {
	cur := n
	for cur.parent != nil && len(cur.children) == 0 && pred(cur.val) {
		parent := cur.parent
		delete(parent.children, cur.key)
		cur = parent
	}
}

// Walk visits this node and all descendants in depth first order.
func (n *NameTrie[V]) Walk(visit func(*NameTrie[V])) {
	visit(n)
	for _, c := range n.children {
		c.Walk(visit)
	}
}
