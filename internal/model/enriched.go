package model

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind discriminates an EnrichedNode's shape, per the §9 design note:
// "the natural representation ... is a tagged value tree (scalar |
// sequence | map) held behind a single owner".
type NodeKind int

const (
	NodeScalar NodeKind = iota
	NodeSequence
	NodeMap
)

// EnrichedNode is one node of the skill pipeline's scratch tree. Only the
// field matching Kind is meaningful.
type EnrichedNode struct {
	Kind     NodeKind
	Scalar   any
	Sequence []*EnrichedNode
	Map      map[string]*EnrichedNode
}

// NewScalarNode wraps a leaf value.
func NewScalarNode(v any) *EnrichedNode {
	return &EnrichedNode{Kind: NodeScalar, Scalar: v}
}

// NewSequenceNode wraps an ordered list of child nodes.
func NewSequenceNode(items ...*EnrichedNode) *EnrichedNode {
	return &EnrichedNode{Kind: NodeSequence, Sequence: items}
}

// NewMapNode wraps a string-keyed mapping of child nodes.
func NewMapNode() *EnrichedNode {
	return &EnrichedNode{Kind: NodeMap, Map: map[string]*EnrichedNode{}}
}

// NewDocumentTree builds the conventional root addressed "/document" with
// the supplied top-level fields.
func NewDocumentTree(fields map[string]any) *EnrichedNode {
	root := NewMapNode()
	for k, v := range fields {
		root.Map[k] = valueToNode(v)
	}
	return root
}

func valueToNode(v any) *EnrichedNode {
	switch t := v.(type) {
	case []any:
		seq := make([]*EnrichedNode, len(t))
		for i, item := range t {
			seq[i] = valueToNode(item)
		}
		return NewSequenceNode(seq...)
	case map[string]any:
		n := NewMapNode()
		for k, item := range t {
			n.Map[k] = valueToNode(item)
		}
		return n
	default:
		return NewScalarNode(v)
	}
}

// ResolvePath walks a "/document/foo/bar" style path from root and returns
// the node it addresses, or false if any segment is missing. Fan-out
// segments ("*") are not resolved here; callers expand those via
// ResolveFanOut before calling ResolvePath on each bound element.
func ResolvePath(root *EnrichedNode, path string) (*EnrichedNode, bool) {
	segs := splitPath(path)
	cur := root
	for _, seg := range segs {
		if cur == nil {
			return nil, false
		}
		switch cur.Kind {
		case NodeMap:
			next, ok := cur.Map[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case NodeSequence:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.Sequence) {
				return nil, false
			}
			cur = cur.Sequence[idx]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// SetPath creates intermediate map nodes as needed and sets the leaf value
// at path, relative to root.
func SetPath(root *EnrichedNode, path string, value *EnrichedNode) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("empty path")
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		if cur.Kind != NodeMap {
			return fmt.Errorf("path %q: segment %q is not addressable on a non-map node", path, seg)
		}
		next, ok := cur.Map[seg]
		if !ok {
			next = NewMapNode()
			cur.Map[seg] = next
		}
		cur = next
	}
	if cur.Kind != NodeMap {
		return fmt.Errorf("path %q: cannot set a field on a non-map node", path)
	}
	cur.Map[segs[len(segs)-1]] = value
	return nil
}

// NodeValue flattens a node back into a plain Go value (string/float64/...,
// []any, map[string]any), the inverse of the conversion NewDocumentTree
// performs on the way in.
func NodeValue(n *EnrichedNode) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case NodeSequence:
		out := make([]any, len(n.Sequence))
		for i, c := range n.Sequence {
			out[i] = NodeValue(c)
		}
		return out
	case NodeMap:
		out := make(map[string]any, len(n.Map))
		for k, c := range n.Map {
			out[k] = NodeValue(c)
		}
		return out
	default:
		return n.Scalar
	}
}

// ValueToNode wraps a plain Go value as an EnrichedNode tree.
func ValueToNode(v any) *EnrichedNode {
	return valueToNode(v)
}

// IsFanOut reports whether a context path ends in the fan-out marker "/*".
func IsFanOut(path string) bool {
	return strings.HasSuffix(path, "/*")
}

// FanOutBase strips the trailing "/*" from a fan-out context path.
func FanOutBase(path string) string {
	return strings.TrimSuffix(path, "/*")
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	segs := strings.Split(trimmed, "/")
	if segs[0] == "document" {
		// The root node itself is "/document"; its fields are the next segment.
		segs = segs[1:]
	}
	return segs
}
