package parser

import (
	"fmt"
	"strings"

	"github.com/jrcribb/yara-x/internal/invariant"
	"github.com/jrcribb/yara-x/internal/span"
)

// CST is a Concrete Syntax Tree: a lossless tree representation of the
// source code. A depth-first, left-to-right walk emitting the bytes of
// every leaf reproduces the source byte-exactly (unless the tree was
// built with whitespaces stripped).
//
// The tree is stored as immutable arena-allocated "green" nodes indexed
// by position; the Node type is a transient "red" handle that carries a
// parent link and can be recreated cheaply.
type CST struct {
	source []byte
	nodes  []greenNode
	root   int
	errors []SyntaxError
}

// SyntaxError is an error message produced while parsing, anchored at a
// span of the source.
type SyntaxError struct {
	Message string
	Span    span.Span
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

type greenNode struct {
	kind     SyntaxKind
	span     span.Span
	children []int // nil for leaves
	leaf     bool
}

// buildCST folds the event stream into a tree.
func buildCST(source []byte, events *Events, lossless bool) *CST {
	c := &CST{source: source}

	type frame struct {
		kind     SyntaxKind
		children []int
	}
	var stack []frame
	prevEnd := 0

	for {
		ev, ok := events.Next()
		if !ok {
			break
		}
		switch ev.Kind {
		case EventBegin:
			stack = append(stack, frame{kind: ev.Node})

		case EventEnd, EventEndWithError:
			n := len(stack)
			invariant.Invariant(n > 0, "unbalanced event stream: End without Begin")
			top := stack[n-1]
			stack = stack[:n-1]

			sp := span.New(prevEnd, prevEnd)
			if len(top.children) > 0 {
				sp = c.nodes[top.children[0]].span
				for _, ch := range top.children[1:] {
					sp = sp.Combine(c.nodes[ch].span)
				}
			}
			idx := len(c.nodes)
			c.nodes = append(c.nodes, greenNode{kind: top.kind, span: sp, children: top.children})
			if len(stack) > 0 {
				stack[len(stack)-1].children = append(stack[len(stack)-1].children, idx)
			} else {
				c.root = idx
			}

		case EventToken:
			if lossless {
				invariant.Invariant(ev.Span.Start() == prevEnd,
					"lossless walk broken: token at %s, previous leaf ended at %d",
					ev.Span, prevEnd)
			}
			prevEnd = ev.Span.End()
			idx := len(c.nodes)
			c.nodes = append(c.nodes, greenNode{kind: ev.Node, span: ev.Span, leaf: true})
			invariant.Invariant(len(stack) > 0, "token event outside any node")
			stack[len(stack)-1].children = append(stack[len(stack)-1].children, idx)

		case EventError:
			c.errors = append(c.errors, SyntaxError{Message: ev.Message, Span: ev.Span})
		}
	}

	invariant.Postcondition(len(stack) == 0, "unbalanced event stream: %d nodes left open", len(stack))
	if lossless {
		invariant.Postcondition(prevEnd == len(source),
			"lossless walk broken: leaves cover %d of %d bytes", prevEnd, len(source))
	}
	return c
}

// Source returns the source code the tree was built from.
func (c *CST) Source() []byte { return c.source }

// Root returns the SOURCE_FILE node at the root of the tree.
func (c *CST) Root() Node {
	return Node{cst: c, idx: c.root, parent: -1}
}

// Errors returns the errors found while parsing, in source order.
func (c *CST) Errors() []SyntaxError { return c.errors }

// String returns an indented dump of the tree, used by tests and the
// debug CLI.
func (c *CST) String() string {
	var b strings.Builder
	c.dump(&b, c.root, 0)
	return b.String()
}

func (c *CST) dump(b *strings.Builder, idx, depth int) {
	n := c.nodes[idx]
	b.WriteString(strings.Repeat("  ", depth))
	if n.leaf {
		fmt.Fprintf(b, "%s@%d..%d %q\n", n.kind, n.span.Start(), n.span.End(), n.span.Bytes(c.source))
		return
	}
	fmt.Fprintf(b, "%s@%d..%d\n", n.kind, n.span.Start(), n.span.End())
	for _, ch := range n.children {
		c.dump(b, ch, depth+1)
	}
}

// Node is a lightweight handle into the CST. Nodes are cheap to copy and
// carry an upward link to their parent.
type Node struct {
	cst    *CST
	idx    int
	parent int
}

// Kind returns the syntax kind of the node.
func (n Node) Kind() SyntaxKind { return n.cst.nodes[n.idx].kind }

// Span returns the byte range the node covers.
func (n Node) Span() span.Span { return n.cst.nodes[n.idx].span }

// Text returns the source bytes the node covers.
func (n Node) Text() []byte { return n.Span().Bytes(n.cst.source) }

// IsLeaf reports whether the node is a token leaf.
func (n Node) IsLeaf() bool { return n.cst.nodes[n.idx].leaf }

// Children returns the node's children in source order.
func (n Node) Children() []Node {
	g := n.cst.nodes[n.idx]
	if g.children == nil {
		return nil
	}
	out := make([]Node, len(g.children))
	for i, ch := range g.children {
		out[i] = Node{cst: n.cst, idx: ch, parent: n.idx}
	}
	return out
}

// Parent returns the node's parent. ok is false at the root and on
// handles returned by Parent itself, which carry no further upward link.
func (n Node) Parent() (Node, bool) {
	if n.parent < 0 {
		return Node{}, false
	}
	return Node{cst: n.cst, idx: n.parent, parent: -1}, true
}

// ChildOfKind returns the first child with the given kind.
func (n Node) ChildOfKind(kind SyntaxKind) (Node, bool) {
	g := n.cst.nodes[n.idx]
	for _, ch := range g.children {
		if n.cst.nodes[ch].kind == kind {
			return Node{cst: n.cst, idx: ch, parent: n.idx}, true
		}
	}
	return Node{}, false
}

// ChildrenOfKind returns all children with the given kind.
func (n Node) ChildrenOfKind(kind SyntaxKind) []Node {
	var out []Node
	g := n.cst.nodes[n.idx]
	for _, ch := range g.children {
		if n.cst.nodes[ch].kind == kind {
			out = append(out, Node{cst: n.cst, idx: ch, parent: n.idx})
		}
	}
	return out
}
