// Package dom holds the parsed markup tree consumed by the converter.
//
// Nodes live in an arena owned by a Tree and are addressed through Node
// handles. Children are ordered index lists and the parent link is a plain
// index, so a node can report its parent without owning it.
package dom

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a node.
type Kind uint8

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
	CommentNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Attribute is a single name/value pair on an element. Order is preserved.
type Attribute struct {
	Key string
	Val string
}

type nodeID int32

const noParent nodeID = -1

type record struct {
	kind     Kind
	tag      string
	text     string
	attrs    []Attribute
	parent   nodeID
	pos      int32 // index in the parent's children
	children []nodeID
}

// Tree is an arena of nodes with a single root.
type Tree struct {
	nodes []record
	root  nodeID
}

// NewDocument creates a tree whose root is a document node.
func NewDocument() *Tree {
	t := &Tree{}
	t.root = t.alloc(record{kind: DocumentNode, parent: noParent})
	return t
}

// NewFragment creates a tree whose root is an element with the given tag.
// Fragments of markup are attached beneath it.
func NewFragment(rootTag string, attrs ...Attribute) *Tree {
	t := &Tree{}
	t.root = t.alloc(record{
		kind:   ElementNode,
		tag:    strings.ToLower(rootTag),
		attrs:  cloneAttrs(attrs),
		parent: noParent,
	})
	return t
}

func (t *Tree) alloc(r record) nodeID {
	t.nodes = append(t.nodes, r)
	return nodeID(len(t.nodes) - 1)
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return Node{tree: t, id: t.root}
}

// Body returns the first body element, if the tree has one.
func (t *Tree) Body() (Node, bool) {
	return t.Root().Find("body")
}

// AppendElement creates an element as the last child of parent.
func (t *Tree) AppendElement(parent Node, tag string, attrs ...Attribute) Node {
	return t.appendChild(parent, record{
		kind:  ElementNode,
		tag:   strings.ToLower(tag),
		attrs: cloneAttrs(attrs),
	})
}

// AppendText creates a text node as the last child of parent.
func (t *Tree) AppendText(parent Node, text string) Node {
	return t.appendChild(parent, record{kind: TextNode, text: text})
}

// AppendComment creates a comment node as the last child of parent.
func (t *Tree) AppendComment(parent Node, text string) Node {
	return t.appendChild(parent, record{kind: CommentNode, text: text})
}

func (t *Tree) appendChild(parent Node, r record) Node {
	r.parent = parent.id
	r.pos = int32(len(t.nodes[parent.id].children))
	id := t.alloc(r)
	t.nodes[parent.id].children = append(t.nodes[parent.id].children, id)
	return Node{tree: t, id: id}
}

// Remove detaches n (and its subtree) from its parent. The root cannot be removed.
func (t *Tree) Remove(n Node) {
	rec := &t.nodes[n.id]
	if rec.parent == noParent {
		return
	}
	siblings := t.nodes[rec.parent].children
	i := int(rec.pos)
	rest := siblings[i+1:]
	t.nodes[rec.parent].children = append(siblings[:i:i], rest...)
	for j, id := range rest {
		t.nodes[id].pos = int32(i + j)
	}
	rec.parent = noParent
	rec.pos = 0
}

// RemoveChildren detaches every child of parent matching pred in a single
// pass and reports how many were removed.
func (t *Tree) RemoveChildren(parent Node, pred func(Node) bool) int {
	children := t.nodes[parent.id].children
	kept := children[:0:0]
	for _, id := range children {
		if pred(Node{tree: t, id: id}) {
			t.nodes[id].parent = noParent
			t.nodes[id].pos = 0
			continue
		}
		t.nodes[id].pos = int32(len(kept))
		kept = append(kept, id)
	}
	removed := len(children) - len(kept)
	if removed > 0 {
		t.nodes[parent.id].children = kept
	}
	return removed
}

// SetAttr sets or replaces an attribute on an element.
func (t *Tree) SetAttr(n Node, key, val string) {
	rec := &t.nodes[n.id]
	for i := range rec.attrs {
		if rec.attrs[i].Key == key {
			rec.attrs[i].Val = val
			return
		}
	}
	rec.attrs = append(rec.attrs, Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute and reports whether it was present.
func (t *Tree) RemoveAttr(n Node, key string) bool {
	rec := &t.nodes[n.id]
	for i := range rec.attrs {
		if rec.attrs[i].Key == key {
			rec.attrs = append(rec.attrs[:i:i], rec.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Handles from the original do not address the copy.
func (t *Tree) Clone() *Tree {
	cloned := &Tree{
		nodes: make([]record, len(t.nodes)),
		root:  t.root,
	}
	for i, rec := range t.nodes {
		rec.attrs = cloneAttrs(rec.attrs)
		if rec.children != nil {
			rec.children = append([]nodeID(nil), rec.children...)
		}
		cloned.nodes[i] = rec
	}
	return cloned
}

func cloneAttrs(attrs []Attribute) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	return append([]Attribute(nil), attrs...)
}

// Node is a read-only handle to a node in a Tree.
type Node struct {
	tree *Tree
	id   nodeID
}

func (n Node) rec() *record {
	return &n.tree.nodes[n.id]
}

// IsZero reports whether n is the zero handle.
func (n Node) IsZero() bool {
	return n.tree == nil
}

// Kind returns the node variant.
func (n Node) Kind() Kind { return n.rec().kind }

// IsElement reports whether n is an element, optionally with one of the given tags.
func (n Node) IsElement(tags ...string) bool {
	if n.IsZero() || n.rec().kind != ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	tag := n.rec().tag
	for _, candidate := range tags {
		if tag == candidate {
			return true
		}
	}
	return false
}

// Tag returns the lower-case tag name of an element, or "" for other kinds.
func (n Node) Tag() string { return n.rec().tag }

// Text returns the payload of a text or comment node.
func (n Node) Text() string { return n.rec().text }

// Attr returns the value of an attribute.
func (n Node) Attr(key string) (string, bool) {
	for _, attr := range n.rec().attrs {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when the attribute is absent.
func (n Node) AttrOr(key, def string) string {
	if val, ok := n.Attr(key); ok {
		return val
	}
	return def
}

// HasAttr reports whether the attribute is present.
func (n Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// Attrs returns a copy of the attributes in source order.
func (n Node) Attrs() []Attribute {
	return cloneAttrs(n.rec().attrs)
}

// Classes splits the class attribute into tokens.
func (n Node) Classes() []string {
	return strings.Fields(n.AttrOr("class", ""))
}

// HasClass reports whether the class attribute contains the token.
func (n Node) HasClass(class string) bool {
	for _, token := range n.Classes() {
		if token == class {
			return true
		}
	}
	return false
}

// Parent returns the parent node. The root has none.
func (n Node) Parent() (Node, bool) {
	parent := n.rec().parent
	if parent == noParent {
		return Node{}, false
	}
	return Node{tree: n.tree, id: parent}, true
}

// Children returns the child nodes in order.
func (n Node) Children() []Node {
	ids := n.rec().children
	if len(ids) == 0 {
		return nil
	}
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}

// ChildCount returns the number of direct children.
func (n Node) ChildCount() int { return len(n.rec().children) }

// ElementChildren returns the element children, optionally filtered by tag.
func (n Node) ElementChildren(tags ...string) []Node {
	var out []Node
	for _, child := range n.Children() {
		if child.IsElement(tags...) {
			out = append(out, child)
		}
	}
	return out
}

// Index returns the position of n among its parent's children, or -1 for the root.
func (n Node) Index() int {
	if n.rec().parent == noParent {
		return -1
	}
	return int(n.rec().pos)
}

// PrevSibling returns the previous sibling.
func (n Node) PrevSibling() (Node, bool) {
	parent, ok := n.Parent()
	if !ok {
		return Node{}, false
	}
	idx := n.Index()
	if idx <= 0 {
		return Node{}, false
	}
	return Node{tree: n.tree, id: parent.rec().children[idx-1]}, true
}

// NextSibling returns the next sibling.
func (n Node) NextSibling() (Node, bool) {
	parent, ok := n.Parent()
	if !ok {
		return Node{}, false
	}
	idx := n.Index()
	siblings := parent.rec().children
	if idx < 0 || idx+1 >= len(siblings) {
		return Node{}, false
	}
	return Node{tree: n.tree, id: siblings[idx+1]}, true
}

// Closest returns the nearest ancestor element with one of the tags.
func (n Node) Closest(tags ...string) (Node, bool) {
	for cur, ok := n.Parent(); ok; cur, ok = cur.Parent() {
		if cur.IsElement(tags...) {
			return cur, true
		}
	}
	return Node{}, false
}

// Find returns the first descendant element with the tag, in document order.
func (n Node) Find(tag string) (Node, bool) {
	for _, child := range n.Children() {
		if child.IsElement(tag) {
			return child, true
		}
		if found, ok := child.Find(tag); ok {
			return found, true
		}
	}
	return Node{}, false
}

// TextContent concatenates the text of all descendant text nodes.
func (n Node) TextContent() string {
	if n.Kind() == TextNode {
		return n.Text()
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n Node) writeText(sb *strings.Builder) {
	for _, child := range n.Children() {
		switch child.Kind() {
		case TextNode:
			sb.WriteString(child.Text())
		case ElementNode:
			child.writeText(sb)
		}
	}
}

// Path describes the position of n for diagnostics, e.g. "body>ul[1]>li[2]".
// Indexes are 1-based among same-named siblings.
func (n Node) Path() string {
	var parts []string
	for cur := n; !cur.IsZero(); {
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		parts = append(parts, cur.pathSegment(parent))
		cur = parent
	}
	if len(parts) == 0 {
		return n.segmentName()
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ">")
}

func (n Node) segmentName() string {
	switch n.Kind() {
	case ElementNode:
		return n.Tag()
	case TextNode:
		return "#text"
	case CommentNode:
		return "#comment"
	default:
		return "#document"
	}
}

func (n Node) pathSegment(parent Node) string {
	name := n.segmentName()
	pos := 0
	for _, sibling := range parent.Children() {
		if sibling.segmentName() == name {
			pos++
		}
		if sibling.id == n.id {
			break
		}
	}
	return name + "[" + strconv.Itoa(pos) + "]"
}
