package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromHTML(doc), nil
}

// ParseString reads a full HTML document from a string.
func ParseString(markup string) (*Tree, error) {
	return Parse(strings.NewReader(markup))
}

// ParseFragment reads a markup fragment as the content of a rootTag element.
// The returned tree's root is that element.
func ParseFragment(r io.Reader, rootTag string) (*Tree, error) {
	rootTag = strings.ToLower(strings.TrimSpace(rootTag))
	if rootTag == "" {
		rootTag = "div"
	}

	context := &html.Node{
		Type:     html.ElementNode,
		Data:     rootTag,
		DataAtom: atom.Lookup([]byte(rootTag)),
	}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML fragment: %w", err)
	}

	t := NewFragment(rootTag)
	root := t.Root()
	for _, n := range nodes {
		t.importNode(root, n)
	}
	return t, nil
}

// FromHTML adapts an already-parsed x/net/html node. Document nodes become the
// tree root; any other node becomes the root element with its subtree below.
func FromHTML(n *html.Node) *Tree {
	var t *Tree
	switch n.Type {
	case html.DocumentNode:
		t = NewDocument()
	case html.ElementNode:
		t = NewFragment(n.Data, convertAttrs(n.Attr)...)
	default:
		t = NewDocument()
		t.importNode(t.Root(), n)
		return t
	}

	root := t.Root()
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		t.importNode(root, child)
	}
	return t
}

func (t *Tree) importNode(parent Node, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		el := t.AppendElement(parent, n.Data, convertAttrs(n.Attr)...)
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			t.importNode(el, child)
		}
	case html.TextNode, html.RawNode:
		t.AppendText(parent, n.Data)
	case html.CommentNode:
		t.AppendComment(parent, n.Data)
	case html.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			t.importNode(parent, child)
		}
	}
	// Doctype and error nodes carry nothing renderable.
}

func convertAttrs(attrs []html.Attribute) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(attrs))
	for _, attr := range attrs {
		key := attr.Key
		if attr.Namespace != "" {
			key = attr.Namespace + ":" + key
		}
		out = append(out, Attribute{Key: key, Val: attr.Val})
	}
	return out
}
