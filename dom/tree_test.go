package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	tree := NewFragment("div")
	root := tree.Root()
	p := tree.AppendElement(root, "P", Attribute{Key: "class", Val: "lead intro"})
	text := tree.AppendText(p, "hello")
	tree.AppendComment(root, "note")

	assert.Equal(t, ElementNode, root.Kind())
	assert.Equal(t, "p", p.Tag())
	assert.True(t, p.IsElement("p", "div"))
	assert.False(t, text.IsElement())
	assert.Equal(t, []string{"lead", "intro"}, p.Classes())
	assert.True(t, p.HasClass("intro"))
	assert.Equal(t, 2, root.ChildCount())
	assert.Len(t, root.ElementChildren(), 1)

	parent, ok := text.Parent()
	require.True(t, ok)
	assert.Equal(t, p, parent)

	_, ok = root.Parent()
	assert.False(t, ok)
}

func TestSiblingsAndIndex(t *testing.T) {
	tree := NewFragment("ul")
	root := tree.Root()
	a := tree.AppendElement(root, "li")
	b := tree.AppendElement(root, "li")

	assert.Equal(t, 0, a.Index())
	assert.Equal(t, 1, b.Index())

	prev, ok := b.PrevSibling()
	require.True(t, ok)
	assert.Equal(t, a, prev)

	_, ok = a.PrevSibling()
	assert.False(t, ok)

	next, ok := a.NextSibling()
	require.True(t, ok)
	assert.Equal(t, b, next)
}

func TestRemoveAndAttrs(t *testing.T) {
	tree := NewFragment("div")
	root := tree.Root()
	span := tree.AppendElement(root, "span", Attribute{Key: "id", Val: "x"}, Attribute{Key: "style", Val: "color: red"})
	tree.AppendText(root, "tail")

	tree.SetAttr(span, "id", "y")
	tree.SetAttr(span, "title", "t")
	assert.Equal(t, "y", span.AttrOr("id", ""))
	assert.True(t, tree.RemoveAttr(span, "style"))
	assert.False(t, tree.RemoveAttr(span, "style"))
	assert.Equal(t, []Attribute{{Key: "id", Val: "y"}, {Key: "title", Val: "t"}}, span.Attrs())

	tree.Remove(span)
	assert.Equal(t, 1, root.ChildCount())
	assert.Equal(t, "tail", root.TextContent())
}

func TestRemoveKeepsSiblingPositions(t *testing.T) {
	tree := NewFragment("ul")
	root := tree.Root()
	var items []Node
	for range 5 {
		items = append(items, tree.AppendElement(root, "li"))
	}

	tree.Remove(items[1])
	assert.Equal(t, -1, items[1].Index())
	assert.Equal(t, 0, items[0].Index())
	assert.Equal(t, 1, items[2].Index())
	assert.Equal(t, 3, items[4].Index())

	next, ok := items[0].NextSibling()
	require.True(t, ok)
	assert.Equal(t, items[2], next)

	removed := tree.RemoveChildren(root, func(n Node) bool { return n == items[2] || n == items[4] })
	assert.Equal(t, 2, removed)
	assert.Equal(t, []Node{items[0], items[3]}, root.Children())
	assert.Equal(t, 1, items[3].Index())

	prev, ok := items[3].PrevSibling()
	require.True(t, ok)
	assert.Equal(t, items[0], prev)
	_, ok = items[3].NextSibling()
	assert.False(t, ok)
	_, ok = items[4].Parent()
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	tree := NewFragment("div")
	p := tree.AppendElement(tree.Root(), "p")
	tree.AppendText(p, "one")

	cloned := tree.Clone()
	cp := cloned.Root().Children()[0]
	cloned.Remove(cp)

	assert.Equal(t, 0, cloned.Root().ChildCount())
	assert.Equal(t, 1, tree.Root().ChildCount())
	assert.Equal(t, "one", tree.Root().TextContent())
}

func TestPath(t *testing.T) {
	tree, err := ParseString("<html><body><div><p>a</p><p>b <em>c</em></p></div></body></html>")
	require.NoError(t, err)

	body, ok := tree.Body()
	require.True(t, ok)
	div := body.ElementChildren("div")[0]
	second := div.ElementChildren("p")[1]
	em := second.ElementChildren("em")[0]

	assert.Equal(t, "html[1]>body[1]>div[1]>p[2]>em[1]", em.Path())
	assert.Equal(t, "#document", tree.Root().Path())
}

func TestParseDocument(t *testing.T) {
	tree, err := Parse(strings.NewReader(`<!DOCTYPE html><html><head><title>T</title></head><body><!-- c --><p class="x">Hi</p></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, DocumentNode, tree.Root().Kind())
	body, ok := tree.Body()
	require.True(t, ok)

	children := body.Children()
	require.Len(t, children, 2)
	assert.Equal(t, CommentNode, children[0].Kind())
	assert.Equal(t, " c ", children[0].Text())
	assert.Equal(t, "p", children[1].Tag())
	assert.Equal(t, "x", children[1].AttrOr("class", ""))
}

func TestParseFragment(t *testing.T) {
	tree, err := ParseFragment(strings.NewReader("<li>one</li><li>two</li>"), "ul")
	require.NoError(t, err)

	root := tree.Root()
	assert.Equal(t, "ul", root.Tag())
	items := root.ElementChildren("li")
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[1].TextContent())
}

func TestParseFragmentDefaultsToDiv(t *testing.T) {
	tree, err := ParseFragment(strings.NewReader("<p>x</p>"), " ")
	require.NoError(t, err)
	assert.Equal(t, "div", tree.Root().Tag())
	_, ok := tree.Body()
	assert.False(t, ok)
}

func TestClosestAndFind(t *testing.T) {
	tree, err := ParseFragment(strings.NewReader("<table><tbody><tr><td><b>x</b></td></tr></tbody></table>"), "div")
	require.NoError(t, err)

	b, ok := tree.Root().Find("b")
	require.True(t, ok)
	table, ok := b.Closest("table")
	require.True(t, ok)
	assert.Equal(t, "table", table.Tag())

	_, ok = b.Closest("pre")
	assert.False(t, ok)
}
