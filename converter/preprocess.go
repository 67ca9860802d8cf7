package converter

import (
	"strings"

	"github.com/rgonek/html2md/dom"
)

// maxEmptyPasses bounds the empty-element fixpoint. A post-order pass
// reaches it at once; the bound only guards against a pass that keeps
// reporting removals.
const maxEmptyPasses = 64

// keepWhenEmpty lists elements that carry meaning without children.
var keepWhenEmpty = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true, "meta": true,
	"link": true, "area": true, "col": true, "embed": true, "source": true,
	"track": true, "wbr": true, "td": true, "th": true,
}

// preprocess cleans tree in place. The caller passes a private clone.
func preprocess(tree *dom.Tree, clean CleanOptions) {
	root := tree.Root()

	if len(clean.RemoveTags) > 0 {
		tags := lowerSet(clean.RemoveTags)
		removeWhere(tree, root, func(n dom.Node) bool {
			return n.Kind() == dom.ElementNode && tags[n.Tag()]
		})
	}

	if len(clean.RemoveAttrs) > 0 || len(clean.RemoveClasses) > 0 {
		attrs := lowerSet(clean.RemoveAttrs)
		classes := make(map[string]bool, len(clean.RemoveClasses))
		for _, class := range clean.RemoveClasses {
			classes[class] = true
		}
		walkElements(root, func(n dom.Node) {
			stripAttributes(tree, n, attrs, classes)
		})
	}

	if enabled(clean.RemoveComments) {
		removeWhere(tree, root, func(n dom.Node) bool {
			return n.Kind() == dom.CommentNode
		})
	}

	if enabled(clean.RemoveEmptyTags) {
		for range maxEmptyPasses {
			if !removeEmpty(tree, root) {
				break
			}
		}
	}
}

func stripAttributes(tree *dom.Tree, n dom.Node, attrs, classes map[string]bool) {
	for _, attr := range n.Attrs() {
		if attrs[strings.ToLower(attr.Key)] {
			tree.RemoveAttr(n, attr.Key)
		}
	}
	if len(classes) == 0 || !n.HasAttr("class") {
		return
	}

	var kept []string
	for _, class := range n.Classes() {
		if !classes[class] {
			kept = append(kept, class)
		}
	}
	if len(kept) == 0 {
		tree.RemoveAttr(n, "class")
		return
	}
	tree.SetAttr(n, "class", strings.Join(kept, " "))
}

// isEmptyElement reports an element with no children that is not meaningful
// on its own.
func isEmptyElement(n dom.Node) bool {
	return n.Kind() == dom.ElementNode && n.ChildCount() == 0 && !keepWhenEmpty[n.Tag()]
}

// removeWhere detaches every descendant of root matching pred. Children of
// removed nodes are not visited.
func removeWhere(tree *dom.Tree, root dom.Node, pred func(dom.Node) bool) {
	tree.RemoveChildren(root, pred)
	for _, child := range root.Children() {
		if child.Kind() == dom.ElementNode {
			removeWhere(tree, child, pred)
		}
	}
}

// removeEmpty removes empty elements below root, children before parents, so
// an element emptied by the removal of its children goes in the same pass.
// It reports whether anything was removed.
func removeEmpty(tree *dom.Tree, root dom.Node) bool {
	removed := false
	for _, child := range root.Children() {
		if child.Kind() == dom.ElementNode && removeEmpty(tree, child) {
			removed = true
		}
	}
	if tree.RemoveChildren(root, isEmptyElement) > 0 {
		removed = true
	}
	return removed
}

func walkElements(root dom.Node, fn func(dom.Node)) {
	for _, child := range root.Children() {
		if child.Kind() != dom.ElementNode {
			continue
		}
		fn(child)
		walkElements(child, fn)
	}
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}
