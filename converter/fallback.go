package converter

import (
	"strings"

	"github.com/rgonek/html2md/dom"
	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "center": true, "dd": true, "details": true, "dialog": true,
	"dir": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "html": true, "li": true,
	"main": true, "menu": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "summary": true, "table": true, "tbody": true, "td": true,
	"tfoot": true, "th": true, "thead": true, "tr": true, "ul": true,
	"video": true, "audio": true, "canvas": true, "noscript": true,
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// ignoredTags never produce output.
var ignoredTags = map[string]bool{
	"head": true, "title": true, "template": true,
}

func isBlockTag(tag string) bool {
	return blockTags[tag]
}

// renderFallback handles elements that no structural or inline rule claimed.
// With useHtmlTags the element is kept as raw markup around its rendered
// children; otherwise the wrapping tag is dropped.
func renderFallback(node dom.Node, content string, rc *RenderContext) Fragment {
	tag := node.Tag()
	if ignoredTags[tag] {
		return Fragment{}
	}
	if tag == "html" || tag == "body" {
		return rc.Children()
	}

	if !enabled(rc.opts.UseHTMLTags) {
		children := rc.Children()
		if isBlockTag(tag) && strings.TrimSpace(children.Text) != "" {
			children.Before = max(children.Before, 1)
			children.After = max(children.After, 1)
		}
		return children
	}

	open := openTag(node)
	if voidTags[tag] {
		if isBlockTag(tag) {
			return Block(open)
		}
		return Inline(open)
	}

	closing := "</" + tag + ">"
	if !isBlockTag(tag) {
		return Inline(open + content + closing)
	}

	inner := trimBlockContent(content, opensWithBlock(rc))
	if inner == "" {
		return Block(open + closing)
	}
	// Markdown inside an HTML block needs blank lines around it.
	return Block(open + "\n\n" + inner + "\n\n" + closing)
}

func openTag(node dom.Node) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(node.Tag())
	for _, attr := range node.Attrs() {
		sb.WriteByte(' ')
		sb.WriteString(attr.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(attr.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	return sb.String()
}
