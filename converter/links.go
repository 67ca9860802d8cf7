package converter

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rgonek/html2md/dom"
)

var destinationReplacer = strings.NewReplacer(
	"(", `\(`,
	")", `\)`,
	" ", "%20",
)

// linkTextBreaks matches a line break in link text together with a hard-break
// backslash and the surrounding whitespace.
var linkTextBreaks = regexp.MustCompile(`\\?[ \t]*\n\s*`)

type linkRule struct{}

func (linkRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("a")
}

func (linkRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return Fragment{}, nil
	}

	rawHref, hasHref := node.Attr("href")
	href := strings.TrimSpace(rawHref)
	if href == "" {
		if !hasHref && !node.HasAttr("name") && !node.HasAttr("id") {
			rc.Warn(WarningMissingAttribute, node, "link has no href; keeping text only")
		}
		return rc.Children(), nil
	}

	href = resolveURL(rc.opts.BaseURL, href)
	title := strings.TrimSpace(node.AttrOr("title", ""))

	output, handled, err := rc.applyLinkHook(node, LinkRenderInput{
		SourcePath: rc.sourcePath,
		Href:       href,
		Title:      title,
		Text:       strings.TrimSpace(node.TextContent()),
		Meta:       referenceMetadata(href),
		Attrs:      attrMap(node),
	})
	if err != nil {
		return Fragment{}, err
	}
	if handled {
		if output.TextOnly {
			return rc.Children(), nil
		}
		href = output.Href
		title = output.Title
	}

	// Link text is a single inline run; blocks inside the anchor are joined.
	text = linkTextBreaks.ReplaceAllString(text, " ")

	var rendered string
	switch {
	case rc.opts.LinkStyle == LinkReferenced:
		n := rc.refs.ref(href, title)
		rendered = "[" + text + "][" + strconv.Itoa(n) + "]"
	case title == "" && isAutolink(node, href):
		rendered = "<" + href + ">"
	default:
		rendered = "[" + text + "](" + formatDestination(href) + formatTitle(title) + ")"
	}

	return Inline(flank(content, rendered)), nil
}

// isAutolink reports whether the anchor text is its own absolute href.
func isAutolink(node dom.Node, href string) bool {
	if strings.TrimSpace(node.TextContent()) != href {
		return false
	}
	if strings.ContainsAny(href, " <>") {
		return false
	}
	u, err := url.Parse(href)
	return err == nil && u.IsAbs()
}

type imageRule struct{}

func (imageRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("img")
}

func (imageRule) Render(node dom.Node, _ string, rc *RenderContext) (Fragment, error) {
	src := strings.TrimSpace(node.AttrOr("src", ""))
	if src == "" {
		rc.Warn(WarningMissingAttribute, node, "image has no src; dropping it")
		return Fragment{}, nil
	}

	src = resolveURL(rc.opts.BaseURL, src)
	alt := collapseWhitespace(strings.TrimSpace(node.AttrOr("alt", "")))
	title := strings.TrimSpace(node.AttrOr("title", ""))

	output, handled, err := rc.applyImageHook(node, ImageRenderInput{
		SourcePath: rc.sourcePath,
		Src:        src,
		Alt:        alt,
		Title:      title,
		Meta:       referenceMetadata(src),
		Attrs:      attrMap(node),
	})
	if err != nil {
		return Fragment{}, err
	}
	if handled {
		if output.Markdown != "" {
			return Inline(output.Markdown), nil
		}
		src = output.Src
		title = output.Title
	}

	return Inline("![" + escapeAlt(alt) + "](" + formatDestination(src) + formatTitle(title) + ")"), nil
}

func escapeAlt(alt string) string {
	return strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`).Replace(alt)
}

func formatDestination(href string) string {
	return destinationReplacer.Replace(href)
}

func formatTitle(title string) string {
	if title == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}

// resolveURL resolves ref against base. Fragment-only references and
// unparsable values are returned unchanged.
func resolveURL(base, ref string) string {
	if base == "" || strings.HasPrefix(ref, "#") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// flank keeps the leading and trailing whitespace of content around rendered.
func flank(content, rendered string) string {
	if content == "" {
		return rendered
	}
	if content[0] == ' ' {
		rendered = " " + rendered
	}
	if content[len(content)-1] == ' ' {
		rendered += " "
	}
	return rendered
}
