package converter

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/rgonek/html2md/dom"
)

func (rc *RenderContext) applyLinkHook(node dom.Node, input LinkRenderInput) (LinkRenderOutput, bool, error) {
	if rc.opts.LinkHook == nil {
		return LinkRenderOutput{}, false, nil
	}

	if err := rc.ctx.Err(); err != nil {
		return LinkRenderOutput{}, false, err
	}

	output, err := rc.opts.LinkHook(rc.ctx, input)
	if err != nil {
		if errors.Is(err, ErrUnresolved) {
			if rc.opts.ResolutionMode == ResolutionStrict {
				return LinkRenderOutput{}, false, fmt.Errorf("unresolved link reference %q: %w", input.Href, err)
			}
			rc.Warn(
				WarningUnresolvedReference,
				node,
				fmt.Sprintf("unresolved link reference %q; using fallback rendering", input.Href),
			)
			return LinkRenderOutput{}, false, nil
		}
		return LinkRenderOutput{}, false, fmt.Errorf("link hook failed: %w", err)
	}

	if !output.Handled {
		return LinkRenderOutput{}, false, nil
	}

	if err := validateLinkRenderOutput(output); err != nil {
		return LinkRenderOutput{}, false, fmt.Errorf("invalid link hook output: %w", err)
	}

	output.Href = strings.TrimSpace(output.Href)
	output.Title = strings.TrimSpace(output.Title)

	return output, true, nil
}

func (rc *RenderContext) applyImageHook(node dom.Node, input ImageRenderInput) (ImageRenderOutput, bool, error) {
	if rc.opts.ImageHook == nil {
		return ImageRenderOutput{}, false, nil
	}

	if err := rc.ctx.Err(); err != nil {
		return ImageRenderOutput{}, false, err
	}

	output, err := rc.opts.ImageHook(rc.ctx, input)
	if err != nil {
		if errors.Is(err, ErrUnresolved) {
			if rc.opts.ResolutionMode == ResolutionStrict {
				return ImageRenderOutput{}, false, fmt.Errorf("unresolved image reference %q: %w", input.Src, err)
			}
			rc.Warn(
				WarningUnresolvedReference,
				node,
				fmt.Sprintf("unresolved image reference %q; using fallback rendering", input.Src),
			)
			return ImageRenderOutput{}, false, nil
		}
		return ImageRenderOutput{}, false, fmt.Errorf("image hook failed: %w", err)
	}

	if !output.Handled {
		return ImageRenderOutput{}, false, nil
	}

	if err := validateImageRenderOutput(output); err != nil {
		return ImageRenderOutput{}, false, fmt.Errorf("invalid image hook output: %w", err)
	}

	output.Src = strings.TrimSpace(output.Src)
	output.Title = strings.TrimSpace(output.Title)

	return output, true, nil
}

func validateLinkRenderOutput(output LinkRenderOutput) error {
	if output.TextOnly {
		return nil
	}
	if strings.TrimSpace(output.Href) == "" {
		return errors.New("handled link render output requires non-empty href unless textOnly is true")
	}
	return nil
}

func validateImageRenderOutput(output ImageRenderOutput) error {
	if strings.TrimSpace(output.Markdown) == "" && strings.TrimSpace(output.Src) == "" {
		return errors.New("handled image render output requires markdown or src")
	}
	return nil
}

func attrMap(node dom.Node) map[string]string {
	attrs := node.Attrs()
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		out[attr.Key] = attr.Val
	}
	return out
}

func referenceMetadata(reference string) ReferenceMetadata {
	filename, anchor := parseReferenceDetails(reference)
	return ReferenceMetadata{Filename: filename, Anchor: anchor}
}

func parseReferenceDetails(reference string) (string, string) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", ""
	}

	parsed, err := url.Parse(reference)
	if err != nil {
		return parseReferenceDetailsFallback(reference)
	}

	anchor := strings.TrimSpace(parsed.Fragment)
	referencePath := parsed.Path
	if referencePath == "" && parsed.Host == "" && parsed.Fragment == "" {
		referencePath = reference
	}
	return baseName(referencePath), anchor
}

func parseReferenceDetailsFallback(reference string) (string, string) {
	anchor := ""
	if hashIndex := strings.LastIndex(reference, "#"); hashIndex >= 0 {
		anchor = strings.TrimSpace(reference[hashIndex+1:])
		reference = reference[:hashIndex]
	}
	return baseName(reference), anchor
}

func baseName(reference string) string {
	reference = strings.ReplaceAll(reference, "\\", "/")
	reference = strings.TrimRight(reference, "/")
	if reference == "" {
		return ""
	}

	filename := strings.TrimSpace(path.Base(reference))
	if filename == "." || filename == "/" {
		return ""
	}
	return filename
}
