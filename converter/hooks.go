package converter

import (
	"context"
	"errors"
)

// ErrUnresolved indicates that a link or image reference could not be resolved by a hook.
var ErrUnresolved = errors.New("unresolved link or image reference")

// ConvertOptions carries optional per-conversion context.
type ConvertOptions struct {
	SourcePath string
}

// ReferenceMetadata exposes details parsed from a link or image URL.
type ReferenceMetadata struct {
	Filename string
	Anchor   string
}

// LinkRenderHook can rewrite link output during conversion.
type LinkRenderHook func(ctx context.Context, in LinkRenderInput) (LinkRenderOutput, error)

// ImageRenderHook can rewrite image output during conversion.
type ImageRenderHook func(ctx context.Context, in ImageRenderInput) (ImageRenderOutput, error)

// LinkRenderInput describes an anchor being rendered. Href is already
// resolved against the base URL.
type LinkRenderInput struct {
	SourcePath string
	Href       string
	Title      string
	Text       string
	Meta       ReferenceMetadata
	Attrs      map[string]string
}

// LinkRenderOutput contains hook-provided link rendering data.
type LinkRenderOutput struct {
	Href     string
	Title    string
	TextOnly bool
	Handled  bool
}

// ImageRenderInput describes an image being rendered.
type ImageRenderInput struct {
	SourcePath string
	Src        string
	Alt        string
	Title      string
	Meta       ReferenceMetadata
	Attrs      map[string]string
}

// ImageRenderOutput contains hook-provided image rendering data. Markdown,
// when set, replaces the whole image; otherwise Src and Title are used.
type ImageRenderOutput struct {
	Src      string
	Title    string
	Markdown string
	Handled  bool
}
