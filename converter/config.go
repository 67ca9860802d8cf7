package converter

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Dialect names a bundle of Markdown style defaults.
type Dialect string

const (
	DialectCommonMark  Dialect = "commonmark"
	DialectGitHub      Dialect = "github"
	DialectTraditional Dialect = "traditional"
	DialectCustom      Dialect = "custom"
)

// HeadingStyle controls how headings are rendered.
type HeadingStyle string

const (
	HeadingATX    HeadingStyle = "atx"
	HeadingSetext HeadingStyle = "setext"
)

// CodeBlockStyle controls how pre blocks are rendered.
type CodeBlockStyle string

const (
	CodeBlockFenced   CodeBlockStyle = "fenced"
	CodeBlockIndented CodeBlockStyle = "indented"
)

// LinkStyle controls how anchors are rendered.
type LinkStyle string

const (
	LinkInlined    LinkStyle = "inlined"
	LinkReferenced LinkStyle = "referenced"
)

// BreakStyle controls how line breaks are rendered.
type BreakStyle string

const (
	BreakBackslash BreakStyle = "backslash"
	BreakSpaces    BreakStyle = "spaces"
)

// ResolutionMode controls how unresolved hook results are handled.
type ResolutionMode string

const (
	// ResolutionBestEffort continues conversion and falls back to built-in behavior.
	ResolutionBestEffort ResolutionMode = "best_effort"
	// ResolutionStrict fails conversion when a hook returns ErrUnresolved.
	ResolutionStrict ResolutionMode = "strict"
)

const invalidOptionCode = "INVALID_OPTION"

var defaultRemoveTags = []string{"script", "style", "noscript"}

// CleanOptions configures the preprocessor.
type CleanOptions struct {
	// RemoveTags drops elements with these tags and their subtrees.
	// Nil means script, style and noscript; an empty list removes nothing.
	RemoveTags      []string `json:"removeTags,omitempty" yaml:"removeTags,omitempty"`
	RemoveAttrs     []string `json:"removeAttrs,omitempty" yaml:"removeAttrs,omitempty"`
	RemoveClasses   []string `json:"removeClasses,omitempty" yaml:"removeClasses,omitempty"`
	RemoveEmptyTags *bool    `json:"removeEmptyTags,omitempty" yaml:"removeEmptyTags,omitempty"`
	RemoveComments  *bool    `json:"removeComments,omitempty" yaml:"removeComments,omitempty"`
}

// Options holds all converter configuration. Unset fields are filled from the
// dialect preset and then from built-in defaults.
type Options struct {
	Dialect          Dialect        `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Clean            CleanOptions   `json:"clean,omitempty" yaml:"clean,omitempty"`
	HeadingStyle     HeadingStyle   `json:"headingStyle,omitempty" yaml:"headingStyle,omitempty"`
	BulletListMarker string         `json:"bulletListMarker,omitempty" yaml:"bulletListMarker,omitempty"`
	CodeBlockStyle   CodeBlockStyle `json:"codeBlockStyle,omitempty" yaml:"codeBlockStyle,omitempty"`
	EmDelimiter      string         `json:"emDelimiter,omitempty" yaml:"emDelimiter,omitempty"`
	StrongDelimiter  string         `json:"strongDelimiter,omitempty" yaml:"strongDelimiter,omitempty"`
	LinkStyle        LinkStyle      `json:"linkStyle,omitempty" yaml:"linkStyle,omitempty"`
	BreakStyle       BreakStyle     `json:"breakStyle,omitempty" yaml:"breakStyle,omitempty"`
	UseHTMLTags      *bool          `json:"useHtmlTags,omitempty" yaml:"useHtmlTags,omitempty"`
	GFM              *bool          `json:"gfm,omitempty" yaml:"gfm,omitempty"`
	Strikethrough    *bool          `json:"strikethrough,omitempty" yaml:"strikethrough,omitempty"`
	Tables           *bool          `json:"tables,omitempty" yaml:"tables,omitempty"`
	TaskLists        *bool          `json:"taskLists,omitempty" yaml:"taskLists,omitempty"`
	SmartPunctuation *bool          `json:"smartPunctuation,omitempty" yaml:"smartPunctuation,omitempty"`
	FragmentRoot     string         `json:"fragmentRoot,omitempty" yaml:"fragmentRoot,omitempty"`
	BaseURL          string         `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	ResolutionMode   ResolutionMode `json:"resolutionMode,omitempty" yaml:"resolutionMode,omitempty"`

	LinkHook  LinkRenderHook  `json:"-" yaml:"-"`
	ImageHook ImageRenderHook `json:"-" yaml:"-"`
	Logger    Logger          `json:"-" yaml:"-"`
}

// Bool returns a pointer to v, for the tri-state option fields.
func Bool(v bool) *bool {
	return &v
}

func enabled(v *bool) bool {
	return v != nil && *v
}

// presetFor returns the named dialect bundle and whether the name was known.
// Unknown names resolve to the empty custom preset.
func presetFor(dialect Dialect) (Options, bool) {
	switch Dialect(strings.ToLower(strings.TrimSpace(string(dialect)))) {
	case DialectCommonMark:
		return Options{
			HeadingStyle:     HeadingATX,
			BulletListMarker: "*",
			CodeBlockStyle:   CodeBlockFenced,
			EmDelimiter:      "*",
			StrongDelimiter:  "**",
			LinkStyle:        LinkInlined,
			UseHTMLTags:      Bool(true),
			GFM:              Bool(false),
		}, true
	case "", DialectGitHub:
		return Options{
			HeadingStyle:     HeadingATX,
			BulletListMarker: "-",
			CodeBlockStyle:   CodeBlockFenced,
			EmDelimiter:      "*",
			StrongDelimiter:  "**",
			LinkStyle:        LinkInlined,
			UseHTMLTags:      Bool(true),
			GFM:              Bool(true),
			Strikethrough:    Bool(true),
			Tables:           Bool(true),
			TaskLists:        Bool(true),
		}, true
	case DialectTraditional:
		return Options{
			HeadingStyle:     HeadingSetext,
			BulletListMarker: "*",
			CodeBlockStyle:   CodeBlockIndented,
			EmDelimiter:      "_",
			StrongDelimiter:  "__",
			LinkStyle:        LinkReferenced,
			BreakStyle:       BreakSpaces,
			UseHTMLTags:      Bool(true),
			GFM:              Bool(false),
			SmartPunctuation: Bool(true),
		}, true
	case DialectCustom:
		return Options{}, true
	default:
		return Options{}, false
	}
}

// Merge overlays override on base. Any field set in override wins.
func Merge(base, override Options) Options {
	out := base.clone()

	if override.Dialect != "" {
		out.Dialect = override.Dialect
	}
	if override.Clean.RemoveTags != nil {
		out.Clean.RemoveTags = cloneStrings(override.Clean.RemoveTags)
	}
	if override.Clean.RemoveAttrs != nil {
		out.Clean.RemoveAttrs = cloneStrings(override.Clean.RemoveAttrs)
	}
	if override.Clean.RemoveClasses != nil {
		out.Clean.RemoveClasses = cloneStrings(override.Clean.RemoveClasses)
	}
	out.Clean.RemoveEmptyTags = mergeBool(out.Clean.RemoveEmptyTags, override.Clean.RemoveEmptyTags)
	out.Clean.RemoveComments = mergeBool(out.Clean.RemoveComments, override.Clean.RemoveComments)

	if override.HeadingStyle != "" {
		out.HeadingStyle = override.HeadingStyle
	}
	if override.BulletListMarker != "" {
		out.BulletListMarker = override.BulletListMarker
	}
	if override.CodeBlockStyle != "" {
		out.CodeBlockStyle = override.CodeBlockStyle
	}
	if override.EmDelimiter != "" {
		out.EmDelimiter = override.EmDelimiter
	}
	if override.StrongDelimiter != "" {
		out.StrongDelimiter = override.StrongDelimiter
	}
	if override.LinkStyle != "" {
		out.LinkStyle = override.LinkStyle
	}
	if override.BreakStyle != "" {
		out.BreakStyle = override.BreakStyle
	}
	out.UseHTMLTags = mergeBool(out.UseHTMLTags, override.UseHTMLTags)
	out.GFM = mergeBool(out.GFM, override.GFM)
	out.Strikethrough = mergeBool(out.Strikethrough, override.Strikethrough)
	out.Tables = mergeBool(out.Tables, override.Tables)
	out.TaskLists = mergeBool(out.TaskLists, override.TaskLists)
	out.SmartPunctuation = mergeBool(out.SmartPunctuation, override.SmartPunctuation)
	if override.FragmentRoot != "" {
		out.FragmentRoot = override.FragmentRoot
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.ResolutionMode != "" {
		out.ResolutionMode = override.ResolutionMode
	}
	if override.LinkHook != nil {
		out.LinkHook = override.LinkHook
	}
	if override.ImageHook != nil {
		out.ImageHook = override.ImageHook
	}
	if override.Logger != nil {
		out.Logger = override.Logger
	}

	return out
}

func mergeBool(base, override *bool) *bool {
	if override != nil {
		return Bool(*override)
	}
	if base != nil {
		return Bool(*base)
	}
	return nil
}

// resolveOptions merges the dialect preset with user options and fills defaults.
// The second result is false when the dialect name was not recognized.
func resolveOptions(user Options) (Options, bool) {
	preset, known := presetFor(user.Dialect)
	merged := Merge(preset, user)
	if merged.Dialect == "" {
		merged.Dialect = DialectGitHub
	}
	return merged.applyDefaults(), known
}

func (o Options) applyDefaults() Options {
	if o.Clean.RemoveTags == nil {
		o.Clean.RemoveTags = cloneStrings(defaultRemoveTags)
	}
	if o.Clean.RemoveEmptyTags == nil {
		o.Clean.RemoveEmptyTags = Bool(false)
	}
	if o.Clean.RemoveComments == nil {
		o.Clean.RemoveComments = Bool(true)
	}
	if o.HeadingStyle == "" {
		o.HeadingStyle = HeadingATX
	}
	if o.BulletListMarker == "" {
		o.BulletListMarker = "-"
	}
	if o.CodeBlockStyle == "" {
		o.CodeBlockStyle = CodeBlockFenced
	}
	if o.EmDelimiter == "" {
		o.EmDelimiter = "*"
	}
	if o.StrongDelimiter == "" {
		o.StrongDelimiter = "**"
	}
	if o.LinkStyle == "" {
		o.LinkStyle = LinkInlined
	}
	if o.BreakStyle == "" {
		o.BreakStyle = BreakBackslash
	}
	if o.UseHTMLTags == nil {
		o.UseHTMLTags = Bool(false)
	}
	if o.GFM == nil {
		o.GFM = Bool(false)
	}
	// GFM switches on its extensions unless they were set explicitly.
	if o.Strikethrough == nil {
		o.Strikethrough = Bool(*o.GFM)
	}
	if o.Tables == nil {
		o.Tables = Bool(*o.GFM)
	}
	if o.TaskLists == nil {
		o.TaskLists = Bool(*o.GFM)
	}
	if o.SmartPunctuation == nil {
		o.SmartPunctuation = Bool(false)
	}
	if o.FragmentRoot == "" {
		o.FragmentRoot = "div"
	}
	if o.ResolutionMode == "" {
		o.ResolutionMode = ResolutionBestEffort
	}
	if o.Logger == nil {
		o.Logger = NoOpLogger()
	}

	return o
}

// clone returns a deep copy of Options for slice- and pointer-backed fields.
func (o Options) clone() Options {
	cloned := o
	cloned.Clean.RemoveTags = cloneStrings(o.Clean.RemoveTags)
	cloned.Clean.RemoveAttrs = cloneStrings(o.Clean.RemoveAttrs)
	cloned.Clean.RemoveClasses = cloneStrings(o.Clean.RemoveClasses)
	cloned.Clean.RemoveEmptyTags = mergeBool(nil, o.Clean.RemoveEmptyTags)
	cloned.Clean.RemoveComments = mergeBool(nil, o.Clean.RemoveComments)
	cloned.UseHTMLTags = mergeBool(nil, o.UseHTMLTags)
	cloned.GFM = mergeBool(nil, o.GFM)
	cloned.Strikethrough = mergeBool(nil, o.Strikethrough)
	cloned.Tables = mergeBool(nil, o.Tables)
	cloned.TaskLists = mergeBool(nil, o.TaskLists)
	cloned.SmartPunctuation = mergeBool(nil, o.SmartPunctuation)
	return cloned
}

// Validate checks that set option values are in range. Unset values are allowed.
func (o Options) Validate() error {
	if o.HeadingStyle != "" && o.HeadingStyle != HeadingATX && o.HeadingStyle != HeadingSetext {
		return invalidOption(fmt.Errorf("invalid headingStyle %q", o.HeadingStyle))
	}
	if o.BulletListMarker != "" && o.BulletListMarker != "-" && o.BulletListMarker != "*" && o.BulletListMarker != "+" {
		return invalidOption(fmt.Errorf("invalid bulletListMarker %q: must be one of -, *, +", o.BulletListMarker))
	}
	if o.CodeBlockStyle != "" && o.CodeBlockStyle != CodeBlockFenced && o.CodeBlockStyle != CodeBlockIndented {
		return invalidOption(fmt.Errorf("invalid codeBlockStyle %q", o.CodeBlockStyle))
	}
	if o.EmDelimiter != "" && o.EmDelimiter != "*" && o.EmDelimiter != "_" {
		return invalidOption(fmt.Errorf("invalid emDelimiter %q: must be * or _", o.EmDelimiter))
	}
	if o.StrongDelimiter != "" && o.StrongDelimiter != "**" && o.StrongDelimiter != "__" {
		return invalidOption(fmt.Errorf("invalid strongDelimiter %q: must be ** or __", o.StrongDelimiter))
	}
	if o.LinkStyle != "" && o.LinkStyle != LinkInlined && o.LinkStyle != LinkReferenced {
		return invalidOption(fmt.Errorf("invalid linkStyle %q", o.LinkStyle))
	}
	if o.BreakStyle != "" && o.BreakStyle != BreakBackslash && o.BreakStyle != BreakSpaces {
		return invalidOption(fmt.Errorf("invalid breakStyle %q", o.BreakStyle))
	}
	if o.ResolutionMode != "" && o.ResolutionMode != ResolutionBestEffort && o.ResolutionMode != ResolutionStrict {
		return invalidOption(fmt.Errorf("invalid resolutionMode %q", o.ResolutionMode))
	}
	for _, tag := range o.Clean.RemoveTags {
		if strings.TrimSpace(tag) == "" {
			return invalidOption(fmt.Errorf("clean.removeTags contains an empty tag name"))
		}
	}
	if strings.ContainsAny(o.FragmentRoot, " <>/\t\n") {
		return invalidOption(fmt.Errorf("invalid fragmentRoot %q", o.FragmentRoot))
	}

	return nil
}

func invalidOption(err error) error {
	return goerrors.Wrap(fmt.Errorf("%w: %w", ErrInvalidOption, err), goerrors.CategoryValidation, "invalid converter options").
		WithTextCode(invalidOptionCode)
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string{}, src...)
}
