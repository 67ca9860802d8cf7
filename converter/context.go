package converter

import (
	"context"

	"github.com/rgonek/html2md/dom"
)

type listFrame struct {
	ordered bool
	start   int

	// positions maps each li child of an ordered list to its 0-based index.
	positions map[dom.Node]int
}

// RenderContext carries the nesting state seen by a subtree. A context is
// never mutated after creation; extensions copy it.
type RenderContext struct {
	ctx        context.Context
	opts       *Options
	sourcePath string

	lists       []listFrame
	quoteDepth  int
	table       *tableInfo
	cellColumns map[dom.Node]int // first column of each cell in the current row
	preserve    bool
	lineStart   bool // the text node being rendered begins a Markdown line

	// per-call state shared by every context derived from the root
	refs     *linkTable
	warnings *warningSink

	// spacing-preserving merge of the children of the node being rendered
	children Fragment
}

func newRenderContext(ctx context.Context, opts *Options, sourcePath string) *RenderContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RenderContext{
		ctx:        ctx,
		opts:       opts,
		sourcePath: sourcePath,
		refs:       newLinkTable(),
		warnings:   &warningSink{},
	}
}

// Context returns the per-call context handed to hooks.
func (rc *RenderContext) Context() context.Context { return rc.ctx }

// Options returns the resolved options of the converter.
func (rc *RenderContext) Options() *Options { return rc.opts }

// ListDepth returns the number of enclosing lists.
func (rc *RenderContext) ListDepth() int { return len(rc.lists) }

// QuoteDepth returns the number of enclosing blockquotes.
func (rc *RenderContext) QuoteDepth() int { return rc.quoteDepth }

// InTable reports whether the subtree is inside a table.
func (rc *RenderContext) InTable() bool { return rc.table != nil }

// Preserve reports whether whitespace is kept verbatim.
func (rc *RenderContext) Preserve() bool { return rc.preserve }

// Children returns the merged fragment of the children of the node being
// rendered, with its block spacing intact. Pass-through rules return it as is.
func (rc *RenderContext) Children() Fragment { return rc.children }

// Warn records a non-fatal issue for node.
func (rc *RenderContext) Warn(typ WarningType, node dom.Node, message string) {
	rc.warnings.add(typ, node.Tag(), node.Path(), message)
	rc.opts.Logger.Warn("conversion warning", "type", string(typ), "path", node.Path(), "message", message)
}

func (rc *RenderContext) list() (listFrame, bool) {
	if len(rc.lists) == 0 {
		return listFrame{}, false
	}
	return rc.lists[len(rc.lists)-1], true
}

func (rc *RenderContext) withList(frame listFrame) *RenderContext {
	next := *rc
	next.lists = append(append(make([]listFrame, 0, len(rc.lists)+1), rc.lists...), frame)
	return &next
}

func (rc *RenderContext) withQuote() *RenderContext {
	next := *rc
	next.quoteDepth++
	return &next
}

func (rc *RenderContext) withTable(info *tableInfo) *RenderContext {
	next := *rc
	next.table = info
	return &next
}

func (rc *RenderContext) withRow(columns map[dom.Node]int) *RenderContext {
	next := *rc
	next.cellColumns = columns
	return &next
}

func (rc *RenderContext) withPreserve() *RenderContext {
	next := *rc
	next.preserve = true
	return &next
}

type linkRef struct {
	url   string
	title string
}

// linkTable numbers referenced links in first-seen order, deduplicated by
// (url, title).
type linkTable struct {
	index map[linkRef]int
	order []linkRef
}

func newLinkTable() *linkTable {
	return &linkTable{index: map[linkRef]int{}}
}

func (t *linkTable) ref(url, title string) int {
	key := linkRef{url: url, title: title}
	if n, ok := t.index[key]; ok {
		return n
	}
	t.order = append(t.order, key)
	n := len(t.order)
	t.index[key] = n
	return n
}

func (t *linkTable) entries() []linkRef {
	return t.order
}
