package converter

import "strings"

// Fragment is the rendered output of a node together with its spacing needs.
//
// Before and After are the number of blank lines (0 to 2) the fragment wants
// around it. Line marks fragments that must start on their own line without a
// blank line, such as list items and table rows.
type Fragment struct {
	Text   string
	Before int
	After  int
	Line   bool
}

// Inline returns a fragment that joins its neighbours without separation.
func Inline(text string) Fragment {
	return Fragment{Text: text}
}

// Block returns a fragment separated from its neighbours by a blank line.
func Block(text string) Fragment {
	return Fragment{Text: text, Before: 1, After: 1}
}

// LineFragment returns a fragment that starts on its own line.
func LineFragment(text string) Fragment {
	return Fragment{Text: text, Line: true}
}

func (f Fragment) isBlock() bool {
	return f.Before > 0 || f.After > 0 || f.Line
}

// joiner merges sibling fragments under the block-spacing rules.
type joiner struct {
	buf      []byte
	preserve bool

	started   bool
	before    int
	firstLine bool
	after     int
	lastLine  bool
}

func newJoiner(preserve bool) *joiner {
	return &joiner{preserve: preserve}
}

func (j *joiner) add(f Fragment) {
	if f.Text == "" {
		return
	}

	if j.preserve {
		j.addPreserved(f)
		return
	}

	blank := strings.TrimSpace(f.Text) == ""
	if blank && !f.isBlock() && strings.Contains(f.Text, "\n") {
		// A hard break made of spaces; it only means something after content.
		if j.started {
			j.buf = append(j.buf, f.Text...)
		}
		return
	}
	if blank && !f.isBlock() {
		// Whitespace between blocks carries no content.
		if !j.started && len(j.buf) == 0 {
			j.buf = append(j.buf, ' ')
			return
		}
		if j.started && (j.after > 0 || j.lastLine) {
			return
		}
		if !j.endsWith(' ') && !j.endsWith('\n') {
			j.buf = append(j.buf, ' ')
		}
		return
	}
	if blank {
		return
	}

	if !j.started {
		j.start(f)
		return
	}

	text := f.Text
	sep := max(j.after, f.Before)
	switch {
	case sep > 0:
		j.trimRight()
		if !f.isBlock() {
			text = strings.TrimLeft(text, " \t\n")
		} else {
			text = strings.TrimLeft(text, "\n")
		}
		j.newlines(min(sep, 2) + 1)
	case j.lastLine || f.Line:
		j.trimRight()
		if !f.isBlock() {
			text = strings.TrimLeft(text, " \t\n")
		} else {
			text = strings.TrimLeft(text, "\n")
		}
		j.newlines(1)
	default:
		if j.endsWith(' ') || j.endsWith('\n') {
			text = strings.TrimLeft(text, " ")
		}
	}

	j.buf = append(j.buf, text...)
	j.after = f.After
	j.lastLine = f.Line
}

// atLineStart reports whether inline text added next would begin a line:
// nothing has been written yet, or the last piece was a block or ended in a
// line break.
func (j *joiner) atLineStart() bool {
	if !j.started {
		return true
	}
	return j.after > 0 || j.lastLine || j.endsWith('\n')
}

// start writes the first fragment with content. Leading whitespace collected
// before a block is discarded.
func (j *joiner) start(f Fragment) {
	text := f.Text
	if f.isBlock() {
		j.buf = j.buf[:0]
		text = strings.TrimLeft(text, "\n")
	} else if len(j.buf) > 0 {
		text = strings.TrimLeft(text, " ")
	}
	j.buf = append(j.buf, text...)
	j.started = true
	j.before = f.Before
	j.firstLine = f.Line
	j.after = f.After
	j.lastLine = f.Line
}

func (j *joiner) addPreserved(f Fragment) {
	if !j.started {
		j.started = true
		j.before = f.Before
		j.firstLine = f.Line
	} else if sep := max(j.after, f.Before); sep > 0 {
		j.newlines(min(sep, 2) + 1)
	} else if (j.lastLine || f.Line) && !j.endsWith('\n') {
		j.newlines(1)
	}
	j.buf = append(j.buf, f.Text...)
	j.after = f.After
	j.lastLine = f.Line
}

func (j *joiner) trimRight() {
	n := len(j.buf)
	for n > 0 && (j.buf[n-1] == ' ' || j.buf[n-1] == '\t' || j.buf[n-1] == '\n') {
		n--
	}
	j.buf = j.buf[:n]
}

func (j *joiner) endsWith(c byte) bool {
	return len(j.buf) > 0 && j.buf[len(j.buf)-1] == c
}

func (j *joiner) newlines(n int) {
	for range n {
		j.buf = append(j.buf, '\n')
	}
}

// fragment returns the merged result. It inherits Before from the first
// piece with content and After from the last.
func (j *joiner) fragment() Fragment {
	if !j.started {
		// Only whitespace was seen; keep a single space for inline joins.
		return Inline(string(j.buf))
	}
	return Fragment{
		Text:   string(j.buf),
		Before: j.before,
		After:  j.after,
		Line:   j.firstLine || j.lastLine,
	}
}
