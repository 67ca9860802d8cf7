package converter

// Result holds the output of a conversion.
type Result struct {
	Markdown string    `json:"markdown"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// WarningType categorizes conversion warnings.
type WarningType string

const (
	WarningMalformedTable      WarningType = "malformed_table"
	WarningMissingAttribute    WarningType = "missing_attribute"
	WarningUnknownDialect      WarningType = "unknown_dialect"
	WarningUnresolvedReference WarningType = "unresolved_reference"
)

// Warning represents a non-fatal issue encountered during conversion.
type Warning struct {
	Type    WarningType `json:"type"`
	Tag     string      `json:"tag,omitempty"`
	Path    string      `json:"path,omitempty"`
	Message string      `json:"message"`
}

// warningSink collects warnings for a single conversion.
type warningSink struct {
	items []Warning
}

func (w *warningSink) add(typ WarningType, tag, path, message string) {
	w.items = append(w.items, Warning{
		Type:    typ,
		Tag:     tag,
		Path:    path,
		Message: message,
	})
}

func (w *warningSink) list() []Warning {
	if len(w.items) == 0 {
		return nil
	}
	return append([]Warning(nil), w.items...)
}
