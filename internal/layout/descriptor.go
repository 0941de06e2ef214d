// Package layout locates the data region of a spreadsheet report and
// maps semantic fields to column offsets. The descriptor is produced
// once per document and passed explicitly to the extractor; it is never
// re-derived per row.
package layout

import (
	"regexp"
	"strings"

	"tixcli/pkg/contracts/domain"
)

// SectionMarker recognizes a series section-header row and yields its
// series label.
type SectionMarker struct {
	Pattern *regexp.Regexp
	// Series overrides the captured label when non-empty.
	Series string
}

// Descriptor maps every field the pipeline needs to a concrete column
// offset or an explicit unavailable marker. Silent absence is not
// allowed: Available and Offset together cover every known FieldKind.
type Descriptor struct {
	HeaderRow int
	DataStart int

	offsets     map[domain.FieldKind]int
	unavailable map[domain.FieldKind]bool

	Sections []SectionMarker
}

func newDescriptor(headerRow int) *Descriptor {
	return &Descriptor{
		HeaderRow:   headerRow,
		DataStart:   headerRow + 1,
		offsets:     make(map[domain.FieldKind]int),
		unavailable: make(map[domain.FieldKind]bool),
		Sections:    DefaultSectionMarkers(),
	}
}

// Offset returns the column offset for a field. The second return is
// false when the field is unavailable in this layout.
func (d *Descriptor) Offset(kind domain.FieldKind) (int, bool) {
	off, ok := d.offsets[kind]
	return off, ok
}

// Available reports whether the layout resolved the field to a column.
func (d *Descriptor) Available(kind domain.FieldKind) bool {
	_, ok := d.offsets[kind]
	return ok
}

// Unavailable lists the fields this layout explicitly could not
// resolve, for diagnostics.
func (d *Descriptor) Unavailable() []domain.FieldKind {
	var kinds []domain.FieldKind
	for kind := range d.unavailable {
		kinds = append(kinds, kind)
	}
	return kinds
}

func (d *Descriptor) setOffset(kind domain.FieldKind, col int) {
	d.offsets[kind] = col
	delete(d.unavailable, kind)
}

func (d *Descriptor) markUnavailable(kind domain.FieldKind) {
	if _, ok := d.offsets[kind]; !ok {
		d.unavailable[kind] = true
	}
}

// SectionLabel matches a section-header cell against the descriptor's
// markers and returns the canonical-ish series label text.
func (d *Descriptor) SectionLabel(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	for _, marker := range d.Sections {
		m := marker.Pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		if marker.Series != "" {
			return marker.Series, true
		}
		if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1]), true
		}
		return trimmed, true
	}
	return "", false
}

// DefaultSectionMarkers covers the section-header shapes seen across
// report vintages: rows ending in SERIES or CONCERTS, and bare
// all-caps section names.
func DefaultSectionMarkers() []SectionMarker {
	return []SectionMarker{
		{Pattern: regexp.MustCompile(`(?i)^(.+?)\s+SERIES$`)},
		{Pattern: regexp.MustCompile(`(?i)^(.+?)\s+CONCERTS$`)},
		{Pattern: regexp.MustCompile(`(?i)^(.+?)\s+TOTAL$`)},
		{Pattern: regexp.MustCompile(`^([A-Z][A-Z &/\-]{3,})$`)},
	}
}
