// Package document holds the engine's structured representation of a parsed
// file and the renderers that turn it into plaintext, markdown or HTML.
package document

// ItemKind classifies a structural element.
type ItemKind string

const (
	KindTitle     ItemKind = "title"
	KindHeading   ItemKind = "heading"
	KindParagraph ItemKind = "paragraph"
	KindListItem  ItemKind = "list_item"
	KindTable     ItemKind = "table"
	KindPicture   ItemKind = "picture"
	KindCode      ItemKind = "code"
)

// Image is an embedded picture.
type Image struct {
	MIMEType string
	Data     []byte
}

// Item is one structural element in reading order.
type Item struct {
	Kind ItemKind
	// Level is the heading depth (1-6) for titles and headings.
	Level int
	Text  string
	// Page is 1-based. Zero means the source has no pagination.
	Page int
	// Rows holds table cells; the first row is the header.
	Rows    [][]string
	Ordered bool
	Image   *Image
}

// Document is the parsed, format-independent form of an input file.
type Document struct {
	Name   string
	Format string
	// Pages is the page count of paginated sources (PDF, slides).
	Pages     int
	Paginated bool
	Items     []Item
}

// PageCount returns the number of pages, or nil when the source has none.
func (d *Document) PageCount() *int {
	if d == nil || !d.Paginated {
		return nil
	}
	n := d.Pages
	return &n
}

// Add appends an item, ignoring empty text items.
func (d *Document) Add(it Item) {
	switch it.Kind {
	case KindTable:
		if len(it.Rows) == 0 {
			return
		}
	case KindPicture:
		if it.Image == nil && it.Text == "" {
			return
		}
	default:
		if it.Text == "" {
			return
		}
	}
	d.Items = append(d.Items, it)
}

// IsHeading reports whether the item opens a section.
func (it Item) IsHeading() bool {
	return it.Kind == KindTitle || it.Kind == KindHeading
}

// HeadingLevel returns the effective depth, treating a title as level 1.
func (it Item) HeadingLevel() int {
	if it.Kind == KindTitle {
		return 1
	}
	if it.Level < 1 {
		return 1
	}
	if it.Level > 6 {
		return 6
	}
	return it.Level
}
