package engine

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"docproc/internal/document"
)

// parseTextFile splits plain text into paragraphs on blank lines and form feeds.
func parseTextFile(path string, doc *document.Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n\n")
	for _, block := range strings.Split(text, "\n\n") {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		doc.Add(document.Item{Kind: document.KindParagraph, Text: strings.Join(lines, " ")})
	}
	return nil
}

func parseCSVFile(path string, doc *document.Document) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, rec)
	}
	doc.Add(document.Item{Kind: document.KindTable, Rows: trimEmptyRows(rows)})
	return nil
}

// parseJSONFile validates the input and keeps it as an indented code block.
func parseJSONFile(path string, doc *document.Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	doc.Add(document.Item{Kind: document.KindCode, Text: buf.String()})
	return nil
}

// parseXMLFile emits the character data of each leaf element as a paragraph.
func parseXMLFile(path string, doc *document.Document) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	decoder := xml.NewDecoder(f)
	decoder.Strict = false
	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement, xml.EndElement:
			if s := collapseSpaces(text.String()); s != "" {
				doc.Add(document.Item{Kind: document.KindParagraph, Text: s})
			}
			text.Reset()
		}
	}
	return nil
}

var (
	adocHeadingRe = regexp.MustCompile(`^(={1,6})\s+(.+)$`)
	adocOrderedRe = regexp.MustCompile(`^\.+\s+(.+)$`)
	adocBulletRe  = regexp.MustCompile(`^[*-]+\s+(.+)$`)
)

func parseAsciiDocFile(path string, doc *document.Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, it := range parseAsciiDoc(string(data)) {
		doc.Add(it)
	}
	return nil
}

// parseAsciiDoc reads section titles, lists, listing blocks, simple tables and
// paragraphs. Attribute entries and comments are skipped.
func parseAsciiDoc(src string) []document.Item {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var items []document.Item
	var para []string
	flush := func() {
		if len(para) > 0 {
			items = append(items, document.Item{Kind: document.KindParagraph, Text: strings.Join(para, " ")})
			para = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "//"), strings.HasPrefix(trimmed, ":"), strings.HasPrefix(trimmed, "["):
			flush()
		case trimmed == "----" || trimmed == "....":
			flush()
			delim := trimmed
			var code []string
			for i++; i < len(lines) && strings.TrimSpace(lines[i]) != delim; i++ {
				code = append(code, lines[i])
			}
			items = append(items, document.Item{Kind: document.KindCode, Text: strings.Join(code, "\n")})
		case trimmed == "|===":
			flush()
			var rows [][]string
			for i++; i < len(lines) && strings.TrimSpace(lines[i]) != "|==="; i++ {
				row := strings.TrimSpace(lines[i])
				if !strings.HasPrefix(row, "|") {
					continue
				}
				var cells []string
				for _, c := range strings.Split(row[1:], "|") {
					cells = append(cells, strings.TrimSpace(c))
				}
				rows = append(rows, cells)
			}
			items = append(items, document.Item{Kind: document.KindTable, Rows: rows})
		case adocHeadingRe.MatchString(trimmed):
			flush()
			m := adocHeadingRe.FindStringSubmatch(trimmed)
			level := len(m[1])
			if level == 1 {
				items = append(items, document.Item{Kind: document.KindTitle, Level: 1, Text: m[2]})
			} else {
				items = append(items, document.Item{Kind: document.KindHeading, Level: level - 1, Text: m[2]})
			}
		case adocBulletRe.MatchString(trimmed):
			flush()
			items = append(items, document.Item{Kind: document.KindListItem, Text: adocBulletRe.FindStringSubmatch(trimmed)[1]})
		case adocOrderedRe.MatchString(trimmed):
			flush()
			items = append(items, document.Item{Kind: document.KindListItem, Ordered: true, Text: adocOrderedRe.FindStringSubmatch(trimmed)[1]})
		default:
			para = append(para, trimmed)
		}
	}
	flush()
	return items
}
