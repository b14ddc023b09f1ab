package engine

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"docproc/internal/document"
)

// maxEmbeddedImage caps the size of a single image pulled out of an archive.
const maxEmbeddedImage = 20 << 20

type ooxmlArchive struct {
	files map[string]*zip.File
}

func openOOXML(zr *zip.Reader) *ooxmlArchive {
	a := &ooxmlArchive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[f.Name] = f
	}
	return a
}

func (a *ooxmlArchive) read(name string, limit int64) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, limit))
}

// rels maps relationship IDs to archive paths, resolved against baseDir.
func (a *ooxmlArchive) rels(relsPath, baseDir string) map[string]string {
	out := make(map[string]string)
	data, err := a.read(relsPath, 4<<20)
	if err != nil {
		return out
	}
	var parsed struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return out
	}
	for _, r := range parsed.Relationships {
		out[r.ID] = path.Clean(path.Join(baseDir, r.Target))
	}
	return out
}

func (a *ooxmlArchive) image(target string) *document.Image {
	data, err := a.read(target, maxEmbeddedImage)
	if err != nil || len(data) == 0 {
		return nil
	}
	return &document.Image{MIMEType: baseMIME(mimetype.Detect(data).String()), Data: data}
}

func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		return strings.TrimSpace(m[:i])
	}
	return m
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// docxHeadingLevel extracts the heading level from a paragraph style name,
// e.g. "Heading1" is 1 and "Title" is 1. Zero means body text.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := strings.TrimSpace(lower[len(prefix):])
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

func parseDOCX(filePath string, doc *document.Document) error {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = r.Close() }()

	a := openOOXML(&r.Reader)
	if _, ok := a.files["word/document.xml"]; !ok {
		return fmt.Errorf("word/document.xml not found in archive")
	}
	rels := a.rels("word/_rels/document.xml.rels", "word")

	f := a.files["word/document.xml"]
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open document.xml: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var (
		decoder    = xml.NewDecoder(rc)
		text       strings.Builder
		style      string
		numbered   bool
		inText     bool
		tableDepth int
		rows       [][]string
		row        []string
		cell       strings.Builder
		inCell     bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				text.Reset()
				style = ""
				numbered = false
			case "pStyle":
				style = attr(t, "val")
			case "numPr":
				numbered = true
			case "t":
				inText = true
			case "tab":
				text.WriteByte(' ')
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					rows = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cell.Reset()
				}
			case "blip":
				if target, ok := rels[attr(t, "embed")]; ok && tableDepth == 0 {
					if img := a.image(target); img != nil {
						doc.Add(document.Item{Kind: document.KindPicture, Image: img})
					}
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				para := strings.TrimSpace(text.String())
				if para == "" {
					continue
				}
				if inCell || tableDepth > 0 {
					if cell.Len() > 0 {
						cell.WriteByte(' ')
					}
					cell.WriteString(para)
					continue
				}
				doc.Add(docxItem(para, style, numbered))
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
					inCell = false
				}
			case "tr":
				if tableDepth == 1 && len(row) > 0 {
					rows = append(rows, row)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					doc.Add(document.Item{Kind: document.KindTable, Rows: rows})
					rows = nil
				}
			}
		}
	}
	return nil
}

func docxItem(text, style string, numbered bool) document.Item {
	lower := strings.ToLower(style)
	if lower == "title" {
		return document.Item{Kind: document.KindTitle, Level: 1, Text: text}
	}
	if level := docxHeadingLevel(style); level > 0 {
		return document.Item{Kind: document.KindHeading, Level: level, Text: text}
	}
	if numbered || strings.HasPrefix(lower, "list") {
		return document.Item{
			Kind:    document.KindListItem,
			Text:    text,
			Ordered: strings.Contains(lower, "number"),
		}
	}
	if strings.HasPrefix(lower, "code") || strings.Contains(lower, "sourcecode") {
		return document.Item{Kind: document.KindCode, Text: text}
	}
	return document.Item{Kind: document.KindParagraph, Text: text}
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (e *Engine) parsePPTX(ctx context.Context, filePath string, doc *document.Document) error {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = r.Close() }()

	a := openOOXML(&r.Reader)

	type slideRef struct {
		num  int
		name string
	}
	var slides []slideRef
	for name := range a.files {
		if m := slideNameRe.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slideRef{num: n, name: name})
		}
	}
	if len(slides) == 0 {
		return fmt.Errorf("no slides found in archive")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	results := make([][]document.Item, len(slides))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.opts.NumThreads))
	for i, s := range slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items, err := parseSlide(a, s.name, i+1)
			if err != nil {
				return fmt.Errorf("slide %d: %w", s.num, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	doc.Paginated = true
	doc.Pages = len(slides)
	for _, items := range results {
		for _, it := range items {
			doc.Add(it)
		}
	}
	return nil
}

func parseSlide(a *ooxmlArchive, name string, page int) ([]document.Item, error) {
	data, err := a.read(name, 64<<20)
	if err != nil {
		return nil, err
	}
	dir := path.Dir(name)
	rels := a.rels(path.Join(dir, "_rels", path.Base(name)+".rels"), dir)

	var (
		items    []document.Item
		decoder  = xml.NewDecoder(bytes.NewReader(data))
		phType   string
		inText   bool
		bullet   bool
		text     strings.Builder
		inTable  bool
		rows     [][]string
		row      []string
		cell     strings.Builder
		cellOpen bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				phType = ""
			case "ph":
				phType = attr(t, "type")
				if phType == "" {
					phType = "body"
				}
			case "p":
				text.Reset()
				bullet = false
			case "buChar", "buAutoNum":
				bullet = true
			case "t":
				inText = true
			case "tbl":
				inTable = true
				rows = nil
			case "tr":
				row = nil
			case "tc":
				cellOpen = true
				cell.Reset()
			case "blip":
				if target, ok := rels[attr(t, "embed")]; ok {
					if img := a.image(target); img != nil {
						items = append(items, document.Item{Kind: document.KindPicture, Image: img, Page: page})
					}
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				para := strings.TrimSpace(text.String())
				if para == "" {
					continue
				}
				if cellOpen {
					if cell.Len() > 0 {
						cell.WriteByte(' ')
					}
					cell.WriteString(para)
					continue
				}
				items = append(items, slideItem(para, phType, bullet, page))
			case "tc":
				row = append(row, strings.TrimSpace(cell.String()))
				cellOpen = false
			case "tr":
				if inTable && len(row) > 0 {
					rows = append(rows, row)
				}
			case "tbl":
				inTable = false
				if len(rows) > 0 {
					items = append(items, document.Item{Kind: document.KindTable, Rows: rows, Page: page})
				}
			case "sp":
				phType = ""
			}
		}
	}
	return items, nil
}

func slideItem(text, phType string, bullet bool, page int) document.Item {
	switch phType {
	case "ctrTitle":
		return document.Item{Kind: document.KindTitle, Level: 1, Text: text, Page: page}
	case "title":
		return document.Item{Kind: document.KindHeading, Level: 2, Text: text, Page: page}
	}
	if bullet || phType == "body" {
		return document.Item{Kind: document.KindListItem, Text: text, Page: page}
	}
	return document.Item{Kind: document.KindParagraph, Text: text, Page: page}
}
