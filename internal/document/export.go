package document

import (
	"encoding/base64"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ImageMode controls how pictures appear in markdown output.
type ImageMode int

const (
	// ImagePlaceholder writes an HTML comment where a picture was.
	ImagePlaceholder ImageMode = iota
	// ImageEmbedded inlines the picture as a base64 data URI.
	ImageEmbedded
)

// ExportText renders the document as plain text.
func (d *Document) ExportText() string {
	var blocks []string
	for _, it := range d.Items {
		switch it.Kind {
		case KindTable:
			rows := make([]string, 0, len(it.Rows))
			for _, r := range it.Rows {
				rows = append(rows, strings.Join(r, "\t"))
			}
			blocks = append(blocks, strings.Join(rows, "\n"))
		case KindPicture:
			if it.Text != "" {
				blocks = append(blocks, it.Text)
			}
		default:
			blocks = append(blocks, it.Text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// ExportMarkdown renders the document as GitHub-flavoured markdown.
func (d *Document) ExportMarkdown(mode ImageMode) string {
	var sb strings.Builder
	prevList := false
	listIndex := 0
	for i, it := range d.Items {
		isList := it.Kind == KindListItem
		if i > 0 {
			if isList && prevList {
				sb.WriteByte('\n')
			} else {
				sb.WriteString("\n\n")
			}
		}
		if !isList || !prevList {
			listIndex = 0
		}

		switch it.Kind {
		case KindTitle, KindHeading:
			sb.WriteString(strings.Repeat("#", it.HeadingLevel()))
			sb.WriteByte(' ')
			sb.WriteString(it.Text)
		case KindListItem:
			listIndex++
			if it.Ordered {
				sb.WriteString(strconv.Itoa(listIndex))
				sb.WriteString(". ")
			} else {
				sb.WriteString("- ")
			}
			sb.WriteString(it.Text)
		case KindTable:
			writeMarkdownTable(&sb, it.Rows)
		case KindPicture:
			if mode == ImageEmbedded && it.Image != nil {
				sb.WriteString("![")
				sb.WriteString(altText(it))
				sb.WriteString("](")
				sb.WriteString(dataURI(it.Image))
				sb.WriteByte(')')
			} else {
				sb.WriteString("<!-- image -->")
			}
			if it.Text != "" && it.Image != nil {
				sb.WriteString("\n\n")
				sb.WriteString(it.Text)
			}
		case KindCode:
			sb.WriteString("```\n")
			sb.WriteString(it.Text)
			sb.WriteString("\n```")
		default:
			sb.WriteString(it.Text)
		}
		prevList = isList
	}
	return sb.String()
}

func writeMarkdownTable(sb *strings.Builder, rows [][]string) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	writeRow := func(r []string) {
		sb.WriteByte('|')
		for c := 0; c < width; c++ {
			cell := ""
			if c < len(r) {
				cell = strings.ReplaceAll(r[c], "|", "\\|")
				cell = strings.ReplaceAll(cell, "\n", " ")
			}
			sb.WriteByte(' ')
			sb.WriteString(cell)
			sb.WriteString(" |")
		}
	}
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeRow(r)
		if i == 0 {
			sb.WriteString("\n|")
			for c := 0; c < width; c++ {
				sb.WriteString("---|")
			}
		}
	}
}

var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	return p
}()

// ExportHTML renders a standalone HTML page. The body is sanitized.
func (d *Document) ExportHTML() string {
	var body strings.Builder
	inList := false
	listOrdered := false
	closeList := func() {
		if inList {
			if listOrdered {
				body.WriteString("</ol>\n")
			} else {
				body.WriteString("</ul>\n")
			}
			inList = false
		}
	}

	for _, it := range d.Items {
		if it.Kind != KindListItem || it.Ordered != listOrdered {
			closeList()
		}
		switch it.Kind {
		case KindTitle, KindHeading:
			lvl := strconv.Itoa(it.HeadingLevel())
			body.WriteString("<h" + lvl + ">" + html.EscapeString(it.Text) + "</h" + lvl + ">\n")
		case KindListItem:
			if !inList {
				listOrdered = it.Ordered
				if it.Ordered {
					body.WriteString("<ol>\n")
				} else {
					body.WriteString("<ul>\n")
				}
				inList = true
			}
			body.WriteString("<li>" + html.EscapeString(it.Text) + "</li>\n")
		case KindTable:
			body.WriteString("<table>\n")
			for i, r := range it.Rows {
				tag := "td"
				if i == 0 {
					tag = "th"
				}
				body.WriteString("<tr>")
				for _, cell := range r {
					body.WriteString("<" + tag + ">" + html.EscapeString(cell) + "</" + tag + ">")
				}
				body.WriteString("</tr>\n")
			}
			body.WriteString("</table>\n")
		case KindPicture:
			body.WriteString("<figure>")
			if it.Image != nil {
				body.WriteString(`<img src="` + html.EscapeString(dataURI(it.Image)) + `" alt="` + html.EscapeString(altText(it)) + `">`)
			}
			if it.Text != "" {
				body.WriteString("<figcaption>" + html.EscapeString(it.Text) + "</figcaption>")
			}
			body.WriteString("</figure>\n")
		case KindCode:
			body.WriteString("<pre><code>" + html.EscapeString(it.Text) + "</code></pre>\n")
		default:
			body.WriteString("<p>" + html.EscapeString(it.Text) + "</p>\n")
		}
	}
	closeList()

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n<title>")
	sb.WriteString(html.EscapeString(d.Name))
	sb.WriteString("</title>\n</head>\n<body>\n")
	sb.WriteString(htmlPolicy.Sanitize(body.String()))
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

func dataURI(img *Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func altText(it Item) string {
	if it.Text != "" {
		return strings.ReplaceAll(it.Text, "]", "")
	}
	return "Image"
}
