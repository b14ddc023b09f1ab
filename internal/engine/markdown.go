package engine

import (
	"os"
	"regexp"
	"strings"

	"docproc/internal/document"
)

var (
	orderedItemRe = regexp.MustCompile(`^\d+[.)]\s+`)
	tableSepRe    = regexp.MustCompile(`^\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?$`)
	mdImageRe     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	setextH1Re    = regexp.MustCompile(`^=+\s*$`)
	setextH2Re    = regexp.MustCompile(`^-{2,}\s*$`)
	ruleRe        = regexp.MustCompile(`^(\*\s*){3,}$|^(-\s*){3,}$|^(_\s*){3,}$`)
)

func parseMarkdownFile(path string, doc *document.Document) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, it := range parseMarkdown(string(data)) {
		doc.Add(it)
	}
	return nil
}

// parseMarkdown reads ATX and setext headings, lists, fenced code, pipe tables
// and paragraphs. Inline images keep their alt text only.
func parseMarkdown(src string) []document.Item {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")

	var items []document.Item
	var para []string
	flush := func() {
		if len(para) > 0 {
			text := strings.TrimSpace(strings.Join(para, " "))
			if text != "" {
				items = append(items, document.Item{Kind: document.KindParagraph, Text: text})
			}
			para = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()

		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			flush()
			fence := trimmed[:3]
			var code []string
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), fence) {
					break
				}
				code = append(code, lines[i])
			}
			items = append(items, document.Item{Kind: document.KindCode, Text: strings.Join(code, "\n")})

		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			rest := trimmed[level:]
			if level > 6 || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
				para = append(para, inlineText(trimmed))
				continue
			}
			flush()
			text := inlineText(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#")))
			if text != "" {
				items = append(items, document.Item{Kind: document.KindHeading, Level: level, Text: text})
			}

		case len(para) == 1 && setextH1Re.MatchString(trimmed):
			items = append(items, document.Item{Kind: document.KindHeading, Level: 1, Text: para[0]})
			para = nil

		case len(para) == 1 && setextH2Re.MatchString(trimmed) && !strings.Contains(trimmed, "|"):
			items = append(items, document.Item{Kind: document.KindHeading, Level: 2, Text: para[0]})
			para = nil

		case ruleRe.MatchString(trimmed):
			flush()

		case strings.HasPrefix(trimmed, "|") && i+1 < len(lines) && tableSepRe.MatchString(strings.TrimSpace(lines[i+1])):
			flush()
			rows := [][]string{splitTableRow(trimmed)}
			for i += 2; i < len(lines); i++ {
				next := strings.TrimSpace(lines[i])
				if !strings.HasPrefix(next, "|") {
					i--
					break
				}
				rows = append(rows, splitTableRow(next))
			}
			items = append(items, document.Item{Kind: document.KindTable, Rows: rows})

		case isBullet(trimmed):
			flush()
			items = append(items, document.Item{Kind: document.KindListItem, Text: inlineText(strings.TrimSpace(trimmed[2:]))})

		case orderedItemRe.MatchString(trimmed):
			flush()
			text := orderedItemRe.ReplaceAllString(trimmed, "")
			items = append(items, document.Item{Kind: document.KindListItem, Ordered: true, Text: inlineText(text)})

		case mdImageRe.MatchString(trimmed) && mdImageRe.ReplaceAllString(trimmed, "") == "":
			flush()
			alt := mdImageRe.FindStringSubmatch(trimmed)[1]
			items = append(items, document.Item{Kind: document.KindPicture, Text: alt})

		default:
			para = append(para, inlineText(trimmed))
		}
	}
	flush()
	return items
}

func isBullet(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '-' || s[0] == '*' || s[0] == '+') && (s[1] == ' ' || s[1] == '\t')
}

func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	line = strings.ReplaceAll(line, `\|`, "\x00")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = inlineText(strings.TrimSpace(strings.ReplaceAll(c, "\x00", "|")))
	}
	return cells
}

var (
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphasisRe = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdCodeSpanRe = regexp.MustCompile("`([^`]*)`")
)

// inlineText strips inline markup, keeping visible text.
func inlineText(s string) string {
	s = mdImageRe.ReplaceAllString(s, "$1")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdEmphasisRe.ReplaceAllString(s, "$2")
	s = mdCodeSpanRe.ReplaceAllString(s, "$1")
	return s
}
