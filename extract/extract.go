// Package extract parses rendered page markup into a structured semantic
// record: interactive controls, forms, content regions, popups and their
// dismiss controls. Extraction is deterministic and never fails — malformed
// or minimal markup yields empty categories, not errors.
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Extract parses markup and returns the page's semantic record.
// pageURL is carried for context only; extraction never fetches.
func Extract(markup, pageURL string) *SemanticRecord {
	rec := &SemanticRecord{Title: "Untitled"}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// x/net/html recovers from almost anything; a hard parse error
		// leaves the record empty.
		return rec
	}

	if t := findTitle(doc); t != "" {
		rec.Title = t
	}

	var buttons, links []Interactive
	walk(doc, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Button, atom.Input:
			buttons = append(buttons, interactiveElement(n))
		case atom.A:
			if href, ok := attrVal(n, "href"); ok {
				links = append(links, linkElement(n, href))
			}
		case atom.Form:
			if len(rec.Forms) < maxForms {
				rec.Forms = append(rec.Forms, formDescriptor(n))
			}
		case atom.Section, atom.Article, atom.Div:
			if class, ok := attrVal(n, "class"); ok && class != "" {
				if len(rec.ContentSections) < maxContentSections {
					if s, ok := contentSection(n, class); ok {
						rec.ContentSections = append(rec.ContentSections, s)
					}
				}
			}
		}
	})

	rec.Interactive = append(buttons, links...)
	if len(rec.Interactive) > maxInteractive {
		rec.Interactive = rec.Interactive[:maxInteractive]
	}

	rec.Popups, rec.PopupButtons = detectPopups(doc)
	return rec
}

// textInputTypes are the input types whose element kind stays "input"
// rather than collapsing to the type attribute.
var textInputTypes = map[string]bool{
	"text": true, "password": true, "email": true,
	"search": true, "tel": true, "url": true,
}

func interactiveElement(n *html.Node) Interactive {
	tag := n.Data
	typ, _ := attrVal(n, "type")

	elemType := tag
	if tag == "input" && !textInputTypes[typ] {
		if typ == "" {
			elemType = "button"
		} else {
			elemType = typ
		}
	}

	label := firstNonEmpty(
		attrOr(n, "aria-label", ""),
		attrOr(n, "title", ""),
		attrOr(n, "value", ""),
		collectText(n),
	)

	selector := n.Data
	if id, ok := attrVal(n, "id"); ok && id != "" {
		selector = "#" + id
	} else if class := firstClassToken(n); class != "" {
		selector = "." + class
	} else if elemType != "" {
		selector = tag + "[type='" + elemType + "']"
	}

	return Interactive{
		Type:     elemType,
		Label:    truncate(label, labelCap),
		Selector: selector,
	}
}

func linkElement(n *html.Node, href string) Interactive {
	selector := "a[href='" + href + "']"
	if id, ok := attrVal(n, "id"); ok && id != "" {
		selector = "#" + id
	} else if class := firstClassToken(n); class != "" {
		selector = "." + class
	}

	return Interactive{
		Type:     "link",
		Label:    truncate(collectText(n), labelCap),
		Selector: selector,
		Href:     href,
	}
}

func formDescriptor(n *html.Node) FormDescriptor {
	id := attrOr(n, "id", "unnamed_form")

	var fields []FormField
	walk(n, func(c *html.Node) {
		switch c.DataAtom {
		case atom.Input, atom.Textarea, atom.Select:
			name := attrOr(c, "name", "")
			if name == "" {
				name = attrOr(c, "id", "unnamed")
			}
			typ, ok := attrVal(c, "type")
			if !ok {
				typ = c.Data
			}
			fields = append(fields, FormField{Name: name, Type: typ})
		}
	})

	return FormDescriptor{ID: id, Fields: fields, FieldCount: len(fields)}
}

func contentSection(n *html.Node, class string) (ContentSection, bool) {
	preview := truncate(collectText(n), previewCap)
	if preview == "" {
		return ContentSection{}, false
	}
	return ContentSection{
		Type:    n.Data,
		Class:   strings.Fields(class)[0],
		Preview: preview,
	}, true
}

// walk visits every element node in document order. The visitor must not
// mutate the tree.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collectText extracts visible text from a node subtree, skipping scripts
// and styles, joining text runs with single spaces.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return sb.String()
}

func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, def string) string {
	if v, ok := attrVal(n, key); ok {
		return v
	}
	return def
}

func firstClassToken(n *html.Node) string {
	class, ok := attrVal(n, "class")
	if !ok {
		return ""
	}
	tokens := strings.Fields(class)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
