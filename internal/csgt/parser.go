package csgt

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/phatnguoi/internal/model"
)

// Markup contract of the result page.
const (
	// ContainerID is the id of the element holding every record.
	ContainerID = "bodyPrint123"

	// SeparatorStyle is the style of the <hr> placed between two records,
	// compared with whitespace and the trailing semicolon removed.
	SeparatorStyle = "margin-bottom:25px"

	// NotFoundPhrase is shown when the plate has no recorded violation.
	NotFoundPhrase = "Không tìm thấy kết quả"

	classFormGroup = "form-group"
	classLabel     = "col-md-3"
	classValue     = "col-md-9"
)

// fragment is the markup between two separators.
type fragment struct {
	hasContent bool
	blocks     []*html.Node
}

// ParseResultPage interprets a result page.
//
// An empty page, a page without the container, or a container that holds no
// fragment at all is retryable. A container showing NotFoundPhrase is a
// final empty result. Otherwise every fragment becomes at most one record
// and the outcome is retryable only when fragments exist but none of them
// produced a record.
func ParseResultPage(page []byte) model.ParseOutcome {
	if len(bytes.TrimSpace(page)) == 0 {
		return model.ParseOutcome{Retryable: true, Records: []model.ViolationRecord{}}
	}

	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return model.ParseOutcome{Retryable: true, Records: []model.ViolationRecord{}}
	}

	container := findByID(doc, ContainerID)
	if container == nil {
		return model.ParseOutcome{Retryable: true, Records: []model.ViolationRecord{}}
	}

	if containsFolded(collapseSpace(textContent(container)), NotFoundPhrase) {
		return model.ParseOutcome{Retryable: false, Records: []model.ViolationRecord{}}
	}

	fragments := splitFragments(container)
	if len(fragments) == 0 {
		return model.ParseOutcome{Retryable: true, Records: []model.ViolationRecord{}}
	}

	records := make([]model.ViolationRecord, 0, len(fragments))
	for _, f := range fragments {
		if record, ok := parseFragment(f); ok {
			records = append(records, record)
		}
	}

	return model.ParseOutcome{
		Retryable: len(records) == 0,
		Records:   records,
	}
}

// parseFragment maps the label/value blocks of f onto a record by position.
// A block's position counts every block before it, including skipped ones.
// A labelled block without a value is skipped. Blocks past the fixed fields,
// and unlabelled free-text blocks such as the list of resolving units, are
// collected into ResolvingUnit.
func parseFragment(f *fragment) (model.ViolationRecord, bool) {
	var record model.ViolationRecord
	for i, block := range f.blocks {
		label := textOf(findByClass(block, classLabel))
		value := textOf(findByClass(block, classValue))

		if value != "" && record.SetField(i, value) {
			continue
		}
		if value == "" && label != "" {
			continue
		}
		if text := textOf(block); text != "" {
			record.ResolvingUnit = append(record.ResolvingUnit, text)
		}
	}
	return record, !record.IsEmpty()
}

// splitFragments walks the container in document order, cutting at every
// separator, and returns the fragments that carry any content. Every
// form-group block is collected in document order, nested ones included.
func splitFragments(container *html.Node) []*fragment {
	current := &fragment{}
	all := []*fragment{current}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if strings.TrimSpace(c.Data) != "" {
					current.hasContent = true
				}
			case html.ElementNode:
				if isSeparator(c) {
					current = &fragment{}
					all = append(all, current)
					continue
				}
				current.hasContent = true
				// Nested blocks are collected too and count toward positions.
				if hasClass(c, classFormGroup) {
					current.blocks = append(current.blocks, c)
				}
				walk(c)
			}
		}
	}
	walk(container)

	fragments := make([]*fragment, 0, len(all))
	for _, f := range all {
		if f.hasContent {
			fragments = append(fragments, f)
		}
	}
	return fragments
}

func isSeparator(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "hr" {
		return false
	}
	style := strings.Join(strings.Fields(strings.ToLower(getAttr(n, "style"))), "")
	return strings.TrimSuffix(style, ";") == SeparatorStyle
}

// containsFolded reports whether text contains phrase, ignoring case and
// Unicode normalization form.
func containsFolded(text, phrase string) bool {
	fold := cases.Fold()
	return strings.Contains(
		fold.String(norm.NFC.String(text)),
		fold.String(norm.NFC.String(phrase)),
	)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && getAttr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// findByClass returns the first descendant of n carrying class.
func findByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent concatenates the text of n and its descendants. Text from
// adjacent elements is joined with a space.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// textOf returns the whitespace-collapsed text of n, or "" for nil.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	return collapseSpace(textContent(n))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
