package portal

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/drew/rotacheck/internal/model"
)

// SegmentClass marks task-segment elements in a detail document
const SegmentClass = "function-seg"

// Child element positions inside a segment
const (
	labelChild    = 0
	durationChild = 3
)

// ParseSegments extracts task segments from a detail document in document order.
// Segments lacking a label or duration element are dropped.
func ParseSegments(r io.Reader) ([]model.TaskSegment, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail document: %w", err)
	}
	return SegmentsFromNode(doc), nil
}

// SegmentsFromNode walks an already parsed tree.
func SegmentsFromNode(root *html.Node) []model.TaskSegment {
	var segments []model.TaskSegment
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && HasClass(n, SegmentClass) {
			children := ElementChildren(n)
			if len(children) > durationChild {
				segments = append(segments, model.TaskSegment{
					RawLabel:    InnerText(children[labelChild]),
					RawDuration: InnerText(children[durationChild]),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return segments
}

// HasClass reports whether n's class attribute contains class.
func HasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// ElementChildren returns the element children of n, skipping text and comments.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// InnerText approximates the browser's rendered text of n: table cells are
// separated by tabs, rows and <br> by newlines, other whitespace collapses to
// a single space. Literal tabs are kept since labels are tab-delimited.
func InnerText(n *html.Node) string {
	var sb strings.Builder
	writeText(n, &sb)
	return strings.Trim(sb.String(), " \n")
}

func writeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(collapseSpaces(n.Data, lastByte(sb)))
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "template":
			return
		case "br":
			sb.WriteString("\n")
			return
		}
	}

	cells := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			if cells > 0 {
				trimTrailingSpace(sb)
				sb.WriteString("\t")
			}
			cells++
		}
		if c.Type == html.ElementNode && c.Data == "tr" && sb.Len() > 0 && lastByte(sb) != '\n' {
			trimTrailingSpace(sb)
			sb.WriteString("\n")
		}
		writeText(c, sb)
	}
}

// collapseSpaces folds runs of spaces and newlines into one space, dropping
// the run entirely when the output already ends in whitespace.
func collapseSpaces(s string, prev byte) string {
	var b strings.Builder
	inSpace := prev == 0 || prev == ' ' || prev == '\t' || prev == '\n'
	for _, r := range s {
		switch r {
		case ' ', '\n', '\r', '\f':
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
		case '\t':
			b.WriteRune(r)
			inSpace = true
		default:
			b.WriteRune(r)
			inSpace = false
		}
	}
	return b.String()
}

func lastByte(sb *strings.Builder) byte {
	s := sb.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func trimTrailingSpace(sb *strings.Builder) {
	s := sb.String()
	trimmed := strings.TrimRight(s, " ")
	if len(trimmed) != len(s) {
		sb.Reset()
		sb.WriteString(trimmed)
	}
}
