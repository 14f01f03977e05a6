package hostpage

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/drew/rotacheck/assets"
	"github.com/drew/rotacheck/internal/portal"
)

// Document is a report page held in memory and annotated offline.
type Document struct {
	root   *html.Node
	rows   []*html.Node
	filled map[int]int
}

// ParseDocument parses a report page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &Document{root: root, filled: make(map[int]int)}, nil
}

// LoadOptions controls how a report source is read
type LoadOptions struct {
	Cookie     string
	HTTPClient *http.Client
}

// LoadDocument reads a report from a file path or an http(s) URL.
func LoadDocument(ctx context.Context, source string, opts LoadOptions) (*Document, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}
		return ParseDocument(bytes.NewReader(data))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", portal.AcceptHeader)
	if opts.Cookie != "" {
		req.Header.Set("Cookie", opts.Cookie)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch report: %w: %s", portal.ErrHTTPStatus, resp.Status)
	}
	return ParseDocument(resp.Body)
}

// AnchorDate reads the report date from the date picker.
func (d *Document) AnchorDate() (time.Time, error) {
	input := findFirst(d.root, func(n *html.Node) bool {
		return n.DataAtom == atom.Input && attr(n, "id") == AnchorInputID
	})
	if input == nil {
		return time.Time{}, ErrNoAnchorDate
	}
	return ParseAnchorDate(attr(input, "value"))
}

// Rows returns the rows of the second table body in document order.
func (d *Document) Rows() ([]Row, error) {
	if d.rows == nil {
		bodies := findAll(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Tbody })
		if len(bodies) < 2 {
			return nil, ErrNoReportTable
		}
		d.rows = []*html.Node{}
		for c := bodies[1].FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Tr {
				d.rows = append(d.rows, c)
			}
		}
	}

	out := make([]Row, 0, len(d.rows))
	for i, tr := range d.rows {
		id := ""
		if cells := portal.ElementChildren(tr); len(cells) > 0 {
			id = strings.TrimSpace(portal.InnerText(cells[0]))
		}
		out = append(out, Row{Index: i, EmployeeID: id})
	}
	return out, nil
}

// AppendHeaders adds the two annotation headers to the first header row.
func (d *Document) AppendHeaders(threshold int) error {
	thead := findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Thead })
	if thead == nil {
		return ErrNoHeaderRow
	}
	var tr *html.Node
	for c := thead.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Tr {
			tr = c
			break
		}
	}
	if tr == nil {
		return ErrNoHeaderRow
	}

	tr.AppendChild(textElement(atom.Th, PrevHeader(threshold)))
	tr.AppendChild(textElement(atom.Th, CurrentHeader))
	return nil
}

// ApplyPrev appends the previous-day cell; multi paints the text red.
func (d *Document) ApplyPrev(row int, text string, multi bool) error {
	tr, err := d.row(row)
	if err != nil {
		return err
	}
	td := textElement(atom.Td, text)
	if multi {
		setStyle(td, "color", "red")
	}
	tr.AppendChild(td)
	d.filled[row]++
	return nil
}

// ApplyCurrent appends the current-day cell and paints the row.
func (d *Document) ApplyCurrent(row int, task string, background string) error {
	tr, err := d.row(row)
	if err != nil {
		return err
	}
	tr.AppendChild(textElement(atom.Td, task))
	setStyle(tr, "background-color", background)
	d.filled[row]++
	return nil
}

// MarkError fills any cells the row is still missing and paints it with background.
func (d *Document) MarkError(row int, message string, background string) error {
	tr, err := d.row(row)
	if err != nil {
		return err
	}
	for d.filled[row] < 2 {
		td := textElement(atom.Td, ErrorCellText)
		td.Attr = append(td.Attr,
			html.Attribute{Key: "class", Val: "rotacheck-error"},
			html.Attribute{Key: "title", Val: message},
		)
		tr.AppendChild(td)
		d.filled[row]++
	}
	setStyle(tr, "background-color", background)
	return nil
}

// Clone returns a deep copy so the same source can be annotated again.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root), filled: make(map[int]int)}
}

// RenderOptions controls what is injected into the written page
type RenderOptions struct {
	Panel      bool
	Dark       bool
	Serve      bool
	Threshold  int
	AnchorDate string
}

// Render writes the annotated page, optionally with the control panel.
func (d *Document) Render(w io.Writer, opts RenderOptions) error {
	root := d.root
	if opts.Panel || opts.Dark {
		root = cloneNode(d.root)
		if err := inject(root, opts); err != nil {
			return err
		}
	}
	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

var panelTemplate = template.Must(template.New("panel").Parse(assets.PanelTemplate))

func inject(root *html.Node, opts RenderOptions) error {
	body := findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if body == nil {
		return fmt.Errorf("failed to render report: no body element")
	}

	if opts.Dark {
		addClass(body, "rotacheck-dark")
	}
	if !opts.Panel {
		return nil
	}

	head := findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head != nil {
		style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: assets.PanelCSS})
		head.AppendChild(style)
	}

	var buf bytes.Buffer
	data := struct {
		Dark       bool
		Serve      bool
		Threshold  int
		AnchorDate string
	}{opts.Dark, opts.Serve, opts.Threshold, opts.AnchorDate}
	if err := panelTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render panel: %w", err)
	}

	nodes, err := html.ParseFragment(&buf, body)
	if err != nil {
		return fmt.Errorf("failed to parse panel: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}

func (d *Document) row(i int) (*html.Node, error) {
	if d.rows == nil {
		if _, err := d.Rows(); err != nil {
			return nil, err
		}
	}
	if i < 0 || i >= len(d.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	return d.rows[i], nil
}

func textElement(a atom.Atom, text string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// setStyle sets one CSS property in the inline style, replacing any previous value.
func setStyle(n *html.Node, prop, val string) {
	var kept []string
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		name, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(decl) == "" || strings.EqualFold(strings.TrimSpace(name), prop) {
			continue
		}
		kept = append(kept, strings.TrimSpace(decl))
	}
	kept = append(kept, prop+": "+val)
	setAttr(n, "style", strings.Join(kept, "; "))
}

func addClass(n *html.Node, class string) {
	classes := strings.Fields(attr(n, "class"))
	for _, c := range classes {
		if c == class {
			return
		}
	}
	setAttr(n, "class", strings.Join(append(classes, class), " "))
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}
