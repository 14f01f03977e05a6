package hostpage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/portal"
)

// LiveOptions configures a browser-backed report
type LiveOptions struct {
	// Report page to open (or find, when attaching to a running browser)
	URL string
	// DevTools endpoint of a running Chrome; empty launches a new one
	ControlURL string
	Headless   bool
	Logger     *zap.Logger
}

// LivePage annotates the report inside a real browser tab, reusing the
// tab's portal session for detail fetches.
type LivePage struct {
	ctx      context.Context
	browser  *rod.Browser
	page     *rod.Page
	launched *launcher.Launcher
	logger   *zap.Logger
	filled   map[int]int
}

// OpenLivePage connects to (or launches) Chrome and opens the report.
func OpenLivePage(ctx context.Context, opts LiveOptions) (*LivePage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lp := &LivePage{ctx: ctx, logger: logger, filled: make(map[int]int)}

	controlURL := opts.ControlURL
	if controlURL == "" {
		lp.launched = launcher.New().Headless(opts.Headless)
		u, err := lp.launched.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch chrome: %w", err)
		}
		controlURL = u
	}

	lp.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := lp.browser.Connect(); err != nil {
		lp.kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	if opts.ControlURL != "" {
		lp.page = lp.findTab(opts.URL)
	}
	if lp.page == nil {
		page, err := lp.browser.Page(proto.TargetCreateTarget{URL: opts.URL})
		if err != nil {
			_ = lp.Close()
			return nil, fmt.Errorf("failed to open report tab: %w", err)
		}
		lp.page = page
	}

	if err := lp.page.Context(ctx).WaitLoad(); err != nil {
		_ = lp.Close()
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	logger.Info("report tab ready", zap.String("url", opts.URL), zap.Bool("attached", opts.ControlURL != ""))
	return lp, nil
}

// findTab returns an already open tab showing target, ignoring the query string.
func (p *LivePage) findTab(target string) *rod.Page {
	pages, err := p.browser.Pages()
	if err != nil {
		return nil
	}
	prefix, _, _ := strings.Cut(target, "?")
	for _, page := range pages {
		info, err := page.Info()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.URL, prefix) {
			return page
		}
	}
	return nil
}

// Close closes the tab it opened and any browser it launched.
func (p *LivePage) Close() error {
	var err error
	if p.launched != nil && p.browser != nil {
		err = p.browser.Close()
	}
	p.kill()
	return err
}

func (p *LivePage) kill() {
	if p.launched != nil {
		p.launched.Kill()
		p.launched.Cleanup()
	}
}

func (p *LivePage) eval(js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	return p.page.Context(p.ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
}

// AnchorDate reads the report date from the live date picker.
func (p *LivePage) AnchorDate() (time.Time, error) {
	res, err := p.eval(`(id) => {
		const el = document.getElementById(id);
		return el ? el.value : null;
	}`, AnchorInputID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read anchor date: %w", err)
	}
	if res.Value.Nil() {
		return time.Time{}, ErrNoAnchorDate
	}
	return ParseAnchorDate(res.Value.String())
}

// Rows returns the employee ids of the second table body.
func (p *LivePage) Rows() ([]Row, error) {
	res, err := p.eval(`() => {
		const body = document.getElementsByTagName("tbody")[1];
		if (!body) return null;
		return Array.from(body.children)
			.filter(r => r.tagName === "TR")
			.map(r => r.children[0] ? r.children[0].innerText.trim() : "");
	}`)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if res.Value.Nil() {
		return nil, ErrNoReportTable
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	rows := make([]Row, len(ids))
	for i, id := range ids {
		rows[i] = Row{Index: i, EmployeeID: id}
	}
	return rows, nil
}

// AppendHeaders adds the two annotation headers in the live table.
func (p *LivePage) AppendHeaders(threshold int) error {
	res, err := p.eval(`(prev, cur) => {
		const head = document.getElementsByTagName("thead")[0];
		const row = head && head.querySelector("tr");
		if (!row) return false;
		for (const label of [prev, cur]) {
			const th = document.createElement("th");
			th.innerText = label;
			row.appendChild(th);
		}
		return true;
	}`, PrevHeader(threshold), CurrentHeader)
	if err != nil {
		return fmt.Errorf("failed to append headers: %w", err)
	}
	if !res.Value.Bool() {
		return ErrNoHeaderRow
	}
	return nil
}

const rowJS = `document.getElementsByTagName("tbody")[1].querySelectorAll(":scope > tr")[i]`

// ApplyPrev appends the previous-day cell in the live table.
func (p *LivePage) ApplyPrev(row int, text string, multi bool) error {
	if err := p.mutate(`(i, text, multi) => {
		const row = `+rowJS+`;
		if (!row) return false;
		const td = document.createElement("td");
		td.innerText = text;
		td.style.color = multi ? "red" : "";
		row.appendChild(td);
		return true;
	}`, row, text, multi); err != nil {
		return err
	}
	p.filled[row]++
	return nil
}

// ApplyCurrent appends the current-day cell and paints the live row.
func (p *LivePage) ApplyCurrent(row int, task string, background string) error {
	if err := p.mutate(`(i, task, bg) => {
		const row = `+rowJS+`;
		if (!row) return false;
		const td = document.createElement("td");
		td.innerText = task;
		row.appendChild(td);
		row.style.backgroundColor = bg;
		return true;
	}`, row, task, background); err != nil {
		return err
	}
	p.filled[row]++
	return nil
}

// MarkError fills the row's missing cells with an error marker.
func (p *LivePage) MarkError(row int, message string, background string) error {
	missing := 2 - p.filled[row]
	if missing < 0 {
		missing = 0
	}
	if err := p.mutate(`(i, missing, text, message, bg) => {
		const row = `+rowJS+`;
		if (!row) return false;
		for (let n = 0; n < missing; n++) {
			const td = document.createElement("td");
			td.innerText = text;
			td.title = message;
			td.className = "rotacheck-error";
			row.appendChild(td);
		}
		row.style.backgroundColor = bg;
		return true;
	}`, row, missing, ErrorCellText, message, background); err != nil {
		return err
	}
	p.filled[row] = 2
	return nil
}

func (p *LivePage) mutate(js string, args ...interface{}) error {
	res, err := p.eval(js, args...)
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: %v", ErrRowIndex, args[0])
	}
	return nil
}

// Snapshot returns the current state of the tab as a Document.
func (p *LivePage) Snapshot() (*Document, error) {
	content, err := p.page.Context(p.ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return ParseDocument(strings.NewReader(content))
}

// Fetcher returns a portal.Fetcher that downloads detail documents from
// inside the tab, so the browser's own session cookies are used.
func (p *LivePage) Fetcher(endpoint portal.Endpoint) portal.Fetcher {
	return &tabFetcher{page: p, endpoint: endpoint}
}

type tabFetcher struct {
	page     *LivePage
	endpoint portal.Endpoint
}

var errTabFetch = errors.New("in-tab fetch failed")

func (f *tabFetcher) Fetch(ctx context.Context, employeeID string, from, to time.Time) ([]model.TaskSegment, error) {
	target := f.endpoint.DetailURL(employeeID, from, to)

	res, err := f.page.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `(url, accept) => fetch(url, {credentials: "include", headers: {"Accept": accept}})
			.then(r => r.ok ? r.text() : {status: r.status + " " + r.statusText})`,
		JSArgs:       []interface{}{target, portal.AcceptHeader},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTabFetch, err)
	}

	if status := res.Value.Get("status"); !status.Nil() {
		return nil, fmt.Errorf("%w: %s", portal.ErrHTTPStatus, status.String())
	}

	body := res.Value.String()
	f.page.logger.Debug("fetched detail document in tab",
		zap.String("employeeId", employeeID),
		zap.Int("bytes", len(body)),
	)
	return portal.ParseSegments(strings.NewReader(body))
}
