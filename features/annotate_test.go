package features

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/drew/rotacheck/internal/compliance"
	"github.com/drew/rotacheck/internal/hostpage"
	"github.com/drew/rotacheck/internal/pipeline"
	"github.com/drew/rotacheck/internal/portal"
	"github.com/drew/rotacheck/internal/tasks"
)

type annotateContext struct {
	*sharedContext

	onError  pipeline.FetchErrorPolicy
	doc      *hostpage.Document
	pristine *hostpage.Document
	rc       pipeline.RunContext
	result   *pipeline.Result
	runErr   error
	rendered string
}

func (c *annotateContext) theFixtureReportAndPortal() error {
	c.startPortal()
	c.onError = pipeline.MarkAndContinue
	return nil
}

func (c *annotateContext) failedFetchesHaltTheRun() error {
	c.onError = pipeline.HaltRemaining
	return nil
}

func (c *annotateContext) thePortalSessionHasExpired() error {
	c.expired = true
	return nil
}

func (c *annotateContext) iAnnotateTheReportWithAThresholdOf(threshold int) error {
	ctx := context.Background()

	doc, err := hostpage.LoadDocument(ctx, fixtureReport, hostpage.LoadOptions{})
	if err != nil {
		return err
	}
	anchor, err := doc.AnchorDate()
	if err != nil {
		return err
	}
	c.doc = doc
	c.pristine = doc.Clone()

	client := portal.NewClient(portal.Options{
		Endpoint: portal.Endpoint{
			BaseURL:        c.portal.URL,
			DetailPath:     "/employee/ppaTimeDetails",
			TimezoneOffset: "+0200",
		},
		Cookie:  sessionCookie,
		Timeout: 5 * time.Second,
	})

	c.rc = pipeline.NewRunContext(anchor, threshold, compliance.DefaultPolicy(), c.onError, 4)
	p := pipeline.New(pipeline.Options{
		Table:      doc,
		Fetcher:    client,
		Normalizer: tasks.NewNormalizer(tasks.DefaultAliases()),
	})
	c.result, c.runErr = p.Run(ctx, c.rc)
	if c.runErr != nil {
		return nil
	}
	return c.render()
}

func (c *annotateContext) iReclassifyTheRunWithAThresholdOf(threshold int) error {
	if c.result == nil {
		return fmt.Errorf("no run to reclassify")
	}
	c.doc = c.pristine.Clone()
	result, err := pipeline.Reclassify(c.doc, c.result, c.rc.WithThreshold(threshold))
	if err != nil {
		return err
	}
	c.result = result
	return c.render()
}

func (c *annotateContext) render() error {
	var buf bytes.Buffer
	if err := c.doc.Render(&buf, hostpage.RenderOptions{}); err != nil {
		return err
	}
	c.rendered = buf.String()
	return nil
}

func (c *annotateContext) theRunShouldFinish() error {
	if c.runErr != nil {
		return fmt.Errorf("run failed: %v", c.runErr)
	}
	if c.result.Halted {
		return fmt.Errorf("run was halted")
	}
	return nil
}

func (c *annotateContext) theRunShouldBeHalted() error {
	if c.result == nil || !c.result.Halted {
		return fmt.Errorf("expected the run to halt")
	}
	return nil
}

func (c *annotateContext) theRowVerdictsShouldBe(want string) error {
	if c.result == nil {
		return fmt.Errorf("no result (run error: %v)", c.runErr)
	}
	got := make([]string, len(c.result.Rows))
	for i, row := range c.result.Rows {
		got[i] = row.Verdict()
	}
	if strings.Join(got, ", ") != want {
		return fmt.Errorf("expected verdicts %s, got %s", want, strings.Join(got, ", "))
	}
	return nil
}

func (c *annotateContext) theAnnotatedReportShouldContain(text string) error {
	if !strings.Contains(c.rendered, text) {
		return fmt.Errorf("expected annotated report to contain %q", text)
	}
	return nil
}

func (c *annotateContext) thePortalShouldHaveServedDetailDocuments(n int) error {
	if got := c.served.Load(); got != int64(n) {
		return fmt.Errorf("expected %d detail documents served, got %d", n, got)
	}
	return nil
}

func InitializeAnnotateScenario(ctx *godog.ScenarioContext, shared *sharedContext) {
	c := &annotateContext{sharedContext: shared}

	ctx.Step(`^the fixture report and portal$`, c.theFixtureReportAndPortal)
	ctx.Step(`^failed fetches halt the run$`, c.failedFetchesHaltTheRun)
	ctx.Step(`^the portal session has expired$`, c.thePortalSessionHasExpired)
	ctx.Step(`^I annotate the report with a threshold of (\d+) minutes$`, c.iAnnotateTheReportWithAThresholdOf)
	ctx.Step(`^I reclassify the run with a threshold of (\d+) minutes$`, c.iReclassifyTheRunWithAThresholdOf)
	ctx.Step(`^the run should finish$`, c.theRunShouldFinish)
	ctx.Step(`^the run should be halted$`, c.theRunShouldBeHalted)
	ctx.Step(`^the row verdicts should be "([^"]*)"$`, c.theRowVerdictsShouldBe)
	ctx.Step(`^the annotated report should contain "([^"]*)"$`, c.theAnnotatedReportShouldContain)
	ctx.Step(`^the portal should have served (\d+) detail documents$`, c.thePortalShouldHaveServedDetailDocuments)
}
