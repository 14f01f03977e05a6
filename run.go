package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drew/rotacheck/internal/config"
	"github.com/drew/rotacheck/internal/dashboard"
	"github.com/drew/rotacheck/internal/hostpage"
	"github.com/drew/rotacheck/internal/logging"
	"github.com/drew/rotacheck/internal/metrics"
	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/pipeline"
	"github.com/drew/rotacheck/internal/portal"
	"github.com/drew/rotacheck/internal/prefs"
	"github.com/drew/rotacheck/internal/ui"
)

const dateLayout = "2006-01-02"

// runOptions are the flags of run (and of the root command)
type runOptions struct {
	report       string
	browser      string
	controlURL   string
	headless     bool
	threshold    int
	uiMode       string
	onFetchError string
	outputRoot   string
	noPanel      bool
	failOnRed    bool
}

func addRunFlags(cmd *cobra.Command, ro *runOptions) {
	f := cmd.Flags()
	f.StringVar(&ro.report, "report", "", "Report page to annotate: a saved HTML file or an http(s) URL")
	f.StringVar(&ro.browser, "browser", "", "Annotate the report open at this URL inside Chrome")
	f.StringVar(&ro.controlURL, "control-url", "", "DevTools URL of a running Chrome (default: launch one)")
	f.BoolVar(&ro.headless, "headless", false, "Launch Chrome headless")
	f.IntVar(&ro.threshold, "threshold", 0, "Minute threshold (overrides the stored preference)")
	f.StringVar(&ro.uiMode, "ui", "", "UI mode: basic, full (default from config)")
	f.StringVar(&ro.onFetchError, "on-fetch-error", "", "On a failed detail fetch: mark or halt (default from config)")
	f.StringVar(&ro.outputRoot, "output", "", "Directory for run outputs (default from config)")
	f.BoolVar(&ro.noPanel, "no-panel", false, "Do not inject the control panel into annotated.html")
	f.BoolVar(&ro.failOnRed, "fail-on-red", false, "Exit non-zero when any row is red")
	cmd.MarkFlagsMutuallyExclusive("report", "browser")
}

func newRunCmd(g *globalOptions) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Annotate a report once and store the run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, g, ro)
		},
	}
	addRunFlags(cmd, ro)
	return cmd
}

func runE(cmd *cobra.Command, g *globalOptions, ro *runOptions) error {
	if ro.report == "" && ro.browser == "" {
		return errors.New("one of --report or --browser is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadSettings(g.configPath)
	if err != nil {
		return err
	}
	p, closePrefs, err := openPrefs(g, s)
	if err != nil {
		return err
	}
	defer func() { _ = closePrefs() }()

	out, err := executeRun(ctx, cmd, g, ro, s, p)
	if err != nil {
		return err
	}
	defer func() { _ = out.closeLog() }()

	if ro.failOnRed && out.result.Counts()[string(model.ColorRed)] > 0 {
		return errViolations
	}
	return nil
}

// runOutcome is everything serve needs to re-classify a finished run
type runOutcome struct {
	runID    string
	runDir   string
	record   model.RunRecord
	result   *pipeline.Result
	rc       pipeline.RunContext
	pristine *hostpage.Document
	logger   *zap.Logger
	closeLog func() error
}

// executeRun annotates one report and writes the run directory.
// On success the caller must call the outcome's closeLog.
func executeRun(ctx context.Context, cmd *cobra.Command, g *globalOptions, ro *runOptions, s *settings, p *prefs.Preferences) (_ *runOutcome, retErr error) {
	cfg := s.cfg
	start := time.Now()

	threshold, err := resolveThreshold(cmd.Flags().Changed("threshold"), ro.threshold, p)
	if err != nil {
		return nil, err
	}

	policyName := ro.onFetchError
	if policyName == "" {
		policyName = cfg.Defaults.OnFetchError
	}
	onError, err := pipeline.ParseFetchErrorPolicy(policyName)
	if err != nil {
		return nil, err
	}

	outputRoot := ro.outputRoot
	if outputRoot == "" {
		outputRoot = cfg.Defaults.OutputRoot
	}

	runID := makeRunID()
	runDir := filepath.Join(outputRoot, "runs", runID)

	logger, closeLog, err := logging.New(logging.Options{RunDir: runDir, Console: cmd.ErrOrStderr(), Verbose: g.verbose})
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = closeLog()
		}
	}()
	logger = logger.With(zap.String("runId", runID))

	uiMode := ro.uiMode
	if uiMode == "" {
		uiMode = cfg.Defaults.UIMode
	}
	renderer := ui.NewRenderer(ui.UIMode(uiMode), ui.ResolveColor(g.color))
	renderer.SetOutput(cmd.OutOrStdout())
	renderer.SetLogger(logger)

	normalizer, err := cfg.Normalizer()
	if err != nil {
		return nil, err
	}
	renderer.Verbose(g.verbose, "Loaded %d task aliases", normalizer.Aliases())

	endpoint := portal.Endpoint{
		BaseURL:        cfg.Portal.BaseURL,
		DetailPath:     cfg.Portal.DetailPath,
		TimezoneOffset: cfg.Portal.TimezoneOffset,
	}
	cookie := os.Getenv(cfg.Portal.CookieEnv)
	if cookie == "" && ro.browser == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: %s is not set; detail requests will carry no session cookie\n", cfg.Portal.CookieEnv)
	}

	var (
		table    hostpage.Table
		fetcher  portal.Fetcher
		doc      *hostpage.Document
		live     *hostpage.LivePage
		source   string
		pristine *hostpage.Document
	)

	if ro.browser != "" {
		source = ro.browser
		live, err = hostpage.OpenLivePage(ctx, hostpage.LiveOptions{
			URL:        ro.browser,
			ControlURL: ro.controlURL,
			Headless:   ro.headless,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		defer func() { _ = live.Close() }()
		table = live
		fetcher = live.Fetcher(endpoint)
	} else {
		source = ro.report
		doc, err = hostpage.LoadDocument(ctx, ro.report, hostpage.LoadOptions{Cookie: cookie})
		if err != nil {
			return nil, err
		}
		pristine = doc.Clone()
		table = doc
		fetcher = portal.NewClient(portal.Options{
			Endpoint:        endpoint,
			Cookie:          cookie,
			Timeout:         time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
			BreakerFailures: uint32(cfg.Portal.BreakerFailures),
			Logger:          logger,
		})
	}

	anchor, err := table.AnchorDate()
	if err != nil {
		return nil, err
	}
	rows, err := table.Rows()
	if err != nil {
		return nil, err
	}

	rc := pipeline.NewRunContext(anchor, threshold, cfg.Policy(), onError, cfg.SkipPrevious())
	renderer.RenderHeader(runID, source, rc.AnchorDate().Format(dateLayout), threshold)

	settled := 0
	pl := pipeline.New(pipeline.Options{
		Table:      table,
		Fetcher:    fetcher,
		Normalizer: normalizer,
		Logger:     logger,
		OnRow: func(row model.RowResult) {
			settled++
			renderer.RenderRow(row, g.verbose)
			renderer.RenderProgress(settled, len(rows))
		},
	})

	result, runErr := pl.Run(ctx, rc)
	if result == nil {
		return nil, runErr
	}
	if runErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: run interrupted: %v\n", runErr)
	}

	if live != nil {
		doc, err = live.Snapshot()
		if err != nil {
			return nil, err
		}
	}

	record := model.RunRecord{
		RunID:        runID,
		Timestamp:    start.UTC().Format(time.RFC3339),
		OutputRoot:   outputRoot,
		ConfigPath:   s.configPath,
		Command:      buildCommandString(),
		AnchorDate:   rc.AnchorDate().Format(dateLayout),
		PreviousDay:  rc.PreviousDay().Format(dateLayout),
		NextDay:      rc.NextDay().Format(dateLayout),
		Threshold:    threshold,
		OnFetchError: string(onError),
		Flags: model.RunFlags{
			Report:    ro.report,
			Browser:   ro.browser,
			Threshold: ro.threshold,
			Verbose:   g.verbose,
			Config:    g.configPath,
		},
		Rows:       result.Rows,
		DurationMs: time.Since(start).Milliseconds(),
	}

	renderOpts := hostpage.RenderOptions{
		Panel:      !ro.noPanel,
		Dark:       p.DarkMode(),
		Threshold:  threshold,
		AnchorDate: record.AnchorDate,
	}
	if err := writeArtifacts(runDir, doc, renderOpts, record, s); err != nil {
		return nil, fmt.Errorf("failed to write run artifacts: %w", err)
	}

	if err := dashboard.GenerateDashboard(outputRoot); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: failed to generate dashboard: %v\n", err)
	}

	renderer.RenderSummary(result.Counts(), record.DurationMs, filepath.Join(runDir, annotatedFile))
	logger.Info("run written", zap.String("runDir", runDir))

	return &runOutcome{
		runID:    runID,
		runDir:   runDir,
		record:   record,
		result:   result,
		rc:       rc,
		pristine: pristine,
		logger:   logger,
		closeLog: closeLog,
	}, nil
}

// resolveThreshold applies flag > stored preference > config > built-in default
func resolveThreshold(flagSet bool, flagValue int, p *prefs.Preferences) (int, error) {
	if flagSet {
		if flagValue <= 0 {
			return 0, fmt.Errorf("--threshold must be a positive number of minutes, got %d", flagValue)
		}
		return flagValue, nil
	}
	return p.Threshold(), nil
}

func makeRunID() string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s_%s", ts, uuid.NewString()[:8])
}

func buildCommandString() string {
	var parts []string
	for _, arg := range os.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

const (
	annotatedFile = "annotated.html"
	runJSONFile   = "run.json"
	junitFile     = "compliance.xml"
	configFile    = "config.toml"
)

// writeArtifacts writes the run directory files concurrently
func writeArtifacts(runDir string, doc *hostpage.Document, opts hostpage.RenderOptions, record model.RunRecord, s *settings) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		return writeAnnotated(filepath.Join(runDir, annotatedFile), doc, opts)
	})
	g.Go(func() error {
		return writeRunJSON(runDir, record)
	})
	g.Go(func() error {
		return metrics.WriteJUnitXML(filepath.Join(runDir, junitFile), &record)
	})
	g.Go(func() error {
		return copyConfigToRun(runDir, s.configPath, s.cfg)
	})
	return g.Wait()
}

func writeAnnotated(path string, doc *hostpage.Document, opts hostpage.RenderOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return doc.Render(f, opts)
}

func writeRunJSON(runDir string, record model.RunRecord) error {
	path := filepath.Join(runDir, runJSONFile)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// copyConfigToRun copies the config file to the run directory, or writes
// the effective defaults when no file was loaded
func copyConfigToRun(runDir, configPath string, cfg config.Config) error {
	destPath := filepath.Join(runDir, configFile)

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return err
		}
		return os.WriteFile(destPath, data, 0o644)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "# No config file was found; these are the defaults the run used.")
	return toml.NewEncoder(f).Encode(cfg)
}
