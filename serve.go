package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drew/rotacheck/internal/hostpage"
	"github.com/drew/rotacheck/internal/pipeline"
	"github.com/drew/rotacheck/internal/prefs"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	ro := &runOptions{}
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Annotate a report once, then serve it with a live control panel",
		Long: `serve runs the report once and serves the annotated page. The control
panel's threshold and theme buttons update the stored preferences and
re-classify the cached results without fetching anything again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.report == "" {
				return errors.New("--report is required")
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

			srv, err := newReportServer(out, p, !ro.noPanel)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving annotated report on http://%s/\n", ln.Addr())
			return serveUntilDone(ctx, srv.routes(), ln, out.logger)
		},
	}

	addRunFlags(cmd, ro)
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	return cmd
}

// reportServer holds the pristine report and the cached aggregates of a run
type reportServer struct {
	mu       sync.Mutex
	pristine *hostpage.Document
	current  *hostpage.Document
	prior    *pipeline.Result
	rc       pipeline.RunContext
	prefs    *prefs.Preferences
	panel    bool
	runDir   string
	logger   *zap.Logger
}

func newReportServer(out *runOutcome, p *prefs.Preferences, panel bool) (*reportServer, error) {
	if out.pristine == nil {
		return nil, errors.New("serve needs a report document")
	}
	s := &reportServer{
		pristine: out.pristine,
		prior:    out.result,
		rc:       out.rc,
		prefs:    p,
		panel:    panel,
		runDir:   out.runDir,
		logger:   out.logger,
	}
	if err := s.reclassify(out.rc.Threshold()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *reportServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleReport)
	mux.HandleFunc("POST /api/threshold", s.handleThreshold)
	mux.HandleFunc("POST /api/theme", s.handleTheme)
	mux.Handle("GET /run/", http.StripPrefix("/run/", http.FileServer(http.Dir(s.runDir))))
	return mux
}

// reclassify repaints a fresh copy of the report; caller holds mu or owns s
func (s *reportServer) reclassify(threshold int) error {
	rc := s.rc.WithThreshold(threshold)
	fresh := s.pristine.Clone()
	if _, err := pipeline.Reclassify(fresh, s.prior, rc); err != nil {
		return err
	}
	s.current = fresh
	s.rc = rc
	return nil
}

func (s *reportServer) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.current.Render(w, hostpage.RenderOptions{
		Panel:      s.panel,
		Dark:       s.prefs.DarkMode(),
		Serve:      true,
		Threshold:  s.rc.Threshold(),
		AnchorDate: s.rc.AnchorDate().Format(dateLayout),
	})
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
	}
}

type thresholdRequest struct {
	Value json.RawMessage `json:"value"`
}

func (s *reportServer) handleThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	// Accept both {"value": "240"} and {"value": 240}
	raw := string(req.Value)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.prefs.SetThreshold(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("not a valid threshold: %s", raw), http.StatusBadRequest)
		return
	}

	threshold := s.prefs.Threshold()
	if err := s.reclassify(threshold); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("threshold changed", zap.Int("threshold", threshold))
	writeJSON(w, map[string]interface{}{"threshold": threshold})
}

func (s *reportServer) handleTheme(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dark, err := s.prefs.ToggleDarkMode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"dark": dark})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down gracefully
func serveUntilDone(ctx context.Context, h http.Handler, ln net.Listener, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
