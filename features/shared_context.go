package features

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
)

const (
	fixtureReport = "../testdata/report.html"
	fixtureDetail = "../testdata/details"
	sessionCookie = "session=abc"
)

// sharedContext holds the state every step of a scenario can reach
type sharedContext struct {
	tempDir string

	portal  *httptest.Server
	login   *httptest.Server
	expired bool
	served  atomic.Int64
}

// startPortal serves the detail fixtures the way the portal does. When the
// session has expired, every request is bounced to a login page on another host.
func (c *sharedContext) startPortal() {
	c.login = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	}))

	c.portal = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.expired {
			http.Redirect(w, r, c.login.URL+"/login", http.StatusFound)
			return
		}
		if r.Header.Get("Cookie") != sessionCookie {
			http.Error(w, "no session", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		start := q.Get("startTime")
		if len(start) < 10 {
			http.Error(w, "bad startTime", http.StatusBadRequest)
			return
		}
		data, err := os.ReadFile(filepath.Join(fixtureDetail, q.Get("employeeId")+"-"+start[:10]+".html"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		c.served.Add(1)
		_, _ = w.Write(data)
	}))
}

func (c *sharedContext) workDir() (string, error) {
	if c.tempDir == "" {
		dir, err := os.MkdirTemp("", "rotacheck-features-")
		if err != nil {
			return "", err
		}
		c.tempDir = dir
	}
	return c.tempDir, nil
}

// cleanup stops servers and removes temporary directories
func (c *sharedContext) cleanup() {
	if c.portal != nil {
		c.portal.Close()
	}
	if c.login != nil {
		c.login.Close()
	}
	if c.tempDir != "" {
		_ = os.RemoveAll(c.tempDir)
	}
}
