// Package metrics writes and reads the compliance.xml report of a run.
package metrics

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/joshdk/go-junit"

	"github.com/drew/rotacheck/internal/model"
)

// SuiteName is the testsuite name used in compliance.xml
const SuiteName = "rotacheck"

type xmlSuite struct {
	XMLName  xml.Name  `xml:"testsuite"`
	Name     string    `xml:"name,attr"`
	Tests    int       `xml:"tests,attr"`
	Failures int       `xml:"failures,attr"`
	Errors   int       `xml:"errors,attr"`
	Skipped  int       `xml:"skipped,attr"`
	Time     string    `xml:"time,attr"`
	Cases    []xmlCase `xml:"testcase"`
}

type xmlCase struct {
	Name      string      `xml:"name,attr"`
	Classname string      `xml:"classname,attr"`
	Time      string      `xml:"time,attr"`
	Failure   *xmlProblem `xml:"failure,omitempty"`
	Error     *xmlProblem `xml:"error,omitempty"`
	Skipped   *xmlProblem `xml:"skipped,omitempty"`
}

type xmlProblem struct {
	Message string `xml:"message,attr,omitempty"`
	Body    string `xml:",chardata"`
}

// WriteJUnitXML writes one testcase per report row.
// RED rows are failures, fetch errors are errors and halted rows are skipped.
func WriteJUnitXML(path string, record *model.RunRecord) error {
	suite := xmlSuite{
		Name: SuiteName + " " + record.AnchorDate,
		Time: seconds(record.DurationMs),
	}

	for _, row := range record.Rows {
		tc := xmlCase{
			Name:      row.EmployeeID,
			Classname: SuiteName + "." + record.AnchorDate,
			Time:      seconds(row.DurationMs),
		}

		switch {
		case row.Status == model.StatusHalted:
			tc.Skipped = &xmlProblem{Message: "halted after an earlier fetch error"}
			suite.Skipped++
		case row.Status == model.StatusError:
			tc.Error = &xmlProblem{Message: "detail fetch failed", Body: row.Error}
			suite.Errors++
		case row.Color == model.ColorRed:
			tc.Failure = &xmlProblem{
				Message: fmt.Sprintf("%s over %d mins on both days", row.CurrentTask, record.Threshold),
				Body:    "previous day: " + row.PrevText,
			}
			suite.Failures++
		}

		suite.Cases = append(suite.Cases, tc)
	}
	suite.Tests = len(suite.Cases)

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode compliance report: %w", err)
	}

	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write compliance report: %w", err)
	}
	return nil
}

func seconds(ms int64) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000)
}

// ParseJUnitXML parses a compliance.xml file and returns metrics.
// Any JUnit layout is accepted so reports merged by CI tooling still load.
func ParseJUnitXML(path string) (*model.ComplianceMetrics, error) {
	suites, err := junit.IngestFile(path)
	if err != nil {
		return nil, err
	}

	var m model.ComplianceMetrics
	for _, suite := range suites {
		m.Rows += len(suite.Tests)
		for _, test := range suite.Tests {
			switch test.Status {
			case junit.StatusFailed:
				m.Violations++
			case junit.StatusError:
				m.Errors++
			case junit.StatusPassed:
				m.Passed++
			}
			m.Seconds += test.Duration.Seconds()
		}
	}

	return &m, nil
}
