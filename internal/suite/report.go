package suite

import (
	"errors"
	"time"

	"github.com/danielholmes839/loginsuite/internal/browser"
)

type Status string

const (
	Passed  = Status("PASS")
	Failed  = Status("FAIL")
	Skipped = Status("SKIP")
)

type Result struct {
	Name       string        `json:"name"`
	Browser    string        `json:"browser"`
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
	Assertion  bool          `json:"assertion,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`

	// BrowserInfo and Console are filled in when the page can describe itself.
	BrowserInfo *browser.Info          `json:"browser_info,omitempty"`
	Console     []browser.ConsoleEntry `json:"console,omitempty"`
}

func (r *Result) fail(err error, start time.Time) {
	var assertion *AssertionError

	r.Status = Failed
	r.Duration = time.Since(start)
	r.Error = err.Error()
	r.Assertion = errors.As(err, &assertion)
}

type Report struct {
	ID       string    `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`

	// Path is where the report was saved, if it was.
	Path string `json:"-"`
}

func (r *Report) Passed() []Result {
	return r.with(Passed)
}

func (r *Report) Failed() []Result {
	return r.with(Failed)
}

func (r *Report) Skipped() []Result {
	return r.with(Skipped)
}

// OK reports whether every scenario ran and passed.
func (r *Report) OK() bool {
	return len(r.Passed()) == len(r.Results)
}

func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Filename is the name the report is saved under in the results directory.
func (r *Report) Filename() string {
	return "run_" + r.ID + ".json"
}

func (r *Report) with(status Status) []Result {
	results := []Result{}
	for _, result := range r.Results {
		if result.Status == status {
			results = append(results, result)
		}
	}
	return results
}
