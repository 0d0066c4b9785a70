package preflight

// Report groups check results for status surfaces.
type Report struct {
	Ready  bool     `json:"ready"`
	Checks []Result `json:"checks"`
}

// Summarize marks the report ready only when every check passed.
func Summarize(results []Result) Report {
	report := Report{Ready: true, Checks: results}
	for _, r := range results {
		if !r.Passed {
			report.Ready = false
			break
		}
	}
	if report.Checks == nil {
		report.Checks = []Result{}
	}
	return report
}

// Failed returns the checks that did not pass.
func (r Report) Failed() []Result {
	var failed []Result
	for _, check := range r.Checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}
