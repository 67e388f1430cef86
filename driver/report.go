package driver

import "time"

// Outcome is what a run did with one shape.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFixed     Outcome = "fixed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Result is one processed shape.
type Result struct {
	ShapeID string
	Shape   string
	Builder string
	Path    string
	Outcome Outcome
	Depth   int
	Err     error
}

// Report summarizes a run in processing order.
type Report struct {
	Mode     Mode
	Results  []Result
	Duration time.Duration
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Count returns how many shapes ended with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Changed lists the results that created or rewrote a file.
func (r *Report) Changed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeCreated || res.Outcome == OutcomeUpdated {
			out = append(out, res)
		}
	}
	return out
}

// Result looks up the result for a builder name.
func (r *Report) Result(builderName string) (Result, bool) {
	for _, res := range r.Results {
		if res.Builder == builderName {
			return res, true
		}
	}
	return Result{}, false
}
