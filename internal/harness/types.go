package harness

import (
	"fmt"
	"time"
)

// State is a position in the per-scenario lifecycle.
type State int

const (
	StatePending State = iota
	StateSettingUp
	StateRunning
	StateTearingDown
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSettingUp:
		return "setting_up"
	case StateRunning:
		return "running"
	case StateTearingDown:
		return "tearing_down"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Status is the outcome of one step.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// SetupStepIndex marks the synthetic result recorded when setup fails.
const SetupStepIndex = -1

// StepResult is the recorded outcome of one step. It is never modified
// after the runner emits it.
type StepResult struct {
	Scenario  string `json:"scenario"`
	StepIndex int    `json:"step_index"`
	Step      string `json:"step"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	Expected  string `json:"expected,omitempty"`
	Actual    string `json:"actual,omitempty"`
	Diff      string `json:"diff,omitempty"`
}

// Passed reports whether the step passed.
func (r StepResult) Passed() bool { return r.Status == StatusPass }

// ScenarioResult aggregates the results of one scenario execution.
type ScenarioResult struct {
	Suite    string        `json:"suite"`
	Name     string        `json:"name"`
	Results  []StepResult  `json:"results"`
	Warnings []string      `json:"warnings,omitempty"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

// Passed reports whether every recorded step passed. A scenario with no
// recorded results did not pass.
func (r ScenarioResult) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// Failure returns the failing result, if any.
func (r ScenarioResult) Failure() (StepResult, bool) {
	for _, res := range r.Results {
		if !res.Passed() {
			return res, true
		}
	}
	return StepResult{}, false
}

// Report is the outcome of a whole run, in declared order.
type Report struct {
	Scenarios []ScenarioResult `json:"scenarios"`
}

// Counts returns the number of passing and failing scenarios.
func (r *Report) Counts() (passed, failed int) {
	for _, s := range r.Scenarios {
		if s.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Passed reports whether every scenario passed.
func (r *Report) Passed() bool {
	_, failed := r.Counts()
	return failed == 0
}
