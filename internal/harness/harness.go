package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/uiscenario/internal/assertion"
	"github.com/roach88/uiscenario/internal/driver"
)

// SetupError reports why a scenario could not start.
type SetupError struct {
	Scenario string
	Step     string // Empty when opening the session failed
	Err      error
}

func (e *SetupError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("setup failed: open session: %v", e.Err)
	}
	return fmt.Sprintf("setup failed: %s: %v", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// TeardownError reports a failure while releasing a scenario. It is
// recorded as a warning and never changes step results.
type TeardownError struct {
	Scenario string
	Step     string // Empty when closing the session failed
	Err      error
}

func (e *TeardownError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("teardown: close session: %v", e.Err)
	}
	return fmt.Sprintf("teardown: %s: %v", e.Step, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }

// Options configures a Runner.
type Options struct {
	// Waiter performs wait_visible steps. Nil polls at
	// driver.DefaultPollInterval on the system clock.
	Waiter *driver.Waiter

	// Clock measures scenario durations. Nil uses the system clock.
	Clock driver.Clock

	// Parallel bounds how many scenarios run at once. Values below 1 run
	// scenarios sequentially.
	Parallel int

	// Logger receives lifecycle events. Nil discards.
	Logger *slog.Logger

	// OnState, when set, is called on every lifecycle transition.
	OnState func(scenario string, state State)
}

// Runner executes scenarios, each in its own driver session.
type Runner struct {
	factory driver.Factory
	waiter  *driver.Waiter
	clock   driver.Clock
	workers int
	logger  *slog.Logger
	onState func(string, State)
}

// NewRunner creates a runner opening sessions from factory.
func NewRunner(factory driver.Factory, opts Options) *Runner {
	r := &Runner{
		factory: factory,
		waiter:  opts.Waiter,
		clock:   opts.Clock,
		workers: opts.Parallel,
		logger:  opts.Logger,
		onState: opts.OnState,
	}
	if r.waiter == nil {
		r.waiter = driver.NewWaiter(driver.DefaultPollInterval)
	}
	if r.clock == nil {
		r.clock = driver.SystemClock{}
	}
	if r.workers < 1 {
		r.workers = 1
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run executes every scenario of every suite and returns their results in
// declared order, whatever the parallelism.
func (r *Runner) Run(ctx context.Context, suites []*Suite) *Report {
	type job struct {
		suite    *Suite
		scenario *Scenario
	}
	var jobs []job
	for _, s := range suites {
		for i := range s.Scenarios {
			jobs = append(jobs, job{suite: s, scenario: &s.Scenarios[i]})
		}
	}

	results := make([]ScenarioResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = r.RunScenario(gctx, j.suite, j.scenario)
			return nil
		})
	}
	_ = g.Wait() // scenario failures are results, never errors

	return &Report{Scenarios: results}
}

// RunScenario drives one scenario through its lifecycle:
//
//	Pending -> SettingUp -> Running -> TearingDown -> Completed
//
// The session is opened during setup and closed exactly once during
// teardown on every path, including panics in a driver.
func (r *Runner) RunScenario(ctx context.Context, suite *Suite, sc *Scenario) ScenarioResult {
	start := r.clock.Now()
	res := ScenarioResult{Suite: suite.Name, Name: sc.Name}
	log := r.logger.With("suite", suite.Name, "scenario", sc.Name)

	r.transition(log, sc.Name, StatePending)
	r.transition(log, sc.Name, StateSettingUp)

	d, err := r.open(ctx, log)
	if err != nil {
		r.fail(&res, SetupStepIndex, "setup", &SetupError{Scenario: sc.Name, Err: err})
		res.Skipped = len(sc.Steps)
		log.Warn("setup failed", "err", err)
		r.transition(log, sc.Name, StateTearingDown)
		r.transition(log, sc.Name, StateCompleted)
		res.Duration = r.clock.Now().Sub(start)
		return res
	}

	r.body(ctx, log, d, suite, sc, &res)

	r.transition(log, sc.Name, StateTearingDown)
	r.teardown(context.WithoutCancel(ctx), log, d, suite, sc, &res)

	r.transition(log, sc.Name, StateCompleted)
	res.Duration = r.clock.Now().Sub(start)
	log.Info("scenario completed",
		"passed", res.Passed(),
		"steps", len(res.Results),
		"skipped", res.Skipped,
		"warnings", len(res.Warnings),
		"duration", res.Duration,
	)
	return res
}

// body runs setup steps and then the scenario steps, halting at the first
// failure. A panic is recorded as a failure of the step that raised it.
func (r *Runner) body(ctx context.Context, log *slog.Logger, d driver.Driver, suite *Suite, sc *Scenario, res *ScenarioResult) {
	current := SetupStepIndex
	label := "setup"
	defer func() {
		if p := recover(); p != nil {
			log.Error("internal error", "panic", p, "stack", string(debug.Stack()))
			err := fmt.Errorf("internal error: %v", p)
			if current == SetupStepIndex {
				err = &SetupError{Scenario: sc.Name, Step: label, Err: err}
			}
			r.fail(res, current, label, err)
			res.Skipped = len(sc.Steps) - current - 1
		}
	}()

	setup := make([]Step, 0, len(suite.Setup)+len(sc.Setup))
	setup = append(append(setup, suite.Setup...), sc.Setup...)
	for i := range setup {
		label = setup[i].String()
		outcome, err := r.execute(ctx, d, &setup[i])
		if err == nil && outcome != nil && !outcome.Pass {
			err = outcome.Err()
		}
		if err != nil {
			log.Warn("setup failed", "step", label, "err", err)
			r.fail(res, SetupStepIndex, label, &SetupError{Scenario: sc.Name, Step: label, Err: err})
			res.Skipped = len(sc.Steps)
			return
		}
	}

	r.transition(log, sc.Name, StateRunning)
	for i := range sc.Steps {
		current = i
		step := &sc.Steps[i]
		label = step.String()

		outcome, err := r.execute(ctx, d, step)
		switch {
		case err != nil:
			log.Warn("step error", "step", i, "kind", step.Kind(), "err", err)
			r.fail(res, i, label, err)
		case outcome != nil && !outcome.Pass:
			log.Info("assertion failed", "step", i, "kind", step.Kind(), "message", outcome.Message)
			res.Results = append(res.Results, StepResult{
				Scenario:  sc.Name,
				StepIndex: i,
				Step:      label,
				Status:    StatusFail,
				Message:   outcome.String(),
				Expected:  outcome.Expected,
				Actual:    outcome.Actual,
				Diff:      outcome.Diff,
			})
		default:
			log.Debug("step passed", "step", i, "kind", step.Kind())
			res.Results = append(res.Results, StepResult{
				Scenario:  sc.Name,
				StepIndex: i,
				Step:      label,
				Status:    StatusPass,
			})
			continue
		}
		res.Skipped = len(sc.Steps) - i - 1
		return
	}
}

// teardown runs teardown steps and closes the session. Failures become
// warnings.
func (r *Runner) teardown(ctx context.Context, log *slog.Logger, d driver.Driver, suite *Suite, sc *Scenario, res *ScenarioResult) {
	warn := func(err *TeardownError) {
		log.Warn("teardown failed", "step", err.Step, "err", err.Err)
		res.Warnings = append(res.Warnings, err.Error())
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				warn(&TeardownError{Scenario: sc.Name, Step: "teardown", Err: fmt.Errorf("internal error: %v", p)})
			}
		}()
		steps := make([]Step, 0, len(sc.Teardown)+len(suite.Teardown))
		steps = append(append(steps, sc.Teardown...), suite.Teardown...)
		for i := range steps {
			outcome, err := r.execute(ctx, d, &steps[i])
			if err == nil && outcome != nil && !outcome.Pass {
				err = outcome.Err()
			}
			if err != nil {
				warn(&TeardownError{Scenario: sc.Name, Step: steps[i].String(), Err: err})
			}
		}
	}()

	defer func() {
		if p := recover(); p != nil {
			log.Error("internal error", "panic", p, "stack", string(debug.Stack()))
			warn(&TeardownError{Scenario: sc.Name, Err: fmt.Errorf("internal error: %v", p)})
		}
	}()
	if err := d.Close(); err != nil && !errors.Is(err, driver.ErrSessionClosed) {
		warn(&TeardownError{Scenario: sc.Name, Err: err})
	}
}

// open starts a session. A panicking factory is reported as an error.
func (r *Runner) open(ctx context.Context, log *slog.Logger) (d driver.Driver, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("internal error", "panic", p, "stack", string(debug.Stack()))
			d, err = nil, fmt.Errorf("internal error: %v", p)
		}
	}()
	return r.factory.Open(ctx)
}

// execute performs one step. Assertions return their outcome; actions
// return nil. The error reports infrastructure failures only.
func (r *Runner) execute(ctx context.Context, d driver.Driver, s *Step) (*assertion.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s.Kind() {
	case KindNavigate:
		return nil, d.Navigate(ctx, s.Navigate)
	case KindClick:
		el, err := driver.Locate(ctx, d, *s.Click)
		if err != nil {
			return nil, err
		}
		return nil, el.Click(ctx)
	case KindClear:
		el, err := driver.Locate(ctx, d, *s.Clear)
		if err != nil {
			return nil, err
		}
		return nil, el.Clear(ctx)
	case KindType:
		el, err := driver.Locate(ctx, d, s.Type.Locator)
		if err != nil {
			return nil, err
		}
		return nil, el.SendKeys(ctx, s.Type.Text)
	case KindWaitVisible:
		_, err := r.waiter.Until(ctx, d, driver.VisibilityOf(s.WaitVisible.Locator), s.WaitVisible.Timeout)
		return nil, err
	}
	if s.IsAssertion() {
		outcome, err := check(ctx, d, s)
		if err != nil {
			return nil, err
		}
		return &outcome, nil
	}
	return nil, fmt.Errorf("invalid step: %s", s)
}

func (r *Runner) fail(res *ScenarioResult, index int, label string, err error) {
	res.Results = append(res.Results, StepResult{
		Scenario:  res.Name,
		StepIndex: index,
		Step:      label,
		Status:    StatusFail,
		Message:   err.Error(),
	})
}

func (r *Runner) transition(log *slog.Logger, scenario string, s State) {
	log.Debug("state", "state", s.String())
	if r.onState != nil {
		r.onState(scenario, s)
	}
}
