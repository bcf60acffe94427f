package deploy

import (
	"fmt"
	"sync"
)

// Stage is a step of a collection deployment.
type Stage int

const (
	StageIdle Stage = iota
	StageDeploying
	StageActivating
	StageInitializing
	StageRegistering
	StageSuccess
	StageError
)

var stageNames = [...]string{"idle", "deploying", "activating", "initializing", "registering", "success", "error"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Status is the tracker's current view of a deployment.
type Status struct {
	Stage Stage
	// Output is the service's log for the stage, when it returned one.
	Output string
	Result *Result
	Err    error
}

// Tracker follows one deployment at a time. The service answers only once,
// so the intermediate stages are replayed from the returned step outputs.
type Tracker struct {
	mu      sync.Mutex
	status  Status
	history []Stage
	subs    []func(Status)
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Status returns the current status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// History lists the stages entered since the last Reset.
func (t *Tracker) History() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Stage(nil), t.history...)
}

// Subscribe registers fn for every stage change.
func (t *Tracker) Subscribe(fn func(Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, fn)
}

// Begin enters the deploying stage.
func (t *Tracker) Begin() {
	t.set(Status{Stage: StageDeploying})
}

// Replay walks the stages the service reported and ends in success, or in
// error when the service said success=false.
func (t *Tracker) Replay(res *Result) {
	// The service activates the Stylus program inside its deploy step and
	// logs nothing separately for it, so activating carries no output.
	if res.DeployOutput != "" {
		t.set(Status{Stage: StageDeploying, Output: res.DeployOutput, Result: res})
		t.set(Status{Stage: StageActivating, Result: res})
	}
	if res.InitOutput != "" {
		t.set(Status{Stage: StageInitializing, Output: res.InitOutput, Result: res})
	}
	if res.RegisterOutput != "" {
		t.set(Status{Stage: StageRegistering, Output: res.RegisterOutput, Result: res})
	}
	if !res.Success {
		t.set(Status{Stage: StageError, Result: res, Err: ErrDeploymentFailed})
		return
	}
	t.set(Status{Stage: StageSuccess, Result: res})
}

// Fail enters the error stage.
func (t *Tracker) Fail(err error) {
	t.set(Status{Stage: StageError, Err: err})
}

// Reset returns to idle and clears the history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.status = Status{}
	t.history = nil
	subs := append(([]func(Status))(nil), t.subs...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(Status{})
	}
}

func (t *Tracker) set(s Status) {
	t.mu.Lock()
	t.status = s
	if n := len(t.history); n == 0 || t.history[n-1] != s.Stage {
		t.history = append(t.history, s.Stage)
	}
	subs := append(([]func(Status))(nil), t.subs...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}
