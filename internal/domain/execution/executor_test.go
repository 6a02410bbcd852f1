package execution

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/provisionkit/provision/internal/domain/checks"
	"github.com/provisionkit/provision/internal/domain/spec"
	"github.com/provisionkit/provision/internal/ports"
)

// fakeRunner scripts command behavior per argv, keyed by the joined argv.
type fakeRunner struct {
	handlers map[string]func(ctx context.Context, call int) (ports.CommandResult, error)
	calls    map[string]int
	binaries map[string]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		handlers: make(map[string]func(ctx context.Context, call int) (ports.CommandResult, error)),
		calls:    make(map[string]int),
		binaries: make(map[string]string),
	}
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, _ ...string) (ports.CommandResult, error) {
	key := strings.Join(argv, " ")
	f.calls[key]++
	if handler, ok := f.handlers[key]; ok {
		return handler(ctx, f.calls[key])
	}
	return ports.CommandResult{}, nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if path, ok := f.binaries[name]; ok {
		return path, nil
	}
	return "", errors.New("not found")
}

// fakeFS is a mutable set of paths, so commands can leave artifacts behind.
type fakeFS struct {
	paths map[string]bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{paths: make(map[string]bool)}
}

func (f *fakeFS) Exists(path string) bool { return f.paths[path] }
func (f *fakeFS) IsDir(_ string) bool     { return false }
func (f *fakeFS) GetFileInfo(_ string) (ports.FileInfo, error) {
	return ports.FileInfo{}, errors.New("not implemented")
}

type harness struct {
	runner   *fakeRunner
	fs       *fakeFS
	executor *Executor
}

func newHarness() *harness {
	runner := newFakeRunner()
	fs := newFakeFS()
	evaluator := checks.NewEvaluator(runner, fs)
	executor := NewExecutor(runner, evaluator, nopLogger{}).
		WithBackoffBase(time.Millisecond)
	return &harness{runner: runner, fs: fs, executor: executor}
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...ports.Field) {}
func (nopLogger) Info(context.Context, string, ...ports.Field)  {}
func (nopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (nopLogger) Error(context.Context, string, ...ports.Field) {}
func (nopLogger) With(...ports.Field) ports.Logger              { return nopLogger{} }
func (nopLogger) Level() ports.Level                            { return ports.LevelError }

func step(id string, argv ...string) spec.Step {
	return spec.Step{
		ID:      spec.MustNewStepID(id),
		Command: argv,
		Timeout: time.Second,
	}
}

func TestExecutor_EmptyDocument(t *testing.T) {
	h := newHarness()

	run := h.executor.Execute(context.Background(), &spec.Document{})
	if run.Status() != RunSuccess {
		t.Errorf("Status = %s, want %s", run.Status(), RunSuccess)
	}
	if len(run.Results()) != 0 {
		t.Errorf("results len = %d, want 0", len(run.Results()))
	}
}

func TestExecutor_SingleStep_Succeeds(t *testing.T) {
	h := newHarness()

	run := h.executor.Execute(context.Background(), &spec.Document{
		Steps: []spec.Step{step("a", "true")},
	})

	if run.Status() != RunSuccess {
		t.Fatalf("Status = %s, want %s", run.Status(), RunSuccess)
	}
	results := run.Results()
	if len(results) != 1 {
		t.Fatalf("results len = %d, want 1", len(results))
	}
	if !results[0].Succeeded() {
		t.Error("step should have succeeded")
	}
	if results[0].AttemptCount() != 1 {
		t.Errorf("attempts = %d, want 1", results[0].AttemptCount())
	}
	if h.runner.calls["true"] != 1 {
		t.Errorf("command ran %d times, want 1", h.runner.calls["true"])
	}
}

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...ports.Field) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...ports.Field) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...ports.Field) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...ports.Field) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) With(_ ...ports.Field) ports.Logger { return l }
func (l *recordingLogger) Level() ports.Level                 { return ports.LevelDebug }

func TestExecutor_UsesContextLogger(t *testing.T) {
	h := newHarness()
	rec := &recordingLogger{}
	ctx := ports.ContextWithLogger(context.Background(), rec)

	run := h.executor.Execute(ctx, &spec.Document{
		Steps: []spec.Step{step("a", "true")},
	})

	if run.Status() != RunSuccess {
		t.Fatalf("Status = %s, want %s", run.Status(), RunSuccess)
	}
	if len(rec.messages) == 0 {
		t.Fatal("logger attached to the context should receive the step logs")
	}
	found := false
	for _, msg := range rec.messages {
		if msg == "step succeeded" {
			found = true
		}
	}
	if !found {
		t.Errorf("context logger messages = %v, want a %q entry", rec.messages, "step succeeded")
	}
}

func TestExecutor_Idempotence_SecondRunAllSkipped(t *testing.T) {
	h := newHarness()

	// The command provisions the artifact the precondition looks for.
	h.runner.handlers["touch /marker"] = func(_ context.Context, _ int) (ports.CommandResult, error) {
		h.fs.paths["/marker"] = true
		return ports.CommandResult{}, nil
	}

	doc := &spec.Document{Steps: []spec.Step{{
		ID:      spec.MustNewStepID("touch:marker"),
		Command: []string{"touch", "/marker"},
		Preconditions: []spec.Check{
			{Kind: spec.CheckFileExists, Target: "/marker"},
		},
		Postconditions: []spec.Check{
			{Kind: spec.CheckFileExists, Target: "/marker"},
		},
		Timeout: time.Second,
	}}}

	first := h.executor.Execute(context.Background(), doc)
	if first.Results()[0].Status() != StatusSucceeded {
		t.Fatalf("first run status = %s, want %s", first.Results()[0].Status(), StatusSucceeded)
	}

	second := h.executor.Execute(context.Background(), doc)
	if second.Status() != RunSuccess {
		t.Errorf("second run Status = %s, want %s", second.Status(), RunSuccess)
	}
	for _, result := range second.Results() {
		if !result.Skipped() {
			t.Errorf("step %s status = %s, want %s", result.StepID(), result.Status(), StatusSkipped)
		}
	}
	if h.runner.calls["touch /marker"] != 1 {
		t.Errorf("command ran %d times across both runs, want 1", h.runner.calls["touch /marker"])
	}
}

func TestExecutor_FailFast(t *testing.T) {
	h := newHarness()

	h.runner.handlers["false"] = func(_ context.Context, _ int) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1, Stderr: "boom\n"}, nil
	}

	run := h.executor.Execute(context.Background(), &spec.Document{
		Steps: []spec.Step{
			step("a", "true"),
			step("b", "false"),
			step("c", "never"),
		},
	})

	if run.Status() != RunFatal {
		t.Errorf("Status = %s, want %s", run.Status(), RunFatal)
	}
	results := run.Results()
	if len(results) != 2 {
		t.Fatalf("results len = %d, want 2 (step c must not appear)", len(results))
	}
	if results[1].Status() != StatusFailed {
		t.Errorf("step b status = %s, want %s", results[1].Status(), StatusFailed)
	}
	if h.runner.calls["never"] != 0 {
		t.Error("step c must never execute after a fatal failure")
	}

	var failure *StepFailedError
	if !errors.As(results[1].Error(), &failure) {
		t.Fatalf("error should be *StepFailedError, got %T", results[1].Error())
	}
	var execErr *StepExecutionError
	if !errors.As(failure, &execErr) {
		t.Fatalf("cause should be *StepExecutionError, got %v", failure.Cause)
	}
	if execErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", execErr.ExitCode)
	}
	if execErr.Stderr != "boom" {
		t.Errorf("Stderr = %q, want %q", execErr.Stderr, "boom")
	}
}

func TestExecutor_RetryThenSucceed(t *testing.T) {
	h := newHarness()

	h.runner.handlers["flaky"] = func(_ context.Context, call int) (ports.CommandResult, error) {
		if call <= 2 {
			return ports.CommandResult{ExitCode: 1}, nil
		}
		return ports.CommandResult{}, nil
	}

	flaky := step("flaky", "flaky")
	flaky.Retryable = true
	flaky.MaxRetries = 2

	run := h.executor.Execute(context.Background(), &spec.Document{Steps: []spec.Step{flaky}})

	if run.Status() != RunSuccess {
		t.Fatalf("Status = %s, want %s", run.Status(), RunSuccess)
	}
	result := run.Results()[0]
	if !result.Succeeded() {
		t.Errorf("step status = %s, want %s", result.Status(), StatusSucceeded)
	}
	if result.AttemptCount() != 3 {
		t.Fatalf("attempts = %d, want exactly 3", result.AttemptCount())
	}

	attempts := result.Attempts()
	if attempts[0].Outcome != OutcomeRetried || attempts[1].Outcome != OutcomeRetried {
		t.Error("first two attempts should be marked retried")
	}
	if attempts[2].Outcome != OutcomeSucceeded {
		t.Errorf("last attempt outcome = %s, want %s", attempts[2].Outcome, OutcomeSucceeded)
	}
}

func TestExecutor_RetriesExhausted(t *testing.T) {
	h := newHarness()

	h.runner.handlers["doomed"] = func(_ context.Context, _ int) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1}, nil
	}

	doomed := step("doomed", "doomed")
	doomed.Retryable = true
	doomed.MaxRetries = 2

	run := h.executor.Execute(context.Background(), &spec.Document{Steps: []spec.Step{doomed}})

	if run.Status() != RunFatal {
		t.Errorf("Status = %s, want %s", run.Status(), RunFatal)
	}
	result := run.Results()[0]
	if result.AttemptCount() != 3 {
		t.Errorf("attempts = %d, want 3", result.AttemptCount())
	}
	attempts := result.Attempts()
	if attempts[2].Outcome != OutcomeFailed {
		t.Errorf("last attempt outcome = %s, want %s", attempts[2].Outcome, OutcomeFailed)
	}

	var failure *StepFailedError
	if !errors.As(result.Error(), &failure) {
		t.Fatalf("error should be *StepFailedError, got %T", result.Error())
	}
	if failure.Attempts != 3 {
		t.Errorf("failure attempts = %d, want 3", failure.Attempts)
	}
}

func TestExecutor_PostconditionUnmet(t *testing.T) {
	h := newHarness()

	// Zero exit, but the declared artifact never appears.
	s := step("ghost", "true")
	s.Postconditions = []spec.Check{{Kind: spec.CheckFileExists, Target: "/ghost"}}

	run := h.executor.Execute(context.Background(), &spec.Document{Steps: []spec.Step{s}})

	if run.Status() != RunFatal {
		t.Errorf("Status = %s, want %s", run.Status(), RunFatal)
	}
	result := run.Results()[0]
	if result.Status() != StatusFailed {
		t.Errorf("step status = %s, want %s", result.Status(), StatusFailed)
	}

	var postErr *PostconditionError
	if !errors.As(result.Error(), &postErr) {
		t.Fatalf("error should be *PostconditionError, got %T", result.Error())
	}
	if len(postErr.Unmet) != 1 {
		t.Errorf("unmet checks = %d, want 1", len(postErr.Unmet))
	}
}

func TestExecutor_ContinueOnError(t *testing.T) {
	h := newHarness()

	h.runner.handlers["false"] = func(_ context.Context, _ int) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1}, nil
	}

	run := h.executor.WithContinueOnError(true).Execute(context.Background(), &spec.Document{
		Steps: []spec.Step{
			step("a", "false"),
			step("b", "true"),
		},
	})

	if run.Status() != RunPartialFailure {
		t.Errorf("Status = %s, want %s", run.Status(), RunPartialFailure)
	}
	results := run.Results()
	if len(results) != 2 {
		t.Fatalf("results len = %d, want 2", len(results))
	}
	if results[0].Status() != StatusFailed {
		t.Errorf("step a status = %s, want %s", results[0].Status(), StatusFailed)
	}
	if results[1].Status() != StatusSucceeded {
		t.Errorf("step b status = %s, want %s", results[1].Status(), StatusSucceeded)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	h := newHarness()

	h.runner.handlers["slow"] = func(ctx context.Context, _ int) (ports.CommandResult, error) {
		<-ctx.Done()
		return ports.CommandResult{}, ctx.Err()
	}

	slow := step("slow", "slow")
	slow.Timeout = 10 * time.Millisecond

	run := h.executor.Execute(context.Background(), &spec.Document{Steps: []spec.Step{slow}})

	if run.Status() != RunFatal {
		t.Errorf("Status = %s, want %s", run.Status(), RunFatal)
	}
	result := run.Results()[0]

	var timeoutErr *StepTimeoutError
	if !errors.As(result.Error(), &timeoutErr) {
		t.Fatalf("error should wrap *StepTimeoutError, got %v", result.Error())
	}
	if timeoutErr.Timeout != 10*time.Millisecond {
		t.Errorf("Timeout = %v, want 10ms", timeoutErr.Timeout)
	}
}

func TestExecutor_TimeoutRetries(t *testing.T) {
	h := newHarness()

	h.runner.handlers["slow-then-fast"] = func(ctx context.Context, call int) (ports.CommandResult, error) {
		if call == 1 {
			<-ctx.Done()
			return ports.CommandResult{}, ctx.Err()
		}
		return ports.CommandResult{}, nil
	}

	s := step("slow-then-fast", "slow-then-fast")
	s.Timeout = 10 * time.Millisecond
	s.Retryable = true
	s.MaxRetries = 1

	run := h.executor.Execute(context.Background(), &spec.Document{Steps: []spec.Step{s}})

	if run.Status() != RunSuccess {
		t.Fatalf("Status = %s, want %s (timeout should be retryable)", run.Status(), RunSuccess)
	}
	if run.Results()[0].AttemptCount() != 2 {
		t.Errorf("attempts = %d, want 2", run.Results()[0].AttemptCount())
	}
}

func TestExecutor_CancelledBeforeStart(t *testing.T) {
	h := newHarness()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := h.executor.Execute(ctx, &spec.Document{
		Steps: []spec.Step{step("a", "true"), step("b", "true")},
	})

	if run.Status() != RunCancelled {
		t.Errorf("Status = %s, want %s", run.Status(), RunCancelled)
	}
	results := run.Results()
	if len(results) != 1 {
		t.Fatalf("results len = %d, want 1", len(results))
	}
	if results[0].Status() != StatusCancelled {
		t.Errorf("step status = %s, want %s", results[0].Status(), StatusCancelled)
	}
	if h.runner.calls["true"] != 0 {
		t.Error("no command should run after cancellation")
	}
}

func TestExecutor_CancelledMidStep(t *testing.T) {
	h := newHarness()

	ctx, cancel := context.WithCancel(context.Background())
	h.runner.handlers["hang"] = func(runCtx context.Context, _ int) (ports.CommandResult, error) {
		cancel()
		<-runCtx.Done()
		return ports.CommandResult{}, runCtx.Err()
	}

	run := h.executor.Execute(ctx, &spec.Document{
		Steps: []spec.Step{step("hang", "hang"), step("after", "true")},
	})

	if run.Status() != RunCancelled {
		t.Errorf("Status = %s, want %s", run.Status(), RunCancelled)
	}
	if len(run.Results()) != 1 {
		t.Fatalf("results len = %d, want 1", len(run.Results()))
	}
	if run.Results()[0].Status() != StatusCancelled {
		t.Errorf("step status = %s, want %s", run.Results()[0].Status(), StatusCancelled)
	}
}
