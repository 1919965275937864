package command

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/poll/polltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type history struct {
	cmds []Command
}

func (h *history) Record(cmd Command) { h.cmds = append(h.cmds, cmd) }

type recordingObserver struct {
	started  []string
	finished []Status
}

func (o *recordingObserver) CommandStarted(cmd Command) {
	o.started = append(o.started, cmd.Name+":"+cmd.Status.String())
}

func (o *recordingObserver) CommandFinished(cmd Command) {
	o.finished = append(o.finished, cmd.Status)
}

func newTestRunner(opts ...Option) (*Runner, *history, *polltest.Clock) {
	h := &history{}
	clock := polltest.NewClock()
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewRunner(h, opts...), h, clock
}

func TestExecute_Success(t *testing.T) {
	r, h, clock := newTestRunner(WithDefaultThinkTime(time.Second))

	got, err := Execute(r, "OpenRecord", func() (string, error) {
		clock.Advance(300 * time.Millisecond)
		return "account:42", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "account:42", got)
	require.Len(t, h.cmds, 1)

	cmd := h.cmds[0]
	assert.Equal(t, "OpenRecord", cmd.Name)
	assert.Equal(t, StatusSucceeded, cmd.Status)
	assert.Equal(t, 1, cmd.Attempts)
	assert.Equal(t, time.Second, cmd.ThinkTime)
	assert.Equal(t, 1300*time.Millisecond, cmd.Duration())
	assert.Equal(t, 300*time.Millisecond, cmd.ExecutionTime)
	assert.Nil(t, cmd.Failure)
	assert.NotEmpty(t, cmd.ID)
	assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())

	ok, known := cmd.Success()
	assert.True(t, ok)
	assert.True(t, known)
}

func TestExecute_FailureIsObservedNotAbsorbed(t *testing.T) {
	r, h, _ := newTestRunner(WithDefaultThinkTime(0))
	cause := &failure.InteractionFailure{Locator: "#save", Action: "click", Reason: "disabled"}

	err := r.Do("SaveRecord", func() error { return cause })

	assert.Same(t, cause, err, "caller receives the original error")
	require.Len(t, h.cmds, 1)
	cmd := h.cmds[0]
	assert.Equal(t, "SaveRecord", cmd.Name)
	assert.Equal(t, StatusFailed, cmd.Status)
	require.NotNil(t, cmd.Failure)
	assert.Equal(t, "InteractionFailure", cmd.Failure.Kind)
	assert.Equal(t, cause.Error(), cmd.Failure.Message)
	assert.Same(t, cause, cmd.Failure.Cause)

	var inter *failure.InteractionFailure
	assert.ErrorAs(t, cmd.Failure, &inter)

	ok, known := cmd.Success()
	assert.False(t, ok)
	assert.True(t, known)
}

func TestExecute_EveryErrorIsReRaisedUnchanged(t *testing.T) {
	errs := []error{
		errors.New("plain"),
		&failure.NotFoundFailure{Locator: "#grid", Timeout: time.Second},
		&failure.ConvergenceFailure{Field: "Name", Expected: "a", Actual: "b"},
		failure.ErrSessionClosed,
	}

	for _, want := range errs {
		r, h, _ := newTestRunner(WithDefaultThinkTime(0))
		_, got := Execute(r, "Step", func() (int, error) { return 0, want })

		assert.Same(t, want, got)
		assert.Equal(t, want.Error(), got.Error())
		require.Len(t, h.cmds, 1)
		assert.Equal(t, StatusFailed, h.cmds[0].Status)
		assert.ErrorIs(t, h.cmds[0].Failure, want)
	}
}

func TestExecute_ExactlyOneRecordPerCall(t *testing.T) {
	r, h, _ := newTestRunner(WithDefaultThinkTime(0))
	for i := 0; i < 5; i++ {
		fail := i%2 == 1
		_ = r.Do("Step", func() error {
			if fail {
				return errors.New("nope")
			}
			return nil
		})
		assert.Len(t, h.cmds, i+1)
	}
}

func TestExecute_PanicIsRecordedAndReRaised(t *testing.T) {
	r, h, _ := newTestRunner(WithDefaultThinkTime(0))

	assert.PanicsWithValue(t, "index out of range", func() {
		_ = r.Do("Explode", func() error { panic("index out of range") })
	})

	require.Len(t, h.cmds, 1)
	assert.Equal(t, StatusFailed, h.cmds[0].Status)
	assert.Equal(t, "*command.PanicError", h.cmds[0].Failure.Kind)
	assert.Contains(t, h.cmds[0].Failure.Message, "index out of range")
}

func TestExecute_ThinkTimeOverride(t *testing.T) {
	r, h, clock := newTestRunner(WithDefaultThinkTime(2 * time.Second))

	require.NoError(t, r.Do("Fast", func() error { return nil }, WithThinkTime(0)))
	require.NoError(t, r.Do("Slow", func() error { return nil }, WithThinkTime(500*time.Millisecond)))

	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.Sleeps())
	assert.Zero(t, h.cmds[0].ThinkTime)
	assert.Equal(t, 500*time.Millisecond, h.cmds[1].ThinkTime)
}

func TestExecute_CallerDrivenRetryCountsAttempts(t *testing.T) {
	r, h, _ := newTestRunner(WithDefaultThinkTime(0))
	codes := []string{"000000", "111111", "424242"}

	var err error
	for attempt := 1; attempt <= len(codes); attempt++ {
		code := codes[attempt-1]
		err = r.Do("EnterVerificationCode", func() error {
			if code != "424242" {
				return errors.New("code rejected")
			}
			return nil
		}, WithAttempt(attempt))
		if err == nil {
			break
		}
	}

	require.NoError(t, err)
	require.Len(t, h.cmds, 3)
	for i, cmd := range h.cmds {
		assert.Equal(t, i+1, cmd.Attempts)
	}
}

func TestExecute_TransitionTime(t *testing.T) {
	r, h, clock := newTestRunner(WithDefaultThinkTime(0))

	r.AddTransition(time.Hour) // between commands, ignored
	require.NoError(t, r.Do("WaitForGrid", func() error {
		clock.Sleep(200 * time.Millisecond)
		r.AddTransition(200 * time.Millisecond)
		return nil
	}))

	assert.Equal(t, 200*time.Millisecond, h.cmds[0].TransitionTime)
	assert.Equal(t, 200*time.Millisecond, h.cmds[0].ExecutionTime)
}

func TestExecute_NestedCommands(t *testing.T) {
	r, h, _ := newTestRunner(WithDefaultThinkTime(0))

	require.NoError(t, r.Do("Outer", func() error {
		r.AddTransition(time.Second)
		return r.Do("Inner", func() error {
			r.AddTransition(time.Millisecond)
			return nil
		})
	}))

	require.Len(t, h.cmds, 2)
	assert.Equal(t, "Inner", h.cmds[0].Name)
	assert.Equal(t, time.Millisecond, h.cmds[0].TransitionTime)
	assert.Equal(t, "Outer", h.cmds[1].Name)
	assert.Equal(t, time.Second, h.cmds[1].TransitionTime)
}

func TestExecute_Observers(t *testing.T) {
	obs := &recordingObserver{}
	r, _, _ := newTestRunner(WithDefaultThinkTime(0), WithObserver(obs))

	_ = r.Do("A", func() error { return nil })
	_ = r.Do("B", func() error { return errors.New("x") })

	assert.Equal(t, []string{"A:running", "B:running"}, obs.started)
	assert.Equal(t, []Status{StatusSucceeded, StatusFailed}, obs.finished)
}

func TestCommand_SuccessUnknownWhileRunning(t *testing.T) {
	_, known := Command{Status: StatusRunning}.Success()
	assert.False(t, known)
	_, known = Command{}.Success()
	assert.False(t, known)
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusRunning, StatusSucceeded, StatusFailed} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("retrying")))
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusRunning.Terminal())
}

func TestCommand_MarshalJSON(t *testing.T) {
	cmd := Command{Name: "SaveRecord", Attempts: 1, Status: StatusFailed,
		Failure: &Failure{Kind: "InteractionFailure", Message: "cannot click #save", Cause: errors.New("x")}}

	b, err := json.Marshal(cmd)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "InteractionFailure", out["failure"].(map[string]any)["kind"])

	b, err = json.Marshal(Command{Name: "Pending"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Nil(t, out["success"])
}
