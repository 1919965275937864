package session

import (
	"errors"
	"testing"
	"time"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/browser/browsertest"
	"github.com/entrhq/uirunner/pkg/command"
	"github.com/entrhq/uirunner/pkg/config"
	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/poll/polltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTiming() config.Timing {
	t := config.DefaultTiming()
	t.ThinkTime = 0
	t.PollInterval = 100 * time.Millisecond
	t.DefaultTimeout = time.Second
	return t
}

func newTestSession(t *testing.T) (*Context, *browsertest.FakeDriver, *polltest.Clock) {
	t.Helper()
	d := browsertest.NewFakeDriver()
	clock := polltest.NewClock()
	return New(d, WithClock(clock), WithTiming(testTiming())), d, clock
}

func TestSession_ExecuteRecordsIntoHistory(t *testing.T) {
	s, d, _ := newTestSession(t)
	save := browser.CSS("#save").Named("Save")
	btn := browsertest.NewElement()
	d.Set(save, btn)

	err := s.Do("SaveRecord", func() error {
		el, err := s.Waiter().WaitClickable(save, 0)
		if err != nil {
			return err
		}
		return el.Click()
	})

	require.NoError(t, err)
	assert.Equal(t, 1, btn.Clicks)
	cmds := s.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "SaveRecord", cmds[0].Name)
	assert.Equal(t, command.StatusSucceeded, cmds[0].Status)
}

func TestSession_FailedCommandScenario(t *testing.T) {
	s, d, _ := newTestSession(t)
	save := browser.CSS("#save")
	btn := browsertest.NewElement()
	btn.Enabled = false
	d.Set(save, btn)

	err := s.Do("SaveRecord", func() error {
		_, err := s.Waiter().WaitClickable(save, 300*time.Millisecond)
		return err
	})

	var inter *failure.InteractionFailure
	require.ErrorAs(t, err, &inter)

	cmds := s.Commands()
	require.Len(t, cmds, 1)
	ok, known := cmds[0].Success()
	assert.False(t, ok)
	assert.True(t, known)
	assert.Equal(t, "InteractionFailure", cmds[0].Failure.Kind)
	assert.Same(t, err, cmds[0].Failure.Cause)
}

func TestSession_WaitTimeIsChargedAsTransition(t *testing.T) {
	s, d, _ := newTestSession(t)
	grid := browser.CSS("#grid")
	d.AppearAfter(grid, 3, browsertest.NewElement())

	_, err := command.Execute(s.Runner(), "OpenGrid", func() (browser.Element, error) {
		return s.Waiter().WaitVisible(grid, 0)
	})

	require.NoError(t, err)
	cmd := s.Commands()[0]
	assert.Equal(t, 300*time.Millisecond, cmd.TransitionTime)
	assert.Equal(t, 300*time.Millisecond, cmd.ExecutionTime)
}

func TestSession_CommandsIsACopy(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Do("A", func() error { return nil }))

	cmds := s.Commands()
	cmds[0].Name = "mutated"

	assert.Equal(t, "A", s.Commands()[0].Name)
	assert.Equal(t, 1, s.Len())
}

func TestSession_HistoryKeepsIssueOrder(t *testing.T) {
	s, _, _ := newTestSession(t)
	names := []string{"Open", "Fill", "Save", "Close"}
	for i, name := range names {
		fail := i == 2
		_ = s.Do(name, func() error {
			if fail {
				return errors.New("save rejected")
			}
			return nil
		})
	}

	cmds := s.Commands()
	require.Len(t, cmds, len(names))
	for i, cmd := range cmds {
		assert.Equal(t, names[i], cmd.Name)
	}
}

func TestSession_Summary(t *testing.T) {
	s, _, clock := newTestSession(t)
	_ = s.Do("A", func() error { clock.Advance(time.Second); return nil })
	_ = s.Do("B", func() error { return &failure.NotFoundFailure{Locator: "#x"} })
	_ = s.Do("C", func() error { return &failure.NotFoundFailure{Locator: "#y"} })

	sum := s.Summary()
	assert.Equal(t, s.ID(), sum.SessionID)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, map[string]int{"NotFoundFailure": 2}, sum.FailuresByKind)
	assert.Equal(t, time.Second, sum.ExecutionTime)
	assert.Equal(t, time.Second, sum.Elapsed)
}

func TestSession_NavigateAndClose(t *testing.T) {
	s, d, _ := newTestSession(t)

	require.NoError(t, s.Navigate("https://org.crm.dynamics.com/main.aspx"))
	assert.Equal(t, []string{"https://org.crm.dynamics.com/main.aspx"}, d.Navigated)

	require.NoError(t, s.Close())
	assert.True(t, d.Closed)
	require.NoError(t, s.Close(), "close is idempotent")

	err := s.Do("AfterClose", func() error { return nil })
	assert.ErrorIs(t, err, failure.ErrSessionClosed)
	require.Equal(t, 2, s.Len(), "history remains readable after close")
	assert.Equal(t, command.StatusFailed, s.Commands()[1].Status)
}

func TestSession_CloseError(t *testing.T) {
	s, d, _ := newTestSession(t)
	d.CloseErr = errors.New("browser already gone")

	err := s.Close()
	assert.ErrorIs(t, err, d.CloseErr)
}

func TestSession_ObserverSeesCommands(t *testing.T) {
	obs := &countingObserver{}
	s := New(browsertest.NewFakeDriver(), WithClock(polltest.NewClock()), WithTiming(testTiming()), WithObserver(obs))

	_ = s.Do("A", func() error { return nil })
	_ = s.Do("B", func() error { return nil })

	assert.Equal(t, 2, obs.started)
	assert.Equal(t, 2, obs.finished)
}

func TestSession_DistinctIDs(t *testing.T) {
	a, _, _ := newTestSession(t)
	b, _, _ := newTestSession(t)
	assert.NotEqual(t, a.ID(), b.ID())
}

type countingObserver struct {
	started, finished int
}

func (o *countingObserver) CommandStarted(command.Command)  { o.started++ }
func (o *countingObserver) CommandFinished(command.Command) { o.finished++ }
