package pwdriver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/config"
	"github.com/entrhq/uirunner/pkg/element"
	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"timeout", fmt.Errorf("%w: Timeout 2000ms exceeded", playwright.ErrTimeout), failure.ErrNotInteractable},
		{"target closed", fmt.Errorf("%w: page closed", playwright.ErrTargetClosed), failure.ErrSessionClosed},
		{"detached", errors.New("Element is not attached to the DOM"), failure.ErrStaleElement},
		{"navigation", errors.New("Execution context was destroyed, most likely because of a navigation"), failure.ErrStaleElement},
		{"not visible", errors.New("element is not visible"), failure.ErrNotInteractable},
		{"covered", errors.New("<div class=\"overlay\"> intercepts pointer events"), failure.ErrNotInteractable},
		{"bad selector", errors.New("Unexpected token \"]\" while parsing selector"), failure.ErrInvalidLocator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("click #save", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err, "native error stays in the chain")
			assert.Contains(t, err.Error(), "click #save")
		})
	}
}

func TestClassify_NotReadyClasses(t *testing.T) {
	assert.NoError(t, classify("click", nil))

	stale := classify("click", errors.New("JSHandle is disposed"))
	assert.True(t, failure.IsNotReady(stale))

	closed := classify("click", playwright.ErrTargetClosed)
	assert.False(t, failure.IsNotReady(closed))

	other := classify("click", errors.New("protocol error"))
	assert.False(t, failure.IsNotReady(other))
	assert.EqualError(t, other, "click: protocol error")
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "css=#save", selector(browser.CSS("#save")))
	assert.Equal(t, "xpath=//button[@id='save']", selector(browser.XPath("//button[@id='save']")))
	assert.Equal(t, `text="Save & Close"`, selector(browser.Text("Save & Close")))
	assert.Equal(t, "css=div", selector(browser.Locator{Expression: "div"}))
}

func TestOptions(t *testing.T) {
	b := config.DefaultBrowser()
	b.Engine = EngineFirefox
	b.SlowMo = 50 * time.Millisecond
	timing := config.DefaultTiming()

	opts := OptionsFrom(b, timing)
	assert.Equal(t, EngineFirefox, opts.Engine)
	assert.Equal(t, Viewport{Width: 1366, Height: 768}, opts.Viewport)
	assert.Equal(t, timing.ShortTimeout, opts.ActionTimeout)
	assert.Equal(t, timing.NavigationTimeout, opts.NavigationTimeout)

	filled, err := Options{}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, EngineChromium, filled.Engine)
	assert.Equal(t, DefaultActionTimeout, filled.ActionTimeout)
	assert.Equal(t, Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}, filled.Viewport)

	_, err = Options{Engine: "netscape"}.withDefaults()
	assert.Error(t, err)

	assert.Equal(t, 1500.0, ms(1500*time.Millisecond))
}

func TestLaunch_NotInitialized(t *testing.T) {
	l := NewLauncher(nil)
	_, err := l.Launch(Options{})
	assert.ErrorContains(t, err, "not initialized")
	assert.NoError(t, l.Shutdown())
}

const testPage = `<!doctype html>
<html><body>
<input id="name" value="">
<button id="save" disabled>Save</button>
<div id="late"></div>
<script>
setTimeout(() => {
	document.getElementById('late').innerHTML = '<span class="ready">Loaded</span>';
	document.getElementById('save').disabled = false;
}, 300);
</script>
</body></html>`

func TestPlaywrightIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping playwright integration test in short mode")
	}
	if os.Getenv("UIRUNNER_PLAYWRIGHT") != "1" {
		t.Skip("set UIRUNNER_PLAYWRIGHT=1 to run against a real browser")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	l := NewLauncher(nil)
	require.NoError(t, l.Initialize(EngineChromium, true))
	defer l.Shutdown()

	d, err := l.Launch(Options{Headless: true})
	require.NoError(t, err)
	require.NoError(t, d.Navigate(srv.URL))

	w := element.NewWaiter(d, element.WithInterval(50*time.Millisecond))

	ready, err := w.WaitVisible(browser.CSS("#late .ready"), 5*time.Second)
	require.NoError(t, err)
	text, err := ready.Text()
	require.NoError(t, err)
	assert.Equal(t, "Loaded", text)

	save, err := w.WaitClickable(browser.CSS("#save"), 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, save.Click())

	name, err := w.WaitClickable(browser.CSS("#name"), time.Second)
	require.NoError(t, err)
	require.NoError(t, name.Clear())
	require.NoError(t, name.SendKeys("Contoso"))
	value, err := name.Value()
	require.NoError(t, err)
	assert.Equal(t, "Contoso", value)

	_, ok, err := w.TryFind(browser.CSS("#missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Close())
	_, err = d.FindElements(browser.CSS("#name"))
	assert.ErrorIs(t, err, failure.ErrSessionClosed)
}
