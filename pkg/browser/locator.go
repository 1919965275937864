package browser

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Strategy identifies how a Locator's expression is interpreted.
type Strategy string

const (
	// StrategyCSS resolves a CSS selector (default).
	StrategyCSS Strategy = "css"

	// StrategyXPath resolves an XPath expression.
	StrategyXPath Strategy = "xpath"

	// StrategyText resolves by visible text.
	StrategyText Strategy = "text"
)

// Locator is an opaque description of how to find a DOM node. It is owned by
// the caller and never mutated by the runtime.
type Locator struct {
	Strategy   Strategy
	Expression string
	// Name is a human-readable label used in failure messages.
	Name string
}

// CSS returns a CSS selector locator.
func CSS(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Expression: selector}
}

// XPath returns an XPath locator.
func XPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Expression: expr}
}

// Text returns a locator matching visible text.
func Text(text string) Locator {
	return Locator{Strategy: StrategyText, Expression: text}
}

// Named returns a copy of l labelled for diagnostics.
func (l Locator) Named(name string) Locator {
	l.Name = name
	return l
}

// Format substitutes args into the expression, for templated locators such as
// a lookup result row keyed by its text.
func (l Locator) Format(args ...any) Locator {
	l.Expression = fmt.Sprintf(l.Expression, args...)
	return l
}

// Validate rejects locators that can never resolve.
func (l Locator) Validate() error {
	if strings.TrimSpace(l.Expression) == "" {
		return fmt.Errorf("locator %q has an empty expression", l.Name)
	}
	switch l.Strategy {
	case "", StrategyCSS, StrategyXPath, StrategyText:
		return nil
	default:
		return fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
}

func (l Locator) String() string {
	strategy := l.Strategy
	if strategy == "" {
		strategy = StrategyCSS
	}
	if l.Name != "" {
		return fmt.Sprintf("%s (%s=%s)", l.Name, strategy, l.Expression)
	}
	return fmt.Sprintf("%s=%s", strategy, l.Expression)
}

// URLPattern matches page URLs with glob patterns, e.g.
// "https://*.crm.dynamics.com/main.aspx*".
type URLPattern struct {
	raw string
	g   glob.Glob
}

// CompileURLPattern compiles a glob pattern. '*' matches any run of
// characters, including '/'.
func CompileURLPattern(pattern string) (URLPattern, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return URLPattern{}, fmt.Errorf("invalid url pattern '%s': %w", pattern, err)
	}
	return URLPattern{raw: pattern, g: g}, nil
}

// Match reports whether url matches the pattern.
func (p URLPattern) Match(url string) bool {
	if p.g == nil {
		return false
	}
	return p.g.Match(url)
}

func (p URLPattern) String() string {
	return p.raw
}
