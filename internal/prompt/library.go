package prompt

import (
	"fmt"
	"sort"
)

// Template names
const (
	Summary = "summary"
	Chart   = "chart"
	Trend   = "trend"
	Risk    = "risk"
)

var builtin = map[string]string{
	Summary: `You are a skilled financial analyst. Based on the following quarterly financial data:

{{.data}}

Write a three-point executive summary for an investor. Focus on: 1. Revenue growth trends 2. Profitability 3. Operating Cash Flow Position`,

	Chart: `You are a data visualisation assistant. Based on the following quarterly revenue data:

{{.data}}

Describe a chart of revenue over time as a single JSON object with the keys "kind" ("line" or "bar"), "title", "x", "y", "x_label" and "y_label". Use the column "date" for "x" and the column "revenue" for "y". Return only the JSON object, without explanations.`,

	Trend: `Act as a financial analyst. Based on the following quarterly data: {{.data}} Analyze the main trends emerging from the data. Focus on the movement of revenue, net income, and operating cash flow. Provide the analysis in 3 concise points.`,

	Risk: `Act as a skeptical financial risk analyst. Carefully examine the following financial data: {{.data}} Identify 2-3 potential risks or "red flags" that should be a cause for concern. For each point, provide a brief, one-sentence explanation.`,
}

// Library holds the named templates used by the insight panels
type Library struct {
	templates map[string]string
}

// NewLibrary returns the built-in templates with overrides applied. Every
// template is checked, so a bad override fails at startup rather than on the
// first run.
func NewLibrary(overrides map[string]string) (*Library, error) {
	l := &Library{templates: make(map[string]string, len(builtin))}
	for name, text := range builtin {
		l.templates[name] = text
	}
	for name, text := range overrides {
		if _, ok := builtin[name]; !ok {
			return nil, fmt.Errorf("unknown prompt '%s' (known: %v)", name, Names())
		}
		l.templates[name] = text
	}
	for name, text := range l.templates {
		if _, err := Check(name, text); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Get returns the template text for name
func (l *Library) Get(name string) (string, error) {
	text, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt '%s'", name)
	}
	return text, nil
}

// MustGet is like Get but panics on an unknown name
func (l *Library) MustGet(name string) string {
	text, err := l.Get(name)
	if err != nil {
		panic(err)
	}
	return text
}

// Names lists the built-in template names
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
