package translate

import (
	"fmt"
	"strings"
)

// Summary is the rendered form of a Plan, used for CLI output and golden
// files. Expressions are rendered with their String methods.
type Summary struct {
	ID         string   `json:"id"`
	Root       string   `json:"root"`
	Filter     string   `json:"filter,omitempty"`
	Order      []string `json:"order,omitempty"`
	Skip       *int     `json:"skip,omitempty"`
	Top        *int     `json:"top,omitempty"`
	Query      string   `json:"query,omitempty"`
	Count      string   `json:"count"`
	Pipeline   string   `json:"pipeline,omitempty"`
	Expansions []string `json:"expansions,omitempty"`
	Selectors  []string `json:"selectors"`
	Includes   []string `json:"includes,omitempty"`
}

// Summary renders the plan.
func (p *Plan) Summary() (Summary, error) {
	s := Summary{
		ID:   p.ID,
		Root: p.Root.Name(),
		Skip: p.Page.Skip,
		Top:  p.Page.Take,
	}
	if p.Filter != nil {
		s.Filter = p.Filter.String()
	}
	for _, step := range p.Steps {
		s.Order = append(s.Order, step.String())
	}
	if p.Query != nil {
		s.Query = p.Query.String()
	}
	if p.Count != nil {
		s.Count = p.Count.String()
	}

	pipeline, err := p.Pipeline()
	if err != nil {
		return Summary{}, err
	}
	if pipeline != nil {
		s.Pipeline = pipeline.String()
	}

	for _, path := range p.Forest {
		s.Expansions = append(s.Expansions, path.String())
	}
	s.Selectors = make([]string, len(p.Selectors))
	for i, sel := range p.Selectors {
		s.Selectors[i] = sel.String()
	}
	s.Includes = p.Includes
	return s, nil
}

// String renders the summary as "key: value" lines, with list values
// indented below their key. Empty fields are omitted.
func (s Summary) String() string {
	var b strings.Builder
	line := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}
	list := func(key string, values []string) {
		if len(values) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", key)
		for _, v := range values {
			fmt.Fprintf(&b, "  %s\n", v)
		}
	}
	bound := func(key string, n *int) {
		if n != nil {
			fmt.Fprintf(&b, "%s: %d\n", key, *n)
		}
	}

	line("id", s.ID)
	line("root", s.Root)
	line("filter", s.Filter)
	line("order", strings.Join(s.Order, ", "))
	bound("skip", s.Skip)
	bound("top", s.Top)
	line("query", s.Query)
	line("count", s.Count)
	line("pipeline", s.Pipeline)
	list("expansions", s.Expansions)
	list("selectors", s.Selectors)
	list("includes", s.Includes)
	return b.String()
}
