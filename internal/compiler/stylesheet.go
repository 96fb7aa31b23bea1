package compiler

import (
	"fmt"
	"strings"
)

// Input is one style key to scope
type Input struct {
	Key      string
	Selector string
	CSS      string
}

// Rule is the scoped output for one key
type Rule struct {
	Key      string `json:"key"`
	Selector string `json:"selector"`
	CSS      string `json:"css"`
}

// Stylesheet collects the rules of one file in input order
type Stylesheet struct {
	Rules []Rule `json:"rules"`
}

// String joins the rules with newlines
func (s *Stylesheet) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		parts = append(parts, r.CSS)
	}
	return strings.Join(parts, "\n")
}

// Compile scopes every input with p. Inputs producing no CSS are skipped.
func Compile(p Processor, inputs []Input) (*Stylesheet, error) {
	sheet := &Stylesheet{Rules: make([]Rule, 0, len(inputs))}
	for _, in := range inputs {
		out, err := p.Scope(in.Selector, in.CSS)
		if err != nil {
			return nil, fmt.Errorf("failed to scope %q: %w", in.Key, err)
		}
		if out == "" {
			continue
		}
		sheet.Rules = append(sheet.Rules, Rule{Key: in.Key, Selector: in.Selector, CSS: out})
	}
	return sheet, nil
}
