package compiler

import "strings"

var propertyPrefixes = map[string][]string{
	"flex":             {"-webkit-", "-ms-"},
	"flex-direction":   {"-webkit-", "-ms-"},
	"flex-wrap":        {"-webkit-", "-ms-"},
	"flex-flow":        {"-webkit-", "-ms-"},
	"flex-grow":        {"-webkit-"},
	"flex-shrink":      {"-webkit-"},
	"flex-basis":       {"-webkit-"},
	"align-items":      {"-webkit-"},
	"align-self":       {"-webkit-"},
	"align-content":    {"-webkit-"},
	"justify-content":  {"-webkit-"},
	"user-select":      {"-webkit-", "-moz-", "-ms-"},
	"appearance":       {"-webkit-", "-moz-"},
	"transform":        {"-webkit-", "-ms-"},
	"transition":       {"-webkit-"},
	"backdrop-filter":  {"-webkit-"},
	"mask":             {"-webkit-"},
	"hyphens":          {"-webkit-", "-ms-"},
	"text-size-adjust": {"-webkit-", "-ms-"},
}

var displayPrefixes = map[string][]string{
	"flex":        {"-webkit-box", "-webkit-flex", "-ms-flexbox"},
	"inline-flex": {"-webkit-inline-box", "-webkit-inline-flex", "-ms-inline-flexbox"},
}

// expand returns decl preceded by its vendor-prefixed forms when prefixing
// is enabled
func (c *Compiler) expand(decl string) []string {
	if !c.opts.Prefix {
		return []string{decl}
	}
	prop, value, ok := strings.Cut(decl, ":")
	if !ok {
		return []string{decl}
	}
	name := strings.ToLower(prop)

	var out []string
	if name == "display" {
		for _, v := range displayPrefixes[strings.ToLower(value)] {
			out = append(out, prop+":"+v)
		}
	}
	for _, p := range propertyPrefixes[name] {
		out = append(out, p+prop+":"+value)
	}
	return append(out, decl)
}
