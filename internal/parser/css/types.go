package css

// Position is a zero-based row and byte column in a stylesheet
type Position struct {
	Line   uint
	Column uint
}

// Declaration is a custom property declared in a rule (--name: value)
type Declaration struct {
	Name     string
	Value    string
	Position Position
}

// Reference is a var() call
type Reference struct {
	Name     string
	Fallback *string
	Position Position
}

// Rule is a qualified rule and the selector text that heads it
type Rule struct {
	Selectors string
	Position  Position
}

// Sheet is the inventory of a parsed stylesheet
type Sheet struct {
	Rules        []Rule
	Declarations []Declaration
	References   []Reference
}

// ReferencedNames lists referenced custom property names in source order,
// without repeats
func (s *Sheet) ReferencedNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range s.References {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names
}
