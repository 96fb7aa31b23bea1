package js

// Span is a half-open byte range [Start, End) in the parsed source
type Span struct {
	Start uint
	End   uint
}

// Specifier is one named binding of an import statement
type Specifier struct {
	// Imported is the exported name in the source module
	Imported string
	// Local is the binding name in this module (differs from Imported when aliased)
	Local string
	// Text is the raw specifier text, e.g. "createStyles as cs"
	Text string
}

// Import is an import statement or a re-export with a module source
type Import struct {
	// Source is the module specifier with quotes removed
	Source string
	// SourceSpan covers the string literal including its quotes
	SourceSpan Span
	// Statement covers the whole statement
	Statement Span
	// Default is the default binding name, if any
	Default string
	// Namespace is the raw namespace clause, e.g. "* as ns"
	Namespace string
	// Specifiers are the named bindings in source order
	Specifiers []Specifier
	// Export is true for export ... from statements
	Export bool
}

// Slot is one ${...} substitution of a template literal
type Slot struct {
	// Expression is the source text between ${ and }
	Expression string
	// Span covers the substitution including ${ and }
	Span Span
}

// Template is a css-tagged template literal bound to a style key.
// len(Segments) == len(Slots)+1 always holds.
type Template struct {
	Key      string
	Segments []string
	Slots    []Slot
	Span     Span
}

// Definition is one call of the style construct
type Definition struct {
	// Index is the zero-based position of the call in source order
	Index int
	// Call covers the whole call expression
	Call Span
	// ArgumentsStart is the offset just past the opening parenthesis
	ArgumentsStart uint
	// Templates are the css-tagged properties of the style object in key order
	Templates []Template
}

// Module is the structural view of a source file needed for extraction
type Module struct {
	Imports []Import
	// Construct is the import that brings the style construct into scope, nil when absent
	Construct *Import
	// ConstructLocal is the local name of the style construct
	ConstructLocal string
	Definitions    []Definition
}
