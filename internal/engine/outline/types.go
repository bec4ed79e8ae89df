package outline

// Kind identifies what a declaration is, independent of language.
type Kind string

const (
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindMethod    Kind = "method"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindEnum      Kind = "enum"
	KindNamespace Kind = "namespace"
	KindVariable  Kind = "variable"
	KindConstant  Kind = "constant"
)

// Entry is one declaration in a source file's outline.
type Entry struct {
	Kind      Kind   `json:"kind"`
	Name      string `json:"name"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Signature string `json:"signature"`
	Style     string `json:"style,omitempty"`
	Exported  bool   `json:"exported,omitempty"`
	Depth     int    `json:"depth"`
}

// Compatible reports whether a declaration of got satisfies a request for
// want. The relation is intentionally looser than equality: function requests
// also match methods, and type requests also match interfaces. An empty want
// matches everything.
func Compatible(want, got Kind) bool {
	if want == "" || want == got {
		return true
	}
	switch want {
	case KindFunction:
		return got == KindMethod
	case KindType:
		return got == KindInterface
	}
	return false
}

// signatureLimit caps one-line signatures.
const signatureLimit = 120
