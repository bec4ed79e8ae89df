package outline

// Per-language dispatch tables keyed by grammar node kind. Languages sharing
// an AST family (typescript/tsx extend javascript) are normalized first.

var javascriptKinds = map[string]Kind{
	"function_declaration":           KindFunction,
	"generator_function_declaration": KindFunction,
	"class_declaration":              KindClass,
	"method_definition":              KindMethod,
}

var typescriptKinds = func() map[string]Kind {
	m := map[string]Kind{
		"interface_declaration":      KindInterface,
		"type_alias_declaration":     KindType,
		"enum_declaration":           KindEnum,
		"internal_module":            KindNamespace,
		"module":                     KindNamespace,
		"abstract_class_declaration": KindClass,
		"function_signature":         KindFunction,
		"abstract_method_signature":  KindMethod,
	}
	for k, v := range javascriptKinds {
		m[k] = v
	}
	return m
}()

var pythonKinds = map[string]Kind{
	"function_definition": KindFunction, // refined to method inside a class body
	"class_definition":    KindClass,
}

var goKinds = map[string]Kind{
	"function_declaration": KindFunction,
	"method_declaration":   KindMethod,
	// type_declaration is handled structurally: each type_spec may be a
	// type or an interface.
}

var javaKinds = map[string]Kind{
	"class_declaration":           KindClass,
	"interface_declaration":       KindInterface,
	"enum_declaration":            KindEnum,
	"record_declaration":          KindClass,
	"annotation_type_declaration": KindInterface,
	"method_declaration":          KindMethod,
	"constructor_declaration":     KindMethod,
}

var rustKinds = map[string]Kind{
	"function_item": KindFunction,
	"struct_item":   KindType,
	"enum_item":     KindEnum,
	"trait_item":    KindInterface,
	"impl_item":     KindClass,
	"mod_item":      KindNamespace,
	"type_item":     KindType,
}

var declKindTables = map[string]map[string]Kind{
	"javascript": javascriptKinds,
	"typescript": typescriptKinds,
	"python":     pythonKinds,
	"go":         goKinds,
	"java":       javaKinds,
	"rust":       rustKinds,
}

// functionValueKinds maps initializer node kinds to the outline style emitted
// for function-valued variable bindings. Plain data bindings never appear in
// an outline.
var functionValueKinds = map[string]string{
	"arrow_function":      "arrow",
	"function_expression": "default",
	"function":            "default",
	"generator_function":  "default",
	"func_literal":        "default",
	"lambda":              "default",
}

// Family normalizes grammar dialects onto the table that describes their AST.
func Family(language string) string {
	switch language {
	case "tsx":
		return "typescript"
	default:
		return language
	}
}

// TableFor returns the node-kind dispatch table for a language, or nil when
// the language has no AST support.
func TableFor(language string) map[string]Kind {
	return declKindTables[Family(language)]
}
