package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// builtinRules returns one Rule per supported language. Each query set
// is grounded on standardbeagle/lci's per-language setup<Lang>
// functions (internal/parser/parser_language_setup.go), split into the
// three named captures spec §4.1 requires instead of one combined
// query, and extended with a ref_grammar the teacher never needed for
// its own (definition-oriented) symbol search use case.
func builtinRules() []*Rule {
	return []*Rule{
		goRule(),
		rustRule(),
		pythonRule(),
		javascriptRule(),
		typescriptRule(),
		javaRule(),
	}
}

func goRule() *Rule {
	lang := sitter.NewLanguage(tree_sitter_go.Language())
	return &Rule{
		Language:   "go",
		Extensions: []string{".go"},
		grammar:    lang,
		importGrammar: `
			(import_spec path: (interpreted_string_literal) @import.name) @import
		`,
		defGrammar: `
			(function_declaration name: (identifier) @def.name) @def
			(method_declaration name: (field_identifier) @def.name) @def
			(type_spec name: (type_identifier) @def.name) @def
		`,
		refGrammar: `
			(call_expression function: (identifier) @ref.name)
			(call_expression function: (selector_expression field: (field_identifier) @ref.qualified.name))
			(selector_expression field: (field_identifier) @ref.qualified.name)
		`,
	}
}

func rustRule() *Rule {
	lang := sitter.NewLanguage(tree_sitter_rust.Language())
	return &Rule{
		Language:   "rust",
		Extensions: []string{".rs"},
		grammar:    lang,
		importGrammar: `
			(use_declaration argument: (scoped_identifier name: (identifier) @import.name))
			(use_declaration argument: (identifier) @import.name)
			(use_declaration argument: (use_list (identifier) @import.name))
		`,
		defGrammar: `
			(function_item name: (identifier) @def.name) @def
			(struct_item name: (type_identifier) @def.name) @def
			(enum_item name: (type_identifier) @def.name) @def
			(trait_item name: (type_identifier) @def.name) @def
		`,
		refGrammar: `
			(call_expression function: (identifier) @ref.name)
			(call_expression function: (field_expression field: (field_identifier) @ref.qualified.name))
			(call_expression function: (scoped_identifier name: (identifier) @ref.qualified.name))
		`,
	}
}

func pythonRule() *Rule {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return &Rule{
		Language:   "python",
		Extensions: []string{".py"},
		grammar:    lang,
		importGrammar: `
			(import_statement name: (dotted_name (identifier) @import.name))
			(import_from_statement
				module_name: (dotted_name (identifier) @import.name))
			(import_from_statement
				name: (dotted_name (identifier) @import.name))
		`,
		defGrammar: `
			(function_definition name: (identifier) @def.name) @def
			(class_definition name: (identifier) @def.name) @def
		`,
		refGrammar: `
			(call function: (identifier) @ref.name)
			(call function: (attribute attribute: (identifier) @ref.qualified.name))
		`,
	}
}

func javascriptRule() *Rule {
	lang := sitter.NewLanguage(tree_sitter_javascript.Language())
	return &Rule{
		Language:   "javascript",
		Extensions: []string{".js", ".jsx"},
		grammar:    lang,
		importGrammar: `
			(import_specifier name: (identifier) @import.name)
			(namespace_import (identifier) @import.name)
		`,
		defGrammar: `
			(function_declaration name: (identifier) @def.name) @def
			(class_declaration name: (identifier) @def.name) @def
			(method_definition name: (property_identifier) @def.name) @def
			(variable_declarator
				name: (identifier) @def.name
				value: [(arrow_function) (function_expression)]) @def
		`,
		refGrammar: `
			(call_expression function: (identifier) @ref.name)
			(call_expression function: (member_expression property: (property_identifier) @ref.qualified.name))
		`,
	}
}

func typescriptRule() *Rule {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	return &Rule{
		Language:   "typescript",
		Extensions: []string{".ts", ".tsx"},
		grammar:    lang,
		importGrammar: `
			(import_specifier name: (identifier) @import.name)
			(namespace_import (identifier) @import.name)
		`,
		defGrammar: `
			(function_declaration name: (identifier) @def.name) @def
			(class_declaration name: (type_identifier) @def.name) @def
			(interface_declaration name: (type_identifier) @def.name) @def
			(method_definition name: (property_identifier) @def.name) @def
			(type_alias_declaration name: (type_identifier) @def.name) @def
		`,
		refGrammar: `
			(call_expression function: (identifier) @ref.name)
			(call_expression function: (member_expression property: (property_identifier) @ref.qualified.name))
		`,
	}
}

func javaRule() *Rule {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	return &Rule{
		Language:   "java",
		Extensions: []string{".java"},
		grammar:    lang,
		importGrammar: `
			(import_declaration (scoped_identifier name: (identifier) @import.name))
		`,
		defGrammar: `
			(method_declaration name: (identifier) @def.name) @def
			(class_declaration name: (identifier) @def.name) @def
			(interface_declaration name: (identifier) @def.name) @def
			(enum_declaration name: (identifier) @def.name) @def
		`,
		refGrammar: `
			(method_invocation object: (_) name: (identifier) @ref.qualified.name)
			(method_invocation name: (identifier) @ref.name)
			(object_creation_expression type: (type_identifier) @ref.qualified.name)
		`,
	}
}
