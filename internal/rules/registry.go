// Package rules holds the per-language tree-sitter queries and the
// file-extension-to-language mapping described in spec §4.1. Adding a
// language costs one Rule entry, not an extractor subclass: all
// language-specific behavior lives in query strings, and a single
// extractor engine (internal/extractor) drives every rule.
package rules

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Rule describes one language: its tree-sitter grammar, the file
// extensions it claims, and the three named queries that tag
// identifier sites as imports, definitions, or references.
//
// The queries MUST NOT capture imports or definitions from string
// literals, comments, or punctuation, and SHOULD treat built-in
// identifiers as REF only when they unambiguously denote user symbols.
// Rules bias toward precision over recall.
type Rule struct {
	Language   string
	Extensions []string

	grammar *sitter.Language

	importGrammar string
	defGrammar    string
	refGrammar    string

	once           sync.Once
	importQuery    *sitter.Query
	defQuery       *sitter.Query
	refQuery       *sitter.Query
	compileErr     error
}

// Grammar returns the tree-sitter language handle for this rule.
func (r *Rule) Grammar() *sitter.Language {
	return r.grammar
}

// compile lazily builds the three queries the first time they're
// needed, matching the registry's lazy, process-wide initialization
// (spec §9 "Global state").
func (r *Rule) compile() error {
	r.once.Do(func() {
		var err error
		if r.importQuery, err = sitter.NewQuery(r.grammar, r.importGrammar); err != nil {
			r.compileErr = err
			return
		}
		if r.defQuery, err = sitter.NewQuery(r.grammar, r.defGrammar); err != nil {
			r.compileErr = err
			return
		}
		if r.refQuery, err = sitter.NewQuery(r.grammar, r.refGrammar); err != nil {
			r.compileErr = err
			return
		}
	})
	return r.compileErr
}

// Queries returns the compiled import, def, and ref queries for this
// rule, compiling them on first use.
func (r *Rule) Queries() (importQ, defQ, refQ *sitter.Query, err error) {
	if err := r.compile(); err != nil {
		return nil, nil, nil, err
	}
	return r.importQuery, r.defQuery, r.refQuery, nil
}

// Registry maps file extensions to rules. It is safe for concurrent
// read access once built; Registry itself never mutates after New.
type Registry struct {
	byExt map[string]*Rule
	exts  map[string]struct{}
}

// New builds the registry with every built-in rule registered.
func New() *Registry {
	reg := &Registry{
		byExt: make(map[string]*Rule),
		exts:  make(map[string]struct{}),
	}
	for _, rule := range builtinRules() {
		reg.register(rule)
	}
	return reg
}

func (reg *Registry) register(rule *Rule) {
	for _, ext := range rule.Extensions {
		reg.byExt[ext] = rule
		reg.exts[ext] = struct{}{}
	}
}

// RuleForExtension returns the rule registered for ext (e.g. ".go"),
// and whether one exists.
func (reg *Registry) RuleForExtension(ext string) (*Rule, bool) {
	r, ok := reg.byExt[ext]
	return r, ok
}

// AllExtensions returns the set of extensions with a registered rule.
func (reg *Registry) AllExtensions() map[string]struct{} {
	out := make(map[string]struct{}, len(reg.exts))
	for k := range reg.exts {
		out[k] = struct{}{}
	}
	return out
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Default returns the process-wide registry, built once. Exposed as
// an injectable value (New) for tests that want an isolated instance.
func Default() *Registry {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}
