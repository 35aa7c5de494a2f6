// Copyright © 2025 The agnix authors

package lint

import (
	"github.com/avifenesh/agnix/filetype"
)

// Validator is a single rule family. Implementations receive the file
// content directly and must not read the file under analysis themselves;
// sibling files (mode registries, skill directories) are read through
// cfg.Filesystem() so validators stay testable.
type Validator interface {
	// Name identifies the family for disabled_validators config.
	Name() string

	// RuleIDs lists every rule id the family may emit. Families should
	// short-circuit when all their ids are disabled.
	RuleIDs() []string

	// Validate checks one file and returns its diagnostics. Diagnostics
	// from multiple families for the same file are concatenated without
	// de-duplication; rule ids disambiguate.
	Validate(path string, content string, cfg *Config) []Diagnostic
}

// Registry maps file types to the ordered validator families that run on
// them. It is built once and shared read-only across workers.
type Registry struct {
	byType map[filetype.Type][]Validator
	count  int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[filetype.Type][]Validator)}
}

// Register appends a validator for the given file types. Registration
// order is dispatch order.
func (r *Registry) Register(v Validator, types ...filetype.Type) {
	for _, t := range types {
		r.byType[t] = append(r.byType[t], v)
	}
	r.count++
}

// ValidatorCount returns the number of registered families.
func (r *Registry) ValidatorCount() int { return r.count }

// ValidatorsFor returns the families registered for a file type.
func (r *Registry) ValidatorsFor(t filetype.Type) []Validator {
	return r.byType[t]
}

// Dispatch runs every enabled validator registered for the file type and
// concatenates their diagnostics. A family is skipped when disabled by
// name or when every one of its rule ids resolves to disabled.
func (r *Registry) Dispatch(t filetype.Type, path, content string, cfg *Config) []Diagnostic {
	var diags []Diagnostic
	for _, v := range r.byType[t] {
		if cfg.IsValidatorDisabled(v.Name()) {
			continue
		}
		if !anyRuleEnabled(v, cfg) {
			continue
		}
		diags = append(diags, v.Validate(path, content, cfg)...)
	}
	return diags
}

func anyRuleEnabled(v Validator, cfg *Config) bool {
	ids := v.RuleIDs()
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if cfg.IsRuleEnabled(id) {
			return true
		}
	}
	return false
}
