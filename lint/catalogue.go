// Copyright © 2025 The agnix authors

package lint

import (
	_ "embed"
	"encoding/json"
	"sort"
	"sync"
)

//go:embed rules.json
var rulesJSON []byte

// RuleMetadata describes a catalogue entry for one rule id. It is
// materialised onto diagnostics at construction time so that consumers
// (renderers, the LSP, the fix engine) never need the catalogue themselves.
type RuleMetadata struct {
	// Category groups rules for enable/disable flags (e.g. "hooks").
	Category string `json:"category"`

	// Tier is the triage severity: HIGH, MEDIUM, or LOW.
	Tier string `json:"tier"`

	// Tool names the tool the rule applies to ("claude-code", "cursor",
	// "codex", ...) or "generic" for tool-agnostic rules.
	Tool string `json:"tool"`

	// Description is a one-line summary of what the rule checks.
	Description string `json:"description"`
}

type catalogueEntry struct {
	ID string `json:"id"`
	RuleMetadata
}

var (
	catalogueOnce sync.Once
	catalogue     map[string]*RuleMetadata
)

func loadCatalogue() {
	var entries []catalogueEntry
	if err := json.Unmarshal(rulesJSON, &entries); err != nil {
		// The catalogue is embedded at build time; a parse failure is a
		// packaging bug, not a runtime condition.
		panic("lint: embedded rules.json is invalid: " + err.Error())
	}
	catalogue = make(map[string]*RuleMetadata, len(entries))
	for i := range entries {
		md := entries[i].RuleMetadata
		catalogue[entries[i].ID] = &md
	}
}

// LookupRule returns the catalogue metadata for a rule id, or nil when the
// id is unknown. Unknown ids are tolerated for forward compatibility.
func LookupRule(id string) *RuleMetadata {
	catalogueOnce.Do(loadCatalogue)
	return catalogue[id]
}

// RuleIDs returns all catalogue rule ids in sorted order.
func RuleIDs() []string {
	catalogueOnce.Do(loadCatalogue)
	ids := make([]string, 0, len(catalogue))
	for id := range catalogue {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
