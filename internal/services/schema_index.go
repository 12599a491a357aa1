package services

import (
	"fmt"

	domain "github.com/wreath-atelier/api/internal/domain"
)

// schemaIndex precomputes per-schema lookup structures so visibility resolution and
// reconciliation never rescan the option slice. The dependency relation is held as
// directed edges (dependent -> parent), which makes cycle detection a single graph
// traversal instead of a per-call heuristic.
type schemaIndex struct {
	schema  domain.OptionSchema
	options map[string]domain.CustomizationOption
	// dependents maps a parent option ID to the IDs of options gated on it.
	dependents map[string][]string
	// blocked holds options that fail closed: their dependency target is missing
	// from the schema or they participate in a dependency cycle.
	blocked map[string]domain.SchemaDiagnostic
}

func newSchemaIndex(schema domain.OptionSchema) *schemaIndex {
	idx := &schemaIndex{
		schema:     schema,
		options:    make(map[string]domain.CustomizationOption, len(schema.Options)),
		dependents: make(map[string][]string),
		blocked:    make(map[string]domain.SchemaDiagnostic),
	}
	for _, opt := range schema.Options {
		idx.options[opt.ID] = opt
	}
	for _, opt := range schema.Options {
		if opt.DependsOn == nil {
			continue
		}
		parentID := opt.DependsOn.OptionID
		if _, ok := idx.options[parentID]; !ok {
			idx.blocked[opt.ID] = domain.SchemaDiagnostic{
				Code:     domain.IssueDependencyNotFound,
				OptionID: opt.ID,
				Detail:   fmt.Sprintf("dependency target %q does not exist", parentID),
			}
			continue
		}
		idx.dependents[parentID] = append(idx.dependents[parentID], opt.ID)
	}
	idx.markCycles()
	return idx
}

// markCycles runs a colored depth-first traversal over the dependency edges and
// fails every member of a cycle closed. Only the gray path back to the node that
// closed the cycle is marked; an option that merely depends on a cycle member is
// not a participant (it still fails closed through visibility).
func (idx *schemaIndex) markCycles() {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(idx.options))

	// visit returns the ID of the gray node that closed a cycle, or "" when the
	// subtree below id is acyclic. The marker propagates up the call stack until
	// the unwinding reaches that node again.
	var visit func(id string) string
	visit = func(id string) string {
		switch color[id] {
		case gray:
			return id
		case black:
			return ""
		}
		color[id] = gray
		defer func() { color[id] = black }()

		opt := idx.options[id]
		if opt.DependsOn == nil {
			return ""
		}
		if _, exists := idx.options[opt.DependsOn.OptionID]; !exists {
			return ""
		}
		entry := visit(opt.DependsOn.OptionID)
		if entry == "" {
			return ""
		}
		if _, already := idx.blocked[id]; !already {
			idx.blocked[id] = domain.SchemaDiagnostic{
				Code:     domain.IssueDependencyCycle,
				OptionID: id,
				Detail:   fmt.Sprintf("option %q participates in a dependency cycle", id),
			}
		}
		if entry == id {
			return ""
		}
		return entry
	}

	for _, opt := range idx.schema.Options {
		if color[opt.ID] == white {
			visit(opt.ID)
		}
	}
}

// visible reports whether the option is currently visible under the given selections.
// Visibility is transitive: an option whose parent is itself hidden stays hidden even
// if a stale parent selection is still present in the set.
func (idx *schemaIndex) visible(optionID string, selections domain.SelectionSet) bool {
	return idx.visibleBounded(optionID, selections, len(idx.options)+1)
}

func (idx *schemaIndex) visibleBounded(optionID string, selections domain.SelectionSet, budget int) bool {
	if budget <= 0 {
		return false
	}
	opt, ok := idx.options[optionID]
	if !ok {
		return false
	}
	if _, failed := idx.blocked[optionID]; failed {
		return false
	}
	dep := opt.DependsOn
	if dep == nil {
		return true
	}
	if !idx.visibleBounded(dep.OptionID, selections, budget-1) {
		return false
	}
	return dependencySatisfied(dep, selections)
}

// diagnostics returns the schema integrity findings in declaration order.
func (idx *schemaIndex) diagnostics() []domain.SchemaDiagnostic {
	if len(idx.blocked) == 0 {
		return nil
	}
	out := make([]domain.SchemaDiagnostic, 0, len(idx.blocked))
	for _, opt := range idx.schema.Options {
		if diag, ok := idx.blocked[opt.ID]; ok {
			out = append(out, diag)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// AnalyzeSchema inspects a product option schema for integrity problems: dependency
// targets missing from the schema and dependency cycles. Malformed options never
// become selectable but the product remains browsable.
func AnalyzeSchema(schema domain.OptionSchema) []domain.SchemaDiagnostic {
	return newSchemaIndex(schema).diagnostics()
}
