package services

import (
	"fmt"

	domain "github.com/wreath-atelier/api/internal/domain"
)

// VisibleOptions computes which options are currently visible given the in-progress
// selections. Declaration order is preserved; the result is recomputed on every call
// and never cached across mutations.
//
// Options whose dependency target is missing from the schema, or which participate in
// a dependency cycle, fail closed: they are omitted from the result and reported as
// warning issues so the UI stays functional on malformed product data.
func VisibleOptions(schema domain.OptionSchema, selections domain.SelectionSet) ([]domain.CustomizationOption, []domain.ValidationIssue) {
	idx := newSchemaIndex(schema)
	return visibleOptions(idx, selections)
}

func visibleOptions(idx *schemaIndex, selections domain.SelectionSet) ([]domain.CustomizationOption, []domain.ValidationIssue) {
	visible := make([]domain.CustomizationOption, 0, len(idx.schema.Options))
	var warnings []domain.ValidationIssue

	for _, opt := range idx.schema.Options {
		if diag, failed := idx.blocked[opt.ID]; failed {
			warnings = append(warnings, domain.ValidationIssue{
				Code:     diag.Code,
				Severity: domain.SeverityWarning,
				OptionID: opt.ID,
				Message:  diag.Detail,
			})
			continue
		}
		if idx.visible(opt.ID, selections) {
			visible = append(visible, opt)
		}
	}
	return visible, warnings
}

// dependencySatisfied reports whether the dependency is met by the current selection
// of its target option, ignoring the target's own visibility.
func dependencySatisfied(dep *domain.OptionDependency, selections domain.SelectionSet) bool {
	if dep == nil {
		return true
	}
	sel, ok := selections.Get(dep.OptionID)
	if !ok {
		return false
	}
	switch dep.Condition {
	case domain.DependencyConditionSelected, "":
		return intersects(sel.ChoiceIDs, dep.RequiredChoiceIDs)
	default:
		return false
	}
}

func dependencyDescription(dep *domain.OptionDependency) string {
	if dep == nil {
		return ""
	}
	return fmt.Sprintf("requires %s in %v", dep.OptionID, dep.RequiredChoiceIDs)
}
