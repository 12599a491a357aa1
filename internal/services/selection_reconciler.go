package services

import (
	domain "github.com/wreath-atelier/api/internal/domain"
)

// ApplyChoice applies a single choose/deselect action to the selection set and returns
// the reconciled result. The input set is never mutated; rejected actions return the
// input unchanged so callers can detect no-ops by equality.
//
// Exclusive options (max one selection, or an inherently single-valued type) replace
// the current selection. Multi-select options toggle: re-selecting an already selected
// choice deselects it, and a new selection past the option's cap is rejected.
// Unavailable choices and unknown option or choice IDs are always rejected.
func ApplyChoice(schema domain.OptionSchema, selections domain.SelectionSet, optionID, choiceID string) domain.SelectionSet {
	idx := newSchemaIndex(schema)

	opt, ok := idx.options[optionID]
	if !ok {
		return selections
	}
	if _, failed := idx.blocked[optionID]; failed {
		return selections
	}
	choice, ok := opt.Choice(choiceID)
	if !ok || !choice.Available {
		return selections
	}

	next := selections.Clone()
	pos := indexOf(next, optionID)

	if opt.Exclusive() {
		entry := domain.Selection{OptionID: optionID, ChoiceIDs: []string{choiceID}}
		if pos >= 0 {
			// A custom value bound to the previous choice is meaningless under the
			// new one unless the new choice accepts one too (free text or a date).
			if choice.AllowCustomInput || choice.RequiresCalendar {
				entry.CustomValue = next[pos].CustomValue
			}
			next[pos] = entry
		} else {
			next = append(next, entry)
		}
	} else {
		if pos < 0 {
			next = append(next, domain.Selection{OptionID: optionID, ChoiceIDs: []string{choiceID}})
		} else if at := indexOfString(next[pos].ChoiceIDs, choiceID); at >= 0 {
			next[pos].ChoiceIDs = append(next[pos].ChoiceIDs[:at], next[pos].ChoiceIDs[at+1:]...)
			if len(next[pos].ChoiceIDs) == 0 && next[pos].CustomValue == nil {
				next = append(next[:pos], next[pos+1:]...)
			}
		} else {
			if opt.MaxSelections > 0 && len(next[pos].ChoiceIDs) >= opt.MaxSelections {
				return selections
			}
			next[pos].ChoiceIDs = append(next[pos].ChoiceIDs, choiceID)
		}
	}

	next = cleanupDependents(idx, next)
	if next.Equal(selections) {
		return selections
	}
	return next
}

// ApplyCustomValue attaches a free-text or date value to the option's current
// selection. The action is rejected when the option has no active choice admitting
// custom input, or when the value exceeds the choice's declared maximum length.
func ApplyCustomValue(schema domain.OptionSchema, selections domain.SelectionSet, optionID, value string) domain.SelectionSet {
	idx := newSchemaIndex(schema)

	opt, ok := idx.options[optionID]
	if !ok {
		return selections
	}
	if _, failed := idx.blocked[optionID]; failed {
		return selections
	}

	pos := indexOf(selections, optionID)
	if pos < 0 {
		return selections
	}
	choice, ok := activeCustomInputChoice(opt, selections[pos])
	if !ok {
		return selections
	}
	if !choice.RequiresCalendar && choice.TextInput != nil && choice.TextInput.MaxLength > 0 {
		if len([]rune(value)) > choice.TextInput.MaxLength {
			return selections
		}
	}

	next := selections.Clone()
	next[pos].CustomValue = &value

	next = cleanupDependents(idx, next)
	if next.Equal(selections) {
		return selections
	}
	return next
}

// ApplyRecovery executes the pure transformation named by a validation issue's
// recovery action. Unknown or inapplicable actions return the input unchanged.
func ApplyRecovery(schema domain.OptionSchema, selections domain.SelectionSet, issue domain.ValidationIssue) domain.SelectionSet {
	if !issue.RecoveryAvailable || issue.OptionID == "" {
		return selections
	}
	switch issue.RecoveryAction {
	case domain.RecoveryAutoSelectFirstAvailable:
		opt, ok := schema.Option(issue.OptionID)
		if !ok {
			return selections
		}
		for _, choice := range opt.Choices {
			if choice.Available {
				return ApplyChoice(schema, selections, opt.ID, choice.ID)
			}
		}
		return selections
	case domain.RecoveryRemoveDependentSelection:
		idx := newSchemaIndex(schema)
		pos := indexOf(selections, issue.OptionID)
		if pos < 0 {
			return selections
		}
		next := selections.Clone()
		next = append(next[:pos], next[pos+1:]...)
		next = cleanupDependents(idx, next)
		if next.Equal(selections) {
			return selections
		}
		return next
	case domain.RecoveryClearCustomValue:
		pos := indexOf(selections, issue.OptionID)
		if pos < 0 || selections[pos].CustomValue == nil {
			return selections
		}
		next := selections.Clone()
		next[pos].CustomValue = nil
		if len(next[pos].ChoiceIDs) == 0 {
			next = append(next[:pos], next[pos+1:]...)
		}
		return next
	default:
		return selections
	}
}

// cleanupDependents removes selections belonging to options that are no longer
// visible. Removal can cascade (hiding an option may hide its dependents), so the
// pass repeats until a fixed point, bounded by the option count in case the cycle
// detector missed a pathological graph.
func cleanupDependents(idx *schemaIndex, selections domain.SelectionSet) domain.SelectionSet {
	for range idx.schema.Options {
		removed := false
		for i := 0; i < len(selections); i++ {
			opt, ok := idx.options[selections[i].OptionID]
			if !ok {
				continue
			}
			if opt.DependsOn == nil && !isBlocked(idx, opt.ID) {
				continue
			}
			if idx.visible(opt.ID, selections) {
				continue
			}
			selections = append(selections[:i], selections[i+1:]...)
			removed = true
			i--
		}
		if !removed {
			break
		}
	}
	return selections
}

func isBlocked(idx *schemaIndex, optionID string) bool {
	_, failed := idx.blocked[optionID]
	return failed
}

// activeCustomInputChoice returns the selected choice that admits custom input.
func activeCustomInputChoice(opt domain.CustomizationOption, sel domain.Selection) (domain.CustomizationChoice, bool) {
	for _, id := range sel.ChoiceIDs {
		choice, ok := opt.Choice(id)
		if !ok {
			continue
		}
		if choice.AllowCustomInput || choice.RequiresCalendar {
			return choice, true
		}
	}
	return domain.CustomizationChoice{}, false
}

func indexOf(selections domain.SelectionSet, optionID string) int {
	for i, sel := range selections {
		if sel.OptionID == optionID {
			return i
		}
	}
	return -1
}

func indexOfString(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
