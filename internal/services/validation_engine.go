package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
)

// TextValidator screens free-text input (ribbon inscriptions, card messages) for
// disallowed content. Implementations must be pure; the engine calls them on every
// validation pass.
type TextValidator interface {
	ValidateText(value string) error
}

// TextValidatorFunc adapts ordinary functions to TextValidator.
type TextValidatorFunc func(value string) error

// ValidateText invokes the wrapped function.
func (f TextValidatorFunc) ValidateText(value string) error { return f(value) }

// ErrTextDisallowed is returned by text validators when the value contains content
// that must not appear on a ribbon or card.
var ErrTextDisallowed = errors.New("text contains disallowed content")

const nearTextLimitThreshold = 0.9

// ValidationContext carries the evaluation-time inputs the engine cannot derive
// from the schema: the clock used for calendar bounds and the pluggable text
// validator. A zero Now falls back to the current UTC time.
type ValidationContext struct {
	Now  time.Time
	Text TextValidator

	// SuppressRecoveryHints strips recovery actions from reported issues.
	SuppressRecoveryHints bool
	// SuppressNearLimitWarnings drops the advisory near-limit warning.
	SuppressNearLimitWarnings bool
}

// Validate evaluates the selection set against the schema's required,
// conditional-required, cardinality, text, and calendar rules. It never mutates
// its inputs; fixes are only described through recovery action tags.
func Validate(schema domain.OptionSchema, selections domain.SelectionSet, vctx ValidationContext) domain.ValidationResult {
	now := vctx.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	idx := newSchemaIndex(schema)
	_, schemaWarnings := visibleOptions(idx, selections)

	result := domain.ValidationResult{}
	result.Warnings = append(result.Warnings, schemaWarnings...)

	for _, opt := range idx.schema.Options {
		if isBlocked(idx, opt.ID) {
			continue
		}
		if !idx.visible(opt.ID, selections) {
			// A hidden option is exempt from its own required flag, but a stale
			// entry left in the set is worth flagging: it must not silently
			// reappear or count toward pricing later.
			if _, stale := selections.Get(opt.ID); stale {
				result.Warnings = append(result.Warnings, domain.ValidationIssue{
					Code:              domain.IssueStaleSelection,
					Severity:          domain.SeverityWarning,
					OptionID:          opt.ID,
					Message:           fmt.Sprintf("selection for hidden option %s", opt.ID),
					RecoveryAvailable: true,
					RecoveryAction:    domain.RecoveryRemoveDependentSelection,
				})
			}
			continue
		}

		sel, hasEntry := selections.Get(opt.ID)
		selected := len(sel.ChoiceIDs)

		required := opt.Required
		conditionallyRequired := !required && opt.DependsOn != nil && opt.DependsOn.Mandatory

		switch {
		case selected == 0 && required:
			result.Errors = append(result.Errors, requiredMissingIssue(opt, domain.IssueRequiredMissing))
		case selected == 0 && conditionallyRequired:
			issue := requiredMissingIssue(opt, domain.IssueConditionalRequiredMissing)
			issue.Message = fmt.Sprintf("option %s %s", opt.ID, dependencyDescription(opt.DependsOn))
			result.Errors = append(result.Errors, issue)
		case selected > 0 && opt.MinSelections > 0 && selected < opt.MinSelections:
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:     domain.IssueMinSelectionsNotMet,
				Severity: domain.SeverityError,
				OptionID: opt.ID,
				Message:  fmt.Sprintf("selected %d of %d required", selected, opt.MinSelections),
			})
		}

		if !hasEntry {
			continue
		}
		validateCustomValue(&result, opt, sel, required || conditionallyRequired, now, vctx.Text)
	}

	if vctx.SuppressNearLimitWarnings {
		kept := result.Warnings[:0]
		for _, issue := range result.Warnings {
			if issue.Code != domain.IssueNearTextLimit {
				kept = append(kept, issue)
			}
		}
		result.Warnings = kept
	}
	if vctx.SuppressRecoveryHints {
		stripRecoveries(result.Errors)
		stripRecoveries(result.Warnings)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func stripRecoveries(issues []domain.ValidationIssue) {
	for i := range issues {
		issues[i].RecoveryAvailable = false
		issues[i].RecoveryAction = ""
	}
}

func requiredMissingIssue(opt domain.CustomizationOption, code string) domain.ValidationIssue {
	issue := domain.ValidationIssue{
		Code:     code,
		Severity: domain.SeverityError,
		OptionID: opt.ID,
		Message:  fmt.Sprintf("option %s requires a selection", opt.ID),
	}
	for _, choice := range opt.Choices {
		if choice.Available {
			issue.RecoveryAvailable = true
			issue.RecoveryAction = domain.RecoveryAutoSelectFirstAvailable
			break
		}
	}
	return issue
}

func validateCustomValue(result *domain.ValidationResult, opt domain.CustomizationOption, sel domain.Selection, required bool, now time.Time, text TextValidator) {
	choice, ok := activeCustomInputChoice(opt, sel)
	if !ok {
		return
	}

	value := ""
	if sel.CustomValue != nil {
		value = *sel.CustomValue
	}
	trimmed := strings.TrimSpace(value)

	if choice.RequiresCalendar {
		validateCalendarValue(result, opt, choice, trimmed, required, now)
		return
	}

	if trimmed == "" {
		if required {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:              domain.IssueRequiredMissing,
				Severity:          domain.SeverityError,
				OptionID:          opt.ID,
				Message:           fmt.Sprintf("option %s requires a text value", opt.ID),
				RecoveryAvailable: sel.CustomValue != nil,
				RecoveryAction:    domain.RecoveryClearCustomValue,
			})
		}
		return
	}

	severity := domain.SeverityWarning
	if required {
		severity = domain.SeverityError
	}

	if choice.TextInput != nil && choice.TextInput.MaxLength > 0 {
		length := len([]rune(trimmed))
		if length > choice.TextInput.MaxLength {
			issue := domain.ValidationIssue{
				Code:              domain.IssueTextTooLong,
				Severity:          severity,
				OptionID:          opt.ID,
				Message:           fmt.Sprintf("text length %d exceeds limit %d", length, choice.TextInput.MaxLength),
				RecoveryAvailable: true,
				RecoveryAction:    domain.RecoveryClearCustomValue,
			}
			appendIssue(result, issue)
		} else if float64(length) >= nearTextLimitThreshold*float64(choice.TextInput.MaxLength) {
			result.Warnings = append(result.Warnings, domain.ValidationIssue{
				Code:     domain.IssueNearTextLimit,
				Severity: domain.SeverityWarning,
				OptionID: opt.ID,
				Message:  fmt.Sprintf("text length %d approaches limit %d", length, choice.TextInput.MaxLength),
			})
		}
	}

	if text != nil {
		if err := text.ValidateText(trimmed); err != nil {
			appendIssue(result, domain.ValidationIssue{
				Code:              domain.IssueTextDisallowedContent,
				Severity:          severity,
				OptionID:          opt.ID,
				Message:           err.Error(),
				RecoveryAvailable: true,
				RecoveryAction:    domain.RecoveryClearCustomValue,
			})
		}
	}
}

func validateCalendarValue(result *domain.ValidationResult, opt domain.CustomizationOption, choice domain.CustomizationChoice, value string, required bool, now time.Time) {
	if value == "" {
		if required {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:     domain.IssueRequiredMissing,
				Severity: domain.SeverityError,
				OptionID: opt.ID,
				Message:  fmt.Sprintf("option %s requires a date", opt.ID),
			})
		}
		return
	}

	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:              domain.IssueInvalidDate,
			Severity:          domain.SeverityError,
			OptionID:          opt.ID,
			Message:           fmt.Sprintf("value %q is not a calendar date", value),
			RecoveryAvailable: true,
			RecoveryAction:    domain.RecoveryClearCustomValue,
		})
		return
	}

	if choice.Calendar == nil {
		return
	}

	// Bounds are inclusive and compared at day granularity.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	earliest := today.AddDate(0, 0, choice.Calendar.MinDaysFromNow)
	latest := today.AddDate(0, 0, choice.Calendar.MaxDaysFromNow)
	if day.Before(earliest) || day.After(latest) {
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:     domain.IssueInvalidDate,
			Severity: domain.SeverityError,
			OptionID: opt.ID,
			Message: fmt.Sprintf("date %s outside window %s..%s", value,
				earliest.Format("2006-01-02"), latest.Format("2006-01-02")),
			RecoveryAvailable: true,
			RecoveryAction:    domain.RecoveryClearCustomValue,
		})
	}
}

func appendIssue(result *domain.ValidationResult, issue domain.ValidationIssue) {
	if issue.Severity == domain.SeverityError {
		result.Errors = append(result.Errors, issue)
		return
	}
	result.Warnings = append(result.Warnings, issue)
}
