package domain

// IssueSeverity grades validation issues. Only errors block checkout-readiness.
type IssueSeverity string

const (
	// SeverityError marks issues that must be resolved before checkout.
	SeverityError IssueSeverity = "error"
	// SeverityWarning marks advisory issues that never block progress.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInfo marks purely informational issues.
	SeverityInfo IssueSeverity = "info"
)

// Machine-readable validation issue codes. Collaborators map these to localized text;
// the engine never emits user-facing strings.
const (
	IssueRequiredMissing            = "REQUIRED_MISSING"
	IssueMinSelectionsNotMet        = "MIN_SELECTIONS_NOT_MET"
	IssueConditionalRequiredMissing = "CONDITIONAL_REQUIRED_MISSING"
	IssueInvalidDate                = "INVALID_DATE"
	IssueTextTooLong                = "TEXT_TOO_LONG"
	IssueTextDisallowedContent      = "TEXT_DISALLOWED_CONTENT"
	IssueDependencyNotFound         = "DEPENDENCY_NOT_FOUND"
	IssueDependencyCycle            = "DEPENDENCY_CYCLE"
	IssueNearTextLimit              = "NEAR_TEXT_LIMIT"
	IssueStaleSelection             = "STALE_SELECTION"
)

// RecoveryAction names a pure transformation of the selection set a caller may apply
// to resolve an issue. The validation engine only describes the fix, it never applies it.
type RecoveryAction string

const (
	// RecoveryAutoSelectFirstAvailable selects the option's first available choice.
	RecoveryAutoSelectFirstAvailable RecoveryAction = "auto_select_first_available"
	// RecoveryRemoveDependentSelection removes the offending dependent selection.
	RecoveryRemoveDependentSelection RecoveryAction = "remove_dependent_selection"
	// RecoveryClearCustomValue clears the offending custom value.
	RecoveryClearCustomValue RecoveryAction = "clear_custom_value"
)

// ValidationIssue is one structured finding produced by the validation engine.
type ValidationIssue struct {
	Code              string
	Severity          IssueSeverity
	OptionID          string
	Message           string
	RecoveryAvailable bool
	RecoveryAction    RecoveryAction
}

// ValidationResult aggregates per-option findings. IsValid is true iff Errors is empty;
// warnings never affect it.
type ValidationResult struct {
	IsValid  bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}
