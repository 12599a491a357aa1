package domain

// OptionType tags the domain meaning of a customization option. The engine keys a few
// behaviours off the type (exclusive selection, the size pricing path), everything else
// is driven by the option's declared fields.
type OptionType string

const (
	// OptionTypeSize selects the wreath diameter.
	OptionTypeSize OptionType = "size"
	// OptionTypeRibbon toggles whether the wreath carries a ribbon.
	OptionTypeRibbon OptionType = "ribbon"
	// OptionTypeRibbonColor selects the ribbon fabric color.
	OptionTypeRibbonColor OptionType = "ribbon_color"
	// OptionTypeRibbonText captures the ribbon inscription.
	OptionTypeRibbonText OptionType = "ribbon_text"
	// OptionTypeMessage captures a card message accompanying the wreath.
	OptionTypeMessage OptionType = "message"
	// OptionTypeDelivery selects the delivery timing.
	OptionTypeDelivery OptionType = "delivery"
	// OptionTypeGeneric covers options with no engine-specific behaviour.
	OptionTypeGeneric OptionType = "generic"
)

// IsSingleValued reports whether the option type carries exclusive-choice semantics
// regardless of the declared selection bounds.
func (t OptionType) IsSingleValued() bool {
	switch t {
	case OptionTypeSize, OptionTypeRibbon, OptionTypeRibbonColor, OptionTypeRibbonText, OptionTypeDelivery:
		return true
	default:
		return false
	}
}

// DependencyCondition describes how a dependency is satisfied.
type DependencyCondition string

const (
	// DependencyConditionSelected is satisfied when the parent option's selection
	// intersects the required choice IDs.
	DependencyConditionSelected DependencyCondition = "selected"
)

// OptionDependency gates an option's visibility on another option's selection.
type OptionDependency struct {
	OptionID          string
	RequiredChoiceIDs []string
	Condition         DependencyCondition
	// Mandatory marks the depended-upon relation as making this option required
	// whenever it is visible (conditional-required semantics).
	Mandatory bool
}

// TextInputSettings bounds free-text input attached to a choice.
type TextInputSettings struct {
	MaxLength int
}

// CalendarSettings bounds calendar dates attached to a choice, expressed in whole days
// relative to evaluation time.
type CalendarSettings struct {
	MinDaysFromNow int
	MaxDaysFromNow int
}

// CustomizationChoice is one selectable value within an option. TextInput and Calendar
// are populated only when the corresponding capability flag is set; the flags and the
// settings travel together so callers never probe optional fields blindly.
type CustomizationChoice struct {
	ID            string
	Label         string
	PriceModifier int64
	Available     bool

	AllowCustomInput bool
	TextInput        *TextInputSettings

	RequiresCalendar bool
	Calendar         *CalendarSettings
}

// CustomizationOption is one configurable axis of a wreath product.
type CustomizationOption struct {
	ID            string
	Type          OptionType
	Name          string
	Required      bool
	MinSelections int
	MaxSelections int
	DependsOn     *OptionDependency
	Choices       []CustomizationChoice
}

// Exclusive reports whether the option admits at most one simultaneous choice.
func (o CustomizationOption) Exclusive() bool {
	return o.MaxSelections == 1 || o.Type.IsSingleValued()
}

// Choice returns the choice with the given ID, if declared on the option.
func (o CustomizationOption) Choice(choiceID string) (CustomizationChoice, bool) {
	for _, c := range o.Choices {
		if c.ID == choiceID {
			return c, true
		}
	}
	return CustomizationChoice{}, false
}

// OptionSchema is the immutable description of a product's customizable options.
// It is loaded once per product view and shared read-only across sessions.
type OptionSchema struct {
	Options []CustomizationOption
}

// Option returns the option with the given ID, if declared in the schema.
func (s OptionSchema) Option(optionID string) (CustomizationOption, bool) {
	for _, o := range s.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return CustomizationOption{}, false
}

// Selection is the user's current choice(s) for one option.
type Selection struct {
	OptionID    string
	ChoiceIDs   []string
	CustomValue *string
}

// SelectionSet holds at most one Selection per option, in insertion order.
// All engine operations treat it as copy-on-write.
type SelectionSet []Selection

// Get returns the selection for the option, if present.
func (s SelectionSet) Get(optionID string) (Selection, bool) {
	for _, sel := range s {
		if sel.OptionID == optionID {
			return sel, true
		}
	}
	return Selection{}, false
}

// Has reports whether the option has at least one selected choice or a custom value.
func (s SelectionSet) Has(optionID string) bool {
	sel, ok := s.Get(optionID)
	if !ok {
		return false
	}
	return len(sel.ChoiceIDs) > 0 || (sel.CustomValue != nil && *sel.CustomValue != "")
}

// Clone returns a deep copy so mutations never alias the receiver's backing arrays.
func (s SelectionSet) Clone() SelectionSet {
	if s == nil {
		return nil
	}
	out := make(SelectionSet, len(s))
	for i, sel := range s {
		copied := Selection{OptionID: sel.OptionID}
		if len(sel.ChoiceIDs) > 0 {
			copied.ChoiceIDs = append([]string(nil), sel.ChoiceIDs...)
		}
		if sel.CustomValue != nil {
			v := *sel.CustomValue
			copied.CustomValue = &v
		}
		out[i] = copied
	}
	return out
}

// Equal reports whether two selection sets are value-equal, entry for entry.
func (s SelectionSet) Equal(other SelectionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		a, b := s[i], other[i]
		if a.OptionID != b.OptionID || len(a.ChoiceIDs) != len(b.ChoiceIDs) {
			return false
		}
		for j := range a.ChoiceIDs {
			if a.ChoiceIDs[j] != b.ChoiceIDs[j] {
				return false
			}
		}
		switch {
		case a.CustomValue == nil && b.CustomValue == nil:
		case a.CustomValue == nil || b.CustomValue == nil:
			return false
		case *a.CustomValue != *b.CustomValue:
			return false
		}
	}
	return true
}
