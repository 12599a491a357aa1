package services

import (
	"testing"

	domain "github.com/wreath-atelier/api/internal/domain"
)

// wreathTestSchema builds the canonical option schema the engine tests share: an
// exclusive size tier, a ribbon toggle gating color and inscription, a multi-select
// accent option and a calendar-backed delivery slot.
func wreathTestSchema() domain.OptionSchema {
	return domain.OptionSchema{Options: []domain.CustomizationOption{
		{
			ID: "size", Type: domain.OptionTypeSize, Name: "Size", Required: true,
			Choices: []domain.CustomizationChoice{
				{ID: "small", Label: "Small (40cm)", PriceModifier: 0, Available: true},
				{ID: "medium", Label: "Medium (50cm)", PriceModifier: 500, Available: true},
				{ID: "large", Label: "Large (60cm)", PriceModifier: 1000, Available: true},
			},
		},
		{
			ID: "ribbon", Type: domain.OptionTypeRibbon, Name: "Ribbon", Required: true,
			Choices: []domain.CustomizationChoice{
				{ID: "yes", Label: "With ribbon", PriceModifier: 300, Available: true},
				{ID: "no", Label: "No ribbon", Available: true},
			},
		},
		{
			ID: "ribbon_color", Type: domain.OptionTypeRibbonColor, Name: "Ribbon color",
			DependsOn: &domain.OptionDependency{
				OptionID:          "ribbon",
				RequiredChoiceIDs: []string{"yes"},
				Condition:         domain.DependencyConditionSelected,
				Mandatory:         true,
			},
			Choices: []domain.CustomizationChoice{
				{ID: "black", Label: "Black", Available: true},
				{ID: "white", Label: "White", Available: true},
				{ID: "gold", Label: "Gold", PriceModifier: 100, Available: false},
			},
		},
		{
			ID: "ribbon_text", Type: domain.OptionTypeRibbonText, Name: "Ribbon inscription",
			DependsOn: &domain.OptionDependency{
				OptionID:          "ribbon",
				RequiredChoiceIDs: []string{"yes"},
				Condition:         domain.DependencyConditionSelected,
			},
			Choices: []domain.CustomizationChoice{
				{ID: "inscription", Label: "Custom inscription", PriceModifier: 150, Available: true, AllowCustomInput: true, TextInput: &domain.TextInputSettings{MaxLength: 50}},
				{ID: "blank", Label: "Leave blank", Available: true},
			},
		},
		{
			ID: "flowers", Type: domain.OptionTypeGeneric, Name: "Accent flowers", MaxSelections: 2,
			Choices: []domain.CustomizationChoice{
				{ID: "lily", Label: "Lilies", PriceModifier: 250, Available: true},
				{ID: "rose", Label: "Roses", PriceModifier: 250, Available: true},
				{ID: "carnation", Label: "Carnations", PriceModifier: 200, Available: true},
			},
		},
		{
			ID: "delivery_date", Type: domain.OptionTypeDelivery, Name: "Delivery date",
			Choices: []domain.CustomizationChoice{
				{ID: "scheduled", Label: "Scheduled delivery", Available: true, RequiresCalendar: true, Calendar: &domain.CalendarSettings{MinDaysFromNow: 1, MaxDaysFromNow: 30}},
				{ID: "asap", Label: "Next available", Available: true},
			},
		},
	}}
}

func selectionOf(optionID string, choiceIDs ...string) domain.Selection {
	return domain.Selection{OptionID: optionID, ChoiceIDs: choiceIDs}
}

func strPtr(v string) *string { return &v }

func visibleIDs(options []domain.CustomizationOption) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestVisibleOptions(t *testing.T) {
	schema := wreathTestSchema()

	t.Run("hides dependent options until parent selected", func(t *testing.T) {
		visible, warnings := VisibleOptions(schema, nil)
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %#v", warnings)
		}
		want := []string{"size", "ribbon", "flowers", "delivery_date"}
		if got := visibleIDs(visible); !equalStrings(got, want) {
			t.Fatalf("expected %v visible, got %v", want, got)
		}
	})

	t.Run("reveals dependents when the gating choice is selected", func(t *testing.T) {
		selections := domain.SelectionSet{selectionOf("ribbon", "yes")}
		visible, _ := VisibleOptions(schema, selections)
		want := []string{"size", "ribbon", "ribbon_color", "ribbon_text", "flowers", "delivery_date"}
		if got := visibleIDs(visible); !equalStrings(got, want) {
			t.Fatalf("expected %v visible, got %v", want, got)
		}
	})

	t.Run("alternate parent choice keeps dependents hidden", func(t *testing.T) {
		selections := domain.SelectionSet{selectionOf("ribbon", "no")}
		visible, _ := VisibleOptions(schema, selections)
		for _, opt := range visible {
			if opt.ID == "ribbon_color" || opt.ID == "ribbon_text" {
				t.Fatalf("option %s should stay hidden when ribbon=no", opt.ID)
			}
		}
	})

	t.Run("hidden parent hides the whole chain despite stale selection", func(t *testing.T) {
		chain := domain.OptionSchema{Options: []domain.CustomizationOption{
			{ID: "a", Name: "A", Choices: []domain.CustomizationChoice{{ID: "x", Available: true}}},
			{ID: "b", Name: "B", DependsOn: &domain.OptionDependency{OptionID: "a", RequiredChoiceIDs: []string{"x"}}, Choices: []domain.CustomizationChoice{{ID: "y", Available: true}}},
			{ID: "c", Name: "C", DependsOn: &domain.OptionDependency{OptionID: "b", RequiredChoiceIDs: []string{"y"}}, Choices: []domain.CustomizationChoice{{ID: "z", Available: true}}},
		}}
		// b carries a selection but a does not, so b is hidden and c must not
		// resurface through the stale entry.
		selections := domain.SelectionSet{selectionOf("b", "y")}
		visible, _ := VisibleOptions(chain, selections)
		if got := visibleIDs(visible); !equalStrings(got, []string{"a"}) {
			t.Fatalf("expected only a visible, got %v", got)
		}
	})

	t.Run("dangling dependency target fails closed with a warning", func(t *testing.T) {
		broken := wreathTestSchema()
		broken.Options[2].DependsOn.OptionID = "no_such_option"
		visible, warnings := VisibleOptions(broken, domain.SelectionSet{selectionOf("ribbon", "yes")})
		for _, opt := range visible {
			if opt.ID == "ribbon_color" {
				t.Fatalf("blocked option must not be visible")
			}
		}
		if len(warnings) != 1 {
			t.Fatalf("expected one warning, got %#v", warnings)
		}
		if warnings[0].Code != domain.IssueDependencyNotFound {
			t.Fatalf("expected %s, got %s", domain.IssueDependencyNotFound, warnings[0].Code)
		}
		if warnings[0].OptionID != "ribbon_color" {
			t.Fatalf("expected warning for ribbon_color, got %s", warnings[0].OptionID)
		}
		if warnings[0].Severity != domain.SeverityWarning {
			t.Fatalf("schema issues must be warnings, got %s", warnings[0].Severity)
		}
	})

	t.Run("dependency cycle blocks every participant", func(t *testing.T) {
		cyclic := domain.OptionSchema{Options: []domain.CustomizationOption{
			{ID: "a", Name: "A", DependsOn: &domain.OptionDependency{OptionID: "b", RequiredChoiceIDs: []string{"y"}}, Choices: []domain.CustomizationChoice{{ID: "x", Available: true}}},
			{ID: "b", Name: "B", DependsOn: &domain.OptionDependency{OptionID: "a", RequiredChoiceIDs: []string{"x"}}, Choices: []domain.CustomizationChoice{{ID: "y", Available: true}}},
			{ID: "free", Name: "Free", Choices: []domain.CustomizationChoice{{ID: "z", Available: true}}},
		}}
		visible, warnings := VisibleOptions(cyclic, nil)
		if got := visibleIDs(visible); !equalStrings(got, []string{"free"}) {
			t.Fatalf("expected only free visible, got %v", got)
		}
		if len(warnings) != 2 {
			t.Fatalf("expected both cycle members reported, got %#v", warnings)
		}
		for _, w := range warnings {
			if w.Code != domain.IssueDependencyCycle {
				t.Fatalf("expected %s, got %s", domain.IssueDependencyCycle, w.Code)
			}
		}
	})

	t.Run("depending on a cycle member is not membership", func(t *testing.T) {
		cyclic := domain.OptionSchema{Options: []domain.CustomizationOption{
			{ID: "outsider", Name: "Outsider", DependsOn: &domain.OptionDependency{OptionID: "a", RequiredChoiceIDs: []string{"x"}}, Choices: []domain.CustomizationChoice{{ID: "w", Available: true}}},
			{ID: "a", Name: "A", DependsOn: &domain.OptionDependency{OptionID: "b", RequiredChoiceIDs: []string{"y"}}, Choices: []domain.CustomizationChoice{{ID: "x", Available: true}}},
			{ID: "b", Name: "B", DependsOn: &domain.OptionDependency{OptionID: "a", RequiredChoiceIDs: []string{"x"}}, Choices: []domain.CustomizationChoice{{ID: "y", Available: true}}},
		}}
		visible, warnings := VisibleOptions(cyclic, nil)
		if len(visible) != 0 {
			t.Fatalf("expected nothing visible, got %v", visibleIDs(visible))
		}
		if len(warnings) != 2 {
			t.Fatalf("expected only the two cycle members reported, got %#v", warnings)
		}
		for _, w := range warnings {
			if w.OptionID == "outsider" {
				t.Fatalf("outsider depends on the cycle but is not in it: %#v", w)
			}
		}
	})
}

func TestAnalyzeSchema(t *testing.T) {
	t.Run("clean schema has no diagnostics", func(t *testing.T) {
		if diags := AnalyzeSchema(wreathTestSchema()); diags != nil {
			t.Fatalf("expected no diagnostics, got %#v", diags)
		}
	})

	t.Run("reports findings in declaration order", func(t *testing.T) {
		broken := wreathTestSchema()
		broken.Options[2].DependsOn.OptionID = "missing_one"
		broken.Options[3].DependsOn.OptionID = "missing_two"
		diags := AnalyzeSchema(broken)
		if len(diags) != 2 {
			t.Fatalf("expected two diagnostics, got %#v", diags)
		}
		if diags[0].OptionID != "ribbon_color" || diags[1].OptionID != "ribbon_text" {
			t.Fatalf("expected declaration order ribbon_color, ribbon_text; got %s, %s", diags[0].OptionID, diags[1].OptionID)
		}
	})
}
