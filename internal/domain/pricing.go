package domain

// SelectedChoicePrice records one selected choice's contribution to an option's total.
type SelectedChoicePrice struct {
	ChoiceID      string
	Label         string
	PriceModifier int64
}

// PriceBreakdownEntry is one line of the computed price explanation for a single option.
type PriceBreakdownEntry struct {
	OptionID      string
	OptionName    string
	Choices       []SelectedChoicePrice
	TotalModifier int64
}

// PriceQuote captures the deterministic pricing output for a configuration.
// Total is always BasePrice + TotalModifier; the calculator never clamps, a
// negative total is a data-authoring error surfaced upstream.
type PriceQuote struct {
	BasePrice     int64
	Currency      string
	Breakdown     []PriceBreakdownEntry
	TotalModifier int64
	Total         int64
}
