package services

import (
	domain "github.com/wreath-atelier/api/internal/domain"
)

// ComputePrice builds the deterministic price breakdown for a configuration.
//
// Every call recomputes from the full selection set; nothing is patched
// incrementally, so deselecting a choice always returns the total to its
// pre-selection value and identical inputs yield identical output. All price
// modifiers, the size option included, are additive deltas over the base price;
// the option-authoring layer is responsible for encoding them consistently.
// Selections whose option is not currently visible contribute nothing, which
// keeps stale entries from leaking into the total.
func ComputePrice(basePrice int64, currency string, schema domain.OptionSchema, selections domain.SelectionSet) domain.PriceQuote {
	idx := newSchemaIndex(schema)

	quote := domain.PriceQuote{
		BasePrice: basePrice,
		Currency:  currency,
	}

	// Breakdown entries follow the schema's declaration order.
	for _, opt := range idx.schema.Options {
		sel, ok := selections.Get(opt.ID)
		if !ok || len(sel.ChoiceIDs) == 0 {
			continue
		}
		if !idx.visible(opt.ID, selections) {
			continue
		}

		entry := domain.PriceBreakdownEntry{
			OptionID:   opt.ID,
			OptionName: opt.Name,
		}
		for _, choiceID := range sel.ChoiceIDs {
			choice, ok := opt.Choice(choiceID)
			if !ok {
				continue
			}
			entry.Choices = append(entry.Choices, domain.SelectedChoicePrice{
				ChoiceID:      choice.ID,
				Label:         choice.Label,
				PriceModifier: choice.PriceModifier,
			})
			entry.TotalModifier += choice.PriceModifier
		}
		if len(entry.Choices) == 0 {
			continue
		}
		quote.Breakdown = append(quote.Breakdown, entry)
		quote.TotalModifier += entry.TotalModifier
	}

	quote.Total = quote.BasePrice + quote.TotalModifier
	return quote
}
