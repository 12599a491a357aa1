package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/services"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body exceeds allowed size")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = 16 * 1024
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// selectionPayload is the wire form of one option's selection state.
type selectionPayload struct {
	OptionID    string   `json:"optionId"`
	ChoiceIDs   []string `json:"choiceIds"`
	CustomValue *string  `json:"customValue,omitempty"`
}

func decodeSelections(payloads []selectionPayload) domain.SelectionSet {
	set := domain.SelectionSet{}
	for _, p := range payloads {
		optionID := strings.TrimSpace(p.OptionID)
		if optionID == "" {
			continue
		}
		set = append(set, domain.Selection{
			OptionID:    optionID,
			ChoiceIDs:   append([]string(nil), p.ChoiceIDs...),
			CustomValue: p.CustomValue,
		})
	}
	return set
}

func encodeSelections(set domain.SelectionSet) []selectionPayload {
	payloads := make([]selectionPayload, 0, len(set))
	for _, sel := range set {
		payloads = append(payloads, selectionPayload{
			OptionID:    sel.OptionID,
			ChoiceIDs:   append([]string(nil), sel.ChoiceIDs...),
			CustomValue: sel.CustomValue,
		})
	}
	return payloads
}

type validationIssuePayload struct {
	Code              string `json:"code"`
	Severity          string `json:"severity"`
	OptionID          string `json:"optionId,omitempty"`
	Message           string `json:"message"`
	RecoveryAvailable bool   `json:"recoveryAvailable"`
	RecoveryAction    string `json:"recoveryAction,omitempty"`
}

func buildIssuePayloads(issues []domain.ValidationIssue) []validationIssuePayload {
	payloads := make([]validationIssuePayload, 0, len(issues))
	for _, issue := range issues {
		payloads = append(payloads, validationIssuePayload{
			Code:              issue.Code,
			Severity:          string(issue.Severity),
			OptionID:          issue.OptionID,
			Message:           issue.Message,
			RecoveryAvailable: issue.RecoveryAvailable,
			RecoveryAction:    string(issue.RecoveryAction),
		})
	}
	return payloads
}

type validationResultPayload struct {
	IsValid  bool                     `json:"isValid"`
	Errors   []validationIssuePayload `json:"errors"`
	Warnings []validationIssuePayload `json:"warnings"`
}

func buildValidationPayload(result domain.ValidationResult) validationResultPayload {
	return validationResultPayload{
		IsValid:  result.IsValid,
		Errors:   buildIssuePayloads(result.Errors),
		Warnings: buildIssuePayloads(result.Warnings),
	}
}

type selectedChoicePayload struct {
	ChoiceID      string `json:"choiceId"`
	Label         string `json:"label"`
	PriceModifier int64  `json:"priceModifier"`
}

type breakdownEntryPayload struct {
	OptionID      string                  `json:"optionId"`
	OptionName    string                  `json:"optionName"`
	Choices       []selectedChoicePayload `json:"choices"`
	TotalModifier int64                   `json:"totalModifier"`
}

type priceQuotePayload struct {
	BasePrice     int64                   `json:"basePrice"`
	Currency      string                  `json:"currency"`
	Breakdown     []breakdownEntryPayload `json:"breakdown"`
	TotalModifier int64                   `json:"totalModifier"`
	Total         int64                   `json:"total"`
}

func buildPricePayload(quote domain.PriceQuote) priceQuotePayload {
	payload := priceQuotePayload{
		BasePrice:     quote.BasePrice,
		Currency:      quote.Currency,
		Breakdown:     make([]breakdownEntryPayload, 0, len(quote.Breakdown)),
		TotalModifier: quote.TotalModifier,
		Total:         quote.Total,
	}
	for _, entry := range quote.Breakdown {
		entryPayload := breakdownEntryPayload{
			OptionID:      entry.OptionID,
			OptionName:    entry.OptionName,
			Choices:       make([]selectedChoicePayload, 0, len(entry.Choices)),
			TotalModifier: entry.TotalModifier,
		}
		for _, choice := range entry.Choices {
			entryPayload.Choices = append(entryPayload.Choices, selectedChoicePayload{
				ChoiceID:      choice.ChoiceID,
				Label:         choice.Label,
				PriceModifier: choice.PriceModifier,
			})
		}
		payload.Breakdown = append(payload.Breakdown, entryPayload)
	}
	return payload
}

type choicePayload struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	PriceModifier    int64  `json:"priceModifier"`
	Available        bool   `json:"available"`
	AllowCustomInput bool   `json:"allowCustomInput"`
	MaxLength        int    `json:"maxLength,omitempty"`
	RequiresCalendar bool   `json:"requiresCalendar"`
	MinDaysFromNow   int    `json:"minDaysFromNow,omitempty"`
	MaxDaysFromNow   int    `json:"maxDaysFromNow,omitempty"`
}

type dependencyPayload struct {
	OptionID          string   `json:"optionId"`
	RequiredChoiceIDs []string `json:"requiredChoiceIds"`
	Mandatory         bool     `json:"mandatory"`
}

type optionPayload struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Name          string             `json:"name"`
	Required      bool               `json:"required"`
	MinSelections int                `json:"minSelections"`
	MaxSelections int                `json:"maxSelections"`
	DependsOn     *dependencyPayload `json:"dependsOn,omitempty"`
	Choices       []choicePayload    `json:"choices"`
}

func buildOptionPayloads(options []domain.CustomizationOption) []optionPayload {
	payloads := make([]optionPayload, 0, len(options))
	for _, opt := range options {
		payload := optionPayload{
			ID:            opt.ID,
			Type:          string(opt.Type),
			Name:          opt.Name,
			Required:      opt.Required,
			MinSelections: opt.MinSelections,
			MaxSelections: opt.MaxSelections,
			Choices:       make([]choicePayload, 0, len(opt.Choices)),
		}
		if opt.DependsOn != nil {
			payload.DependsOn = &dependencyPayload{
				OptionID:          opt.DependsOn.OptionID,
				RequiredChoiceIDs: append([]string(nil), opt.DependsOn.RequiredChoiceIDs...),
				Mandatory:         opt.DependsOn.Mandatory,
			}
		}
		for _, choice := range opt.Choices {
			choiceOut := choicePayload{
				ID:               choice.ID,
				Label:            choice.Label,
				PriceModifier:    choice.PriceModifier,
				Available:        choice.Available,
				AllowCustomInput: choice.AllowCustomInput,
				RequiresCalendar: choice.RequiresCalendar,
			}
			if choice.TextInput != nil {
				choiceOut.MaxLength = choice.TextInput.MaxLength
			}
			if choice.Calendar != nil {
				choiceOut.MinDaysFromNow = choice.Calendar.MinDaysFromNow
				choiceOut.MaxDaysFromNow = choice.Calendar.MaxDaysFromNow
			}
			payload.Choices = append(payload.Choices, choiceOut)
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

type productSummaryPayload struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BasePrice   int64  `json:"basePrice"`
	Currency    string `json:"currency"`
	IsPublished bool   `json:"isPublished"`
}

func buildProductSummaryPayload(summary domain.ProductSummary) productSummaryPayload {
	return productSummaryPayload{
		ID:          summary.ID,
		SKU:         summary.SKU,
		Slug:        summary.Slug,
		Name:        summary.Name,
		Description: summary.Description,
		BasePrice:   summary.BasePrice,
		Currency:    summary.Currency,
		IsPublished: summary.IsPublished,
	}
}

type customizationStatePayload struct {
	Product        productSummaryPayload    `json:"product"`
	VisibleOptions []optionPayload          `json:"visibleOptions"`
	Selections     []selectionPayload       `json:"selections"`
	Diagnostics    []validationIssuePayload `json:"diagnostics,omitempty"`
	Price          priceQuotePayload        `json:"price"`
	Validation     validationResultPayload  `json:"validation"`
}

func buildStatePayload(state services.CustomizationState) customizationStatePayload {
	return customizationStatePayload{
		Product:        buildProductSummaryPayload(state.Product),
		VisibleOptions: buildOptionPayloads(state.VisibleOptions),
		Selections:     encodeSelections(state.Selections),
		Diagnostics:    buildIssuePayloads(state.Diagnostics),
		Price:          buildPricePayload(state.Price),
		Validation:     buildValidationPayload(state.Validation),
	}
}
