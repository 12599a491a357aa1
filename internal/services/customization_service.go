package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
)

var (
	// ErrCustomizationInvalidInput signals bad request data such as a missing product ID.
	ErrCustomizationInvalidInput = errors.New("customization service: invalid input")
	// ErrCustomizationCatalogMissing indicates the catalog dependency is absent.
	ErrCustomizationCatalogMissing = errors.New("customization service: catalog service is required")
)

// CustomizationServiceDeps bundles constructor inputs for the customization service.
type CustomizationServiceDeps struct {
	Catalog CatalogService
	Text    TextValidator
	Now     func() time.Time

	// SuppressRecoveryHints and SuppressNearLimitWarnings mirror the feature
	// flags; both default to off, keeping the full validation payload.
	SuppressRecoveryHints     bool
	SuppressNearLimitWarnings bool
}

type customizationService struct {
	catalog                   CatalogService
	text                      TextValidator
	now                       func() time.Time
	suppressRecoveryHints     bool
	suppressNearLimitWarnings bool
}

// NewCustomizationService constructs the stateless customization orchestrator.
func NewCustomizationService(deps CustomizationServiceDeps) (CustomizationService, error) {
	if deps.Catalog == nil {
		return nil, ErrCustomizationCatalogMissing
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &customizationService{
		catalog:                   deps.Catalog,
		text:                      deps.Text,
		now:                       func() time.Time { return now().UTC() },
		suppressRecoveryHints:     deps.SuppressRecoveryHints,
		suppressNearLimitWarnings: deps.SuppressNearLimitWarnings,
	}, nil
}

func (s *customizationService) Resolve(ctx context.Context, productID string, selections SelectionSet) (CustomizationState, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return CustomizationState{}, err
	}
	return s.buildState(product, selections), nil
}

func (s *customizationService) Choose(ctx context.Context, productID string, selections SelectionSet, optionID, choiceID string) (CustomizationState, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return CustomizationState{}, err
	}
	optionID = strings.TrimSpace(optionID)
	choiceID = strings.TrimSpace(choiceID)
	if optionID == "" || choiceID == "" {
		return CustomizationState{}, fmt.Errorf("%w: option and choice ids are required", ErrCustomizationInvalidInput)
	}
	next := ApplyChoice(product.Schema, selections, optionID, choiceID)
	return s.buildState(product, next), nil
}

func (s *customizationService) SetCustomValue(ctx context.Context, productID string, selections SelectionSet, optionID, value string) (CustomizationState, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return CustomizationState{}, err
	}
	optionID = strings.TrimSpace(optionID)
	if optionID == "" {
		return CustomizationState{}, fmt.Errorf("%w: option id is required", ErrCustomizationInvalidInput)
	}
	next := ApplyCustomValue(product.Schema, selections, optionID, value)
	return s.buildState(product, next), nil
}

func (s *customizationService) Recover(ctx context.Context, productID string, selections SelectionSet, issue ValidationIssue) (CustomizationState, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return CustomizationState{}, err
	}
	next := ApplyRecovery(product.Schema, selections, issue)
	return s.buildState(product, next), nil
}

func (s *customizationService) loadProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCustomizationInvalidInput)
	}
	return s.catalog.GetProduct(ctx, productID)
}

// buildState runs one full resolve -> price -> validate pass over the selection set.
// The selection set it returns is the one the caller must carry into the next mutation.
func (s *customizationService) buildState(product Product, selections SelectionSet) CustomizationState {
	visible, diagnostics := VisibleOptions(product.Schema, selections)
	price := ComputePrice(product.BasePrice, product.Currency, product.Schema, selections)
	validation := Validate(product.Schema, selections, ValidationContext{
		Now:                       s.now(),
		Text:                      s.text,
		SuppressRecoveryHints:     s.suppressRecoveryHints,
		SuppressNearLimitWarnings: s.suppressNearLimitWarnings,
	})
	return CustomizationState{
		Product:        product.ProductSummary,
		VisibleOptions: visible,
		Selections:     selections,
		Diagnostics:    diagnostics,
		Price:          price,
		Validation:     validation,
	}
}

// SerializeConfiguration flattens a selection set into the wire form attached to a
// cart line item. Only options present in the schema survive serialization.
func SerializeConfiguration(schema domain.OptionSchema, selections SelectionSet) []ConfigurationEntry {
	out := make([]ConfigurationEntry, 0, len(selections))
	for _, sel := range selections {
		if _, ok := schema.Option(sel.OptionID); !ok {
			continue
		}
		entry := ConfigurationEntry{OptionID: sel.OptionID}
		if len(sel.ChoiceIDs) > 0 {
			entry.ChoiceIDs = append([]string(nil), sel.ChoiceIDs...)
		}
		if sel.CustomValue != nil {
			v := *sel.CustomValue
			entry.CustomValue = &v
		}
		out = append(out, entry)
	}
	return out
}
