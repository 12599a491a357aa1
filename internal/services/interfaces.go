package services

import (
	"context"

	domain "github.com/wreath-atelier/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	SortOrder           = domain.SortOrder
	OptionSchema        = domain.OptionSchema
	CustomizationOption = domain.CustomizationOption
	CustomizationChoice = domain.CustomizationChoice
	Selection           = domain.Selection
	SelectionSet        = domain.SelectionSet
	PriceQuote          = domain.PriceQuote
	PriceBreakdownEntry = domain.PriceBreakdownEntry
	ValidationIssue     = domain.ValidationIssue
	ValidationResult    = domain.ValidationResult
	SchemaDiagnostic    = domain.SchemaDiagnostic
	Product             = domain.Product
	ProductSummary      = domain.ProductSummary
	Cart                = domain.Cart
	CartLineItem        = domain.CartLineItem
	ConfigurationEntry  = domain.ConfigurationEntry
)

// CatalogService exposes the published wreath catalog to public handlers and the
// authoring surface used by admin tooling.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) (domain.CursorPage[ProductSummary], error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	UpsertProduct(ctx context.Context, product Product) (Product, error)
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Pagination Pagination
}

// CustomizationState is the full engine output returned after every mutation:
// what to show, the normalized selections, the price, and the validation result.
type CustomizationState struct {
	Product        ProductSummary
	VisibleOptions []CustomizationOption
	Selections     SelectionSet
	Diagnostics    []ValidationIssue
	Price          PriceQuote
	Validation     ValidationResult
}

// CustomizationService runs the resolve, reconcile, price, and validate cycle for a
// product. Every call is stateless; the caller owns the selection set.
type CustomizationService interface {
	Resolve(ctx context.Context, productID string, selections SelectionSet) (CustomizationState, error)
	Choose(ctx context.Context, productID string, selections SelectionSet, optionID, choiceID string) (CustomizationState, error)
	SetCustomValue(ctx context.Context, productID string, selections SelectionSet, optionID, value string) (CustomizationState, error)
	Recover(ctx context.Context, productID string, selections SelectionSet, issue ValidationIssue) (CustomizationState, error)
}

// AttachConfigurationCommand carries a finished configuration into the cart.
type AttachConfigurationCommand struct {
	CartID     string
	ProductID  string
	Quantity   int
	Selections SelectionSet
}

// CartService persists validated configurations as cart line items. It is the only
// component that carries customization data across the persistence boundary.
type CartService interface {
	GetCart(ctx context.Context, cartID string) (Cart, error)
	AttachConfiguration(ctx context.Context, cmd AttachConfigurationCommand) (Cart, error)
	RemoveLine(ctx context.Context, cartID, lineID string) (Cart, error)
}
