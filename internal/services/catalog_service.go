package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/repositories"
)

var (
	// ErrCatalogRepositoryMissing indicates the repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: repository is not configured")
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a catalog call.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Clock    func() time.Time

	// DefaultCurrency is applied to authored products that omit one.
	DefaultCurrency string
	// DefaultPageSize bounds listings when the caller does not page explicitly.
	DefaultPageSize int
}

type catalogService struct {
	repo            repositories.ProductRepository
	clock           func() time.Time
	defaultCurrency string
	defaultPageSize int
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.DefaultCurrency))
	if currency == "" {
		currency = "EUR"
	}
	pageSize := deps.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &catalogService{
		repo:            deps.Products,
		clock:           func() time.Time { return clock().UTC() },
		defaultCurrency: currency,
		defaultPageSize: pageSize,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) (domain.CursorPage[ProductSummary], error) {
	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	repoFilter := repositories.ProductFilter{
		OnlyPublished: true,
		Pagination: domain.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(filter.Pagination.PageToken),
		},
	}
	return s.repo.ListProducts(ctx, repoFilter)
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, err
	}
	return finishProduct(product), nil
}

func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Product{}, fmt.Errorf("%w: slug is required", ErrCatalogInvalidInput)
	}
	product, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	return finishProduct(product), nil
}

func (s *catalogService) UpsertProduct(ctx context.Context, product Product) (Product, error) {
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if strings.TrimSpace(product.Name) == "" {
		return Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if product.BasePrice < 0 {
		return Product{}, fmt.Errorf("%w: base price must not be negative", ErrCatalogInvalidInput)
	}
	product.Currency = strings.ToUpper(strings.TrimSpace(product.Currency))
	if product.Currency == "" {
		product.Currency = s.defaultCurrency
	}
	if len(product.Currency) != 3 {
		return Product{}, fmt.Errorf("%w: currency must be a 3-letter code", ErrCatalogInvalidInput)
	}

	stored, err := s.repo.UpsertProduct(ctx, product)
	if err != nil {
		return Product{}, err
	}
	// Authors see dependency diagnostics immediately at write time rather than
	// discovering a broken schema on the storefront.
	return finishProduct(stored), nil
}

// finishProduct runs the schema integrity analysis so handlers can surface
// diagnostics alongside the product without re-deriving them.
func finishProduct(product domain.Product) domain.Product {
	product.Diagnostics = AnalyzeSchema(product.Schema)
	return product
}
