package repositories

import (
	"context"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductFilter narrows product listings at the repository boundary.
type ProductFilter struct {
	OnlyPublished bool
	Pagination    domain.Pagination
}

// ProductRepository persists wreath products and their option schemas.
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) (domain.CursorPage[domain.ProductSummary], error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error)
}

// CartRepository persists cart documents keyed by cart ID.
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (domain.Cart, error)
	UpsertCart(ctx context.Context, cart domain.Cart, expectedUpdate *time.Time) (domain.Cart, error)
}

// HealthRepository probes backing dependencies for readiness checks.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
