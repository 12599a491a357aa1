package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/repositories"
)

var (
	// ErrCartInvalidInput signals bad request data such as a missing product or non-positive quantity.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartConfigurationInvalid is returned when a configuration fails validation
	// and therefore must not cross into the cart.
	ErrCartConfigurationInvalid = errors.New("cart service: configuration is not valid")
	// ErrCartCurrencyMismatch is returned when a line's currency differs from the cart's.
	ErrCartCurrencyMismatch = errors.New("cart service: currency mismatch")
)

// ConfigurationInvalidError carries the validation issues that blocked an attach.
type ConfigurationInvalidError struct {
	Issues []domain.ValidationIssue
}

// Error implements the error interface.
func (e *ConfigurationInvalidError) Error() string {
	return fmt.Sprintf("%v: %d issue(s)", ErrCartConfigurationInvalid, len(e.Issues))
}

// Unwrap exposes the sentinel for errors.Is checks.
func (e *ConfigurationInvalidError) Unwrap() error { return ErrCartConfigurationInvalid }

// CartServiceDeps bundles constructor inputs for the cart service.
type CartServiceDeps struct {
	Carts    repositories.CartRepository
	Products repositories.ProductRepository
	Text     TextValidator
	Now      func() time.Time
	Entropy  func() *rand.Rand
}

type cartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	text     TextValidator
	now      func() time.Time

	// entropyMu serializes ULID minting: the monotonic reader is not safe for
	// concurrent use.
	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func (s *cartService) mintID(now time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// NewCartService constructs the cart service with the supplied dependencies.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	seed := now().UnixNano()
	source := rand.New(rand.NewSource(seed))
	if deps.Entropy != nil {
		source = deps.Entropy()
	}
	return &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		text:     deps.Text,
		now:      func() time.Time { return now().UTC() },
		entropy:  ulid.Monotonic(source, 0),
	}, nil
}

func (s *cartService) GetCart(ctx context.Context, cartID string) (Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return Cart{}, fmt.Errorf("%w: cart id is required", ErrCartInvalidInput)
	}
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if isRepositoryNotFound(err) {
			return domain.Cart{ID: cartID}, nil
		}
		return Cart{}, err
	}
	return cart, nil
}

// AttachConfiguration validates and prices the configuration, then serializes it
// onto a new cart line item. Invalid configurations never reach persistence.
func (s *cartService) AttachConfiguration(ctx context.Context, cmd AttachConfigurationCommand) (Cart, error) {
	cartID := strings.TrimSpace(cmd.CartID)
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Cart{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}
	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return Cart{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return Cart{}, err
	}

	now := s.now()
	validation := Validate(product.Schema, cmd.Selections, ValidationContext{Now: now, Text: s.text})
	if !validation.IsValid {
		return Cart{}, &ConfigurationInvalidError{Issues: validation.Errors}
	}

	quote := ComputePrice(product.BasePrice, product.Currency, product.Schema, cmd.Selections)

	cart, err := s.loadOrStartCart(ctx, cartID, product.Currency, now)
	if err != nil {
		return Cart{}, err
	}
	if cart.Currency != "" && !strings.EqualFold(cart.Currency, product.Currency) {
		return Cart{}, fmt.Errorf("%w: cart %s, product %s", ErrCartCurrencyMismatch, cart.Currency, product.Currency)
	}

	line := domain.CartLineItem{
		ID:            s.mintID(now),
		ProductID:     product.ID,
		SKU:           product.SKU,
		Name:          product.Name,
		Quantity:      quantity,
		UnitPrice:     quote.Total,
		Currency:      product.Currency,
		Configuration: SerializeConfiguration(product.Schema, cmd.Selections),
		AddedAt:       now,
	}

	expected := expectedUpdateOf(cart)
	cart.Items = append(cart.Items, line)
	cart.Currency = product.Currency
	cart.UpdatedAt = now

	return s.carts.UpsertCart(ctx, cart, expected)
}

func (s *cartService) RemoveLine(ctx context.Context, cartID, lineID string) (Cart, error) {
	cartID = strings.TrimSpace(cartID)
	lineID = strings.TrimSpace(lineID)
	if cartID == "" || lineID == "" {
		return Cart{}, fmt.Errorf("%w: cart and line ids are required", ErrCartInvalidInput)
	}
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	kept := cart.Items[:0:0]
	for _, item := range cart.Items {
		if item.ID != lineID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(cart.Items) {
		return cart, nil
	}
	expected := expectedUpdateOf(cart)
	cart.Items = kept
	cart.UpdatedAt = s.now()
	return s.carts.UpsertCart(ctx, cart, expected)
}

func (s *cartService) loadOrStartCart(ctx context.Context, cartID, currency string, now time.Time) (Cart, error) {
	if cartID == "" {
		return domain.Cart{
			ID:        s.mintID(now),
			Currency:  currency,
			CreatedAt: now,
		}, nil
	}
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if isRepositoryNotFound(err) {
			return domain.Cart{ID: cartID, Currency: currency, CreatedAt: now}, nil
		}
		return Cart{}, err
	}
	return cart, nil
}

// expectedUpdateOf captures the stored cart's last update time before the write
// mutates it, so the repository can reject concurrent modifications. A fresh cart
// has no stored timestamp and writes unconditionally.
func expectedUpdateOf(cart Cart) *time.Time {
	if cart.UpdatedAt.IsZero() {
		return nil
	}
	expected := cart.UpdatedAt
	return &expected
}

func isRepositoryNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
