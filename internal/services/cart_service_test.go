package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
)

type stubCartRepository struct {
	mu             sync.Mutex
	carts          map[string]domain.Cart
	getErr         error
	upsertErr      error
	upserted       domain.Cart
	upsertCalls    int
	expectedUpdate *time.Time
}

func (s *stubCartRepository) GetCart(_ context.Context, cartID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return domain.Cart{}, s.getErr
	}
	cart, ok := s.carts[cartID]
	if !ok {
		return domain.Cart{}, stubRepoError{notFound: true}
	}
	return cart, nil
}

func (s *stubCartRepository) UpsertCart(_ context.Context, cart domain.Cart, expectedUpdate *time.Time) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	s.expectedUpdate = expectedUpdate
	if s.upsertErr != nil {
		return domain.Cart{}, s.upsertErr
	}
	s.upserted = cart
	return cart, nil
}

func newCartFixture(t *testing.T, carts *stubCartRepository) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Carts: carts,
		Products: &stubProductRepository{products: map[string]domain.Product{
			"prd_wreath_classic": wreathTestProduct(),
		}},
		Now:     func() time.Time { return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC) },
		Entropy: func() *rand.Rand { return rand.New(rand.NewSource(1)) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func validWreathSelections() domain.SelectionSet {
	return domain.SelectionSet{
		selectionOf("size", "medium"),
		selectionOf("ribbon", "no"),
	}
}

func TestNewCartService(t *testing.T) {
	if _, err := NewCartService(CartServiceDeps{Products: &stubProductRepository{}}); err == nil {
		t.Fatalf("expected error without cart repository")
	}
	if _, err := NewCartService(CartServiceDeps{Carts: &stubCartRepository{}}); err == nil {
		t.Fatalf("expected error without product repository")
	}
}

func TestCartServiceGetCart(t *testing.T) {
	t.Run("blank id is invalid input", func(t *testing.T) {
		svc := newCartFixture(t, &stubCartRepository{})
		if _, err := svc.GetCart(context.Background(), "  "); !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("expected ErrCartInvalidInput, got %v", err)
		}
	})

	t.Run("unknown cart id starts empty", func(t *testing.T) {
		svc := newCartFixture(t, &stubCartRepository{})
		cart, err := svc.GetCart(context.Background(), "crt_new")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cart.ID != "crt_new" || len(cart.Items) != 0 {
			t.Fatalf("expected empty cart shell, got %#v", cart)
		}
	})

	t.Run("other repository errors pass through", func(t *testing.T) {
		svc := newCartFixture(t, &stubCartRepository{getErr: stubRepoError{unavailable: true}})
		if _, err := svc.GetCart(context.Background(), "crt_x"); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestCartServiceAttachConfiguration(t *testing.T) {
	t.Run("requires a product id", func(t *testing.T) {
		svc := newCartFixture(t, &stubCartRepository{})
		_, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{})
		if !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("expected ErrCartInvalidInput, got %v", err)
		}
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		svc := newCartFixture(t, &stubCartRepository{})
		_, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			ProductID: "prd_wreath_classic",
			Quantity:  -2,
		})
		if !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("expected ErrCartInvalidInput, got %v", err)
		}
	})

	t.Run("invalid configuration never reaches persistence", func(t *testing.T) {
		carts := &stubCartRepository{}
		svc := newCartFixture(t, carts)
		_, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			ProductID:  "prd_wreath_classic",
			Selections: domain.SelectionSet{selectionOf("ribbon", "no")},
		})
		if !errors.Is(err, ErrCartConfigurationInvalid) {
			t.Fatalf("expected ErrCartConfigurationInvalid, got %v", err)
		}
		var invalid *ConfigurationInvalidError
		if !errors.As(err, &invalid) || len(invalid.Issues) == 0 {
			t.Fatalf("expected carried issues, got %v", err)
		}
		if carts.upsertCalls != 0 {
			t.Fatalf("invalid configuration was persisted")
		}
	})

	t.Run("valid configuration becomes a priced line item", func(t *testing.T) {
		carts := &stubCartRepository{}
		svc := newCartFixture(t, carts)
		cart, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			ProductID:  "prd_wreath_classic",
			Selections: validWreathSelections(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cart.ID == "" {
			t.Fatalf("expected a generated cart id")
		}
		if len(cart.Items) != 1 {
			t.Fatalf("expected one line item, got %#v", cart.Items)
		}
		line := cart.Items[0]
		if line.ID == "" {
			t.Fatalf("expected a generated line id")
		}
		if line.Quantity != 1 {
			t.Fatalf("expected quantity defaulted to 1, got %d", line.Quantity)
		}
		if line.UnitPrice != 1700 {
			t.Fatalf("expected unit price 1700, got %d", line.UnitPrice)
		}
		if line.Currency != "EUR" || cart.Currency != "EUR" {
			t.Fatalf("expected currency adopted from the product, got %#v", cart)
		}
		if len(line.Configuration) != 2 {
			t.Fatalf("expected serialized configuration, got %#v", line.Configuration)
		}
		if carts.upsertCalls != 1 {
			t.Fatalf("expected one upsert, got %d", carts.upsertCalls)
		}
	})

	t.Run("appends to an existing cart", func(t *testing.T) {
		existing := domain.Cart{
			ID:       "crt_1",
			Currency: "EUR",
			Items:    []domain.CartLineItem{{ID: "line_1", ProductID: "prd_other", Quantity: 1, UnitPrice: 900, Currency: "EUR"}},
		}
		carts := &stubCartRepository{carts: map[string]domain.Cart{"crt_1": existing}}
		svc := newCartFixture(t, carts)
		cart, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			CartID:     "crt_1",
			ProductID:  "prd_wreath_classic",
			Quantity:   2,
			Selections: validWreathSelections(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cart.Items) != 2 {
			t.Fatalf("expected two line items, got %#v", cart.Items)
		}
		if cart.Items[1].Quantity != 2 {
			t.Fatalf("expected quantity 2, got %d", cart.Items[1].Quantity)
		}
	})

	t.Run("carries the stored update time for conflict detection", func(t *testing.T) {
		updated := time.Date(2026, time.March, 9, 18, 0, 0, 0, time.UTC)
		existing := domain.Cart{ID: "crt_1", Currency: "EUR", UpdatedAt: updated}
		carts := &stubCartRepository{carts: map[string]domain.Cart{"crt_1": existing}}
		svc := newCartFixture(t, carts)
		if _, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			CartID:     "crt_1",
			ProductID:  "prd_wreath_classic",
			Selections: validWreathSelections(),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if carts.expectedUpdate == nil || !carts.expectedUpdate.Equal(updated) {
			t.Fatalf("expected the stored update time threaded through, got %v", carts.expectedUpdate)
		}
	})

	t.Run("fresh cart writes without an expected update time", func(t *testing.T) {
		carts := &stubCartRepository{}
		svc := newCartFixture(t, carts)
		if _, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			ProductID:  "prd_wreath_classic",
			Selections: validWreathSelections(),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if carts.expectedUpdate != nil {
			t.Fatalf("fresh cart must write unconditionally, got %v", carts.expectedUpdate)
		}
	})

	t.Run("concurrent modification conflict passes through", func(t *testing.T) {
		updated := time.Date(2026, time.March, 9, 18, 0, 0, 0, time.UTC)
		existing := domain.Cart{ID: "crt_1", Currency: "EUR", UpdatedAt: updated}
		carts := &stubCartRepository{
			carts:     map[string]domain.Cart{"crt_1": existing},
			upsertErr: stubRepoError{conflict: true},
		}
		svc := newCartFixture(t, carts)
		_, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			CartID:     "crt_1",
			ProductID:  "prd_wreath_classic",
			Selections: validWreathSelections(),
		})
		var repoErr stubRepoError
		if !errors.As(err, &repoErr) || !repoErr.IsConflict() {
			t.Fatalf("expected conflict error, got %v", err)
		}
	})

	t.Run("concurrent attaches mint distinct line ids", func(t *testing.T) {
		carts := &stubCartRepository{}
		svc := newCartFixture(t, carts)
		const workers, rounds = 8, 25

		var mu sync.Mutex
		seen := make(map[string]struct{})
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					cart, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
						ProductID:  "prd_wreath_classic",
						Selections: validWreathSelections(),
					})
					if err != nil {
						t.Errorf("unexpected error: %v", err)
						return
					}
					mu.Lock()
					for _, item := range cart.Items {
						seen[item.ID] = struct{}{}
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(seen) != workers*rounds {
			t.Fatalf("expected %d distinct line ids, got %d", workers*rounds, len(seen))
		}
	})

	t.Run("rejects mixing currencies in one cart", func(t *testing.T) {
		existing := domain.Cart{ID: "crt_1", Currency: "USD"}
		carts := &stubCartRepository{carts: map[string]domain.Cart{"crt_1": existing}}
		svc := newCartFixture(t, carts)
		_, err := svc.AttachConfiguration(context.Background(), AttachConfigurationCommand{
			CartID:     "crt_1",
			ProductID:  "prd_wreath_classic",
			Selections: validWreathSelections(),
		})
		if !errors.Is(err, ErrCartCurrencyMismatch) {
			t.Fatalf("expected ErrCartCurrencyMismatch, got %v", err)
		}
	})
}

func TestCartServiceRemoveLine(t *testing.T) {
	existing := domain.Cart{
		ID:       "crt_1",
		Currency: "EUR",
		Items: []domain.CartLineItem{
			{ID: "line_1", ProductID: "prd_a"},
			{ID: "line_2", ProductID: "prd_b"},
		},
	}

	t.Run("requires both ids", func(t *testing.T) {
		svc := newCartFixture(t, &stubCartRepository{})
		if _, err := svc.RemoveLine(context.Background(), "crt_1", " "); !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("expected ErrCartInvalidInput, got %v", err)
		}
	})

	t.Run("removes the named line and persists", func(t *testing.T) {
		carts := &stubCartRepository{carts: map[string]domain.Cart{"crt_1": existing}}
		svc := newCartFixture(t, carts)
		cart, err := svc.RemoveLine(context.Background(), "crt_1", "line_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cart.Items) != 1 || cart.Items[0].ID != "line_2" {
			t.Fatalf("unexpected items: %#v", cart.Items)
		}
		if carts.upsertCalls != 1 {
			t.Fatalf("expected one upsert, got %d", carts.upsertCalls)
		}
	})

	t.Run("removal carries the stored update time", func(t *testing.T) {
		updated := time.Date(2026, time.March, 9, 18, 0, 0, 0, time.UTC)
		stored := existing
		stored.UpdatedAt = updated
		carts := &stubCartRepository{carts: map[string]domain.Cart{"crt_1": stored}}
		svc := newCartFixture(t, carts)
		if _, err := svc.RemoveLine(context.Background(), "crt_1", "line_1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if carts.expectedUpdate == nil || !carts.expectedUpdate.Equal(updated) {
			t.Fatalf("expected the stored update time threaded through, got %v", carts.expectedUpdate)
		}
	})

	t.Run("unknown line is a no-op without persistence", func(t *testing.T) {
		carts := &stubCartRepository{carts: map[string]domain.Cart{"crt_1": existing}}
		svc := newCartFixture(t, carts)
		cart, err := svc.RemoveLine(context.Background(), "crt_1", "line_404")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cart.Items) != 2 {
			t.Fatalf("unexpected items: %#v", cart.Items)
		}
		if carts.upsertCalls != 0 {
			t.Fatalf("no-op removal must not persist, got %d upserts", carts.upsertCalls)
		}
	})
}
