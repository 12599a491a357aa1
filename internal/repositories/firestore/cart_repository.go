package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/wreath-atelier/api/internal/domain"
	pfirestore "github.com/wreath-atelier/api/internal/platform/firestore"
)

const cartCollection = "carts"

// CartRepository persists shopper carts and their configured line items in Firestore.
type CartRepository struct {
	base     *pfirestore.BaseRepository[cartDocument]
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base:     pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil),
		provider: provider,
	}, nil
}

type cartDocument struct {
	Currency  string             `firestore:"currency"`
	Items     []cartItemDocument `firestore:"items"`
	CreatedAt time.Time          `firestore:"createdAt"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ID            string                  `firestore:"id"`
	ProductID     string                  `firestore:"productId"`
	SKU           string                  `firestore:"sku"`
	Name          string                  `firestore:"name"`
	Quantity      int                     `firestore:"quantity"`
	UnitPrice     int64                   `firestore:"unitPrice"`
	Currency      string                  `firestore:"currency"`
	Configuration []configurationDocument `firestore:"configuration"`
	AddedAt       time.Time               `firestore:"addedAt"`
}

type configurationDocument struct {
	OptionID    string   `firestore:"optionId"`
	ChoiceIDs   []string `firestore:"choiceIds"`
	CustomValue *string  `firestore:"customValue,omitempty"`
}

// GetCart fetches a cart by its document ID.
func (r *CartRepository) GetCart(ctx context.Context, cartID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(cartID))
	if err != nil {
		return domain.Cart{}, err
	}
	return cartFromDocument(doc.ID, doc.Data), nil
}

// UpsertCart stores the cart. When expectedUpdate is provided the write runs in a
// transaction and fails with a conflict if the stored document was modified after
// that timestamp.
func (r *CartRepository) UpsertCart(ctx context.Context, cart domain.Cart, expectedUpdate *time.Time) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	cartID := strings.TrimSpace(cart.ID)
	if cartID == "" {
		return domain.Cart{}, errors.New("cart repository: cart id is required")
	}

	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	doc := cartToDocument(cart)
	cart.ID = cartID

	if expectedUpdate == nil {
		if _, err := r.base.Set(ctx, cartID, doc); err != nil {
			return domain.Cart{}, err
		}
		return cart, nil
	}

	ref, err := r.base.DocumentRef(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}

	expected := expectedUpdate.UTC()
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			// first write for this cart id
		case err != nil:
			return err
		default:
			var current cartDocument
			if err := snapshot.DataTo(&current); err != nil {
				return err
			}
			if current.UpdatedAt.After(expected) {
				return status.Error(codes.FailedPrecondition, "cart modified concurrently")
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func cartToDocument(cart domain.Cart) cartDocument {
	doc := cartDocument{
		Currency:  strings.ToUpper(strings.TrimSpace(cart.Currency)),
		CreatedAt: cart.CreatedAt.UTC(),
		UpdatedAt: cart.UpdatedAt.UTC(),
	}
	for _, item := range cart.Items {
		itemDoc := cartItemDocument{
			ID:        item.ID,
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Currency:  item.Currency,
			AddedAt:   item.AddedAt.UTC(),
		}
		for _, entry := range item.Configuration {
			itemDoc.Configuration = append(itemDoc.Configuration, configurationDocument{
				OptionID:    entry.OptionID,
				ChoiceIDs:   append([]string(nil), entry.ChoiceIDs...),
				CustomValue: entry.CustomValue,
			})
		}
		doc.Items = append(doc.Items, itemDoc)
	}
	return doc
}

func cartFromDocument(id string, doc cartDocument) domain.Cart {
	cart := domain.Cart{
		ID:        id,
		Currency:  doc.Currency,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, itemDoc := range doc.Items {
		item := domain.CartLineItem{
			ID:        itemDoc.ID,
			ProductID: itemDoc.ProductID,
			SKU:       itemDoc.SKU,
			Name:      itemDoc.Name,
			Quantity:  itemDoc.Quantity,
			UnitPrice: itemDoc.UnitPrice,
			Currency:  itemDoc.Currency,
			AddedAt:   itemDoc.AddedAt,
		}
		for _, entryDoc := range itemDoc.Configuration {
			item.Configuration = append(item.Configuration, domain.ConfigurationEntry{
				OptionID:    entryDoc.OptionID,
				ChoiceIDs:   append([]string(nil), entryDoc.ChoiceIDs...),
				CustomValue: entryDoc.CustomValue,
			})
		}
		cart.Items = append(cart.Items, item)
	}
	return cart
}
