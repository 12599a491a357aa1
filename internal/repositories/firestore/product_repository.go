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
	"github.com/wreath-atelier/api/internal/platform/pagination"
	"github.com/wreath-atelier/api/internal/repositories"
)

const productCollection = "products"

// ProductRepository persists wreath products and their option schemas in Firestore.
type ProductRepository struct {
	base     *pfirestore.BaseRepository[productDocument]
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		base:     pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil),
		provider: provider,
	}, nil
}

type productDocument struct {
	SKU         string           `firestore:"sku"`
	Slug        string           `firestore:"slug"`
	Name        string           `firestore:"name"`
	Description string           `firestore:"description"`
	BasePrice   int64            `firestore:"basePrice"`
	Currency    string           `firestore:"currency"`
	IsPublished bool             `firestore:"isPublished"`
	Options     []optionDocument `firestore:"options"`
	CreatedAt   time.Time        `firestore:"createdAt"`
	UpdatedAt   time.Time        `firestore:"updatedAt"`
}

type optionDocument struct {
	ID            string              `firestore:"id"`
	Type          string              `firestore:"type"`
	Name          string              `firestore:"name"`
	Required      bool                `firestore:"required"`
	MinSelections int                 `firestore:"minSelections"`
	MaxSelections int                 `firestore:"maxSelections"`
	DependsOn     *dependencyDocument `firestore:"dependsOn,omitempty"`
	Choices       []choiceDocument    `firestore:"choices"`
}

type dependencyDocument struct {
	OptionID          string   `firestore:"optionId"`
	RequiredChoiceIDs []string `firestore:"requiredChoiceIds"`
	Condition         string   `firestore:"condition"`
	Mandatory         bool     `firestore:"mandatory"`
}

type choiceDocument struct {
	ID               string `firestore:"id"`
	Label            string `firestore:"label"`
	PriceModifier    int64  `firestore:"priceModifier"`
	Available        bool   `firestore:"available"`
	AllowCustomInput bool   `firestore:"allowCustomInput"`
	MaxLength        int    `firestore:"maxLength,omitempty"`
	RequiresCalendar bool   `firestore:"requiresCalendar"`
	MinDaysFromNow   int    `firestore:"minDaysFromNow,omitempty"`
	MaxDaysFromNow   int    `firestore:"maxDaysFromNow,omitempty"`
}

// GetProduct fetches a product by its document ID.
func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return productFromDocument(doc.ID, doc.Data), nil
}

// GetProductBySlug fetches a product by its unique slug.
func (r *ProductRepository) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	slug = strings.TrimSpace(slug)
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.WrapError("products.getBySlug", status.Error(codes.NotFound, "product not found"))
	}
	return productFromDocument(docs[0].ID, docs[0].Data), nil
}

// ListProducts returns a cursor page of published product summaries ordered by creation time.
func (r *ProductRepository) ListProducts(ctx context.Context, filter repositories.ProductFilter) (domain.CursorPage[domain.ProductSummary], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.ProductSummary]{}, errors.New("product repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	if pageSize > pagination.DefaultMaxPageSize {
		pageSize = pagination.DefaultMaxPageSize
	}

	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.ProductSummary]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.OnlyPublished {
			q = q.Where("isPublished", "==", true)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.ProductSummary]{}, err
	}

	page := domain.CursorPage[domain.ProductSummary]{}
	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}
	for _, doc := range docs {
		page.Items = append(page.Items, productSummaryFromDocument(doc.ID, doc.Data))
	}
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		token, err := pagination.EncodeToken(pagination.Cursor{
			StartAfter: []any{last.Data.CreatedAt, last.ID},
		})
		if err != nil {
			return domain.CursorPage[domain.ProductSummary]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// UpsertProduct stores the product document under its ID.
func (r *ProductRepository) UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if _, err := r.base.Set(ctx, productID, productToDocument(product)); err != nil {
		return domain.Product{}, err
	}
	product.ID = productID
	return product, nil
}

func productToDocument(product domain.Product) productDocument {
	doc := productDocument{
		SKU:         strings.TrimSpace(product.SKU),
		Slug:        strings.TrimSpace(product.Slug),
		Name:        strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		BasePrice:   product.BasePrice,
		Currency:    strings.ToUpper(strings.TrimSpace(product.Currency)),
		IsPublished: product.IsPublished,
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
	for _, opt := range product.Schema.Options {
		optDoc := optionDocument{
			ID:            opt.ID,
			Type:          string(opt.Type),
			Name:          opt.Name,
			Required:      opt.Required,
			MinSelections: opt.MinSelections,
			MaxSelections: opt.MaxSelections,
		}
		if opt.DependsOn != nil {
			optDoc.DependsOn = &dependencyDocument{
				OptionID:          opt.DependsOn.OptionID,
				RequiredChoiceIDs: append([]string(nil), opt.DependsOn.RequiredChoiceIDs...),
				Condition:         string(opt.DependsOn.Condition),
				Mandatory:         opt.DependsOn.Mandatory,
			}
		}
		for _, choice := range opt.Choices {
			choiceDoc := choiceDocument{
				ID:               choice.ID,
				Label:            choice.Label,
				PriceModifier:    choice.PriceModifier,
				Available:        choice.Available,
				AllowCustomInput: choice.AllowCustomInput,
				RequiresCalendar: choice.RequiresCalendar,
			}
			if choice.TextInput != nil {
				choiceDoc.MaxLength = choice.TextInput.MaxLength
			}
			if choice.Calendar != nil {
				choiceDoc.MinDaysFromNow = choice.Calendar.MinDaysFromNow
				choiceDoc.MaxDaysFromNow = choice.Calendar.MaxDaysFromNow
			}
			optDoc.Choices = append(optDoc.Choices, choiceDoc)
		}
		doc.Options = append(doc.Options, optDoc)
	}
	return doc
}

func productFromDocument(id string, doc productDocument) domain.Product {
	product := domain.Product{
		ProductSummary: productSummaryFromDocument(id, doc),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	for _, optDoc := range doc.Options {
		opt := domain.CustomizationOption{
			ID:            optDoc.ID,
			Type:          domain.OptionType(optDoc.Type),
			Name:          optDoc.Name,
			Required:      optDoc.Required,
			MinSelections: optDoc.MinSelections,
			MaxSelections: optDoc.MaxSelections,
		}
		if optDoc.DependsOn != nil {
			opt.DependsOn = &domain.OptionDependency{
				OptionID:          optDoc.DependsOn.OptionID,
				RequiredChoiceIDs: append([]string(nil), optDoc.DependsOn.RequiredChoiceIDs...),
				Condition:         domain.DependencyCondition(optDoc.DependsOn.Condition),
				Mandatory:         optDoc.DependsOn.Mandatory,
			}
		}
		for _, choiceDoc := range optDoc.Choices {
			choice := domain.CustomizationChoice{
				ID:               choiceDoc.ID,
				Label:            choiceDoc.Label,
				PriceModifier:    choiceDoc.PriceModifier,
				Available:        choiceDoc.Available,
				AllowCustomInput: choiceDoc.AllowCustomInput,
				RequiresCalendar: choiceDoc.RequiresCalendar,
			}
			if choiceDoc.AllowCustomInput {
				choice.TextInput = &domain.TextInputSettings{MaxLength: choiceDoc.MaxLength}
			}
			if choiceDoc.RequiresCalendar {
				choice.Calendar = &domain.CalendarSettings{
					MinDaysFromNow: choiceDoc.MinDaysFromNow,
					MaxDaysFromNow: choiceDoc.MaxDaysFromNow,
				}
			}
			opt.Choices = append(opt.Choices, choice)
		}
		product.Schema.Options = append(product.Schema.Options, opt)
	}
	return product
}

func productSummaryFromDocument(id string, doc productDocument) domain.ProductSummary {
	return domain.ProductSummary{
		ID:          id,
		SKU:         doc.SKU,
		Slug:        doc.Slug,
		Name:        doc.Name,
		Description: doc.Description,
		BasePrice:   doc.BasePrice,
		Currency:    doc.Currency,
		IsPublished: doc.IsPublished,
	}
}
