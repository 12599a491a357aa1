package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/platform/httpx"
	"github.com/wreath-atelier/api/internal/services"
)

const maxAdminBodySize = 256 * 1024

// AdminCatalogHandlers exposes product authoring for back-office tooling.
type AdminCatalogHandlers struct {
	catalog services.CatalogService
}

// NewAdminCatalogHandlers constructs the admin catalog handlers.
func NewAdminCatalogHandlers(catalog services.CatalogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{catalog: catalog}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Put("/products/{productID}", h.upsertProduct)
}

// AdminTokenMiddleware rejects requests missing the shared authoring token.
// An empty configured token closes the admin surface entirely.
func AdminTokenMiddleware(token string) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if len(expected) == 0 {
				httpx.WriteError(ctx, w, httpx.NewError("admin_disabled", "admin endpoints are not configured", http.StatusForbidden))
				return
			}
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), expected) != 1 {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "valid admin token required", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type upsertProductRequest struct {
	SKU         string          `json:"sku"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   int64           `json:"basePrice"`
	Currency    string          `json:"currency"`
	IsPublished bool            `json:"isPublished"`
	Options     []optionPayload `json:"options"`
}

type upsertProductResponse struct {
	Product     productSummaryPayload    `json:"product"`
	Options     []optionPayload          `json:"options"`
	Diagnostics []validationIssuePayload `json:"diagnostics,omitempty"`
}

func (h *AdminCatalogHandlers) upsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req upsertProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	product := domain.Product{
		ProductSummary: domain.ProductSummary{
			ID:          strings.TrimSpace(chi.URLParam(r, "productID")),
			SKU:         strings.TrimSpace(req.SKU),
			Slug:        strings.TrimSpace(req.Slug),
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			BasePrice:   req.BasePrice,
			Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
			IsPublished: req.IsPublished,
		},
		Schema: domain.OptionSchema{Options: decodeOptionPayloads(req.Options)},
	}

	stored, err := h.catalog.UpsertProduct(ctx, product)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, upsertProductResponse{
		Product:     buildProductSummaryPayload(stored.ProductSummary),
		Options:     buildOptionPayloads(stored.Schema.Options),
		Diagnostics: buildIssuePayloads(diagnosticsToIssues(stored.Diagnostics)),
	})
}

func decodeOptionPayloads(payloads []optionPayload) []domain.CustomizationOption {
	options := make([]domain.CustomizationOption, 0, len(payloads))
	for _, p := range payloads {
		opt := domain.CustomizationOption{
			ID:            strings.TrimSpace(p.ID),
			Type:          domain.OptionType(strings.TrimSpace(p.Type)),
			Name:          strings.TrimSpace(p.Name),
			Required:      p.Required,
			MinSelections: p.MinSelections,
			MaxSelections: p.MaxSelections,
		}
		if p.DependsOn != nil {
			opt.DependsOn = &domain.OptionDependency{
				OptionID:          strings.TrimSpace(p.DependsOn.OptionID),
				RequiredChoiceIDs: append([]string(nil), p.DependsOn.RequiredChoiceIDs...),
				Condition:         domain.DependencyConditionSelected,
				Mandatory:         p.DependsOn.Mandatory,
			}
		}
		for _, c := range p.Choices {
			choice := domain.CustomizationChoice{
				ID:               strings.TrimSpace(c.ID),
				Label:            c.Label,
				PriceModifier:    c.PriceModifier,
				Available:        c.Available,
				AllowCustomInput: c.AllowCustomInput,
				RequiresCalendar: c.RequiresCalendar,
			}
			if c.AllowCustomInput {
				choice.TextInput = &domain.TextInputSettings{MaxLength: c.MaxLength}
			}
			if c.RequiresCalendar {
				choice.Calendar = &domain.CalendarSettings{
					MinDaysFromNow: c.MinDaysFromNow,
					MaxDaysFromNow: c.MaxDaysFromNow,
				}
			}
			opt.Choices = append(opt.Choices, choice)
		}
		options = append(options, opt)
	}
	return options
}
