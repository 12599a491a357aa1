package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/platform/httpx"
	"github.com/wreath-atelier/api/internal/platform/pagination"
	"github.com/wreath-atelier/api/internal/repositories"
	"github.com/wreath-atelier/api/internal/services"
)

// CatalogHandlers exposes the published product catalog.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs the catalog read handlers.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
}

type productListResponse struct {
	Products      []productSummaryPayload `json:"products"`
	NextPageToken string                  `json:"nextPageToken,omitempty"`
}

type productDetailResponse struct {
	Product     productSummaryPayload    `json:"product"`
	Options     []optionPayload          `json:"options"`
	Diagnostics []validationIssuePayload `json:"diagnostics,omitempty"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	filter := services.ProductFilter{
		Pagination: domain.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	resp := productListResponse{
		Products:      make([]productSummaryPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, summary := range page.Items {
		resp.Products = append(resp.Products, buildProductSummaryPayload(summary))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	// Slugs double as product handles on the storefront.
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil && isNotFoundError(err) {
		product, err = h.catalog.GetProductBySlug(ctx, productID)
	}
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productDetailResponse{
		Product:     buildProductSummaryPayload(product.ProductSummary),
		Options:     buildOptionPayloads(product.Schema.Options),
		Diagnostics: buildIssuePayloads(diagnosticsToIssues(product.Diagnostics)),
	})
}

func diagnosticsToIssues(diagnostics []domain.SchemaDiagnostic) []domain.ValidationIssue {
	issues := make([]domain.ValidationIssue, 0, len(diagnostics))
	for _, diag := range diagnostics {
		issues = append(issues, domain.ValidationIssue{
			Code:     diag.Code,
			Severity: domain.SeverityWarning,
			OptionID: diag.OptionID,
			Message:  diag.Detail,
		})
	}
	return issues
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case isNotFoundError(err):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case isUnavailableError(err):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

func isNotFoundError(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflictError(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func isUnavailableError(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
