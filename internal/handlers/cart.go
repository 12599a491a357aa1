package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/platform/httpx"
	"github.com/wreath-atelier/api/internal/platform/observability"
	"github.com/wreath-atelier/api/internal/platform/requestctx"
	"github.com/wreath-atelier/api/internal/services"
)

const maxCartBodySize = 64 * 1024

// CartHandlers exposes the cart endpoints that persist finished configurations.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs the cart handlers.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /carts endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{cartID}", h.getCart)
	r.Post("/{cartID}/items", h.attachConfiguration)
	r.Delete("/{cartID}/items/{lineID}", h.removeLine)
}

type cartItemResponse struct {
	ID            string             `json:"id"`
	ProductID     string             `json:"productId"`
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	Quantity      int                `json:"quantity"`
	UnitPrice     int64              `json:"unitPrice"`
	Currency      string             `json:"currency"`
	Configuration []selectionPayload `json:"configuration"`
	AddedAt       string             `json:"addedAt"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	Currency  string             `json:"currency"`
	Items     []cartItemResponse `json:"items"`
	Subtotal  int64              `json:"subtotal"`
	UpdatedAt string             `json:"updatedAt"`
}

func buildCartResponse(cart domain.Cart) cartResponse {
	resp := cartResponse{
		ID:        cart.ID,
		Currency:  cart.Currency,
		Items:     make([]cartItemResponse, 0, len(cart.Items)),
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
	for _, item := range cart.Items {
		entry := cartItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			SKU:           item.SKU,
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Currency:      item.Currency,
			Configuration: make([]selectionPayload, 0, len(item.Configuration)),
			AddedAt:       formatTime(item.AddedAt),
		}
		for _, cfg := range item.Configuration {
			entry.Configuration = append(entry.Configuration, selectionPayload{
				OptionID:    cfg.OptionID,
				ChoiceIDs:   append([]string(nil), cfg.ChoiceIDs...),
				CustomValue: cfg.CustomValue,
			})
		}
		resp.Subtotal += item.UnitPrice * int64(item.Quantity)
		resp.Items = append(resp.Items, entry)
	}
	return resp
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cartID := strings.TrimSpace(chi.URLParam(r, "cartID"))
	cart, err := h.carts.GetCart(ctx, cartID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(cart))
}

type attachItemRequest struct {
	ProductID  string             `json:"productId"`
	Quantity   int                `json:"quantity"`
	Selections []selectionPayload `json:"selections"`
}

func (h *CartHandlers) attachConfiguration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req attachItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	cartID := strings.TrimSpace(chi.URLParam(r, "cartID"))
	cmd := services.AttachConfigurationCommand{
		CartID:     cartID,
		ProductID:  strings.TrimSpace(req.ProductID),
		Quantity:   req.Quantity,
		Selections: decodeSelections(req.Selections),
	}

	cart, err := h.carts.AttachConfiguration(ctx, cmd)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	requestctx.Logger(ctx).Info("configuration attached to cart",
		zap.String("cart_id", observability.SanitizeID(cart.ID)),
		zap.String("product_id", observability.SanitizeID(cmd.ProductID)),
		zap.Int("items", len(cart.Items)),
	)
	writeJSONResponse(w, http.StatusCreated, buildCartResponse(cart))
}

func (h *CartHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cartID := strings.TrimSpace(chi.URLParam(r, "cartID"))
	lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))

	cart, err := h.carts.RemoveLine(ctx, cartID, lineID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(cart))
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var invalid *services.ConfigurationInvalidError
	switch {
	case errors.As(err, &invalid):
		httpx.WriteError(ctx, w, httpx.
			NewError("configuration_invalid", "configuration failed validation", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"issues": buildIssuePayloads(invalid.Issues)}))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartCurrencyMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("currency_mismatch", err.Error(), http.StatusConflict))
	case isNotFoundError(err):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "cart or product not found", http.StatusNotFound))
	case isConflictError(err):
		httpx.WriteError(ctx, w, httpx.NewError("cart_conflict", "cart has been modified; refresh and retry", http.StatusConflict))
	case isUnavailableError(err):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}
