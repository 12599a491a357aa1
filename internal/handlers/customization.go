package handlers

import (
	"context"
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

const maxCustomizationBodySize = 64 * 1024

// CustomizationHandlers drives the interactive configuration cycle: resolve the
// visible options, apply a choice or custom value, and return the refreshed
// state with pricing and validation in a single response.
type CustomizationHandlers struct {
	engine services.CustomizationService
}

// NewCustomizationHandlers constructs the customization handlers.
func NewCustomizationHandlers(engine services.CustomizationService) *CustomizationHandlers {
	return &CustomizationHandlers{engine: engine}
}

// Routes wires the customization action endpoints onto the /products group.
func (h *CustomizationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{productID}/customization:resolve", h.resolve)
	r.Post("/{productID}/customization:choose", h.choose)
	r.Post("/{productID}/customization:custom-value", h.customValue)
	r.Post("/{productID}/customization:price", h.price)
	r.Post("/{productID}/customization:validate", h.validate)
	r.Post("/{productID}/customization:recover", h.recover)
}

type resolveRequest struct {
	Selections []selectionPayload `json:"selections"`
}

type chooseRequest struct {
	Selections []selectionPayload `json:"selections"`
	OptionID   string             `json:"optionId"`
	ChoiceID   string             `json:"choiceId"`
}

type customValueRequest struct {
	Selections []selectionPayload `json:"selections"`
	OptionID   string             `json:"optionId"`
	Value      string             `json:"value"`
}

type recoverRequest struct {
	Selections []selectionPayload     `json:"selections"`
	Issue      validationIssuePayload `json:"issue"`
}

func (h *CustomizationHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req resolveRequest
	if !h.decodeRequest(ctx, w, r, &req) {
		return
	}

	state, err := h.engine.Resolve(ctx, chi.URLParam(r, "productID"), decodeSelections(req.Selections))
	if err != nil {
		writeCustomizationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(state))
}

func (h *CustomizationHandlers) choose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req chooseRequest
	if !h.decodeRequest(ctx, w, r, &req) {
		return
	}

	state, err := h.engine.Choose(ctx, chi.URLParam(r, "productID"), decodeSelections(req.Selections), strings.TrimSpace(req.OptionID), strings.TrimSpace(req.ChoiceID))
	if err != nil {
		writeCustomizationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(state))
}

func (h *CustomizationHandlers) customValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req customValueRequest
	if !h.decodeRequest(ctx, w, r, &req) {
		return
	}

	state, err := h.engine.SetCustomValue(ctx, chi.URLParam(r, "productID"), decodeSelections(req.Selections), strings.TrimSpace(req.OptionID), req.Value)
	if err != nil {
		writeCustomizationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(state))
}

func (h *CustomizationHandlers) price(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req resolveRequest
	if !h.decodeRequest(ctx, w, r, &req) {
		return
	}

	state, err := h.engine.Resolve(ctx, chi.URLParam(r, "productID"), decodeSelections(req.Selections))
	if err != nil {
		writeCustomizationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPricePayload(state.Price))
}

func (h *CustomizationHandlers) validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req resolveRequest
	if !h.decodeRequest(ctx, w, r, &req) {
		return
	}

	state, err := h.engine.Resolve(ctx, chi.URLParam(r, "productID"), decodeSelections(req.Selections))
	if err != nil {
		writeCustomizationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildValidationPayload(state.Validation))
}

func (h *CustomizationHandlers) recover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req recoverRequest
	if !h.decodeRequest(ctx, w, r, &req) {
		return
	}

	issue := domain.ValidationIssue{
		Code:              strings.TrimSpace(req.Issue.Code),
		Severity:          domain.IssueSeverity(req.Issue.Severity),
		OptionID:          strings.TrimSpace(req.Issue.OptionID),
		Message:           req.Issue.Message,
		RecoveryAvailable: req.Issue.RecoveryAvailable,
		RecoveryAction:    domain.RecoveryAction(strings.TrimSpace(req.Issue.RecoveryAction)),
	}
	if issue.RecoveryAction == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "issue.recoveryAction is required", http.StatusBadRequest))
		return
	}

	state, err := h.engine.Recover(ctx, chi.URLParam(r, "productID"), decodeSelections(req.Selections), issue)
	if err != nil {
		writeCustomizationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildStatePayload(state))
}

func (h *CustomizationHandlers) decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxCustomizationBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errEmptyBody):
			// Resolving with no prior selections is the entry point of the flow.
			return true
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return false
	}
	return true
}

func writeCustomizationError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCustomizationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case isNotFoundError(err):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case isUnavailableError(err):
		httpx.WriteError(ctx, w, httpx.NewError("customization_service_unavailable", "customization service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}
