package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/wreath-atelier/api/internal/domain"
	"github.com/wreath-atelier/api/internal/services"
)

type stubCartService struct {
	cart domain.Cart
	err  error

	getID     string
	attachCmd services.AttachConfigurationCommand
	removedID string
}

func (s *stubCartService) GetCart(_ context.Context, cartID string) (domain.Cart, error) {
	s.getID = cartID
	return s.cart, s.err
}

func (s *stubCartService) AttachConfiguration(_ context.Context, cmd services.AttachConfigurationCommand) (domain.Cart, error) {
	s.attachCmd = cmd
	return s.cart, s.err
}

func (s *stubCartService) RemoveLine(_ context.Context, cartID, lineID string) (domain.Cart, error) {
	s.getID, s.removedID = cartID, lineID
	return s.cart, s.err
}

func newCartRouter(svc services.CartService) http.Handler {
	h := NewCartHandlers(svc)
	return NewRouter(WithCartRoutes(h.Routes))
}

func sampleCart() domain.Cart {
	value := "Forever loved"
	return domain.Cart{
		ID:       "crt_1",
		Currency: "EUR",
		Items: []domain.CartLineItem{
			{
				ID:        "line_1",
				ProductID: "prd_wreath_classic",
				SKU:       "WREATH-CLASSIC",
				Name:      "Classic wreath",
				Quantity:  2,
				UnitPrice: 1700,
				Currency:  "EUR",
				Configuration: []domain.ConfigurationEntry{
					{OptionID: "size", ChoiceIDs: []string{"medium"}},
					{OptionID: "ribbon_text", ChoiceIDs: []string{"inscription"}, CustomValue: &value},
				},
				AddedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			},
		},
		UpdatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestCartGet(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	router := newCartRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/carts/crt_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if svc.getID != "crt_1" {
		t.Fatalf("expected cart id forwarded, got %q", svc.getID)
	}
	var body cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body.Subtotal != 3400 {
		t.Fatalf("expected subtotal 3400, got %d", body.Subtotal)
	}
	if len(body.Items) != 1 || len(body.Items[0].Configuration) != 2 {
		t.Fatalf("unexpected items: %#v", body.Items)
	}
}

func TestCartAttach(t *testing.T) {
	t.Run("valid attach returns 201", func(t *testing.T) {
		svc := &stubCartService{cart: sampleCart()}
		router := newCartRouter(svc)

		payload := `{"productId":" prd_wreath_classic ","quantity":2,"selections":[{"optionId":"size","choiceIds":["medium"]},{"optionId":"ribbon","choiceIds":["no"]}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/crt_1/items", strings.NewReader(payload))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
		if svc.attachCmd.CartID != "crt_1" || svc.attachCmd.ProductID != "prd_wreath_classic" {
			t.Fatalf("unexpected command: %#v", svc.attachCmd)
		}
		if svc.attachCmd.Quantity != 2 || len(svc.attachCmd.Selections) != 2 {
			t.Fatalf("unexpected command: %#v", svc.attachCmd)
		}
	})

	t.Run("validation failures return 422 with issues", func(t *testing.T) {
		svc := &stubCartService{err: &services.ConfigurationInvalidError{Issues: []domain.ValidationIssue{
			{Code: domain.IssueRequiredMissing, Severity: domain.SeverityError, OptionID: "size"},
		}}}
		router := newCartRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/crt_1/items", strings.NewReader(`{"productId":"prd_wreath_classic"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", rr.Code)
		}
		var body struct {
			Error  string                   `json:"error"`
			Issues []validationIssuePayload `json:"issues"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("expected JSON body: %v", err)
		}
		if body.Error != "configuration_invalid" {
			t.Fatalf("unexpected error code: %s", body.Error)
		}
		if len(body.Issues) != 1 || body.Issues[0].Code != domain.IssueRequiredMissing {
			t.Fatalf("expected carried issues, got %#v", body.Issues)
		}
	})

	t.Run("currency mismatch returns 409", func(t *testing.T) {
		svc := &stubCartService{err: services.ErrCartCurrencyMismatch}
		router := newCartRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/crt_1/items", strings.NewReader(`{"productId":"prd_wreath_classic"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rr.Code)
		}
	})

	t.Run("missing body is a bad request", func(t *testing.T) {
		router := newCartRouter(&stubCartService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/crt_1/items", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestCartRemoveLine(t *testing.T) {
	svc := &stubCartService{cart: domain.Cart{ID: "crt_1", Currency: "EUR"}}
	router := newCartRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/carts/crt_1/items/line_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if svc.getID != "crt_1" || svc.removedID != "line_1" {
		t.Fatalf("unexpected forwarded ids: %q/%q", svc.getID, svc.removedID)
	}
}
