package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

func withUser(r *http.Request, userID int64, role domain.Role) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), domain.Identity{UserID: userID, Role: role}))
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func mouseView() *domain.CartView {
	return domain.NewCartView(1, 10, []domain.CartLine{
		{
			ID:          5,
			ProductID:   1,
			ProductName: "Wireless Mouse",
			Quantity:    2,
			Price:       decimal.RequireFromString("10.00"),
			Discount:    decimal.RequireFromString("10"),
		},
	})
}

func TestGetCart_Success(t *testing.T) {
	svc := &CartServiceMock{view: mouseView()}
	handler := NewCartHandler(svc, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/cart", nil), 1, domain.RoleCustomer)

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	raw := recorder.Body.String()
	if !strings.Contains(raw, `"total_price":18.00`) {
		t.Errorf("Expected total_price 18.00 in %s", raw)
	}
	if !strings.Contains(raw, `"item_total":18.00`) {
		t.Errorf("Expected item_total 18.00 in %s", raw)
	}

	var response CartResponseDTO
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("Expected success to be true")
	}
	if len(response.Data) != 1 || response.Data[0].CartItemID != 5 {
		t.Errorf("Expected one item with cart_item_id 5, got %+v", response.Data)
	}
}

func TestGetCart_Empty(t *testing.T) {
	svc := &CartServiceMock{view: domain.EmptyCartView(1)}
	handler := NewCartHandler(svc, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/cart", nil), 1, domain.RoleCustomer)

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	raw := recorder.Body.String()
	if !strings.Contains(raw, `"data":[]`) || !strings.Contains(raw, `"total_price":0.00`) {
		t.Errorf("Expected empty data and zero total, got %s", raw)
	}
	if !strings.Contains(raw, "Cart is empty.") {
		t.Errorf("Expected empty cart message, got %s", raw)
	}
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&CartServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/cart", nil)
	// No identity in context

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "unauthorized" {
		t.Errorf("Expected error code 'unauthorized', got '%s'", response.Code)
	}
}

func TestGetCart_StoreFailure(t *testing.T) {
	svc := &CartServiceMock{err: domain.StoreFailure(errNotStubbed)}
	handler := NewCartHandler(svc, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/cart", nil), 1, domain.RoleCustomer)

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), errNotStubbed.Error()) {
		t.Errorf("Store cause leaked into response: %s", recorder.Body.String())
	}
}

func TestAddItem_Success(t *testing.T) {
	svc := &CartServiceMock{}
	handler := NewCartHandler(svc, 5*time.Second)

	body := jsonBody(t, AddItemRequestDTO{ProductID: 1, Quantity: 2})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/add", body), 7, domain.RoleCustomer)

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	if svc.lastProductID != 1 || svc.lastQuantity != 2 {
		t.Errorf("Expected product 1 quantity 2, got product %d quantity %d", svc.lastProductID, svc.lastQuantity)
	}
	if svc.lastIdentity.UserID != 7 {
		t.Errorf("Expected user 7, got %d", svc.lastIdentity.UserID)
	}
}

func TestAddItem_InvalidJSON(t *testing.T) {
	handler := NewCartHandler(&CartServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/add", strings.NewReader("{")), 1, domain.RoleCustomer)

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_MissingProduct(t *testing.T) {
	handler := NewCartHandler(&CartServiceMock{}, 5*time.Second)

	body := jsonBody(t, map[string]int{"quantity": 1})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/add", body), 1, domain.RoleCustomer)

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_QuantityTooLarge(t *testing.T) {
	svc := &CartServiceMock{}
	handler := NewCartHandler(svc, 5*time.Second)

	body := jsonBody(t, map[string]int64{"product_id": 1, "quantity": 3000000000})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/add", body), 1, domain.RoleCustomer)

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if svc.lastProductID != 0 {
		t.Errorf("Expected service not to be called, got product %d", svc.lastProductID)
	}
}

func TestAddItem_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"validation", domain.Validationf("quantity must be positive"), http.StatusBadRequest, "invalid_argument"},
		{"not found", domain.NotFoundf("product 9 not found"), http.StatusNotFound, "not_found"},
		{"store", domain.StoreFailure(errNotStubbed), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCartHandler(&CartServiceMock{err: tt.err}, 5*time.Second)

			body := jsonBody(t, AddItemRequestDTO{ProductID: 9, Quantity: 1})
			recorder := httptest.NewRecorder()
			request := withUser(httptest.NewRequest("POST", "/cart/add", body), 1, domain.RoleCustomer)

			handler.AddItem(recorder, request)

			if recorder.Code != tt.code {
				t.Errorf("Expected status code %d, got %d", tt.code, recorder.Code)
			}
			var response ErrorResponse
			json.NewDecoder(recorder.Body).Decode(&response)
			if response.Code != tt.kind {
				t.Errorf("Expected error code %q, got %q", tt.kind, response.Code)
			}
		})
	}
}

func TestUpdateQuantity_Success(t *testing.T) {
	svc := &CartServiceMock{quantity: 3}
	handler := NewCartHandler(svc, 5*time.Second)

	body := strings.NewReader(`{"cart_item_id": 5, "change": -1}`)
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/update", body), 1, domain.RoleCustomer)

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	var response UpdateQuantityResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.NewQuantity != 3 {
		t.Errorf("Expected new_quantity 3, got %d", response.NewQuantity)
	}
	if svc.lastLineID != 5 || svc.lastDelta != -1 {
		t.Errorf("Expected line 5 delta -1, got line %d delta %d", svc.lastLineID, svc.lastDelta)
	}
}

func TestUpdateQuantity_MissingChange(t *testing.T) {
	handler := NewCartHandler(&CartServiceMock{}, 5*time.Second)

	body := strings.NewReader(`{"cart_item_id": 5}`)
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/update", body), 1, domain.RoleCustomer)

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestUpdateQuantity_Forbidden(t *testing.T) {
	svc := &CartServiceMock{err: domain.Forbiddenf("cart item 5 belongs to another user")}
	handler := NewCartHandler(svc, 5*time.Second)

	body := strings.NewReader(`{"cart_item_id": 5, "change": 1}`)
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/update", body), 1, domain.RoleCustomer)

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusForbidden {
		t.Errorf("Expected status code %d, got %d", http.StatusForbidden, recorder.Code)
	}
}

func TestRemoveItem_Success(t *testing.T) {
	svc := &CartServiceMock{}
	handler := NewCartHandler(svc, 5*time.Second)

	body := jsonBody(t, RemoveItemRequestDTO{CartItemID: 8})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/remove", body), 1, domain.RoleCustomer)

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if svc.lastLineID != 8 {
		t.Errorf("Expected line 8, got %d", svc.lastLineID)
	}
}

func TestRemoveItem_NotFound(t *testing.T) {
	svc := &CartServiceMock{err: domain.NotFoundf("cart item 8 not found")}
	handler := NewCartHandler(svc, 5*time.Second)

	body := jsonBody(t, RemoveItemRequestDTO{CartItemID: 8})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/cart/remove", body), 1, domain.RoleCustomer)

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}
