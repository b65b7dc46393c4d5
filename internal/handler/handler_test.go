package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ortus/internal/domain/model"
	"ortus/internal/handler"
	"ortus/internal/middleware"
	"ortus/internal/usecase"
	"ortus/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks: services
// =====================

type AuthServiceMock struct{ mock.Mock }

func (m *AuthServiceMock) Register(ctx context.Context, in usecase.RegisterInput) (usecase.AuthResult, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(usecase.AuthResult)
	return out, args.Error(1)
}

func (m *AuthServiceMock) Login(ctx context.Context, phone, password string) (usecase.AuthResult, error) {
	args := m.Called(ctx, phone, password)
	out, _ := args.Get(0).(usecase.AuthResult)
	return out, args.Error(1)
}

func (m *AuthServiceMock) Me(ctx context.Context, userID string) (usecase.UserProfile, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(usecase.UserProfile)
	return out, args.Error(1)
}

func (m *AuthServiceMock) UpdateDetails(ctx context.Context, userID string, in usecase.UpdateDetailsInput) (usecase.UserSummary, error) {
	args := m.Called(ctx, userID, in)
	out, _ := args.Get(0).(usecase.UserSummary)
	return out, args.Error(1)
}

func (m *AuthServiceMock) ChangePassword(ctx context.Context, userID, current, next string) error {
	args := m.Called(ctx, userID, current, next)
	return args.Error(0)
}

func (m *AuthServiceMock) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *AuthServiceMock) ResetPassword(ctx context.Context, email, code, next string) error {
	args := m.Called(ctx, email, code, next)
	return args.Error(0)
}

type CatalogServiceMock struct{ mock.Mock }

func (m *CatalogServiceMock) List(ctx context.Context, category string) ([]model.Product, error) {
	args := m.Called(ctx, category)
	out, _ := args.Get(0).([]model.Product)
	return out, args.Error(1)
}

func (m *CatalogServiceMock) Get(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *CatalogServiceMock) Create(ctx context.Context, actor usecase.Actor, in usecase.CreateProductInput) (model.Product, error) {
	args := m.Called(ctx, actor, in)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *CatalogServiceMock) Update(ctx context.Context, actor usecase.Actor, id string, in usecase.UpdateProductInput) (model.Product, error) {
	args := m.Called(ctx, actor, id, in)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *CatalogServiceMock) Delete(ctx context.Context, actor usecase.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

type OrderServiceMock struct{ mock.Mock }

func (m *OrderServiceMock) CreateOrder(ctx context.Context, userID string, items []usecase.OrderItemInput) (usecase.OrderOutput, error) {
	args := m.Called(ctx, userID, items)
	out, _ := args.Get(0).(usecase.OrderOutput)
	return out, args.Error(1)
}

func (m *OrderServiceMock) ListMyOrders(ctx context.Context, userID string) ([]usecase.OrderOutput, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]usecase.OrderOutput)
	return out, args.Error(1)
}

func (m *OrderServiceMock) RequestDelivery(ctx context.Context, userID, orderID string) (usecase.OrderOutput, error) {
	args := m.Called(ctx, userID, orderID)
	out, _ := args.Get(0).(usecase.OrderOutput)
	return out, args.Error(1)
}

type AdminOrderServiceMock struct{ mock.Mock }

func (m *AdminOrderServiceMock) ListAll(ctx context.Context, actor usecase.Actor) ([]usecase.OrderOutput, error) {
	args := m.Called(ctx, actor)
	out, _ := args.Get(0).([]usecase.OrderOutput)
	return out, args.Error(1)
}

func (m *AdminOrderServiceMock) ListDeliveryRequests(ctx context.Context, actor usecase.Actor) ([]usecase.OrderOutput, error) {
	args := m.Called(ctx, actor)
	out, _ := args.Get(0).([]usecase.OrderOutput)
	return out, args.Error(1)
}

func (m *AdminOrderServiceMock) UpdateStatus(ctx context.Context, actor usecase.Actor, orderID string, status string) (usecase.OrderOutput, error) {
	args := m.Called(ctx, actor, orderID, status)
	out, _ := args.Get(0).(usecase.OrderOutput)
	return out, args.Error(1)
}

func (m *AdminOrderServiceMock) ExportCSV(ctx context.Context, actor usecase.Actor, from, to string) ([]byte, error) {
	args := m.Called(ctx, actor, from, to)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

type AuditServiceMock struct{ mock.Mock }

func (m *AuditServiceMock) List(ctx context.Context, actor usecase.Actor, in usecase.AuditListInput) ([]model.AuditLog, error) {
	args := m.Called(ctx, actor, in)
	out, _ := args.Get(0).([]model.AuditLog)
	return out, args.Error(1)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// =====================
// helper
// =====================

// テスト用の認証: X-Test-User / X-Test-Role ヘッダをそのままcontextに入れる
func fakeProtect(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get("X-Test-User")
		if id == "" {
			return c.JSON(http.StatusUnauthorized, handler.ErrorResponse{Message: "not authorized, no token"})
		}
		c.Set(middleware.CtxUserIDKey, id)
		c.Set(middleware.CtxUserRoleKey, model.Role(c.Request().Header.Get("X-Test-Role")))
		return next(c)
	}
}

type services struct {
	auth    *AuthServiceMock
	catalog *CatalogServiceMock
	orders  *OrderServiceMock
	admin   *AdminOrderServiceMock
	audits  *AuditServiceMock
}

func newTestServer() (*echo.Echo, services) {
	s := services{
		auth:    new(AuthServiceMock),
		catalog: new(CatalogServiceMock),
		orders:  new(OrderServiceMock),
		admin:   new(AdminOrderServiceMock),
		audits:  new(AuditServiceMock),
	}

	e := echo.New()
	e.Validator = validator.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	g := handler.Guards{Protect: []echo.MiddlewareFunc{fakeProtect}, Admin: middleware.AdminRoleGuard()}
	api := e.Group("/api")
	handler.NewAuthHandler(s.auth).RegisterRoutes(api, g)
	handler.NewProductHandler(s.catalog).RegisterRoutes(api, g)
	handler.NewOrderHandler(s.orders, s.admin).RegisterRoutes(api, g)
	handler.NewAdminHandler(s.admin, s.audits, fixedClock{now: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}).RegisterRoutes(api, g)
	return e, s
}

type reqOpt func(*http.Request)

func as(userID string, role model.Role) reqOpt {
	return func(r *http.Request) {
		r.Header.Set("X-Test-User", userID)
		r.Header.Set("X-Test-Role", string(role))
	}
}

func doJSON(e *echo.Echo, method, path, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

const customerID = "00000000-0000-4000-8000-00000000cccc"
const adminID = "00000000-0000-4000-8000-00000000aaaa"

// =====================
// Auth
// =====================

func TestAuthHandler_Register_Created(t *testing.T) {
	e, s := newTestServer()
	s.auth.On("Register", mock.Anything, usecase.RegisterInput{
		FullName: "Aruzhan", PhoneNumber: "+77011234567", Email: "a@b.kz", Password: "Secret#123",
	}).Return(usecase.AuthResult{Token: "tok", User: usecase.UserSummary{ID: "u1", Role: model.RoleCustomer}}, nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"fullName":"Aruzhan","phoneNumber":"+77011234567","email":"a@b.kz","password":"Secret#123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "customer", body["user"].(map[string]interface{})["userType"])
}

func TestAuthHandler_Register_EdgeValidation(t *testing.T) {
	e, s := newTestServer()

	rec := doJSON(e, http.MethodPost, "/api/auth/register", `{"fullName":"A","phoneNumber":"12","email":"a@b.kz","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid phone number", message(t, rec))

	rec = doJSON(e, http.MethodPost, "/api/auth/register", `{"phoneNumber":"+77011234567","email":"a@b.kz","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fullName is required", message(t, rec))

	rec = doJSON(e, http.MethodPost, "/api/auth/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", message(t, rec))

	s.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthHandler_ErrorKindsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{usecase.NewValidationError("v"), http.StatusBadRequest},
		{usecase.NewAuthenticationError("invalid credentials"), http.StatusUnauthorized},
		{usecase.NewAuthorizationError("a"), http.StatusForbidden},
		{usecase.NewNotFoundError("n"), http.StatusNotFound},
		{usecase.NewConflictError("c"), http.StatusConflict},
		{usecase.NewDeliveryError("d", errors.New("smtp")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e, s := newTestServer()
		s.auth.On("Login", mock.Anything, "+77011234567", "pw").Return(usecase.AuthResult{}, tc.err)

		rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"phoneNumber":"+77011234567","password":"pw"}`)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestAuthHandler_UnexpectedHidesCause(t *testing.T) {
	e, s := newTestServer()
	s.auth.On("Me", mock.Anything, customerID).Return(usecase.UserProfile{}, &usecase.Error{
		Kind: usecase.KindUnexpected, Message: "internal error", Err: errors.New("pq: password authentication failed"),
	})

	rec := doJSON(e, http.MethodGet, "/api/auth/me", "", as(customerID, model.RoleCustomer))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", message(t, rec))
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestAuthHandler_Me_RequiresAuth(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_UpdateDetails_PassesOnlySuppliedFields(t *testing.T) {
	e, s := newTestServer()
	s.auth.On("UpdateDetails", mock.Anything, customerID, mock.MatchedBy(func(in usecase.UpdateDetailsInput) bool {
		return in.FullName != nil && *in.FullName == "New Name" && in.PhoneNumber == nil
	})).Return(usecase.UserSummary{ID: customerID, FullName: "New Name"}, nil)

	rec := doJSON(e, http.MethodPatch, "/api/auth/update-details", `{"fullName":"New Name"}`, as(customerID, model.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"New Name"`)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	e, s := newTestServer()
	s.auth.On("ChangePassword", mock.Anything, customerID, "Old#pass1", "New#pass1").Return(nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/change-password", `{"oldPassword":"Old#pass1","newPassword":"New#pass1"}`, as(customerID, model.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
	s.auth.AssertExpectations(t)
}

func TestAuthHandler_PasswordResetFlow(t *testing.T) {
	e, s := newTestServer()
	s.auth.On("RequestPasswordReset", mock.Anything, "a@b.kz").Return(nil)
	s.auth.On("ResetPassword", mock.Anything, "a@b.kz", "042017", "Brand#New1").Return(nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/request-password-reset", `{"email":"a@b.kz"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/reset-password", `{"email":"a@b.kz","code":"042017","newPassword":"Brand#New1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/request-password-reset", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid email format", message(t, rec))
}

// =====================
// Products
// =====================

func TestProductHandler_List_PassesCategory(t *testing.T) {
	e, s := newTestServer()
	s.catalog.On("List", mock.Anything, "tops").Return([]model.Product{}, nil)

	rec := doJSON(e, http.MethodGet, "/api/products?category=tops", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestProductHandler_Create_Multipart(t *testing.T) {
	e, s := newTestServer()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "Hoodie"))
	require.NoError(t, w.WriteField("category", "tops"))
	require.NoError(t, w.WriteField("price", "15000"))
	require.NoError(t, w.WriteField("sizes", `[{"size":"M","stock":3},{"size":"L","stock":1}]`))
	fw, err := w.CreateFormFile("images", "front.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, w.Close())

	s.catalog.On("Create", mock.Anything, usecase.Actor{UserID: adminID, Role: model.RoleAdmin}, mock.MatchedBy(func(in usecase.CreateProductInput) bool {
		return in.Name == "Hoodie" && in.Price == "15000" &&
			len(in.Sizes) == 2 && in.Sizes[1].Size == "L" &&
			len(in.Images) == 1 && in.Images[0].Filename == "front.jpg"
	})).Return(model.Product{ID: "p1", Name: "Hoodie"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	as(adminID, model.RoleAdmin)(req)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s.catalog.AssertExpectations(t)
}

func TestProductHandler_Create_BadSizes(t *testing.T) {
	e, s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("name=A&category=b&price=1&sizes=not-json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	as(adminID, model.RoleAdmin)(req)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid sizes format", message(t, rec))
	s.catalog.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_Update_PartialForm(t *testing.T) {
	e, s := newTestServer()
	s.catalog.On("Update", mock.Anything, mock.Anything, "p1", mock.MatchedBy(func(in usecase.UpdateProductInput) bool {
		return in.Name == nil && in.Price != nil && *in.Price == "12000" &&
			in.IsActive != nil && *in.IsActive && len(in.Images) == 0
	})).Return(model.Product{ID: "p1"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader("price=12000&isActive=true"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	as(adminID, model.RoleAdmin)(req)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.catalog.AssertExpectations(t)
}

func TestProductHandler_Delete_CustomerForbidden(t *testing.T) {
	e, s := newTestServer()

	rec := doJSON(e, http.MethodDelete, "/api/products/p1", "", as(customerID, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.catalog.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_Detail_NotFound(t *testing.T) {
	e, s := newTestServer()
	s.catalog.On("Get", mock.Anything, "nope").Return(model.Product{}, usecase.NewNotFoundError("product not found"))

	rec := doJSON(e, http.MethodGet, "/api/products/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", message(t, rec))
}

// =====================
// Orders
// =====================

func TestOrderHandler_Create(t *testing.T) {
	e, s := newTestServer()
	s.orders.On("CreateOrder", mock.Anything, customerID, []usecase.OrderItemInput{
		{ProductID: "p1", Size: "M", Quantity: 2},
	}).Return(usecase.OrderOutput{ID: "o1", Status: model.OrderStatusPending}, nil)

	rec := doJSON(e, http.MethodPost, "/api/orders", `{"items":[{"productId":"p1","size":"M","quantity":2}]}`, as(customerID, model.RoleCustomer))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestOrderHandler_AdminRoutesRequireAdmin(t *testing.T) {
	e, _ := newTestServer()

	for _, path := range []string{"/api/orders/all", "/api/orders/delivery-requests"} {
		rec := doJSON(e, http.MethodGet, path, "", as(customerID, model.RoleCustomer))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
	rec := doJSON(e, http.MethodPatch, "/api/orders/o1/status", `{"status":"ready"}`, as(customerID, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderHandler_MyOrdersNotShadowedByParam(t *testing.T) {
	e, s := newTestServer()
	s.orders.On("ListMyOrders", mock.Anything, customerID).Return([]usecase.OrderOutput{}, nil)

	rec := doJSON(e, http.MethodGet, "/api/orders/my-orders", "", as(customerID, model.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
	s.orders.AssertExpectations(t)
}

func TestOrderHandler_RequestDelivery_NotOwner(t *testing.T) {
	e, s := newTestServer()
	s.orders.On("RequestDelivery", mock.Anything, customerID, "o1").Return(usecase.OrderOutput{}, usecase.NewAuthorizationError("not your order"))

	rec := doJSON(e, http.MethodPatch, "/api/orders/o1/delivery-request", "", as(customerID, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not your order", message(t, rec))
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	e, s := newTestServer()
	admin := usecase.Actor{UserID: adminID, Role: model.RoleAdmin}
	s.admin.On("UpdateStatus", mock.Anything, admin, "o1", "ready").Return(usecase.OrderOutput{ID: "o1", Status: model.OrderStatusReady}, nil)

	rec := doJSON(e, http.MethodPatch, "/api/orders/o1/status", `{"status":"ready"}`, as(adminID, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/orders/o1/status", `{}`, as(adminID, model.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status is required", message(t, rec))
}

// =====================
// Admin
// =====================

func TestAdminHandler_ExportCSV(t *testing.T) {
	e, s := newTestServer()
	s.admin.On("ExportCSV", mock.Anything, mock.Anything, "2024-03-01", "").Return([]byte("order_number\n1\n"), nil)

	rec := doJSON(e, http.MethodGet, "/api/admin/orders/export?from=2024-03-01", "", as(adminID, model.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "orders-20240301-093000.csv")
	assert.Equal(t, "order_number\n1\n", rec.Body.String())
}

func TestAdminHandler_AuditLogs(t *testing.T) {
	e, s := newTestServer()
	s.audits.On("List", mock.Anything, mock.Anything, usecase.AuditListInput{Action: "DELETE_PRODUCT", Limit: 10}).Return([]model.AuditLog{}, nil)

	rec := doJSON(e, http.MethodGet, "/api/admin/audit-logs?action=DELETE_PRODUCT&limit=10", "", as(adminID, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/admin/audit-logs?limit=ten", "", as(adminID, model.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit must be a number", message(t, rec))
}

func TestHTTPErrorHandler_UnknownRoute(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", message(t, rec))
}
