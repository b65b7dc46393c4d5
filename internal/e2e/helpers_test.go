//go:build e2e

// 起動中のサーバーに対して流すテスト。
//
//	BASE_URL=http://localhost:5000 E2E_ADMIN_PHONE=... E2E_ADMIN_PASSWORD=... go test -tags e2e ./internal/e2e/...
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &TestClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type ErrorResponse struct {
	Message string `json:"message"`
}

type UserDTO struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	UserType    string `json:"userType"`
	Email       string `json:"email"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type SizeDTO struct {
	Size  string `json:"size"`
	Stock int64  `json:"stock"`
}

type ProductDTO struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Price    float64   `json:"price"`
	Sizes    []SizeDTO `json:"sizes"`
	IsActive bool      `json:"isActive"`
}

func (p ProductDTO) stock(size string) int64 {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock
		}
	}
	return -1
}

type OrderDTO struct {
	ID                string  `json:"id"`
	Number            string  `json:"number"`
	TotalAmount       float64 `json:"totalAmount"`
	Status            string  `json:"status"`
	DeliveryRequested bool    `json:"deliveryRequested"`
	Items             []struct {
		ProductID string `json:"productId"`
		Size      string `json:"size"`
		Quantity  int64  `json:"quantity"`
	} `json:"items"`
}

type AuditLogDTO struct {
	Action     string `json:"action"`
	ResourceID string `json:"resourceId"`
}

func (c *TestClient) do(t *testing.T, req *http.Request, bearer string) (*http.Response, []byte) {
	t.Helper()

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.HTTP.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (c *TestClient) doJSON(ctx context.Context, t *testing.T, method, path, bearer string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(t, req, bearer)
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body=%s", string(body))
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoErrorf(t, json.Unmarshal(body, &v), "body=%s", string(body))
	return v
}

// unique はテストごとに重複しない電話番号・メール用の数字
func unique() string {
	return fmt.Sprintf("%010d", time.Now().UnixNano()%1e10)
}

func registerCustomer(t *testing.T, c *TestClient, ctx context.Context, password string) AuthResponse {
	t.Helper()

	n := unique()
	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName":    "E2E Customer " + n,
		"phoneNumber": "+7" + n,
		"email":       "e2e" + n + "@example.com",
		"password":    password,
	})
	requireStatus(t, resp, http.StatusCreated, body)

	out := decode[AuthResponse](t, body)
	require.NotEmpty(t, out.Token)
	return out
}

// 管理者は事前に作っておく（E2E_ADMIN_PHONE / E2E_ADMIN_PASSWORD）
func adminLogin(t *testing.T, c *TestClient, ctx context.Context) string {
	t.Helper()

	phone, password := os.Getenv("E2E_ADMIN_PHONE"), os.Getenv("E2E_ADMIN_PASSWORD")
	if phone == "" || password == "" {
		t.Skip("E2E_ADMIN_PHONE / E2E_ADMIN_PASSWORD not set")
	}

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"phoneNumber": phone,
		"password":    password,
	})
	requireStatus(t, resp, http.StatusOK, body)

	out := decode[AuthResponse](t, body)
	require.Equal(t, "admin", out.User.UserType)
	return out.Token
}

func createProduct(t *testing.T, c *TestClient, ctx context.Context, token, name string, sizes []SizeDTO) ProductDTO {
	t.Helper()

	sizesJSON, err := json.Marshal(sizes)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name":        name,
		"description": "created by e2e",
		"category":    "e2e",
		"price":       "15000",
		"sizes":       string(sizesJSON),
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("images", "e2e.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/products", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, body := c.do(t, req, token)
	requireStatus(t, resp, http.StatusCreated, body)
	return decode[ProductDTO](t, body)
}

func getProduct(t *testing.T, c *TestClient, ctx context.Context, id string) ProductDTO {
	t.Helper()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/api/products/"+id, "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	return decode[ProductDTO](t, body)
}
