package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillbook-api/internal/application/service"
	"github.com/sangkips/tillbook-api/internal/config"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/infrastructure/database"
	"github.com/sangkips/tillbook-api/internal/infrastructure/draftstore"
	"github.com/sangkips/tillbook-api/internal/infrastructure/sqlite"
	"github.com/sangkips/tillbook-api/internal/presentation/http/handler"
	"github.com/sangkips/tillbook-api/internal/presentation/http/middleware"
	"github.com/sangkips/tillbook-api/internal/presentation/http/routes"
	"github.com/sangkips/tillbook-api/pkg/printer"
	"github.com/sangkips/tillbook-api/pkg/utils"
	"github.com/shopspring/decimal"
)

func newRouter(t *testing.T, rl config.RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	drafts := draftstore.NewMemoryStore(time.Hour)
	t.Cleanup(func() { drafts.Close() })

	userRepo := sqlite.NewUserRepository(db)
	itemRepo := sqlite.NewItemRepository(db)
	receiptRepo := sqlite.NewReceiptRepository(db)
	idempotencyRepo := sqlite.NewIdempotencyRepository(db)
	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	authService := service.NewAuthService(userRepo, jwtManager, nil, entity.DefaultStoreConfig())
	itemService := service.NewItemService(itemRepo)
	receiptService := service.NewReceiptService(receiptRepo, itemRepo, userRepo, nil)
	printerService := service.NewPrinterService(printer.NewNullPrinter(), receiptService, printer.Width58mm)

	limiter := routes.NewRateLimiter(rl)
	t.Cleanup(limiter.Stop)

	return routes.Setup(&routes.Handlers{
		Auth:      handler.NewAuthHandler(authService, nil),
		Item:      handler.NewItemHandler(itemService),
		Receipt:   handler.NewReceiptHandler(receiptService, service.NewExportService(receiptService, 50, time.Second), printerService),
		Draft:     handler.NewDraftHandler(service.NewDraftService(drafts, itemService, receiptService)),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(receiptRepo)),
		Settings:  handler.NewSettingsHandler(service.NewSettingsService(userRepo)),
		Printer:   handler.NewPrinterHandler(printerService),
		Account:   handler.NewAccountHandler(service.NewAccountService(userRepo, itemRepo, receiptRepo, drafts, idempotencyRepo)),
	}, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             &config.Config{App: config.AppConfig{Name: "tillbook-test"}, RateLimit: rl},
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     limiter,
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field string `json:"field"`
	} `json:"errors"`
	Retryable bool `json:"retryable"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w, env
}

func (c *client) expect(status int, method, path string, body interface{}, out interface{}) envelope {
	c.t.Helper()
	w, env := c.do(method, path, body, nil)
	if w.Code != status {
		c.t.Fatalf("%s %s = %d, want %d: %s", method, path, w.Code, status, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.t.Fatal(err)
		}
	}
	return env
}

func register(t *testing.T, router *gin.Engine, email string) *client {
	c := &client{t: t, router: router}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	c.expect(201, "POST", "/api/v1/auth/register", map[string]string{
		"email": email, "password": "secret1", "storeName": "Corner Shop",
	}, &out)
	c.token = out.AccessToken
	return c
}

type itemOut struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
}

type draftOut struct {
	ID        string          `json:"id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type receiptOut struct {
	ID    string          `json:"id"`
	Total decimal.Decimal `json:"total"`
	Items []struct {
		ItemName string `json:"itemName"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func TestDraftFlowEndToEnd(t *testing.T) {
	router := newRouter(t, config.RateLimitConfig{Requests: 1000, Duration: 1})
	c := register(t, router, "owner@example.com")
	want := decimal.RequireFromString("35.50")

	var tea, cake itemOut
	c.expect(201, "POST", "/api/v1/items", map[string]interface{}{"itemName": "Tea", "itemPrice": 10, "barcode": "111"}, &tea)
	c.expect(201, "POST", "/api/v1/items", map[string]interface{}{"itemName": "Cake", "itemPrice": "5.50", "barcode": "222"}, &cake)

	var d draftOut
	c.expect(201, "POST", "/api/v1/drafts", nil, &d)
	c.expect(200, "POST", "/api/v1/drafts/"+d.ID+"/scan", map[string]string{"barcode": "111"}, nil)
	c.expect(200, "POST", "/api/v1/drafts/"+d.ID+"/items", map[string]string{"itemId": cake.ID}, nil)
	c.expect(200, "PATCH", "/api/v1/drafts/"+d.ID+"/items/"+tea.ID, map[string]int{"delta": 2}, &d)
	c.expect(400, "PATCH", "/api/v1/drafts/"+d.ID+"/items/"+tea.ID, map[string]int{"delta": 1 << 40}, nil)
	if d.ItemCount != 4 || !d.Total.Equal(want) {
		t.Fatalf("draft = %+v", d)
	}

	env := c.expect(422, "POST", "/api/v1/drafts/"+d.ID+"/commit", map[string]string{}, nil)
	if len(env.Errors) != 1 || env.Errors[0].Field != "customerName" {
		t.Fatalf("errors = %+v", env.Errors)
	}

	headers := map[string]string{middleware.IdempotencyKeyHeader: "commit-1"}
	body := map[string]string{"customerName": "Asha", "customerMobile": "9876543210"}
	w, env := c.do("POST", "/api/v1/drafts/"+d.ID+"/commit", body, headers)
	if w.Code != 201 {
		t.Fatalf("commit = %d: %s", w.Code, w.Body.String())
	}
	var r receiptOut
	if err := json.Unmarshal(env.Data, &r); err != nil {
		t.Fatal(err)
	}
	if !r.Total.Equal(want) || len(r.Items) != 2 || r.Items[0].Quantity != 3 {
		t.Fatalf("receipt = %+v", r)
	}

	// A retried commit replays the stored response instead of failing on
	// the deleted draft.
	w, env = c.do("POST", "/api/v1/drafts/"+d.ID+"/commit", body, headers)
	if w.Code != 201 || w.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %d %q", w.Code, w.Header().Get("X-Idempotency-Replayed"))
	}
	var replayed receiptOut
	if err := json.Unmarshal(env.Data, &replayed); err != nil || replayed.ID != r.ID {
		t.Fatalf("replayed receipt %s, want %s (%v)", replayed.ID, r.ID, err)
	}

	c.expect(404, "GET", "/api/v1/drafts/"+d.ID, nil, nil)

	var page struct {
		Items      []receiptOut `json:"items"`
		Pagination struct {
			HasNext bool `json:"hasNext"`
		} `json:"pagination"`
	}
	c.expect(200, "GET", "/api/v1/receipts?limit=10", nil, &page)
	if len(page.Items) != 1 || page.Items[0].ID != r.ID || page.Pagination.HasNext {
		t.Fatalf("receipts page = %+v", page)
	}

	var share struct {
		Text        string `json:"text"`
		WhatsAppURL string `json:"whatsappUrl"`
	}
	c.expect(200, "GET", "/api/v1/receipts/"+r.ID+"/share", nil, &share)
	if share.WhatsAppURL == "" || share.Text == "" {
		t.Fatalf("share = %+v", share)
	}

	var stats struct {
		ReceiptCount int             `json:"receiptCount"`
		ItemsCount   int             `json:"itemsCount"`
		TotalSales   decimal.Decimal `json:"totalSales"`
	}
	c.expect(200, "GET", "/api/v1/dashboard", nil, &stats)
	if stats.ReceiptCount != 1 || stats.ItemsCount != 4 || !stats.TotalSales.Equal(want) {
		t.Fatalf("stats = %+v", stats)
	}

	w, _ = c.do("GET", "/api/v1/receipts/export", nil, nil)
	if w.Code != 200 || w.Header().Get("Content-Type") != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("export = %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	c.expect(400, "POST", "/api/v1/receipts/"+r.ID+"/print", nil, nil)
}

func TestOwnersAreIsolated(t *testing.T) {
	router := newRouter(t, config.RateLimitConfig{Requests: 1000, Duration: 1})
	a := register(t, router, "a@example.com")
	b := register(t, router, "b@example.com")

	var tea itemOut
	a.expect(201, "POST", "/api/v1/items", map[string]interface{}{"itemName": "Tea", "itemPrice": 10}, &tea)
	b.expect(404, "GET", "/api/v1/items/"+tea.ID, nil, nil)

	var page struct {
		Items []itemOut `json:"items"`
	}
	b.expect(200, "GET", "/api/v1/items", nil, &page)
	if len(page.Items) != 0 {
		t.Fatalf("b sees %d items", len(page.Items))
	}
}

func TestAuthErrors(t *testing.T) {
	router := newRouter(t, config.RateLimitConfig{Requests: 1000, Duration: 1})
	anon := &client{t: t, router: router}

	anon.expect(401, "GET", "/api/v1/items", nil, nil)
	anon.expect(422, "POST", "/api/v1/auth/register", map[string]string{"email": "nope", "password": "secret1", "storeName": "S"}, nil)
	anon.expect(422, "POST", "/api/v1/auth/register", map[string]string{"email": "x@example.com", "password": "123", "storeName": "S"}, nil)
	anon.expect(400, "POST", "/api/v1/auth/register", map[string]string{"email": "x@example.com", "password": "secret1"}, nil)

	register(t, router, "x@example.com")
	env := anon.expect(409, "POST", "/api/v1/auth/register", map[string]string{"email": "X@example.com", "password": "secret1", "storeName": "S"}, nil)
	if env.Message == "" {
		t.Fatal("missing message")
	}
	anon.expect(401, "POST", "/api/v1/auth/login", map[string]string{"email": "x@example.com", "password": "wrong1"}, nil)
}

func TestRateLimitIsPerOwner(t *testing.T) {
	router := newRouter(t, config.RateLimitConfig{Requests: 2, Duration: 3600})
	a := register(t, router, "a@example.com")
	b := register(t, router, "b@example.com")

	a.expect(200, "GET", "/api/v1/profile", nil, nil)
	a.expect(200, "GET", "/api/v1/profile", nil, nil)
	env := a.expect(429, "GET", "/api/v1/profile", nil, nil)
	if !env.Retryable {
		t.Fatal("429 should be retryable")
	}
	b.expect(200, "GET", "/api/v1/profile", nil, nil)
}

func TestDeleteAccount(t *testing.T) {
	router := newRouter(t, config.RateLimitConfig{Requests: 1000, Duration: 1})
	c := register(t, router, "a@example.com")
	c.expect(201, "POST", "/api/v1/items", map[string]interface{}{"itemName": "Tea", "itemPrice": 10}, nil)

	c.expect(401, "DELETE", "/api/v1/account", map[string]string{"password": "bad"}, nil)
	c.expect(200, "DELETE", "/api/v1/account", map[string]string{"password": "secret1"}, nil)

	anon := &client{t: t, router: router}
	anon.expect(401, "POST", "/api/v1/auth/login", map[string]string{"email": "a@example.com", "password": "secret1"}, nil)
}
