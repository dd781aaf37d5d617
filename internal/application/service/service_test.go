package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/internal/infrastructure/database"
	"github.com/sangkips/tillbook-api/internal/infrastructure/draftstore"
	"github.com/sangkips/tillbook-api/internal/infrastructure/sqlite"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/sangkips/tillbook-api/pkg/printer"
	"github.com/sangkips/tillbook-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	users     repository.UserRepository
	items     repository.ItemRepository
	receipts  repository.ReceiptRepository
	drafts    *draftstore.MemoryStore
	auth      *AuthService
	itemSvc   *ItemService
	receipt   *ReceiptService
	draft     *DraftService
	dashboard *DashboardService
	settings  *SettingsService
	account   *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	drafts := draftstore.NewMemoryStore(time.Hour)
	t.Cleanup(func() { drafts.Close() })

	env := &testEnv{
		users:    sqlite.NewUserRepository(db),
		items:    sqlite.NewItemRepository(db),
		receipts: sqlite.NewReceiptRepository(db),
		drafts:   drafts,
	}
	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	env.auth = NewAuthService(env.users, jwtManager, nil, entity.DefaultStoreConfig())
	env.itemSvc = NewItemService(env.items)
	env.receipt = NewReceiptService(env.receipts, env.items, env.users, nil)
	env.draft = NewDraftService(drafts, env.itemSvc, env.receipt)
	env.dashboard = NewDashboardService(env.receipts)
	env.settings = NewSettingsService(env.users)
	env.account = NewAccountService(env.users, env.items, env.receipts, drafts, sqlite.NewIdempotencyRepository(db))
	return env
}

func (e *testEnv) register(t *testing.T, email string) *entity.User {
	t.Helper()
	out, err := e.auth.Register(context.Background(), &RegisterInput{Email: email, Password: "secret1", StoreName: "Corner Shop"})
	if err != nil {
		t.Fatal(err)
	}
	return out.User
}

func (e *testEnv) item(t *testing.T, owner *entity.User, name, price, barcode string) *entity.Item {
	t.Helper()
	it, err := e.itemSvc.CreateItem(context.Background(), &CreateItemInput{
		OwnerID:   owner.ID,
		Email:     owner.Email,
		ItemName:  name,
		ItemPrice: decimal.RequireFromString(price),
		Barcode:   barcode,
	})
	if err != nil {
		t.Fatal(err)
	}
	return it
}

func code(err error) int {
	if appErr := apperror.GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return 0
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, err := env.auth.Register(ctx, &RegisterInput{Email: " Owner@Example.com ", Password: "secret1", StoreName: " Corner Shop "})
	if err != nil {
		t.Fatal(err)
	}
	if out.User.Email != "owner@example.com" || out.User.StoreName != "Corner Shop" || out.AccessToken == "" {
		t.Fatalf("register output = %+v", out)
	}

	tests := []struct {
		name  string
		input RegisterInput
		want  *apperror.AppError
	}{
		{"duplicate", RegisterInput{Email: "owner@example.com", Password: "secret1", StoreName: "X"}, apperror.ErrEmailInUse},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "secret1", StoreName: "X"}, apperror.ErrInvalidEmail},
		{"weak password", RegisterInput{Email: "b@example.com", Password: "12345", StoreName: "X"}, apperror.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, &tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := env.auth.Register(ctx, &RegisterInput{Email: "c@example.com", Password: "secret1"}); code(err) != 422 {
		t.Fatalf("missing store name err = %v", err)
	}

	if _, err := env.auth.Login(ctx, &LoginInput{Email: "owner@example.com", Password: "wrong!"}); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("login with wrong password err = %v", err)
	}
	login, err := env.auth.Login(ctx, &LoginInput{Email: "OWNER@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	refreshed, err := env.auth.RefreshToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.User.ID != out.User.ID {
		t.Fatalf("refreshed user = %s", refreshed.User.ID)
	}
	if _, err := env.auth.RefreshToken(ctx, login.AccessToken); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestItems_CRUDAndBarcodeConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	other := env.register(t, "b@example.com")

	tea := env.item(t, owner, "  Tea ", "10.005", "111")
	if tea.ItemName != "Tea" || !tea.ItemPrice.Equal(decimal.RequireFromString("10.01")) {
		t.Fatalf("item = %+v", tea)
	}

	_, err := env.itemSvc.CreateItem(ctx, &CreateItemInput{OwnerID: owner.ID, ItemName: "Coffee", ItemPrice: decimal.NewFromInt(5), Barcode: "111"})
	if code(err) != 409 {
		t.Fatalf("duplicate barcode err = %v", err)
	}
	// Another store may reuse the code.
	env.item(t, other, "Tea", "9", "111")

	_, err = env.itemSvc.CreateItem(ctx, &CreateItemInput{OwnerID: owner.ID, ItemName: " ", ItemPrice: decimal.NewFromInt(-1)})
	if appErr := apperror.GetAppError(err); appErr.Code != 422 || len(appErr.Errors) != 2 {
		t.Fatalf("validation err = %+v", appErr)
	}

	name := "Green Tea"
	price := decimal.RequireFromString("12")
	updated, err := env.itemSvc.UpdateItem(ctx, &UpdateItemInput{OwnerID: owner.ID, ItemID: tea.ID, ItemName: &name, ItemPrice: &price})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ItemName != "Green Tea" || updated.Barcode != "111" {
		t.Fatalf("updated = %+v", updated)
	}

	found, err := env.itemSvc.GetItemByBarcode(ctx, owner.ID, "111")
	if err != nil || found.ID != tea.ID {
		t.Fatalf("barcode lookup = %+v, %v", found, err)
	}

	if _, err := env.itemSvc.GetItem(ctx, other.ID, tea.ID); code(err) != 404 {
		t.Fatalf("cross-owner get err = %v", err)
	}
	if err := env.itemSvc.DeleteItem(ctx, owner.ID, tea.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.itemSvc.GetItem(ctx, owner.ID, tea.ID); code(err) != 404 {
		t.Fatalf("get after delete err = %v", err)
	}
}

func TestItems_ListPagesAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	for _, n := range []string{"Apple", "Banana", "Pineapple", "Cherry", "Grape"} {
		env.item(t, owner, n, "1", "")
	}

	first, err := env.itemSvc.ListItems(ctx, &ListItemsInput{OwnerID: owner.ID, Cursor: pagination.CursorParams{Limit: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != 3 || !first.Pagination.HasNext || first.Pagination.NextCursor == nil {
		t.Fatalf("first page = %+v", first.Pagination)
	}
	second, err := env.itemSvc.ListItems(ctx, &ListItemsInput{OwnerID: owner.ID, Cursor: pagination.CursorParams{Limit: 3, Cursor: *first.Pagination.NextCursor}})
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Items) != 2 || second.Pagination.HasNext {
		t.Fatalf("second page = %d items, %+v", len(second.Items), second.Pagination)
	}

	found, err := env.itemSvc.ListItems(ctx, &ListItemsInput{OwnerID: owner.ID, Search: "APPLE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found.Items) != 2 {
		t.Fatalf("search found %d items, want 2", len(found.Items))
	}

	if _, err := env.itemSvc.ListItems(ctx, &ListItemsInput{OwnerID: owner.ID, Cursor: pagination.CursorParams{Cursor: "%%%"}}); code(err) != 400 {
		t.Fatalf("bad cursor err = %v", err)
	}
}

func TestReceipts_CreateMergesLinesAndSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "10", "")
	cake := env.item(t, owner, "Cake", "5.50", "")

	r, err := env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
		OwnerID:      owner.ID,
		Email:        owner.Email,
		CustomerName: "Asha",
		Lines: []ReceiptLineInput{
			{ItemID: tea.ID, Quantity: 2},
			{ItemID: cake.ID, Quantity: 1},
			{ItemID: tea.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Items) != 2 || r.Items[0].Quantity != 3 || !r.Total.Equal(decimal.RequireFromString("35.5")) {
		t.Fatalf("receipt = %+v", r)
	}

	price := decimal.NewFromInt(99)
	if _, err := env.itemSvc.UpdateItem(ctx, &UpdateItemInput{OwnerID: owner.ID, ItemID: tea.ID, ItemPrice: &price}); err != nil {
		t.Fatal(err)
	}
	stored, err := env.receipt.GetReceipt(ctx, owner.ID, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Items[0].ItemPrice.Equal(decimal.NewFromInt(10)) || !stored.Total.Equal(r.Total) {
		t.Fatalf("receipt changed after item edit: %+v", stored)
	}

	_, err = env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
		OwnerID:      owner.ID,
		CustomerName: "Asha",
		Lines:        []ReceiptLineInput{{ItemID: uuid.New(), Quantity: 1}},
	})
	if appErr := apperror.GetAppError(err); appErr.Code != 422 || appErr.Errors[0].Field != "items[0].itemId" {
		t.Fatalf("unknown item err = %v", err)
	}
	_, err = env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
		OwnerID:      owner.ID,
		CustomerName: "Asha",
		Lines:        []ReceiptLineInput{{ItemID: tea.ID, Quantity: 0}},
	})
	if code(err) != 422 {
		t.Fatalf("zero quantity err = %v", err)
	}
}

func TestReceipts_Share(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "10", "")

	withMobile, err := env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
		OwnerID: owner.ID, CustomerName: "Asha", CustomerMobile: "9876543210",
		Lines: []ReceiptLineInput{{ItemID: tea.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	share, err := env.receipt.ShareReceipt(ctx, owner.ID, withMobile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if share.Text == "" || share.WhatsAppURL == "" || share.SMSURL == "" {
		t.Fatalf("share = %+v", share)
	}

	noMobile, err := env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
		OwnerID: owner.ID, CustomerName: "Ravi",
		Lines: []ReceiptLineInput{{ItemID: tea.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	share, err = env.receipt.ShareReceipt(ctx, owner.ID, noMobile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if share.WhatsAppURL != "" || share.SMSURL != "" {
		t.Fatalf("links without mobile: %+v", share)
	}

	if err := env.receipt.EmailReceipt(ctx, owner.ID, noMobile.ID, "ravi@example.com"); code(err) != 503 {
		t.Fatalf("email without SMTP err = %v", err)
	}
}

func TestDrafts_Flow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "10", "111")
	cake := env.item(t, owner, "Cake", "5.50", "222")

	d, err := env.draft.OpenDraft(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.draft.ScanItem(ctx, owner.ID, d.ID, "111"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.draft.ScanItem(ctx, owner.ID, d.ID, "111"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.draft.AddItem(ctx, owner.ID, d.ID, cake.ID); err != nil {
		t.Fatal(err)
	}
	view, err := env.draft.ChangeQuantity(ctx, owner.ID, d.ID, tea.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if view.ItemCount != 4 || !view.Total.Equal(decimal.RequireFromString("35.5")) {
		t.Fatalf("view = %+v", view)
	}

	view, err = env.draft.ChangeQuantity(ctx, owner.ID, d.ID, tea.ID, -10)
	if err != nil {
		t.Fatal(err)
	}
	if !view.Total.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("clamped total = %s", view.Total)
	}
	if _, err := env.draft.ChangeQuantity(ctx, owner.ID, d.ID, uuid.New(), 1); code(err) != 404 {
		t.Fatalf("unknown line err = %v", err)
	}
	if _, err := env.draft.ScanItem(ctx, owner.ID, d.ID, "999"); code(err) != 404 {
		t.Fatalf("unknown barcode err = %v", err)
	}

	if _, err := env.draft.CommitDraft(ctx, &CommitDraftInput{OwnerID: owner.ID, DraftID: d.ID}); code(err) != 422 {
		t.Fatalf("commit without customer err = %v", err)
	}
	kept, err := env.draft.GetDraft(ctx, owner.ID, d.ID)
	if err != nil || len(kept.Lines) != 2 {
		t.Fatalf("draft after failed commit = %+v, %v", kept, err)
	}

	receipt, err := env.draft.CommitDraft(ctx, &CommitDraftInput{OwnerID: owner.ID, Email: owner.Email, DraftID: d.ID, CustomerName: "Asha"})
	if err != nil {
		t.Fatal(err)
	}
	if !receipt.Total.Equal(decimal.RequireFromString("15.5")) || receipt.ItemCount() != 2 {
		t.Fatalf("receipt = %+v", receipt)
	}
	if _, err := env.draft.GetDraft(ctx, owner.ID, d.ID); code(err) != 404 {
		t.Fatalf("draft should be gone after commit: %v", err)
	}
}

func TestDrafts_ConcurrentChangesSerialise(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "1.25", "")

	d, err := env.draft.OpenDraft(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.draft.AddItem(ctx, owner.ID, d.ID, tea.ID); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.draft.ChangeQuantity(ctx, owner.ID, d.ID, tea.ID, 1); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	view, err := env.draft.GetDraft(ctx, owner.ID, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.ItemCount != 21 || !view.Total.Equal(decimal.RequireFromString("26.25")) {
		t.Fatalf("view = %+v", view)
	}
	if len(env.draft.locks.locks) != 0 {
		t.Fatalf("locks leaked: %d", len(env.draft.locks.locks))
	}
}

func TestDashboard_Totals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	env.dashboard.now = func() time.Time { return now }
	for _, r := range []struct {
		at    time.Time
		qty   int
		price string
	}{
		{now.Add(-time.Hour), 2, "10"},
		{now.Add(-3 * time.Hour), 1, "4.5"},
		{now.Add(-48 * time.Hour), 5, "100"},
	} {
		receipt := &entity.Receipt{
			OwnerID:      owner.ID,
			Email:        owner.Email,
			CustomerName: "C",
			Items:        []entity.ReceiptLine{{ItemName: "X", ItemPrice: decimal.RequireFromString(r.price), Quantity: r.qty}},
			Total:        decimal.RequireFromString(r.price).Mul(decimal.NewFromInt(int64(r.qty))),
			CreatedAt:    r.at.UnixMilli(),
		}
		if err := env.receipts.Create(ctx, receipt); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := env.dashboard.GetStats(ctx, &DashboardInput{OwnerID: owner.ID})
	if err != nil {
		t.Fatal(err)
	}
	if stats.ReceiptCount != 2 || stats.ItemsCount != 3 || !stats.TotalSales.Equal(decimal.RequireFromString("24.5")) {
		t.Fatalf("stats = %+v", stats)
	}

	from := now.Add(-72 * time.Hour).UnixMilli()
	stats, err = env.dashboard.GetStats(ctx, &DashboardInput{OwnerID: owner.ID, From: &from})
	if err != nil {
		t.Fatal(err)
	}
	if stats.ReceiptCount != 3 {
		t.Fatalf("receipt count = %d, want 3", stats.ReceiptCount)
	}

	to := from - 1
	if _, err := env.dashboard.GetStats(ctx, &DashboardInput{OwnerID: owner.ID, From: &from, To: &to}); code(err) != 422 {
		t.Fatalf("inverted range err = %v", err)
	}
}

func TestSettings_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")

	got, err := env.settings.GetSettings(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Config.CurrencySymbol != "₹" || len(got.CurrencyOptions) == 0 {
		t.Fatalf("settings = %+v", got)
	}

	symbol, prefix, note := "$", "+1", "  Thanks for shopping  "
	got, err = env.settings.UpdateSettings(ctx, &UpdateSettingsInput{UserID: owner.ID, CurrencySymbol: &symbol, MobilePrefix: &prefix, ReceiptNote: &note})
	if err != nil {
		t.Fatal(err)
	}
	if got.Config.CurrencySymbol != "$" || got.Config.MobilePrefix != "+1" || got.Config.ReceiptNote != "Thanks for shopping" {
		t.Fatalf("updated = %+v", got.Config)
	}

	bad, badPrefix := "X", "91"
	_, err = env.settings.UpdateSettings(ctx, &UpdateSettingsInput{UserID: owner.ID, CurrencySymbol: &bad, MobilePrefix: &badPrefix})
	if appErr := apperror.GetAppError(err); appErr.Code != 422 || len(appErr.Errors) != 2 {
		t.Fatalf("validation err = %v", err)
	}
	again, _ := env.settings.GetSettings(ctx, owner.ID)
	if again.Config.CurrencySymbol != "$" {
		t.Fatalf("failed update changed settings: %+v", again.Config)
	}
}

func TestExport_WritesEveryReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "10", "")
	for i := 0; i < 7; i++ {
		if _, err := env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
			OwnerID: owner.ID, CustomerName: "C",
			Lines: []ReceiptLineInput{{ItemID: tea.ID, Quantity: i + 1}},
		}); err != nil {
			t.Fatal(err)
		}
	}

	data, err := NewExportService(env.receipt, 3, time.Second).ExportReceipts(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer book.Close()
	rows, err := book.GetRows("Receipts")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 8 || rows[0][0] != "Receipt ID" {
		t.Fatalf("rows = %d, header = %v", len(rows), rows[0])
	}
}

func TestPrinter_NoPrinterConfigured(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "a@example.com")
	svc := NewPrinterService(printer.NewNullPrinter(), env.receipt, 0)

	if err := svc.TestPrint(context.Background(), owner.ID); code(err) != 400 {
		t.Fatalf("err = %v", err)
	}
	if st := svc.GetStatus(context.Background()); st.Connected {
		t.Fatalf("status = %+v", st)
	}
}

func TestAccount_DeleteRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "10", "")
	if _, err := env.receipt.CreateReceipt(ctx, &CreateReceiptInput{
		OwnerID: owner.ID, CustomerName: "C",
		Lines: []ReceiptLineInput{{ItemID: tea.ID, Quantity: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.draft.OpenDraft(ctx, owner.ID); err != nil {
		t.Fatal(err)
	}

	if err := env.account.DeleteAccount(ctx, &DeleteAccountInput{UserID: owner.ID, Password: "nope"}); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if err := env.account.DeleteAccount(ctx, &DeleteAccountInput{UserID: owner.ID, Password: "secret1"}); err != nil {
		t.Fatal(err)
	}

	if u, _ := env.users.GetByID(ctx, owner.ID); u != nil {
		t.Fatal("user still exists")
	}
	if list, _ := env.receipts.List(ctx, &repository.ReceiptFilterParams{OwnerID: owner.ID}); len(list) != 0 {
		t.Fatalf("%d receipts left", len(list))
	}
	if env.drafts.Len() != 0 {
		t.Fatalf("%d drafts left", env.drafts.Len())
	}
}

type failingReceipts struct {
	repository.ReceiptRepository
}

func (failingReceipts) Create(ctx context.Context, r *entity.Receipt) error {
	return errors.New("disk I/O error")
}

func TestDrafts_CommitStorageFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "a@example.com")
	tea := env.item(t, owner, "Tea", "10", "")

	broken := NewDraftService(env.drafts, env.itemSvc, NewReceiptService(failingReceipts{env.receipts}, env.items, env.users, nil))
	d, err := broken.OpenDraft(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := broken.AddItem(ctx, owner.ID, d.ID, tea.ID); err != nil {
		t.Fatal(err)
	}

	_, err = broken.CommitDraft(ctx, &CommitDraftInput{OwnerID: owner.ID, DraftID: d.ID, CustomerName: "Asha"})
	if !apperror.IsRetryable(err) || code(err) != 503 {
		t.Fatalf("err = %v, want retryable 503", err)
	}
	if view, err := broken.GetDraft(ctx, owner.ID, d.ID); err != nil || len(view.Lines) != 1 {
		t.Fatalf("draft after failed commit = %+v, %v", view, err)
	}
}
