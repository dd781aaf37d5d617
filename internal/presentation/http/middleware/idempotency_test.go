package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/presentation/http/middleware"
)

type memKeys struct {
	mu      sync.Mutex
	keys    map[string]*entity.IdempotencyKey
	purged  int64
	deletes int
}

func newMemKeys() *memKeys {
	return &memKeys{keys: make(map[string]*entity.IdempotencyKey)}
}

func (m *memKeys) GetByKey(_ context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[userID.String()+key]; ok {
		found := *v
		return &found, nil
	}
	return nil, nil
}

func (m *memKeys) Reserve(_ context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := ikey.UserID.String() + ikey.Key
	if _, ok := m.keys[k]; ok {
		return false, nil
	}
	ikey.Prepare(time.Now())
	stored := *ikey
	m.keys[k] = &stored
	return true, nil
}

func (m *memKeys) Complete(_ context.Context, id uuid.UUID, code int, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.keys {
		if v.ID == id {
			v.ResponseCode = code
			v.ResponseBody = body
		}
	}
	return nil
}

func (m *memKeys) Release(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.keys {
		if v.ID == id {
			delete(m.keys, k)
		}
	}
	return nil
}

func (m *memKeys) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (m *memKeys) DeleteExpired(_ context.Context, before int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	var n int64
	for k, v := range m.keys {
		if v.ExpiresAt < before {
			delete(m.keys, k)
			n++
		}
	}
	m.purged += n
	return n, nil
}

func (m *memKeys) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	return nil
}

func newIdempotentRouter(repo *memKeys, now *time.Time, status *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	owner := uuid.New()
	calls := 0
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", owner) })
	r.POST("/receipts", middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: repo,
		TTL:  time.Hour,
		Now:  func() time.Time { return *now },
	}), func(c *gin.Context) {
		calls++
		c.JSON(*status, gin.H{"call": calls})
	})
	return r
}

func post(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/receipts", nil)
	if key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	repo := newMemKeys()
	now := time.UnixMilli(1_700_000_000_000)
	status := http.StatusCreated
	r := newIdempotentRouter(repo, &now, &status)

	first := post(r, "k1")
	second := post(r, "k1")

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("codes = %d, %d", first.Code, second.Code)
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatal("second response was not replayed")
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", first.Body, second.Body)
	}
	if third := post(r, ""); third.Body.String() != `{"call":2}` {
		t.Fatalf("request without key = %s", third.Body)
	}
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	repo := newMemKeys()
	now := time.UnixMilli(1_700_000_000_000)
	status := http.StatusServiceUnavailable
	r := newIdempotentRouter(repo, &now, &status)

	post(r, "retry")
	status = http.StatusCreated
	w := post(r, "retry")

	if w.Code != http.StatusCreated || w.Header().Get("X-Idempotency-Replayed") != "" {
		t.Fatalf("retry after failure: code=%d replayed=%q", w.Code, w.Header().Get("X-Idempotency-Replayed"))
	}
	if repo.len() != 1 {
		t.Fatalf("stored keys = %d, want 1", repo.len())
	}
}

func TestIdempotency_ConcurrentRepeatDoesNotRunTwice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newMemKeys()
	owner := uuid.New()
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var calls int32

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", owner) })
	r.POST("/receipts", middleware.Idempotency(middleware.IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-proceed
		}
		c.JSON(http.StatusCreated, gin.H{"id": "r-1"})
	})

	first := make(chan *httptest.ResponseRecorder)
	go func() { first <- post(r, "same") }()
	<-entered

	busy := post(r, "same")
	if busy.Code != http.StatusConflict || !strings.Contains(busy.Body.String(), `"retryable":true`) {
		t.Fatalf("concurrent repeat: code=%d body=%s", busy.Code, busy.Body)
	}

	close(proceed)
	if w := <-first; w.Code != http.StatusCreated {
		t.Fatalf("first request code = %d", w.Code)
	}

	again := post(r, "same")
	if again.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatal("repeat after completion was not replayed")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("handler ran %d times, want 1", n)
	}
}

func TestIdempotency_KeyReusedOnAnotherEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newMemKeys()
	owner := uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", owner) })
	idem := middleware.Idempotency(middleware.IdempotencyConfig{Repo: repo})
	ok := func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{}) }
	r.POST("/receipts", idem, ok)
	r.POST("/drafts/:id/commit", idem, ok)

	post(r, "shared")
	req := httptest.NewRequest(http.MethodPost, "/drafts/d1/commit", nil)
	req.Header.Set(middleware.IdempotencyKeyHeader, "shared")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", w.Code)
	}
}

func TestIdempotency_ExpiredKeyIsPurgedAndRerun(t *testing.T) {
	repo := newMemKeys()
	now := time.UnixMilli(1_700_000_000_000)
	status := http.StatusCreated
	r := newIdempotentRouter(repo, &now, &status)

	post(r, "old")
	now = now.Add(2 * time.Hour)
	w := post(r, "old")

	if w.Header().Get("X-Idempotency-Replayed") != "" {
		t.Fatal("expired key was replayed")
	}
	if w.Body.String() != `{"call":2}` {
		t.Fatalf("body = %s, want a fresh run", w.Body)
	}
	if repo.deletes != 1 || repo.purged != 1 {
		t.Fatalf("deletes=%d purged=%d", repo.deletes, repo.purged)
	}
}
