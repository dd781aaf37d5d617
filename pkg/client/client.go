// Package client talks to the Tillbook API on behalf of one store owner.
//
// A Client is a session.Provider: it publishes the signed-in identity on
// login and token refresh, and nil on logout or when the refresh token is
// rejected.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/sangkips/tillbook-api/pkg/session"
	"github.com/shopspring/decimal"
)

const apiPrefix = "/api/v1"

// Client is an API client. It is safe for concurrent use.
type Client struct {
	session.Broadcaster

	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	Data      json.RawMessage       `json:"data"`
	Errors    []apperror.FieldError `json:"errors"`
	Retryable bool                  `json:"retryable"`
}

type tokenResponse struct {
	User struct {
		ID        uuid.UUID `json:"id"`
		Email     string    `json:"email"`
		StoreName string    `json:"storeName"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (t *tokenResponse) identity() *session.Identity {
	return &session.Identity{UserID: t.User.ID, Email: t.User.Email, StoreName: t.User.StoreName}
}

// Tokens returns the current access and refresh tokens.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// SetTokens restores a saved session. It does not publish an identity; call
// Refresh to validate the tokens and publish one.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken, c.refreshToken = access, refresh
	c.mu.Unlock()
}

func (c *Client) signIn(t *tokenResponse) *session.Identity {
	c.SetTokens(t.AccessToken, t.RefreshToken)
	id := t.identity()
	c.Publish(id)
	return id
}

func (c *Client) signOut() {
	c.SetTokens("", "")
	c.Publish(nil)
}

// Login signs in with e-mail and password.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Identity, error) {
	var out tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", nil, body, nil, &out, false); err != nil {
		return nil, err
	}
	return c.signIn(&out), nil
}

// Register creates a store account and signs in to it.
func (c *Client) Register(ctx context.Context, email, password, storeName string) (*session.Identity, error) {
	var out tokenResponse
	body := map[string]string{"email": email, "password": password, "storeName": storeName}
	if err := c.send(ctx, http.MethodPost, "/auth/register", nil, body, nil, &out, false); err != nil {
		return nil, err
	}
	return c.signIn(&out), nil
}

// Refresh trades the refresh token for a new pair. A rejected refresh token
// signs the client out.
func (c *Client) Refresh(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" {
		return apperror.ErrSignedOut
	}
	var out tokenResponse
	err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, map[string]string{"refreshToken": refresh}, nil, &out, false)
	if err != nil {
		if appErr := apperror.GetAppError(err); appErr.Code == http.StatusUnauthorized {
			c.signOut()
			return apperror.ErrSignedOut
		}
		return err
	}
	c.signIn(&out)
	return nil
}

// Logout tells the server and forgets the tokens. The local sign-out happens
// even if the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, nil)
	c.signOut()
	if err != nil && !errors.Is(err, apperror.ErrSignedOut) {
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, headers map[string]string, out interface{}) error {
	return c.send(ctx, method, path, query, body, headers, out, true)
}

// send performs one API call. With auth set it attaches the access token and,
// on a 401, refreshes once and retries.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}, headers map[string]string, out interface{}, auth bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		access := ""
		if auth {
			if access, _ = c.Tokens(); access == "" {
				return apperror.ErrSignedOut
			}
		}

		status, env, err := c.roundTrip(ctx, method, path, query, payload, headers, access)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized && auth && attempt == 0 {
			if err := c.Refresh(ctx); err != nil {
				return err
			}
			continue
		}
		if status < 200 || status > 299 || !env.Success {
			return &apperror.AppError{
				Code:      status,
				Message:   env.Message,
				Errors:    env.Errors,
				Retryable: env.Retryable,
			}
		}
		if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return fmt.Errorf("client: decode response: %w", err)
			}
		}
		return nil
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte, headers map[string]string, access string) (int, *envelope, error) {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("client: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, apperror.NewUnavailableError(apperror.ErrNetwork.Message, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperror.NewUnavailableError(apperror.ErrNetwork.Message, err)
	}
	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			if resp.StatusCode >= 500 {
				return 0, nil, apperror.NewUnavailableError(apperror.ErrNetwork.Message, err)
			}
			return 0, nil, fmt.Errorf("client: decode response: %w", err)
		}
	}
	if env.Message == "" {
		env.Message = http.StatusText(resp.StatusCode)
	}
	return resp.StatusCode, env, nil
}

// Draft is a receipt being built on the server.
type Draft struct {
	ID        uuid.UUID         `json:"id"`
	Lines     []entity.LineItem `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"itemCount"`
	UpdatedAt int64             `json:"updatedAt"`
}

// OpenDraft starts an empty draft.
func (c *Client) OpenDraft(ctx context.Context) (*Draft, error) {
	var d Draft
	if err := c.do(ctx, http.MethodPost, "/drafts", nil, nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ScanItem adds the item with barcode to a draft.
func (c *Client) ScanItem(ctx context.Context, draftID uuid.UUID, barcode string) (*Draft, error) {
	var d Draft
	path := "/drafts/" + draftID.String() + "/scan"
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"barcode": barcode}, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ChangeQuantity moves the quantity of one draft line by delta.
func (c *Client) ChangeQuantity(ctx context.Context, draftID, itemID uuid.UUID, delta int) (*Draft, error) {
	var d Draft
	path := "/drafts/" + draftID.String() + "/items/" + itemID.String()
	if err := c.do(ctx, http.MethodPatch, path, nil, map[string]int{"delta": delta}, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CommitDraft turns a draft into a receipt. The idempotency key makes a
// retried commit return the first receipt instead of failing.
func (c *Client) CommitDraft(ctx context.Context, draftID uuid.UUID, customerName, customerMobile, idempotencyKey string) (*entity.Receipt, error) {
	var r entity.Receipt
	path := "/drafts/" + draftID.String() + "/commit"
	body := map[string]string{"customerName": customerName, "customerMobile": customerMobile}
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	if err := c.do(ctx, http.MethodPost, path, nil, body, headers, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReceipts returns up to limit receipts strictly after the cursor,
// newest first.
func (c *Client) ListReceipts(ctx context.Context, after *pagination.Cursor, limit int) ([]entity.Receipt, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if after != nil {
		query.Set("cursor", pagination.EncodeCursor(*after))
	}
	var page pagination.CursorPaginatedResult[entity.Receipt]
	if err := c.do(ctx, http.MethodGet, "/receipts", query, nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ReceiptFetcher adapts ListReceipts for a pagination.Paginator.
func (c *Client) ReceiptFetcher() pagination.PageFetcher[entity.Receipt] {
	return c.ListReceipts
}
