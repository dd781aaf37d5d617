package middleware

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillbook-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	// TTL defaults to IdempotencyKeyTTL.
	TTL time.Duration
	Now func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

var (
	errKeyInProgress = &apperror.AppError{
		Code:      http.StatusConflict,
		Message:   "A request with this Idempotency-Key is still in progress",
		Retryable: true,
	}
	errKeyReused = apperror.NewConflictError("Idempotency-Key was already used for a different request")
)

// Idempotency replays the stored response when a POST is repeated with the
// same Idempotency-Key. The key is reserved before the handler runs, so a
// concurrent repeat gets a retryable 409 instead of running twice. Only 2xx
// responses are kept; any other outcome releases the key for a retry.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = IdempotencyKeyTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Next()
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		endpoint := c.Request.Method + " " + c.FullPath()

		existing, err := config.Repo.GetByKey(ctx, idempotencyKey, userID)
		if err != nil {
			log.Printf("Idempotency lookup failed: %v", err)
			c.Next()
			return
		}

		now := config.Now()
		if existing != nil && existing.IsExpired(now) {
			removed, err := config.Repo.DeleteExpired(ctx, now.UnixMilli())
			if err != nil {
				log.Printf("Idempotency cleanup failed: %v", err)
			} else {
				log.Printf("Idempotency cleanup removed %d expired keys", removed)
			}
			existing = nil
		}
		if existing != nil {
			replay(c, existing, endpoint)
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:       idempotencyKey,
			UserID:    userID,
			Endpoint:  endpoint,
			ExpiresAt: now.Add(config.TTL).UnixMilli(),
		}
		reserved, err := config.Repo.Reserve(ctx, ikey)
		if err != nil {
			log.Printf("Idempotency reserve failed: %v", err)
			c.Next()
			return
		}
		if !reserved {
			// Lost the race to a concurrent request with the same key.
			existing, err = config.Repo.GetByKey(ctx, idempotencyKey, userID)
			if err != nil || existing == nil {
				response.Error(c, errKeyInProgress)
				c.Abort()
				return
			}
			replay(c, existing, endpoint)
			return
		}

		stored := false
		defer func() {
			if stored {
				return
			}
			if err := config.Repo.Release(ctx, ikey.ID); err != nil {
				log.Printf("Idempotency release failed: %v", err)
			}
		}()

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := config.Repo.Complete(ctx, ikey.ID, status, blw.body.String()); err != nil {
			log.Printf("Idempotency store failed: %v", err)
			return
		}
		stored = true
	}
}

// replay answers from a key another request already holds.
func replay(c *gin.Context, existing *entity.IdempotencyKey, endpoint string) {
	switch {
	case existing.Endpoint != endpoint:
		response.Error(c, errKeyReused)
	case existing.Pending():
		response.Error(c, errKeyInProgress)
	default:
		c.Header("X-Idempotency-Replayed", "true")
		c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
	}
	c.Abort()
}
