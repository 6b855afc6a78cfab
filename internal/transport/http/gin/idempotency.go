package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	idempotencyLockTTL = 60 * time.Second
)

// idempotent runs do at most once per (scope, owner, Idempotency-Key). A repeat
// of a finished request replays the stored 201 body; a repeat while the first
// is still running gets 409 with Retry-After. Requests without the header, or
// a router without an idempotency store, simply run do.
//
// do returns the value to send with 201, or an error for respondErr. Failed
// attempts release the key so the client may retry with it.
func idempotent(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	scope string,
	owner uuid.UUID,
	do func() (any, error),
) {
	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if idem == nil || key == "" {
		res, err := do()
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
		return
	}

	ctx := c.Request.Context()
	storageKey := redisrepo.KeyIdem(scope, owner, key)

	if replayIdempotent(c, idem, storageKey, key) {
		return
	}

	locked, err := idem.AcquireLock(ctx, storageKey, idempotencyLockTTL)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !locked {
		if replayIdempotent(c, idem, storageKey, key) {
			return
		}
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
		return
	}

	res, err := do()
	if err != nil {
		_ = idem.Release(ctx, storageKey)
		respondErr(c, err)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		_ = idem.Release(ctx, storageKey)
		respondErr(c, err)
		return
	}

	// The saved result replaces the lock under the same key.
	if err := idem.SaveResult(ctx, storageKey, string(body)); err != nil {
		_ = idem.Release(ctx, storageKey)
	}

	c.Header(idempotencyHeader, key)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

func replayIdempotent(c *gin.Context, idem *redisrepo.IdempotencyStore, storageKey, key string) bool {
	payload, ok, _ := idem.GetResult(c.Request.Context(), storageKey)
	if !ok {
		return false
	}

	c.Header(idempotencyHeader, key)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))

	return true
}
