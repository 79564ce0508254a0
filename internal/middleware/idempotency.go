package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	replayedHeader     = "Idempotent-Replayed"
	idempotencyTTL     = 24 * time.Hour
	idempotencyLockTTL = 30 * time.Second
)

// storedReply is a booking API reply kept for replay.
type storedReply struct {
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the handler's reply into a buffer.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// replayable reports whether a reply is final for its key. A created or
// rejected booking is final. Server errors are not, and neither is 503:
// no capacity and a closed scheduler are both worth retrying with the
// same key once a vehicle frees up or the service is back.
func replayable(status int) bool {
	return status >= http.StatusOK && status < http.StatusInternalServerError
}

// idempotencyKey scopes a client key to the route it was sent to, so the
// same key on /v1/bookings and /v1/bookings/:id/cancel never collide.
func idempotencyKey(method, path, key string) string {
	return "idempotency:" + method + ":" + path + ":" + key
}

// IdempotencyMiddleware replays the stored reply of a POST carrying a known
// Idempotency-Key, so a client retrying a booking does not book a second
// vehicle. Without a Redis client the middleware is a pass-through.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if redisClient == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyKey(c.Request.Method, c.Request.URL.Path, key)

		reply, err := loadReply(ctx, redisClient, storeKey)
		if err != nil {
			log.Printf("[IDEMPOTENCY] lookup of %s failed, serving without replay: %v", storeKey, err)
			c.Next()
			return
		}
		if reply != nil {
			c.Header(replayedHeader, "true")
			c.Data(reply.Status, reply.ContentType, reply.Body)
			c.Abort()
			return
		}

		lockKey := storeKey + ":lock"
		acquired, err := redisClient.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			log.Printf("[IDEMPOTENCY] lock of %s failed, serving without replay: %v", storeKey, err)
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			return
		}
		defer redisClient.Del(context.WithoutCancel(ctx), lockKey)

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		if !replayable(w.Status()) {
			return
		}
		err = storeReply(context.WithoutCancel(ctx), redisClient, storeKey, &storedReply{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			log.Printf("[IDEMPOTENCY] failed to store reply for %s: %v", storeKey, err)
		}
	}
}

// loadReply returns nil, nil when no reply is stored under key.
func loadReply(ctx context.Context, client *redis.Client, key string) (*storedReply, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var reply storedReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func storeReply(ctx context.Context, client *redis.Client, key string, reply *storedReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
