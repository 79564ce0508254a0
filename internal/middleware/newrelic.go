package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicErrorReporter annotates the nrgin transaction of a request with the
// booking route parameters and reports errors attached by handlers.
// It must be registered after nrgin.Middleware.
func NewRelicErrorReporter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if id := c.Param("id"); id != "" {
			txn.AddAttribute("resource_id", id)
		}
		if key := c.GetHeader(idempotencyHeader); key != "" {
			txn.AddAttribute("idempotency_key", key)
		}

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
