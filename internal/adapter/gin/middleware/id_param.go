package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// IDKey is the gin context key under which IDParam stores the parsed id.
const IDKey = "id"

// IDParam parses the named path parameter as a non-negative int64 and stores
// it under IDKey. Anything else aborts with 400 before the handler runs.
func IDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(name), 10, 63)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		c.Set(IDKey, int64(id))
		c.Next()
	}
}
