package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetIDParam parses a positive numeric path parameter. On failure it
// responds with 400 and returns false.
func GetIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		RespondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// GetRequestID returns the id set by the request id middleware, if any
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get("request_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
