package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLimitParam reads a bounded "limit" query parameter
func GetLimitParam(c *gin.Context, defaultLimit, maxLimit int) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	return limit
}
