package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetListParams reads skip/limit query parameters with sane bounds
func GetListParams(c *gin.Context) (int, int) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return skip, limit
}
