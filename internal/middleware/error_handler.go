package middleware

import (
	"errors"

	apiError "pdf-extractor-api/internal/errors"
	"pdf-extractor-api/internal/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			var apiErr *apiError.APIError

			// if it's our custom APIError
			if !errors.As(err, &apiErr) {
				// If it's a raw error we didn't wrap, treat as Internal
				apiErr = apiError.Internal(err)
			}

			if apiErr.Status >= 500 {
				logger.Log.Error().Err(apiErr.Internal).Str("path", c.Request.URL.Path).Msg(apiErr.Message)
			} else {
				logger.Log.Info().Err(apiErr.Internal).Str("path", c.Request.URL.Path).Msg(apiErr.Message)
			}

			// Respond with JSON
			c.AbortWithStatusJSON(apiErr.Status, apiErr)
		}
	}
}
