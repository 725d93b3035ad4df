package middleware

import (
	"net/http"
	"strings"

	"selftape/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ReaderIDKey = "readerID"

// TokenValidator resolves a bearer token to a reader id.
type TokenValidator interface {
	ExtractReaderID(token string) (string, error)
}

// ReaderAuthMiddleware requires a valid reader token. When the route has an
// :id parameter the token must belong to that reader.
func ReaderAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		readerID, err := tokens.ExtractReaderID(tokenString)
		if err != nil || readerID == "" {
			zap.L().Debug("Rejected reader token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "invalid token"})
			return
		}

		if id := c.Param("id"); id != "" && id != readerID {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{Error: "token does not belong to this reader"})
			return
		}

		c.Set(ReaderIDKey, readerID)
		c.Next()
	}
}
