package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"toll-engine/internal/auth"
	"toll-engine/internal/model"
)

const (
	claimsContextKey    = "tokenClaims"
	operatorContextKey  = "operator"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
)

func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawHeader := c.GetHeader(authorizationHeader)
		if rawHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		parts := strings.SplitN(rawHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := parser.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		operator := model.Operator{
			OperatorID: claims.OperatorID,
			CameraCode: claims.CameraCode,
			Role:       claims.Role,
		}

		c.Set(claimsContextKey, claims)
		c.Set(operatorContextKey, operator)
		c.Next()
	}
}

func MustOperator(c *gin.Context) (model.Operator, bool) {
	value, exists := c.Get(operatorContextKey)
	if !exists {
		return model.Operator{}, false
	}

	operator, ok := value.(model.Operator)
	if !ok {
		return model.Operator{}, false
	}

	return operator, true
}
