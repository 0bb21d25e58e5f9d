package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/config"
	"github.com/nodespeak/nodespeak/utils"
)

// ContextOperatorKey stores the authenticated operator inside Gin context.
const ContextOperatorKey = "operator"

// LocalOperator is recorded when the node runs without a JWT secret.
const LocalOperator = "local"

// AuthRequired guards routes that spend the node wallet's gas. With no
// JWT_SECRET configured the node is assumed to be bound to a trusted
// interface and every caller acts as LocalOperator.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if config.Get().JWTSecret == "" {
			ctx.Set(ContextOperatorKey, LocalOperator)
			ctx.Next()
			return
		}

		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextOperatorKey, claims.Operator)
		ctx.Next()
	}
}

// Operator returns the operator set by AuthRequired.
func Operator(ctx *gin.Context) string {
	return ctx.GetString(ContextOperatorKey)
}
