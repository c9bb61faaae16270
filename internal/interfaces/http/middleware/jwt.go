package middleware

import (
	"net/http"
	"strings"

	"github.com/craftledger/backend/internal/domain/identity"
	"github.com/craftledger/backend/internal/infrastructure/auth"
	"github.com/craftledger/backend/internal/infrastructure/logger"
	"github.com/craftledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ActorKey is the gin context key holding the authenticated actor
	ActorKey = "actor"
	// AuthHeaderKey is the authorization header name
	AuthHeaderKey = "Authorization"
	// BearerPrefix is the expected authorization scheme
	BearerPrefix = "Bearer "
)

// JWTAuth validates the bearer token and places the resolved actor in
// the gin context. Every route behind this middleware can assume a
// fully populated actor.
func JWTAuth(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "UNAUTHORIZED", "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if log != nil {
				log.Warn("token validation failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
			}
			switch err {
			case auth.ErrExpiredToken:
				abortUnauthorized(c, "TOKEN_EXPIRED", "Token has expired")
			default:
				abortUnauthorized(c, "INVALID_TOKEN", "Invalid token")
			}
			return
		}

		tenantID, err := claims.GetTenantUUID()
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid tenant in token")
			return
		}
		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid user in token")
			return
		}

		actor := identity.Actor{
			UserID:   userID,
			TenantID: tenantID,
			Role:     identity.Role(claims.Role),
		}
		c.Set(ActorKey, actor)

		ctx := c.Request.Context()
		reqLog := logger.FromContext(ctx)
		ctx, _ = logger.WithTenantID(ctx, reqLog, claims.TenantID)
		ctx, _ = logger.WithUserID(ctx, reqLog, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetActor retrieves the authenticated actor from gin context. The
// zero actor fails every authorization check downstream.
func GetActor(c *gin.Context) identity.Actor {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(identity.Actor); ok {
			return actor
		}
	}
	return identity.Actor{}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(code, message, GetRequestID(c)))
}
