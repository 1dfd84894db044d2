package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextRolesKey stores the role tags of the principal.
	ContextRolesKey = "roles"
	// ContextTokenIDKey stores the jti of the presented token.
	ContextTokenIDKey = "jti"
	// ContextClaimsKey stores the parsed *utils.Claims.
	ContextClaimsKey = "claims"

	// TokenHeader is the plain header accepted as an alternative to Authorization: Bearer.
	TokenHeader = "auth-token"
)

// TokenVerifier is implemented by utils.TokenManager.
type TokenVerifier interface {
	ParseToken(token string) (*utils.Claims, error)
}

// RevocationChecker is implemented by utils.TokenBlacklist.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// AuthRequired ensures the request carries a valid, unrevoked token. revoked may be nil.
func AuthRequired(tokens TokenVerifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx)
		if !ok {
			abortUnauthorized(ctx, "access denied, no token provided")
			return
		}

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			utils.Logger.Debug("token rejected: " + err.Error())
			abortUnauthorized(ctx, "invalid or expired token")
			return
		}

		if revoked != nil && revoked.IsRevoked(ctx.Request.Context(), claims.ID) {
			abortUnauthorized(ctx, "token revoked")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRolesKey, claims.Roles)
		ctx.Set(ContextTokenIDKey, claims.ID)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// bearerToken reads Authorization: Bearer <t>, falling back to the auth-token header.
func bearerToken(ctx *gin.Context) (string, bool) {
	if authHeader := strings.TrimSpace(ctx.GetHeader("Authorization")); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		token := strings.TrimSpace(parts[1])
		return token, token != ""
	}
	token := strings.TrimSpace(ctx.GetHeader(TokenHeader))
	return token, token != ""
}

func abortUnauthorized(ctx *gin.Context, message string) {
	utils.RespondError(ctx, apperrors.New(apperrors.ErrUnauthorized, message))
	ctx.Abort()
}

// UserID returns the authenticated principal, or "" outside AuthRequired.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserIDKey)
}

// Claims returns the parsed token claims set by AuthRequired.
func Claims(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
