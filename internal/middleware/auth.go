package middleware

import (
	"strings"

	"collab-editor/internal/auth"
	"collab-editor/internal/errors"

	"github.com/gin-gonic/gin"
)

type Auth struct {
	Verifier auth.Verifier
}

// AuthMiddleWare accepts the token either as a Bearer header or as a
// ?token= query parameter (websocket clients can't set headers).
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		identity, err := m.Verifier.Verify(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", identity.UserID)
		ctx.Set("org_id", identity.OrganizationID)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}
