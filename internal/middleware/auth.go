package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/model"
)

const userKey = "currentUser"

// Authenticator resolves a bearer token to the stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth loads the caller from the Authorization header. EventSource clients cannot set
// headers, so a `token` query parameter is accepted as well.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			httpx.Fail(c, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			httpx.Error(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireRoles rejects callers whose role is not listed. It must run after Auth.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			httpx.Fail(c, http.StatusUnauthorized, "authentication required")
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		httpx.Fail(c, http.StatusForbidden, "you do not have permission to perform this action")
	}
}

// CurrentUser returns the user stored by Auth, or nil on public routes.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
