package middlewares

import (
	"strings"

	"naagrik-api/services"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// PrincipalVerifier turns a bearer token into a principal, or nil.
type PrincipalVerifier interface {
	Verify(token string) *services.Principal
}

// Authenticate classifies the caller. It never rejects a request: a missing
// or invalid token leaves the caller anonymous and the operation decides
// whether that is enough.
func Authenticate(v PrincipalVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			if p := v.Verify(token); p != nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// CurrentPrincipal returns the caller set by Authenticate, or nil.
func CurrentPrincipal(c *gin.Context) *services.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*services.Principal)
	return p
}
