package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// RequireRole gates a route behind one of the allowed roles. It runs after
// Middleware.Handle, so missing claims mean the route was wired without it.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[claims.Role]; !exists {
			return apperrors.NewForbidden(fmt.Sprintf("access denied: requires %s role", roleList(allowed)))
		}
		return c.Next()
	}
}

func roleList(roles []domain.Role) string {
	out := ""
	for i, role := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(role)
	}
	return out
}
