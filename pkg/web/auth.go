package web

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/weftlabs/weft/pkg/capability"
)

// SubjectKey is the locals key under which the authenticated subject is stored.
const SubjectKey = "auth.subject"

// NewAuthMiddleware verifies the hosted-provider bearer token and stashes the
// subject and the raw token in the request context. Claims beyond subject and
// expiry are opaque to this service; the token is only ever forwarded.
func NewAuthMiddleware(secret []byte) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "missing bearer token")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}

			return secret, nil
		})
		if err != nil || !parsed.Valid {
			return unauthorized(c, "invalid token")
		}

		subject, err := parsed.Claims.GetSubject()
		if err != nil || subject == "" {
			return unauthorized(c, "invalid token subject")
		}

		c.Locals(SubjectKey, subject)
		c.SetContext(capability.ContextWithToken(c.Context(), token))

		return c.Next()
	}
}
