package middleware

import (
	"errors"

	"github.com/admiralbulldogtv/echotts/src/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const ClaimsKey = "claims"

// Auth rejects requests without a valid HS256 bearer token and stores its claims under ClaimsKey.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := jwt.VerifyHeader(secret, c.Get(fiber.HeaderAuthorization))
		if err != nil {
			detail := "Invalid token"
			if errors.Is(err, jwt.ErrMissingBearer) {
				detail = "Invalid authorization header"
			}
			logrus.WithError(err).WithField("path", c.Path()).Debug("unauthenticated request")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": detail})
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}
