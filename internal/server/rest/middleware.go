package rest

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/storekeeper/internal/server/models"
)

const userKey = "user"

// requireUser rejects requests without a valid bearer token with 401 and
// stores the authenticated user in c.Locals.
func (s *Server) requireUser(c *fiber.Ctx) error {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return newAPIError(http.StatusUnauthorized, "Unauthenticated.")
	}
	token := strings.TrimSpace(authz[len("Bearer "):])

	user, err := s.users.Authenticate(c.UserContext(), token)
	if err != nil {
		s.logger.Debug(c.UserContext(), "bearer rejected", "error", err)
		return newAPIError(http.StatusUnauthorized, "Unauthenticated.")
	}

	c.Locals(userKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
