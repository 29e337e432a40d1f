package middleware

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/internal/api/presenters"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		HouseholdMiddleware() fiber.Handler
	}

	middleware struct{}
)

func NewMiddleware() Middleware {
	return &middleware{}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Household-ID, X-User-ID",
	})
}

// HouseholdMiddleware scopes every request to one household. The
// identity provider in front of this service is expected to set both
// headers after authenticating the caller.
func (m *middleware) HouseholdMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		householdID := c.Get("X-Household-ID")
		if householdID == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedProcessRequest, domain.ErrHouseholdRequired)
		}
		if _, err := uuid.Parse(householdID); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedProcessRequest, domain.ErrParseUUID)
		}

		c.Locals("household_id", householdID)
		c.Locals("user_id", c.Get("X-User-ID", "unknown"))
		return c.Next()
	}
}
