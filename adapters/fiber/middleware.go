package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lborres/studysync/core"
)

// RouteGuard redirects page requests based on whether a session cookie is
// present. It never validates the token; actions do that.
func RouteGuard(routes core.RouteTable) fiber.Handler {
	return func(c fiber.Ctx) error {
		hasToken := c.Cookies(core.SessionCookieName) != ""

		if location := routes.Decide(c.Path(), hasToken); location != "" {
			return c.Redirect().Status(fiber.StatusFound).To(location)
		}

		return c.Next()
	}
}
