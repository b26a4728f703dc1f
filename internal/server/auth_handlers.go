package server

import (
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (s *Server) setAuthCookies(c *fiber.Ctx, pair *service.TokenPair) {
	secure := s.config.Env == "production" || s.config.Env == "prod"

	c.Cookie(&fiber.Cookie{
		Name:     accessCookieName,
		Value:    pair.AccessToken,
		Expires:  time.Now().Add(s.authService.AccessTokenTTL()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	if pair.RefreshToken != "" {
		c.Cookie(&fiber.Cookie{
			Name:     refreshCookieName,
			Value:    pair.RefreshToken,
			Expires:  time.Now().Add(s.authService.RefreshTokenTTL()),
			HTTPOnly: true,
			Secure:   secure,
			SameSite: fiber.CookieSameSiteLaxMode,
			Path:     "/api/auth",
		})
	}
}

func (s *Server) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{
		Name: accessCookieName, Value: "", Expires: expired,
		HTTPOnly: true, SameSite: fiber.CookieSameSiteLaxMode, Path: "/",
	})
	c.Cookie(&fiber.Cookie{
		Name: refreshCookieName, Value: "", Expires: expired,
		HTTPOnly: true, SameSite: fiber.CookieSameSiteLaxMode, Path: "/api/auth",
	})
}

// Login authenticates the admin user and sets token cookies.
// A refresh token is only issued when remember_me is set.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, pair, err := s.authService.Login(c.UserContext(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.setAuthCookies(c, pair)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}

// Refresh rotates the refresh token and issues a new access token.
// The previous refresh token is revoked.
func (s *Server) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Refresh token required"))
	}

	user, pair, err := s.authService.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		s.clearAuthCookies(c)
		return respondServiceError(c, err)
	}

	s.setAuthCookies(c, pair)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}

// Logout revokes both tokens and clears the cookies. Always succeeds so a
// client with stale cookies can still log out.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.authService.Logout(c.UserContext(), c.Cookies(accessCookieName), c.Cookies(refreshCookieName))
	s.clearAuthCookies(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out",
	})
}

// Me returns the authenticated user.
func (s *Server) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	user, err := s.authService.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}
