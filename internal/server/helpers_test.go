package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testAdminPassword = "handler-test-password"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                   "8000",
		Env:                    "test",
		JWTSecret:              "handler-test-secret",
		AdminUsername:          "admin",
		AdminPassword:          testAdminPassword,
		AdminEmail:             "admin@example.com",
		SiteURL:                "https://blog.example.com",
		SiteName:               "Inkwell Blog",
		UploadDir:              t.TempDir(),
		MaxUploadSizeMB:        5,
		AccessTokenTTLMinutes:  30,
		RefreshTokenTTLDays:    7,
		OrphanTTLHours:         24,
		PurgeTTLDays:           7,
		CleanupIntervalMinutes: 60,
	}
}

// newTestServer wires a Server against an in-memory database with no Redis,
// mirroring production wiring minus the metrics registry.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Image{}))

	s := &Server{
		config:    testConfig(t),
		db:        db,
		userRepo:  repository.NewUserRepository(db),
		postRepo:  repository.NewPostRepository(db),
		imageRepo: repository.NewImageRepository(db),
	}
	s.authService = service.NewAuthService(s.userRepo, s.config)
	s.imageService = service.NewImageService(s.imageRepo, s.config)
	s.postService = service.NewPostService(s.postRepo, s.imageService)
	s.cleanupService = service.NewCleanupService(s.imageRepo, s.config)

	require.NoError(t, s.EnsureAdmin(context.Background()))
	return s
}

func newTestApp(t *testing.T, s *Server) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupRoutes(app)
	return app
}

// adminToken logs the admin in and returns a bearer access token.
func adminToken(t *testing.T, s *Server) string {
	t.Helper()
	_, pair, err := s.authService.Login(context.Background(), "admin", testAdminPassword, false)
	require.NoError(t, err)
	return pair.AccessToken
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeJSON(t *testing.T, body io.Reader, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(dest))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
