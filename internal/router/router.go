package router

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"pixvault/internal/auth"
	"pixvault/internal/config"
	"pixvault/internal/errors"
	"pixvault/internal/handler"
)

// bodyLimitSlack allows for multipart boundaries and form fields around a
// maximum-size file part.
const bodyLimitSlack = 1 << 20

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	uploadHandler *handler.UploadHandler,
	userHandler *handler.UserHandler,
	reportHandler *handler.ReportHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// Cap request bodies at the upload maximum plus headroom for multipart
	// framing, so oversized uploads are refused before being buffered.
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes+bodyLimitSlack, 10)))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowCredentials: true,
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	}))

	// Upload routes. The static /stats and /my-uploads paths are matched
	// ahead of the :id parameter by echo's router.
	secured.POST("/upload", uploadHandler.Upload)
	secured.GET("/upload/stats", uploadHandler.Stats)
	secured.GET("/upload/my-uploads", uploadHandler.MyUploads)
	secured.GET("/upload/:id", uploadHandler.GetUpload)
	secured.GET("/upload/:id/download", uploadHandler.Download)
	secured.DELETE("/upload/:id", uploadHandler.Delete)

	// Profile routes
	secured.GET("/users/me", userHandler.Me)
	secured.PATCH("/users/me", userHandler.UpdateMe)

	// Admin-only routes
	admin := secured.Group("", requireAdmin)
	admin.GET("/users", userHandler.ListUsers)
	admin.DELETE("/users/:id", userHandler.DeleteUser)
	admin.GET("/reports/dashboard", reportHandler.Dashboard)
	admin.GET("/reports/uploads-by-date", reportHandler.UploadsByDate)
}

// requireAdmin admits only callers whose token carries the admin role.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := auth.IdentityFromContext(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		if !identity.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
				Error: "admin role required",
				Code:  "ACCESS_DENIED",
			})
		}
		return next(c)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
