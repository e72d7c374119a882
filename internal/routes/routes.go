package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/verification"
)

// Dependencies is everything the HTTP layer needs. Telegram and
// RateLimiter are optional.
type Dependencies struct {
	Config      *config.Config
	Users       repository.UserRepository
	Addresses   repository.AddressRepository
	Orders      repository.OrderRepository
	Products    repository.ProductRepository
	Categories  repository.CategoryRepository
	Codes       verification.Store
	Mailer      services.Mailer
	Telegram    *services.TelegramService
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(deps Dependencies) *fiber.App {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = middleware.NewRateLimiter(deps.Config.RateLimitRPS, deps.Config.RateLimitBurst)
	}

	app := fiber.New(fiber.Config{
		AppName:      deps.Config.ShopName,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(deps.Metrics))
	app.Use(recover.New())

	Register(app, deps)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	cfg := deps.Config

	authService := services.NewAuthService(deps.Users, deps.Codes, deps.Mailer, deps.Metrics, services.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenExpires,
		ShopName:  cfg.ShopName,
	})
	addressService := services.NewAddressService(deps.Users, deps.Addresses)
	notifier := services.NewOrderNotifier(deps.Mailer, cfg.ShopName)
	var alerter services.OrderAlerter
	if deps.Telegram.Enabled() {
		alerter = deps.Telegram
	}
	orderService := services.NewOrderService(deps.Users, deps.Orders, notifier, alerter, deps.Metrics, cfg.OperatorEmail)
	catalogService := services.NewCatalogService(deps.Products, deps.Categories)

	authHandler := handlers.NewAuthHandler(authService)
	passwordHandler := handlers.NewPasswordResetHandler(authService)
	profileHandler := handlers.NewProfileHandler(addressService)
	orderHandler := handlers.NewOrderHandler(orderService)
	productHandler := handlers.NewProductHandler(catalogService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret)
	limit := deps.RateLimiter.Handler()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/signup", limit, authHandler.Signup)
	auth.Post("/verify-code", authHandler.VerifyCode)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", limit, passwordHandler.ForgotPassword)
	auth.Post("/reset-password", passwordHandler.ResetPassword)
	auth.Put("/update-password", requireAuth, passwordHandler.UpdatePassword)

	// Address book
	addresses := app.Group("/addresses", requireAuth)
	addresses.Get("/", profileHandler.ListAddresses)
	addresses.Post("/", profileHandler.CreateAddress)
	addresses.Put("/:id", profileHandler.UpdateAddress)
	addresses.Delete("/:id", profileHandler.DeleteAddress)

	// Orders
	orders := app.Group("/orders", requireAuth)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)

	// Catalog
	products := app.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/search", productHandler.Search)
	products.Get("/category/:id", productHandler.ListByCategory)
	products.Get("/:id", productHandler.GetProduct)

	categories := app.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
}
