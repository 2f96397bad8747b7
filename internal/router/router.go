package router

import (
	"context"
	"time"

	"balcao/internal/config"
	"balcao/internal/handler"
	"balcao/internal/infra"
	"balcao/internal/kvstore"
	"balcao/internal/middleware"
	"balcao/internal/notify"
	"balcao/internal/repository"
	"balcao/internal/service"
	"balcao/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators built in main.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	PrintCB *infra.CircuitBreaker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds what the router owns past a request: the rate limiter purge
// and open panel streams.
func New(ctx context.Context, d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())

	apiLimiter := middleware.NewRateLimiter(1000, time.Minute, "Muitas requisições. Tente novamente em instantes.")
	totemLimiter := middleware.NewRateLimiter(60, time.Minute, "Muitos pedidos deste totem. Aguarde um momento.")
	apiLimiter.StartPurge(ctx)
	totemLimiter.StartPurge(ctx)
	r.Use(apiLimiter.Handler())

	// ── Infrastructure ───────────────────────────────────────────────────────
	kv := kvstore.NewRedis(d.Redis, "balcao:")
	hub := notify.NewHub(d.Redis)
	dispatcher := worker.NewDispatcher(d.Redis)
	clock := service.Clock(time.Now)

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	customerRepo := repository.NewCustomerRepository(d.DB)
	loyaltyRepo := repository.NewLoyaltyRepository(d.DB)
	storeRepo := repository.NewStoreRepository(d.DB)
	registerRepo := repository.NewCashRegisterRepository(d.DB)
	printJobRepo := repository.NewPrintJobRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	flowSvc := service.NewOrderFlowService(storeRepo, kv, cfg.FlowCacheTTL())
	inventorySvc := service.NewInventoryService(productRepo)
	loyaltySvc := service.NewLoyaltyService(customerRepo, loyaltyRepo)
	prefsSvc := service.NewPreferencesService(kv, cfg.SearchHistoryLimit)
	productSvc := service.NewProductService(productRepo, prefsSvc)
	registerSvc := service.NewCashRegisterService(registerRepo, clock)
	checkoutSvc := service.NewCheckoutService(service.CheckoutDeps{
		Orders:        orderRepo,
		Customers:     customerRepo,
		Products:      productRepo,
		Stores:        storeRepo,
		CashRegisters: registerRepo,
		PrintJobs:     printJobRepo,
		Flow:          flowSvc,
		Inventory:     inventorySvc,
		Loyalty:       loyaltySvc,
		Prefs:         prefsSvc,
		Jobs:          dispatcher,
		Events:        hub,
	}, service.CheckoutOptions{
		Mode:              cfg.CheckoutMode,
		OrderNumberPrefix: cfg.OrderNumberPrefix,
		Clock:             clock,
	})
	cartSvc := service.NewCartService(kv, cfg.CartTTL(), productRepo, customerRepo, inventorySvc, checkoutSvc, clock)
	statusSvc := service.NewOrderStatusService(orderRepo, flowSvc, loyaltySvc, dispatcher, hub, clock)
	panelSvc := service.NewPanelService(orderRepo, storeRepo, flowSvc, clock)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cartH := handler.NewCartHandler(cartSvc)
	ordersH := handler.NewOrdersHandler(statusSvc, panelSvc)
	panelH := handler.NewPanelHandler(panelSvc, hub, ctx.Done())
	totemH := handler.NewTotemHandler(cartSvc, productSvc)
	storeH := handler.NewStoreHandler(flowSvc, registerSvc)
	prefsH := handler.NewPreferencesHandler(prefsSvc)
	catalogH := handler.NewCatalogHandler(productSvc, loyaltySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.PrintCB))

	// Kiosk: no token, store in the path
	totem := r.Group("/v1/totem/:store_id", totemLimiter.Handler())
	{
		totem.GET("/products", totemH.Catalog)
		totem.POST("/orders", totemH.Order)
	}

	staff := []string{middleware.RoleOperator, middleware.RoleManager, middleware.RoleAdmin}
	managers := []string{middleware.RoleManager, middleware.RoleAdmin}

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(staff...))
	{
		v1.GET("/products", catalogH.ListProducts)
		v1.GET("/products/:id", catalogH.GetProduct)

		carts := v1.Group("/carts")
		{
			carts.POST("", cartH.Create)
			carts.GET("/:id", cartH.Get)
			carts.DELETE("/:id", cartH.Discard)
			carts.PUT("/:id/customer", cartH.SetCustomer)
			carts.DELETE("/:id/customer", cartH.ClearCustomer)
			carts.POST("/:id/items", cartH.AddItem)
			carts.PATCH("/:id/items", cartH.UpdateQuantity)
			carts.POST("/:id/redeem", cartH.ToggleRedeem)
			carts.POST("/:id/checkout", cartH.Checkout)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/:id", ordersH.Get)
			orders.POST("/:id/advance", ordersH.Advance)
			orders.POST("/:id/complete-reservation", ordersH.CompleteReservation)
			orders.POST("/:id/cancel", ordersH.Cancel)
			orders.GET("/:id/courier-link", ordersH.CourierLink)
		}

		v1.GET("/panel/board", panelH.Board)
		v1.GET("/panel/stream", panelH.Stream)

		v1.GET("/customers/:id/loyalty", catalogH.LoyaltyHistory)
		v1.GET("/customers/:id/loyalty/audit", middleware.RequireRole(managers...), catalogH.LoyaltyAudit)

		v1.GET("/store/flow", storeH.Flow)
		v1.PUT("/store/flow", middleware.RequireRole(managers...), storeH.ConfigureFlow)

		register := v1.Group("/cash-register")
		{
			register.GET("", storeH.CurrentRegister)
			register.POST("/open", storeH.OpenRegister)
			register.POST("/close", storeH.CloseRegister)
		}

		prefs := v1.Group("/preferences")
		{
			prefs.GET("", prefsH.Get)
			prefs.POST("/favorites", prefsH.ToggleFavorite)
			prefs.POST("/searches", prefsH.AddSearch)
			prefs.DELETE("/searches", prefsH.ClearSearch)
			prefs.PUT("/print", prefsH.SetPrint)
		}
	}

	// Swagger UI, outside production only
	if !cfg.Production() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
