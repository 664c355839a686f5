package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"pointshop-backend/internal/config"
	infraCache "pointshop-backend/internal/infrastructure/cache"
	"pointshop-backend/internal/infrastructure/database"
	"pointshop-backend/internal/infrastructure/email"
	"pointshop-backend/internal/infrastructure/queue"
	"pointshop-backend/pkg/cache"
	txm "pointshop-backend/pkg/database"
	"pointshop-backend/pkg/jwt"
	"pointshop-backend/pkg/logger"

	orderHandler "pointshop-backend/internal/domains/order/handler"
	orderRepo "pointshop-backend/internal/domains/order/repository"
	orderService "pointshop-backend/internal/domains/order/service"
	pointsHandler "pointshop-backend/internal/domains/points/handler"
	pointsModel "pointshop-backend/internal/domains/points/model"
	pointsRepo "pointshop-backend/internal/domains/points/repository"
	pointsService "pointshop-backend/internal/domains/points/service"
	productHandler "pointshop-backend/internal/domains/product/handler"
	productRepo "pointshop-backend/internal/domains/product/repository"
	productService "pointshop-backend/internal/domains/product/service"
	userHandler "pointshop-backend/internal/domains/user/handler"
	userRepo "pointshop-backend/internal/domains/user/repository"
	userService "pointshop-backend/internal/domains/user/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph, shared by cmd/api and cmd/worker
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisCache // nil when redis was unreachable at startup
	Cache       cache.Cache
	TxManager   txm.TxManager
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Email       email.EmailService

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	UserRepo    userRepo.UserRepository
	ProductRepo productRepo.ProductRepository
	OrderRepo   orderRepo.OrderRepository
	PointsRepo  pointsRepo.PointsRepository

	// ========================================
	// SERVICE LAYER
	// ========================================
	UserService    userService.Service
	ProductService productService.ServiceInterface
	OrderService   orderService.OrderService
	PointsService  pointsService.PointsService

	// ========================================
	// HANDLER LAYER
	// ========================================
	UserHandler    *userHandler.UserHandler
	ProductHandler *productHandler.Handler
	OrderHandler   *orderHandler.OrderHandler
	PointsHandler  *pointsHandler.PointsHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the graph in dependency order:
// config, infrastructure, repositories, services, handlers.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	logger.Info("Config loaded", map[string]interface{}{"env": cfg.App.Environment})

	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("Container initialized", nil)
	return c, nil
}

// ========================================
// STEP 1: INFRASTRUCTURE
// ========================================
func (c *Container) initInfrastructure() error {
	cfg := c.Config

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	if cfg.App.AutoMigrate {
		if err := database.EnsureSchema(ctx, db.Pool); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	c.TxManager = txm.NewTxManager(db.Pool)

	// Cache is optional: product reads fall back to postgres
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CachePrefix)
	if err := redisCache.Connect(ctx); err != nil {
		logger.Warn("Redis unavailable, caching disabled", map[string]interface{}{"error": err.Error()})
		_ = redisCache.Close()
		c.Cache = cache.Noop{}
	} else {
		c.Redis = redisCache
		c.Cache = redisCache
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL())
	c.AsynqClient = queue.NewClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)

	if cfg.Email.Enabled {
		c.Email = email.NewDevEmailService(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From)
	} else {
		c.Email = email.NewLogEmailService()
	}

	return nil
}

// ========================================
// STEP 2: REPOSITORIES
// ========================================
func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.ProductRepo = productRepo.NewPostgresProductRepository(pool, c.Cache, c.Config.Redis.ProductCacheTTL)
	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)
	c.PointsRepo = pointsRepo.NewPostgresPointsRepository(pool)
}

// ========================================
// STEP 3: SERVICES
// ========================================
func (c *Container) initServices() {
	loyalty := c.Config.Loyalty

	c.UserService = userService.NewUserService(
		c.TxManager,
		c.UserRepo,
		c.PointsRepo,
		c.JWTManager,
		userService.SignupBonus{
			Points:  loyalty.SignupBonusPoints,
			Balance: loyalty.SignupBonusBalance,
		},
	)

	c.ProductService = productService.NewProductService(c.ProductRepo)

	c.OrderService = orderService.NewOrderService(
		c.TxManager,
		c.OrderRepo,
		c.UserRepo,
		c.ProductRepo,
		c.PointsRepo,
		c.AsynqClient,
		loyalty.LowStockThreshold,
	)

	c.PointsService = pointsService.NewPointsService(
		c.TxManager,
		c.PointsRepo,
		c.UserRepo,
		c.ProductRepo,
		pointsModel.DefaultRateTable,
	)
}

// ========================================
// STEP 4: HANDLERS
// ========================================
func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.ProductHandler = productHandler.NewHandler(c.ProductService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.PointsHandler = pointsHandler.NewPointsHandler(c.PointsService)
}

// ========================================
// CLEANUP
// ========================================

// Cleanup releases connections in reverse order of creation
func (c *Container) Cleanup() {
	logger.Info("Cleaning up resources", nil)

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close redis", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}
}
