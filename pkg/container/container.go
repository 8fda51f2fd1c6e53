package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"mangazinho-backend/internal/config"
	infraCache "mangazinho-backend/internal/infrastructure/cache"
	"mangazinho-backend/internal/infrastructure/database"
	"mangazinho-backend/internal/infrastructure/queue"
	"mangazinho-backend/internal/infrastructure/storage"
	"mangazinho-backend/pkg/cache"

	chapterHandler "mangazinho-backend/internal/domains/chapter/handler"
	chapterRepo "mangazinho-backend/internal/domains/chapter/repository"
	chapterService "mangazinho-backend/internal/domains/chapter/service"
	mangaHandler "mangazinho-backend/internal/domains/manga/handler"
	mangaRepo "mangazinho-backend/internal/domains/manga/repository"
	mangaService "mangazinho-backend/internal/domains/manga/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds the full dependency graph of the API process. All
// fields are singletons, built once at startup in dependency order.
type Container struct {
	// Infrastructure, shared across domains
	Config  *config.Config
	DB      *database.PostgresDB
	Cache   cache.Cache
	Storage *storage.LocalStorage
	Tasks   *queue.Client

	// Repositories
	MangaRepo   mangaRepo.Repository
	ChapterRepo chapterRepo.Repository

	// Services
	MangaService   mangaService.ServiceInterface
	ChapterService chapterService.ServiceInterface

	// HTTP handlers
	MangaHandler   *mangaHandler.Handler
	ChapterHandler *chapterHandler.Handler
}

// NewContainer builds the dependency graph. Initialization order is
// config, infrastructure, repositories, services, handlers; a failure
// at any step aborts startup.
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if err := redisCache.Connect(context.Background()); err != nil {
		// Cache failures degrade reads but never block startup.
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}
	c.Cache = redisCache

	// ========================================
	// STEP 4: INITIALIZE STORAGE + QUEUE
	// ========================================
	store, err := storage.NewLocalStorage(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	c.Storage = store
	log.Printf("✅ Storage root: %s", store.Root())

	c.Tasks = queue.NewClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)

	// ========================================
	// STEP 5: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

func (c *Container) initRepositories() {
	c.MangaRepo = mangaRepo.NewPostgresRepository(c.DB.Pool)
	c.ChapterRepo = chapterRepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() {
	c.MangaService = mangaService.NewMangaService(
		c.MangaRepo,
		c.Storage,
		c.Cache,
		c.Tasks,
		c.Config.Upload.MaxCoverSizeBytes,
	)

	c.ChapterService = chapterService.NewChapterService(
		c.ChapterRepo,
		c.MangaRepo,
		c.Storage,
		c.Cache,
		c.Tasks,
		chapterService.UploadLimits{
			MaxFiles:    c.Config.Upload.MaxPagesPerBatch,
			MaxFileSize: c.Config.Upload.MaxPageSizeBytes,
		},
	)
}

func (c *Container) initHandlers() {
	c.MangaHandler = mangaHandler.NewHandler(c.MangaService)
	c.ChapterHandler = chapterHandler.NewHandler(c.ChapterService)
}

// Cleanup releases connections during graceful shutdown.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.Tasks != nil {
		if err := c.Tasks.Close(); err != nil {
			log.Printf("⚠️  Failed to close task client: %v", err)
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis: %v", err)
			} else {
				log.Println("✅ Redis connections closed")
			}
		}
	}

	log.Println("✅ Container cleanup completed")
}
