package di

import (
	"context"
	"log"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"drivesync/application/serviceimpl"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
	"drivesync/infrastructure/crypto"
	"drivesync/infrastructure/postgres"
	"drivesync/infrastructure/providers"
	"drivesync/infrastructure/rediscache"
	"drivesync/interfaces/api/handlers"
	"drivesync/pkg/config"
	"time"
)

// Container wires every piece described across the C1-C8 components:
// provider clients behind the registry, repositories over Postgres,
// services built from those repositories, and the scheduler that drives
// SyncExecutor on a cron.
type Container struct {
	Config *config.Config

	DB          *gorm.DB
	RedisClient *goredis.Client
	Registry    *providers.Registry
	Cipher      *crypto.CredentialsCipher

	AccountRepository      repositories.AccountRepository
	SyncConfigRepository   repositories.SyncConfigRepository
	SyncTaskRepository     repositories.SyncTaskRepository
	SyncTaskItemRepository repositories.SyncTaskItemRepository
	FileCacheRepository    repositories.FileCacheRepository

	DriveManager     services.DriveManager
	FileCacheService services.FileCacheService
	RuleEngine       services.RuleEngine
	DiffEngine       services.DiffEngine
	SyncExecutor     services.SyncExecutor
	SchedulerService services.SchedulerService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}
	if err := c.initInfrastructure(); err != nil {
		return err
	}
	if err := c.initRepositories(); err != nil {
		return err
	}
	if err := c.initServices(); err != nil {
		return err
	}
	if err := c.initScheduler(); err != nil {
		return err
	}
	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	log.Println("✓ Configuration loaded")
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	log.Println("✓ Database connected")

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	log.Println("✓ Database migrated")

	if c.Config.Redis.Enabled {
		client := goredis.NewClient(&goredis.Options{
			Addr:     c.Config.Redis.Host + ":" + c.Config.Redis.Port,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis connection failed, running without second-level cache: %v", err)
		} else {
			c.RedisClient = client
			log.Println("✓ Redis connected")
		}
	}

	cipher, err := crypto.NewCredentialsCipher(c.Config.Crypto.CredentialsKey)
	if err != nil {
		return err
	}
	c.Cipher = cipher
	if c.Config.Crypto.CredentialsKey == "" {
		log.Println("Warning: CREDENTIALS_ENCRYPTION_KEY not set, account credentials stored in plaintext")
	}

	c.Registry = providers.NewRegistry(c.Config.Providers)
	log.Println("✓ Provider registry initialized")

	return nil
}

func (c *Container) initRepositories() error {
	c.AccountRepository = postgres.NewAccountRepository(c.DB)
	c.SyncConfigRepository = postgres.NewSyncConfigRepository(c.DB)
	c.SyncTaskRepository = postgres.NewSyncTaskRepository(c.DB)
	c.SyncTaskItemRepository = postgres.NewSyncTaskItemRepository(c.DB)
	c.FileCacheRepository = postgres.NewFileCacheRepository(c.DB)
	log.Println("✓ Repositories initialized")
	return nil
}

func (c *Container) initServices() error {
	c.DriveManager = serviceimpl.NewDriveManager(c.Registry)

	baseFileCache := serviceimpl.NewFileCacheService(c.FileCacheRepository)
	ttl := time.Duration(c.Config.Redis.TTL) * time.Second
	c.FileCacheService = rediscache.NewCachedFileCacheService(baseFileCache, c.RedisClient, ttl)

	c.RuleEngine = serviceimpl.NewRuleEngine()
	c.DiffEngine = serviceimpl.NewDiffEngine()

	c.SyncExecutor = serviceimpl.NewSyncExecutor(
		c.SyncConfigRepository,
		c.AccountRepository,
		c.SyncTaskRepository,
		c.SyncTaskItemRepository,
		c.DriveManager,
		c.RuleEngine,
		c.DiffEngine,
		c.FileCacheService,
		c.Cipher,
	)

	c.SchedulerService = serviceimpl.NewSchedulerService(c.SyncExecutor, c.SyncConfigRepository)

	log.Println("✓ Services initialized")
	return nil
}

// initScheduler loads every currently schedulable sync_config and starts
// the scheduler. RefreshFromDB is also exposed to the dispatch surface so
// a config write can be picked up without a restart.
func (c *Container) initScheduler() error {
	ctx := context.Background()
	if err := c.SchedulerService.RefreshFromDB(ctx); err != nil {
		log.Printf("Warning: failed to load schedulable sync configs: %v", err)
	}
	c.SchedulerService.Start()
	log.Println("✓ Scheduler started")
	return nil
}

func (c *Container) Cleanup() error {
	log.Println("Starting cleanup...")

	if c.SchedulerService != nil {
		c.SchedulerService.Stop()
		log.Println("✓ Scheduler stopped")
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Printf("Warning: Failed to close Redis connection: %v", err)
		} else {
			log.Println("✓ Redis connection closed")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Warning: Failed to close database connection: %v", err)
			} else {
				log.Println("✓ Database connection closed")
			}
		}
	}

	log.Println("✓ Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		DriveManager:     c.DriveManager,
		FileCacheService: c.FileCacheService,
		SyncExecutor:     c.SyncExecutor,
		SchedulerService: c.SchedulerService,
	}
}
