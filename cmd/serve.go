package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wrenlab/folio-backend/api/core"
	"github.com/wrenlab/folio-backend/cache"
	"github.com/wrenlab/folio-backend/config"
	"github.com/wrenlab/folio-backend/database"
	"github.com/wrenlab/folio-backend/database/repo/accounts"
	"github.com/wrenlab/folio-backend/database/repo/posts"
	"github.com/wrenlab/folio-backend/internal/auth"
	"github.com/wrenlab/folio-backend/internal/lifecycle"
	"github.com/wrenlab/folio-backend/internal/object"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 数据库
	dbFactory, err := database.NewFactory(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := dbFactory.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	dbProvider := dbFactory.GetProvider()

	// 缓存
	cacheProvider, err := cache.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	cacheHelper := cache.NewHelper(cacheProvider, cache.HelperConfig{
		MetaCacheTTL:           time.Duration(cfg.CacheMetaTTL) * time.Second,
		DataCacheTTL:           time.Duration(cfg.CacheObjectDataTTL) * time.Second,
		MaxCacheableObjectSize: cfg.CacheMaxObjectSizeKB << 10,
		EnableDataCaching:      cfg.CacheEnableDataCaching,
	})

	// 分片对象存储与服务
	store := chunkstore.New(dbProvider.DB())
	objectService := object.NewService(store, cacheHelper, cfg.MaxUploadBytes())

	// 仓储与生命周期
	postsRepo := posts.NewRepository(dbProvider.DB())
	accountsRepo := accounts.NewRepository(dbProvider.DB())
	lifecycleService := lifecycle.NewService(objectService, postsRepo)

	// 管理员账号
	if generated, err := accountsRepo.EnsureAdminUser(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	} else if generated != "" {
		log.Printf("[Warning] Generated admin password for '%s': %s", cfg.AdminUsername, generated)
	}

	// 认证
	tokenManager, err := auth.NewTokenManager(cfg.JwtSecret, cfg.JwtExpiresIn)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}
	loginService := auth.NewLoginService(accountsRepo, tokenManager)

	// 创建服务器依赖
	deps := &core.ServerDependencies{
		DBProvider:    dbProvider,
		CacheProvider: cacheProvider,
		CacheHelper:   cacheHelper,
		Store:         store,
		Objects:       objectService,
		Lifecycle:     lifecycleService,
		PostsRepo:     postsRepo,
		TokenManager:  tokenManager,
		LoginService:  loginService,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := cacheProvider.Close(); err != nil {
		log.Printf("Error closing cache provider: %v", err)
	}
	if err := dbFactory.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited")
}
