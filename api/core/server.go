package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/api"
	"github.com/wrenlab/folio-backend/api/common"
	handlerObjects "github.com/wrenlab/folio-backend/api/handler/objects"
	handlerPosts "github.com/wrenlab/folio-backend/api/handler/posts"
	"github.com/wrenlab/folio-backend/api/middleware"
	"github.com/wrenlab/folio-backend/cache"
	"github.com/wrenlab/folio-backend/config"
	"github.com/wrenlab/folio-backend/database"
	"github.com/wrenlab/folio-backend/database/repo/posts"
	"github.com/wrenlab/folio-backend/internal/auth"
	"github.com/wrenlab/folio-backend/internal/lifecycle"
	"github.com/wrenlab/folio-backend/internal/object"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DBProvider    database.Provider
	CacheProvider cache.Provider
	CacheHelper   *cache.Helper
	Store         *chunkstore.Store
	Objects       *object.Service
	Lifecycle     *lifecycle.Service
	PostsRepo     *posts.Repository
	TokenManager  *auth.TokenManager
	LoginService  *auth.LoginService
}

// 启动gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()
	router := gin.New()

	// 全局中间件
	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	// 速率限制
	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	objectRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitObjectRPS, cfg.RateLimitObjectBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		authRateLimiter.Stop()
		apiRateLimiter.Stop()
		objectRateLimiter.Stop()
	}

	router.GET("/health", func(context *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks": gin.H{
				"database": checkDatabaseHealth(deps.DBProvider),
				"cache":    checkCacheHealth(deps.CacheProvider),
				"storage":  checkStorageHealth(deps.Store),
			},
		}
		httpStatus := http.StatusOK
		for _, checkResult := range health["checks"].(gin.H) {
			if result, ok := checkResult.(string); ok && result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		context.JSON(httpStatus, health)
	})
	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	// 创建处理器（依赖注入）
	objectHandler := handlerObjects.NewHandler(deps.Objects, deps.CacheHelper)
	postHandler := handlerPosts.NewHandler(deps.PostsRepo, deps.Lifecycle)
	loginHandler := api.NewLoginHandler(deps.LoginService)

	// 公共接口
	objectsGroup := router.Group("/objects")
	objectsGroup.Use(objectRateLimiter.Middleware())
	{
		objectsGroup.GET("/:identifier", objectHandler.GetObject) // GET /objects/{id}

		// 写操作要求认证
		authed := objectsGroup.Group("")
		authed.Use(middleware.RequireAuth(deps.TokenManager))
		{
			authed.POST("", objectHandler.UploadObject)               // POST /objects
			authed.DELETE("/:identifier", objectHandler.DeleteObject) // DELETE /objects/{id}
		}
	}

	publicPosts := router.Group("/posts")
	publicPosts.Use(apiRateLimiter.Middleware())
	{
		publicPosts.GET("/:slug", postHandler.GetPostBySlug) // GET /posts/{slug}
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(authRateLimiter.Middleware())
		{
			authGroup.POST("/login", loginHandler.LoginHandlerFunc) // POST /api/auth/login
		}

		v1 := apiGroup.Group("/v1")
		v1.Use(apiRateLimiter.Middleware())
		v1.Use(middleware.RequireAuth(deps.TokenManager))
		{
			postsGroup := v1.Group("/posts")
			{
				postsGroup.POST("", postHandler.CreatePost)       // POST /api/v1/posts
				postsGroup.GET("", postHandler.ListPosts)         // GET /api/v1/posts
				postsGroup.GET("/:id", postHandler.GetPost)       // GET /api/v1/posts/{id}
				postsGroup.PUT("/:id", postHandler.UpdatePost)    // PUT /api/v1/posts/{id}
				postsGroup.DELETE("/:id", postHandler.DeletePost) // DELETE /api/v1/posts/{id}
			}
		}
	}

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
