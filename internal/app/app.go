package app

import (
	"context"
	"learnpath_backend/internal/client"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/controller"
	"learnpath_backend/internal/middleware"
	"learnpath_backend/internal/repository"
	"learnpath_backend/internal/service"
	"learnpath_backend/pkg/database"
	"learnpath_backend/pkg/logger"
	"learnpath_backend/pkg/monitoring"
	"learnpath_backend/pkg/security"
	"learnpath_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	learningPath *repository.LearningPathRepository
	quiz         *repository.QuizRepository
}

type clients struct {
	retrieval    *client.RetrievalClient
	contentStore *client.ContentStoreClient
	quizGen      *client.QuizGenClient
	skills       *client.SkillsClient
}

type services struct {
	plan *service.PlanService
	quiz *service.QuizService
}

type controllers struct {
	plan   *controller.PlanController
	quiz   *controller.QuizController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，由配置监听协程调用
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		learningPath: repository.NewLearningPathRepository(db),
		quiz:         repository.NewQuizRepository(db),
	}
}

func (a *App) initClients(cfg *config.Config) *clients {
	return &clients{
		retrieval:    client.NewRetrievalClient(cfg.Services.Retrieval),
		contentStore: client.NewContentStoreClient(cfg.Services.ContentStore),
		quizGen:      client.NewQuizGenClient(cfg.Services.QuizGen),
		skills:       client.NewSkillsClient(cfg.Services.Skills),
	}
}

func (a *App) initServices(repos *repositories, cls *clients, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.quiz = service.NewQuizService(repos.quiz, cls.quizGen, cls.contentStore, cfg.Quiz)
	s.plan = service.NewPlanService(repos.learningPath, cls.retrieval, cls.skills, s.quiz, rdb, cfg.Plan)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		plan:   controller.NewPlanController(s.plan),
		quiz:   controller.NewQuizController(s.quiz),
		health: controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// 缓存是可选依赖，连不上只记录告警，读写路径自行降级
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Failed to initialize redis, cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	cls := app.initClients(cfg)
	services := app.initServices(repos, cls, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("learnpath-orchestrator", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
