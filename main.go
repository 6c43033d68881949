// @title LearnPath 编排服务 API
// @version 1.0
// @description 根据学习目标与学时预算编排多里程碑学习路径，支持基于引用依据的测验生成与服务端判分。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"learnpath_backend/internal/app"
	"learnpath_backend/internal/config"
	"learnpath_backend/pkg/configwatcher"
	"learnpath_backend/pkg/logger"
	"log"
	"path/filepath"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	configDir := flag.String("config", "configs", "配置目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 配置文件热更新
	go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), func(next *config.Config) {
		application.ApplyConfig(next)
	})

	application.Run()
}
