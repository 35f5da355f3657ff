package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/chb-creations/internal/app"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiBrightMag = "\033[95m"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker, scheduler")
	flag.Parse()
	if !app.ValidMode(mode) {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(2)
	}

	printStartupBanner(mode)

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if cfg.Stripe.SecretKey != "" && cfg.Stripe.WebhookSecret == "" {
			stdLog.Fatalf("已配置 Stripe 密钥但缺少 webhook secret")
		}
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Stripe.SecretKey == "" {
		stdLog.Printf("警告: 未配置 Stripe 密钥，定金支付不可用")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Server.Mode == "debug", models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(nil); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiBrightMag + "╔════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║        CHB Créations API 启动中            ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiBold + "Location d'articles de fête · Marseille" + ansiReset)
	fmt.Println(ansiDim + "mode: " + mode + ansiReset)
}
