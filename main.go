package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DomainChecker/api"
	"DomainChecker/callback"
	"DomainChecker/config"
	"DomainChecker/domain"
	"DomainChecker/internal/app"
	"DomainChecker/rdapclient"
	"DomainChecker/scheduler"
	"DomainChecker/stats"
	"DomainChecker/telegram"
	"DomainChecker/tools"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] .env not loaded: %v", err)
	}
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := domain.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("打开数据库失败: %v", err)
	}
	defer repo.Close()

	transport := rdapclient.NewHTTPTransport(cfg.RDAP.Timeout(), cfg.RDAP.Concurrency)
	checker := app.NewChecker(cfg.RDAP.BaseURL, cfg.RDAP.Timeout())
	runner := app.NewBatchRunner(checker, transport, cfg.RDAP.Concurrency)

	statsStore := newStatsStore(ctx, cfg.Redis)
	service := &app.CheckService{Runner: runner, Repo: repo, Stats: statsStore}
	whois := tools.DefaultWhoisClient{}

	var sender telegram.Sender
	botSender, err := telegram.NewBotSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 2, time.Second, 10*time.Second)
	if err != nil {
		log.Printf("[telegram] disabled err=%v", err)
		sender = telegram.NoopSender{}
		telegram.SetDefaultSender(sender)
	} else {
		sender = botSender
	}

	commands := telegram.NewCommandHandler(service, repo, whois, sender, cfg.Telegram.ChatID)
	callbacks := &callback.Handler{Recheck: commands, Repo: repo, Sender: sender}
	go func() {
		if err := sender.StartListener(ctx, callbacks.HandleCallback, commands.HandleMessage); err != nil {
			log.Printf("[telegram] listener stopped err=%v", err)
		}
	}()

	limiter := api.NewLimiterStore(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)
	limiter.StartJanitor(ctx, 2*time.Minute)
	handlers := &api.Handlers{Service: service, Repo: repo, Whois: whois, Stats: statsStore}
	router := api.NewRouter(handlers, api.Options{CORSOrigins: cfg.API.CORSOrigins, Limiter: limiter})

	application := &app.App{
		Service:   service,
		Watchlist: domain.NewFileRepository(cfg.DomainFiles, cfg.Watchlist.AvailableFile),
		Notifier:  &app.NotifierService{Sender: sender},
		Scheduler: scheduler.NewDailyScheduler(),
		Server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ScanEnabled: cfg.Schedule.Enabled,
		ScanHour:    cfg.Schedule.Hour,
		ScanMin:     cfg.Schedule.Minute,
	}

	log.Printf("[app] start listen=%s rdap=%s concurrency=%d timeout=%s schedule=%v",
		cfg.Listen, cfg.RDAP.BaseURL, cfg.RDAP.Concurrency, cfg.RDAP.Timeout(), cfg.Schedule.Enabled)
	if err := application.Run(ctx); err != nil {
		log.Fatalf("程序退出: %v", err)
	}
}

// newStatsStore 配置了 Redis 且能连通时使用 Redis，否则退回内存。
func newStatsStore(ctx context.Context, cfg config.Redis) stats.Store {
	if cfg.Addr == "" {
		return stats.NewMemoryStore(100)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[stats] redis unavailable addr=%s err=%v, fallback to memory", cfg.Addr, err)
		_ = rdb.Close()
		return stats.NewMemoryStore(100)
	}
	return stats.NewRedisStore(rdb, stats.WithPrefix(cfg.Prefix))
}
