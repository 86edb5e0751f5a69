package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"DomainChecker/domain"
	"DomainChecker/scheduler"
)

const defaultShutdownTimeout = 10 * time.Second

// App 组装 HTTP 服务与每日巡检。
type App struct {
	Service   *CheckService
	Watchlist domain.WatchlistRepository
	Notifier  *NotifierService
	Scheduler *scheduler.DailyScheduler
	Server    *http.Server

	ScanEnabled bool
	ScanHour    int
	ScanMin     int

	ShutdownTimeout time.Duration
}

// Run 启动 HTTP 服务和（可选的）每日巡检，ctx 结束后优雅退出。
func (a *App) Run(ctx context.Context) error {
	if a.Service == nil || a.Server == nil {
		return ErrMissingDependencies
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("[http] listen addr=%s", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.ScanEnabled && a.Scheduler != nil {
		go func() {
			if err := a.Scheduler.Run(ctx, a.ScanHour, a.ScanMin, a.DailyScan); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("scheduler: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	timeout := a.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[http] shutdown_failed err=%v", err)
	}
	log.Printf("[app] stopped")
	return runErr
}

// DailyScan 检查清单中的域名以及库中仍为 AVAILABLE 的记录，写出可注册列表并发送提醒。
func (a *App) DailyScan(ctx context.Context) error {
	if a.Service == nil || a.Watchlist == nil {
		return ErrMissingDependencies
	}

	entries, err := a.Watchlist.LoadWatchlist()
	if err != nil {
		return fmt.Errorf("读取域名清单失败: %w", err)
	}

	seen := make(map[string]bool)
	var items []domain.WorkItem
	add := func(it domain.WorkItem) {
		if seen[it.FullDomain] {
			return
		}
		seen[it.FullDomain] = true
		items = append(items, it)
	}
	for _, e := range entries {
		for _, it := range domain.Expand([]string{e.Name}, e.TLDs) {
			add(it)
		}
	}
	if a.Service.Repo != nil {
		stored, err := a.Service.Repo.ListAvailable(ctx)
		if err != nil {
			log.Printf("[scan] list_available_failed err=%v", err)
		}
		for _, r := range stored {
			add(r.Item())
		}
	}
	if len(items) == 0 {
		log.Printf("[scan] skipped reason=empty_watchlist")
		return nil
	}

	run, err := a.Service.Start(ctx, KindScheduled, items)
	if err != nil {
		return err
	}
	results := run.Wait()

	if err := a.Watchlist.SaveAvailable(results); err != nil {
		log.Printf("[scan] save_available_failed err=%v", err)
	}
	if a.Notifier != nil {
		if err := a.Notifier.NotifyAvailable(ctx, results); err != nil {
			log.Printf("[scan] notify_failed err=%v", err)
		}
		if err := a.Notifier.NotifyErrors(ctx, results); err != nil {
			log.Printf("[scan] notify_failed err=%v", err)
		}
	}
	log.Printf("[scan] done id=%s total=%d", run.ID, len(results))
	return nil
}
