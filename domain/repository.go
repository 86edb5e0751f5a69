package domain

import "context"

// Repository 统一管理检查结果的持久化，以域名为唯一键。
type Repository interface {
	// Upsert 写入结果；域名已存在时只覆盖 status/registrar/expiry/checked_at。
	Upsert(ctx context.Context, r CheckResult) (int64, error)
	// Query 按条件查询，按 checked_at 倒序。
	Query(ctx context.Context, f Filter) ([]CheckResult, error)
	Get(ctx context.Context, id int64) (CheckResult, error)
	GetByIDs(ctx context.Context, ids []int64) ([]CheckResult, error)
	ListAvailable(ctx context.Context) ([]CheckResult, error)
	// Delete 返回实际删除的行数。
	Delete(ctx context.Context, ids ...int64) (int64, error)
}

// WatchlistRepository 读取每日巡检的域名清单并写出可注册列表。
type WatchlistRepository interface {
	LoadWatchlist() ([]WatchEntry, error)
	SaveAvailable(results []CheckResult) error
}
