// Package stats 记录每个批次的汇总信息，供 /api/stats 查询。
//
// 记录是尽力而为的：调用方只记录日志，不会因为统计失败而影响批次。
package stats

import (
	"context"
	"time"

	"DomainChecker/domain"
)

// Summary 一个批次结束后的汇总。
type Summary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Total      int       `json:"total"`
	Available  int       `json:"available"`
	Taken      int       `json:"taken"`
	Error      int       `json:"error"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Add 按状态累加一条结果。
func (s *Summary) Add(status domain.Status) {
	switch status {
	case domain.StatusAvailable:
		s.Available++
	case domain.StatusTaken:
		s.Taken++
	default:
		s.Error++
	}
}

type Store interface {
	Record(ctx context.Context, s Summary) error
	// Recent 返回最近 n 个批次，最新的在前。
	Recent(ctx context.Context, n int) ([]Summary, error)
}

// NoopStore 未配置统计时使用。
type NoopStore struct{}

func (NoopStore) Record(context.Context, Summary) error          { return nil }
func (NoopStore) Recent(context.Context, int) ([]Summary, error) { return nil, nil }
