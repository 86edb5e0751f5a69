package app

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"DomainChecker/domain"
	"DomainChecker/metrics"
	"DomainChecker/stats"
)

const (
	KindCheck     = "check"
	KindRecheck   = "recheck"
	KindScheduled = "scheduled"

	upsertTimeout = 5 * time.Second
)

var ErrMissingDependencies = errors.New("missing dependencies")

// CheckService 串起 展开 -> 批量查询 -> 落库 -> 输出。
type CheckService struct {
	Runner *BatchRunner
	Repo   domain.Repository
	Stats  stats.Store
}

// Run 对外输出的批次：每条结果在写入 Results 之前已经落库。
type Run struct {
	ID       string
	Kind     string
	Rejected []string

	total     int
	completed atomic.Int64
	results   chan domain.CheckResult
	done      chan struct{}
}

func (r *Run) Total() int                         { return r.total }
func (r *Run) Completed() int                     { return int(r.completed.Load()) }
func (r *Run) Results() <-chan domain.CheckResult { return r.results }
func (r *Run) Done() <-chan struct{}              { return r.done }

// Wait 读完全部结果。与 Results 只能二选一。
func (r *Run) Wait() []domain.CheckResult {
	out := make([]domain.CheckResult, 0, r.total)
	for res := range r.results {
		out = append(out, res)
	}
	return out
}

// Check 展开名字与后缀后启动批次；无效条目放在 Run.Rejected 中。
func (s *CheckService) Check(ctx context.Context, names, tlds []string) (*Run, error) {
	items, rejected := domain.ExpandReport(names, tlds)
	run, err := s.Start(ctx, KindCheck, items)
	if err != nil {
		return nil, err
	}
	run.Rejected = rejected
	return run, nil
}

// Recheck 重新检查指定 ID；ids 为空时重查全部 AVAILABLE。
func (s *CheckService) Recheck(ctx context.Context, ids []int64) (*Run, error) {
	if s.Repo == nil {
		return nil, ErrMissingDependencies
	}
	var (
		stored []domain.CheckResult
		err    error
	)
	if len(ids) > 0 {
		stored, err = s.Repo.GetByIDs(ctx, ids)
	} else {
		stored, err = s.Repo.ListAvailable(ctx)
	}
	if err != nil {
		return nil, err
	}
	items := make([]domain.WorkItem, 0, len(stored))
	for _, r := range stored {
		items = append(items, r.Item())
	}
	return s.Start(ctx, KindRecheck, items)
}

// CheckAndWait 供聊天命令使用的同步版本。
func (s *CheckService) CheckAndWait(ctx context.Context, names, tlds []string) ([]domain.CheckResult, []string, error) {
	run, err := s.Check(ctx, names, tlds)
	if err != nil {
		return nil, nil, err
	}
	return run.Wait(), run.Rejected, nil
}

func (s *CheckService) RecheckAndWait(ctx context.Context, ids []int64) ([]domain.CheckResult, error) {
	run, err := s.Recheck(ctx, ids)
	if err != nil {
		return nil, err
	}
	return run.Wait(), nil
}

// Start 启动批次并在后台按完成顺序逐条落库后转发。
func (s *CheckService) Start(ctx context.Context, kind string, items []domain.WorkItem) (*Run, error) {
	if s.Runner == nil || s.Repo == nil {
		return nil, ErrMissingDependencies
	}
	metrics.BatchesTotal.WithLabelValues(kind).Inc()

	batch := s.Runner.Start(ctx, items)
	run := &Run{
		ID:      batch.ID,
		Kind:    kind,
		total:   batch.Total(),
		results: make(chan domain.CheckResult, batch.Total()),
		done:    make(chan struct{}),
	}
	log.Printf("[batch] start id=%s kind=%s total=%d concurrency=%d", run.ID, kind, run.total, s.Runner.Concurrency())

	go s.persist(context.WithoutCancel(ctx), run, batch)
	return run, nil
}

func (s *CheckService) persist(ctx context.Context, run *Run, batch *Batch) {
	defer close(run.done)

	summary := stats.Summary{ID: run.ID, Kind: run.Kind, Total: run.total, StartedAt: time.Now().UTC()}
	for res := range batch.Results() {
		if !errors.Is(res.Err, ErrBatchAborted) {
			upCtx, cancel := context.WithTimeout(ctx, upsertTimeout)
			id, err := s.Repo.Upsert(upCtx, res)
			cancel()
			if err != nil {
				log.Printf("[batch] upsert_failed id=%s domain=%s err=%v", run.ID, res.Domain, err)
			} else {
				res.ID = id
				res.Persisted = true
			}
		}
		if res.Status == domain.StatusError && res.Err != nil {
			log.Printf("[batch] lookup_error id=%s domain=%s err=%v", run.ID, res.Domain, res.Err)
		}
		summary.Add(res.Status)
		run.completed.Add(1)
		run.results <- res
	}
	close(run.results)

	summary.FinishedAt = time.Now().UTC()
	if s.Stats != nil {
		if err := s.Stats.Record(ctx, summary); err != nil {
			log.Printf("[batch] stats_failed id=%s err=%v", run.ID, err)
		}
	}
	log.Printf("[batch] done id=%s kind=%s total=%d available=%d taken=%d error=%d elapsed=%s",
		run.ID, run.Kind, summary.Total, summary.Available, summary.Taken, summary.Error,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}
