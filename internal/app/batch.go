package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"DomainChecker/domain"
	"DomainChecker/rdapclient"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrBatchAborted 批次在拿到并发名额之前被取消，该域名没有发出查询。
var ErrBatchAborted = errors.New("batch aborted before lookup")

// BatchRunner 在全局并发上限内执行批量查询。
type BatchRunner struct {
	Checker   *Checker
	Transport rdapclient.Transport

	sem   *semaphore.Weighted
	limit int
}

func NewBatchRunner(checker *Checker, transport rdapclient.Transport, concurrency int) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRunner{
		Checker:   checker,
		Transport: transport,
		sem:       semaphore.NewWeighted(int64(concurrency)),
		limit:     concurrency,
	}
}

func (r *BatchRunner) Concurrency() int { return r.limit }

// Batch 一次批量查询。Results 按完成顺序输出，恰好 Total 条后关闭。
type Batch struct {
	ID string

	total     int
	completed atomic.Int64
	results   chan domain.CheckResult
	done      chan struct{}
}

func (b *Batch) Total() int                         { return b.total }
func (b *Batch) Completed() int                     { return int(b.completed.Load()) }
func (b *Batch) Results() <-chan domain.CheckResult { return b.results }
func (b *Batch) Done() <-chan struct{}              { return b.done }

// Start 立即为每个域名启动一个 goroutine，并发由信号量控制。
// results 按批次大小缓冲，消费者中途离开也不会阻塞查询；会话在最后一条结果产生后关闭。
// ctx 取消后，尚未拿到名额的域名以 ErrBatchAborted 结束，进行中的查询继续完成。
func (r *BatchRunner) Start(ctx context.Context, items []domain.WorkItem) *Batch {
	b := &Batch{
		ID:      uuid.NewString(),
		total:   len(items),
		results: make(chan domain.CheckResult, len(items)),
		done:    make(chan struct{}),
	}
	sess := r.Transport.Open()

	var wg sync.WaitGroup
	wg.Add(len(items))
	for _, item := range items {
		go func(item domain.WorkItem) {
			defer wg.Done()
			res := r.run(ctx, sess, item)
			b.completed.Add(1)
			b.results <- res
		}(item)
	}

	go func() {
		wg.Wait()
		sess.Close()
		close(b.results)
		close(b.done)
	}()
	return b
}

func (r *BatchRunner) run(ctx context.Context, sess rdapclient.Session, item domain.WorkItem) domain.CheckResult {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return domain.CheckResult{
			Domain:    item.FullDomain,
			BaseName:  item.BaseName,
			TLD:       item.TLD,
			Status:    domain.StatusError,
			CheckedAt: time.Now().UTC(),
			Err:       fmt.Errorf("%w: %v", ErrBatchAborted, err),
		}
	}
	defer r.sem.Release(1)
	// 已拿到名额的查询不随批次取消，只受单次查询超时约束，结果照常落库。
	return r.Checker.Check(context.WithoutCancel(ctx), sess, item)
}
