package scheduler

import (
	"context"
	"log"
	"time"
)

// DailyScheduler 每天固定时刻执行一次任务。
type DailyScheduler struct {
	Location *time.Location
	now      func() time.Time
}

func NewDailyScheduler() *DailyScheduler {
	return &DailyScheduler{Location: time.Local, now: time.Now}
}

// Next 返回 now 之后下一次 hour:minute 的时间点。
func (s *DailyScheduler) Next(now time.Time, hour, minute int) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run 阻塞直到 ctx 结束。任务出错只记录日志，不影响下一次调度。
func (s *DailyScheduler) Run(ctx context.Context, hour, minute int, job func(context.Context) error) error {
	now := s.now
	if now == nil {
		now = time.Now
	}
	for {
		next := s.Next(now(), hour, minute)
		log.Printf("[scheduler] next_run at=%s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		start := time.Now()
		if err := job(ctx); err != nil {
			log.Printf("[scheduler] job_failed err=%v elapsed=%s", err, time.Since(start).Round(time.Millisecond))
			continue
		}
		log.Printf("[scheduler] job_done elapsed=%s", time.Since(start).Round(time.Millisecond))
	}
}
