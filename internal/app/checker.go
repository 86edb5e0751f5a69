package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"DomainChecker/domain"
	"DomainChecker/metrics"
	"DomainChecker/rdapclient"
)

var ErrUnexpectedStatus = errors.New("unexpected rdap status")

// Checker 对单个域名做一次 RDAP 查询并归类结果，任何失败都归为 ERROR。
type Checker struct {
	BaseURL      string
	QueryTimeout time.Duration
	Now          func() time.Time
}

func NewChecker(baseURL string, timeout time.Duration) *Checker {
	return &Checker{BaseURL: baseURL, QueryTimeout: timeout, Now: time.Now}
}

// LookupURL 返回域名对应的 RDAP 查询地址。
func (c *Checker) LookupURL(name string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + url.PathEscape(name)
}

func (c *Checker) Check(ctx context.Context, sess rdapclient.Session, item domain.WorkItem) (result domain.CheckResult) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	result = domain.CheckResult{
		Domain:    item.FullDomain,
		BaseName:  item.BaseName,
		TLD:       item.TLD,
		CheckedAt: now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(result, fmt.Errorf("lookup panic: %v", r))
		}
		metrics.LookupsTotal.WithLabelValues(string(result.Status)).Inc()
	}()

	lookupCtx := ctx
	cancel := func() {}
	if c.QueryTimeout > 0 {
		lookupCtx, cancel = context.WithTimeout(ctx, c.QueryTimeout)
	}
	defer cancel()

	resp, err := c.fetch(lookupCtx, sess, item.FullDomain)
	return classify(result, resp, err)
}

func (c *Checker) fetch(ctx context.Context, sess rdapclient.Session, name string) (*rdapclient.Response, error) {
	metrics.LookupsInFlight.Inc()
	defer metrics.LookupsInFlight.Dec()
	start := time.Now()
	defer func() { metrics.LookupDuration.Observe(time.Since(start).Seconds()) }()
	return sess.Fetch(ctx, c.LookupURL(name))
}

func classify(result domain.CheckResult, resp *rdapclient.Response, err error) domain.CheckResult {
	switch {
	case err != nil:
		return errorResult(result, err)
	case resp == nil:
		return errorResult(result, errors.New("empty rdap response"))
	case resp.StatusCode == 404:
		result.Status = domain.StatusAvailable
		return result
	case resp.StatusCode == 200:
		rec, perr := rdapclient.ParseRecord(resp.Body)
		if perr != nil {
			return errorResult(result, perr)
		}
		result.Status = domain.StatusTaken
		result.Registrar = rec.Registrar
		result.Expiry = rec.Expiry
		return result
	default:
		return errorResult(result, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}
}

func errorResult(result domain.CheckResult, err error) domain.CheckResult {
	result.Status = domain.StatusError
	result.Registrar = nil
	result.Expiry = nil
	result.Err = err
	return result
}
