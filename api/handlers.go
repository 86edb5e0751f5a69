package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"DomainChecker/domain"
	"DomainChecker/internal/app"
	"DomainChecker/stats"
	"DomainChecker/tools"

	"github.com/gin-gonic/gin"
)

const (
	whoisTimeout = 20 * time.Second
	recentStats  = 20
)

// Checker 由 app.CheckService 实现。
type Checker interface {
	Check(ctx context.Context, names, tlds []string) (*app.Run, error)
	Recheck(ctx context.Context, ids []int64) (*app.Run, error)
}

// dayCounter 由 stats.RedisStore 实现。
type dayCounter interface {
	DayCounts(ctx context.Context, day time.Time) (map[string]string, error)
}

type Handlers struct {
	Service Checker
	Repo    domain.Repository
	Whois   tools.WhoisClient
	Stats   stats.Store
}

type CheckRequest struct {
	Domains []string `json:"domains" binding:"required"`
	TLDs    []string `json:"tlds"`
}

type RecheckRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Check 展开后逐条以 SSE 推送结果。
func (h *Handlers) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	run, err := h.Service.Check(c.Request.Context(), req.Domains, req.TLDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	streamRun(c, run)
}

// Recheck ids 为空时重查全部 AVAILABLE；没有可查的域名时直接返回 JSON。
func (h *Handlers) Recheck(c *gin.Context) {
	var req RecheckRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	run, err := h.Service.Recheck(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run.Total() == 0 {
		run.Wait()
		c.JSON(http.StatusOK, gin.H{"message": "No domains to recheck", "total": 0})
		return
	}
	streamRun(c, run)
}

func (h *Handlers) ListResults(c *gin.Context) {
	f := domain.Filter{
		TLD:    strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Query("tld"))), "."),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if s := c.Query("status"); s != "" {
		status, ok := domain.ParseStatus(s)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + s})
			return
		}
		f.Status = status
	}
	results, err := h.Repo.Query(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if results == nil {
		results = []domain.CheckResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handlers) DeleteResult(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	n, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if n == 0 {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted", "id": id})
}

func (h *Handlers) DeleteResults(c *gin.Context) {
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON array of ids"})
		return
	}
	n, err := h.Repo.Delete(c.Request.Context(), ids...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Deleted %d results", n), "count": n})
}

func (h *Handlers) Export(c *gin.Context) {
	results, err := h.Repo.Query(c.Request.Context(), domain.Filter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	filename := fmt.Sprintf("domain-check-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := domain.WriteCSV(c.Writer, results); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handlers) WhoisLookup(c *gin.Context) {
	name := strings.ToLower(strings.TrimSpace(c.Param("domain")))
	if !domain.IsValid(name) || !strings.Contains(name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain: " + name})
		return
	}
	if h.Whois == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "whois lookup disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), whoisTimeout)
	defer cancel()

	info, err := h.Whois.Query(ctx, name)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": err.Error(), "domain": name})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handlers) BatchStats(c *gin.Context) {
	if h.Stats == nil {
		c.JSON(http.StatusOK, gin.H{"batches": []stats.Summary{}})
		return
	}
	n := recentStats
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		n = v
	}
	recent, err := h.Stats.Recent(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recent == nil {
		recent = []stats.Summary{}
	}
	resp := gin.H{"batches": recent}
	if dc, ok := h.Stats.(dayCounter); ok {
		if today, err := dc.DayCounts(c.Request.Context(), time.Now()); err == nil {
			resp["today"] = today
		}
	}
	c.JSON(http.StatusOK, resp)
}
