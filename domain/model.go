package domain

import (
	"errors"
	"strings"
	"time"
)

// Status 域名检查结果状态。
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusTaken     Status = "TAKEN"
	StatusError     Status = "ERROR"
)

// ParseStatus accepts the case-insensitive status names used by the API filters.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusAvailable:
		return StatusAvailable, true
	case StatusTaken:
		return StatusTaken, true
	case StatusError:
		return StatusError, true
	}
	return "", false
}

var (
	ErrInvalidDomain = errors.New("invalid domain")
	ErrNotFound      = errors.New("result not found")
)

// WorkItem 是一次待检查的完整域名，由 Expand 生成后不再修改。
type WorkItem struct {
	FullDomain string
	BaseName   string
	TLD        string
}

// CheckResult 单个域名的检查结果；ID 仅在持久化之后才有值。
type CheckResult struct {
	ID        int64     `json:"id,omitempty"`
	Domain    string    `json:"domain"`
	BaseName  string    `json:"base_name"`
	TLD       string    `json:"tld"`
	Status    Status    `json:"status"`
	Registrar *string   `json:"registrar"`
	Expiry    *string   `json:"expiry"`
	CheckedAt time.Time `json:"checked_at"`

	// Err 记录 ERROR 的原因，不落库也不输出。
	Err error `json:"-"`
	// Persisted 表示该结果已写入结果库，只在批次推送时有意义。
	Persisted bool `json:"-"`
}

// Item returns the work item a stored result was produced from.
func (r CheckResult) Item() WorkItem {
	return WorkItem{FullDomain: r.Domain, BaseName: r.BaseName, TLD: r.TLD}
}

// Filter 结果查询条件，空字段表示不过滤。
type Filter struct {
	Status Status
	TLD    string
	Search string
}
