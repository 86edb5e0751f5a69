package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
	"github.com/openrdap/rdap"
)

var ErrWhoisEmpty = errors.New("whois 返回为空")

// WhoisInfo 一次 WHOIS/RDAP 查询的摘要。Raw 保留截断后的原文，便于人工判断。
type WhoisInfo struct {
	Domain    string `json:"domain"`
	Registrar string `json:"registrar,omitempty"`
	Expiry    string `json:"expiry,omitempty"`
	DaysLeft  *int   `json:"days_left,omitempty"`
	Source    string `json:"source"`
	Raw       string `json:"raw,omitempty"`
}

type WhoisClient interface {
	Query(ctx context.Context, domain string) (WhoisInfo, error)
}

// DefaultWhoisClient RDAP 优先，失败后回退到 WHOIS。
type DefaultWhoisClient struct {
	RDAP *rdap.Client

	// 测试时替换
	queryRDAP func(domain string) (*rdap.Domain, error)
	lookup    func(domain string) (string, error)
}

const rawSnippetLen = 800

func (c DefaultWhoisClient) Query(ctx context.Context, domain string) (WhoisInfo, error) {
	info, err := c.await(ctx, domain)
	if err == nil && info.Expiry != "" {
		if days, derr := DaysUntilExpiry(info.Expiry, time.Now()); derr == nil {
			info.DaysLeft = &days
		}
	}
	return info, err
}

func (c DefaultWhoisClient) await(ctx context.Context, domain string) (WhoisInfo, error) {
	type result struct {
		info WhoisInfo
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		info, err := c.query(domain)
		ch <- result{info: info, err: err}
	}()

	select {
	case <-ctx.Done():
		return WhoisInfo{Domain: domain}, ctx.Err()
	case res := <-ch:
		return res.info, res.err
	}
}

func (c DefaultWhoisClient) query(domain string) (WhoisInfo, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	info := WhoisInfo{Domain: domain}

	queryRDAP := c.queryRDAP
	if queryRDAP == nil {
		client := c.RDAP
		if client == nil {
			client = &rdap.Client{}
		}
		queryRDAP = client.QueryDomain
	}
	if d, err := queryRDAP(domain); err == nil && d != nil {
		info.Source = "rdap"
		for _, event := range d.Events {
			if strings.EqualFold(event.Action, "expiration") && len(event.Date) >= 10 {
				info.Expiry = event.Date[:10]
			}
		}
		for _, e := range d.Entities {
			if hasRole(e.Roles, "registrar") && e.VCard != nil {
				info.Registrar = e.VCard.Name()
			}
		}
		if info.Expiry != "" {
			return info, nil
		}
	}

	lookup := c.lookup
	if lookup == nil {
		lookup = func(d string) (string, error) { return whois.Whois(d) }
	}
	raw, err := lookup(domain)
	if err != nil {
		return info, fmt.Errorf("WHOIS错误: %w", err)
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if strings.TrimSpace(raw) == "" {
		return info, ErrWhoisEmpty
	}

	info.Source = "whois"
	if expiry, ok := ExtractExpiry(raw); ok {
		info.Expiry = expiry
	}
	if info.Registrar == "" {
		info.Registrar = ExtractRegistrar(raw)
	}
	info.Raw = raw
	if len(info.Raw) > rawSnippetLen {
		info.Raw = info.Raw[:rawSnippetLen] + " ... (truncated)"
	}
	return info, nil
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, want) {
			return true
		}
	}
	return false
}

var (
	expiryRegex = regexp.MustCompile(
		`(?i)\b(registry expiry date|registrar registration expiration date|expiration date|expiry date|expires on|expires|paid-till)\b[^0-9A-Za-z]*([0-9A-Za-z ,:/\-T\.Z+]+)`,
	)
	registrarRegex = regexp.MustCompile(`(?im)^\s*registrar:\s*(.+?)\s*$`)

	expiryLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"2006.01.02",
		"02-Jan-2006",
		"Jan 02, 2006",
		"January 2 2006",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
)

// ExtractExpiry 从 WHOIS 原文中找到期日，统一为 YYYY-MM-DD。
func ExtractExpiry(raw string) (string, bool) {
	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		// 跳过提示/免责声明行
		if strings.HasPrefix(lower, "notice:") || strings.Contains(lower, "terms of use") {
			continue
		}
		match := expiryRegex.FindStringSubmatch(line)
		if len(match) < 3 {
			continue
		}
		if parsed, ok := parseExpiry(match[2]); ok {
			return parsed, true
		}
	}
	return "", false
}

func parseExpiry(s string) (string, bool) {
	cleaned := strings.TrimSpace(strings.Trim(s, ":"))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	// 部分服务会在日期后追加时区说明，只取前 10 位再试一次
	if len(cleaned) > 10 {
		if t, err := time.Parse("2006-01-02", cleaned[:10]); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// ExtractRegistrar 取第一行 "Registrar:" 的值。
func ExtractRegistrar(raw string) string {
	if m := registrarRegex.FindStringSubmatch(raw); len(m) == 2 {
		return m[1]
	}
	return ""
}

// DaysUntilExpiry 距离到期还有多少天。
func DaysUntilExpiry(expiry string, now time.Time) (int, error) {
	expiryTime, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		return -1, fmt.Errorf("解析到期日期失败: %v", err)
	}
	return int(expiryTime.Sub(now).Hours() / 24), nil
}
