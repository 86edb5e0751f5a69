package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"DomainChecker/domain"
	"DomainChecker/telegram"
)

// 单条提醒里最多带多少个重查按钮
const maxRecheckButtons = 10

type NotifierService struct {
	Sender telegram.Sender
}

// NotifyAvailable 按后缀分组发送可注册域名提醒，每个域名附带重查按钮。
func (n *NotifierService) NotifyAvailable(ctx context.Context, results []domain.CheckResult) error {
	if n.Sender == nil {
		return ErrMissingDependencies
	}
	var available []domain.CheckResult
	for _, r := range results {
		if r.Status == domain.StatusAvailable {
			available = append(available, r)
		}
	}
	if len(available) == 0 {
		return nil
	}

	msg := formatAvailable(available, time.Now())

	var buttons [][]telegram.Button
	for _, r := range available {
		if r.ID == 0 || len(buttons) >= maxRecheckButtons {
			continue
		}
		buttons = append(buttons, []telegram.Button{
			{Text: "🔄 " + r.Domain, CallbackData: fmt.Sprintf("recheck|%d", r.ID)},
			{Text: "🗑 删除", CallbackData: fmt.Sprintf("delete|%d", r.ID)},
		})
	}
	if len(buttons) == 0 {
		return n.Sender.Send(ctx, msg)
	}
	return n.Sender.SendWithButtons(ctx, msg, buttons)
}

// NotifyErrors 汇总查询失败的域名，便于人工重试。
func (n *NotifierService) NotifyErrors(ctx context.Context, results []domain.CheckResult) error {
	if n.Sender == nil {
		return ErrMissingDependencies
	}
	var b strings.Builder
	count := 0
	for _, r := range results {
		if r.Status != domain.StatusError {
			continue
		}
		if count == 0 {
			b.WriteString("【以下域名 RDAP 查询失败】\n请稍后重试：\n\n")
		}
		count++
		reason := "unknown"
		if r.Err != nil {
			reason = r.Err.Error()
		}
		fmt.Fprintf(&b, "- %s: %s\n", r.Domain, reason)
	}
	if count == 0 {
		return nil
	}
	return n.Sender.Send(ctx, b.String())
}

func formatAvailable(available []domain.CheckResult, now time.Time) string {
	byTLD := make(map[string][]string)
	for _, r := range available {
		byTLD[r.TLD] = append(byTLD[r.TLD], r.Domain)
	}
	tlds := make([]string, 0, len(byTLD))
	for tld := range byTLD {
		tlds = append(tlds, tld)
	}
	sort.Strings(tlds)

	var b strings.Builder
	fmt.Fprintf(&b, "【发现可注册域名】共 %d 个\n%s\n", len(available), now.Format("2006-01-02 15:04 MST"))
	for _, tld := range tlds {
		fmt.Fprintf(&b, "\n.%s (%d)\n", tld, len(byTLD[tld]))
		for _, d := range byTLD[tld] {
			b.WriteString("  " + d + "\n")
		}
	}
	return b.String()
}
