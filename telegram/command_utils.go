package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"DomainChecker/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// 单条消息里最多列出多少个域名
const maxListed = 50

func (h *CommandHandler) sendText(msg string) {
	_ = h.Sender.Send(context.Background(), msg)
}

func (h *CommandHandler) commandContext() (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), h.Timeout)
}

// FormatOperator 返回操作人的展示名：@用户名、姓名或 id。
func FormatOperator(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return fmt.Sprintf("id:%d", u.ID)
}

// parseCheckArgs 以 "." 开头或 tld= 形式的参数视为后缀，其余视为名字。
func parseCheckArgs(args []string) (names, tlds []string) {
	for _, a := range args {
		a = strings.TrimSpace(a)
		switch {
		case a == "":
		case strings.HasPrefix(a, "."):
			tlds = append(tlds, strings.TrimPrefix(a, "."))
		case strings.HasPrefix(strings.ToLower(a), "tld="):
			for _, t := range strings.Split(a[4:], ",") {
				tlds = append(tlds, strings.TrimPrefix(strings.TrimSpace(t), "."))
			}
		default:
			for _, n := range strings.Split(a, ",") {
				if n = strings.TrimSpace(n); n != "" {
					names = append(names, n)
				}
			}
		}
	}
	return names, tlds
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("无效的 ID: %s", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// formatResults 把一批结果整理成摘要：可注册的逐个列出，其余只计数。
func formatResults(title string, results []domain.CheckResult) string {
	var available, errored []domain.CheckResult
	taken := 0
	for _, r := range results {
		switch r.Status {
		case domain.StatusAvailable:
			available = append(available, r)
		case domain.StatusTaken:
			taken++
		default:
			errored = append(errored, r)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "【%s】共 %d 个：可注册 %d，已注册 %d，失败 %d\n", title, len(results), len(available), taken, len(errored))
	if len(available) > 0 {
		sb.WriteString("\n✅ 可注册：\n")
		writeDomains(&sb, available)
	}
	if len(errored) > 0 {
		sb.WriteString("\n⚠️ 查询失败（可稍后 /recheck）：\n")
		writeDomains(&sb, errored)
	}
	return sb.String()
}

func writeDomains(sb *strings.Builder, results []domain.CheckResult) {
	for i, r := range results {
		if i == maxListed {
			fmt.Fprintf(sb, "... 以及另外 %d 个\n", len(results)-maxListed)
			return
		}
		if r.ID > 0 {
			fmt.Fprintf(sb, "- %s (#%d)\n", r.Domain, r.ID)
		} else {
			fmt.Fprintf(sb, "- %s\n", r.Domain)
		}
	}
}
