package telegram

import (
	"fmt"
	"strings"

	"DomainChecker/domain"
)

func (h *CommandHandler) handleWhoisCommand(args []string) {
	if len(args) < 1 {
		h.sendText("用法: /whois example.com")
		return
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	if !domain.IsValid(name) {
		h.sendText(fmt.Sprintf("无效的域名: %s", name))
		return
	}

	ctx, cancel := h.commandContext()
	defer cancel()

	info, err := h.Whois.Query(ctx, name)
	if err != nil {
		h.sendText(fmt.Sprintf("%s 查询失败: %v", name, err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "【%s 注册信息】来源: %s\n", info.Domain, info.Source)
	if info.Registrar != "" {
		fmt.Fprintf(&sb, "注册商: %s\n", info.Registrar)
	}
	if info.Expiry != "" {
		fmt.Fprintf(&sb, "到期日: %s\n", info.Expiry)
		if info.DaysLeft != nil {
			fmt.Fprintf(&sb, "剩余: %d 天\n", *info.DaysLeft)
		}
	} else {
		sb.WriteString("未找到明确的到期字段\n")
	}
	if info.Raw != "" && info.Expiry == "" {
		fmt.Fprintf(&sb, "\n原文摘要:\n%s", info.Raw)
	}
	h.sendText(sb.String())
}
