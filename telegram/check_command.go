package telegram

import (
	"fmt"
	"log"
	"strings"

	"DomainChecker/domain"
)

func (h *CommandHandler) handleCheckCommand(args []string, operator string) {
	names, tlds := parseCheckArgs(args)
	if len(names) == 0 {
		h.sendText("用法: /check name1 name2 [.com .net]")
		return
	}
	if h.Runner == nil {
		h.sendText("检查服务未启用。")
		return
	}

	ctx, cancel := h.commandContext()
	defer cancel()

	h.sendText(fmt.Sprintf("开始检查 %s（操作人: %s）", strings.Join(names, ", "), operator))
	results, rejected, err := h.Runner.CheckAndWait(ctx, names, tlds)
	if err != nil {
		log.Printf("[telegram] check_failed operator=%s err=%v", operator, err)
		h.sendText(fmt.Sprintf("检查失败: %v", err))
		return
	}
	if len(results) == 0 {
		h.sendText(fmt.Sprintf("没有有效的域名可检查。无效输入: %s", strings.Join(rejected, ", ")))
		return
	}

	msg := formatResults("检查完成", results)
	if len(rejected) > 0 {
		msg += fmt.Sprintf("\n已忽略无效输入: %s", strings.Join(rejected, ", "))
	}
	h.sendText(msg)
}

func (h *CommandHandler) handleRecheckCommand(args []string, operator string) {
	ids, err := parseIDs(args)
	if err != nil {
		h.sendText(fmt.Sprintf("%v\n用法: /recheck [id ...]", err))
		return
	}
	if h.Runner == nil {
		h.sendText("检查服务未启用。")
		return
	}

	ctx, cancel := h.commandContext()
	defer cancel()

	results, err := h.Runner.RecheckAndWait(ctx, ids)
	if err != nil {
		log.Printf("[telegram] recheck_failed operator=%s err=%v", operator, err)
		h.sendText(fmt.Sprintf("重新检查失败: %v", err))
		return
	}
	if len(results) == 0 {
		h.sendText("没有需要重新检查的域名。")
		return
	}
	h.sendText(formatResults("重新检查完成", results))
}

func (h *CommandHandler) handleAvailableCommand() {
	if h.Repo == nil {
		h.sendText("结果存储未启用。")
		return
	}
	ctx, cancel := h.commandContext()
	defer cancel()

	results, err := h.Repo.ListAvailable(ctx)
	if err != nil {
		h.sendText(fmt.Sprintf("查询失败: %v", err))
		return
	}
	if len(results) == 0 {
		h.sendText("目前没有可注册的域名。")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "【当前可注册域名】共 %d 个\n", len(results))
	writeDomains(&sb, results)
	h.sendText(sb.String())
}

// HandleRecheckCallback 处理提醒消息里的 "recheck|<id>" 按钮。
func (h *CommandHandler) HandleRecheckCallback(id int64, operator string) {
	if h.Runner == nil {
		return
	}
	ctx, cancel := h.commandContext()
	defer cancel()

	results, err := h.Runner.RecheckAndWait(ctx, []int64{id})
	if err != nil {
		h.sendText(fmt.Sprintf("重新检查失败: %v", err))
		return
	}
	if len(results) == 0 {
		h.sendText(fmt.Sprintf("记录 #%d 不存在。", id))
		return
	}
	r := results[0]
	h.sendText(fmt.Sprintf("%s 重新检查结果: %s（操作人: %s）", r.Domain, statusLabel(r.Status), operator))
}

func statusLabel(s domain.Status) string {
	switch s {
	case domain.StatusAvailable:
		return "可注册"
	case domain.StatusTaken:
		return "已注册"
	default:
		return "查询失败"
	}
}
