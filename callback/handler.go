package callback

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"DomainChecker/domain"
	"DomainChecker/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Rechecker 由 telegram.CommandHandler 实现。
type Rechecker interface {
	HandleRecheckCallback(id int64, operator string)
}

// Handler 处理提醒消息中的内联按钮。
// callbackData 格式：action|id
type Handler struct {
	Recheck Rechecker
	Repo    domain.Repository
	Sender  telegram.Sender
	Timeout time.Duration
}

func (h *Handler) HandleCallback(cb *tgbotapi.CallbackQuery) {
	if cb == nil {
		return
	}
	parts := strings.Split(cb.Data, "|")
	action := parts[0]

	// 避免“处理中”按钮再触发一堆日志
	if action == "noop" {
		return
	}
	if len(parts) < 2 {
		log.Printf("[callback] invalid data=%q", cb.Data)
		return
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		log.Printf("[callback] invalid id data=%q", cb.Data)
		return
	}

	operator := telegram.FormatOperator(cb.From)
	log.Printf("[callback] action=%s id=%d user=%s", action, id, operator)

	switch action {
	case "recheck":
		if h.Recheck != nil {
			go h.Recheck.HandleRecheckCallback(id, operator)
		}
	case "delete":
		go h.confirmDelete(id, operator)
	case "delete_confirm":
		go h.delete(id, operator)
	case "delete_cancel":
		go h.send(fmt.Sprintf("已取消删除记录 #%d（操作人: %s）", id, operator))
	}
}

func (h *Handler) confirmDelete(id int64, operator string) {
	ctx, cancel := h.context()
	defer cancel()

	name := fmt.Sprintf("#%d", id)
	if h.Repo != nil {
		if r, err := h.Repo.Get(ctx, id); err == nil {
			name = r.Domain
		}
	}
	msg := fmt.Sprintf("⚠️【删除二次确认】\n操作人: %s\n记录: %s\n\n确认要删除这条检查结果吗？", operator, name)
	buttons := [][]telegram.Button{{
		{Text: "✅ 确认删除", CallbackData: fmt.Sprintf("delete_confirm|%d", id)},
		{Text: "❌ 取消", CallbackData: fmt.Sprintf("delete_cancel|%d", id)},
	}}
	if err := h.sender().SendWithButtons(ctx, msg, buttons); err != nil {
		log.Printf("[callback] send_failed err=%v", err)
	}
}

func (h *Handler) delete(id int64, operator string) {
	if h.Repo == nil {
		return
	}
	ctx, cancel := h.context()
	defer cancel()

	n, err := h.Repo.Delete(ctx, id)
	switch {
	case err != nil:
		h.send(fmt.Sprintf("删除记录 #%d 失败: %v", id, err))
	case n == 0:
		h.send(fmt.Sprintf("记录 #%d 不存在。", id))
	default:
		h.send(fmt.Sprintf("✅ 已删除记录 #%d（操作人: %s）", id, operator))
	}
}

func (h *Handler) send(msg string) {
	if err := h.sender().Send(context.Background(), msg); err != nil {
		log.Printf("[callback] send_failed err=%v", err)
	}
}

func (h *Handler) sender() telegram.Sender {
	if h.Sender != nil {
		return h.Sender
	}
	return telegram.DefaultSender()
}

func (h *Handler) context() (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
