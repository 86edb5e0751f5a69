package telegram

import (
	"context"

	"DomainChecker/domain"
)

var defaultSender Sender = NoopSender{}

type Button struct {
	Text         string
	CallbackData string
}

// CheckRunner 聊天命令触发的同步检查，由 app.CheckService 实现。
type CheckRunner interface {
	CheckAndWait(ctx context.Context, names, tlds []string) ([]domain.CheckResult, []string, error)
	RecheckAndWait(ctx context.Context, ids []int64) ([]domain.CheckResult, error)
}

func SetDefaultSender(sender Sender) {
	if sender != nil {
		defaultSender = sender
	}
}

func DefaultSender() Sender {
	return defaultSender
}
