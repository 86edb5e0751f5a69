package telegram

import (
	"strings"
	"time"

	"DomainChecker/domain"
	"DomainChecker/tools"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultCommandTimeout = 5 * time.Minute

// CommandHandler 处理群组中的命令消息。
type CommandHandler struct {
	Runner  CheckRunner
	Repo    domain.Repository
	Whois   tools.WhoisClient
	Sender  Sender
	ChatID  int64
	Timeout time.Duration
}

func NewCommandHandler(runner CheckRunner, repo domain.Repository, whois tools.WhoisClient, sender Sender, chatID int64) *CommandHandler {
	if whois == nil {
		whois = tools.DefaultWhoisClient{}
	}
	if sender == nil {
		sender = DefaultSender()
	}
	return &CommandHandler{
		Runner:  runner,
		Repo:    repo,
		Whois:   whois,
		Sender:  sender,
		ChatID:  chatID,
		Timeout: defaultCommandTimeout,
	}
}

func (h *CommandHandler) HandleMessage(msg *tgbotapi.Message) {
	if msg == nil {
		return
	}
	if h.ChatID != 0 && msg.Chat != nil && msg.Chat.ID != h.ChatID {
		return
	}
	if !msg.IsCommand() {
		return
	}
	args := strings.Fields(msg.CommandArguments())
	operator := FormatOperator(msg.From)
	switch strings.ToLower(msg.Command()) {
	case "check":
		go h.handleCheckCommand(args, operator)
	case "recheck":
		go h.handleRecheckCommand(args, operator)
	case "available":
		go h.handleAvailableCommand()
	case "csv":
		go h.handleCSVCommand(args)
	case "whois":
		go h.handleWhoisCommand(args)
	case "help", "start":
		h.sendText(helpText)
	}
}

const helpText = `可用命令：
/check name1 name2 [.com .net] 检查域名是否可注册，不带后缀时默认 .com
/recheck [id ...] 重新检查指定记录，不带参数时重查全部可注册域名
/available 列出当前可注册的域名
/csv [available|taken|error] 导出检查结果
/whois example.com 查询注册信息`
