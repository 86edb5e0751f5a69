package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender 抽象出 Telegram 发送能力，便于替换和测试。
type Sender interface {
	Send(ctx context.Context, msg string) error
	SendWithButtons(ctx context.Context, msg string, buttons [][]Button) error
	SendDocumentPath(ctx context.Context, filepath string, caption string) error
	StartListener(ctx context.Context, handleCallback func(cb *tgbotapi.CallbackQuery), handleMessage func(msg *tgbotapi.Message)) error
}

// NoopSender 未配置机器人时使用。
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg string) error { return nil }
func (NoopSender) SendWithButtons(ctx context.Context, msg string, buttons [][]Button) error {
	return nil
}
func (NoopSender) SendDocumentPath(ctx context.Context, filepath string, caption string) error {
	return nil
}
func (NoopSender) StartListener(ctx context.Context, handleCallback func(cb *tgbotapi.CallbackQuery), handleMessage func(msg *tgbotapi.Message)) error {
	<-ctx.Done()
	return nil
}

// BotSender 实现了带简单重试和节流的 Telegram 发送能力。
type BotSender struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	retryTimes int
	rate       *time.Ticker
	timeout    time.Duration
}

func NewBotSender(token string, chatID int64, retryTimes int, rateInterval time.Duration, timeout time.Duration) (*BotSender, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	sender := &BotSender{
		bot:        bot,
		chatID:     chatID,
		retryTimes: retryTimes,
		rate:       time.NewTicker(rateInterval),
		timeout:    timeout,
	}
	SetDefaultSender(sender)
	return sender, nil
}

const tgMaxLen = 3800

func (s *BotSender) Send(ctx context.Context, msg string) error {
	parts := splitTelegramText(msg, tgMaxLen)
	for i, p := range parts {
		if len(parts) > 1 {
			p = fmt.Sprintf("(%d/%d)\n%s", i+1, len(parts), p)
		}
		if err := s.deliver(ctx, "消息", tgbotapi.NewMessage(s.chatID, p)); err != nil {
			return err
		}
	}
	return nil
}

func (s *BotSender) SendWithButtons(ctx context.Context, msg string, buttons [][]Button) error {
	message := tgbotapi.NewMessage(s.chatID, msg)
	if markup, ok := inlineKeyboard(buttons); ok {
		message.ReplyMarkup = markup
	}
	return s.deliver(ctx, "消息", message)
}

func (s *BotSender) SendDocumentPath(ctx context.Context, filepath string, caption string) error {
	if filepath == "" {
		return errors.New("filepath is empty")
	}
	doc := tgbotapi.NewDocument(s.chatID, tgbotapi.FilePath(filepath))
	doc.Caption = caption
	return s.deliver(ctx, "文件", doc)
}

func inlineKeyboard(buttons [][]Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range buttons {
		var row []tgbotapi.InlineKeyboardButton
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// deliver 按节流节奏发送，失败或超时后重试 retryTimes 次。
func (s *BotSender) deliver(ctx context.Context, what string, c tgbotapi.Chattable) error {
	for attempt := 0; attempt <= s.retryTimes; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.rate.C:
		}

		sendCtx := ctx
		cancel := func() {}
		if s.timeout > 0 {
			sendCtx, cancel = context.WithTimeout(ctx, s.timeout)
		}
		result := make(chan error, 1)
		go func() {
			_, err := s.bot.Send(c)
			result <- err
		}()

		select {
		case <-sendCtx.Done():
			cancel()
			if attempt == s.retryTimes {
				return fmt.Errorf("发送 Telegram %s超时: %w", what, sendCtx.Err())
			}
		case err := <-result:
			cancel()
			if err == nil {
				return nil
			}
			if attempt == s.retryTimes {
				return fmt.Errorf("发送 Telegram %s失败: %w", what, err)
			}
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
		}
	}
	return nil
}

func (s *BotSender) StartListener(ctx context.Context, handleCallback func(cb *tgbotapi.CallbackQuery), handleMessage func(msg *tgbotapi.Message)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.bot.GetUpdatesChan(u)
	defer s.bot.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up := <-updates:
			if up.CallbackQuery != nil && handleCallback != nil {
				handleCallback(up.CallbackQuery)
				cb := tgbotapi.NewCallback(up.CallbackQuery.ID, "操作已收到")
				_, _ = s.bot.Request(cb)
			}
			if up.Message != nil && handleMessage != nil {
				handleMessage(up.Message)
			}
		}
	}
}

func splitTelegramText(s string, limit int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{""}
	}
	if len(s) <= limit {
		return []string{s}
	}

	var out []string
	for len(s) > limit {
		// 优先在 limit 以内找最后一个换行，其次空格，都没有就硬切
		cut := strings.LastIndex(s[:limit], "\n")
		if cut < limit/3 {
			cut = strings.LastIndex(s[:limit], " ")
		}
		if cut <= 0 {
			cut = limit
		}

		part := strings.TrimSpace(s[:cut])
		if part != "" {
			out = append(out, part)
		}
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
