package telegram

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"DomainChecker/domain"
	"DomainChecker/tools"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	docs     []string
}

func (f *fakeSender) Send(ctx context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSender) SendWithButtons(ctx context.Context, msg string, buttons [][]Button) error {
	return f.Send(ctx, msg)
}

func (f *fakeSender) SendDocumentPath(ctx context.Context, path string, caption string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, string(data))
	return nil
}

func (f *fakeSender) StartListener(ctx context.Context, handleCallback func(cb *tgbotapi.CallbackQuery), handleMessage func(msg *tgbotapi.Message)) error {
	<-ctx.Done()
	return nil
}

func (f *fakeSender) all() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.messages, "\n---\n")
}

type fakeRunner struct {
	results  []domain.CheckResult
	rejected []string
	err      error
	names    []string
	tlds     []string
	ids      []int64
}

func (f *fakeRunner) CheckAndWait(ctx context.Context, names, tlds []string) ([]domain.CheckResult, []string, error) {
	f.names, f.tlds = names, tlds
	return f.results, f.rejected, f.err
}

func (f *fakeRunner) RecheckAndWait(ctx context.Context, ids []int64) ([]domain.CheckResult, error) {
	f.ids = ids
	return f.results, f.err
}

type fakeRepo struct {
	domain.Repository
	rows []domain.CheckResult
}

func (r *fakeRepo) Query(ctx context.Context, f domain.Filter) ([]domain.CheckResult, error) {
	var out []domain.CheckResult
	for _, row := range r.rows {
		if f.Status == "" || row.Status == f.Status {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAvailable(ctx context.Context) ([]domain.CheckResult, error) {
	return r.Query(ctx, domain.Filter{Status: domain.StatusAvailable})
}

type fakeWhois struct{ info tools.WhoisInfo }

func (f fakeWhois) Query(ctx context.Context, name string) (tools.WhoisInfo, error) {
	return f.info, nil
}

func newHandler(runner CheckRunner, repo domain.Repository) (*CommandHandler, *fakeSender) {
	sender := &fakeSender{}
	h := NewCommandHandler(runner, repo, fakeWhois{info: tools.WhoisInfo{Domain: "example.com", Source: "rdap", Expiry: "2030-01-01", Registrar: "Example"}}, sender, 42)
	return h, sender
}

func TestSplitTelegramText(t *testing.T) {
	text := strings.Repeat("line of text\n", 50)
	parts := splitTelegramText(text, 100)
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	for _, p := range parts {
		if len(p) > 100 {
			t.Fatalf("part longer than limit: %d", len(p))
		}
	}
	if got := splitTelegramText("  short  ", 100); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected split %q", got)
	}
	if got := splitTelegramText(strings.Repeat("x", 250), 100); len(got) != 3 {
		t.Fatalf("hard cut expected 3 parts, got %d", len(got))
	}
}

func TestFormatOperator(t *testing.T) {
	cases := []struct {
		user *tgbotapi.User
		want string
	}{
		{nil, "unknown"},
		{&tgbotapi.User{ID: 1, UserName: "alice", FirstName: "Alice"}, "@alice"},
		{&tgbotapi.User{ID: 2, FirstName: "Li", LastName: "Lei"}, "Li Lei"},
		{&tgbotapi.User{ID: 3}, "id:3"},
	}
	for _, tc := range cases {
		if got := FormatOperator(tc.user); got != tc.want {
			t.Fatalf("FormatOperator(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}

func TestParseCheckArgs(t *testing.T) {
	names, tlds := parseCheckArgs([]string{"foo", "bar,baz", ".io", "tld=com,.net"})
	if strings.Join(names, " ") != "foo bar baz" {
		t.Fatalf("names = %v", names)
	}
	if strings.Join(tlds, " ") != "io com net" {
		t.Fatalf("tlds = %v", tlds)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "22"})
	if err != nil || len(ids) != 2 || ids[1] != 22 {
		t.Fatalf("unexpected ids %v err=%v", ids, err)
	}
	if _, err := parseIDs([]string{"x"}); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestCheckCommandReportsSummary(t *testing.T) {
	runner := &fakeRunner{
		results: []domain.CheckResult{
			{ID: 1, Domain: "foo.io", Status: domain.StatusAvailable},
			{ID: 2, Domain: "bar.io", Status: domain.StatusTaken},
			{ID: 3, Domain: "baz.io", Status: domain.StatusError},
		},
		rejected: []string{"-x-"},
	}
	h, sender := newHandler(runner, nil)
	h.handleCheckCommand([]string{"foo", "bar", "baz", "-x-", ".io"}, "@alice")

	if strings.Join(runner.tlds, ",") != "io" {
		t.Fatalf("tlds not passed through: %v", runner.tlds)
	}
	out := sender.all()
	for _, want := range []string{"可注册 1，已注册 1，失败 1", "foo.io (#1)", "baz.io (#3)", "已忽略无效输入: -x-"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bar.io") {
		t.Fatalf("taken domains should only be counted")
	}
}

func TestCheckCommandUsage(t *testing.T) {
	h, sender := newHandler(&fakeRunner{}, nil)
	h.handleCheckCommand([]string{".com"}, "@alice")
	if !strings.Contains(sender.all(), "用法") {
		t.Fatalf("expected usage, got %s", sender.all())
	}
}

func TestCheckCommandError(t *testing.T) {
	h, sender := newHandler(&fakeRunner{err: errors.New("boom")}, nil)
	h.handleCheckCommand([]string{"foo"}, "@alice")
	if !strings.Contains(sender.all(), "检查失败: boom") {
		t.Fatalf("expected failure message, got %s", sender.all())
	}
}

func TestRecheckCommand(t *testing.T) {
	runner := &fakeRunner{results: []domain.CheckResult{{ID: 7, Domain: "foo.com", Status: domain.StatusAvailable}}}
	h, sender := newHandler(runner, nil)
	h.handleRecheckCommand([]string{"7"}, "@bob")
	if len(runner.ids) != 1 || runner.ids[0] != 7 {
		t.Fatalf("ids not passed: %v", runner.ids)
	}
	if !strings.Contains(sender.all(), "重新检查完成") {
		t.Fatalf("unexpected output %s", sender.all())
	}

	h.handleRecheckCommand([]string{"abc"}, "@bob")
	if !strings.Contains(sender.all(), "无效的 ID: abc") {
		t.Fatalf("expected invalid id message")
	}
}

func TestRecheckCallback(t *testing.T) {
	runner := &fakeRunner{results: []domain.CheckResult{{ID: 3, Domain: "foo.com", Status: domain.StatusTaken}}}
	h, sender := newHandler(runner, nil)
	h.HandleRecheckCallback(3, "@carol")
	if !strings.Contains(sender.all(), "foo.com 重新检查结果: 已注册") {
		t.Fatalf("unexpected output %s", sender.all())
	}
}

func TestAvailableCommand(t *testing.T) {
	repo := &fakeRepo{rows: []domain.CheckResult{
		{ID: 1, Domain: "a.com", Status: domain.StatusAvailable},
		{ID: 2, Domain: "b.com", Status: domain.StatusTaken},
	}}
	h, sender := newHandler(nil, repo)
	h.handleAvailableCommand()
	out := sender.all()
	if !strings.Contains(out, "共 1 个") || !strings.Contains(out, "a.com") || strings.Contains(out, "b.com") {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestCSVCommandSendsExport(t *testing.T) {
	repo := &fakeRepo{rows: []domain.CheckResult{
		{ID: 1, Domain: "a.com", Status: domain.StatusAvailable, CheckedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}}
	h, sender := newHandler(nil, repo)
	h.handleCSVCommand([]string{"available"})

	if len(sender.docs) != 1 {
		t.Fatalf("expected one document, got %d (%s)", len(sender.docs), sender.all())
	}
	if !strings.HasPrefix(sender.docs[0], "domain,status,registrar,expiry,checked_at\na.com,AVAILABLE,,,2026-01-02T03:04:05Z") {
		t.Fatalf("unexpected csv:\n%s", sender.docs[0])
	}

	h.handleCSVCommand([]string{"bogus"})
	if !strings.Contains(sender.all(), "用法: /csv") {
		t.Fatalf("expected usage for bad status")
	}
}

func TestWhoisCommand(t *testing.T) {
	h, sender := newHandler(nil, nil)
	h.handleWhoisCommand([]string{"Example.com"})
	out := sender.all()
	if !strings.Contains(out, "注册商: Example") || !strings.Contains(out, "到期日: 2030-01-01") {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestHandleMessageIgnoresOtherChats(t *testing.T) {
	h, sender := newHandler(&fakeRunner{}, nil)
	msg := &tgbotapi.Message{
		Text:     "/help",
		Chat:     &tgbotapi.Chat{ID: 99},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	}
	h.HandleMessage(msg)
	if len(sender.messages) != 0 {
		t.Fatalf("message from another chat should be ignored")
	}

	msg.Chat.ID = 42
	h.HandleMessage(msg)
	if !strings.Contains(sender.all(), "/check") {
		t.Fatalf("expected help text, got %s", sender.all())
	}
}
