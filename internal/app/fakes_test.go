package app

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"DomainChecker/domain"
	"DomainChecker/rdapclient"
	"DomainChecker/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const takenBody = `{
  "objectClassName": "domain",
  "ldhName": "TAKEN.COM",
  "entities": [
    {
      "objectClassName": "entity",
      "roles": ["registrar"],
      "vcardArray": ["vcard", [["version", {}, "text", "4.0"], ["fn", {}, "text", "Example Registrar"]]]
    }
  ],
  "events": [{"eventAction": "expiration", "eventDate": "2027-05-01T00:00:00Z"}]
}`

type reply struct {
	status int
	body   string
	err    error
	delay  time.Duration
	// block 为 true 时一直等到 ctx 结束
	block bool
}

// fakeSession 按 URL 最后一段（域名）返回预设结果，默认 404。
type fakeSession struct {
	mu          sync.Mutex
	replies     map[string]reply
	calls       []string
	inFlight    int
	maxInFlight int
	closed      bool
	started     chan string
}

func newFakeSession(replies map[string]reply) *fakeSession {
	if replies == nil {
		replies = map[string]reply{}
	}
	return &fakeSession{replies: replies, started: make(chan string, 256)}
}

func (s *fakeSession) Fetch(ctx context.Context, rawURL string) (*rdapclient.Response, error) {
	name := path.Base(rawURL)
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	r, ok := s.replies[name]
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()
	s.started <- name

	if !ok {
		r = reply{status: 404, delay: 5 * time.Millisecond}
	}
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &rdapclient.Response{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

type fakeTransport struct {
	sess  *fakeSession
	opens int
}

func (t *fakeTransport) Open() rdapclient.Session {
	t.opens++
	return t.sess
}

func newRunner(sess *fakeSession, concurrency int) (*BatchRunner, *fakeTransport) {
	tr := &fakeTransport{sess: sess}
	return NewBatchRunner(NewChecker("https://rdap.test/domain/", time.Second), tr, concurrency), tr
}

func items(domains ...string) []domain.WorkItem {
	out := make([]domain.WorkItem, 0, len(domains))
	for _, d := range domains {
		i := strings.Index(d, ".")
		out = append(out, domain.WorkItem{FullDomain: d, BaseName: d[:i], TLD: d[i+1:]})
	}
	return out
}

// fakeRepo 以域名为唯一键的内存实现。
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]domain.CheckResult
	fail   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]domain.CheckResult{}}
}

func (r *fakeRepo) Upsert(ctx context.Context, res domain.CheckResult) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return 0, r.fail
	}
	if old, ok := r.rows[res.Domain]; ok {
		res.ID = old.ID
	} else {
		r.nextID++
		res.ID = r.nextID
	}
	res.Err = nil
	r.rows[res.Domain] = res
	return res.ID, nil
}

func (r *fakeRepo) Query(ctx context.Context, f domain.Filter) ([]domain.CheckResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CheckResult
	for _, row := range r.rows {
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (domain.CheckResult, error) {
	rows, _ := r.GetByIDs(ctx, []int64{id})
	if len(rows) == 0 {
		return domain.CheckResult{}, domain.ErrNotFound
	}
	return rows[0], nil
}

func (r *fakeRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.CheckResult, error) {
	all, _ := r.Query(ctx, domain.Filter{})
	var out []domain.CheckResult
	for _, row := range all {
		for _, id := range ids {
			if row.ID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAvailable(ctx context.Context) ([]domain.CheckResult, error) {
	return r.Query(ctx, domain.Filter{Status: domain.StatusAvailable})
}

func (r *fakeRepo) Delete(ctx context.Context, ids ...int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for name, row := range r.rows {
		for _, id := range ids {
			if row.ID == id {
				delete(r.rows, name)
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeRepo) get(name string) (domain.CheckResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[name]
	return row, ok
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	buttons  []string
}

func (f *fakeSender) Send(ctx context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSender) SendWithButtons(ctx context.Context, msg string, buttons [][]telegram.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	for _, row := range buttons {
		for _, b := range row {
			f.buttons = append(f.buttons, b.CallbackData)
		}
	}
	return nil
}

func (f *fakeSender) SendDocumentPath(ctx context.Context, filepath string, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, "DOC:"+filepath+"|"+caption)
	return nil
}

func (f *fakeSender) StartListener(ctx context.Context, handleCallback func(cb *tgbotapi.CallbackQuery), handleMessage func(msg *tgbotapi.Message)) error {
	<-ctx.Done()
	return nil
}

var errConnRefused = errors.New("connection refused")
