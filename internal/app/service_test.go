package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"DomainChecker/domain"
	"DomainChecker/stats"
)

func newService(sess *fakeSession, repo *fakeRepo, limit int) (*CheckService, *stats.MemoryStore) {
	runner, _ := newRunner(sess, limit)
	st := stats.NewMemoryStore(10)
	return &CheckService{Runner: runner, Repo: repo, Stats: st}, st
}

func TestCheckPersistsBeforePublishing(t *testing.T) {
	sess := newFakeSession(map[string]reply{"taken.com": {status: 200, body: takenBody}})
	repo := newFakeRepo()
	svc, _ := newService(sess, repo, 3)

	run, err := svc.Check(context.Background(), []string{"taken", "free"}, []string{"com", "net"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if run.Total() != 4 {
		t.Fatalf("expected 4 items, got %d", run.Total())
	}

	n := 0
	for res := range run.Results() {
		n++
		stored, ok := repo.get(res.Domain)
		if !ok {
			t.Fatalf("%s published before it was stored", res.Domain)
		}
		if !res.Persisted || res.ID == 0 || res.ID != stored.ID {
			t.Fatalf("published id %d does not match stored id %d", res.ID, stored.ID)
		}
		if stored.Status != res.Status {
			t.Fatalf("stored status %s, published %s", stored.Status, res.Status)
		}
	}
	if n != 4 {
		t.Fatalf("expected 4 results, got %d", n)
	}
	row, _ := repo.get("taken.com")
	if row.Status != domain.StatusTaken || row.Registrar == nil {
		t.Fatalf("unexpected row for taken.com: %+v", row)
	}
}

func TestRecheckKeepsSingleRow(t *testing.T) {
	sess := newFakeSession(nil)
	repo := newFakeRepo()
	svc, _ := newService(sess, repo, 2)

	first := mustWait(t, svc, []string{"example"}, nil)
	if len(first) != 1 || first[0].Status != domain.StatusAvailable {
		t.Fatalf("unexpected first result %+v", first)
	}

	sess.mu.Lock()
	sess.replies["example.com"] = reply{status: 200, body: takenBody}
	sess.mu.Unlock()

	results, err := svc.RecheckAndWait(context.Background(), []int64{first[0].ID})
	if err != nil {
		t.Fatalf("RecheckAndWait returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != first[0].ID {
		t.Fatalf("recheck should update the same row, got %+v", results)
	}
	if repo.count() != 1 {
		t.Fatalf("expected 1 row, got %d", repo.count())
	}
	row, _ := repo.get("example.com")
	if row.Status != domain.StatusTaken {
		t.Fatalf("expected TAKEN after recheck, got %s", row.Status)
	}
}

func TestRecheckWithoutIDsUsesAvailable(t *testing.T) {
	sess := newFakeSession(map[string]reply{"taken.com": {status: 200, body: takenBody}})
	repo := newFakeRepo()
	svc, _ := newService(sess, repo, 2)
	mustWait(t, svc, []string{"taken", "free", "open"}, nil)

	run, err := svc.Recheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recheck returned error: %v", err)
	}
	if run.Total() != 2 {
		t.Fatalf("expected the 2 available domains, got %d", run.Total())
	}
	run.Wait()
	if run.Kind != KindRecheck {
		t.Fatalf("kind = %s", run.Kind)
	}
}

func TestRecheckNothingToDo(t *testing.T) {
	svc, _ := newService(newFakeSession(nil), newFakeRepo(), 2)
	run, err := svc.Recheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recheck returned error: %v", err)
	}
	if run.Total() != 0 || len(run.Wait()) != 0 {
		t.Fatalf("expected empty run")
	}
}

func TestCheckReportsRejectedEntries(t *testing.T) {
	svc, _ := newService(newFakeSession(nil), newFakeRepo(), 2)
	results, rejected, err := svc.CheckAndWait(context.Background(), []string{"good", "-bad-"}, []string{"com"})
	if err != nil {
		t.Fatalf("CheckAndWait returned error: %v", err)
	}
	if len(results) != 1 || results[0].Domain != "good.com" {
		t.Fatalf("unexpected results %+v", results)
	}
	if len(rejected) == 0 {
		t.Fatalf("expected rejected entries to be reported")
	}
}

func TestCancelKeepsStoredRowsOfAbortedItems(t *testing.T) {
	slow := reply{status: 200, body: takenBody, delay: 50 * time.Millisecond}
	sess := newFakeSession(map[string]reply{"a.com": slow, "b.com": slow})
	repo := newFakeRepo()
	for _, it := range items("a.com", "b.com") {
		if _, err := repo.Upsert(context.Background(), domain.CheckResult{
			Domain: it.FullDomain, BaseName: it.BaseName, TLD: it.TLD, Status: domain.StatusAvailable,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc, _ := newService(sess, repo, 1)

	ctx, cancel := context.WithCancel(context.Background())
	run, err := svc.Start(ctx, KindRecheck, items("a.com", "b.com"))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	first := <-sess.started
	cancel()

	results := run.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		stored, ok := repo.get(r.Domain)
		if !ok {
			t.Fatalf("%s: row disappeared", r.Domain)
		}
		if r.Domain == first {
			if r.Status != domain.StatusTaken || stored.Status != domain.StatusTaken {
				t.Fatalf("%s: in-flight lookup should finish and be stored, got %s / %s", r.Domain, r.Status, stored.Status)
			}
			continue
		}
		if !errors.Is(r.Err, ErrBatchAborted) {
			t.Fatalf("%s: expected aborted result, got %s %v", r.Domain, r.Status, r.Err)
		}
		if stored.Status != domain.StatusAvailable {
			t.Fatalf("%s: aborted item overwrote stored row with %s", r.Domain, stored.Status)
		}
	}
}

func TestUpsertFailureStillPublishes(t *testing.T) {
	repo := newFakeRepo()
	repo.fail = errors.New("disk full")
	svc, _ := newService(newFakeSession(nil), repo, 2)

	results := mustWait(t, svc, []string{"one", "two"}, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.ID != 0 || r.Persisted {
			t.Fatalf("unstored result should have no id and persisted=false: %+v", r)
		}
	}
}

func TestRunRecordsSummary(t *testing.T) {
	sess := newFakeSession(map[string]reply{
		"taken.com": {status: 200, body: takenBody},
		"bad.com":   {status: 503},
	})
	svc, st := newService(sess, newFakeRepo(), 2)
	run, err := svc.Check(context.Background(), []string{"taken", "bad", "free"}, nil)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	run.Wait()
	select {
	case <-run.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("run not done")
	}

	recent, _ := st.Recent(context.Background(), 1)
	if len(recent) != 1 {
		t.Fatalf("expected one summary, got %d", len(recent))
	}
	s := recent[0]
	if s.ID != run.ID || s.Total != 3 || s.Available != 1 || s.Taken != 1 || s.Error != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestStartWithoutDependencies(t *testing.T) {
	svc := &CheckService{}
	if _, err := svc.Start(context.Background(), KindCheck, nil); !errors.Is(err, ErrMissingDependencies) {
		t.Fatalf("expected ErrMissingDependencies, got %v", err)
	}
}

func mustWait(t *testing.T, s *CheckService, names, tlds []string) []domain.CheckResult {
	t.Helper()
	results, _, err := s.CheckAndWait(context.Background(), names, tlds)
	if err != nil {
		t.Fatalf("CheckAndWait returned error: %v", err)
	}
	return results
}
