package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"streaker/internal/model"
	"streaker/internal/storage"
	"streaker/internal/streak"
)

type recorder struct {
	mu    sync.Mutex
	snaps []model.Snapshot
}

func (r *recorder) record(s model.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Snapshot(nil), r.snaps...)
}

var clock = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	h := NewHub(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.SetClock(func() time.Time { return clock })
	return h
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)

	var rec recorder
	unsubscribe, err := h.Subscribe(ctx, 1, rec.record)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if diff := cmp.Diff(1, len(rec.all())); diff != "" {
		t.Fatalf("initial delivery (-want +got):\n%s", diff)
	}

	if _, err := h.MarkRead(ctx, 1, "Alma-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	day := streak.DayOf(clock, time.UTC)
	if _, err := h.SetCheatDay(ctx, 1, day.AddDays(-1), true); err != nil {
		t.Fatalf("set cheat: %v", err)
	}
	// Another user's change is not delivered here.
	if _, err := h.MarkRead(ctx, 2, "Alma-1"); err != nil {
		t.Fatalf("mark read user 2: %v", err)
	}

	snaps := rec.all()
	if diff := cmp.Diff(3, len(snaps)); diff != "" {
		t.Fatalf("delivery count (-want +got):\n%s", diff)
	}
	want := model.Snapshot{
		UserID: 1,
		Reads:  map[string]time.Time{"Alma-1": clock},
		Cheats: map[streak.Day]time.Time{day.AddDays(-1): clock},
	}
	if diff := cmp.Diff(want, snaps[2]); diff != "" {
		t.Errorf("latest snapshot mismatch (-want +got):\n%s", diff)
	}

	unsubscribe()
	unsubscribe()
	if _, err := h.MarkRead(ctx, 1, "Alma-2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if diff := cmp.Diff(3, len(rec.all())); diff != "" {
		t.Errorf("delivered after unsubscribe (-want +got):\n%s", diff)
	}
}

func TestNoOpChangesAreNotPublished(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)

	var rec recorder
	if _, err := h.Subscribe(ctx, 1, rec.record); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	day := streak.DayOf(clock, time.UTC)
	if _, err := h.SetCheatDay(ctx, 1, day, true); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if _, err := h.SetCheatDay(ctx, 1, day, true); err != nil {
		t.Fatalf("declare again: %v", err)
	}
	if _, removed, err := h.UnmarkRead(ctx, 1, "Alma-9"); err != nil || removed {
		t.Fatalf("unmark missing: removed=%v err=%v", removed, err)
	}

	if diff := cmp.Diff(2, len(rec.all())); diff != "" {
		t.Errorf("delivery count (-want +got):\n%s", diff)
	}
}

func TestToggleCheatDay(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	day := streak.DayOf(clock, time.UTC)

	snap, on, err := h.ToggleCheatDay(ctx, 1, day)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !on || len(snap.Cheats) != 1 {
		t.Fatalf("expected cheat day declared, on=%v cheats=%v", on, snap.Cheats)
	}

	snap, on, err = h.ToggleCheatDay(ctx, 1, day)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if on || len(snap.Cheats) != 0 {
		t.Fatalf("expected cheat day withdrawn, on=%v cheats=%v", on, snap.Cheats)
	}
}

func TestListenerSeesAllUsers(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)

	var mu sync.Mutex
	var users []int64
	stop := h.Listen(func(_ context.Context, s model.Snapshot) {
		mu.Lock()
		users = append(users, s.UserID)
		mu.Unlock()
	})

	for _, id := range []int64{1, 2} {
		if _, err := h.MarkRead(ctx, id, "Enos-1"); err != nil {
			t.Fatalf("mark read: %v", err)
		}
	}
	stop()
	if _, err := h.MarkRead(ctx, 3, "Enos-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]int64{1, 2}, users); diff != "" {
		t.Errorf("listener users mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentTogglesStayConsistent(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)

	var rec recorder
	if _, err := h.Subscribe(ctx, 1, rec.record); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := h.MarkRead(ctx, 1, "Alma-"+string(rune('A'+i))); err != nil {
				t.Errorf("mark read: %v", err)
			}
		}(i)
	}
	wg.Wait()

	snaps := rec.all()
	for i := 1; i < len(snaps); i++ {
		if len(snaps[i].Reads) < len(snaps[i-1].Reads) {
			t.Fatalf("snapshot %d went backwards: %d < %d", i, len(snaps[i].Reads), len(snaps[i-1].Reads))
		}
	}
	if diff := cmp.Diff(10, len(snaps[len(snaps)-1].Reads)); diff != "" {
		t.Errorf("final read count (-want +got):\n%s", diff)
	}
}

type failingStore struct{ Store }

func (failingStore) LoadSnapshot(context.Context, int64) (model.Snapshot, error) {
	return model.Snapshot{}, errors.New("database is locked")
}

func TestLoadErrorsAreSurfaced(t *testing.T) {
	h := NewHub(failingStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := h.Subscribe(context.Background(), 1, func(model.Snapshot) {}); err == nil {
		t.Fatal("expected subscribe to fail")
	}
	if _, err := h.Snapshot(context.Background(), 1); err == nil {
		t.Fatal("expected snapshot to fail")
	}
}
