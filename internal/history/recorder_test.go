package history

import (
	"path/filepath"
	"testing"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/store"
)

func newTestRecorder(t *testing.T, limit int) *Recorder {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tubevault.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewRecorder(s, limit, nil)
}

func TestRecordAlwaysAppends(t *testing.T) {
	r := newTestRecorder(t, 0)

	item := domain.MediaItem{ID: "a1", Title: "Same Song"}
	for i := 1; i <= 3; i++ {
		if _, err := r.Record(item); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		entries, err := r.ListRecent()
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(entries) != i {
			t.Fatalf("after %d records len = %d, want %d", i, len(entries), i)
		}
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	r := newTestRecorder(t, 0)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := r.Record(domain.MediaItem{ID: id}); err != nil {
			t.Fatalf("Record(%q) error = %v", id, err)
		}
	}

	entries, err := r.ListRecent()
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	for i, want := range []string{"c", "b", "a"} {
		if entries[i].ID != want {
			t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].ID, want)
		}
	}
}

func TestListRecentHonorsLimit(t *testing.T) {
	r := newTestRecorder(t, 2)

	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := r.Record(domain.MediaItem{ID: id}); err != nil {
			t.Fatalf("Record(%q) error = %v", id, err)
		}
	}

	entries, err := r.ListRecent()
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want limit 2", len(entries))
	}
	if entries[0].ID != "d" || entries[1].ID != "c" {
		t.Errorf("entries = [%s %s], want [d c]", entries[0].ID, entries[1].ID)
	}
}
