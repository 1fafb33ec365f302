package search

import (
	"testing"

	"github.com/tubevault/tubevault/internal/domain"
)

func sampleItems() []domain.MediaItem {
	return []domain.MediaItem{
		{ID: "1", Title: "Morning Coffee Jazz", Channel: "Jazz Cafe"},
		{ID: "2", Title: "Deep Focus Beats", Channel: "Study Hub"},
		{ID: "3", Title: "Classical Morning", Channel: "Orchestra Live"},
	}
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	items := sampleItems()

	for _, query := range []string{"", "   "} {
		got := Filter(items, query)
		if len(got) != len(items) {
			t.Errorf("Filter(%q) len = %d, want %d", query, len(got), len(items))
		}
	}
}

func TestFilterMatchesTitle(t *testing.T) {
	got := Filter(sampleItems(), "coffee")

	if len(got) == 0 {
		t.Fatal("Filter() returned nothing, want a match on title")
	}
	if got[0].ID != "1" {
		t.Errorf("best match ID = %q, want 1", got[0].ID)
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	got := Filter(sampleItems(), "MORNING")

	if len(got) != 2 {
		t.Fatalf("Filter() len = %d, want 2 morning matches", len(got))
	}
	for _, item := range got {
		if item.ID != "1" && item.ID != "3" {
			t.Errorf("unexpected match %q", item.Title)
		}
	}
}

func TestFilterSubsequenceMatch(t *testing.T) {
	got := Filter(sampleItems(), "dfb")

	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("Filter(dfb) = %v, want only Deep Focus Beats", got)
	}
}

func TestFilterNoMatch(t *testing.T) {
	got := Filter(sampleItems(), "zzzzqqqq")

	if len(got) != 0 {
		t.Errorf("Filter() len = %d, want 0", len(got))
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter(nil, "anything")

	if len(got) != 0 {
		t.Errorf("Filter(nil) len = %d, want 0", len(got))
	}
}
