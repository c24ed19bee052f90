package ranking

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/hyperjump/radar/internal/models"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2025-01-01T10:00:00Z", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), true},
		{"2025-01-01T10:00:00.123Z", time.Date(2025, 1, 1, 10, 0, 0, 123000000, time.UTC), true},
		{"2025-01-01 10:00:00", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), true},
		{"Jan 2, 2025", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"1735689600", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"1735689600000", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"last tuesday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemTime_undatedIsEpoch(t *testing.T) {
	if got := ItemTime(models.SearchResultItem{}); got.Unix() != 0 {
		t.Errorf("got %v", got)
	}
	if got := ItemTime(models.SearchResultItem{Date: "garbage"}); got.Unix() != 0 {
		t.Errorf("got %v", got)
	}
}

func TestFilterRecent(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	items := []models.SearchResultItem{
		{URL: "old", Date: "2024-01-01"},
		{URL: "new", Date: "2025-01-01"},
		{URL: "undated"},
		{URL: "unparseable", Date: "yesterday-ish"},
	}
	got := FilterRecent(items, 3, now)
	var urls []string
	for _, it := range got {
		urls = append(urls, it.URL)
	}
	want := []string{"new", "undated", "unparseable"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("got %v, want %v", urls, want)
	}

	again := FilterRecent(got, 3, now)
	if !reflect.DeepEqual(again, got) {
		t.Error("filter should be idempotent")
	}
}

func TestFilterRecent_threeMonthWindow(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	items := []models.SearchResultItem{
		{URL: "a", Date: "2024-01-01"},
		{URL: "b", Date: "2025-01-01"},
	}
	got := FilterRecent(items, 3, now)
	if len(got) != 1 || got[0].URL != "b" {
		t.Errorf("got %+v", got)
	}
}

func TestWithinDays(t *testing.T) {
	now := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	items := []models.SearchResultItem{
		{URL: "a", Date: "2025-02-09"},
		{URL: "b", Date: "2025-01-01"},
		{URL: "c"},
	}
	got := WithinDays(items, 7, now)
	if len(got) != 1 || got[0].URL != "a" {
		t.Errorf("got %+v", got)
	}
}

func TestDeduplicate(t *testing.T) {
	items := []models.SearchResultItem{
		{URL: "https://x.com/1", Title: "first"},
		{URL: "https://x.com/1", Title: "second"},
		{URL: "", Title: "no url"},
		{URL: "https://x.com/2", Title: "other"},
	}
	got := Deduplicate(items)
	if len(got) != 2 {
		t.Fatalf("got %d items", len(got))
	}
	if got[0].Title != "first" || got[1].Title != "other" {
		t.Errorf("unexpected order or winner: %+v", got)
	}
}

func TestDeduplicate_uniqueURLsProperty(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		var items []models.SearchResultItem
		for i := 0; i < 30; i++ {
			items = append(items, models.SearchResultItem{URL: "u" + strconv.Itoa(r.Intn(10))})
		}
		seen := map[string]bool{}
		for _, it := range Deduplicate(items) {
			if seen[it.URL] {
				t.Fatalf("duplicate url %q survived", it.URL)
			}
			seen[it.URL] = true
		}
	}
}

func TestMarkDuplicates(t *testing.T) {
	items := []models.SearchResultItem{
		{URL: "a", Title: "A1"},
		{URL: "b", Title: "B"},
		{URL: "a", Title: DuplicateMarker + "A2"},
	}
	got, dupURLs := MarkDuplicates(items)
	if dupURLs != 1 {
		t.Errorf("dupURLs = %d", dupURLs)
	}
	if !got[0].Duplicate || got[0].Title != DuplicateMarker+"A1" {
		t.Errorf("first: %+v", got[0])
	}
	if got[1].Duplicate || got[1].Title != "B" {
		t.Errorf("second: %+v", got[1])
	}
	if got[2].Title != DuplicateMarker+"A2" {
		t.Errorf("marker should not be doubled: %q", got[2].Title)
	}
	if items[0].Title != "A1" {
		t.Error("input should not be mutated")
	}

	collapsed := Deduplicate(got)
	if len(collapsed) != 2 || collapsed[0].Title != DuplicateMarker+"A1" {
		t.Errorf("collapse should keep first occurrence: %+v", collapsed)
	}
}

func TestSortByRecency(t *testing.T) {
	items := []models.SearchResultItem{
		{URL: "undated1"},
		{URL: "old", Date: "2024-01-01"},
		{URL: "new", Date: "2025-01-01T00:00:00Z"},
		{URL: "undated2", Date: "n/a"},
		{URL: "mid", Date: "2024-06-01"},
	}
	got := SortByRecency(items)
	var urls []string
	for _, it := range got {
		urls = append(urls, it.URL)
	}
	want := []string{"new", "mid", "old", "undated1", "undated2"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("got %v, want %v", urls, want)
	}
	if items[0].URL != "undated1" {
		t.Error("input should not be reordered")
	}
}

func TestSortByRecency_property(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var items []models.SearchResultItem
	for i := 0; i < 100; i++ {
		it := models.SearchResultItem{URL: strconv.Itoa(i)}
		if r.Intn(4) != 0 {
			it.Date = base.AddDate(0, 0, r.Intn(400)).Format("2006-01-02")
		}
		items = append(items, it)
	}
	got := SortByRecency(items)
	seenUndated := false
	for i := 1; i < len(got); i++ {
		if ItemTime(got[i]).After(ItemTime(got[i-1])) {
			t.Fatalf("not sorted at %d", i)
		}
	}
	for _, it := range got {
		if it.Date == "" {
			seenUndated = true
		} else if seenUndated {
			t.Fatal("dated item after an undated one")
		}
	}
}

func TestSortByRecency_undatedAfterPre1970(t *testing.T) {
	items := []models.SearchResultItem{
		{URL: "u1"},
		{URL: "d1965", Date: "1965-01-01"},
		{URL: "u2", Date: "garbage"},
		{URL: "d2024", Date: "2024-03-01"},
	}
	got := SortByRecency(items)
	var order []string
	for _, it := range got {
		order = append(order, it.URL)
	}
	want := []string{"d2024", "d1965", "u1", "u2"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestNewest(t *testing.T) {
	items := make([]models.SearchResultItem, 5)
	if got := Newest(items, 3); len(got) != 3 {
		t.Errorf("got %d", len(got))
	}
	if got := Newest(items, 10); len(got) != 5 {
		t.Errorf("got %d", len(got))
	}
}
