package streak

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSegments(t *testing.T) {
	a := FromDays(
		days(t, "2024-06-01", "2024-06-02", "2024-06-08", "2024-06-10"),
		days(t, "2024-06-02", "2024-06-09"),
	)

	want := []Segment{
		{Start: mustDay(t, "2024-06-08"), End: mustDay(t, "2024-06-10"), Length: 3, ReadDays: 2, CheatDays: 1},
		{Start: mustDay(t, "2024-06-01"), End: mustDay(t, "2024-06-02"), Length: 2, ReadDays: 1, CheatDays: 1},
	}
	if diff := cmp.Diff(want, a.Segments()); diff != "" {
		t.Errorf("Segments() mismatch (-want +got):\n%s", diff)
	}

	if got := FromDays(nil, nil).Segments(); len(got) != 0 {
		t.Errorf("expected no segments, got %v", got)
	}
}

func TestWeek(t *testing.T) {
	a := FromDays(days(t, "2024-06-04", "2024-06-10"), days(t, "2024-06-07"))

	got := a.Week(refToday)
	want := []WeekDay{
		{Day: mustDay(t, "2024-06-04"), Active: true},
		{Day: mustDay(t, "2024-06-05")},
		{Day: mustDay(t, "2024-06-06")},
		{Day: mustDay(t, "2024-06-07"), Active: true, Cheat: true},
		{Day: mustDay(t, "2024-06-08")},
		{Day: mustDay(t, "2024-06-09")},
		{Day: mustDay(t, "2024-06-10"), Active: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Week() mismatch (-want +got):\n%s", diff)
	}
}

func TestHeatmap(t *testing.T) {
	a := FromDays(days(t, "2024-05-31", "2024-06-03", "2024-06-05"), days(t, "2024-06-05", "2024-06-20"))

	got := a.Heatmap(mustDay(t, "2024-06-01"), refToday)
	want := []HeatCell{
		{Day: mustDay(t, "2024-06-03"), Weight: 1},
		{Day: mustDay(t, "2024-06-05"), Weight: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Heatmap() mismatch (-want +got):\n%s", diff)
	}
}

func TestMonth(t *testing.T) {
	a := FromDays(days(t, "2024-02-27"), days(t, "2024-02-28"))
	today := mustDay(t, "2024-02-28")

	got := a.Month(2024, time.February, today)
	if diff := cmp.Diff(29, len(got)); diff != "" {
		t.Fatalf("days in month mismatch (-want +got):\n%s", diff)
	}

	counts := map[Status]int{}
	for _, ds := range got {
		counts[ds.Status]++
	}
	want := map[Status]int{
		StatusMissed: 26,
		StatusRead:   1,
		StatusCheat:  1,
		StatusNone:   1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("status counts mismatch (-want +got):\n%s", diff)
	}
}
