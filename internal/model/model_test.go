package model

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotLastRead(t *testing.T) {
	base := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		reads  map[string]time.Time
		want   string
		wantOK bool
	}{
		{name: "empty", reads: nil, wantOK: false},
		{
			name: "latest wins",
			reads: map[string]time.Time{
				"Alma-1": base,
				"Alma-2": base.Add(time.Hour),
				"Alma-3": base.Add(-time.Hour),
			},
			want:   "Alma-2",
			wantOK: true,
		},
		{
			name:   "tie broken by id",
			reads:  map[string]time.Time{"Alma-1": base, "Alma-2": base},
			want:   "Alma-2",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Snapshot{UserID: 1, Reads: tt.reads}.LastRead()
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Fatalf("ok mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got.ChapterID); diff != "" {
				t.Errorf("LastRead mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUserLocation(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want string
	}{
		{name: "unset uses default", tz: "", want: "UTC"},
		{name: "valid zone", tz: "America/Denver", want: "America/Denver"},
		{name: "unknown zone uses default", tz: "Mars/Olympus", want: "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Timezone: tt.tz}
			if diff := cmp.Diff(tt.want, u.Location(time.UTC).String()); diff != "" {
				t.Errorf("Location mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if diff := cmp.Diff("user42", (&User{ID: 42}).DisplayName()); diff != "" {
		t.Errorf("DisplayName mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Nephi", (&User{ID: 42, Name: "Nephi"}).DisplayName()); diff != "" {
		t.Errorf("DisplayName mismatch (-want +got):\n%s", diff)
	}
}
