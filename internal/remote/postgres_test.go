package remote

import (
	"reflect"
	"strings"
	"testing"

	"salat-go/internal/salat"
)

func TestSelectQuery(t *testing.T) {
	tests := []struct {
		name     string
		from, to salat.Date
		wantSQL  []string
		wantArgs []any
	}{
		{
			name:     "unbounded",
			wantSQL:  []string{"WHERE user_id = $1\nORDER BY"},
			wantArgs: []any{"u1"},
		},
		{
			name:     "both bounds",
			from:     salat.MustParseDate("2026-02-01"),
			to:       salat.MustParseDate("2026-02-28"),
			wantSQL:  []string{"date >= $2", "date <= $3"},
			wantArgs: []any{"u1", "2026-02-01", "2026-02-28"},
		},
		{
			name:     "upper bound only",
			to:       salat.MustParseDate("2026-02-28"),
			wantSQL:  []string{"date <= $2"},
			wantArgs: []any{"u1", "2026-02-28"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := selectQuery("u1", tt.from, tt.to)
			for _, frag := range tt.wantSQL {
				if !strings.Contains(query, frag) {
					t.Errorf("query missing %q:\n%s", frag, query)
				}
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestTrackingRow(t *testing.T) {
	want := rec("2026-02-24", salat.Fajr, salat.Maghrib, salat.Taraweeh)
	row := rowFromRecord("u1", want)
	if row.UserID != "u1" || row.Date != "2026-02-24" {
		t.Fatalf("rowFromRecord() = %+v", row)
	}
	got, err := row.record()
	if err != nil || got != want {
		t.Errorf("record() = %+v, %v, want %+v", got, err, want)
	}

	row.Date = "2026-02-24T00:00:00Z"
	if got, err := row.record(); err != nil || got.Date != want.Date {
		t.Errorf("record() with timestamp date = %+v, %v", got, err)
	}

	row.Date = "garbage"
	if _, err := row.record(); err == nil {
		t.Error("record() error = nil for bad date")
	}
}
