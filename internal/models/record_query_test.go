package models

import "testing"

func TestRecordQuery_Normalize(t *testing.T) {
	cases := []struct {
		name      string
		in        RecordQuery
		wantPage  int
		wantLimit int
	}{
		{"zero_values", RecordQuery{}, 1, DefaultLimit},
		{"negative_page", RecordQuery{Page: -4, Limit: 10}, 1, 10},
		{"limit_above_max", RecordQuery{Page: 2, Limit: 500}, 2, MaxLimit},
		{"limit_at_max", RecordQuery{Page: 3, Limit: MaxLimit}, 3, MaxLimit},
		{"negative_limit", RecordQuery{Page: 1, Limit: -1}, 1, DefaultLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("Normalize(%+v) = page %d limit %d, want page %d limit %d",
					tc.in, got.Page, got.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestRecordQuery_NormalizeKeepsFilters(t *testing.T) {
	in := RecordQuery{FridgeID: "3", InstrumentName: "one", ParameterName: "flux"}
	got := in.Normalize()
	if got.FridgeID != "3" || got.InstrumentName != "one" || got.ParameterName != "flux" {
		t.Fatalf("filters changed: %+v", got)
	}
}

func TestRecordQuery_Offset(t *testing.T) {
	q := RecordQuery{Page: 3, Limit: 20}
	if got := q.Offset(); got != 40 {
		t.Fatalf("Offset() = %d, want 40", got)
	}
	if got := (RecordQuery{}).Normalize().Offset(); got != 0 {
		t.Fatalf("first page offset = %d, want 0", got)
	}
}
