package store

import "testing"

func TestPlanDrainPartial(t *testing.T) {
	tests := []struct {
		name string
		open []debtView
		qty  int
		want []application
	}{
		{
			name: "single record fully settled",
			open: []debtView{{id: 1, owed: 2, returned: 0, status: "PENDING"}},
			qty:  2,
			want: []application{
				{id: 1, applied: 2, newReturned: 2, prevStatus: "PENDING", newStatus: "FULLY_RETURNED", closed: true},
			},
		},
		{
			name: "single record partially settled",
			open: []debtView{{id: 1, owed: 4, returned: 0, status: "PENDING"}},
			qty:  1,
			want: []application{
				{id: 1, applied: 1, newReturned: 1, prevStatus: "PENDING", newStatus: "PARTIALLY_RETURNED"},
			},
		},
		{
			name: "oldest drained first, second partial",
			open: []debtView{
				{id: 1, owed: 2, returned: 0, status: "PENDING"},
				{id: 2, owed: 4, returned: 0, status: "PENDING"},
			},
			qty: 3,
			want: []application{
				{id: 1, applied: 2, newReturned: 2, prevStatus: "PENDING", newStatus: "FULLY_RETURNED", closed: true},
				{id: 2, applied: 1, newReturned: 1, prevStatus: "PENDING", newStatus: "PARTIALLY_RETURNED"},
			},
		},
		{
			name: "previously partial record continues",
			open: []debtView{{id: 1, owed: 5, returned: 3, status: "PARTIALLY_RETURNED"}},
			qty:  2,
			want: []application{
				{id: 1, applied: 2, newReturned: 5, prevStatus: "PARTIALLY_RETURNED", newStatus: "FULLY_RETURNED", closed: true},
			},
		},
		{
			name: "surplus beyond debts is discarded",
			open: []debtView{{id: 1, owed: 2, returned: 0, status: "PENDING"}},
			qty:  10,
			want: []application{
				{id: 1, applied: 2, newReturned: 2, prevStatus: "PENDING", newStatus: "FULLY_RETURNED", closed: true},
			},
		},
		{
			name: "no open debts",
			open: nil,
			qty:  5,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planDrain(tt.open, tt.qty, false, "FULLY_RETURNED", "PARTIALLY_RETURNED")
			assertPlan(t, got, tt.want)
		})
	}
}

func TestPlanDrainAtomic(t *testing.T) {
	tests := []struct {
		name string
		open []debtView
		qty  int
		want []application
	}{
		{
			name: "exact quantity closes the debt",
			open: []debtView{{id: 1, owed: 2, returned: 0, status: "OWED"}},
			qty:  2,
			want: []application{
				{id: 1, applied: 2, newReturned: 2, prevStatus: "OWED", newStatus: "RETURNED", closed: true},
			},
		},
		{
			name: "insufficient quantity settles nothing",
			open: []debtView{{id: 1, owed: 3, returned: 0, status: "OWED"}},
			qty:  2,
			want: nil,
		},
		{
			name: "covers first debt but not the second",
			open: []debtView{
				{id: 1, owed: 1, returned: 0, status: "OWED"},
				{id: 2, owed: 3, returned: 0, status: "OWED"},
			},
			qty: 2,
			want: []application{
				{id: 1, applied: 1, newReturned: 1, prevStatus: "OWED", newStatus: "RETURNED", closed: true},
			},
		},
		{
			name: "covers both debts",
			open: []debtView{
				{id: 1, owed: 1, returned: 0, status: "OWED"},
				{id: 2, owed: 2, returned: 0, status: "OWED"},
			},
			qty: 3,
			want: []application{
				{id: 1, applied: 1, newReturned: 1, prevStatus: "OWED", newStatus: "RETURNED", closed: true},
				{id: 2, applied: 2, newReturned: 2, prevStatus: "OWED", newStatus: "RETURNED", closed: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planDrain(tt.open, tt.qty, true, "RETURNED", "")
			assertPlan(t, got, tt.want)
		})
	}
}

func TestPlanDrainConservation(t *testing.T) {
	// The total applied quantity never exceeds what was returned, and no
	// record is pushed past its owed quantity.
	open := []debtView{
		{id: 1, owed: 3, returned: 1, status: "PARTIALLY_RETURNED"},
		{id: 2, owed: 5, returned: 0, status: "PENDING"},
		{id: 3, owed: 2, returned: 0, status: "PENDING"},
	}

	for qty := 1; qty <= 12; qty++ {
		plan := planDrain(open, qty, false, "FULLY_RETURNED", "PARTIALLY_RETURNED")
		total := 0
		for _, app := range plan {
			total += app.applied
			for _, d := range open {
				if d.id == app.id && app.newReturned > d.owed {
					t.Errorf("qty=%d: record %d over-returned: %d > %d", qty, d.id, app.newReturned, d.owed)
				}
			}
		}
		if total > qty {
			t.Errorf("qty=%d: plan applies %d, more than returned", qty, total)
		}
	}
}

func assertPlan(t *testing.T, got, want []application) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d applications, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("application %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
