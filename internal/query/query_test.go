package query

import (
	"testing"
	"time"

	"github.com/mmeshcher/storefront-system/internal/model"
)

func strptr(s string) *string { return &s }

func testOrders() []model.Order {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []model.Order{
		{ID: "aaa-111", UserID: strptr("u1"), TotalCents: 2550, Status: model.OrderStatusPending, CreatedAt: base},
		{ID: "bbb-222", UserID: strptr("u2"), TotalCents: 1000, Status: model.OrderStatusShipped, CreatedAt: base.Add(time.Hour)},
		{ID: "ccc-333", UserID: nil, TotalCents: 2550, Status: model.OrderStatusPending, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func testNames() map[string]string {
	return map[string]string{
		"u1": "Alice Johnson",
		"u2": "Bob Smith",
	}
}

func TestFilter(t *testing.T) {
	orders := testOrders()
	names := testNames()

	tests := []struct {
		name    string
		search  string
		status  model.OrderStatus
		wantIDs []string
	}{
		{
			name:    "no filters returns everything",
			wantIDs: []string{"aaa-111", "bbb-222", "ccc-333"},
		},
		{
			name:    "search by order id",
			search:  "bbb",
			wantIDs: []string{"bbb-222"},
		},
		{
			name:    "search by customer name ignores case",
			search:  "alice",
			wantIDs: []string{"aaa-111"},
		},
		{
			name:    "status filter",
			status:  model.OrderStatusPending,
			wantIDs: []string{"aaa-111", "ccc-333"},
		},
		{
			name:    "search and status combined",
			search:  "ccc",
			status:  model.OrderStatusPending,
			wantIDs: []string{"ccc-333"},
		},
		{
			name:    "guest order not matched by name search",
			search:  "guest",
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(orders, tt.search, tt.status, names)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Filter returned %d orders, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("order %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	orders := testOrders()
	_ = Filter(orders, "bbb", "", testNames())

	if orders[0].ID != "aaa-111" || len(orders) != 3 {
		t.Fatalf("Filter mutated the input slice: %+v", orders)
	}
}

func TestSortBy(t *testing.T) {
	orders := testOrders()

	byDateAsc := SortBy(orders, SortByDate, SortAsc)
	if byDateAsc[0].ID != "aaa-111" || byDateAsc[2].ID != "ccc-333" {
		t.Fatalf("date asc order wrong: %s..%s", byDateAsc[0].ID, byDateAsc[2].ID)
	}

	byDateDesc := SortBy(orders, SortByDate, SortDesc)
	if byDateDesc[0].ID != "ccc-333" || byDateDesc[2].ID != "aaa-111" {
		t.Fatalf("date desc order wrong: %s..%s", byDateDesc[0].ID, byDateDesc[2].ID)
	}

	byTotalAsc := SortBy(orders, SortByTotal, SortAsc)
	if byTotalAsc[0].ID != "bbb-222" {
		t.Fatalf("total asc must start with cheapest, got %s", byTotalAsc[0].ID)
	}
}

func TestSortByStableOnEqualKeys(t *testing.T) {
	orders := testOrders()

	// Заказы aaa-111 и ccc-333 имеют одинаковую сумму: при сортировке по
	// сумме их взаимный порядок должен сохраниться.
	byTotalDesc := SortBy(orders, SortByTotal, SortDesc)
	if byTotalDesc[0].ID != "aaa-111" || byTotalDesc[1].ID != "ccc-333" {
		t.Fatalf("equal totals must keep fetch order, got %s, %s", byTotalDesc[0].ID, byTotalDesc[1].ID)
	}

	byTotalAsc := SortBy(orders, SortByTotal, SortAsc)
	if byTotalAsc[1].ID != "aaa-111" || byTotalAsc[2].ID != "ccc-333" {
		t.Fatalf("equal totals must keep fetch order, got %s, %s", byTotalAsc[1].ID, byTotalAsc[2].ID)
	}
}
