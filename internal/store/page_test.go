package store

import "testing"

func TestNewPage(t *testing.T) {
	tests := []struct {
		name              string
		items             int
		page, pageSize    int
		total             int
		hasNext, hasPrev  bool
	}{
		{"first of many", 10, 1, 10, 25, true, false},
		{"middle", 10, 2, 10, 25, true, true},
		{"last partial", 5, 3, 10, 25, false, true},
		{"single page", 3, 1, 10, 3, false, false},
		{"empty", 0, 1, 10, 0, false, false},
		{"past the end", 0, 5, 10, 25, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPage(make([]int, tc.items), tc.page, tc.pageSize, tc.total)
			if p.HasNext != tc.hasNext {
				t.Fatalf("HasNext = %v, want %v", p.HasNext, tc.hasNext)
			}
			if p.HasPrev != tc.hasPrev {
				t.Fatalf("HasPrev = %v, want %v", p.HasPrev, tc.hasPrev)
			}
			if p.Total != tc.total || len(p.Items) != tc.items {
				t.Fatalf("page = %+v, want %d items of %d", p, tc.items, tc.total)
			}
		})
	}
}
