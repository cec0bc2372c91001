package memstore

import (
	"errors"
	"sync"
	"testing"
)

type row struct {
	ID   string
	Name string
	N    int
}

func TestTable_PutGetUpdate(t *testing.T) {
	tbl := NewTable[string, row]()
	tbl.Put("a", row{ID: "a", Name: "alpha"})

	got, ok := tbl.Get("a")
	if !ok || got.Name != "alpha" {
		t.Fatalf("unexpected get: %+v %v", got, ok)
	}

	updated, ok, err := tbl.Update("a", func(r *row) error {
		r.N = 5
		return nil
	})
	if err != nil || !ok || updated.N != 5 {
		t.Fatalf("unexpected update: %+v %v %v", updated, ok, err)
	}

	if _, ok, _ := tbl.Update("missing", func(*row) error { return nil }); ok {
		t.Error("expected missing id to report not found")
	}
}

func TestTable_UpdateErrorKeepsRecord(t *testing.T) {
	tbl := NewTable[string, row]()
	tbl.Put("a", row{ID: "a", N: 1})
	boom := errors.New("boom")

	_, _, err := tbl.Update("a", func(r *row) error {
		r.N = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := tbl.Get("a")
	if got.N != 1 {
		t.Errorf("record changed on failed update: %+v", got)
	}
}

func TestTable_SelectOrder(t *testing.T) {
	tbl := NewTable[string, row]()
	tbl.Put("b", row{ID: "b", N: 2})
	tbl.Put("a", row{ID: "a", N: 3})
	tbl.Put("c", row{ID: "c", N: 1})

	all := tbl.Select(nil, nil)
	if len(all) != 3 || all[0].ID != "b" || all[2].ID != "c" {
		t.Errorf("expected insertion order, got %+v", all)
	}

	sorted := tbl.Select(func(r row) bool { return r.N > 1 }, func(a, b row) bool { return a.N < b.N })
	if len(sorted) != 2 || sorted[0].ID != "b" || sorted[1].ID != "a" {
		t.Errorf("unexpected filtered order: %+v", sorted)
	}
}

func TestTable_Concurrent(t *testing.T) {
	tbl := NewTable[string, row]()
	tbl.Put("x", row{ID: "x"})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = tbl.Update("x", func(r *row) error { r.N++; return nil })
			_ = tbl.Select(nil, nil)
		}()
	}
	wg.Wait()
	got, _ := tbl.Get("x")
	if got.N != 50 {
		t.Errorf("expected 50 increments, got %d", got.N)
	}
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page, total := Window(items, 2, 1)
	if total != 5 || len(page) != 2 || page[0] != 2 {
		t.Errorf("unexpected window: %v %d", page, total)
	}
	page, _ = Window(items, 10, 4)
	if len(page) != 1 {
		t.Errorf("expected tail page, got %v", page)
	}
	page, _ = Window(items, 2, 10)
	if len(page) != 0 {
		t.Errorf("expected empty page, got %v", page)
	}
}
