package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&offset=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != 25 {
		t.Errorf("expected limit 25, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=5000&offset=-3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected negative offset clamped to 0, got %d", p.Offset)
	}
}

func TestParams_Apply(t *testing.T) {
	q := url.Values{}
	Params{Limit: 20, Offset: 40}.Apply(q)
	if q.Get("limit") != "20" || q.Get("offset") != "40" {
		t.Errorf("unexpected query %s", q.Encode())
	}

	empty := url.Values{}
	Params{}.Apply(empty)
	if len(empty) != 0 {
		t.Errorf("expected zero params to be omitted, got %s", empty.Encode())
	}
}

func TestParams_Window(t *testing.T) {
	tests := []struct {
		p          Params
		total      int
		start, end int
	}{
		{Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{Params{Limit: 10, Offset: 30}, 25, 25, 25},
	}
	for _, tt := range tests {
		start, end := tt.p.Window(tt.total)
		if start != tt.start || end != tt.end {
			t.Errorf("Window(%+v, %d) = [%d,%d), want [%d,%d)", tt.p, tt.total, start, end, tt.start, tt.end)
		}
	}
}

func TestSQL(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if p.SQL() != "LIMIT 20 OFFSET 40" {
		t.Errorf("unexpected SQL %q", p.SQL())
	}
}

func TestNewResponse_DecodesAsPage(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 5, 2, 0)
	if !resp.HasMore {
		t.Error("expected has_more for first page of five")
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var page Page[string]
	if err := json.Unmarshal(raw, &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(page.Data) != 2 || page.Total != 5 || !page.HasMore {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestParams_HasNext(t *testing.T) {
	p := Params{Limit: 10, Offset: 0}
	if !p.HasNext(11) {
		t.Error("expected next page when total exceeds limit")
	}
	if p.HasNext(10) {
		t.Error("expected no next page when total equals limit")
	}
	if p.NextOffset() != 10 {
		t.Errorf("expected next offset 10, got %d", p.NextOffset())
	}
}

// backend serves n integers in pages the way list endpoints do.
func backend(n int, calls *[]Params) func(context.Context, Params) (*Page[int], error) {
	return func(_ context.Context, p Params) (*Page[int], error) {
		*calls = append(*calls, p)
		start, end := p.Window(n)
		data := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			data = append(data, i)
		}
		return &Page[int]{Data: data, Total: n, Limit: p.Limit, Offset: p.Offset, HasMore: p.HasNext(n)}, nil
	}
}

func TestCollect_WalksEveryPage(t *testing.T) {
	var calls []Params
	items, total, err := Collect(context.Background(), backend(2*MaxLimit+3, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2*MaxLimit+3 || total != 2*MaxLimit+3 {
		t.Fatalf("expected every item, got %d of %d", len(items), total)
	}
	if len(calls) != 3 || calls[2].Offset != 2*MaxLimit {
		t.Errorf("unexpected page requests %+v", calls)
	}
	for i, v := range items {
		if v != i {
			t.Fatalf("item %d = %d, pages overlap or skip", i, v)
		}
	}
}

func TestCollect_SinglePage(t *testing.T) {
	var calls []Params
	items, total, err := Collect(context.Background(), backend(7, &calls))
	if err != nil || len(items) != 7 || total != 7 || len(calls) != 1 {
		t.Errorf("got %d items, total %d, %d calls, err %v", len(items), total, len(calls), err)
	}
}

func TestCollect_StopsOnErrorAndEmptyPage(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := Collect(context.Background(), func(context.Context, Params) (*Page[int], error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected the fetch error, got %v", err)
	}

	calls := 0
	items, total, err := Collect(context.Background(), func(context.Context, Params) (*Page[int], error) {
		calls++
		return &Page[int]{Total: 10, HasMore: true}, nil
	})
	if err != nil || len(items) != 0 || total != 10 || calls != 1 {
		t.Errorf("an empty page must end the walk: items=%d total=%d calls=%d err=%v", len(items), total, calls, err)
	}
}

func TestCollect_BoundedByMaxPages(t *testing.T) {
	var calls []Params
	items, total, err := Collect(context.Background(), backend((MaxPages+5)*MaxLimit, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != MaxPages || len(items) != MaxPages*MaxLimit || total != (MaxPages+5)*MaxLimit {
		t.Errorf("calls=%d items=%d total=%d", len(calls), len(items), total)
	}
}
