package listutil

import (
	"math"
	"net/url"
	"testing"
)

// TestParsePageParams_Defaults verifies default page params when no query values provided.
func TestParsePageParams_Defaults(t *testing.T) {
	p := ParsePageParams(url.Values{})
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("expected limit %d, got %d", DefaultLimit, p.Limit)
	}
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name      string
		q         url.Values
		wantPage  int
		wantLimit int
	}{
		{"valid", url.Values{"page": {"3"}, "limit": {"25"}}, 3, 25},
		{"negative page", url.Values{"page": {"-1"}}, 1, DefaultLimit},
		{"zero limit", url.Values{"limit": {"0"}}, 1, DefaultLimit},
		{"garbage", url.Values{"page": {"two"}, "limit": {"ten"}}, 1, DefaultLimit},
		{"limit capped", url.Values{"limit": {"5000"}}, 1, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(tt.q)
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d", p.Page, p.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestPageParams_Offset(t *testing.T) {
	if got := (PageParams{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Errorf("Offset = %d, want 20", got)
	}
}

// TestNewPageInfo verifies pages = ceil(total/limit).
func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		total, limit, wantPages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, tt := range tests {
		info := NewPageInfo(PageParams{Page: 2, Limit: tt.limit}, tt.total)
		if info.Pages != tt.wantPages {
			t.Errorf("total=%d limit=%d: pages = %d, want %d", tt.total, tt.limit, info.Pages, tt.wantPages)
		}
		if info.Page != 2 {
			t.Errorf("page = %d, want 2 (not clamped)", info.Page)
		}
	}
}

func TestNormalize_HugePageDoesNotOverflow(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
	}{
		{"max int", math.MaxInt, MaxLimit},
		{"1<<62", 1 << 62, 4},
		{"just above max page", MaxPage + 1, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PageParams{Page: tt.page, Limit: tt.limit}.Normalize()
			if p.Page != MaxPage {
				t.Errorf("Page = %d, want %d", p.Page, MaxPage)
			}
			if off := p.Offset(); off < 0 {
				t.Errorf("Offset = %d, want non-negative", off)
			}
		})
	}

	q := url.Values{"page": {"9223372036854775807"}, "limit": {"100"}}
	if off := ParsePageParams(q).Offset(); off < 0 {
		t.Errorf("parsed Offset = %d, want non-negative", off)
	}
}
