package ops

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/pager"
)

func seedSeries(t *testing.T, c *Catalog, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		mustSave(t, c, int64(i+1), fmt.Sprintf("Series Episode %d", i+1), "")
	}
}

func TestSearch_PaginationCallbacks(t *testing.T) {
	c := setupCatalog(t, nil)
	ctx := context.Background()
	seedSeries(t, c, 25)

	first := c.Search(ctx, SearchInput{Query: "series", MaxResults: 10, ChatID: -100, OwnerID: 7})
	if first.Total != 25 || len(first.Files) != 10 || first.NextOffset != "10" {
		t.Fatalf("first page = total %d, files %d, next %q", first.Total, len(first.Files), first.NextOffset)
	}
	if !strings.HasPrefix(first.NextCallback, "page#") || len(first.NextCallback) > pager.MaxCallbackBytes {
		t.Fatalf("NextCallback = %q", first.NextCallback)
	}
	if first.Nav.Page != 1 || first.Nav.TotalPages != 3 || !first.Nav.HasNext {
		t.Errorf("Nav = %+v", first.Nav)
	}

	second, err := c.Page(ctx, PageInput{Callback: first.NextCallback, RequesterID: 7, MaxResults: 10})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if second.NextOffset != "20" || len(second.Files) != 10 || second.Query != "series" {
		t.Errorf("second page = next %q, files %d, query %q", second.NextOffset, len(second.Files), second.Query)
	}
	if first.Files[0].ID == second.Files[0].ID {
		t.Error("second page repeats the first page")
	}

	token, _, _ := pager.ParseCallback(first.NextCallback)
	nextToken, offset, err := pager.ParseCallback(second.NextCallback)
	if err != nil {
		t.Fatalf("ParseCallback failed: %v", err)
	}
	if nextToken != token || offset != 20 {
		t.Errorf("second callback = %s@%d, want %s@20", nextToken, offset, token)
	}

	third, err := c.Page(ctx, PageInput{Callback: second.NextCallback, RequesterID: 7, MaxResults: 10})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if third.NextOffset != "" || third.NextCallback != "" || len(third.Files) != 5 {
		t.Errorf("last page = next %q, callback %q, files %d", third.NextOffset, third.NextCallback, len(third.Files))
	}
	if first.PrevCallback != "" {
		t.Errorf("first page PrevCallback = %q, want none", first.PrevCallback)
	}
}

func TestSearch_PrevCallbacks(t *testing.T) {
	c := setupCatalog(t, nil)
	ctx := context.Background()
	seedSeries(t, c, 25)

	first := c.Search(ctx, SearchInput{Query: "series", MaxResults: 10, OwnerID: 7})
	second, err := c.Page(ctx, PageInput{Callback: first.NextCallback, RequesterID: 7, MaxResults: 10})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	third, err := c.Page(ctx, PageInput{Callback: second.NextCallback, RequesterID: 7, MaxResults: 10})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}

	token, _, _ := pager.ParseCallback(first.NextCallback)
	prevToken, offset, err := pager.ParseCallback(third.PrevCallback)
	if err != nil {
		t.Fatalf("last page PrevCallback %q: %v", third.PrevCallback, err)
	}
	if prevToken != token || offset != 10 {
		t.Errorf("last page PrevCallback = %s@%d, want %s@10", prevToken, offset, token)
	}

	back, err := c.Page(ctx, PageInput{Callback: third.PrevCallback, RequesterID: 7, MaxResults: 10})
	if err != nil {
		t.Fatalf("Page back failed: %v", err)
	}
	if back.Nav.Page != 2 || back.NextOffset != "20" || back.Files[0].ID != second.Files[0].ID {
		t.Errorf("back page = nav %+v, next %q", back.Nav, back.NextOffset)
	}
	if _, offset, _ := pager.ParseCallback(back.PrevCallback); offset != 0 {
		t.Errorf("back page PrevCallback = %q, want offset 0", back.PrevCallback)
	}
}

func TestSearch_LastPageAtOffsetGetsPrevCallback(t *testing.T) {
	c := setupCatalog(t, nil)
	ctx := context.Background()
	seedSeries(t, c, 25)

	out := c.Search(ctx, SearchInput{Query: "series", Offset: 20, MaxResults: 10, OwnerID: 7})
	if out.NextCallback != "" || out.NextOffset != "" {
		t.Errorf("last page = next %q, callback %q", out.NextOffset, out.NextCallback)
	}
	if !out.Nav.HasPrev || !strings.HasPrefix(out.PrevCallback, "page#") {
		t.Fatalf("PrevCallback = %q, nav %+v", out.PrevCallback, out.Nav)
	}

	prev, err := c.Page(ctx, PageInput{Callback: out.PrevCallback, RequesterID: 7, MaxResults: 10})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if prev.Nav.Page != 2 || len(prev.Files) != 10 {
		t.Errorf("previous page = nav %+v, files %d", prev.Nav, len(prev.Files))
	}
}

func TestPage_AdminMayPageAnyResults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AdminIDs = []int64{99}
	c := setupCatalog(t, cfg)
	seedSeries(t, c, 15)

	out := c.Search(context.Background(), SearchInput{Query: "series", OwnerID: 7})
	page, err := c.Page(context.Background(), PageInput{Callback: out.NextCallback, RequesterID: 99})
	if err != nil {
		t.Fatalf("admin Page failed: %v", err)
	}
	if len(page.Files) != 5 {
		t.Errorf("admin page files = %d, want 5", len(page.Files))
	}

	if _, err := c.Page(context.Background(), PageInput{Callback: out.NextCallback, RequesterID: 8}); !errors.Is(err, errors.ErrForbidden) {
		t.Errorf("non-admin error = %v, want FORBIDDEN", err)
	}
}

func TestPage_Forbidden(t *testing.T) {
	c := setupCatalog(t, nil)
	seedSeries(t, c, 15)

	out := c.Search(context.Background(), SearchInput{Query: "series", OwnerID: 7})
	_, err := c.Page(context.Background(), PageInput{Callback: out.NextCallback, RequesterID: 8})
	if !errors.Is(err, errors.ErrForbidden) {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
}

func TestPage_UnknownToken(t *testing.T) {
	c := setupCatalog(t, nil)

	_, err := c.Page(context.Background(), PageInput{Callback: pager.CallbackData("01ARZ3NDEKTSV4RRFFQ69G5FAV", 10)})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestPage_Malformed(t *testing.T) {
	c := setupCatalog(t, nil)

	for _, data := range []string{"", "page#x#1", "garbage"} {
		_, err := c.Page(context.Background(), PageInput{Callback: data})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Page(%q) error = %v, want INVALID_REQUEST", data, err)
		}
	}
}

func TestHealth(t *testing.T) {
	c := setupCatalog(t, nil)
	ctx := context.Background()
	seedSeries(t, c, 3)
	c.Search(ctx, SearchInput{Query: "series"})

	h := c.Health(ctx)
	if h.Status != StatusOK || !h.Connected {
		t.Errorf("Health = %+v, want ok and connected", h)
	}
	if h.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", h.TotalFiles)
	}
	if h.CacheSize != 1 {
		t.Errorf("CacheSize = %d, want 1", h.CacheSize)
	}
	if !h.FuzzyEnabled {
		t.Error("FuzzyEnabled = false with default config")
	}
}

func TestHealth_StoreDown(t *testing.T) {
	c := setupCatalog(t, nil)
	c.Close()

	h := c.Health(context.Background())
	if h.Status != StatusDegraded || h.Connected {
		t.Errorf("Health = %+v, want degraded and disconnected", h)
	}
}
