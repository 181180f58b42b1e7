package vendordb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HomeNetOps/homewatch/internal/store"
	"github.com/HomeNetOps/homewatch/internal/testutil"
	"go.uber.org/zap"
)

const vendorJSON = `[
  {"macPrefix":"00:00:5E","vendorName":"ICANN, IANA Department","blockType":"MA-L","private":false},
  {"macPrefix":"8C:1F:64:A5:E","vendorName":"Tiny Block Co","blockType":"MA-S","private":false}
]`

func newVendorStore(t *testing.T) *store.VendorStore {
	t.Helper()
	db := testutil.NewStore(t)
	if err := db.Migrate(context.Background(), "vendors", store.VendorMigrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewVendorStore(db.DB())
}

// vendorServer serves the export with an optional Last-Modified header and
// counts GET downloads.
func vendorServer(lastModified time.Time, downloads *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lastModified.IsZero() {
			w.Header().Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
		}
		if r.Method == http.MethodGet {
			*downloads++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(vendorJSON))
		}
	}))
}

func TestDownload(t *testing.T) {
	var downloads int
	srv := vendorServer(time.Time{}, &downloads)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	entries, err := c.Download(context.Background())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Prefix != "00:00:5E" || entries[0].VendorName != "ICANN, IANA Department" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestLastModified(t *testing.T) {
	modified := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var downloads int
	srv := vendorServer(modified, &downloads)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	ts, err := c.LastModified(context.Background())
	if err != nil {
		t.Fatalf("LastModified: %v", err)
	}
	if ts != float64(modified.Unix()) {
		t.Errorf("LastModified = %v, want %v", ts, modified.Unix())
	}
}

func TestLastModifiedAbsentHeader(t *testing.T) {
	var downloads int
	srv := vendorServer(time.Time{}, &downloads)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	ts, err := c.LastModified(context.Background())
	if err != nil {
		t.Fatalf("LastModified: %v", err)
	}
	if ts != 0 {
		t.Errorf("LastModified = %v, want 0 for absent header", ts)
	}
}

func TestRefreshPopulatesStore(t *testing.T) {
	modified := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var downloads int
	srv := vendorServer(modified, &downloads)
	defer srv.Close()

	vendors := newVendorStore(t)
	c := NewClient(srv.URL, zap.NewNop())
	ctx := context.Background()

	if err := c.Refresh(ctx, vendors); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if downloads != 1 {
		t.Fatalf("expected 1 download, got %d", downloads)
	}

	count, err := vendors.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("stored entries = %d, want 2", count)
	}

	entry, err := vendors.Search(ctx, "00:00:5E:00:01:01")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if entry == nil || entry.VendorName != "ICANN, IANA Department" {
		t.Errorf("Search = %+v", entry)
	}

	ts, err := vendors.Timestamp(ctx)
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	if ts != float64(modified.Unix()) {
		t.Errorf("stored timestamp = %v, want upstream %v", ts, modified.Unix())
	}
}

func TestRefreshSkipsWhenUpToDate(t *testing.T) {
	modified := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var downloads int
	srv := vendorServer(modified, &downloads)
	defer srv.Close()

	vendors := newVendorStore(t)
	c := NewClient(srv.URL, zap.NewNop())
	ctx := context.Background()

	if err := c.Refresh(ctx, vendors); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if err := c.Refresh(ctx, vendors); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if downloads != 1 {
		t.Errorf("unchanged upstream should not be downloaded again, got %d downloads", downloads)
	}
}

func TestRefreshWithoutLastModifiedAlwaysDownloads(t *testing.T) {
	var downloads int
	srv := vendorServer(time.Time{}, &downloads)
	defer srv.Close()

	vendors := newVendorStore(t)
	c := NewClient(srv.URL, zap.NewNop())
	ctx := context.Background()

	if err := c.Refresh(ctx, vendors); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if err := c.Refresh(ctx, vendors); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if downloads != 2 {
		t.Errorf("a server without Last-Modified cannot be skipped, got %d downloads", downloads)
	}

	ts, err := vendors.Timestamp(ctx)
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	if ts == 0 {
		t.Error("fallback fetch timestamp not stored")
	}
}
